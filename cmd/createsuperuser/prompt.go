package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"golang.org/x/term"
)

// test seams for the terminal
var (
	isTerminal   = term.IsTerminal
	readTerminal = term.ReadPassword
)

var (
	errEmptyPassword    = errors.New("password must not be empty")
	errPasswordMismatch = errors.New("passwords do not match")
)

// readPassword asks twice without echo when fd is a terminal. Otherwise it reads a single
// line from in so the command can be scripted.
func readPassword(fd int, in io.Reader, out io.Writer) ([]byte, error) {
	if !isTerminal(fd) {
		line, err := bufio.NewReader(in).ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		password := bytes.TrimRight(line, "\r\n")
		if len(password) == 0 {
			return nil, errEmptyPassword
		}
		return password, nil
	}

	first, err := prompt(fd, out, "Password: ")
	if err != nil {
		return nil, err
	}
	second, err := prompt(fd, out, "Repeat password: ")
	if err != nil {
		clear(first)
		return nil, err
	}
	defer clear(second)

	if len(first) == 0 {
		return nil, errEmptyPassword
	}
	if !bytes.Equal(first, second) {
		clear(first)
		return nil, errPasswordMismatch
	}
	return first, nil
}

func prompt(fd int, out io.Writer, label string) ([]byte, error) {
	if _, err := fmt.Fprint(out, label); err != nil {
		return nil, err
	}
	password, err := readTerminal(fd)
	fmt.Fprintln(out)
	return password, err
}

package auth

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	apperrors "github.com/catalog-hub/catalog-service/pkg/util"
)

// Hasher runs bcrypt on a bounded set of worker goroutines so request handlers never
// spend their own time on the adaptive hash cost.
//
// Callers wait for a worker slot (queueing) for as long as their context allows. Each
// computation hands its result back over a single-use buffered channel. A caller that
// gives up early gets ctx.Err(); the worker still runs to completion and its result is
// dropped.
type Hasher struct {
	cost int
	sem  *semaphore.Weighted

	generate func(password []byte, cost int) ([]byte, error)
	compare  func(hashed, password []byte) error
}

// NewHasher builds a hasher with the given bcrypt cost and worker count.
func NewHasher(cost, workers int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Hasher{
		cost:     cost,
		sem:      semaphore.NewWeighted(int64(workers)),
		generate: bcrypt.GenerateFromPassword,
		compare:  bcrypt.CompareHashAndPassword,
	}
}

type hashResult struct {
	hash    string
	matched bool
	err     error
}

// Hash computes a bcrypt hash of password. The password buffer is zeroed once the worker
// is done with it, so callers must not reuse it.
func (h *Hasher) Hash(ctx context.Context, password []byte) (string, error) {
	res, err := h.offload(ctx, password, func() hashResult {
		hashed, err := h.generate(password, h.cost)
		if err != nil {
			return hashResult{err: apperrors.Wrap(ErrHashFailure, err)}
		}
		return hashResult{hash: string(hashed)}
	})
	if err != nil {
		return "", err
	}
	return res.hash, res.err
}

// Verify reports whether password matches hashed. A mismatch is (false, nil); a hash the
// library cannot read is ErrHashFailure. The password buffer is zeroed after use.
func (h *Hasher) Verify(ctx context.Context, password []byte, hashed string) (bool, error) {
	res, err := h.offload(ctx, password, func() hashResult {
		err := h.compare([]byte(hashed), password)
		switch {
		case err == nil:
			return hashResult{matched: true}
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return hashResult{}
		default:
			return hashResult{err: apperrors.Wrap(ErrHashFailure, err)}
		}
	})
	if err != nil {
		return false, err
	}
	return res.matched, res.err
}

// offload runs fn on a worker slot. The worker owns secret and zeroes it before handing
// the result back; if no slot is granted, secret is zeroed here.
func (h *Hasher) offload(ctx context.Context, secret []byte, fn func() hashResult) (hashResult, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		clear(secret)
		return hashResult{}, err
	}

	done := make(chan hashResult, 1)
	go func() {
		defer h.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				clear(secret)
				close(done)
			}
		}()
		res := fn()
		clear(secret)
		done <- res
	}()

	select {
	case res, ok := <-done:
		if !ok {
			return hashResult{}, ErrComputationAborted
		}
		return res, nil
	case <-ctx.Done():
		return hashResult{}, ctx.Err()
	}
}

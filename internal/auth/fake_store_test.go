package auth

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/catalog-hub/catalog-service/internal/domain"
)

type fakeStore struct {
	mu        sync.Mutex
	byEmail   map[string]*domain.User
	byID      map[string]*domain.User
	err       error
	emailHits int
	idHits    int
}

func newFakeStore(users ...*domain.User) *fakeStore {
	s := &fakeStore{byEmail: map[string]*domain.User{}, byID: map[string]*domain.User{}}
	for _, u := range users {
		s.byEmail[u.Email] = u
		s.byID[u.ID] = u
	}
	return s
}

func (s *fakeStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emailHits++
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (s *fakeStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idHits++
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (s *fakeStore) calls() (email, id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emailHits, s.idHits
}

func (s *fakeStore) delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		delete(s.byEmail, u.Email)
		delete(s.byID, id)
	}
}

package project

import (
	"context"
	"sort"
	"sync"
	"time"

	"indhive.org/internal/ids"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	projects map[string]*Project
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{projects: make(map[string]*Project)}
}

func clone(p *Project) *Project {
	out := *p
	out.Collaborators = append([]string(nil), p.Collaborators...)
	return &out
}

func (s *MemoryStore) Create(_ context.Context, p *Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = ids.New()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.projects[p.ID] = clone(p)
	return nil
}

func (s *MemoryStore) Find(_ context.Context, id string) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(p), nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]*Project, 0, len(s.projects))
	for _, p := range s.projects {
		res = append(res, clone(p))
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

func (s *MemoryStore) ListByOwner(_ context.Context, ownerEmail string) ([]*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []*Project
	for _, p := range s.projects {
		if p.OwnerEmail == ownerEmail {
			res = append(res, clone(p))
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

func (s *MemoryStore) Update(_ context.Context, p *Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.projects[p.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Title = p.Title
	cur.Description = p.Description
	cur.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return ErrNotFound
	}
	delete(s.projects, id)
	return nil
}

func (s *MemoryStore) AddCollaborator(_ context.Context, projectID, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok {
		return ErrNotFound
	}
	if !p.HasCollaborator(email) {
		p.Collaborators = append(p.Collaborators, email)
	}
	return nil
}

func (s *MemoryStore) RemoveCollaborator(_ context.Context, projectID, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok {
		return ErrNotFound
	}
	for i, c := range p.Collaborators {
		if c == email {
			p.Collaborators = append(p.Collaborators[:i], p.Collaborators[i+1:]...)
			break
		}
	}
	return nil
}

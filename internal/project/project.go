package project

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("project: not found")
	ErrInvalidInput = errors.New("project: invalid input")
	ErrForbidden    = errors.New("project: forbidden")
)

// Project is a tracked piece of work with one owner and any number of
// collaborators. Owner and collaborators are referenced by their canonical
// email identifier.
type Project struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	OwnerEmail    string    `json:"owner_email"`
	Collaborators []string  `json:"collaborators"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasCollaborator reports whether the email is among the collaborators.
func (p *Project) HasCollaborator(email string) bool {
	for _, c := range p.Collaborators {
		if c == email {
			return true
		}
	}
	return false
}

// Store is the persistence boundary for projects.
type Store interface {
	Create(ctx context.Context, p *Project) error
	Find(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context) ([]*Project, error)
	ListByOwner(ctx context.Context, ownerEmail string) ([]*Project, error)
	Update(ctx context.Context, p *Project) error
	Delete(ctx context.Context, id string) error
	AddCollaborator(ctx context.Context, projectID, email string) error
	RemoveCollaborator(ctx context.Context, projectID, email string) error
}

package project

import (
	"context"
	"fmt"
	"strings"

	"indhive.org/internal/auth"
)

// Service applies ownership and role rules on top of the store. Mutations
// require the owner or ROLE_ADMIN; reads require only an authenticated
// principal. The Forbidden decision lives here, not in the authenticator.
type Service struct {
	store Store
}

// NewService constructs the project service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

func canManage(principal auth.Principal, p *Project) bool {
	return principal.Email == p.OwnerEmail || principal.HasRole(auth.RoleAdmin)
}

// Create stores a new project owned by the principal.
func (s *Service) Create(ctx context.Context, principal auth.Principal, title, description string) (*Project, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	p := &Project{
		Title:       title,
		Description: strings.TrimSpace(description),
		OwnerEmail:  principal.Email,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

// Get returns a project by id.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	return s.store.Find(ctx, id)
}

// List returns all projects.
func (s *Service) List(ctx context.Context) ([]*Project, error) {
	return s.store.List(ctx)
}

// ListByOwner returns the projects owned by the given user.
func (s *Service) ListByOwner(ctx context.Context, ownerEmail string) ([]*Project, error) {
	ownerEmail = strings.ToLower(strings.TrimSpace(ownerEmail))
	if ownerEmail == "" {
		return nil, fmt.Errorf("%w: owner email is required", ErrInvalidInput)
	}
	return s.store.ListByOwner(ctx, ownerEmail)
}

// Update changes title/description. Owner or admin only.
func (s *Service) Update(ctx context.Context, principal auth.Principal, id, title, description string) (*Project, error) {
	p, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(principal, p) {
		return nil, ErrForbidden
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	p.Title = title
	p.Description = strings.TrimSpace(description)
	if err := s.store.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return p, nil
}

// Delete removes a project and its collaborator links. Owner or admin only.
func (s *Service) Delete(ctx context.Context, principal auth.Principal, id string) error {
	p, err := s.store.Find(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(principal, p) {
		return ErrForbidden
	}
	return s.store.Delete(ctx, id)
}

// AddCollaborator links a user to the project. Owner or admin only. Adding
// an existing collaborator is a no-op.
func (s *Service) AddCollaborator(ctx context.Context, principal auth.Principal, id, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("%w: collaborator email is required", ErrInvalidInput)
	}
	p, err := s.store.Find(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(principal, p) {
		return ErrForbidden
	}
	if p.HasCollaborator(email) {
		return nil
	}
	return s.store.AddCollaborator(ctx, id, email)
}

// RemoveCollaborator unlinks a user from the project. Owner or admin only.
func (s *Service) RemoveCollaborator(ctx context.Context, principal auth.Principal, id, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	p, err := s.store.Find(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(principal, p) {
		return ErrForbidden
	}
	return s.store.RemoveCollaborator(ctx, id, email)
}

package project

import (
	"context"
	"database/sql"

	"indhive.org/internal/ids"
)

// Expected schema:
//
//	create table projects (
//	    id          text primary key,
//	    title       text not null,
//	    description text not null default '',
//	    owner_email text not null references users(email),
//	    created_at  timestamptz not null default now(),
//	    updated_at  timestamptz not null default now()
//	);
//
//	create table project_collaborators (
//	    project_id text not null references projects(id),
//	    email      text not null,
//	    primary key (project_id, email)
//	);

var _ Store = (*PGStore)(nil)

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, p *Project) error {
	if p.ID == "" {
		p.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into projects(id, title, description, owner_email) values($1,$2,$3,$4)`,
		p.ID, p.Title, p.Description, p.OwnerEmail,
	)
	return err
}

func (s *PGStore) Find(ctx context.Context, id string) (*Project, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, title, description, owner_email, created_at, updated_at from projects where id=$1`, id)
	var p Project
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.OwnerEmail, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	collabs, err := s.collaborators(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Collaborators = collabs
	return &p, nil
}

func (s *PGStore) collaborators(ctx context.Context, projectID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`select email from project_collaborators where project_id=$1 order by email asc`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

func (s *PGStore) List(ctx context.Context) ([]*Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, title, description, owner_email, created_at, updated_at from projects order by created_at asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.OwnerEmail, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, p := range res {
		collabs, err := s.collaborators(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		p.Collaborators = collabs
	}
	return res, nil
}

func (s *PGStore) ListByOwner(ctx context.Context, ownerEmail string) ([]*Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, title, description, owner_email, created_at, updated_at from projects where owner_email=$1 order by created_at asc`,
		ownerEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.OwnerEmail, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, p := range res {
		collabs, err := s.collaborators(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		p.Collaborators = collabs
	}
	return res, nil
}

func (s *PGStore) Update(ctx context.Context, p *Project) error {
	res, err := s.db.ExecContext(ctx,
		`update projects set title=$1, description=$2, updated_at=now() where id=$3`,
		p.Title, p.Description, p.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`delete from project_collaborators where project_id=$1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `delete from projects where id=$1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func (s *PGStore) AddCollaborator(ctx context.Context, projectID, email string) error {
	_, err := s.db.ExecContext(ctx,
		`insert into project_collaborators(project_id, email) values($1,$2) on conflict do nothing`,
		projectID, email,
	)
	return err
}

func (s *PGStore) RemoveCollaborator(ctx context.Context, projectID, email string) error {
	_, err := s.db.ExecContext(ctx,
		`delete from project_collaborators where project_id=$1 and email=$2`,
		projectID, email,
	)
	return err
}

package auth

import (
	"context"
	"database/sql"
	"time"

	"indhive.org/internal/ids"
)

// Postgres-backed stores. Expected schema:
//
//	create table users (
//	    id            text primary key,
//	    username      text not null unique,
//	    email         text not null unique,
//	    password_hash text not null,
//	    roles         text not null default 'ROLE_USER',
//	    created_at    timestamptz not null default now(),
//	    updated_at    timestamptz not null default now()
//	);
//
//	create table revoked_tokens (
//	    token      text primary key,
//	    revoked_at timestamptz not null
//	);

var (
	_ UserStore       = (*PGUserStore)(nil)
	_ RevocationStore = (*PGRevocationStore)(nil)
)

// PGUserStore implements UserStore on PostgreSQL.
type PGUserStore struct {
	db *sql.DB
}

func NewPGUserStore(db *sql.DB) *PGUserStore {
	return &PGUserStore{db: db}
}

func (s *PGUserStore) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, username, email, password_hash, roles) values($1,$2,$3,$4,$5)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Roles.Join(),
	)
	return err
}

func (s *PGUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, username, email, password_hash, roles, created_at, updated_at from users where email=$1`,
		email,
	)
	var (
		u     User
		roles string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &roles, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.Roles = ParseRoles(roles)
	return &u, nil
}

func (s *PGUserStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	row := s.db.QueryRowContext(ctx,
		`select exists(select 1 from users where username=$1)`, username)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *PGUserStore) List(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, username, email, password_hash, roles, created_at, updated_at from users order by created_at asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*User
	for rows.Next() {
		var (
			u     User
			roles string
		)
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &roles, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.Roles = ParseRoles(roles)
		res = append(res, &u)
	}
	return res, rows.Err()
}

func (s *PGUserStore) Update(ctx context.Context, u *User) error {
	res, err := s.db.ExecContext(ctx,
		`update users set username=$1, roles=$2, updated_at=now() where email=$3`,
		u.Username, u.Roles.Join(), u.Email,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGUserStore) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set password_hash=$1, updated_at=now() where email=$2`,
		passwordHash, email,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGUserStore) Delete(ctx context.Context, email string) error {
	res, err := s.db.ExecContext(ctx, `delete from users where email=$1`, email)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// PGRevocationStore implements RevocationStore on PostgreSQL. Rows are never
// pruned; entries for long-expired tokens are harmless but accumulate until
// an operator-side retention job removes them.
type PGRevocationStore struct {
	db *sql.DB
}

func NewPGRevocationStore(db *sql.DB) *PGRevocationStore {
	return &PGRevocationStore{db: db}
}

func (s *PGRevocationStore) Revoke(ctx context.Context, token string, at time.Time) error {
	// ON CONFLICT DO NOTHING keeps revocation idempotent and preserves the
	// original revocation instant.
	_, err := s.db.ExecContext(ctx,
		`insert into revoked_tokens(token, revoked_at) values($1,$2) on conflict (token) do nothing`,
		token, at,
	)
	return err
}

func (s *PGRevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	row := s.db.QueryRowContext(ctx,
		`select exists(select 1 from revoked_tokens where token=$1)`, token)
	var revoked bool
	if err := row.Scan(&revoked); err != nil {
		return false, err
	}
	return revoked, nil
}

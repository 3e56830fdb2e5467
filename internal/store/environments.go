package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/unkn0wn-root/apidash/internal/errdef"
)

type Environment struct {
	ID          int64
	Name        string
	Description string
	Variables   map[string]string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SaveEnvironment upserts by name. When activate is set, the write and
// the deactivation of every other environment happen in one
// transaction so at most one environment is ever active.
func (s *Store) SaveEnvironment(ctx context.Context, env Environment, activate bool) (int64, error) {
	variables, err := json.Marshal(env.Variables)
	if err != nil {
		return 0, errdef.Wrap(errdef.CodeStorage, err, "encode variables for %q", env.Name)
	}
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errdef.Wrap(errdef.CodeStorage, err, "begin transaction")
	}
	defer tx.Rollback()

	if activate {
		if _, err := tx.ExecContext(ctx, `UPDATE environments SET is_active = 0`); err != nil {
			return 0, errdef.Wrap(errdef.CodeStorage, err, "deactivate environments")
		}
	}

	active := 0
	if activate {
		active = 1
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO environments (name, description, variables, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			description = excluded.description,
			variables = excluded.variables,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at`,
		env.Name, env.Description, string(variables), active, now, now); err != nil {
		return 0, errdef.Wrap(errdef.CodeStorage, err, "save environment %q", env.Name)
	}

	var id int64
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM environments WHERE name = ?`, env.Name).Scan(&id); err != nil {
		return 0, errdef.Wrap(errdef.CodeStorage, err, "lookup environment %q", env.Name)
	}

	if err := tx.Commit(); err != nil {
		return 0, errdef.Wrap(errdef.CodeStorage, err, "commit environment %q", env.Name)
	}
	return id, nil
}

func (s *Store) Environments(ctx context.Context) ([]Environment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, variables, is_active, created_at, updated_at
		FROM environments ORDER BY name`)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeStorage, err, "list environments")
	}
	defer rows.Close()

	var envs []Environment
	for rows.Next() {
		env, err := scanEnvironment(rows)
		if err != nil {
			return nil, err
		}
		envs = append(envs, env)
	}
	if err := rows.Err(); err != nil {
		return nil, errdef.Wrap(errdef.CodeStorage, err, "list environments")
	}
	return envs, nil
}

// ActiveEnvironment returns nil when no environment is active.
func (s *Store) ActiveEnvironment(ctx context.Context) (*Environment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, variables, is_active, created_at, updated_at
		FROM environments WHERE is_active = 1 LIMIT 1`)
	env, err := scanEnvironment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &env, nil
}

// ActivateEnvironment deactivates every environment and activates the
// chosen one as a single critical section.
func (s *Store) ActivateEnvironment(ctx context.Context, id int64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, errdef.Wrap(errdef.CodeStorage, err, "begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE environments SET is_active = 0`); err != nil {
		return false, errdef.Wrap(errdef.CodeStorage, err, "deactivate environments")
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE environments SET is_active = 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id)
	if err != nil {
		return false, errdef.Wrap(errdef.CodeStorage, err, "activate environment %d", id)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, errdef.Wrap(errdef.CodeStorage, err, "activate environment %d", id)
	}
	if affected == 0 {
		return false, nil
	}
	if err := tx.Commit(); err != nil {
		return false, errdef.Wrap(errdef.CodeStorage, err, "commit activation")
	}
	return true, nil
}

func (s *Store) DeleteEnvironment(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM environments WHERE id = ?`, id)
	if err != nil {
		return false, errdef.Wrap(errdef.CodeStorage, err, "delete environment %d", id)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, errdef.Wrap(errdef.CodeStorage, err, "delete environment %d", id)
	}
	return affected > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEnvironment(row rowScanner) (Environment, error) {
	var env Environment
	var variables string
	var active int
	if err := row.Scan(&env.ID, &env.Name, &env.Description, &variables,
		&active, &env.CreatedAt, &env.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Environment{}, err
		}
		return Environment{}, errdef.Wrap(errdef.CodeStorage, err, "scan environment")
	}
	env.IsActive = active != 0
	if variables != "" {
		if err := json.Unmarshal([]byte(variables), &env.Variables); err != nil {
			return Environment{}, errdef.Wrap(errdef.CodeStorage, err, "decode variables")
		}
	}
	return env, nil
}

package postgres

import (
	"context"

	stateDatamodel "github.com/frahmantamala/employee-console/internal/core/datamodel/state"
	"github.com/frahmantamala/employee-console/internal/session"
	"github.com/jmoiron/sqlx"
)

// StateRepository works against both the Postgres server database and the CLI's SQLite file;
// queries are written with ? and rebound for the driver.
type StateRepository struct {
	db *sqlx.DB
}

func NewStateRepository(db *sqlx.DB) session.RepositoryAPI {
	return &StateRepository{db: db}
}

func (r *StateRepository) List(ctx context.Context, scope string) ([]stateDatamodel.Entry, error) {
	var entries []stateDatamodel.Entry
	query := r.db.Rebind(`SELECT scope, key, value, updated_at FROM console_state WHERE scope = ? ORDER BY key`)
	if err := r.db.SelectContext(ctx, &entries, query, scope); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *StateRepository) Put(ctx context.Context, entry stateDatamodel.Entry) error {
	query := r.db.Rebind(`INSERT INTO console_state (scope, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (scope, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	_, err := r.db.ExecContext(ctx, query, entry.Scope, entry.Key, entry.Value, entry.UpdatedAt)
	return err
}

func (r *StateRepository) Delete(ctx context.Context, scope, key string) error {
	query := r.db.Rebind(`DELETE FROM console_state WHERE scope = ? AND key = ?`)
	_, err := r.db.ExecContext(ctx, query, scope, key)
	return err
}

func (r *StateRepository) DeleteScope(ctx context.Context, scope string) error {
	query := r.db.Rebind(`DELETE FROM console_state WHERE scope = ?`)
	_, err := r.db.ExecContext(ctx, query, scope)
	return err
}

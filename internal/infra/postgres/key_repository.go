package postgres

import (
	"context"
	"time"
)

// KeyRepository loads the privileged bypass keys from Postgres. The schema
// is created on first load so a fresh database works without migration
// tooling.
type KeyRepository struct {
	DB  *DB
	DSN string
}

func NewKeyRepository(db *DB, dsn string) *KeyRepository {
	return &KeyRepository{DB: db, DSN: dsn}
}

func (r *KeyRepository) ensureSchema(ctx context.Context) error {
	db, err := r.DB.Get(r.DSN)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ddl := `CREATE TABLE IF NOT EXISTS privileged_keys (
		key TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		comment TEXT
	);`
	_, err = db.ExecContext(ctx, ddl)
	return err
}

// LoadKeys returns every key in the table.
func (r *KeyRepository) LoadKeys(ctx context.Context) ([]string, error) {
	if err := r.ensureSchema(ctx); err != nil {
		return nil, err
	}

	db, err := r.DB.Get(r.DSN)
	if err != nil {
		return nil, err
	}

	qctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := db.QueryContext(qctx, `SELECT key FROM privileged_keys;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

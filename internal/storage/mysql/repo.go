package mysql

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/rs/zerolog/log"

	"global_explorer/internal/adapters/observability"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Repo implements the storage port on the kv_store table.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var v []byte
	err := r.db.QueryRowContext(ctx, getSQL, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		observability.ObserveStoreMiss("mysql")
		return nil, false, nil
	}
	observability.ObserveStore("mysql", "get", err)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (r *Repo) Set(ctx context.Context, key string, val []byte) error {
	_, err := r.db.ExecContext(ctx, upsertSQL, key, val)
	observability.ObserveStore("mysql", "set", err)
	return err
}

func (r *Repo) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, deleteSQL, key)
	observability.ObserveStore("mysql", "delete", err)
	return err
}

// Migrate applies the embedded .sql files in name order. Every file is
// written to be re-runnable.
func Migrate(ctx context.Context, db *sql.DB) error {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)
	for _, f := range files {
		b, err := migrations.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		if _, err := db.ExecContext(ctx, string(b)); err != nil {
			return fmt.Errorf("exec %s: %w", f, err)
		}
		log.Debug().Str("file", f).Msg("migration applied")
	}
	return nil
}

package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/EvolutionAPI/evo-ai-console/internal/biz/domain"
	"github.com/EvolutionAPI/evo-ai-console/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// identityRepo persists the client identity in a single-row sqlite table.
type identityRepo struct {
	db *sql.DB
}

// NewIdentityRepo opens (or creates) the identity database.
func NewIdentityRepo(dbPath string) (repo.IdentityRepo, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS identity (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			client_id TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &identityRepo{db: db}, nil
}

// Load reads the stored identity. An empty database reports found=false with
// no error.
func (r *identityRepo) Load(ctx context.Context) (domain.Identity, bool, error) {
	row := r.db.QueryRowContext(ctx, `SELECT client_id FROM identity WHERE id = 1`)

	var identity domain.Identity
	err := row.Scan(&identity.ClientID)
	if err == sql.ErrNoRows {
		return domain.Identity{}, false, nil
	}
	if err != nil {
		return domain.Identity{}, false, fmt.Errorf("failed to query identity: %w", err)
	}
	if !identity.Valid() {
		return domain.Identity{}, false, nil
	}
	return identity, true, nil
}

// Save stores the identity, replacing any previous one.
func (r *identityRepo) Save(ctx context.Context, identity domain.Identity) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO identity (id, client_id) VALUES (1, ?)
	`, identity.ClientID)
	if err != nil {
		return fmt.Errorf("failed to save identity: %w", err)
	}
	return nil
}

func (r *identityRepo) Close() error {
	return r.db.Close()
}

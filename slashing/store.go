package slashing

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store wraps a *sql.DB with the slashing-protection schema applied. The
// pure-Go modernc.org/sqlite driver keeps the whole binary cgo-free.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at dataSourceName
// and applies the schema migration. Use "file::memory:?cache=shared" (or
// just ":memory:" for single-connection tests) for ephemeral stores.
func Open(dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("slashing: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite: one writer; serialises every transaction (spec §5 "DB discipline")
	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error { return s.db.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS validators (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	public_key TEXT NOT NULL UNIQUE,
	enabled INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS signed_blocks (
	validator_id INTEGER NOT NULL REFERENCES validators(id),
	slot INTEGER NOT NULL,
	signing_root BLOB,
	UNIQUE(validator_id, slot)
);

CREATE TABLE IF NOT EXISTS signed_attestations (
	validator_id INTEGER NOT NULL REFERENCES validators(id),
	source_epoch INTEGER NOT NULL,
	target_epoch INTEGER NOT NULL,
	signing_root BLOB,
	UNIQUE(validator_id, target_epoch)
);

CREATE TABLE IF NOT EXISTS low_watermarks (
	validator_id INTEGER PRIMARY KEY REFERENCES validators(id),
	min_block_slot INTEGER NOT NULL DEFAULT 0,
	min_attestation_source_epoch INTEGER NOT NULL DEFAULT 0,
	min_attestation_target_epoch INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS metadata (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	genesis_validators_root BLOB,
	high_watermark_slot INTEGER,
	high_watermark_epoch INTEGER
);
`

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("slashing: migrate: %w", err)
	}
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO metadata(id, genesis_validators_root, high_watermark_slot, high_watermark_epoch) VALUES (1, NULL, NULL, NULL)`)
	if err != nil {
		return fmt.Errorf("slashing: seed metadata: %w", err)
	}
	return nil
}

// beginSerializable starts the single transaction every sign/import runs
// inside (spec §4.6, §5). sqlite's single-writer connection pool gives us
// the serialisable behaviour the spec asks for without a dedicated isolation level.
func (s *Store) beginSerializable(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
}

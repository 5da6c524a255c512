package metadata

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// SQLiteStore serves lookups from an on-disk aircraft database so large
// registries do not have to be held in memory
type SQLiteStore struct {
	db     *sql.DB
	logger *logrus.Logger
}

// OpenSQLite opens (creating if needed) the aircraft database at path
func OpenSQLite(path string, logger *logrus.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS aircraft (
		icao24 TEXT PRIMARY KEY,
		model TEXT,
		operator TEXT
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Import inserts or replaces records in a single transaction
func (s *SQLiteStore) Import(records []Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO aircraft (icao24, model, operator) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(normalizeICAO(r.ICAO24), r.Model, r.Operator); err != nil {
			return fmt.Errorf("failed to insert aircraft %s: %w", r.ICAO24, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// IsPopulated reports whether any aircraft have been imported
func (s *SQLiteStore) IsPopulated() (bool, error) {
	var ignored int
	err := s.db.QueryRow("SELECT 1 FROM aircraft LIMIT 1").Scan(&ignored)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check aircraft table: %w", err)
	}
	return true, nil
}

// Find returns the stored record for icao
func (s *SQLiteStore) Find(icao string) (Info, bool, error) {
	var rec Record
	err := s.db.QueryRow("SELECT model, operator FROM aircraft WHERE icao24 = ?", normalizeICAO(icao)).
		Scan(&rec.Model, &rec.Operator)
	if err == sql.ErrNoRows {
		return UnknownInfo, false, nil
	}
	if err != nil {
		return UnknownInfo, false, fmt.Errorf("failed to query aircraft %s: %w", icao, err)
	}
	return rec.info(), true, nil
}

// Lookup implements Lookup; query errors are logged and resolve to UnknownInfo
func (s *SQLiteStore) Lookup(icao string) Info {
	info, _, err := s.Find(icao)
	if err != nil {
		s.logger.WithError(err).WithField("icao", icao).Warn("Aircraft database lookup failed")
		return UnknownInfo
	}
	return info
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger records the outcome of every evaluated source record in a
// SQLite database, so that interrupted or repeated runs skip records that
// are already decided.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/doi-enricher/pkg/types"
)

// Status is the recorded result of one evaluation.
type Status string

const (
	StatusVerified  Status = "verified"
	StatusPossible  Status = "possible"
	StatusNoMatch   Status = "no_match"
	StatusAmbiguous Status = "ambiguous"
	StatusFailed    Status = "failed"
)

// Statuses lists every status in report order.
var Statuses = []Status{StatusVerified, StatusPossible, StatusAmbiguous, StatusNoMatch, StatusFailed}

// ParseStatus validates s.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Entry is one ledger row.
type Entry struct {
	RecordID      string             `json:"record_id" yaml:"record_id"`
	Title         string             `json:"title" yaml:"title"`
	Status        Status             `json:"status" yaml:"status"`
	VerifiedDOI   string             `json:"verified_doi,omitempty" yaml:"verified_doi,omitempty"`
	PossibleDOIs  []string           `json:"possible_dois,omitempty" yaml:"possible_dois,omitempty"`
	AmbiguousDOIs []string           `json:"ambiguous_dois,omitempty" yaml:"ambiguous_dois,omitempty"`
	Incomplete    bool               `json:"incomplete,omitempty" yaml:"incomplete,omitempty"`
	IDs           types.SecondaryIDs `json:"ids,omitempty" yaml:"ids,omitempty"`
	Error         string             `json:"error,omitempty" yaml:"error,omitempty"`
	EvaluatedAt   time.Time          `json:"evaluated_at" yaml:"evaluated_at"`
}

// Decided reports whether the entry settles its record. Failed and
// incomplete evaluations are worth running again.
func (e Entry) Decided() bool {
	return e.Status != StatusFailed && e.Status != "" && !e.Incomplete
}

// Store is the ledger database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the ledger at path, creating parent directories
// and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One writer at a time; workers share the handle.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS outcomes (
			record_id TEXT PRIMARY KEY,
			title TEXT,
			status TEXT NOT NULL,
			verified_doi TEXT,
			possible_dois TEXT,
			ambiguous_dois TEXT,
			incomplete INTEGER NOT NULL DEFAULT 0,
			pmid TEXT,
			scopus_id TEXT,
			wos_id TEXT,
			error TEXT,
			evaluated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_status ON outcomes(status)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Put inserts or replaces the entry for e.RecordID. A zero EvaluatedAt is
// set to the current time.
func (s *Store) Put(ctx context.Context, e Entry) error {
	if e.RecordID == "" {
		return fmt.Errorf("ledger entry without record id")
	}
	if e.EvaluatedAt.IsZero() {
		e.EvaluatedAt = time.Now()
	}
	possible, _ := json.Marshal(e.PossibleDOIs)
	ambiguous, _ := json.Marshal(e.AmbiguousDOIs)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outcomes (record_id, title, status, verified_doi, possible_dois, ambiguous_dois,
			incomplete, pmid, scopus_id, wos_id, error, evaluated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(record_id) DO UPDATE SET
			title=excluded.title, status=excluded.status, verified_doi=excluded.verified_doi,
			possible_dois=excluded.possible_dois, ambiguous_dois=excluded.ambiguous_dois,
			incomplete=excluded.incomplete, pmid=excluded.pmid, scopus_id=excluded.scopus_id,
			wos_id=excluded.wos_id, error=excluded.error, evaluated_at=excluded.evaluated_at`,
		e.RecordID, e.Title, string(e.Status), e.VerifiedDOI, string(possible), string(ambiguous),
		e.Incomplete, e.IDs.PMID, e.IDs.ScopusID, e.IDs.WoSID, e.Error,
		e.EvaluatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upserting outcome %s: %w", e.RecordID, err)
	}
	return nil
}

const selectColumns = `record_id, title, status, verified_doi, possible_dois, ambiguous_dois,
	incomplete, pmid, scopus_id, wos_id, error, evaluated_at`

// Get returns the entry for recordID. The boolean is false when the record
// has never been evaluated.
func (s *Store) Get(ctx context.Context, recordID string) (Entry, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM outcomes WHERE record_id = ?`, recordID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("reading outcome %s: %w", recordID, err)
	}
	return e, true, nil
}

// List returns entries ordered by record id. An empty status lists all.
func (s *Store) List(ctx context.Context, status Status) ([]Entry, error) {
	query := `SELECT ` + selectColumns + ` FROM outcomes`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY record_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing outcomes: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Counts returns the number of entries per status.
func (s *Store) Counts(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, count(*) FROM outcomes GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting outcomes: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var st string
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[Status(st)] = n
	}
	return counts, rows.Err()
}

// ExportYAML writes the entries with the given status (all when empty) to w
// as a YAML list.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, status Status) error {
	entries, err := s.List(ctx, status)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var (
		e                                    Entry
		status, evaluatedAt                  string
		title, verified, possible, ambiguous sql.NullString
		pmid, scopus, wos, errText           sql.NullString
	)
	if err := sc.Scan(&e.RecordID, &title, &status, &verified, &possible, &ambiguous,
		&e.Incomplete, &pmid, &scopus, &wos, &errText, &evaluatedAt); err != nil {
		return Entry{}, err
	}
	e.Title = title.String
	e.Status = Status(status)
	e.VerifiedDOI = verified.String
	e.IDs = types.SecondaryIDs{PMID: pmid.String, ScopusID: scopus.String, WoSID: wos.String}
	e.Error = errText.String
	if possible.String != "" {
		json.Unmarshal([]byte(possible.String), &e.PossibleDOIs)
	}
	if ambiguous.String != "" {
		json.Unmarshal([]byte(ambiguous.String), &e.AmbiguousDOIs)
	}
	if t, err := time.Parse(time.RFC3339Nano, evaluatedAt); err == nil {
		e.EvaluatedAt = t
	}
	return e, nil
}

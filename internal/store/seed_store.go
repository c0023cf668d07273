// ============================================================================
// laplace - Minimax Exponential Sums
// ============================================================================
//
// Package:     store
// Description: SQLite persistence of converged solver seeds
// Author:      Mike Stoffels
// Created:     2026-10-15
// License:     MIT
// ============================================================================

// Package store persists converged minimax solutions in SQLite so that later
// computations of the same order start from the nearest known ratio.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	mdwerror "github.com/msto63/laplace/foundation/core/error"
	"github.com/msto63/laplace/pkg/minimax"
)

// Record is a stored seed with its bookkeeping columns
type Record struct {
	ID        string    `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	minimax.Seed `yaml:",inline"`
}

// Filter selects records for List and Prune
type Filter struct {
	K     int           // 0 matches every order
	Norm  *minimax.Norm // nil matches both norms
	Limit int           // 0 means no limit
}

// SQLiteSeedStore implements minimax.SeedStore using SQLite
type SQLiteSeedStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// Config holds configuration for the SQLite store
type Config struct {
	Path string
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Path: "./data/seeds.db",
	}
}

var _ minimax.SeedStore = (*SQLiteSeedStore)(nil)

// NewSQLiteSeedStore opens or creates the seed database
func NewSQLiteSeedStore(cfg Config) (*SQLiteSeedStore, error) {
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, dbError(err, "failed to create directory", "store.New").WithDetail("path", cfg.Path)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, dbError(err, "failed to open database", "store.New").WithDetail("path", cfg.Path)
	}
	// one connection keeps :memory: databases and WAL writers consistent
	db.SetMaxOpenConns(1)

	s := &SQLiteSeedStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, dbError(err, "failed to initialize schema", "store.New")
	}
	return s, nil
}

func (s *SQLiteSeedStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS seeds (
		id TEXT PRIMARY KEY,
		k INTEGER NOT NULL,
		norm TEXT NOT NULL,
		ratio REAL NOT NULL,
		log_ratio REAL NOT NULL,
		weights TEXT NOT NULL,
		exponents TEXT NOT NULL,
		nodes TEXT NOT NULL,
		max_error REAL NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE (k, norm, ratio)
	);

	CREATE INDEX IF NOT EXISTS idx_seeds_lookup ON seeds(k, norm, log_ratio);
	CREATE INDEX IF NOT EXISTS idx_seeds_created ON seeds(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Nearest returns the seed of order k and the given norm whose ratio is
// closest on a log scale, or nil when none is stored
func (s *SQLiteSeedStore) Nearest(ctx context.Context, k int, norm minimax.Norm, ratio float64) (*minimax.Seed, error) {
	if !(ratio > 0) {
		return nil, mdwerror.New("ratio must be positive").
			WithCode(mdwerror.CodeInvalidInput).
			WithOperation("store.Nearest").
			WithDetail("ratio", ratio)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, k, norm, ratio, weights, exponents, nodes, max_error, created_at
		FROM seeds
		WHERE k = ? AND norm = ?
		ORDER BY ABS(log_ratio - ?), created_at DESC
		LIMIT 1
	`, k, norm.String(), math.Log(ratio))

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec.Seed, nil
}

// Save stores a seed, replacing an existing one with the same order, norm
// and ratio
func (s *SQLiteSeedStore) Save(ctx context.Context, seed *minimax.Seed) error {
	if !seed.Valid() {
		return mdwerror.New("refusing to store malformed seed").
			WithCode(mdwerror.CodeInvalidInput).
			WithOperation("store.Save")
	}

	var cols [3][]byte
	for i, v := range [][]float64{seed.Weights, seed.Exponents, seed.Nodes} {
		b, err := json.Marshal(v)
		if err != nil {
			return mdwerror.Wrap(err, "seed is not serializable").
				WithCode(mdwerror.CodeInvalidInput).
				WithOperation("store.Save").
				WithDetail("k", seed.K).
				WithDetail("ratio", seed.Ratio)
		}
		cols[i] = b
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO seeds (id, k, norm, ratio, log_ratio, weights, exponents, nodes, max_error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (k, norm, ratio) DO UPDATE SET
			weights = excluded.weights,
			exponents = excluded.exponents,
			nodes = excluded.nodes,
			max_error = excluded.max_error,
			created_at = excluded.created_at
	`, uuid.New().String(), seed.K, seed.Norm.String(), seed.Ratio, math.Log(seed.Ratio),
		string(cols[0]), string(cols[1]), string(cols[2]), seed.Error, time.Now().UTC())
	if err != nil {
		return dbError(err, "failed to insert seed", "store.Save").
			WithDetail("k", seed.K).
			WithDetail("ratio", seed.Ratio)
	}
	return nil
}

// List returns stored records ordered by order, norm and ratio
func (s *SQLiteSeedStore) List(ctx context.Context, f Filter) ([]*Record, error) {
	query := `SELECT id, k, norm, ratio, weights, exponents, nodes, max_error, created_at FROM seeds`
	where, args := f.clause()
	query += where + ` ORDER BY k, norm, ratio`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(err, "failed to query seeds", "store.List")
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "failed to iterate seeds", "store.List")
	}
	return records, nil
}

// Count returns the number of stored seeds
func (s *SQLiteSeedStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM seeds`).Scan(&n); err != nil {
		return 0, dbError(err, "failed to count seeds", "store.Count")
	}
	return n, nil
}

// Prune deletes the records matching f (Limit is ignored) and returns how
// many were removed
func (s *SQLiteSeedStore) Prune(ctx context.Context, f Filter) (int64, error) {
	where, args := f.clause()

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `DELETE FROM seeds`+where, args...)
	if err != nil {
		return 0, dbError(err, "failed to prune seeds", "store.Prune")
	}
	return result.RowsAffected()
}

// Ping checks that the database answers
func (s *SQLiteSeedStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return dbError(err, "database unreachable", "store.Ping")
	}
	return nil
}

// Close closes the database
func (s *SQLiteSeedStore) Close() error {
	return s.db.Close()
}

func (f Filter) clause() (string, []interface{}) {
	where := ""
	var args []interface{}
	add := func(cond string, arg interface{}) {
		if where == "" {
			where = " WHERE " + cond
		} else {
			where += " AND " + cond
		}
		args = append(args, arg)
	}
	if f.K > 0 {
		add("k = ?", f.K)
	}
	if f.Norm != nil {
		add("norm = ?", f.Norm.String())
	}
	return where, args
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		rec                       Record
		norm                      string
		weights, exponents, nodes string
	)
	err := row.Scan(&rec.ID, &rec.K, &norm, &rec.Ratio, &weights, &exponents, &nodes, &rec.Error, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, dbError(err, "failed to scan seed", "store.scan")
	}

	if rec.Norm, err = minimax.ParseNorm(norm); err != nil {
		return nil, corrupt(err, rec.ID)
	}
	if err := json.Unmarshal([]byte(weights), &rec.Weights); err != nil {
		return nil, corrupt(err, rec.ID)
	}
	if err := json.Unmarshal([]byte(exponents), &rec.Exponents); err != nil {
		return nil, corrupt(err, rec.ID)
	}
	if err := json.Unmarshal([]byte(nodes), &rec.Nodes); err != nil {
		return nil, corrupt(err, rec.ID)
	}
	return &rec, nil
}

func dbError(err error, msg, op string) *mdwerror.Error {
	return mdwerror.Wrap(err, msg).
		WithCode(mdwerror.CodeDatabaseError).
		WithOperation(op)
}

func corrupt(err error, id string) *mdwerror.Error {
	return mdwerror.Wrap(err, "stored seed is unreadable").
		WithCode(mdwerror.CodeDataCorruption).
		WithOperation("store.scan").
		WithDetail("id", id)
}

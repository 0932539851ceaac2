// Package duckdb persists parse artifacts into a DuckDB database so they
// can be queried after the run.
package duckdb

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/genotools/gtmatrix/internal/vcf"
)

// Store manages a DuckDB connection holding parse results.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path. Use an empty
// string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS filter_stats (
			kind VARCHAR PRIMARY KEY,
			count BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS genotypes (
			variant VARCHAR,
			sample VARCHAR,
			genotype TINYINT,
			PRIMARY KEY (variant, sample)
		)`,
		`CREATE TABLE IF NOT EXISTS call_rates (
			chrom VARCHAR,
			range_start BIGINT,
			range_end BIGINT,
			sample VARCHAR,
			call_rate DOUBLE,
			PRIMARY KEY (chrom, range_start, range_end, sample)
		)`,
		`CREATE TABLE IF NOT EXISTS dosages (
			variant VARCHAR,
			sample VARCHAR,
			dosage DOUBLE,
			PRIMARY KEY (variant, sample)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveStats stores the filter-rejection counters.
func (s *Store) SaveStats(stats *vcf.FilterStats) error {
	return s.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT OR REPLACE INTO filter_stats (kind, count) VALUES (?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, stat := range vcf.Stats() {
			if _, err := stmt.Exec(stat.String(), stats.Count(stat)); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveGenotypes stores the genotype matrix. Missing calls are stored as NULL.
func (s *Store) SaveGenotypes(samples []string, variants []vcf.Variant, matrix [][]vcf.AlleleType) error {
	return s.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT OR REPLACE INTO genotypes (variant, sample, genotype) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, v := range variants {
			for j, sample := range samples {
				var genotype any
				if matrix[i][j] != vcf.Missing {
					genotype = matrix[i][j].Int()
				}
				if _, err := stmt.Exec(v.String(), sample, genotype); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// SaveCallRates stores per-range call rates. Undefined rates (ranges without
// variants) are stored as NULL.
func (s *Store) SaveCallRates(samples []string, ranges []vcf.Range, rates [][]float64) error {
	return s.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT OR REPLACE INTO call_rates (chrom, range_start, range_end, sample, call_rate) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, r := range ranges {
			for j, sample := range samples {
				var rate any
				if !math.IsNaN(rates[i][j]) {
					rate = rates[i][j]
				}
				if _, err := stmt.Exec(r.Chrom.String(), r.From, r.To, sample, rate); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// SaveDosages stores imputed dosage predictions.
func (s *Store) SaveDosages(samples []string, targets []vcf.Variant, dosages [][]float64) error {
	return s.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT OR REPLACE INTO dosages (variant, sample, dosage) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, t := range targets {
			for j, sample := range samples {
				if _, err := stmt.Exec(t.String(), sample, dosages[i][j]); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *Store) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

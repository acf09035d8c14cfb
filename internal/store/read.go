package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a compilation ID is not recorded.
var ErrNotFound = errors.New("compilation not found")

const compilationColumns = `id, seq, query_name, source, dialect, program_hash, program_text,
	predicate_count, rule_count, compiler_version, ir_version`

// ReadCompilation returns one compilation with its predicates.
func (s *Store) ReadCompilation(ctx context.Context, id string) (Compilation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+compilationColumns+` FROM compilations WHERE id = ?`, id)
	c, err := scanCompilation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Compilation{}, fmt.Errorf("read compilation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Compilation{}, fmt.Errorf("read compilation %s: %w", id, err)
	}

	c.Predicates, err = s.readPredicates(ctx, id)
	if err != nil {
		return Compilation{}, err
	}
	return c, nil
}

// ListOptions filters ListCompilations.
type ListOptions struct {
	QueryName string // only compilations of this query; empty means all
	Limit     int    // most recent N; 0 means no limit
}

// ListCompilations returns recorded compilations without their predicates,
// ordered by seq ASC, id ASC COLLATE BINARY. With a Limit, the most recent
// Limit compilations are returned, still in ascending order.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ListCompilations(ctx context.Context, opts ListOptions) ([]Compilation, error) {
	q := `SELECT ` + compilationColumns + ` FROM compilations`
	var args []any
	if opts.QueryName != "" {
		q += ` WHERE query_name = ?`
		args = append(args, opts.QueryName)
	}
	if opts.Limit > 0 {
		q = `SELECT * FROM (` + q + ` ORDER BY seq DESC LIMIT ?)`
		args = append(args, opts.Limit)
	}
	q += ` ORDER BY seq ASC, id COLLATE BINARY ASC`

	return s.queryCompilations(ctx, q, args...)
}

// FindByHash returns every compilation whose program hash is hash.
func (s *Store) FindByHash(ctx context.Context, hash string) ([]Compilation, error) {
	return s.queryCompilations(ctx, `
		SELECT `+compilationColumns+`
		FROM compilations
		WHERE program_hash = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, hash)
}

func (s *Store) queryCompilations(ctx context.Context, q string, args ...any) ([]Compilation, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query compilations: %w", err)
	}
	defer rows.Close()

	out := []Compilation{}
	for rows.Next() {
		c, err := scanCompilation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan compilation: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compilations: %w", err)
	}
	return out, nil
}

func (s *Store) readPredicates(ctx context.Context, id string) ([]PredicateInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, name, arity, rule_count, recursive
		FROM predicates
		WHERE compilation_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query predicates: %w", err)
	}
	defer rows.Close()

	out := []PredicateInfo{}
	for rows.Next() {
		var (
			p         PredicateInfo
			recursive int
		)
		if err := rows.Scan(&p.Position, &p.Name, &p.Arity, &p.RuleCount, &recursive); err != nil {
			return nil, fmt.Errorf("scan predicate: %w", err)
		}
		p.Recursive = recursive != 0
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate predicates: %w", err)
	}
	return out, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCompilation(row scanner) (Compilation, error) {
	var c Compilation
	err := row.Scan(
		&c.ID,
		&c.Seq,
		&c.QueryName,
		&c.Source,
		&c.Dialect,
		&c.Hash,
		&c.Text,
		&c.PredicateCount,
		&c.RuleCount,
		&c.CompilerVersion,
		&c.IRVersion,
	)
	return c, err
}

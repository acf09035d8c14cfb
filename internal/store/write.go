package store

import (
	"context"
	"fmt"
)

// WriteCompilation records c and its predicates in one transaction.
//
// An empty c.ID is filled from the store's IDGenerator. Seq is assigned as
// one past the highest recorded seq. Uses ON CONFLICT(id) DO NOTHING for
// idempotency: writing an existing ID again leaves the stored record
// untouched and returns it.
func (s *Store) WriteCompilation(ctx context.Context, c Compilation) (Compilation, error) {
	if c.ID == "" {
		c.ID = s.ids.Generate()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Compilation{}, fmt.Errorf("write compilation: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM compilations`).Scan(&c.Seq); err != nil {
		return Compilation{}, fmt.Errorf("write compilation: next seq: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO compilations
		(id, seq, query_name, source, dialect, program_hash, program_text,
		 predicate_count, rule_count, compiler_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		c.ID,
		c.Seq,
		c.QueryName,
		c.Source,
		c.Dialect,
		c.Hash,
		c.Text,
		c.PredicateCount,
		c.RuleCount,
		c.CompilerVersion,
		c.IRVersion,
	)
	if err != nil {
		return Compilation{}, fmt.Errorf("write compilation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Compilation{}, fmt.Errorf("write compilation: %w", err)
	}
	if n == 0 {
		if err := tx.Rollback(); err != nil {
			return Compilation{}, fmt.Errorf("write compilation: %w", err)
		}
		return s.ReadCompilation(ctx, c.ID)
	}

	for _, p := range c.Predicates {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO predicates
			(compilation_id, position, name, arity, rule_count, recursive)
			VALUES (?, ?, ?, ?, ?, ?)
		`, c.ID, p.Position, p.Name, p.Arity, p.RuleCount, boolToInt(p.Recursive))
		if err != nil {
			return Compilation{}, fmt.Errorf("write predicate %s: %w", p.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Compilation{}, fmt.Errorf("write compilation: commit: %w", err)
	}
	return c, nil
}

// DeleteCompilation removes a compilation and its predicates.
// Deleting an unknown ID is not an error.
func (s *Store) DeleteCompilation(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM compilations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete compilation: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

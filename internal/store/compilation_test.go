package store

import (
	"context"
	"errors"
	"testing"

	"github.com/roach88/linearfn/internal/ir"
)

func TestNewCompilation_Predicates(t *testing.T) {
	c := testCompilation("reach")

	if c.PredicateCount != 2 || c.RuleCount != 3 {
		t.Errorf("counts = %d predicates, %d rules; want 2, 3", c.PredicateCount, c.RuleCount)
	}
	if c.Hash != ir.HashText("datalog", c.Text) {
		t.Errorf("Hash = %q, want hash of rendered text", c.Hash)
	}
	want := []PredicateInfo{
		{Position: 0, Name: "p0", Arity: 2, RuleCount: 1},
		{Position: 1, Name: "p1", Arity: 2, RuleCount: 2, Recursive: true},
	}
	if len(c.Predicates) != len(want) {
		t.Fatalf("got %d predicates, want %d", len(c.Predicates), len(want))
	}
	for i := range want {
		if c.Predicates[i] != want[i] {
			t.Errorf("predicate %d = %+v, want %+v", i, c.Predicates[i], want[i])
		}
	}
}

func TestWriteCompilation_AssignsIDAndSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.WriteCompilation(ctx, testCompilation("reach"))
	if err != nil {
		t.Fatalf("WriteCompilation() failed: %v", err)
	}
	second, err := s.WriteCompilation(ctx, testCompilation("reach"))
	if err != nil {
		t.Fatalf("WriteCompilation() failed: %v", err)
	}

	if first.ID != "c1" || second.ID != "c2" {
		t.Errorf("IDs = %q, %q; want c1, c2", first.ID, second.ID)
	}
	if first.Seq != 1 || second.Seq != 2 {
		t.Errorf("Seqs = %d, %d; want 1, 2", first.Seq, second.Seq)
	}
}

func TestWriteCompilation_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	c := testCompilation("reach")
	c.ID = "fixed"
	if _, err := s.WriteCompilation(ctx, c); err != nil {
		t.Fatalf("first write failed: %v", err)
	}

	c.QueryName = "renamed"
	got, err := s.WriteCompilation(ctx, c)
	if err != nil {
		t.Fatalf("second write failed: %v", err)
	}
	if got.QueryName != "reach" || got.Seq != 1 {
		t.Errorf("rewrite changed record: %+v", got)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM predicates WHERE compilation_id = 'fixed'").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("predicate rows = %d, want 2", count)
	}
}

func TestReadCompilation_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	written, err := s.WriteCompilation(ctx, testCompilation("reach"))
	if err != nil {
		t.Fatalf("WriteCompilation() failed: %v", err)
	}

	got, err := s.ReadCompilation(ctx, written.ID)
	if err != nil {
		t.Fatalf("ReadCompilation() failed: %v", err)
	}
	if got.Text != written.Text || got.Hash != written.Hash || got.Source != "defs/closure.yaml" {
		t.Errorf("read back %+v, want %+v", got, written)
	}
	if len(got.Predicates) != 2 || !got.Predicates[1].Recursive || got.Predicates[0].Recursive {
		t.Errorf("predicates = %+v", got.Predicates)
	}
}

func TestReadCompilation_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadCompilation(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListCompilations(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"reach", "edges", "reach"} {
		if _, err := s.WriteCompilation(ctx, testCompilation(name)); err != nil {
			t.Fatalf("WriteCompilation(%s) failed: %v", name, err)
		}
	}

	tests := []struct {
		name string
		opts ListOptions
		want []string
	}{
		{"all", ListOptions{}, []string{"c1", "c2", "c3"}},
		{"by query", ListOptions{QueryName: "reach"}, []string{"c1", "c3"}},
		{"limit keeps latest", ListOptions{Limit: 2}, []string{"c2", "c3"}},
		{"no match", ListOptions{QueryName: "missing"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListCompilations(ctx, tt.opts)
			if err != nil {
				t.Fatalf("ListCompilations() failed: %v", err)
			}
			if got == nil {
				t.Fatal("ListCompilations() returned nil, want empty slice")
			}
			ids := make([]string, len(got))
			for i, c := range got {
				ids[i] = c.ID
			}
			if len(ids) != len(tt.want) {
				t.Fatalf("ids = %v, want %v", ids, tt.want)
			}
			for i := range ids {
				if ids[i] != tt.want[i] {
					t.Errorf("ids = %v, want %v", ids, tt.want)
					break
				}
			}
		})
	}
}

func TestFindByHash(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	c := testCompilation("reach")
	if _, err := s.WriteCompilation(ctx, c); err != nil {
		t.Fatal(err)
	}
	if _, err := s.WriteCompilation(ctx, testCompilation("alias")); err != nil {
		t.Fatal(err)
	}

	got, err := s.FindByHash(ctx, c.Hash)
	if err != nil {
		t.Fatalf("FindByHash() failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d matches, want 2 (same program under two names)", len(got))
	}

	none, err := s.FindByHash(ctx, "unknown")
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("got %d matches for unknown hash", len(none))
	}
}

func TestDeleteCompilation_CascadesPredicates(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	c, err := s.WriteCompilation(ctx, testCompilation("reach"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteCompilation(ctx, c.ID); err != nil {
		t.Fatalf("DeleteCompilation() failed: %v", err)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM predicates").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("predicate rows after delete = %d, want 0", count)
	}
	if err := s.DeleteCompilation(ctx, "missing"); err != nil {
		t.Errorf("deleting unknown id: %v", err)
	}
}

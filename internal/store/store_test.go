package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/roach88/hoc/internal/ir"
)

// createTestStore opens a store in a temp dir that is closed on cleanup.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestInvocation(id, flowToken, method string, seq int64) ir.Invocation {
	return ir.Invocation{
		ID:        id,
		FlowToken: flowToken,
		MethodRef: ir.MethodRef(method),
		Args:      ir.IRArray{},
		Seq:       seq,
		Strategy:  "extend-all-methods",
		IRVersion: ir.IRVersion,
	}
}

func createTestCompletion(id, invocationID, outputCase string, seq int64) ir.Completion {
	return ir.Completion{
		ID:           id,
		InvocationID: invocationID,
		OutputCase:   outputCase,
		Result:       ir.IRObject{},
		Seq:          seq,
	}
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = ?", table)
	if err != nil {
		t.Fatalf("query indexes: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan index: %v", err)
		}
		names = append(names, name)
	}
	return names
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		var count int
		if err := s.DB().QueryRow("SELECT COUNT(*) FROM invocations").Scan(&count); err != nil {
			t.Errorf("query failed: %v", err)
		}
		s.Close()
	}
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer s.Close()

	if err := s.WriteInvocation(t.Context(), createTestInvocation("inv-1", "flow-1", "A.b", 1)); err != nil {
		t.Fatalf("WriteInvocation() failed: %v", err)
	}
	all, err := s.ReadAllInvocations(t.Context())
	if err != nil {
		t.Fatalf("ReadAllInvocations() failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("got %d invocations, want 1", len(all))
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "test.db"))
	if err == nil {
		t.Error("expected error for unreachable path")
	}
}

func TestClose_MultipleCalls(t *testing.T) {
	s := createTestStore(t)
	if err := s.Close(); err != nil {
		t.Fatalf("first Close() failed: %v", err)
	}
	// database/sql tolerates a second Close.
	if err := s.Close(); err != nil {
		t.Errorf("second Close() failed: %v", err)
	}

	var empty Store
	if err := empty.Close(); err != nil {
		t.Errorf("Close() on zero Store failed: %v", err)
	}
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)
	tests := []struct {
		name, want string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.verifyPragma(tt.name, tt.want); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestSchema_Columns(t *testing.T) {
	s := createTestStore(t)
	tests := []struct {
		table string
		want  []string
	}{
		{"invocations", []string{"id", "flow_token", "method_ref", "args", "seq", "strategy", "ir_version"}},
		{"completions", []string{"id", "invocation_id", "output_case", "result", "seq"}},
	}
	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			rows, err := s.DB().Query("SELECT name FROM pragma_table_info(?)", tt.table)
			if err != nil {
				t.Fatalf("table_info: %v", err)
			}
			defer rows.Close()
			var got []string
			for rows.Next() {
				var name string
				if err := rows.Scan(&name); err != nil {
					t.Fatalf("scan: %v", err)
				}
				got = append(got, name)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("columns = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConstraint_ForeignKeyCompletionToInvocation(t *testing.T) {
	s := createTestStore(t)
	err := s.WriteCompletion(t.Context(), createTestCompletion("comp-1", "missing", ir.OutputSuccess, 1))
	if err == nil {
		t.Error("expected foreign key violation")
	}
}

func TestMigration_SchemaVersion(t *testing.T) {
	s := createTestStore(t)
	var version int
	if err := s.DB().QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("failed to get user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestMigration_UpgradeFromV0(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 0"); err != nil {
		t.Fatalf("failed to set user_version: %v", err)
	}
	if slices.Contains(getTableIndexes(t, db, "invocations"), "idx_invocations_method") {
		t.Fatal("method index exists before migration")
	}
	db.Close()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if !slices.Contains(getTableIndexes(t, s.DB(), "invocations"), "idx_invocations_method") {
		t.Error("migration did not create idx_invocations_method")
	}
}

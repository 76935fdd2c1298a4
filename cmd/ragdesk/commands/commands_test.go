package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// isolateEnv points every setting at a throwaway directory so the CLI runs
// against a fresh SQLite store with the hash embedder.
func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("RAGDESK_CONFIG", "")
	t.Setenv("RAGDESK_DATA_DIR", filepath.Join(dir, "db"))
	t.Setenv("RAGDESK_COLLECTION", "")
	t.Setenv("VECTOR_STORE", "sqlite")
	t.Setenv("EMBEDDING_PROVIDER", "hash")
	t.Setenv("EMBEDDING_MODEL", "")
	t.Setenv("EMBEDDING_DIMENSIONS", "")
	t.Setenv("RAGDESK_CONTEXT_SIZE", "")
	t.Setenv("RAGDESK_MAX_CONTEXT_SIZE", "")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

// run executes the root command with args and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("ragdesk %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestVersionCmd(t *testing.T) {
	isolateEnv(t)
	out := mustRun(t, "version")
	if !strings.HasPrefix(out, "ragdesk dev") {
		t.Errorf("version output: got %q", out)
	}
}

func TestDocumentLifecycle(t *testing.T) {
	dir := isolateEnv(t)

	src := filepath.Join(dir, "fruit.txt")
	if err := os.WriteFile(src, []byte("apples and pears grow in the orchard"), 0o644); err != nil {
		t.Fatal(err)
	}
	other := filepath.Join(dir, "cars.txt")
	if err := os.WriteFile(other, []byte("engines wheels and gearboxes"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := mustRun(t, "ingest", src, other)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("ingest output: want 2 lines, got %q", out)
	}
	fruitID := strings.Fields(lines[0])[0]
	if !strings.HasPrefix(fruitID, "doc_") {
		t.Fatalf("ingest: unexpected document id %q", fruitID)
	}

	list := mustRun(t, "documents", "list")
	if !strings.Contains(list, fruitID) || !strings.Contains(list, "fruit.txt") || !strings.Contains(list, "cars.txt") {
		t.Errorf("documents list: got %q", list)
	}

	search := mustRun(t, "search", "--limit", "1", "orchard apples")
	if !strings.Contains(search, fruitID) || strings.Contains(search, "cars.txt") {
		t.Errorf("search: got %q", search)
	}

	got := mustRun(t, "documents", "get", fruitID)
	if !strings.Contains(got, "apples and pears") || !strings.Contains(got, "source_type: file") {
		t.Errorf("documents get: got %q", got)
	}

	mustRun(t, "documents", "delete", fruitID)
	list = mustRun(t, "documents", "list")
	if strings.Contains(list, fruitID) {
		t.Errorf("documents list after delete still shows %s: %q", fruitID, list)
	}

	if _, err := run(t, "documents", "get", fruitID); err == nil {
		t.Error("documents get: expected error for deleted document")
	}
}

func TestAgentsCmd(t *testing.T) {
	isolateEnv(t)
	out := mustRun(t, "agents")
	for _, id := range []string{"general", "researcher", "coder"} {
		if !strings.Contains(out, id) {
			t.Errorf("agents output missing %q: %q", id, out)
		}
	}
}

func TestSearchCmd_RejectsZeroLimit(t *testing.T) {
	isolateEnv(t)
	if _, err := run(t, "search", "--limit", "0", "anything"); err == nil {
		t.Error("expected error for --limit 0")
	}
}

func TestBadRuntimeConfigFails(t *testing.T) {
	isolateEnv(t)
	t.Setenv("VECTOR_STORE", "cassandra")
	if _, err := run(t, "documents", "list"); err == nil {
		t.Error("expected error for unsupported VECTOR_STORE")
	}
}

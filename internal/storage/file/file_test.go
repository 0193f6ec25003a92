package file

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pet/internal/storage"
)

func TestStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "pet.json")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("data file should be created: %v", err)
	}
	if err := s.Put(ctx, storage.KeyBudget, []byte(`{"food":100}`)); err != nil {
		t.Fatalf("put: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.Get(ctx, storage.KeyBudget)
	if err != nil || string(got) != `{"food":100}` {
		t.Fatalf("got %q (err=%v)", got, err)
	}

	if err := reopened.Delete(ctx, storage.KeyBudget); err != nil {
		t.Fatalf("delete: %v", err)
	}
	again, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, err := again.Get(ctx, storage.KeyBudget); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_RejectsNonJSON(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "pet.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Put(context.Background(), "k", []byte("not json")); err == nil {
		t.Fatalf("expected error for non-JSON value")
	}
}

func TestOpen_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pet.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestStore_WithLedgerStore(t *testing.T) {
	ctx := context.Background()
	kv, err := Open(filepath.Join(t.TempDir(), "pet.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	st := storage.NewStore(kv)
	records, err := st.LoadRecords(ctx)
	if err != nil || len(records) != 0 {
		t.Fatalf("expected empty ledger, got %v (err=%v)", records, err)
	}
	if err := st.SaveRecords(ctx, records); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, err := kv.Get(ctx, storage.KeyExpenses)
	if err != nil || string(raw) != "[]" {
		t.Fatalf("expected empty JSON array, got %q (err=%v)", raw, err)
	}
}

func TestStore_SeesOtherWriter(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pet.json")
	reader, err := Open(path)
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}
	writer, err := Open(path)
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	if err := writer.Put(ctx, storage.KeyBudget, []byte(`{"food":100}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	raw, err := reader.Get(ctx, storage.KeyBudget)
	if err != nil {
		t.Fatalf("reader should see the new key: %v", err)
	}
	var b map[string]int
	if err := json.Unmarshal(raw, &b); err != nil || b["food"] != 100 {
		t.Fatalf("unexpected value %s (err=%v)", raw, err)
	}
}

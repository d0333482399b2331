package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shopledger/internal/config"
	"shopledger/internal/sheets"
	"shopledger/internal/sheets/memory"
	"shopledger/internal/sheets/opensheet"
)

func TestFromAppConfig(t *testing.T) {
	c := &config.Config{
		DataBackend:              config.BackendSheets,
		GoogleServiceAccountFile: "/tmp/sa.json",
		FetchTimeout:             3 * time.Second,
		CacheSize:                8,
	}
	got, err := FromAppConfig(c)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if got.Type != Sheets || got.Credentials.File != "/tmp/sa.json" || got.CacheSize != 8 {
		t.Fatalf("config = %+v", got)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "sqlite"}); err == nil {
		t.Fatal("unknown backend accepted")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("nil config accepted")
	}
}

func TestNew_Memory(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "bal"), 0o755); err != nil {
		t.Fatal(err)
	}
	body := `[{"SHOP":"Acme","TEAM LEADER":"Jo"}]`
	if err := os.WriteFile(filepath.Join(dir, "bal", "SHOPS BALANCE.json"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := New(context.Background(), Config{Type: Memory, MemoryDataDir: dir, CacheSize: 4, CacheTTL: time.Minute}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := res.Source.(*memory.Store); !ok {
		t.Fatalf("source = %T", res.Source)
	}

	ref := sheets.Ref{SpreadsheetID: "bal", Sheet: sheets.SheetShopsBalance}
	rows, err := res.Cached.ReadRows(context.Background(), ref)
	if err != nil || len(rows) != 1 || rows[0]["SHOP"] != "Acme" {
		t.Fatalf("rows = %v, err = %v", rows, err)
	}
	if res.Store.Size() != 1 {
		t.Fatalf("cache size = %d", res.Store.Size())
	}
}

func TestNew_OpenSheet(t *testing.T) {
	res, err := New(context.Background(), Config{Type: OpenSheet, OpenSheetBaseURL: "http://localhost:1"}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := res.Source.(*opensheet.Client); !ok {
		t.Fatalf("source = %T", res.Source)
	}
}

func TestNew_Unsupported(t *testing.T) {
	if _, err := New(context.Background(), Config{Type: "sqlite"}, nil); err == nil {
		t.Fatal("expected error")
	}
}

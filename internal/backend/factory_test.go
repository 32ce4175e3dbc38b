package backend

import (
	"context"
	"path/filepath"
	"testing"

	"diarias/internal/config"
	"diarias/internal/sheets/csvdir"
	"diarias/internal/sheets/memory"
	"diarias/internal/storage"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"json and csv", Config{Store: JSONStore, Export: CSVExport, SnapshotPath: "a.json", ExportDir: "out"}, false},
		{"memory both", Config{Store: MemoryStore, Export: MemoryExport}, false},
		{"unknown store", Config{Store: "excel", Export: MemoryExport}, true},
		{"unknown export", Config{Store: MemoryStore, Export: "xlsx"}, true},
		{"json without path", Config{Store: JSONStore, Export: MemoryExport}, true},
		{"sqlite without path", Config{Store: SQLiteStore, Export: MemoryExport}, true},
		{"csv without dir", Config{Store: MemoryStore, Export: CSVExport}, true},
		{"sheets without id", Config{Store: MemoryStore, Export: SheetsExport}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	cfg, err := FromAppConfig(&config.Config{
		DataBackend:   "json",
		SnapshotPath:  "diarias_data.json",
		ExportBackend: "csv",
		ExportDir:     "outputs",
	})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Store != JSONStore || cfg.Export != CSVExport {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestCreateStore(t *testing.T) {
	f := NewFactory(nil)
	ctx := context.Background()
	dir := t.TempDir()

	res, err := f.CreateStore(ctx, Config{Store: JSONStore, SnapshotPath: filepath.Join(dir, "d.json")})
	if err != nil {
		t.Fatalf("json store: %v", err)
	}
	if _, ok := res.Store.(*storage.FileStore); !ok || res.Detector == nil {
		t.Fatalf("json store should be a FileStore with change detection, got %T", res.Store)
	}

	res, err = f.CreateStore(ctx, Config{Store: SQLiteStore, SQLiteDBPath: filepath.Join(dir, "d.db")})
	if err != nil {
		t.Fatalf("sqlite store: %v", err)
	}
	if res.Cleanup == nil || res.Pinger == nil {
		t.Fatalf("sqlite store needs cleanup and ping")
	}
	if err := res.Pinger.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := res.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	res, err = f.CreateStore(ctx, Config{Store: MemoryStore})
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	if _, ok := res.Store.(*storage.MemoryStore); !ok {
		t.Fatalf("unexpected store %T", res.Store)
	}

	if _, err := f.CreateStore(ctx, Config{Store: "excel"}); err == nil {
		t.Fatal("expected error for unknown store")
	}
}

func TestCreateWriter(t *testing.T) {
	f := NewFactory(nil)
	ctx := context.Background()

	w, err := f.CreateWriter(ctx, Config{Export: CSVExport, ExportDir: t.TempDir()})
	if err != nil {
		t.Fatalf("csv writer: %v", err)
	}
	if _, ok := w.(*csvdir.Writer); !ok {
		t.Fatalf("unexpected writer %T", w)
	}

	w, err = f.CreateWriter(ctx, Config{Export: MemoryExport})
	if err != nil {
		t.Fatalf("memory writer: %v", err)
	}
	if _, ok := w.(*memory.Store); !ok {
		t.Fatalf("unexpected writer %T", w)
	}

	if _, err := f.CreateWriter(ctx, Config{Export: SheetsExport}); err == nil {
		t.Fatal("expected error for sheets export without spreadsheet id")
	}
}

// Package backend builds the sheet source selected by configuration and
// wraps it in the shared cache.
package backend

import (
	"context"
	"fmt"
	"time"

	"shopledger/internal/cache"
	"shopledger/internal/config"
	"shopledger/internal/core"
	applog "shopledger/internal/log"
	"shopledger/internal/sheets"
	gsheet "shopledger/internal/sheets/google"
	"shopledger/internal/sheets/memory"
	"shopledger/internal/sheets/opensheet"
)

// Type names a sheet source implementation.
type Type string

const (
	OpenSheet Type = config.BackendOpenSheet
	Sheets    Type = config.BackendSheets
	Memory    Type = config.BackendMemory
)

// IsValid reports whether t is a known backend.
func (t Type) IsValid() bool {
	switch t {
	case OpenSheet, Sheets, Memory:
		return true
	}
	return false
}

// Config holds what the factory needs from the application config.
type Config struct {
	Type             Type
	OpenSheetBaseURL string
	MemoryDataDir    string
	Credentials      gsheet.Credentials
	FetchTimeout     time.Duration
	CacheSize        int
	CacheTTL         time.Duration
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(c *config.Config) (Config, error) {
	if c == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	t := Type(c.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", c.DataBackend)
	}
	return Config{
		Type:             t,
		OpenSheetBaseURL: c.OpenSheetBaseURL,
		MemoryDataDir:    c.MemoryDataDir,
		Credentials: gsheet.Credentials{
			JSON: c.GoogleServiceAccountJSON,
			File: c.GoogleServiceAccountFile,
		},
		FetchTimeout: c.FetchTimeout,
		CacheSize:    c.CacheSize,
		CacheTTL:     c.CacheTTL,
	}, nil
}

// Result is a cached source plus the pieces callers manage.
type Result struct {
	// Source is the raw backend, Cached the same behind the LRU.
	Source sheets.Source
	Cached *sheets.Cached
	Store  *cache.LRUCache[[]core.RawRow]
}

// New builds the configured source.
func New(ctx context.Context, cfg Config, logger *applog.Logger) (*Result, error) {
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentSheets)

	var src sheets.Source
	switch cfg.Type {
	case OpenSheet:
		src = opensheet.New(cfg.OpenSheetBaseURL, nil, cfg.FetchTimeout)
		logger.InfoContext(ctx, "Initialized opensheet backend", "base_url", cfg.OpenSheetBaseURL)
	case Sheets:
		cli, err := gsheet.New(ctx, cfg.Credentials, cfg.FetchTimeout)
		if err != nil {
			return nil, fmt.Errorf("initialize Google Sheets client: %w", err)
		}
		src = cli
		logger.InfoContext(ctx, "Initialized Google Sheets backend")
	case Memory:
		dir := cfg.MemoryDataDir
		if dir == "" {
			dir = "data"
		}
		src = memory.NewFromDir(dir)
		logger.InfoContext(ctx, "Initialized memory backend", "data_directory", dir)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}

	store := cache.NewLRUCache[[]core.RawRow](cfg.CacheSize, cfg.CacheTTL)
	return &Result{Source: src, Cached: sheets.NewCached(src, store), Store: store}, nil
}

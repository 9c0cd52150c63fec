// Command encounterimport loads encounter documents into the configured storage.
//
// Usage:
//
//	go run ./cmd/encounterimport -dir data/import
//
// Every *.json file in the directory is imported under the key derived from its
// file name. Both the current and the legacy document layouts are accepted;
// legacy documents are converted before they are written.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/udisondev/zumbor/internal/config"
	"github.com/udisondev/zumbor/internal/db"
	"github.com/udisondev/zumbor/internal/save"
)

const ConfigPath = "config/zumbor.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	dir := flag.String("dir", "", "directory with encounter *.json files")
	flag.Parse()

	if *dir == "" {
		printUsage()
		return errors.New("no input directory: pass -dir")
	}

	cfgPath := ConfigPath
	if p := os.Getenv("ZUMBOR_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadZumbor(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	files, err := filepath.Glob(filepath.Join(*dir, "*.json"))
	if err != nil {
		return fmt.Errorf("listing %s: %w", *dir, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no *.json files in %s", *dir)
	}
	sort.Strings(files)

	store, closeStore, err := db.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	return importAll(ctx, save.NewEncounters(store), files)
}

// importAll keeps going past bad files and reports how many failed.
func importAll(ctx context.Context, encounters *save.Encounters, files []string) error {
	var failed int
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Error("reading encounter file", "path", path, "error", err)
			failed++
			continue
		}

		key, err := encounters.Import(ctx, name, data)
		if err != nil {
			slog.Error("importing encounter", "path", path, "error", err)
			failed++
			continue
		}
		slog.Info("encounter imported", "path", path, "key", key)
	}

	slog.Info("import finished", "files", len(files), "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to import", failed, len(files))
	}
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: encounterimport -dir DIR

Imports every DIR/*.json encounter into the storage backend selected by
config/zumbor.yaml (override with ZUMBOR_CONFIG).
`)
}

// Command orders-archive bundles the per-order JSON files written by the
// file store into a single gzip-compressed JSON-lines archive, ordered by
// order number.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"
)

const readConcurrency = 8

func main() {
	var (
		ordersDir string
		outPath   string
	)

	flag.StringVar(&ordersDir, "orders-dir", "orders", "directory containing order_*.json files")
	flag.StringVar(&outPath, "out", "orders-archive.json.gz", "output archive path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, ordersDir, outPath); err != nil {
		slog.Error("archive failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("archive completed successfully", slog.String("out", outPath))
}

// orderFile is one order document read from disk, compacted to a single
// line.
type orderFile struct {
	name string
	data []byte
}

func run(ctx context.Context, ordersDir, outPath string) error {
	entries, err := os.ReadDir(ordersDir)
	if err != nil {
		return errors.Wrapf(err, "read orders directory %s", ordersDir)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "order_") && strings.HasSuffix(name, ".json") {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		slog.Info("no order files found", slog.String("dir", ordersDir))
		return nil
	}

	slog.Info("reading order files", slog.Int("count", len(names)))

	// Read and compact files concurrently.
	var (
		mu    sync.Mutex
		files = make([]orderFile, 0, len(names))
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(readConcurrency)
	for _, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			data, err := os.ReadFile(filepath.Join(ordersDir, name))
			if err != nil {
				return errors.Wrapf(err, "read %s", name)
			}

			line, err := compact(data)
			if err != nil {
				return errors.Wrapf(err, "compact %s", name)
			}

			mu.Lock()
			files = append(files, orderFile{name: name, data: line})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Order numbers are zero-padded, so name order is sequence order.
	sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })

	return writeArchive(outPath, files)
}

// compact re-encodes an indented order document onto a single line.
func compact(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return nil, errors.Wrap(err, "compact JSON")
	}
	return buf.Bytes(), nil
}

func writeArchive(outPath string, files []orderFile) error {
	out, err := os.Create(outPath)
	if err != nil {
		return errors.Wrapf(err, "create %s", outPath)
	}
	defer func() { _ = out.Close() }()

	gz := pgzip.NewWriter(out)
	for _, f := range files {
		if _, err := gz.Write(f.data); err != nil {
			return errors.Wrapf(err, "write %s", f.name)
		}
		if _, err := gz.Write([]byte{'\n'}); err != nil {
			return errors.Wrapf(err, "write %s", f.name)
		}
	}
	if err := gz.Close(); err != nil {
		return errors.Wrap(err, "close gzip writer")
	}

	slog.Info("archived orders", slog.Int("count", len(files)))
	return out.Close()
}

// Package watcher imports exchange files dropped into a directory.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"historicalmap/internal/exchange"
	hlog "historicalmap/internal/log"
	"historicalmap/internal/service"
)

// DefaultDebounce is how long a file must stay quiet before it is imported.
const DefaultDebounce = 500 * time.Millisecond

// Importer is the part of the exchange service the watcher needs.
type Importer interface {
	Import(ctx context.Context, file string) (service.ImportResult, error)
}

// Watcher imports every file of a supported format that is created or
// rewritten in Dir. Each file becomes a new edit source.
type Watcher struct {
	Dir      string
	Debounce time.Duration

	importer Importer
	formats  *exchange.Registry
	logger   zerolog.Logger
	imported func(string, service.ImportResult, error)
}

// New returns a watcher for dir. A nil registry means exchange.DefaultRegistry.
func New(dir string, importer Importer, formats *exchange.Registry) *Watcher {
	if formats == nil {
		formats = exchange.DefaultRegistry()
	}
	return &Watcher{
		Dir:      dir,
		Debounce: DefaultDebounce,
		importer: importer,
		formats:  formats,
		logger:   hlog.WithComponent("watcher"),
	}
}

// Run watches until ctx is cancelled. Files already present are not imported.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.Dir, err)
	}
	w.logger.Info().Str("dir", w.Dir).Msg("watching import directory")

	ready := make(chan string)
	pending := make(map[string]*time.Timer)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Str("dir", w.Dir).Msg("import watcher stopped")
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if _, err := w.formats.ForPath(event.Name); err != nil {
				continue
			}
			path := event.Name
			if t, ok := pending[path]; ok {
				t.Stop()
			}
			pending[path] = time.AfterFunc(w.Debounce, func() {
				select {
				case ready <- path:
				case <-ctx.Done():
				}
			})

		case path := <-ready:
			delete(pending, path)
			w.importFile(ctx, path)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("import watcher error")
		}
	}
}

func (w *Watcher) importFile(ctx context.Context, path string) {
	res, err := w.importer.Import(ctx, path)
	if err != nil {
		w.logger.Error().Err(err).Str("file", filepath.Base(path)).Msg("auto import failed")
	} else {
		w.logger.Info().Str("file", filepath.Base(path)).Str("source", res.Source).Int("years", res.Years).Msg("auto import")
	}
	if w.imported != nil {
		w.imported(path, res, err)
	}
}

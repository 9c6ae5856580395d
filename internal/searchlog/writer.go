// Package searchlog keeps a local JSONL log of finished searches and answers
// simple queries over it.
package searchlog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pieza-web/internal/logging"
	"pieza-web/internal/model"
)

const filePrefix = "searches_"

// Writer appends SearchCompleted events to daily files under dataDir/searches.
type Writer struct {
	dir    string
	logger *slog.Logger
	mu     sync.Mutex
	now    func() time.Time
}

func NewWriter(dataDir string, logger *slog.Logger) *Writer {
	return &Writer{
		dir:    filepath.Join(dataDir, "searches"),
		logger: logging.OrDiscard(logger),
		now:    time.Now,
	}
}

// Dir is where the daily files live.
func (w *Writer) Dir() string { return w.dir }

// Write appends evt to today's file.
func (w *Writer) Write(ctx context.Context, evt model.SearchCompleted) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	fpath := filepath.Join(w.dir, fmt.Sprintf("%s%s.jsonl", filePrefix, w.now().UTC().Format("2006-01-02")))
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(data, '\n'))
	return err
}

// Observe writes evt, logging failures.
func (w *Writer) Observe(ctx context.Context, evt model.SearchCompleted) {
	if err := w.Write(context.WithoutCancel(ctx), evt); err != nil {
		w.logger.Warn("failed to append search log", "session", evt.SessionID, "error", err)
	}
}

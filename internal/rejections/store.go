package rejections

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pieza-web/internal/searchapi"
)

// Store appends listings dropped by validation to daily JSONL files.
type Store struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// NewStore writes under dir/rejections.
func NewStore(dataDir string) *Store {
	return &Store{
		dir: filepath.Join(dataDir, "rejections"),
		now: time.Now,
	}
}

// WriteRejection appends a rejection record for the given query.
func (s *Store) WriteRejection(ctx context.Context, query string, rejection searchapi.Rejection) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := s.now().UTC()
	record := map[string]any{
		"scope":     rejection.Scope,
		"reason":    rejection.Reason,
		"query":     query,
		"timestamp": now.Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	fpath := filepath.Join(s.dir, fmt.Sprintf("rejections_%s.jsonl", now.Format("2006-01-02")))
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(data, '\n'))
	return err
}

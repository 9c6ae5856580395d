package searchlog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"pieza-web/internal/model"
)

// QueryService reads the search log back.
type QueryService struct {
	dir string
}

func NewQueryService(dataDir string) *QueryService {
	return &QueryService{dir: filepath.Join(dataDir, "searches")}
}

// Stats summarizes the whole log.
type Stats struct {
	TotalSearches     int            `json:"total_searches"`
	Sessions          int            `json:"sessions"`
	ByOutcome         map[string]int `json:"by_outcome"`
	ByMode            map[string]int `json:"by_mode"`
	AvgDurationMillis int64          `json:"avg_duration_ms"`
	LatestSearch      string         `json:"latest_search"`
}

func (s *QueryService) files() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(s.dir, filePrefix+"*.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// each calls fn for every decodable record, oldest file first. Bad lines are skipped.
func (s *QueryService) each(ctx context.Context, fn func(model.SearchCompleted)) error {
	files, err := s.files()
	if err != nil {
		return err
	}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		f, err := os.Open(file)
		if err != nil {
			continue
		}
		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			var evt model.SearchCompleted
			if err := json.Unmarshal([]byte(line), &evt); err != nil {
				continue
			}
			fn(evt)
		}
		f.Close()
	}
	return nil
}

// GetStats aggregates counts by outcome and mode.
func (s *QueryService) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByOutcome: map[string]int{}, ByMode: map[string]int{}}
	sessions := map[string]bool{}
	var totalMillis int64

	err := s.each(ctx, func(evt model.SearchCompleted) {
		stats.TotalSearches++
		stats.ByOutcome[string(evt.Outcome)]++
		stats.ByMode[evt.Mode]++
		sessions[evt.SessionID] = true
		totalMillis += evt.DurationMillis
		if evt.Timestamp > stats.LatestSearch {
			stats.LatestSearch = evt.Timestamp
		}
	})
	if err != nil {
		return nil, err
	}
	stats.Sessions = len(sessions)
	if stats.TotalSearches > 0 {
		stats.AvgDurationMillis = totalMillis / int64(stats.TotalSearches)
	}
	return stats, nil
}

// Recent returns up to limit events, newest first. sessionID filters when set.
func (s *QueryService) Recent(ctx context.Context, sessionID string, limit int) ([]model.SearchCompleted, error) {
	events := []model.SearchCompleted{}
	err := s.each(ctx, func(evt model.SearchCompleted) {
		if sessionID != "" && evt.SessionID != sessionID {
			return
		}
		events = append(events, evt)
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp > events[j].Timestamp
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

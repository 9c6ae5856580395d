package session

import (
	"fmt"

	"pieza-web/internal/model"
)

const recentHistoryLimit = 3

// QuickRefinements are offered once results are on screen.
var QuickRefinements = []string{
	"Make it more modern",
	"I prefer darker colors",
	"Something more affordable",
	"Larger dimensions",
	"Different material",
}

// ExamplePrompts are offered before the first results arrive.
var ExamplePrompts = []string{
	"A curved velvet sofa with wooden legs for my living room",
	"Modern dining chair with clean lines and comfortable padding",
	"Rustic coffee table with natural wood finish",
}

// View is the render state derived from a session. It holds no state of its own.
type View struct {
	Results                []model.Product `json:"results"`
	History                []string        `json:"history"`
	RecentHistory          []string        `json:"recentHistory"`
	ShowHistory            bool            `json:"showHistory"`
	IsSearching            bool            `json:"isSearching"`
	HasResults             bool            `json:"hasResults"`
	HasSearchedAtLeastOnce bool            `json:"hasSearchedAtLeastOnce"`
	ShowResultsSection     bool            `json:"showResultsSection"`
	ShowEmptyState         bool            `json:"showEmptyState"`
	ShowTransientError     bool            `json:"showTransientError"`
	NextMode               Mode            `json:"nextMode"`
	SubmitLabel            string          `json:"submitLabel"`
	Placeholder            string          `json:"placeholder"`
	Heading                string          `json:"heading"`
	QuickRefinements       []string        `json:"quickRefinements"`
	ExamplePrompts         []string        `json:"examplePrompts"`
}

// NewView derives the render state from s.
func NewView(s State) View {
	s = s.clone()
	v := View{
		Results:                s.Results,
		History:                s.History,
		RecentHistory:          recent(s.History, recentHistoryLimit),
		IsSearching:            s.IsSearching,
		HasResults:             s.HasResults(),
		HasSearchedAtLeastOnce: s.HasSearchedAtLeastOnce,
		QuickRefinements:       []string{},
		ExamplePrompts:         []string{},
	}
	v.ShowResultsSection = v.IsSearching || v.HasResults || v.HasSearchedAtLeastOnce
	v.ShowEmptyState = v.HasSearchedAtLeastOnce && !v.HasResults && !v.IsSearching
	v.ShowTransientError = s.LastCallFailed && !v.IsSearching
	v.ShowHistory = v.HasResults && len(s.History) > 1

	if v.HasResults {
		v.NextMode = ModeRefine
		v.Placeholder = "e.g., 'more curved edges' or 'higher seat height'"
		v.Heading = fmt.Sprintf("Top matches (%d)", len(s.Results))
		v.QuickRefinements = append(v.QuickRefinements, QuickRefinements...)
	} else {
		v.NextMode = ModeSearch
		v.Placeholder = "What are you looking for?"
		if v.ShowEmptyState {
			v.Heading = "No matches found"
		}
		v.ExamplePrompts = append(v.ExamplePrompts, ExamplePrompts...)
	}

	switch {
	case v.IsSearching && v.HasResults:
		v.SubmitLabel = "Refining..."
	case v.IsSearching:
		v.SubmitLabel = "Searching..."
	case v.HasResults:
		v.SubmitLabel = "Refine"
	default:
		v.SubmitLabel = "Find furniture"
	}
	return v
}

// SortedByTotalCost returns a copy of v with results ordered by price plus shipping.
func (v View) SortedByTotalCost() View {
	v.Results = model.SortByTotalCost(v.Results)
	return v
}

// recent returns up to n entries from the end of h, newest first.
func recent(h []string, n int) []string {
	out := make([]string, 0, n)
	for i := len(h) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, h[i])
	}
	return out
}

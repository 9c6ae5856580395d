// Package web renders the search page and handles its form posts.
package web

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"pieza-web/internal/httpapi"
	"pieza-web/internal/logging"
	"pieza-web/internal/model"
	"pieza-web/internal/session"
)

const maxFormBytes = 16 << 10

// card is the display form of one product.
type card struct {
	Name      string
	Image     string
	URL       string
	Condition string
	Location  string
	Price     string
	Shipping  string
	Rating    string
	Match     int
}

type viewModel struct {
	session.View
	Cards []card
}

func newViewModel(v session.View) viewModel {
	cards := make([]card, 0, len(v.Results))
	for _, p := range v.Results {
		cards = append(cards, toCard(p))
	}
	return viewModel{View: v, Cards: cards}
}

func toCard(p model.Product) card {
	return card{
		Name:      p.Name,
		Image:     p.Image,
		URL:       p.URL,
		Condition: p.Condition,
		Location:  p.Location,
		Price:     p.PriceLabel(),
		Shipping:  p.ShippingLabel(),
		Rating:    p.RatingLabel(),
		Match:     p.SimilarityPercent(),
	}
}

// UI serves the HTML page.
type UI struct {
	manager *session.Manager
	logger  *slog.Logger
	secure  bool
}

// Config holds UI configuration.
type Config struct {
	Secure bool // secure cookies behind HTTPS
}

func New(manager *session.Manager, logger *slog.Logger, cfg Config) *UI {
	return &UI{
		manager: manager,
		logger:  logging.OrDiscard(logger).With("component", "web"),
		secure:  cfg.Secure,
	}
}

// RegisterRoutes wires the page routes.
func (ui *UI) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", ui.HandleIndex).Methods(http.MethodGet)
	r.HandleFunc("/search", ui.HandleSearch).Methods(http.MethodPost)
	r.HandleFunc("/start-over", ui.HandleStartOver).Methods(http.MethodPost)
}

// HandleIndex renders the page for the caller's session.
func (ui *UI) HandleIndex(w http.ResponseWriter, r *http.Request) {
	id := httpapi.EnsureCookieSession(w, r, ui.secure)
	v, err := ui.manager.View(r.Context(), id)
	if err != nil {
		ui.logger.Error("failed to load session", "session", id, "error", err)
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	sortByTotal := r.URL.Query().Get("sort") == "total"
	if sortByTotal {
		v = v.SortedByTotalCost()
	}

	var buf bytes.Buffer
	data := pageData{
		View:        newViewModel(v),
		Prefill:     strings.TrimSpace(r.URL.Query().Get("q")),
		SortByTotal: sortByTotal,
	}
	if err := renderPage(&buf, data); err != nil {
		ui.logger.Error("failed to render page", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// HandleSearch submits the form text. The mode follows whether results are shown.
func (ui *UI) HandleSearch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	id := httpapi.EnsureCookieSession(w, r, ui.secure)
	outcome, err := ui.manager.Submit(r.Context(), id, r.PostFormValue("query"), "")
	if err != nil {
		if outcome == "" {
			ui.logger.Error("failed to load session", "session", id, "error", err)
			http.Error(w, "session unavailable", http.StatusInternalServerError)
			return
		}
		ui.logger.Warn("query not persisted", "session", id, "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleStartOver resets the session and returns to the empty page.
func (ui *UI) HandleStartOver(w http.ResponseWriter, r *http.Request) {
	id := httpapi.EnsureCookieSession(w, r, ui.secure)
	if err := ui.manager.StartOver(r.Context(), id); err != nil {
		ui.logger.Warn("start over failed", "session", id, "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

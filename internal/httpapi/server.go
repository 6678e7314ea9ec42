// Package httpapi serves the broker integration layer over HTTP: platform
// and provider discovery, historical data queries, and symbol listings, all
// in JSON.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"brokerlink/internal/domain"
	"brokerlink/internal/history"
	"brokerlink/internal/platform"
	"brokerlink/internal/store"
)

// Server serves the REST API over a history manager. A BarStore may be
// attached to persist fetched bars; nil disables persistence.
type Server struct {
	manager *history.Manager
	bars    store.BarStore
	log     *slog.Logger
}

// NewServer creates the API server. bars may be nil.
func NewServer(manager *history.Manager, bars store.BarStore, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{manager: manager, bars: bars, log: log.With("component", "httpapi")}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/v1/platforms", s.handlePlatforms)
	mux.HandleFunc("GET /api/v1/providers", s.handleProviders)
	mux.HandleFunc("GET /api/v1/providers/{id}", s.handleProviderInfo)
	mux.HandleFunc("POST /api/v1/providers/{id}/test", s.handleProviderTest)
	mux.HandleFunc("GET /api/v1/symbols", s.handleSymbols)
	mux.HandleFunc("GET /api/v1/history", s.handleHistory)
	mux.HandleFunc("DELETE /api/v1/cache", s.handleClearCache)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}

// writeDomainError maps the error taxonomy onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsUnsupported(err):
		writeError(w, http.StatusNotFound, err.Error())
	case domain.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		var ve *domain.VendorError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// parseTimeParam accepts RFC 3339 stamps, bare dates, and epoch
// milliseconds.
func parseTimeParam(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	var ms int64
	if err := json.Unmarshal([]byte(v), &ms); err == nil && ms > 0 {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, &domain.ValidationError{Reason: "unparseable time " + v}
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handlePlatforms(w http.ResponseWriter, r *http.Request) {
	ids := platform.Supported()
	platforms := make([]PlatformJSON, 0, len(ids))
	for _, id := range ids {
		a, err := platform.New(string(id))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		p := PlatformJSON{ID: string(id)}
		if fr, ok := a.(platform.FeatureReporter); ok {
			for _, f := range fr.SupportedFeatures() {
				p.Features = append(p.Features, string(f))
			}
		}
		platforms = append(platforms, p)
	}
	writeJSON(w, PlatformsResponse{Platforms: platforms})
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	ids := s.manager.AvailableProviders()
	providers := make([]ProviderJSON, 0, len(ids))
	for _, id := range ids {
		info, err := s.manager.ProviderInfo(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		providers = append(providers, convertSourceInfo(info))
	}
	writeJSON(w, ProvidersResponse{Providers: providers})
}

func (s *Server) handleProviderInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.manager.ProviderInfo(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, convertSourceInfo(info))
}

func (s *Server) handleProviderTest(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.manager.TestProviderConnection(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, TestResponse{Provider: id, OK: true})
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("provider")
	if id == "" {
		writeError(w, http.StatusBadRequest, "provider required")
		return
	}
	symbols, err := s.manager.AvailableSymbols(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if symbols == nil {
		symbols = []string{}
	}
	writeJSON(w, SymbolsResponse{Provider: id, Symbols: symbols})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	providerID := q.Get("provider")
	symbol := strings.ToUpper(q.Get("symbol"))
	if providerID == "" || symbol == "" {
		writeError(w, http.StatusBadRequest, "provider and symbol required")
		return
	}

	tf, err := domain.ParseTimeframe(q.Get("timeframe"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var start, end time.Time
	if v := q.Get("start"); v != "" {
		if start, err = parseTimeParam(v); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		start = time.Now().UTC().AddDate(0, -1, 0)
	}
	if v := q.Get("end"); v != "" {
		if end, err = parseTimeParam(v); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		end = time.Now().UTC()
	}

	bars, err := s.manager.GetHistoricalData(r.Context(), providerID, symbol, tf, start, end)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if bars == nil {
		bars = []domain.Bar{}
	}

	if s.bars != nil && len(bars) > 0 {
		if err := s.bars.WriteBars(r.Context(), providerID, symbol, tf, bars); err != nil {
			s.log.Warn("persisting bars", "provider", providerID, "symbol", symbol, "error", err)
		}
	}

	writeJSON(w, HistoryResponse{
		Provider:  providerID,
		Symbol:    symbol,
		Timeframe: string(tf),
		Start:     start.UTC().Format(time.RFC3339),
		End:       end.UTC().Format(time.RFC3339),
		Count:     len(bars),
		Bars:      bars,
	})
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	s.manager.ClearCache()
	w.WriteHeader(http.StatusNoContent)
}

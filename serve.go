package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes returns the admin API of the app.
func (a *App) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP, middleware.Recoverer, middleware.Timeout(10*time.Second))

	r.Get("/api/stats", a.stats)
	r.Get("/api/blocklist", a.blocklist)
	r.Get("/api/search", a.search)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(
		a.metrics.Registry,
		promhttp.HandlerOpts{},
	))

	return r
}

type statsResponse struct {
	Updated   time.Time `json:"updated"`
	Domains   int       `json:"domains"`
	Allow     int       `json:"allow"`
	Collapsed int       `json:"collapsed"`
	Total     Stats     `json:"total"`
	Sources   []*Stats  `json:"sources"`
}

func (a *App) stats(w http.ResponseWriter, _ *http.Request) {
	res, at := a.Last()
	writeJSON(w, http.StatusOK, statsResponse{
		Updated:   at,
		Domains:   len(res.Entries),
		Allow:     len(res.Allow),
		Collapsed: res.Collapsed,
		Total:     res.Total,
		Sources:   sortedStats(res.Sources),
	})
}

func (a *App) blocklist(w http.ResponseWriter, _ *http.Request) {
	res, _ := a.Last()

	entries := res.Entries
	if entries == nil {
		entries = Entries{}
	}

	writeJSON(w, http.StatusOK, entries)
}

func (a *App) search(w http.ResponseWriter, r *http.Request) {
	domain := r.URL.Query().Get("domain")
	if domain == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "domain is required",
		})
		return
	}

	reason, ok, err := a.Search(r.Context(), domain)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrInvalidDomain) {
			status = http.StatusBadRequest
		}

		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": domain + " is not blocked",
		})
		return
	}

	writeJSON(w, http.StatusOK, reason)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Serve runs a pass now and then every interval while serving the admin
// API on listen. A failed pass keeps the previous result.
func (a *App) Serve(ctx context.Context, listen string, interval time.Duration) error {
	srv := &http.Server{
		Addr:              listen,
		Handler:           a.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	a.logger.Infow("serving", "listen", listen, "interval", interval.String())

	if interval <= 0 {
		interval = DEFAULTINTERVAL
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	pass := func() {
		_, err := a.Pass(ctx)
		if err != nil && ctx.Err() == nil {
			a.logger.Errorw("pass failed", "error", err)
		}
	}

	pass()
	for {
		select {
		case <-ctx.Done():
			shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			return srv.Shutdown(shutdown)
		case err := <-errs:
			return err
		case <-ticker.C:
			pass()
		}
	}
}

// Command mock-endpoints is a stand-in transactional email API for local
// runs of the http mail transport (MAIL_API_URL=http://localhost:9090/emails/success).
package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
}

type mockServer struct {
	requests atomic.Int64
	logger   *slog.Logger
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	port := "9090"
	if p := os.Getenv("PORT"); p != "" {
		port = p
	}

	m := &mockServer{logger: logger}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Always accepts the message.
	r.Post("/emails/success", m.accept(0))
	// Accepts after a delay longer than a tight MAIL_SEND_TIMEOUT.
	r.Post("/emails/slow", m.accept(3*time.Second))
	// Always fails, which trips the mail circuit breaker.
	r.Post("/emails/fail", m.fail)
	r.Get("/stats", m.stats)

	logger.Info("mock mail provider starting", "port", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func (m *mockServer) accept(delay time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.To == "" {
			m.log(r, req, http.StatusBadRequest)
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "to is required"})
			return
		}
		if delay > 0 {
			time.Sleep(delay)
		}

		m.log(r, req, http.StatusOK)
		writeJSON(w, http.StatusOK, map[string]string{"id": uuid.NewString(), "message": "queued"})
	}
}

func (m *mockServer) fail(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	json.NewDecoder(r.Body).Decode(&req)
	m.log(r, req, http.StatusInternalServerError)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "provider unavailable"})
}

func (m *mockServer) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int64{"total_requests": m.requests.Load()})
}

func (m *mockServer) log(r *http.Request, req sendRequest, status int) {
	m.logger.Info("email received",
		"count", m.requests.Add(1),
		"path", r.URL.Path,
		"status", status,
		"to", req.To,
		"subject", req.Subject,
		"request_id", r.Header.Get("X-Request-ID"),
	)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

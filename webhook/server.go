// Package webhook serves the GitHub integration: signature-checked
// webhook deliveries that trigger pull request analysis in the
// background.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/krhitesh7/nullkrypt3rs/prreview"
)

// maxBodySize bounds webhook payloads; GitHub caps deliveries at 25 MB.
const maxBodySize = 25 << 20

// pullRequestEvent is the subset of the webhook payload the server reads.
type pullRequestEvent struct {
	Action      string `json:"action"`
	Number      int    `json:"number"`
	PullRequest struct {
		HTMLURL string `json:"html_url"`
		Title   string `json:"title"`
	} `json:"pull_request"`
	Repository struct {
		FullName string `json:"full_name"`
		Owner    struct {
			Login string `json:"login"`
		} `json:"owner"`
		Name string `json:"name"`
	} `json:"repository"`
}

// Server handles webhook deliveries and hands accepted PRs to the
// analyzer on background goroutines.
type Server struct {
	secret   []byte
	analyzer *prreview.Analyzer
	comment  bool

	mu     sync.Mutex
	active map[string]bool
}

// NewServer builds a webhook server. secret may be empty, which disables
// signature checking; production deployments should always set it.
func NewServer(secret string, analyzer *prreview.Analyzer, postComments bool) *Server {
	return &Server{
		secret:   []byte(secret),
		analyzer: analyzer,
		comment:  postComments,
		active:   make(map[string]bool),
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /webhook", s.handleWebhook)
	return mux
}

// ListenAndServe blocks serving HTTP until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "nullkrypt3rs",
		"webhook": "/webhook",
		"health":  "/health",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	if !s.validSignature(r.Header.Get("X-Hub-Signature-256"), body) {
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	switch event := r.Header.Get("X-GitHub-Event"); event {
	case "ping":
		writeJSON(w, http.StatusOK, map[string]string{"message": "pong"})
	case "pull_request":
		s.handlePullRequest(w, body)
	default:
		writeJSON(w, http.StatusOK, map[string]string{"message": "ignored event: " + event})
	}
}

// validSignature checks the HMAC-SHA256 delivery signature. An empty
// configured secret accepts everything.
func (s *Server) validSignature(header string, body []byte) bool {
	if len(s.secret) == 0 {
		return true
	}
	const prefix = "sha256="
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return false
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(header[len(prefix):]))
}

func (s *Server) handlePullRequest(w http.ResponseWriter, body []byte) {
	var ev pullRequestEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}

	if ev.Action != "opened" && ev.Action != "synchronize" && ev.Action != "reopened" {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ignored action: " + ev.Action})
		return
	}

	key := fmt.Sprintf("%s#%d", ev.Repository.FullName, ev.Number)
	s.mu.Lock()
	if s.active[key] {
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"message": "analysis already running for " + key})
		return
	}
	s.active[key] = true
	s.mu.Unlock()

	go s.analyze(ev, key)
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "analysis started for " + key})
}

func (s *Server) analyze(ev pullRequestEvent, key string) {
	defer func() {
		s.mu.Lock()
		delete(s.active, key)
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	log.Printf("webhook: analyzing %s (%s)", key, ev.PullRequest.Title)
	an, path, err := s.analyzer.Analyze(ctx, ev.Repository.Owner.Login, ev.Repository.Name, ev.Number)
	if err != nil {
		log.Printf("webhook: analysis of %s failed: %v", key, err)
		return
	}
	log.Printf("webhook: analysis of %s written to %s", key, path)

	if s.comment {
		if err := s.analyzer.Comment(ctx, an); err != nil {
			log.Printf("webhook: comment on %s failed: %v", key, err)
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

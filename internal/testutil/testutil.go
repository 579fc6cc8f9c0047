// Package testutil provides shared helpers for the checklist tests.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/robertguss/steershaft-checklist/internal/config"
	"github.com/robertguss/steershaft-checklist/internal/domain"
)

// NewTestConfig creates a Config rooted in a temp directory that is
// removed when the test completes.
func NewTestConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	cfg := config.New()
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.LogFile = ""
	cfg.Debug = false
	cfg.APIAddr = "127.0.0.1:0"
	return cfg
}

// Steps returns a short step sequence for tests
func Steps() []domain.Step {
	return []domain.Step{
		{ID: "BOM", Name: "BOM Check"},
		{ID: "T1", Name: "T1 Check", Description: "Verify first torque value"},
	}
}

// Submission is one request received by a SubmissionServer
type Submission struct {
	ContentType  string
	SubmissionID string
	Payload      domain.Payload
}

// SubmissionServer is a fake sheet-generation endpoint
type SubmissionServer struct {
	*httptest.Server

	mu       sync.Mutex
	status   int
	body     string
	received []Submission
}

// NewSubmissionServer starts a server that accepts every submission and
// reports two created sheets. It is closed when the test completes.
func NewSubmissionServer(t *testing.T) *SubmissionServer {
	t.Helper()

	s := &SubmissionServer{
		status: http.StatusOK,
		body:   `{"ok":true,"sheetsCreated":["sheet-1","sheet-2"]}`,
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// Respond changes the reply to later submissions
func (s *SubmissionServer) Respond(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.body = body
}

// Received returns the submissions seen so far
func (s *SubmissionServer) Received() []Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Submission(nil), s.received...)
}

func (s *SubmissionServer) handle(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)

	var p domain.Payload
	_ = json.Unmarshal(data, &p)

	s.mu.Lock()
	s.received = append(s.received, Submission{
		ContentType:  r.Header.Get("Content-Type"),
		SubmissionID: r.Header.Get("X-Submission-Id"),
		Payload:      p,
	})
	status, body := s.status, s.body
	s.mu.Unlock()

	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

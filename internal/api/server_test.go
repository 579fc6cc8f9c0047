package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robertguss/steershaft-checklist/internal/domain"
	"github.com/robertguss/steershaft-checklist/internal/submit"
	"github.com/robertguss/steershaft-checklist/internal/testutil"
	"github.com/robertguss/steershaft-checklist/internal/wizard"
)

type testServer struct {
	*httptest.Server
	api        *Server
	controller *wizard.Controller
	sheets     *testutil.SubmissionServer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	sheets := testutil.NewSubmissionServer(t)
	cfg := testutil.NewTestConfig(t)
	ctrl := wizard.New(testutil.Steps(), submit.NewClient(sheets.URL))
	s := NewServer(cfg, ctrl)
	srv := httptest.NewServer(s.Handler())

	t.Cleanup(func() {
		srv.Close()
		_ = s.Stop(context.Background())
	})
	return &testServer{Server: srv, api: s, controller: ctrl, sheets: sheets}
}

// call sends a JSON request and decodes the response into out when given
func (ts *testServer) call(t *testing.T, method, path string, body any, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (ts *testServer) toReview(t *testing.T) {
	t.Helper()
	require.Equal(t, http.StatusOK, ts.call(t, "PUT", "/api/session/operator", map[string]string{"name": "Jane"}, nil))
	require.Equal(t, http.StatusOK, ts.call(t, "POST", "/api/workorders", map[string]string{"workOrder": "WO-1"}, nil))
	require.Equal(t, http.StatusOK, ts.call(t, "POST", "/api/workorders", map[string]string{"workOrder": "WO-2"}, nil))
	require.Equal(t, http.StatusOK, ts.call(t, "POST", "/api/checklist/start", nil, nil))
	require.Equal(t, http.StatusOK, ts.call(t, "POST", "/api/checklist/next", nil, nil))
	require.Equal(t, http.StatusOK, ts.call(t, "POST", "/api/checklist/next", nil, nil))
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	var body map[string]string
	assert.Equal(t, http.StatusOK, ts.call(t, "GET", "/health", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestSessionFlow(t *testing.T) {
	ts := newTestServer(t)

	var snap wizard.Snapshot
	ts.call(t, "PUT", "/api/session/operator", map[string]string{"name": "Jane"}, &snap)
	assert.False(t, snap.CanStart)

	ts.call(t, "POST", "/api/workorders", map[string]string{"workOrder": " WO-1 "}, nil)
	ts.call(t, "POST", "/api/workorders", map[string]string{"workOrder": "WO/2"}, &snap)
	assert.Equal(t, []string{"WO-1", "WO/2"}, snap.Session.WorkOrders.List())
	assert.True(t, snap.CanStart)

	ts.call(t, "DELETE", "/api/workorders/WO%2F2", nil, &snap)
	assert.Equal(t, []string{"WO-1"}, snap.Session.WorkOrders.List())
	ts.call(t, "POST", "/api/workorders", map[string]string{"workOrder": "WO-2"}, nil)

	assert.Equal(t, http.StatusOK, ts.call(t, "POST", "/api/checklist/start", nil, &snap))
	assert.Equal(t, domain.ScreenWizard, snap.Session.Screen)
	require.NotNil(t, snap.CurrentStep)
	assert.Equal(t, "BOM", snap.CurrentStep.ID)
	assert.True(t, snap.AllSelected)

	ts.call(t, "POST", "/api/step/toggle", map[string]string{"workOrder": "WO-1"}, &snap)
	assert.Equal(t, 1, snap.SelectedCount)
	ts.call(t, "PUT", "/api/step/comment", map[string]string{"comment": "burr on WO-1"}, nil)

	ts.call(t, "POST", "/api/checklist/next", nil, nil)
	ts.call(t, "PUT", "/api/step/select-all", map[string]bool{"checked": false}, &snap)
	assert.True(t, snap.NoneSelected)
	ts.call(t, "POST", "/api/checklist/next", nil, &snap)
	assert.Equal(t, domain.ScreenReview, snap.Session.Screen)

	var review struct {
		Operator string               `json:"operator"`
		Steps    []domain.StepSummary `json:"steps"`
	}
	assert.Equal(t, http.StatusOK, ts.call(t, "GET", "/api/review", nil, &review))
	assert.Equal(t, "Jane", review.Operator)
	require.Len(t, review.Steps, 2)
	assert.Equal(t, 1, review.Steps[0].PassCount)
	assert.Equal(t, []string{"WO-1"}, review.Steps[0].Failed)
	assert.Equal(t, "burr on WO-1", review.Steps[0].Comment)
	assert.Equal(t, 2, review.Steps[1].FailCount)

	assert.Equal(t, http.StatusOK, ts.call(t, "POST", "/api/submit", nil, &snap))
	assert.Equal(t, domain.ScreenDone, snap.Session.Screen)
	require.NotNil(t, snap.Session.Receipt)
	assert.Equal(t, 2, snap.Session.Receipt.Count())

	received := ts.sheets.Received()
	require.Len(t, received, 1)
	assert.Equal(t, submit.ContentType, received[0].ContentType)
	assert.Equal(t, []string{"WO-2"}, received[0].Payload.Answers[0].SelectedWorkOrders)

	assert.Equal(t, http.StatusOK, ts.call(t, "POST", "/api/reset", nil, &snap))
	assert.Equal(t, domain.ScreenStart, snap.Session.Screen)
	assert.Empty(t, snap.Session.Operator)
}

func TestErrorStatus(t *testing.T) {
	t.Run("wrong screen is a conflict", func(t *testing.T) {
		ts := newTestServer(t)

		var body errorResponse
		assert.Equal(t, http.StatusConflict, ts.call(t, "POST", "/api/checklist/next", nil, &body))
		assert.Contains(t, body.Error, "not available")
		require.NotNil(t, body.Session)
		assert.Equal(t, domain.ScreenStart, body.Session.Session.Screen)
	})

	t.Run("blocked start is a conflict", func(t *testing.T) {
		ts := newTestServer(t)
		assert.Equal(t, http.StatusConflict, ts.call(t, "POST", "/api/checklist/start", nil, nil))
	})

	t.Run("bad json is a bad request", func(t *testing.T) {
		ts := newTestServer(t)
		assert.Equal(t, http.StatusBadRequest, ts.call(t, "PUT", "/api/session/operator", "{not json", nil))
	})

	t.Run("rejected submission is a bad gateway", func(t *testing.T) {
		ts := newTestServer(t)
		ts.sheets.Respond(http.StatusInternalServerError, "oops")
		ts.toReview(t)

		var body errorResponse
		assert.Equal(t, http.StatusBadGateway, ts.call(t, "POST", "/api/submit", nil, &body))
		require.NotNil(t, body.Session)
		assert.Equal(t, domain.ScreenReview, body.Session.Session.Screen)
		assert.Equal(t, "Submit failed: Submit failed (HTTP 500)", body.Session.Session.SubmitError)
	})
}

func TestSteps(t *testing.T) {
	ts := newTestServer(t)

	var body struct {
		Checklist string        `json:"checklist"`
		Steps     []domain.Step `json:"steps"`
	}
	assert.Equal(t, http.StatusOK, ts.call(t, "GET", "/api/steps", nil, &body))
	assert.Equal(t, "default", body.Checklist)
	assert.Equal(t, testutil.Steps(), body.Steps)
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := corsMiddleware([]string{"http://localhost:*", "https://kiosk.example.com"})(next)

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"http://localhost:3000", true},
		{"https://kiosk.example.com", true},
		{"https://evil.example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/session", nil)
			req.Header.Set("Origin", tt.origin)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if tt.allowed {
				assert.Equal(t, tt.origin, rr.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}

	t.Run("preflight short-circuits", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/api/session", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})
}

func TestWebSocketFeed(t *testing.T) {
	ts := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	type frame struct {
		Type string          `json:"type"`
		Data wizard.Snapshot `json:"data"`
	}

	var first frame
	require.NoError(t, wsjson.Read(ctx, conn, &first))
	assert.Equal(t, "session", first.Type)
	assert.Equal(t, domain.ScreenStart, first.Data.Session.Screen)

	require.Eventually(t, func() bool { return ts.api.Hub().ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	ts.call(t, "PUT", "/api/session/operator", map[string]string{"name": "Jane"}, nil)

	var update frame
	require.NoError(t, wsjson.Read(ctx, conn, &update))
	assert.Equal(t, "Jane", update.Data.Session.Operator)
}

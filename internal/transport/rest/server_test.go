package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sandevgo/emilia/internal/config"
	"github.com/sandevgo/emilia/internal/core"
	"github.com/sandevgo/emilia/internal/service/agent"
	"github.com/sandevgo/emilia/internal/service/catalog"
	"github.com/sandevgo/emilia/internal/service/orchestrator"
	"github.com/sandevgo/emilia/internal/service/recommend"
	"github.com/sandevgo/emilia/internal/service/router"
	"github.com/sandevgo/emilia/internal/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConversations struct {
	submitErr error
	closeErr  error
	closed    []string
	entries   []core.LongTermEntry
}

func (f *fakeConversations) SubmitTurn(_ context.Context, sessionID, text string) (core.Reply, error) {
	if f.submitErr != nil {
		return core.Reply{}, f.submitErr
	}
	return core.Reply{
		SessionID: sessionID,
		Seq:       2,
		Text:      "echo: " + text,
		Agent:     core.AgentGeneralChat,
		Recommendations: []core.ContentItem{
			{ID: "box-breathing", Category: core.CategoryMindfulness, Title: "Box breathing"},
		},
	}, nil
}

func (f *fakeConversations) CloseSession(_ context.Context, sessionID string) error {
	if f.closeErr != nil {
		return f.closeErr
	}
	f.closed = append(f.closed, sessionID)
	return nil
}

func (f *fakeConversations) LongTermLog(context.Context, string) ([]core.LongTermEntry, error) {
	return f.entries, nil
}

func newTestServer(t *testing.T, convs core.Conversations) *httptest.Server {
	t.Helper()
	s := NewServer(&config.HTTPConfig{MaxBodyBytes: 1024, RequestTimeout: time.Second}, convs)
	ts := httptest.NewServer(s.Routes(context.Background()))
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestSubmitTurn(t *testing.T) {
	ts := newTestServer(t, &fakeConversations{})

	resp := post(t, ts.URL+"/v1/sessions/abc/turns", `{"text":"hi"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reply core.Reply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reply))
	assert.Equal(t, "abc", reply.SessionID)
	assert.Equal(t, "echo: hi", reply.Text)
	require.Len(t, reply.Recommendations, 1)
	assert.Equal(t, "box-breathing", reply.Recommendations[0].ID)
}

func TestSubmitTurn_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		body string
		want int
	}{
		{name: "malformed body", body: `{"text":`, want: http.StatusBadRequest},
		{name: "unknown field", body: `{"message":"hi"}`, want: http.StatusBadRequest},
		{name: "oversized body", body: fmt.Sprintf(`{"text":%q}`, strings.Repeat("a", 2048)), want: http.StatusBadRequest},
		{name: "empty input", err: core.ErrEmptyInput, body: `{"text":""}`, want: http.StatusBadRequest},
		{name: "turn in progress", err: core.ErrTurnInProgress, body: `{"text":"hi"}`, want: http.StatusConflict},
		{name: "aborted", err: fmt.Errorf("%w: %w", core.ErrTurnAborted, context.Canceled), body: `{"text":"hi"}`, want: http.StatusServiceUnavailable},
		{name: "invariant", err: fmt.Errorf("%w: seq", core.ErrInvariantViolation), body: `{"text":"hi"}`, want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, &fakeConversations{submitErr: tt.err})

			resp := post(t, ts.URL+"/v1/sessions/abc/turns", tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)

			var body errorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

// stalledModel never answers before the caller gives up.
type stalledModel struct{}

func (stalledModel) Chat(ctx context.Context, _ []core.Message, _ []core.Tool) (core.Message, error) {
	<-ctx.Done()
	return core.Message{}, ctx.Err()
}

func TestSubmitTurn_RequestDeadline(t *testing.T) {
	safety := config.DefaultSafetyConfig()
	cfg := config.DefaultOrchestratorConfig()
	cat, err := catalog.Default()
	require.NoError(t, err)

	o := orchestrator.New(cfg, safety, orchestrator.Deps{
		Router: router.NewDefault(router.Config{
			CrisisValence:   cfg.CrisisValence,
			CrisisArousal:   cfg.CrisisArousal,
			DistressValence: cfg.DistressValence,
			DistressArousal: cfg.DistressArousal,
		}, nil),
		Agents: agent.NewDefaultSet(stalledModel{}, agent.NewPrompter("", 0), safety, cfg.MaxToolRounds),
		Recommender: recommend.New(cat, recommend.Config{
			Limit:        cfg.RecommendationLimit,
			MinScore:     cfg.RecommendationMinScore,
			ContextBonus: cfg.ContextBonus,
		}),
		Repo: sqlite.NewMemoryLongTermRepo(),
	})

	s := NewServer(&config.HTTPConfig{MaxBodyBytes: 1024, RequestTimeout: 50 * time.Millisecond}, o)
	ts := httptest.NewServer(s.Routes(context.Background()))
	t.Cleanup(ts.Close)

	t.Run("crisis message gets the safety reply", func(t *testing.T) {
		resp := post(t, ts.URL+"/v1/sessions/c1/turns", `{"text":"I want to kill myself"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var reply core.Reply
		dec := json.NewDecoder(resp.Body)
		require.NoError(t, dec.Decode(&reply))
		assert.False(t, dec.More())
		assert.True(t, reply.Crisis)
		assert.True(t, reply.Degraded)
		assert.Contains(t, reply.Text, safety.CrisisHotline)
	})

	t.Run("ordinary message is unavailable", func(t *testing.T) {
		resp := post(t, ts.URL+"/v1/sessions/g1/turns", `{"text":"I have an exam tomorrow"}`)
		require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorResponse
		dec := json.NewDecoder(resp.Body)
		require.NoError(t, dec.Decode(&body))
		assert.False(t, dec.More())
		assert.Contains(t, body.Error, core.ErrTurnAborted.Error())
	})
}

func TestCloseSession(t *testing.T) {
	convs := &fakeConversations{}
	ts := newTestServer(t, convs)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/v1/sessions/abc", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, []string{"abc"}, convs.closed)
}

func TestCloseSession_Error(t *testing.T) {
	ts := newTestServer(t, &fakeConversations{closeErr: errors.New("disk full")})

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/v1/sessions/abc", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestLongTermLog(t *testing.T) {
	t.Run("empty log is an empty array", func(t *testing.T) {
		ts := newTestServer(t, &fakeConversations{})

		resp, err := http.Get(ts.URL + "/v1/sessions/abc/log")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "abc", body["session_id"])
		assert.Equal(t, []any{}, body["entries"])
	})

	t.Run("entries", func(t *testing.T) {
		ts := newTestServer(t, &fakeConversations{entries: []core.LongTermEntry{
			{ID: "e1", SessionID: "abc", Seq: 2, Reason: core.ReasonCrisis},
		}})

		resp, err := http.Get(ts.URL + "/v1/sessions/abc/log")
		require.NoError(t, err)
		defer resp.Body.Close()

		var body logResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body.Entries, 1)
		assert.Equal(t, core.ReasonCrisis, body.Entries[0].Reason)
	})
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, &fakeConversations{})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

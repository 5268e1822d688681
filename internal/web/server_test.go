package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/imdb-assistant/internal/analytics"
	"github.com/bull/imdb-assistant/internal/chat"
	"github.com/bull/imdb-assistant/internal/dataset"
	"github.com/bull/imdb-assistant/internal/prompt"
	"github.com/bull/imdb-assistant/internal/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// echoAssistant records turns on the session the way chat.Assistant does.
type echoAssistant struct {
	answer string
	err    error
}

func (e *echoAssistant) Respond(ctx context.Context, session *chat.Session, question string) (*chat.Reply, error) {
	if question == "" {
		return nil, chat.ErrEmptyQuestion
	}
	// Run through a real assistant so the session is updated.
	a := chat.NewAssistant(
		retrieverFunc(func(context.Context, string) ([]string, error) { return []string{"Title: X"}, nil }),
		generatorFunc(func(context.Context, string) (string, error) { return e.answer, e.err }),
		quietLogger(),
	)
	return a.Respond(ctx, session, question)
}

type retrieverFunc func(context.Context, string) ([]string, error)

func (f retrieverFunc) Search(ctx context.Context, q string) ([]string, error) { return f(ctx, q) }

type generatorFunc func(context.Context, string) (string, error)

func (f generatorFunc) Generate(ctx context.Context, p string) (string, error) { return f(ctx, p) }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const heatAnswer = "Title: Heat\nYear: 1995\nDirector: Michael Mann\nIMDB Rating: 8.3\nStars: Al Pacino, Robert De Niro\nOverview: A group of professional bank robbers."

func newTestEngine(t *testing.T, assistant Assistant) *gin.Engine {
	t.Helper()
	table, err := dataset.Load("../dataset/testdata/movies.csv")
	require.NoError(t, err)

	return NewEngine(Options{
		Assistant:     assistant,
		Sessions:      chat.NewSessionStore(time.Hour),
		Dashboard:     analytics.Compute(table.Records),
		Health:        http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }),
		SessionSecret: "test-secret-0123456789",
		SessionTTL:    time.Hour,
		Logger:        quietLogger(),
	})
}

func do(engine *gin.Engine, req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestChatPage_Empty(t *testing.T) {
	engine := newTestEngine(t, &echoAssistant{})

	rec := do(engine, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Ask about directors, ratings, actors, genres...")
	assert.Contains(t, body, `href="/dashboard"`)
	assert.NotEmpty(t, rec.Result().Cookies(), "session cookie is set")
}

func TestChatSubmit_RoundTrip(t *testing.T) {
	engine := newTestEngine(t, &echoAssistant{answer: heatAnswer})

	first := do(engine, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	cookies := first.Result().Cookies()

	form := url.Values{"question": {"Best heist movie?"}}
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := do(engine, req, cookies)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	page := do(engine, httptest.NewRequest(http.MethodGet, "/", nil), cookies)
	body := page.Body.String()
	assert.Contains(t, body, "Best heist movie?")
	assert.Contains(t, body, "🎬 Heat")
	assert.Contains(t, body, "Director: Michael Mann")
	assert.NotContains(t, body, "Ask about directors")
}

func TestChatSubmit_ErrorKeepsSession(t *testing.T) {
	engine := newTestEngine(t, &echoAssistant{err: errors.New("model not found")})

	cookies := do(engine, httptest.NewRequest(http.MethodGet, "/", nil), nil).Result().Cookies()

	form := url.Values{"question": {"Anything?"}}
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := do(engine, req, cookies)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "model not found")
	assert.Contains(t, rec.Body.String(), "Anything?")
}

func TestChatReset(t *testing.T) {
	engine := newTestEngine(t, &echoAssistant{answer: heatAnswer})
	cookies := do(engine, httptest.NewRequest(http.MethodGet, "/", nil), nil).Result().Cookies()

	form := url.Values{"question": {"Best heist movie?"}}
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	do(engine, req, cookies)

	rec := do(engine, httptest.NewRequest(http.MethodPost, "/chat/reset", nil), cookies)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	page := do(engine, httptest.NewRequest(http.MethodGet, "/", nil), cookies)
	assert.Contains(t, page.Body.String(), "Ask about directors")
}

func TestAPIChat(t *testing.T) {
	engine := newTestEngine(t, &echoAssistant{answer: heatAnswer})

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"question": "Best heist movie?"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := do(engine, req, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.SessionID)
	assert.Equal(t, heatAnswer, body.Reply.Content)
	require.Len(t, body.Reply.Cards, 1)
	assert.Equal(t, response.MovieCard{
		Title:    "Heat",
		Year:     "1995",
		Director: "Michael Mann",
		Rating:   "8.3",
		Stars:    "Al Pacino, Robert De Niro",
		Overview: "A group of professional bank robbers.",
	}, body.Reply.Cards[0])
	assert.Len(t, body.History, 2)

	// The same session continues when its id is passed back.
	req = httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"question": "And another?", "session_id": "`+body.SessionID+`"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = do(engine, req, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var second chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.Equal(t, body.SessionID, second.SessionID)
	assert.Len(t, second.History, 4)

	history := do(engine, httptest.NewRequest(http.MethodGet, "/api/chat/history?session_id="+body.SessionID, nil), nil)
	assert.Equal(t, http.StatusOK, history.Code)
}

func TestAPIChat_Fallback(t *testing.T) {
	assistant := chat.NewAssistant(
		retrieverFunc(func(context.Context, string) ([]string, error) { return nil, nil }),
		generatorFunc(func(context.Context, string) (string, error) {
			t.Fatal("generator must not be called")
			return "", nil
		}),
		quietLogger(),
	)
	engine := newTestEngine(t, assistant)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"question": "Who won in 2031?"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := do(engine, req, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Reply.Fallback)
	assert.Equal(t, prompt.Fallback, body.Reply.Content)
}

func TestAPIChat_Errors(t *testing.T) {
	tests := []struct {
		name      string
		assistant *echoAssistant
		body      string
		wantCode  int
	}{
		{"missing question", &echoAssistant{}, `{}`, http.StatusBadRequest},
		{"malformed json", &echoAssistant{}, `{`, http.StatusBadRequest},
		{"generation failure", &echoAssistant{err: errors.New("boom")}, `{"question": "q"}`, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(t, tt.assistant)
			req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := do(engine, req, nil)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestAPIHistory_UnknownSession(t *testing.T) {
	engine := newTestEngine(t, &echoAssistant{})
	rec := do(engine, httptest.NewRequest(http.MethodGet, "/api/chat/history?session_id=nope", nil), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboard(t *testing.T) {
	engine := newTestEngine(t, &echoAssistant{})

	page := do(engine, httptest.NewRequest(http.MethodGet, "/dashboard", nil), nil)
	assert.Equal(t, http.StatusOK, page.Code)
	body := page.Body.String()
	assert.Contains(t, body, "Total Movies")
	assert.Contains(t, body, "<polyline")
	assert.Contains(t, body, "Drama")

	rec := do(engine, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var d analytics.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, 5, d.TotalMovies)
	assert.Equal(t, analytics.GenreCount{Genre: "Drama", Count: 5}, d.TopGenres[0])
}

func TestHealthRoute(t *testing.T) {
	engine := newTestEngine(t, &echoAssistant{})
	rec := do(engine, httptest.NewRequest(http.MethodGet, "/health", nil), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

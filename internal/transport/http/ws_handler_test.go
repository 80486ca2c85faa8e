package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"learning-quiz-service/internal/app"
	"learning-quiz-service/internal/domain"
	"learning-quiz-service/internal/infra/memory"
)

type testServer struct {
	server      *httptest.Server
	clock       *app.ManualClock
	sessions    *memory.SessionStore
	submissions *memory.SubmissionStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	clock := app.NewManualClock(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	sessions := memory.NewSessionStore()
	submissions := memory.NewSubmissionStore()
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuiz()), time.Minute)
	service := app.NewQuizService(sessions, quizRepo, submissions, app.WithClock(clock))

	server := httptest.NewServer(NewMux(NewWSHandler(service, nil), NewResultHandler(service)))
	t.Cleanup(server.Close)
	return &testServer{server: server, clock: clock, sessions: sessions, submissions: submissions}
}

func (s *testServer) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + s.server.URL[len("http"):] + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketAnswerAndSubmitFlow(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t, "quizId=quiz-1&userId=u1")

	typ, payload := readNext(t, conn, "started")
	require.Equal(t, "started", typ)
	require.Equal(t, "in-progress", payload["state"])
	require.EqualValues(t, 60, payload["timeLeft"])

	send(t, conn, "answer", map[string]any{"questionId": "q1", "value": "4"})
	send(t, conn, "next", nil)
	send(t, conn, "answer", map[string]any{"value": []string{"2"}})
	send(t, conn, "submit", nil)

	_, result := readUntil(t, conn, "submitted")
	require.EqualValues(t, 2, result["score"]) // 1 + 2*1/2
	require.EqualValues(t, 3, result["maxScore"])
	require.Equal(t, true, result["isPassed"])
	require.Equal(t, "manual", result["trigger"])

	send(t, conn, "review", nil)
	_, review := readUntil(t, conn, "review")
	require.EqualValues(t, 1, review["correctCount"])

	send(t, conn, "dismiss", nil)
	_, route := readUntil(t, conn, "navigate")
	require.Equal(t, "course", route["kind"])
	require.Equal(t, "course-7", route["id"])

	require.Eventually(t, func() bool { return ts.sessions.Len() == 0 }, 2*time.Second, 10*time.Millisecond)

	subID, _ := result["id"].(string)
	resp, err := http.Get(ts.server.URL + "/submissions/" + subID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stored map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stored))
	require.EqualValues(t, 67, stored["percent"])
}

func TestWebSocketTimerSubmits(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t, "quizId=quiz-1&userId=u1")
	readNext(t, conn, "started")

	send(t, conn, "answer", map[string]any{"questionId": "q1", "value": "3"})
	// give the read loop time to record the answer before the clock runs out
	require.Eventually(t, func() bool { return answeredCount(ts) == 1 }, 2*time.Second, 10*time.Millisecond)

	for i := 0; i < 60; i++ {
		require.Equal(t, 1, ts.clock.Fire())
	}

	_, result := readUntil(t, conn, "submitted")
	require.Equal(t, "timeout", result["trigger"])
	require.EqualValues(t, 0, result["score"])
	require.EqualValues(t, 1, result["timeSpent"])
	require.Eventually(t, func() bool { return ts.clock.Active() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketUnknownQuiz(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t, "quizId=nope&userId=u1")

	_, payload := readNext(t, conn, "notFound")
	route, _ := payload["route"].(map[string]any)
	require.Equal(t, "catalog", route["kind"])
	require.Equal(t, 0, ts.sessions.Len())
	require.Equal(t, 0, ts.clock.Active())
}

func TestWebSocketDisconnectStopsCountdown(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t, "quizId=quiz-1&userId=u1")
	readNext(t, conn, "started")
	require.Equal(t, 1, ts.clock.Active())

	conn.Close()

	require.Eventually(t, func() bool {
		return ts.clock.Active() == 0 && ts.sessions.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketSendsInitialSnapshotOnce(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t, "quizId=quiz-1&userId=u1")

	_, started := readNext(t, conn, "started")
	require.EqualValues(t, 0, started["currentIndex"])

	send(t, conn, "next", nil)
	_, state := readNext(t, conn, "state")
	require.EqualValues(t, 1, state["currentIndex"])
}

func TestWebSocketMalformedAnswerIsNotCounted(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t, "quizId=quiz-1&userId=u1")
	readNext(t, conn, "started")

	send(t, conn, "answer", map[string]any{"questionId": "q1", "value": 5})
	_, state := readNext(t, conn, "state")
	require.EqualValues(t, 0, state["answered"])

	send(t, conn, "answer", map[string]any{"questionId": "q1", "value": "4"})
	_, state = readNext(t, conn, "state")
	require.EqualValues(t, 1, state["answered"])

	send(t, conn, "answer", map[string]any{"questionId": "q1", "value": map[string]any{"bad": true}})
	_, state = readNext(t, conn, "state")
	require.EqualValues(t, 0, state["answered"])
	require.Equal(t, 0, answeredCount(ts))

	send(t, conn, "submit", nil)
	_, result := readUntil(t, conn, "submitted")
	answers, _ := result["answers"].(map[string]any)
	require.Empty(t, answers)
}

func TestWebSocketRequiresQuery(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.server.URL + "/ws?quizId=quiz-1")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func answeredCount(ts *testServer) int {
	// only one session is live in these tests
	n := -1
	ts.sessions.Each(func(s *app.QuizSession) { n = s.Snapshot().Answered })
	return n
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	msg := map[string]any{"type": typ}
	if payload != nil {
		msg["payload"] = payload
	}
	require.NoError(t, conn.WriteJSON(msg))
}

func readNext(t *testing.T, conn *websocket.Conn, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

// readUntil skips state updates until a message of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, want string) (string, map[string]any) {
	t.Helper()
	for i := 0; i < 500; i++ {
		typ, payload := readNext(t, conn, "")
		if typ == "error" {
			t.Fatalf("unexpected error message: %v", payload)
		}
		if typ == want {
			return typ, payload
		}
	}
	t.Fatalf("no %s message received", want)
	return "", nil
}

func sampleQuiz() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:       "quiz-1",
			Title:    "Numbers",
			CourseID: "course-7",
			Questions: []domain.Question{
				{
					ID:            "q1",
					Type:          domain.SingleChoice,
					Prompt:        "What is 2 + 2?",
					Options:       []string{"3", "4", "5"},
					CorrectAnswer: domain.Single("4"),
					Points:        1,
				},
				{
					ID:            "q2",
					Type:          domain.MultipleChoice,
					Prompt:        "Which are even?",
					Options:       []string{"1", "2", "4"},
					CorrectAnswer: domain.Multi("2", "4"),
					Points:        2,
				},
			},
			TimeLimit:    1,
			PassingScore: 60,
			MaxAttempts:  2,
		},
	}
}

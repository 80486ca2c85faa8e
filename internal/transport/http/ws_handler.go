package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"learning-quiz-service/internal/app"
	"learning-quiz-service/internal/domain"
	"learning-quiz-service/internal/logger"
)

type WSHandler struct {
	service  *app.QuizService
	log      *logger.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, log *logger.Logger) *WSHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string        `json:"questionId"`
	Value      domain.Answer `json:"value"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type notFoundPayload struct {
	QuizID string       `json:"quizId"`
	Route  domain.Route `json:"route"`
}

// connNavigator turns a navigation request into a "navigate" message on the socket.
type connNavigator struct {
	send chan<- outboundMessage[any]
}

func (n connNavigator) Navigate(ctx context.Context, route domain.Route) error {
	select {
	case n.send <- outboundMessage[any]{Type: "navigate", Payload: route}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ServeWS upgrades the request and runs one quiz attempt over the socket.
// The attempt lives exactly as long as the connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	userID := r.URL.Query().Get("userId")
	if quizID == "" || userID == "" {
		http.Error(w, "missing quizId or userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	session, err := h.service.Start(ctx, quizID, userID)
	if errors.Is(err, domain.ErrQuizNotFound) {
		_ = conn.WriteJSON(outboundMessage[notFoundPayload]{Type: "notFound", Payload: notFoundPayload{
			QuizID: quizID,
			Route:  app.NotFoundRoute(),
		}})
		return
	}
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	sessionID := session.ID()
	defer h.service.Abandon(context.Background(), sessionID)

	updates, cancel, err := h.service.Subscribe(ctx, sessionID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write error", "session_id", sessionID, "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		started := false
		submittedSent := false
		forward := func(msg outboundMessage[any]) bool {
			select {
			case send <- msg:
				return true
			case <-closeSignals:
				return false
			}
		}
		for {
			select {
			case snap, ok := <-updates:
				if !ok {
					return
				}
				// the subscription opens with the current snapshot
				if !started {
					started = true
					if !forward(outboundMessage[any]{Type: "started", Payload: snap}) {
						return
					}
					if snap.Submission == nil {
						continue
					}
				}
				msg := outboundMessage[any]{Type: "state", Payload: snap}
				if snap.Submission != nil {
					if submittedSent {
						continue
					}
					submittedSent = true
					msg = outboundMessage[any]{Type: "submitted", Payload: snap.Submission}
				}
				if !forward(msg) {
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	nav := connNavigator{send: send}
	sendErr := func(err error) {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
	}

loop:
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			if _, err := h.service.SelectAnswer(ctx, sessionID, payload.QuestionID, payload.Value); err != nil {
				sendErr(err)
			}
		case "next", "previous":
			move := h.service.Next
			if inbound.Type == "previous" {
				move = h.service.Previous
			}
			snap, moved, err := move(ctx, sessionID)
			if err != nil {
				sendErr(err)
				continue
			}
			if !moved {
				send <- outboundMessage[any]{Type: "state", Payload: snap}
			}
		case "submit":
			// the subscription delivers the "submitted" message for whichever trigger won
			if _, err := h.service.Submit(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrAlreadySubmitted) {
				sendErr(err)
			}
		case "review":
			review, err := h.service.Review(ctx, sessionID)
			if err != nil {
				sendErr(err)
				continue
			}
			send <- outboundMessage[any]{Type: "review", Payload: review}
		case "dismiss":
			if err := h.service.Dismiss(ctx, sessionID, nav); err != nil {
				sendErr(err)
				continue
			}
			break loop
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

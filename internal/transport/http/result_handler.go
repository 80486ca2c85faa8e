package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"learning-quiz-service/internal/app"
	"learning-quiz-service/internal/domain"
)

// ResultHandler serves stored submissions to the result view.
type ResultHandler struct {
	service *app.QuizService
}

func NewResultHandler(service *app.QuizService) *ResultHandler {
	return &ResultHandler{service: service}
}

// ServeResult handles GET /submissions/{id}.
func (h *ResultHandler) ServeResult(w http.ResponseWriter, r *http.Request) {
	sub, err := h.service.Result(r.Context(), r.PathValue("id"))
	if errors.Is(err, domain.ErrSubmissionNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		domain.Submission
		Percent int `json:"percent"`
	}{Submission: sub, Percent: sub.Percent()})
}

// NewMux wires the quiz endpoints.
func NewMux(ws *WSHandler, results *ResultHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", ws.ServeWS)
	mux.HandleFunc("GET /submissions/{id}", results.ServeResult)
	return mux
}

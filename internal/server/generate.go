package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/koulutus-bot/internal/credits"
	"github.com/p-n-ai/koulutus-bot/internal/generation"
)

// handleGenerateSSE streams a generation as server-sent events. Request
// and credit problems are answered with a plain JSON error before the
// stream opens.
func (s *Server) handleGenerateSSE(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r, schemaGenerate)
	if !ok {
		return
	}
	var req generation.Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	req.UserID = userFrom(r.Context())

	if _, err := s.gen.Prepare(r.Context(), req); err != nil {
		status, msg := prepareStatus(err)
		writeError(w, status, msg)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	emit := func(ev generation.Event) {
		data, err := json.Marshal(ev)
		if err != nil {
			slog.Warn("failed to marshal event", "type", ev.Type, "error", err)
			return
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return
		}
		flusher.Flush()
	}

	_, err := s.gen.Generate(r.Context(), req, emit)
	var se *generation.StreamError
	if err != nil && !errors.As(err, &se) {
		emit(generation.Event{Type: generation.EventError, Message: clientMessage(err)})
	}
}

// handleGenerateWS runs a generation over a websocket. The first client
// message is the request; every event is sent as one JSON message.
func (s *Server) handleGenerateWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer func() { _ = conn.CloseNow() }()
	conn.SetReadLimit(maxBodyBytes)

	ctx := r.Context()
	send := func(ev generation.Event) {
		if err := wsjson.Write(ctx, conn, ev); err != nil {
			slog.Debug("websocket write failed", "type", ev.Type, "error", err)
		}
	}

	var raw json.RawMessage
	if err := wsjson.Read(ctx, conn, &raw); err != nil {
		slog.Debug("websocket read failed", "error", err)
		return
	}
	problems, err := s.schemas.validate(schemaGenerate, raw)
	if err != nil || len(problems) > 0 {
		send(generation.Event{Type: generation.EventError, Message: "Invalid request"})
		_ = conn.Close(websocket.StatusPolicyViolation, "invalid request")
		return
	}
	var req generation.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		send(generation.Event{Type: generation.EventError, Message: "Invalid request"})
		_ = conn.Close(websocket.StatusPolicyViolation, "invalid request")
		return
	}
	req.UserID = userFrom(ctx)

	_, err = s.gen.Generate(ctx, req, send)
	var se *generation.StreamError
	if err != nil && !errors.As(err, &se) {
		send(generation.Event{Type: generation.EventError, Message: clientMessage(err)})
	}
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

func prepareStatus(err error) (int, string) {
	var reqErr *generation.RequestError
	var insufficient *credits.InsufficientCreditsError
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, reqErr.Message
	case errors.As(err, &insufficient):
		return http.StatusPaymentRequired, insufficient.Error()
	default:
		slog.Error("generation precheck failed", "error", err)
		return http.StatusInternalServerError, "Unable to fetch user profile"
	}
}

// clientMessage is the error event text for a failure that happened
// before streaming, matching the SSE precheck response.
func clientMessage(err error) string {
	_, msg := prepareStatus(err)
	return msg
}

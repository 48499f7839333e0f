// Package support wires the admin UI's support-chat widget to the
// internal support service (C9): POST /api/support/chat, blocking by
// default or an SSE stream when the caller asks for it.
package support

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"botfleet/internal/llmclient"
	"botfleet/lib/api/response"
	"botfleet/lib/sl"
)

type Core interface {
	Reply(ctx context.Context, message string) (string, error)
	Stream(ctx context.Context, message string) (<-chan llmclient.Chunk, error)
}

type chatRequest struct {
	Message string `json:"message"`
	Stream  bool   `json:"stream"`
}

func (req *chatRequest) Bind(_ *http.Request) error {
	if req.Message == "" {
		return fmt.Errorf("message is required")
	}
	return nil
}

func Chat(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := render.Bind(r, &req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Сообщение не может быть пустым"))
			return
		}

		if req.Stream {
			streamChat(w, r, log, handler, req.Message)
			return
		}

		reply, err := handler.Reply(r.Context(), req.Message)
		if err != nil {
			log.Error("support reply", sl.Err(err))
			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, response.Error(llmclient.FriendlyMessage(err)))
			return
		}
		render.JSON(w, r, response.Ok(map[string]any{"reply": reply}))
	}
}

// streamChat relays Chunks over an SSE connection, one "data:" line per
// chunk, same wire shape bot-side streaming replies would use.
func streamChat(w http.ResponseWriter, r *http.Request, log *slog.Logger, handler Core, message string) {
	chunks, err := handler.Stream(r.Context(), message)
	if err != nil {
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error(llmclient.FriendlyMessage(err)))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Потоковая передача не поддерживается"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for chunk := range chunks {
		if chunk.Err != nil {
			fmt.Fprintf(w, "event: error\ndata: %s\n\n", llmclient.FriendlyMessage(chunk.Err))
			flusher.Flush()
			log.Warn("support stream chunk error", sl.Err(chunk.Err))
			return
		}
		if chunk.Text != "" {
			fmt.Fprintf(w, "data: %s\n\n", chunk.Text)
			flusher.Flush()
		}
		if chunk.Done {
			fmt.Fprint(w, "event: done\ndata: {}\n\n")
			flusher.Flush()
			return
		}
	}
}

package llmclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botfleet/internal/stats"
)

func TestStream_OpenAISSE(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		lines := []string{
			`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
			`data: {"choices":[{"delta":{"content":"lo"}}]}`,
			`data: [DONE]`,
		}
		for _, l := range lines {
			fmt.Fprintf(w, "%s\n", l)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}))
	defer srv.Close()

	a := New(stats.New(time.Now()))
	ch, err := a.Stream(context.Background(), Config{ApiUrl: srv.URL, ApiKey: "k", AiModel: "m"}, nil)
	require.NoError(t, err)

	var text string
	var done bool
	for c := range ch {
		require.NoError(t, c.Err)
		text += c.Text
		if c.Done {
			done = true
		}
	}
	assert.True(t, done)
	assert.Equal(t, "Hello", text)
}

func TestStream_GeminiFallsBackToSingleChunk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"единый ответ"}]}}]}`))
	}))
	defer srv.Close()

	a := New(stats.New(time.Now()))
	ch, err := a.Stream(context.Background(), Config{ApiUrl: srv.URL + "/googleapis.com", ApiKey: "k", AiModel: "m"}, nil)
	require.NoError(t, err)

	var chunks []Chunk
	for c := range ch {
		chunks = append(chunks, c)
	}
	require.Len(t, chunks, 2)
	assert.Equal(t, "единый ответ", chunks[0].Text)
	assert.True(t, chunks[1].Done)
}

package support

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"botfleet/entity"
	"botfleet/internal/llmclient"
	"botfleet/internal/stats"
	"botfleet/internal/store"
	"botfleet/lib/logger"

	"log/slog"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "botfleet.db")
	s, err := store.Open(path, "admin@test.local", "hash")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testLogger() *slog.Logger {
	return slog.New(logger.SetupHandler("local", ""))
}

func TestReply_NotConfiguredReturnsRussianError(t *testing.T) {
	st := newTestStore(t)
	llm := llmclient.New(stats.New(time.Now()))
	svc := New(st, llm, testLogger())

	_, err := svc.Reply(context.Background(), "hi")
	require.Error(t, err)
	require.Contains(t, err.Error(), "служба поддержки не настроена")
}

func TestReply_UsesConfiguredSettings(t *testing.T) {
	st := newTestStore(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"готов помочь"}}]}`))
	}))
	defer srv.Close()

	require.NoError(t, st.SetSettings([]entity.Setting{
		{Key: entity.SettingSupportAIURL, Value: srv.URL},
		{Key: entity.SettingSupportAIKey, Value: "key"},
		{Key: entity.SettingSupportAIModel, Value: "gpt-4"},
		{Key: entity.SettingSupportAIPrompt, Value: "Ты помощник поддержки."},
	}))

	llm := llmclient.New(stats.New(time.Now()))
	svc := New(st, llm, testLogger())

	reply, err := svc.Reply(context.Background(), "помоги мне")
	require.NoError(t, err)
	require.Equal(t, "готов помочь", reply)
}

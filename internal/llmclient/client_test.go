package llmclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botfleet/internal/stats"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		url  string
		want Provider
	}{
		{"https://api.langdock.com/v1/messages", ProviderAnthropicLike},
		{"https://api.anthropic.com/v1/messages", ProviderAnthropic},
		{"https://api.openai.com/v1", ProviderOpenAI},
		{"https://api.deepseek.com/v1", ProviderOpenAICompatibleNamed},
		{"https://generativelanguage.googleapis.com/v1beta/models/gemini-pro:generateContent", ProviderGemini},
		{"https://my-private-gateway.example.com/v1", ProviderGeneric},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, classify(c.url), c.url)
	}
}

func TestEndpointFor_OpenAIAppendsChatCompletions(t *testing.T) {
	got := endpointFor(ProviderOpenAI, "https://api.openai.com/v1", "key")
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", got)

	already := endpointFor(ProviderOpenAI, "https://api.openai.com/v1/chat/completions", "key")
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", already)
}

func TestEndpointFor_GeminiAppendsKeyOnce(t *testing.T) {
	got := endpointFor(ProviderGemini, "https://generativelanguage.googleapis.com/v1beta/models/x:generateContent", "secret")
	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta/models/x:generateContent?key=secret", got)
}

func TestCall_OpenAIShapeAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer my-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"привет"}}]}`))
	}))
	defer srv.Close()

	a := New(stats.New(time.Now()))
	reply, err := a.Call(context.Background(), Config{ApiUrl: srv.URL, ApiKey: "my-key", AiModel: "gpt-4"},
		[]Message{{Role: RoleUser, Text: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "привет", reply)
}

func TestCall_AnthropicContentShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"hello there"}]}`))
	}))
	defer srv.Close()

	a := New(stats.New(time.Now()))
	reply, err := a.Call(context.Background(), Config{ApiUrl: srv.URL + "/anthropic.com/v1/messages", ApiKey: "k", AiModel: "claude"},
		[]Message{{Role: RoleUser, Text: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "hello there", reply)
}

func TestCall_GeminiNoAuthHeaderKeyInQuery(t *testing.T) {
	var gotQuery, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ответ"}]}}]}`))
	}))
	defer srv.Close()

	a := New(stats.New(time.Now()))
	reply, err := a.Call(context.Background(), Config{ApiUrl: srv.URL + "/googleapis.com/v1", ApiKey: "k", AiModel: "gemini"},
		[]Message{{Role: RoleUser, Text: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "ответ", reply)
	assert.Equal(t, "key=k", gotQuery)
	assert.Empty(t, gotAuth)
}

func TestCall_EmptyResponseIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	a := New(stats.New(time.Now()))
	_, err := a.Call(context.Background(), Config{ApiUrl: srv.URL, ApiKey: "k", AiModel: "m"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "пустой")
}

func TestCall_NonOKStatusIsRussianUserFacing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	a := New(stats.New(time.Now()))
	_, err := a.Call(context.Background(), Config{ApiUrl: srv.URL, ApiKey: "k", AiModel: "m"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "код 500")
}

func TestComposeSystemPrompt(t *testing.T) {
	assert.Equal(t, "base", ComposeSystemPrompt("base", "text", ""))
	assert.Equal(t, "base\n\nБаза знаний:\ncontent", ComposeSystemPrompt("base", "text", "content"))
	assert.Equal(t, "base\n\nДанные из базы (JSON):\n{}", ComposeSystemPrompt("base", "json", "{}"))
}

func TestFriendlyMessage_ExtractsRussianPrefix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := New(stats.New(time.Now()))
	_, err := a.Call(context.Background(), Config{ApiUrl: srv.URL, ApiKey: "k", AiModel: "m"}, nil)
	require.Error(t, err)
	assert.Equal(t, "Ошибка AI сервиса (код 500).", FriendlyMessage(err))
}

func TestFriendlyMessage_NilIsEmpty(t *testing.T) {
	assert.Empty(t, FriendlyMessage(nil))
}

func TestAdapter_IncrementsAPICalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	counters := stats.New(time.Now())
	a := New(counters)
	_, err := a.Call(context.Background(), Config{ApiUrl: srv.URL, ApiKey: "k", AiModel: "m"}, nil)
	require.NoError(t, err)

	snap := counters.Snapshot()
	assert.Equal(t, int64(1), snap.ApiCalls)

	_, err = a.Call(context.Background(), Config{ApiUrl: srv.URL, ApiKey: "k", AiModel: "m"}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counters.Snapshot().ApiCalls)
}

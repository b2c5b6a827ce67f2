package suggest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var parent = &domain.Node{
	ID:          "healthcare-platform",
	Identifier:  "1.3.6.1.4.1.61026.2.1",
	Name:        "Healthcare Platform",
	Description: "NPHIES integration",
	UseCases:    []string{"claims", "eligibility"},
	Kind:        domain.KindBranch,
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BackoffBase: time.Millisecond, BackoffMultiplier: 1, MaxBackoff: time.Millisecond}
}

func chatBody(content string) []byte {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": content}}},
	})
	return body
}

func TestClient_Suggest(t *testing.T) {
	var got chatRequest
	var headers http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		headers = r.Header.Clone()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write(chatBody(threeRecords))
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL+"/v1"), WithAPIKey("sk-test"), WithModel("tiny"))
	out, err := c.Suggest(context.Background(), domain.SuggestRequest{UseCase: "prior authorization", Parent: parent})
	require.NoError(t, err)
	assert.Len(t, out, 3)

	assert.Equal(t, "Bearer sk-test", headers.Get("Authorization"))
	assert.NotEmpty(t, headers.Get("X-Request-ID"))
	assert.Equal(t, "tiny", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Contains(t, got.Messages[1].Content, "prior authorization")
	assert.Contains(t, got.Messages[1].Content, parent.Identifier)
	assert.Contains(t, got.Messages[1].Content, "eligibility")
}

func TestClient_RetriesTransient(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(chatBody(threeRecords))
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL), WithRetryConfig(fastRetry()))
	_, err := c.Suggest(context.Background(), domain.SuggestRequest{UseCase: "x", Parent: parent})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_GivesUpOnTransient(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL), WithRetryConfig(fastRetry()))
	_, err := c.Suggest(context.Background(), domain.SuggestRequest{UseCase: "x", Parent: parent})
	assert.True(t, IsTransient(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_FatalIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL), WithRetryConfig(fastRetry()))
	_, err := c.Suggest(context.Background(), domain.SuggestRequest{UseCase: "x", Parent: parent})
	assert.True(t, IsFatal(err))
	assert.ErrorContains(t, err, "status 401")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_MalformedAnswer(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write(chatBody(`[{"name":"only one","description":"d","kind":"leaf"}]`))
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL), WithRetryConfig(fastRetry()))
	_, err := c.Suggest(context.Background(), domain.SuggestRequest{UseCase: "x", Parent: parent})
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_NoParent(t *testing.T) {
	_, err := NewClient().Suggest(context.Background(), domain.SuggestRequest{UseCase: "x"})
	assert.ErrorIs(t, err, ErrNoParent)
}

func TestBuildURL(t *testing.T) {
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", BuildURL(""))
	assert.Equal(t, "http://localhost:11434/v1/chat/completions", BuildURL("http://localhost:11434/v1/"))
	assert.Equal(t, "http://h/chat/completions", BuildURL("http://h/chat/completions"))
}

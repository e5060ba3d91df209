package scoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamrahulroyy/ats-checker/internal/infrastructure/resilience"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, maxFailures int) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	breaker := resilience.NewBreaker("scoring", resilience.Settings{
		MaxFailures: maxFailures,
		Cooldown:    time.Minute,
	})
	client := NewClient(Config{
		APIURL:     srv.URL,
		APIKey:     "test-key",
		Model:      "mixtral-8x7b-32768",
		Timeout:    5 * time.Second,
		MaxRetries: 0,
	}, breaker, nil)
	return client, srv
}

func chatReply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	reply := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	assert.NoError(t, json.NewEncoder(w).Encode(reply))
}

func TestCheckParsesScore(t *testing.T) {
	var gotAuth atomic.Value
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "mixtral-8x7b-32768", req.Model)
		assert.Len(t, req.Messages, 2)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)

		chatReply(t, w, `{"ats_score": 77, "feedback": "good", "improvements": ["x"]}`)
	}, 5)

	score, err := client.Check(context.Background(), "resume text")
	require.NoError(t, err)

	assert.Equal(t, 77, score.ATSScore)
	assert.Equal(t, "Bearer test-key", gotAuth.Load())
	assert.Equal(t, 0, client.breaker.FailureCount())
}

func TestCheckServerErrorCountsTowardBreaker(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}, 5)

	_, err := client.Check(context.Background(), "resume text")
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
	assert.Equal(t, 1, client.breaker.FailureCount())
}

func TestCheckClientErrorDoesNotCountTowardBreaker(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad api key", http.StatusUnauthorized)
	}, 5)

	_, err := client.Check(context.Background(), "resume text")
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))
	assert.Equal(t, 0, client.breaker.FailureCount())
}

func TestCheckOpenBreakerShortCircuits(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}, 2)

	for i := 0; i < 2; i++ {
		_, _ = client.Check(context.Background(), "resume text")
	}
	require.True(t, client.breaker.IsOpen())
	callsBefore := calls.Load()

	_, err := client.Check(context.Background(), "resume text")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, callsBefore, calls.Load())
}

func TestCheckMalformedContentIsNotTransient(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, "I cannot produce JSON today.")
	}, 5)

	_, err := client.Check(context.Background(), "resume text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid API response format")
	assert.Equal(t, 0, client.breaker.FailureCount())
}

func TestCheckNoChoices(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": []}`))
	}, 5)

	_, err := client.Check(context.Background(), "resume text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

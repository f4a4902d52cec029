package completion_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"global_explorer/internal/adapters/completion"
)

func TestOpenAI_Complete(t *testing.T) {
	var req struct {
		Model       string   `json:"model"`
		Temperature *float64 `json:"temperature"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "test-model",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"tags\":[\"food\"]}"}, "finish_reason": "stop"}]
		}`))
	}))
	defer ts.Close()

	o, err := completion.NewOpenAI(ts.URL, "sk-test", "test-model", time.Second)
	require.NoError(t, err)

	out, err := o.Complete(context.Background(), conv)
	require.NoError(t, err)
	assert.Equal(t, `{"tags":["food"]}`, out)

	assert.Equal(t, "test-model", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, "user", req.Messages[1].Role)
	require.NotNil(t, req.Temperature, "temperature must be sent, not left to the server default")
	assert.Less(t, *req.Temperature, 0.01)
}

func TestOpenAI_NoChoicesIsEmptyReply(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-2","object":"chat.completion","choices":[]}`))
	}))
	defer ts.Close()

	o, err := completion.NewOpenAI(ts.URL, "sk-test", "test-model", time.Second)
	require.NoError(t, err)

	out, err := o.Complete(context.Background(), conv)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestOpenAI_RequiresKey(t *testing.T) {
	_, err := completion.NewOpenAI("", "", "", 0)
	assert.Error(t, err)
}

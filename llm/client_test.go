package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunaaoguzhann/coach-relay/core"
)

func TestClientComplete(t *testing.T) {
	var got apiRequest
	var gotHeaders http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/messages", r.URL.Path)
		gotHeaders = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(apiResponse{
			ID:    "msg_1",
			Role:  "assistant",
			Model: "test-model",
			Content: []contentBlock{
				{Type: "text", Text: "Great session. "},
				{Type: "text", Text: "Stretch before bed."},
			},
			Usage: apiUsage{InputTokens: 42, OutputTokens: 12},
		})
	}))
	defer server.Close()

	client, err := NewClient(Config{APIKey: "sk-test", Host: server.URL, Model: "test-model"})
	require.NoError(t, err)

	reply, err := client.Complete(context.Background(), "be a coach", []core.Message{
		{Role: core.RoleUser, Content: "leg day done", Images: []string{"https://cdn.example.com/squat.jpg"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Great session. Stretch before bed.", reply.Content)
	assert.Equal(t, "test-model", reply.Model)
	assert.Equal(t, 42, reply.InputTokens)
	assert.Equal(t, 12, reply.OutputTokens)

	assert.Equal(t, "sk-test", gotHeaders.Get("x-api-key"))
	assert.Equal(t, apiVersion, gotHeaders.Get("anthropic-version"))

	assert.Equal(t, "be a coach", got.System)
	require.Len(t, got.Messages, 1)
	require.Len(t, got.Messages[0].Content, 2)
	assert.Equal(t, "image", got.Messages[0].Content[0].Type)
	assert.Equal(t, "https://cdn.example.com/squat.jpg", got.Messages[0].Content[0].Source.URL)
	assert.Equal(t, "text", got.Messages[0].Content[1].Type)
}

func TestClientSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(apiResponse{
			Error: &apiError{Type: "invalid_request_error", Message: "max_tokens too large"},
		})
	}))
	defer server.Close()

	client, err := NewClient(Config{APIKey: "sk-test", Host: server.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "", []core.Message{{Role: core.RoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_tokens too large")
}

func TestClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

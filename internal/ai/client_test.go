package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var req map[string]string
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "http://example.com/tomato.jpg", req["imageUrl"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"freshness":"fresh","confidence":0.92}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	verdict, err := client.EvaluateImage(context.Background(), "http://example.com/tomato.jpg")
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(verdict, &parsed))
	assert.Equal(t, "fresh", parsed["freshness"])
}

func TestEvaluateImageUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.EvaluateImage(context.Background(), "http://example.com/tomato.jpg")
	assert.Error(t, err)
}

func TestEvaluateImageContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(srv.URL)
	_, err := client.EvaluateImage(ctx, "http://example.com/tomato.jpg")
	assert.Error(t, err)
}

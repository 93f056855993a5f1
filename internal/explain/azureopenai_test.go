package explain

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAzureClient_CompleteReturnsFirstChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-key", r.Header.Get("api-key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`))
	}))
	defer srv.Close()

	client := NewAzureClient(srv.URL, "secret-key", "gpt-4", 0)
	out, err := client.Complete(context.Background(), "explain this")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestAzureClient_CompleteFailsOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewAzureClient(srv.URL, "secret-key", "gpt-4", 0)
	_, err := client.Complete(context.Background(), "explain this")
	assert.Error(t, err)
}

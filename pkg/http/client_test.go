package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientDoSendsJSONAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "linear", r.URL.Query().Get("category"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "BTCUSDT", body["symbol"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTeapot)
		_, _ = io.WriteString(w, `{"ok":false}`)
	}))
	defer srv.Close()

	c := NewClient(WithUserAgent("test-agent"))
	resp, err := c.Do(context.Background(), &RequestOptions{
		Method:      MethodPost,
		URL:         srv.URL,
		QueryParams: map[string][]string{"category": {"linear"}},
		Body:        map[string]string{"symbol": "BTCUSDT"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.False(t, resp.OK())

	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, resp.DecodeJSON(&out))
	assert.False(t, out.OK)
}

func TestClientDoRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, strings.Repeat("x", 64))
	}))
	defer srv.Close()

	_, err := NewClient(WithMaxBodyBytes(16)).Do(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds 16 bytes")
}

func TestResponseSnippet(t *testing.T) {
	r := &Response{Body: []byte("0123456789")}
	assert.Equal(t, "0123...", r.Snippet(4))
	assert.Equal(t, "0123456789", r.Snippet(20))
}

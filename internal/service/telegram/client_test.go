package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"FinSignal/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeMarkdownV2(t *testing.T) {
	assert.Equal(t, `🔥 \#BTCUSDT`, EscapeMarkdownV2("🔥 #BTCUSDT"))
	assert.Equal(t, `5m: %K\=5\.20 MACD\=\-0\.0123 \[hammer\]`, EscapeMarkdownV2("5m: %K=5.20 MACD=-0.0123 [hammer]"))
	assert.Equal(t, `a\\b`, EscapeMarkdownV2(`a\b`))
}

func TestSendPostsMessage(t *testing.T) {
	var got sendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottoken/sendMessage", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "token", "-100", time.Second)
	require.NoError(t, c.Send(context.Background(), "🔥 #ETHUSDT"))
	assert.Equal(t, "-100", got.ChatID)
	assert.Equal(t, "MarkdownV2", got.ParseMode)
	assert.Equal(t, `🔥 \#ETHUSDT`, got.Text)
}

func TestSendClassifiesFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "retry after",
			status: http.StatusTooManyRequests,
			body:   `{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 7","parameters":{"retry_after":7}}`,
			check: func(t *testing.T, err error) {
				var ra *models.RetryAfterError
				require.True(t, errors.As(err, &ra))
				assert.Equal(t, 7*time.Second, ra.After)
			},
		},
		{
			name:   "server error",
			status: http.StatusBadGateway,
			body:   `bad gateway`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, models.ErrTransient)
				assert.Contains(t, err.Error(), "bad gateway")
				assert.Contains(t, err.Error(), "decode 502 response")
			},
		},
		{
			name:   "ok status with html body",
			status: http.StatusOK,
			body:   `<html>proxy error</html>`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, models.ErrPermanent)
				assert.Contains(t, err.Error(), "proxy error")
				var syn *json.SyntaxError
				assert.True(t, errors.As(err, &syn))
			},
		},
		{
			name:   "bad chat",
			status: http.StatusBadRequest,
			body:   `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, models.ErrPermanent)
				assert.Contains(t, err.Error(), "chat not found")
			},
		},
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   `{"ok":false,"error_code":401,"description":"Unauthorized"}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, models.ErrPermanent)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := New(srv.URL, "t", "c", time.Second).Send(context.Background(), "hi")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestSendTimeoutIsTransient(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	err := New(srv.URL, "t", "c", 50*time.Millisecond).Send(context.Background(), "hi")
	assert.ErrorIs(t, err, models.ErrTransient)
}

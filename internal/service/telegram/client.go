package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"FinSignal/internal/domain/models"
	drepo "FinSignal/internal/domain/repository"
	xhttp "FinSignal/pkg/http"
)

// Client sends messages through the Telegram Bot API.
type Client struct {
	baseURL string
	token   string
	chatID  string
	http    *xhttp.Client
}

// New creates a Telegram notifier for one chat.
func New(baseURL, token, chatID string, timeout time.Duration) drepo.Notifier {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		chatID:  chatID,
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// Send posts text as MarkdownV2 and classifies the outcome for the dispatcher.
func (c *Client) Send(ctx context.Context, text string) error {
	resp, err := c.http.Do(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token),
		Body: sendMessageRequest{
			ChatID:    c.chatID,
			Text:      EscapeMarkdownV2(text),
			ParseMode: "MarkdownV2",
		},
	})
	if err != nil {
		// timeouts, resets, DNS, truncated bodies
		return models.Transient(err)
	}

	var r apiResponse
	if decodeErr := resp.DecodeJSON(&r); decodeErr != nil {
		return classify(resp.StatusCode, r, fmt.Errorf("telegram %d: %s: %w", resp.StatusCode, resp.Snippet(120), decodeErr))
	}
	if resp.StatusCode == http.StatusOK && r.OK {
		return nil
	}
	return classify(resp.StatusCode, r, fmt.Errorf("telegram %d: %s", resp.StatusCode, r.Description))
}

// classify wraps err by status. A 200 that cannot be decoded is permanent:
// the message may already have been delivered.
func classify(status int, r apiResponse, err error) error {
	switch {
	case status == http.StatusTooManyRequests && r.Parameters.RetryAfter > 0:
		return &models.RetryAfterError{After: time.Duration(r.Parameters.RetryAfter) * time.Second}
	case status == http.StatusTooManyRequests, status >= 500:
		return models.Transient(err)
	default:
		return models.Permanent(err)
	}
}

var markdownV2Replacer = func() *strings.Replacer {
	special := "\\_*[]()~`>#+-=|{}.!"
	pairs := make([]string, 0, len(special)*2)
	for _, r := range special {
		pairs = append(pairs, string(r), "\\"+string(r))
	}
	return strings.NewReplacer(pairs...)
}()

// EscapeMarkdownV2 escapes every character MarkdownV2 reserves.
func EscapeMarkdownV2(s string) string {
	return markdownV2Replacer.Replace(s)
}

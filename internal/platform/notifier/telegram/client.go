// Package telegram sends admin review alerts through the Telegram Bot API and answers
// the callback queries produced by their inline buttons.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/flash-wallet-ledger/internal/config"
	"github.com/flash-wallet-ledger/internal/domain/outbox"
)

const defaultAPIBaseURL = "https://api.telegram.org"

// APIError is a non-ok reply from the Bot API
type APIError struct {
	Method      string
	StatusCode  int
	Description string
}

func (e APIError) Error() string {
	return fmt.Sprintf("telegram %s failed with status %d: %s", e.Method, e.StatusCode, e.Description)
}

type inlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type replyMarkup struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

type sendMessageRequest struct {
	ChatID      int64        `json:"chat_id"`
	Text        string       `json:"text"`
	ParseMode   string       `json:"parse_mode"`
	ReplyMarkup *replyMarkup `json:"reply_markup,omitempty"`
}

type answerCallbackRequest struct {
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text,omitempty"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Client talks to one bot. It is safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	chatIDs    []int64
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg config.TelegramConfig, logger *slog.Logger) *Client {
	baseURL := strings.TrimRight(cfg.APIBaseURL, "/")
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		token:      cfg.BotToken,
		chatIDs:    append([]int64(nil), cfg.AdminChatIDs...),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// SendAlert delivers the alert to every admin chat. Buttons are laid out on one row.
// Delivery to the remaining chats continues when one fails; all failures are joined.
func (c *Client) SendAlert(ctx context.Context, alert *outbox.AdminAlert) error {
	if alert == nil {
		return nil
	}

	var markup *replyMarkup
	if len(alert.Actions) > 0 {
		row := make([]inlineButton, 0, len(alert.Actions))
		for _, a := range alert.Actions {
			row = append(row, inlineButton{Text: a.Label, CallbackData: a.CallbackData})
		}
		markup = &replyMarkup{InlineKeyboard: [][]inlineButton{row}}
	}

	var errs []error
	for _, chatID := range c.chatIDs {
		req := sendMessageRequest{
			ChatID:      chatID,
			Text:        alert.Text,
			ParseMode:   "HTML",
			ReplyMarkup: markup,
		}
		if err := c.call(ctx, "sendMessage", req); err != nil {
			c.logger.Warn("Failed to deliver admin alert", "chat_id", chatID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AnswerCallback stops the loading indicator on the pressed button and shows text.
func (c *Client) AnswerCallback(ctx context.Context, callbackQueryID, text string) error {
	return c.call(ctx, "answerCallbackQuery", answerCallbackRequest{
		CallbackQueryID: callbackQueryID,
		Text:            text,
	})
}

func (c *Client) call(ctx context.Context, method string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	url := c.baseURL + "/bot" + c.token + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// the URL embeds the token; keep it out of logs
		return fmt.Errorf("telegram %s request failed: %w", method, redact(err, c.token))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", method, err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil || resp.StatusCode != http.StatusOK || !parsed.OK {
		return APIError{Method: method, StatusCode: resp.StatusCode, Description: parsed.Description}
	}
	return nil
}

func redact(err error, token string) error {
	if token == "" {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), token, "<redacted>"))
}

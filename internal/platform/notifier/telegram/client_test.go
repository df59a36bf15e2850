package telegram

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/flash-wallet-ledger/internal/config"
	"github.com/flash-wallet-ledger/internal/domain/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	Path string
	Body map[string]any
}

type fakeBotAPI struct {
	mu     sync.Mutex
	calls  []recordedCall
	failOn map[float64]bool // chat ids answered with ok=false
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)

	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{Path: r.URL.Path, Body: body})
	f.mu.Unlock()

	if chatID, ok := body["chat_id"].(float64); ok && f.failOn[chatID] {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
		return
	}
	_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
}

func newTestClient(t *testing.T, api *fakeBotAPI, chatIDs ...int64) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	return NewClient(config.TelegramConfig{
		APIBaseURL:   srv.URL + "/",
		BotToken:     "test-token",
		AdminChatIDs: chatIDs,
		Timeout:      time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_SendAlert(t *testing.T) {
	api := &fakeBotAPI{}
	client := newTestClient(t, api, 11, 22)

	alert := &outbox.AdminAlert{
		Text: "<b>New Deposit Request</b>",
		Actions: []outbox.Action{
			{Label: "Approve", CallbackData: "app_dep_x"},
			{Label: "Reject", CallbackData: "rej_dep_x"},
		},
	}
	require.NoError(t, client.SendAlert(context.Background(), alert))

	require.Len(t, api.calls, 2)
	first := api.calls[0]
	assert.Equal(t, "/bottest-token/sendMessage", first.Path)
	assert.Equal(t, float64(11), first.Body["chat_id"])
	assert.Equal(t, "HTML", first.Body["parse_mode"])
	assert.Equal(t, alert.Text, first.Body["text"])

	markup := first.Body["reply_markup"].(map[string]any)
	rows := markup["inline_keyboard"].([]any)
	require.Len(t, rows, 1)
	buttons := rows[0].([]any)
	require.Len(t, buttons, 2)
	assert.Equal(t, "app_dep_x", buttons[0].(map[string]any)["callback_data"])
	assert.Equal(t, "Reject", buttons[1].(map[string]any)["text"])

	assert.Equal(t, float64(22), api.calls[1].Body["chat_id"])
}

func TestClient_SendAlert_WithoutButtons(t *testing.T) {
	api := &fakeBotAPI{}
	client := newTestClient(t, api, 11)

	require.NoError(t, client.SendAlert(context.Background(), &outbox.AdminAlert{Text: "order"}))
	require.Len(t, api.calls, 1)
	_, hasMarkup := api.calls[0].Body["reply_markup"]
	assert.False(t, hasMarkup)
}

func TestClient_SendAlert_PartialFailure(t *testing.T) {
	api := &fakeBotAPI{failOn: map[float64]bool{11: true}}
	client := newTestClient(t, api, 11, 22)

	err := client.SendAlert(context.Background(), &outbox.AdminAlert{Text: "x"})
	require.Error(t, err)

	var apiErr APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "sendMessage", apiErr.Method)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Description, "chat not found")
	assert.Len(t, api.calls, 2, "remaining chats are still attempted")
}

func TestClient_SendAlert_Nil(t *testing.T) {
	api := &fakeBotAPI{}
	client := newTestClient(t, api, 11)

	assert.NoError(t, client.SendAlert(context.Background(), nil))
	assert.Empty(t, api.calls)
}

func TestClient_AnswerCallback(t *testing.T) {
	api := &fakeBotAPI{}
	client := newTestClient(t, api)

	require.NoError(t, client.AnswerCallback(context.Background(), "cb-1", "Approved"))
	require.Len(t, api.calls, 1)
	assert.Equal(t, "/bottest-token/answerCallbackQuery", api.calls[0].Path)
	assert.Equal(t, "cb-1", api.calls[0].Body["callback_query_id"])
	assert.Equal(t, "Approved", api.calls[0].Body["text"])
}

func TestClient_TransportErrorRedactsToken(t *testing.T) {
	client := NewClient(config.TelegramConfig{
		APIBaseURL:   "http://127.0.0.1:1",
		BotToken:     "secret-token",
		AdminChatIDs: []int64{1},
		Timeout:      time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := client.AnswerCallback(context.Background(), "cb", "")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")
}

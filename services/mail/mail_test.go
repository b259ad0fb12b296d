package mail

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"automation-platform/api/services/workflow"
)

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	sender := NewLogSender(zerolog.New(&buf))

	receipt, err := sender.Send(context.Background(), workflow.MailMessage{
		Recipient: "a@b.com",
		Subject:   "Hi",
		Content:   "Welcome!",
	})

	require.NoError(t, err)
	_, err = uuid.Parse(receipt.MessageID)
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "a@b.com")
	assert.Contains(t, buf.String(), receipt.MessageID)
}

func TestNewResendSender_RequiresKey(t *testing.T) {
	_, err := NewResendSender("", "noreply@example.com")

	assert.Error(t, err)
}

func TestResendSender_Send(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"email-123"}`))
	}))
	defer server.Close()

	sender, err := NewResendSender("re_test", "noreply@example.com", WithBaseURL(server.URL))
	require.NoError(t, err)

	receipt, err := sender.Send(context.Background(), workflow.MailMessage{
		Recipient: "a@b.com",
		Subject:   "Hi",
		Content:   "<p>Welcome!</p>",
		HTML:      true,
	})

	require.NoError(t, err)
	assert.Equal(t, "email-123", receipt.MessageID)
	assert.Equal(t, "noreply@example.com", got["from"])
	assert.Equal(t, []any{"a@b.com"}, got["to"])
	assert.Equal(t, "<p>Welcome!</p>", got["html"])
}

func TestResendSender_NoFromAddress(t *testing.T) {
	sender, err := NewResendSender("re_test", "")
	require.NoError(t, err)

	_, err = sender.Send(context.Background(), workflow.MailMessage{Recipient: "a@b.com", Subject: "Hi", Content: "x"})

	assert.Error(t, err)
}

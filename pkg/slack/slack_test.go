package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestWebhookSend tests the posted body and the default username.
func TestWebhookSend(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
	}))
	defer server.Close()

	webhook := NewWebhook(server.URL, "", 5*time.Second)
	if err := webhook.Send(context.Background(), "Alice joined the meeting"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got["text"] != "Alice joined the meeting" {
		t.Fatalf("unexpected text: %q", got["text"])
	}
	if got["username"] != DefaultUsername {
		t.Fatalf("expected default username, got %q", got["username"])
	}
}

// TestWebhookSendServerError tests that a non-2xx response is reported as
// an error for the caller to log.
func TestWebhookSendServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no_service", http.StatusInternalServerError)
	}))
	defer server.Close()

	webhook := NewWebhook(server.URL, "Meet Bot", 5*time.Second)
	if err := webhook.Send(context.Background(), "x"); err == nil {
		t.Fatalf("expected error for 500 response")
	}
}

// TestWebhookSendUnreachable tests that a connection failure is reported.
func TestWebhookSendUnreachable(t *testing.T) {
	webhook := NewWebhook("http://127.0.0.1:1", "Meet Bot", 500*time.Millisecond)
	if err := webhook.Send(context.Background(), "x"); err == nil {
		t.Fatalf("expected error for unreachable webhook")
	}
}

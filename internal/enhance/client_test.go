package enhance

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/enerdoc/docingest/internal/common"
)

func chatResponse(content string) string {
	body := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	b, _ := json.Marshal(body)
	return string(b)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(common.EnhanceConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "test-model",
		Timeout: 5 * time.Second,
	}, nil)
}

func TestEnhanceReplacesText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		w.Write([]byte(chatResponse(`{"enhanced_text": "cleaned up text"}`)))
	})

	got, err := c.Enhance(context.Background(), "raw reco gnized text")
	if err != nil {
		t.Fatal(err)
	}
	if got != "cleaned up text" {
		t.Errorf("enhanced = %q", got)
	}
}

func TestEnhanceRejectsEmptyContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatResponse(`{"enhanced_text": ""}`)))
	})

	_, err := c.Enhance(context.Background(), "raw")
	if !errors.Is(err, common.ErrEnhancementFailed) {
		t.Errorf("err = %v, want ErrEnhancementFailed", err)
	}
}

func TestEnhanceRejectsMalformedJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatResponse(`not json at all`)))
	})

	_, err := c.Enhance(context.Background(), "raw")
	if !errors.Is(err, common.ErrEnhancementFailed) {
		t.Errorf("err = %v, want ErrEnhancementFailed", err)
	}
}

func TestEnhanceRejectsWrongShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatResponse(`{"something_else": "x"}`)))
	})

	_, err := c.Enhance(context.Background(), "raw")
	if !errors.Is(err, common.ErrEnhancementFailed) {
		t.Errorf("err = %v, want ErrEnhancementFailed", err)
	}
}

func TestEnhanceServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	_, err := c.Enhance(context.Background(), "raw")
	if !errors.Is(err, common.ErrEnhancementFailed) {
		t.Errorf("err = %v, want ErrEnhancementFailed", err)
	}
}

func TestEnhanceConfiguredTimeoutMapsToTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Stall until the client gives up. Drain the body first so the
		// server can detect the client disconnect and cancel r.Context().
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	c := NewClient(common.EnhanceConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "test-model",
		Timeout: 50 * time.Millisecond,
	}, nil)

	_, err := c.Enhance(context.Background(), "raw")
	if !errors.Is(err, common.ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
	if errors.Is(err, common.ErrEnhancementFailed) {
		t.Error("timeout expiry classified as a recoverable enhancement failure")
	}
}

func TestEnhanceCallerCancelMapsToCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatResponse(`{"enhanced_text": "x"}`)))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Enhance(ctx, "raw")
	if !errors.Is(err, common.ErrCancelled) {
		t.Errorf("err = %v, want ErrCancelled", err)
	}
}

func TestEnhanceNoChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	})

	_, err := c.Enhance(context.Background(), "raw")
	if !errors.Is(err, common.ErrEnhancementFailed) {
		t.Errorf("err = %v, want ErrEnhancementFailed", err)
	}
}

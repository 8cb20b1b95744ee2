// Package enhance cleans up recognized text through an external
// chat-completions service. The stage is strictly best-effort: any failure
// leaves the unenhanced text in place.
package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/enerdoc/docingest/internal/common"
)

// Enhancer improves recognized text. Implementations validate the service
// output and return ErrEnhancementFailed on anything unusable.
type Enhancer interface {
	Enhance(ctx context.Context, text string) (string, error)
}

// Client talks to an OpenAI-compatible chat/completions endpoint.
type Client struct {
	cfg        common.EnhanceConfig
	timeout    time.Duration
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg common.EnhanceConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 45 * time.Second
	}
	// The timeout rides on the request context, not http.Client, so expiry
	// is distinguishable from other transport failures.
	return &Client{
		cfg:        cfg,
		timeout:    timeout,
		httpClient: &http.Client{},
		log:        logger,
	}
}

const systemPrompt = "You are a document text restorer. You receive raw text recognized " +
	"from a scanned page. Fix recognition artifacts: broken words, stray characters, " +
	"wrong letter/digit confusions. Preserve line structure, numbers, table layout and " +
	"page markers exactly. Do not summarize, translate or invent content. " +
	"Return ONLY JSON matching the provided schema."

// Enhance sends recognized text to the completion service and returns the
// cleaned version. The reply must parse, match the schema and be non-empty;
// otherwise the call fails with ErrEnhancementFailed and the caller keeps
// the original text.
func (c *Client) Enhance(ctx context.Context, text string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("enhance.start",
		"req_id", rid,
		"job_id", common.JobIDFromContext(ctx),
		"model", c.cfg.Model,
		"text_len", len(text),
	)

	schema := BuildEnhanceJSONSchema()
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": "Recognized text:\n\n" + text},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	reqCtx, cancelReq := context.WithTimeout(ctx, c.timeout)
	defer cancelReq()

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(reqCtx, endpoint, body)
	if err != nil {
		c.log.Error("enhance.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		// Configured-timeout expiry and caller cancellation must keep
		// their own codes; only other transport failures are recoverable.
		if ctxErr := common.ClassifyContext(reqCtx.Err()); ctxErr != nil {
			return "", ctxErr
		}
		return "", common.NewAppError("ENHANCEMENT_FAILED", "completion service call failed", common.ErrEnhancementFailed)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil || len(cc.Choices) == 0 {
		c.log.Error("enhance.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", common.NewAppError("ENHANCEMENT_FAILED", "malformed completion response", common.ErrEnhancementFailed)
	}

	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	if err := ValidateJSONAgainstSchema(schema, []byte(content)); err != nil {
		c.log.Error("enhance.schema_validation_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", common.NewAppError("ENHANCEMENT_FAILED", "completion output failed validation", common.ErrEnhancementFailed)
	}

	var out struct {
		EnhancedText string `json:"enhanced_text"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil || strings.TrimSpace(out.EnhancedText) == "" {
		return "", common.NewAppError("ENHANCEMENT_FAILED", "completion output empty", common.ErrEnhancementFailed)
	}

	c.log.Info("enhance.ok",
		"req_id", rid,
		"in_len", len(text),
		"out_len", len(out.EnhancedText),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out.EnhancedText, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.log.Warn("enhance.response_body_close_error", "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("completion status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// Package gemini is a minimal client for the Google Generative Language API
// that answers classifier queries with a single inline image.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"docingest/internal/classifier"
)

// ErrBlocked is classifier.ErrBlocked, returned when the model or its safety
// filter refused the prompt.
var ErrBlocked = classifier.ErrBlocked

// Options configure a Client.
type Options struct {
	BaseURL string // https://generativelanguage.googleapis.com
	Model   string // gemini-1.5-flash
	APIKey  string
	Timeout time.Duration
	// HTTPClient overrides the default traced client.
	HTTPClient *http.Client
}

// Client implements classifier.Oracle.
type Client struct {
	hc     *http.Client
	url    string
	apiKey string
}

// New validates opts and builds a Client.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("gemini: missing api key")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if opts.Model == "" {
		opts.Model = "gemini-1.5-flash"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	u := strings.TrimRight(opts.BaseURL, "/") + "/v1beta/models/" + url.PathEscape(opts.Model) + ":generateContent"
	return &Client{hc: hc, url: u, apiKey: opts.APIKey}, nil
}

var _ classifier.Oracle = (*Client)(nil)

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature      float32         `json:"temperature"`
	ResponseMIMEType string          `json:"response_mime_type,omitempty"`
	ResponseSchema   json.RawMessage `json:"response_schema,omitempty"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type request struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	SafetySettings   []safetySetting  `json:"safetySettings"`
}

type response struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Medical documents trip the default filters often enough that every
// category is set to BLOCK_NONE.
var permissive = []safetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_NONE"},
}

// UpstreamError is a non-2xx answer from the API.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("gemini upstream %d: %s", e.Status, e.Message)
}

// Temporary reports 408 and 5xx answers as retryable.
func (e *UpstreamError) Temporary() bool {
	return e.Status == http.StatusRequestTimeout || e.Status/100 == 5
}

// Ask sends q and returns the first candidate's text.
func (c *Client) Ask(ctx context.Context, q classifier.Query) (string, error) {
	mime := "application/json"
	body, err := json.Marshal(request{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{InlineData: &inlineData{MimeType: q.MediaType, Data: base64.StdEncoding.EncodeToString(q.Image)}},
				{Text: q.Instruction},
			},
		}},
		GenerationConfig: generationConfig{
			Temperature:      q.Temperature,
			ResponseMIMEType: mime,
			ResponseSchema:   q.Schema,
		},
		SafetySettings: permissive,
	})
	if err != nil {
		return "", fmt.Errorf("gemini: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", classifier.ErrRateLimited
	}
	if resp.StatusCode/100 != 2 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", &UpstreamError{Status: resp.StatusCode, Message: strings.TrimSpace(string(slurp))}
	}

	var gr response
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: %s", ErrBlocked, gr.PromptFeedback.BlockReason)
	}
	if len(gr.Candidates) == 0 {
		return "", classifier.ErrEmptyAnswer
	}
	cand := gr.Candidates[0]
	switch cand.FinishReason {
	case "SAFETY", "BLOCKLIST", "PROHIBITED_CONTENT", "SPII":
		return "", fmt.Errorf("%w: %s", ErrBlocked, cand.FinishReason)
	}
	var sb strings.Builder
	for _, p := range cand.Content.Parts {
		sb.WriteString(p.Text)
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", classifier.ErrEmptyAnswer
	}
	return sb.String(), nil
}

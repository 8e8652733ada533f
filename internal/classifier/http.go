package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/text/language"
)

const (
	imageCheckPath = "/1.0/check.json"
	textCheckPath  = "/1.0/text/check.json"
	videoCheckPath = "/1.0/video/check-sync.json"

	// textMode is the processing mode requested from the text endpoint.
	textMode = "ml"
)

// HTTPConfig holds credentials and endpoint for the hosted classifier.
type HTTPConfig struct {
	BaseURL   string
	APIUser   string
	APISecret string
}

// HTTPClient talks to a hosted moderation API. Responses carry a top-level
// status discriminator; anything other than "success" is an error even when
// the transport succeeded.
type HTTPClient struct {
	cfg    HTTPConfig
	client *http.Client
}

// NewHTTPClient creates a classifier client. The http.Client may carry the
// caller's timeout policy; the classifier itself imposes none.
func NewHTTPClient(cfg HTTPConfig, client *http.Client) *HTTPClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPClient{cfg: cfg, client: client}
}

type requestInfo struct {
	ID string `json:"id"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type imageResponse struct {
	Status  string      `json:"status"`
	Request requestInfo `json:"request"`
	Error   *apiError   `json:"error,omitempty"`
	FrameScores
}

type textResponse struct {
	Status            string           `json:"status"`
	Request           requestInfo      `json:"request"`
	Error             *apiError        `json:"error,omitempty"`
	ModerationClasses *TextClasses     `json:"moderation_classes,omitempty"`
	Personal          *PersonalMatches `json:"personal,omitempty"`
}

type videoResponse struct {
	Status  string       `json:"status"`
	Request requestInfo  `json:"request"`
	Error   *apiError    `json:"error,omitempty"`
	Summary *FrameScores `json:"summary,omitempty"`
	Data    *struct {
		Frames []Frame `json:"frames"`
	} `json:"data,omitempty"`
}

// CheckImage submits raw image bytes plus the comma-joined category list.
func (c *HTTPClient) CheckImage(ctx context.Context, payload []byte, categories []string) (*ImageResult, error) {
	var parsed imageResponse
	if err := c.postMedia(ctx, imageCheckPath, payload, categories, &parsed); err != nil {
		return nil, err
	}
	if err := checkStatus(parsed.Status, parsed.Error); err != nil {
		return nil, err
	}
	return &ImageResult{RequestID: parsed.Request.ID, Scores: parsed.FrameScores}, nil
}

// CheckText submits UTF-8 text with the fixed processing mode and a language
// tag. Invalid language tags fall back to English rather than failing the
// moderation attempt.
func (c *HTTPClient) CheckText(ctx context.Context, text string, lang string) (*TextResult, error) {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}

	form := url.Values{}
	form.Set("text", text)
	form.Set("mode", textMode)
	form.Set("lang", tag.String())
	form.Set("api_user", c.cfg.APIUser)
	form.Set("api_secret", c.cfg.APISecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+textCheckPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build text check request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var parsed textResponse
	if err := c.do(req, &parsed); err != nil {
		return nil, err
	}
	if err := checkStatus(parsed.Status, parsed.Error); err != nil {
		return nil, err
	}
	return &TextResult{RequestID: parsed.Request.ID, Classes: parsed.ModerationClasses, Personal: parsed.Personal}, nil
}

// CheckVideo submits raw video bytes plus the comma-joined category list.
func (c *HTTPClient) CheckVideo(ctx context.Context, payload []byte, categories []string) (*VideoResult, error) {
	var parsed videoResponse
	if err := c.postMedia(ctx, videoCheckPath, payload, categories, &parsed); err != nil {
		return nil, err
	}
	if err := checkStatus(parsed.Status, parsed.Error); err != nil {
		return nil, err
	}

	result := &VideoResult{RequestID: parsed.Request.ID, Summary: parsed.Summary}
	if parsed.Data != nil {
		result.Frames = parsed.Data.Frames
	}
	return result, nil
}

// postMedia uploads a payload as a multipart form and decodes the JSON body.
func (c *HTTPClient) postMedia(ctx context.Context, path string, payload []byte, categories []string, out interface{}) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("media", "upload")
	if err != nil {
		return fmt.Errorf("build media part: %w", err)
	}
	if _, err := part.Write(payload); err != nil {
		return fmt.Errorf("write media part: %w", err)
	}
	_ = writer.WriteField("models", strings.Join(categories, ","))
	_ = writer.WriteField("api_user", c.cfg.APIUser)
	_ = writer.WriteField("api_secret", c.cfg.APISecret)
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, &body)
	if err != nil {
		return fmt.Errorf("build media check request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("classifier request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read classifier response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("classifier returned HTTP %d", resp.StatusCode)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode classifier response: %w", err)
	}
	return nil
}

// checkStatus enforces the top-level status discriminator: a success-shaped
// transport response can still be a classification failure.
func checkStatus(status string, apiErr *apiError) error {
	if status == "success" {
		return nil
	}
	if apiErr != nil && apiErr.Message != "" {
		return fmt.Errorf("classifier status %q: %s", status, apiErr.Message)
	}
	return fmt.Errorf("classifier status %q", status)
}

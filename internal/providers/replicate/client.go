package replicate

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
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"photofilter/internal/domain"
	"photofilter/internal/infra"
)

// ErrMissingToken indicates that the client was configured without credentials.
var ErrMissingToken = errors.New("replicate: api token is required")

// Options configures the Replicate predictions client.
type Options struct {
	Token       string
	BaseURL     string
	Version     string
	CallTimeout time.Duration
	PreferWait  int
	HTTPClient  *http.Client
	Logger      *infra.Logger
}

// Client submits and polls predictions on the Replicate HTTP API.
type Client struct {
	token       string
	baseURL     string
	version     string
	callTimeout time.Duration
	preferWait  int
	httpClient  *http.Client
	logger      *infra.Logger
}

type predictionRequest struct {
	Version string          `json:"version"`
	Input   predictionInput `json:"input"`
}

type predictionInput struct {
	Prompt             string `json:"prompt"`
	InputImage         string `json:"input_image"`
	NumSteps           int    `json:"num_steps"`
	StyleName          string `json:"style_name"`
	NumOutputs         int    `json:"num_outputs"`
	GuidanceScale      int    `json:"guidance_scale"`
	NegativePrompt     string `json:"negative_prompt"`
	StyleStrengthRatio int    `json:"style_strength_ratio"`
}

type predictionResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  json.RawMessage `json:"error"`
}

type errorResponse struct {
	Detail string `json:"detail"`
	Title  string `json:"title"`
}

// NewClient constructs a client with defaults for unset options.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.replicate.com/v1"
	}
	version := strings.TrimSpace(opts.Version)
	if version == "" {
		version = DefaultVersion
	}
	callTimeout := opts.CallTimeout
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	return &Client{
		token:       strings.TrimSpace(opts.Token),
		baseURL:     baseURL,
		version:     version,
		callTimeout: callTimeout,
		preferWait:  opts.PreferWait,
		httpClient:  httpClient,
		logger:      logger,
	}
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.token != ""
}

// Submit starts a prediction for image in the given style and returns its id.
func (c *Client) Submit(ctx context.Context, image []byte, mime string, style domain.Style) (string, error) {
	if !c.HasCredentials() {
		return "", fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, ErrMissingToken)
	}
	prompt, err := Instruction(style)
	if err != nil {
		return "", err
	}
	if len(image) == 0 {
		return "", fmt.Errorf("%w: empty image", domain.ErrInvalidInput)
	}
	payload := predictionRequest{
		Version: c.version,
		Input: predictionInput{
			Prompt:             prompt,
			InputImage:         dataURI(image, mime),
			NumSteps:           50,
			StyleName:          "(No style)",
			NumOutputs:         1,
			GuidanceScale:      5,
			NegativePrompt:     negativePrompt,
			StyleStrengthRatio: 35,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("replicate: encode request: %w", err)
	}

	var decoded predictionResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/predictions", body, &decoded); err != nil {
		return "", err
	}
	id := strings.TrimSpace(decoded.ID)
	if id == "" {
		return "", fmt.Errorf("%w: replicate: prediction id missing", domain.ErrProviderUnavailable)
	}
	c.logger.Debug().
		Str("prediction_id", id).
		Str("status", decoded.Status).
		Str("style", string(style)).
		Msg("replicate: prediction created")
	return id, nil
}

// Poll fetches the current state of prediction handle.
func (c *Client) Poll(ctx context.Context, handle string) (domain.TransformResult, error) {
	if !c.HasCredentials() {
		return domain.TransformResult{}, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, ErrMissingToken)
	}
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return domain.TransformResult{}, fmt.Errorf("%w: empty prediction handle", domain.ErrInvalidInput)
	}
	var decoded predictionResponse
	endpoint := c.baseURL + "/predictions/" + url.PathEscape(handle)
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &decoded); err != nil {
		return domain.TransformResult{}, err
	}
	return interpret(decoded), nil
}

func interpret(resp predictionResponse) domain.TransformResult {
	switch strings.ToLower(strings.TrimSpace(resp.Status)) {
	case "succeeded":
		if ref := firstOutput(resp.Output); ref != "" {
			return domain.TransformResult{State: domain.TransformSucceeded, ResultRef: ref}
		}
		return domain.TransformResult{State: domain.TransformRunning}
	case "failed", "canceled":
		detail := strings.Trim(strings.TrimSpace(string(resp.Error)), `"`)
		if detail == "null" {
			detail = ""
		}
		if detail == "" {
			detail = resp.Status
		}
		return domain.TransformResult{State: domain.TransformFailed, Detail: detail}
	default:
		return domain.TransformResult{State: domain.TransformRunning}
	}
}

// firstOutput accepts both the array and the single string output shapes.
func firstOutput(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, item := range list {
			if item = strings.TrimSpace(item); item != "" {
				return item
			}
		}
		return ""
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return strings.TrimSpace(single)
	}
	return ""
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("replicate: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		if c.preferWait > 0 {
			req.Header.Set("Prefer", "wait="+strconv.Itoa(c.preferWait))
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: replicate: http request: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: replicate: read response: %v", domain.ErrProviderUnavailable, err)
	}
	if resp.StatusCode >= 300 {
		var detail errorResponse
		if err := json.Unmarshal(raw, &detail); err == nil && detail.Detail != "" {
			return fmt.Errorf("%w: replicate: status %d: %s", domain.ErrProviderUnavailable, resp.StatusCode, detail.Detail)
		}
		return fmt.Errorf("%w: replicate: status %d: %s", domain.ErrProviderUnavailable, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: replicate: decode response: %v", domain.ErrProviderUnavailable, err)
	}
	return nil
}

func dataURI(image []byte, mime string) string {
	mime = strings.TrimSpace(mime)
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(image)
}

var _ domain.Transformer = (*Client)(nil)

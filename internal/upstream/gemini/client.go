package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"cushionflow/internal/cushion"

	"google.golang.org/genai"
)

const (
	DefaultModel = "gemini-2.5-flash"

	endpointGenerate = "generate_content"
	endpointModels   = "models"
)

var ErrMissingAPIKey = errors.New("gemini: api key is empty")

type ObserverFunc func(endpoint string, status int, duration time.Duration)

type Option func(*options)

type options struct {
	baseURL  string
	observer ObserverFunc
}

func WithObserver(observer ObserverFunc) Option {
	return func(o *options) {
		o.observer = observer
	}
}

func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = strings.TrimSpace(baseURL)
	}
}

// Client sends one single-turn request per Invoke call. It is safe for
// concurrent use.
type Client struct {
	genai    *genai.Client
	model    string
	observer ObserverFunc
}

func New(ctx context.Context, apiKey, model string, httpClient *http.Client, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}

	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if o.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: o.baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Client{
		genai:    client,
		model:    model,
		observer: o.observer,
	}, nil
}

func (c *Client) Model() string {
	return c.model
}

// Invoke sends the prompt, followed by the image when present, and returns the
// model's raw text. It makes exactly one call and never retries.
func (c *Client) Invoke(ctx context.Context, prompt string, image *cushion.Image) (string, error) {
	started := time.Now()
	status := http.StatusOK
	defer func() { c.observe(endpointGenerate, status, time.Since(started)) }()

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, buildContents(prompt, image), nil)
	if err != nil {
		status = statusFromError(err)
		return "", classifyError(err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", cushion.InvocationError(cushion.ReasonProviderError, errors.New("prompt blocked: "+string(resp.PromptFeedback.BlockReason)))
		}
		return "", cushion.InvocationError(cushion.ReasonProviderError, errors.New("empty response"))
	}
	if candidate := resp.Candidates[0]; candidate != nil && candidate.FinishReason == genai.FinishReasonSafety {
		return "", cushion.InvocationError(cushion.ReasonProviderError, errors.New("response blocked by safety filter"))
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", cushion.InvocationError(cushion.ReasonProviderError, errors.New("response has no text"))
	}
	return text, nil
}

// CheckModel verifies that the credential can see the configured model.
func (c *Client) CheckModel(ctx context.Context) error {
	started := time.Now()
	status := http.StatusOK
	defer func() { c.observe(endpointModels, status, time.Since(started)) }()

	if _, err := c.genai.Models.Get(ctx, c.model, nil); err != nil {
		status = statusFromError(err)
		return classifyError(err)
	}
	return nil
}

func (c *Client) observe(endpoint string, status int, duration time.Duration) {
	if c.observer != nil {
		c.observer(endpoint, status, duration)
	}
}

func buildContents(prompt string, image *cushion.Image) []*genai.Content {
	parts := []*genai.Part{{Text: prompt}}
	if image != nil {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: image.MIMEType,
				Data:     image.Data,
			},
		})
	}
	return []*genai.Content{{Role: "user", Parts: parts}}
}

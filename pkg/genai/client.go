// Package genai is the client for the Gemini text-generation API. It is the
// only outbound collaborator of the application; everything else is local.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/infem06/progress/internal/domain"
)

// Config represents configuration for the generation client.
type Config struct {
	BaseURL     string
	Model       string
	Timeout     time.Duration
	RateLimit   int // requests per minute
	Temperature float64
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if c.Model == "" {
		c.Model = "gemini-3-flash-preview"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 10
	}
	if c.Temperature <= 0 {
		c.Temperature = 0.7
	}
	return c
}

// Client calls the Gemini generateContent endpoint. The credential is
// mutable at runtime (it is entered on the settings screen); readiness is
// derived from credential presence and the outcome of the last probe.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	cache      Cache
	log        *logrus.Logger

	mu     sync.RWMutex
	apiKey string
	ready  bool
}

// NewClient creates a generation client. cache may be nil to disable result
// caching.
func NewClient(cfg Config, cache Cache, logger *logrus.Logger) *Client {
	cfg = cfg.withDefaults()

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "Gemini",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RateLimit)), 1),
		breaker:    breaker,
		cache:      cache,
		log:        logger,
	}
}

// SetCredential installs or replaces the API credential. An empty key
// clears readiness.
func (c *Client) SetCredential(key string) {
	key = strings.TrimSpace(key)
	c.mu.Lock()
	c.apiKey = key
	c.ready = key != ""
	c.mu.Unlock()
}

// Ready reports whether generation may be attempted.
func (c *Client) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

func (c *Client) credential() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey
}

// Validate performs one trial call against the provider. A failure resets
// readiness to false; it is never conflated with an empty generation result.
func (c *Client) Validate(ctx context.Context) error {
	if c.credential() == "" {
		c.mu.Lock()
		c.ready = false
		c.mu.Unlock()
		return domain.ErrNotConfigured
	}

	_, err := c.generate(ctx, "상태 확인을 위해 '확인'이라고만 답하세요.", nil)
	c.mu.Lock()
	c.ready = err == nil
	c.mu.Unlock()
	if err != nil {
		c.log.WithError(err).Warn("Credential validation failed")
		return fmt.Errorf("validating credential: %w", err)
	}
	return nil
}

// GenerateJSON sends prompt with a strict response schema and returns the
// raw JSON text of the model response. Results are cached by prompt digest.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, schema map[string]any) ([]byte, error) {
	if !c.Ready() {
		return nil, domain.ErrNotConfigured
	}

	key := CacheKey(c.cfg.Model, prompt)
	if c.cache != nil {
		if cached, ok := c.cache.Get(ctx, key); ok {
			c.log.WithField("key", key).Debug("Generation cache hit")
			return cached, nil
		}
	}

	genCfg := &generationConfig{
		Temperature:      c.cfg.Temperature,
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
	text, err := c.generate(ctx, prompt, genCfg)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Set(ctx, key, []byte(text))
	}
	return []byte(text), nil
}

// GenerateText sends prompt without a schema and returns the plain text.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	if !c.Ready() {
		return "", domain.ErrNotConfigured
	}
	genCfg := &generationConfig{Temperature: c.cfg.Temperature}
	return c.generate(ctx, prompt, genCfg)
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64        `json:"temperature,omitempty"`
	ResponseMIMEType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *Client) generate(ctx context.Context, prompt string, genCfg *generationConfig) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doGenerate(ctx, prompt, genCfg)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (c *Client) doGenerate(ctx context.Context, prompt string, genCfg *generationConfig) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: genCfg,
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.credential())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling generation API: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.log.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"model":  c.cfg.Model,
		}).Error("Generation API returned non-OK status")
		return "", fmt.Errorf("generation API status %d", resp.StatusCode)
	}

	var parsed generateResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("generation API returned no candidates")
	}

	var sb strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

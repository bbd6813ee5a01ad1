// Package gemini calls the generateContent endpoint to draft full article
// bodies. Attempts walk an ordered model list; the first usable candidate
// wins and every other outcome falls through to the next model.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

var (
	// ErrMissingAPIKey means no credential was configured; nothing was sent.
	ErrMissingAPIKey = errors.New("gemini: api key missing; set GEMINI_API_KEY")
	// ErrAllModelsFailed means every configured model attempt failed.
	ErrAllModelsFailed = errors.New("gemini: all models failed or timed out")
)

// ModelConfig is one entry of the fallback list.
type ModelConfig struct {
	Name              string
	Timeout           time.Duration
	MaxOutputTokens   int
	SupportsGrounding bool
}

// DefaultModels returns the primary model plus its fallback.
func DefaultModels() []ModelConfig {
	return []ModelConfig{
		{Name: "gemini-2.5-pro-preview-05-06", Timeout: 300 * time.Second, MaxOutputTokens: 4000, SupportsGrounding: true},
		{Name: "gemini-1.5-pro", Timeout: 120 * time.Second, MaxOutputTokens: 4000, SupportsGrounding: true},
	}
}

// Client drafts article bodies. Zero-value fields fall back to defaults.
type Client struct {
	APIKey     string
	Models     []ModelConfig
	BaseURL    string
	HTTPClient *http.Client
	Logger     *log.Logger
}

// New returns a client using the default model list.
func New(apiKey string) *Client {
	return &Client{APIKey: apiKey, Models: DefaultModels()}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	Tools            []tool           `json:"tools,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type tool struct {
	GoogleSearchRetrieval *googleSearchRetrieval `json:"googleSearchRetrieval,omitempty"`
}

type googleSearchRetrieval struct {
	DynamicRetrievalConfig dynamicRetrievalConfig `json:"dynamicRetrievalConfig"`
}

type dynamicRetrievalConfig struct {
	Mode             string  `json:"mode"`
	DynamicThreshold float64 `json:"dynamicThreshold"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content           content            `json:"content"`
	GroundingMetadata *groundingMetadata `json:"groundingMetadata,omitempty"`
}

type groundingMetadata struct {
	WebSearchQueries []string          `json:"webSearchQueries,omitempty"`
	GroundingChunks  []json.RawMessage `json:"groundingChunks,omitempty"`
}

// Generate drafts the article body for the given title and outline. The
// model list is tried in order; individual attempt failures are logged, not
// propagated.
func (c *Client) Generate(ctx context.Context, title, outline string) (string, error) {
	if c.APIKey == "" {
		return "", ErrMissingAPIKey
	}
	models := c.Models
	if len(models) == 0 {
		models = DefaultModels()
	}

	prompt := buildDraftPrompt(title, outline)
	for _, model := range models {
		text, err := c.attempt(ctx, model, prompt)
		if err != nil {
			c.logger().Printf("[gemini] model %s failed: %v", model.Name, err)
			continue
		}
		return text, nil
	}
	return "", ErrAllModelsFailed
}

func (c *Client) attempt(ctx context.Context, model ModelConfig, prompt string) (string, error) {
	payload := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     0.7,
			MaxOutputTokens: model.MaxOutputTokens,
		},
	}
	if model.SupportsGrounding {
		payload.Tools = []tool{{
			GoogleSearchRetrieval: &googleSearchRetrieval{
				DynamicRetrievalConfig: dynamicRetrievalConfig{
					Mode:             "MODE_DYNAMIC",
					DynamicThreshold: 0.7,
				},
			},
		}}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	timeout := model.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	base := c.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", base, model.Name, c.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	for _, cand := range decoded.Candidates {
		text := candidateText(cand)
		if strings.TrimSpace(text) == "" {
			continue
		}
		if cand.GroundingMetadata != nil {
			c.logger().Printf("[gemini] model %s grounded: %d queries, %d chunks",
				model.Name, len(cand.GroundingMetadata.WebSearchQueries), len(cand.GroundingMetadata.GroundingChunks))
		}
		c.logger().Printf("[gemini] model %s succeeded in %s", model.Name, time.Since(start).Round(time.Millisecond))
		return text, nil
	}
	return "", errors.New("no usable candidates in response")
}

func candidateText(cand candidate) string {
	var sb strings.Builder
	for _, p := range cand.Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

func buildDraftPrompt(title, outline string) string {
	var sb strings.Builder
	sb.WriteString("Write a technical article in Markdown based on the title and outline below.\n\n")
	sb.WriteString("Title: " + title + "\n\n")
	sb.WriteString("Outline:\n" + outline + "\n\n")
	sb.WriteString("Requirements:\n")
	sb.WriteString("- Roughly 2000-4000 characters.\n")
	sb.WriteString("- Beginner friendly and practical.\n")
	sb.WriteString("- Include code examples where they help.\n")
	sb.WriteString("- Use H2 (##) and smaller headings only.\n")
	sb.WriteString("- Structure as introduction, body, conclusion.\n")
	sb.WriteString("- Include external links or references.\n")
	sb.WriteString("- Reflect current tooling and trends; use web search results when available.\n")
	return sb.String()
}

func (c *Client) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

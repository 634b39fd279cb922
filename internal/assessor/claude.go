package assessor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/oletizi/shakespeare-sub001/internal/types"
)

// DefaultModel is the model used when none is configured
const DefaultModel = "claude-sonnet-4-5-20250929"

// Pricing is the per-million-token USD cost of a model
type Pricing struct {
	InputTokenCost  float64 // USD per 1M input tokens
	OutputTokenCost float64 // USD per 1M output tokens
}

// DefaultPricing returns Claude Sonnet pricing
func DefaultPricing() Pricing {
	return Pricing{
		InputTokenCost:  3.00,
		OutputTokenCost: 15.00,
	}
}

// Config holds Claude assessor configuration
type Config struct {
	APIKey             string      // Anthropic API key (falls back to ANTHROPIC_API_KEY)
	Model              string      // Model name (default: DefaultModel)
	Pricing            Pricing     // Token pricing for cost attribution
	Retry              RetryConfig // Retry configuration (defaults if zero)
	MaxConcurrentCalls int         // Max in-flight API calls (default: 3, 0 = unlimited)
	RequestsPerMinute  int         // Request pacing (0 = unpaced)
}

// Claude implements Assessor and CostEstimator on the Anthropic API
type Claude struct {
	client  *anthropic.Client
	model   string
	pricing Pricing
	retry   RetryConfig
	breaker *CircuitBreaker
	sem     *semaphore.Weighted
	limiter *rate.Limiter
}

// Compile-time capability checks
var (
	_ Assessor      = (*Claude)(nil)
	_ CostEstimator = (*Claude)(nil)
)

// NewClaude creates an Anthropic-backed assessor
func NewClaude(cfg Config) (*Claude, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	pricing := cfg.Pricing
	if pricing.InputTokenCost == 0 && pricing.OutputTokenCost == 0 {
		pricing = DefaultPricing()
	}

	retry := cfg.Retry
	if retry.MaxRetries == 0 {
		retry = DefaultRetryConfig()
	}

	var breaker *CircuitBreaker
	if retry.CircuitBreakerEnabled {
		breaker = NewCircuitBreaker(retry.FailureThreshold, retry.SuccessThreshold, retry.OpenTimeout)
	}

	var sem *semaphore.Weighted
	maxConcurrent := cfg.MaxConcurrentCalls
	if maxConcurrent == 0 {
		maxConcurrent = 3
	}
	if maxConcurrent > 0 {
		sem = semaphore.NewWeighted(int64(maxConcurrent))
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &Claude{
		client:  &client,
		model:   model,
		pricing: pricing,
		retry:   retry,
		breaker: breaker,
		sem:     sem,
		limiter: limiter,
	}, nil
}

// scorecardPayload is the JSON shape the scoring prompt requests
type scorecardPayload struct {
	Scores   types.Scores                 `json:"scores"`
	Analysis map[string]DimensionAnalysis `json:"analysis"`
}

// Score rates the document on every quality dimension
func (c *Claude) Score(ctx context.Context, text string) (*Scorecard, error) {
	start := time.Now()

	response, err := c.complete(ctx, "score", c.buildScorePrompt(text), 4096)
	if err != nil {
		return nil, err
	}

	payload, err := parseJSON[scorecardPayload](responseText(response), "score response")
	if err != nil {
		return nil, err
	}

	card := &Scorecard{
		Scores:   payload.Scores,
		Analysis: payload.Analysis,
		CostInfo: c.costInfo(response),
	}
	if err := validateScores(card.Scores); err != nil {
		return nil, fmt.Errorf("score response rejected: %w", err)
	}

	slog.Debug("scored document",
		"avg", card.Scores.Average(), "duration", time.Since(start),
		"input_tokens", response.Usage.InputTokens, "output_tokens", response.Usage.OutputTokens)

	return card, nil
}

// Improve rewrites the document guided by a prior scorecard's analysis.
// The response is the rewritten document itself, not JSON.
func (c *Claude) Improve(ctx context.Context, text string, card *Scorecard) (*Improvement, error) {
	start := time.Now()

	response, err := c.complete(ctx, "improve", c.buildImprovePrompt(text, card), 16384)
	if err != nil {
		return nil, err
	}

	improved := strings.TrimSpace(responseText(response))
	improved = stripDocumentFences(improved)

	slog.Debug("improved document",
		"original_len", len(text), "improved_len", len(improved), "duration", time.Since(start))

	return &Improvement{
		Text:     improved,
		CostInfo: c.costInfo(response),
	}, nil
}

// EstimateCost predicts the USD cost of one improvement cycle: a scoring
// call, the rewrite, and a re-scoring call. Token counts are estimated at
// four characters per token, the usual rough figure for English prose.
func (c *Claude) EstimateCost(_ context.Context, text string) (float64, error) {
	docTokens := float64(len(text)) / 4

	// score + re-score: document in, scorecard (small) out
	scoring := 2 * (docTokens*c.pricing.InputTokenCost/1e6 + 1024*c.pricing.OutputTokenCost/1e6)
	// improve: document in, document out
	improving := docTokens*c.pricing.InputTokenCost/1e6 + docTokens*c.pricing.OutputTokenCost/1e6

	return scoring + improving, nil
}

// complete issues one message request with retry
func (c *Claude) complete(ctx context.Context, operation, prompt string, maxTokens int64) (*anthropic.Message, error) {
	var response *anthropic.Message
	err := c.retryWithBackoff(ctx, operation, func(attemptCtx context.Context) error {
		resp, apiErr := c.client.Messages.New(attemptCtx, anthropic.MessageNewParams{
			Model:     anthropic.Model(c.model),
			MaxTokens: maxTokens,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if apiErr != nil {
			return apiErr
		}
		response = resp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}
	return response, nil
}

// responseText concatenates the text blocks of a message response
func responseText(response *anthropic.Message) string {
	var out strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	return out.String()
}

// costInfo converts response usage into a cost record
func (c *Claude) costInfo(response *anthropic.Message) *types.CostInfo {
	in := response.Usage.InputTokens
	out := response.Usage.OutputTokens
	return &types.CostInfo{
		Cost:         float64(in)*c.pricing.InputTokenCost/1e6 + float64(out)*c.pricing.OutputTokenCost/1e6,
		Provider:     "anthropic",
		Model:        c.model,
		InputTokens:  in,
		OutputTokens: out,
	}
}

// validateScores checks every canonical dimension is present and in range
func validateScores(scores types.Scores) error {
	for _, dim := range types.Dimensions() {
		v, ok := scores[dim]
		if !ok {
			return fmt.Errorf("missing dimension %s", dim)
		}
		if v < 0 || v > 10 {
			return fmt.Errorf("dimension %s=%.2f outside [0,10]", dim, v)
		}
	}
	return nil
}

// stripDocumentFences removes a markdown code fence wrapping the whole
// rewritten document, a quirk some model responses add despite instructions
func stripDocumentFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) < 2 || !strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		return text
	}
	return strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
}

// buildScorePrompt builds the scoring prompt
func (c *Claude) buildScorePrompt(text string) string {
	return fmt.Sprintf(`You are a content quality reviewer. Rate the following document on each dimension from 0 to 10, and for each dimension explain your reasoning and give concrete improvement suggestions.

Dimensions:
- readability: clarity, structure, flow
- seoScore: search discoverability, headings, keyword use
- technicalAccuracy: correctness of facts, code, and terminology
- engagement: how well the document holds the reader
- contentDepth: completeness and substance of coverage

Document:
---
%s
---

Respond with a JSON object of this exact shape:
{
  "scores": {"readability": 7.5, "seoScore": 6.0, "technicalAccuracy": 8.0, "engagement": 7.0, "contentDepth": 6.5},
  "analysis": {
    "readability": {"reasoning": "...", "suggestions": ["...", "..."]},
    "seoScore": {"reasoning": "...", "suggestions": ["..."]},
    "technicalAccuracy": {"reasoning": "...", "suggestions": ["..."]},
    "engagement": {"reasoning": "...", "suggestions": ["..."]},
    "contentDepth": {"reasoning": "...", "suggestions": ["..."]}
  }
}

IMPORTANT: Respond with ONLY raw JSON. Do NOT wrap it in markdown code fences.`, text)
}

// buildImprovePrompt builds the improvement prompt from the pre-improvement
// analysis
func (c *Claude) buildImprovePrompt(text string, card *Scorecard) string {
	var guidance strings.Builder
	for _, dim := range types.Dimensions() {
		a, ok := card.Analysis[dim]
		if !ok {
			continue
		}
		guidance.WriteString(fmt.Sprintf("%s (current: %.1f):\n", dim, card.Scores[dim]))
		if a.Reasoning != "" {
			guidance.WriteString(fmt.Sprintf("  Assessment: %s\n", a.Reasoning))
		}
		for _, s := range a.Suggestions {
			guidance.WriteString(fmt.Sprintf("  - %s\n", s))
		}
	}

	return fmt.Sprintf(`You are a content editor. Rewrite the following document to address the review feedback while preserving its meaning, factual content, front matter, and code blocks.

Review feedback:
%s

Document:
---
%s
---

Rules:
1. Keep the document's format (markdown stays markdown, front matter stays intact).
2. Do not shorten the document substantially; improve it.
3. Do not invent facts, links, or code that were not there.

Respond with ONLY the complete rewritten document. Do not add commentary before or after it, and do not wrap it in code fences.`, guidance.String(), text)
}

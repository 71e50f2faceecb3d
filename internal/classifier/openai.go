// Package classifier adapts OpenAI-compatible chat APIs into the
// screening fallback and discovery surfaces. Responses are requested in
// JSON mode and parsed strictly: a payload that cannot be decoded is a
// typed error, never a guessed verdict.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	fastshot "github.com/opus-domini/fast-shot"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/compliance/pep-registry/internal/config"
	"github.com/compliance/pep-registry/internal/domain"
	"github.com/compliance/pep-registry/internal/pkg/logger"
)

// systemPrompt pins the model into compliance-research JSON responses.
const systemPrompt = "You are a helpful compliance research expert that provides responses in JSON format."

// maxSourceURLs caps how many supporting URLs a verdict retains.
const maxSourceURLs = 3

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// OpenAIClassifier calls an OpenAI-compatible chat completion endpoint.
// A circuit breaker guards the billed upstream: after repeated
// consecutive failures calls fail fast until the cool-down elapses.
type OpenAIClassifier struct {
	cfg     *config.ClassifierConfig
	breaker *gobreaker.CircuitBreaker
	log     *logger.Logger
}

// NewOpenAI creates a classifier for the configured provider endpoint.
func NewOpenAI(cfg *config.ClassifierConfig, log *logger.Logger) *OpenAIClassifier {
	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	cooldown := cfg.BreakerTimeout
	if cooldown <= 0 {
		cooldown = 60 * time.Second
	}

	named := log.Named("classifier")
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "external-classifier",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			named.Warn("classifier circuit state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &OpenAIClassifier{
		cfg:     cfg,
		breaker: breaker,
		log:     named,
	}
}

// Provider returns the configured provider name.
func (c *OpenAIClassifier) Provider() string {
	return c.cfg.Provider
}

// Classify asks the model whether the queried person is politically
// exposed and parses the structured verdict.
func (c *OpenAIClassifier) Classify(ctx context.Context, query domain.ScreeningQuery) (*domain.ExternalVerdict, error) {
	content, err := c.complete(ctx, verdictPrompt(query))
	if err != nil {
		return nil, err
	}

	var verdict domain.ExternalVerdict
	if err := json.Unmarshal([]byte(content), &verdict); err != nil {
		return nil, &domain.MalformedExternalResponse{
			Provider: c.cfg.Provider,
			Excerpt:  domain.Excerpt(content),
			Err:      err,
		}
	}
	if len(verdict.SourceURLs) > maxSourceURLs {
		verdict.SourceURLs = verdict.SourceURLs[:maxSourceURLs]
	}
	return &verdict, nil
}

// complete runs one chat completion through the circuit breaker and
// returns the fence-stripped message content.
func (c *OpenAIClassifier) complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &domain.ExternalServiceError{Provider: c.cfg.Provider, Err: err}
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.chat(prompt)
	})
	if err != nil {
		var external *domain.ExternalServiceError
		var malformed *domain.MalformedExternalResponse
		if errors.As(err, &external) || errors.As(err, &malformed) {
			return "", err
		}
		// Breaker-internal errors, such as the open-circuit fast fail.
		return "", &domain.ExternalServiceError{Provider: c.cfg.Provider, Err: err}
	}
	return result.(string), nil
}

func (c *OpenAIClassifier) chat(prompt string) (string, error) {
	res, err := fastshot.NewClient(c.cfg.BaseURL).
		Config().SetTimeout(c.timeout()).
		Auth().BearerToken(c.cfg.APIKey).
		Header().Add("Content-Type", "application/json").
		Build().POST("/v1/chat/completions").
		Body().AsJSON(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
	}).
		Send()
	if err != nil {
		return "", &domain.ExternalServiceError{Provider: c.cfg.Provider, Err: err}
	}

	if res.StatusCode() >= 400 {
		body, _ := io.ReadAll(res.RawBody())
		return "", &domain.ExternalServiceError{
			Provider: c.cfg.Provider,
			Message:  fmt.Sprintf("status %d: %s", res.StatusCode(), domain.Excerpt(string(body))),
		}
	}

	body, err := io.ReadAll(res.RawBody())
	if err != nil {
		return "", &domain.ExternalServiceError{Provider: c.cfg.Provider, Err: err}
	}

	var envelope chatResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", &domain.MalformedExternalResponse{
			Provider: c.cfg.Provider,
			Excerpt:  domain.Excerpt(string(body)),
			Err:      err,
		}
	}
	if len(envelope.Choices) == 0 {
		return "", &domain.MalformedExternalResponse{
			Provider: c.cfg.Provider,
			Excerpt:  domain.Excerpt(string(body)),
			Err:      errors.New("no choices in response"),
		}
	}
	return stripFences(envelope.Choices[0].Message.Content), nil
}

func (c *OpenAIClassifier) timeout() time.Duration {
	if c.cfg.Timeout > 0 {
		return c.cfg.Timeout
	}
	return 30 * time.Second
}

func verdictPrompt(query domain.ScreeningQuery) string {
	parts := []string{
		fmt.Sprintf("Please act as a compliance research expert. Determine whether the person named '%s' is a politically exposed person.", query.Name),
	}
	if query.DateOfBirth != nil {
		parts = append(parts, fmt.Sprintf("The person was born on %s.", query.DateOfBirth.Format("2006-01-02")))
	}
	if query.Nationality != "" {
		parts = append(parts, fmt.Sprintf("The person's nationality is '%s'.", query.Nationality))
	}
	parts = append(parts,
		"\nProvide the response as a single, clean JSON object with the following keys:",
		`- "is_pep": (boolean) Whether the person holds or has held a prominent public function.`,
		`- "position": (string) The most relevant position held, or an empty string.`,
		`- "country": (string) The country of that position, or an empty string.`,
		`- "summary": (string) A brief justification of the verdict.`,
		`- "source_urls": (array of strings) Up to three URLs supporting the verdict.`,
		"\nIf you cannot find any information, return is_pep false with an empty source_urls array.",
	)
	return strings.Join(parts, "\n")
}

// stripFences removes markdown code fences some models wrap around JSON
// despite JSON mode.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

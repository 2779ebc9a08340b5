// Package llm adapts stored conversation history to an external
// OpenAI-compatible completion provider and maps responses back into the
// local message shape.
//
// The gateway is a pure adapter: it performs no retry, backoff, or circuit
// breaking. A missing credential surfaces as ErrNoCredential and any
// provider failure as a wrapped ErrProvider; callers translate both into
// 500-class responses.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ldelacour/go-carriere-backend/internal/config"
	"github.com/ldelacour/go-carriere-backend/internal/domain"
)

var (
	// ErrNoCredential indicates the provider API key is not configured.
	ErrNoCredential = errors.New("llm: missing API credential")

	// ErrProvider indicates the external completion call failed.
	ErrProvider = errors.New("llm: provider error")

	// ErrEmptyResponse indicates the provider returned no usable content.
	ErrEmptyResponse = errors.New("llm: empty response")
)

// Turn is one stored utterance handed to the gateway.
type Turn struct {
	Role    string
	Content string
	Files   []domain.FileRef
}

// Reply is the mapped provider response.
type Reply struct {
	Content    string
	Model      string
	TokensUsed int
}

// Gateway is the completion contract consumed by the service layer.
type Gateway interface {
	// GenerateResponse formats history into the provider's message array and
	// returns the assistant reply. systemPrompt may be empty.
	GenerateResponse(ctx context.Context, systemPrompt string, history []Turn) (*Reply, error)

	// Complete runs a one-shot instruction prompt (titles, document
	// pipeline) and returns the raw text.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Client implements Gateway over a langchaingo OpenAI-compatible model.
// Construct it once at startup and inject it; it is safe for concurrent use.
type Client struct {
	model    llms.Model
	cfg      config.LLMConfig
	sessions *SessionCache
}

// NewClient builds the provider client from configuration. When the API key
// is absent the client is still returned; calls fail with ErrNoCredential so
// the title generator can take its local fallback path.
func NewClient(cfg config.LLMConfig) (*Client, error) {
	c := &Client{cfg: cfg, sessions: NewSessionCache()}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return c, nil
	}
	m, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("llm: client init: %w", err)
	}
	c.model = m
	return c, nil
}

// Sessions exposes the in-process history cache keyed by conversation ID.
func (c *Client) Sessions() *SessionCache { return c.sessions }

// GenerateResponse implements Gateway.
func (c *Client) GenerateResponse(ctx context.Context, systemPrompt string, history []Turn) (*Reply, error) {
	tr := otel.Tracer("llm/Client")
	ctx, span := tr.Start(ctx, "GenerateResponse",
		trace.WithAttributes(
			attribute.String("llm.model", c.cfg.Model),
			attribute.Int("llm.history_len", len(history)),
		),
	)
	defer span.End()

	if c.model == nil {
		return nil, ErrNoCredential
	}

	msgs := make([]llms.MessageContent, 0, len(history)+1)
	if systemPrompt = strings.TrimSpace(systemPrompt); systemPrompt != "" {
		msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	}
	for _, t := range history {
		msgs = append(msgs, llms.TextParts(chatType(t.Role), renderTurn(t)))
	}

	resp, err := c.model.GenerateContent(ctx, msgs,
		llms.WithMaxTokens(c.cfg.MaxTokens),
		llms.WithTemperature(c.cfg.Temperature),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return nil, ErrEmptyResponse
	}
	choice := resp.Choices[0]

	tokens := usageTokens(choice.GenerationInfo)
	if tokens == 0 {
		// Provider did not report usage; estimate from the texts we have.
		tokens = EstimateTokens(c.cfg.Model, choice.Content)
		for _, m := range history {
			tokens += EstimateTokens(c.cfg.Model, m.Content)
		}
	}

	return &Reply{
		Content:    choice.Content,
		Model:      c.cfg.Model,
		TokensUsed: tokens,
	}, nil
}

// Complete implements Gateway.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	tr := otel.Tracer("llm/Client")
	ctx, span := tr.Start(ctx, "Complete",
		trace.WithAttributes(attribute.String("llm.model", c.cfg.Model)),
	)
	defer span.End()

	if c.model == nil {
		return "", ErrNoCredential
	}
	out, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt,
		llms.WithMaxTokens(c.cfg.MaxTokens),
		llms.WithTemperature(c.cfg.Temperature),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if strings.TrimSpace(out) == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

// CompleteTitle runs a one-shot prompt on the cheaper title model when one
// is configured, falling back to the default model. TitleGenerator prefers
// this over Complete when the gateway provides it.
func (c *Client) CompleteTitle(ctx context.Context, prompt string) (string, error) {
	model := strings.TrimSpace(c.cfg.TitleModel)
	if model == "" {
		model = c.cfg.Model
	}

	tr := otel.Tracer("llm/Client")
	ctx, span := tr.Start(ctx, "CompleteTitle",
		trace.WithAttributes(attribute.String("llm.model", model)),
	)
	defer span.End()

	if c.model == nil {
		return "", ErrNoCredential
	}
	out, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt,
		llms.WithModel(model),
		llms.WithMaxTokens(c.cfg.MaxTokens),
		llms.WithTemperature(c.cfg.Temperature),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if strings.TrimSpace(out) == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

// chatType maps the stored role to the provider message type. Unknown roles
// degrade to human turns rather than failing the whole exchange.
func chatType(role string) llms.ChatMessageType {
	switch role {
	case domain.MessageRoleAssistant:
		return llms.ChatMessageTypeAI
	case domain.MessageRoleUser:
		return llms.ChatMessageTypeHuman
	default:
		return llms.ChatMessageTypeHuman
	}
}

// renderTurn appends a textual manifest of attachment names/types to the
// turn's content. Binary content never reaches the completion endpoint.
func renderTurn(t Turn) string {
	if len(t.Files) == 0 {
		return t.Content
	}
	var b strings.Builder
	b.WriteString(t.Content)
	b.WriteString("\n\n[Fichiers joints : ")
	for i, f := range t.Files {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name)
		if f.Type != "" {
			b.WriteString(" (")
			b.WriteString(f.Type)
			b.WriteString(")")
		}
	}
	b.WriteString("]")
	return b.String()
}

// usageTokens extracts total token usage from provider generation info.
func usageTokens(info map[string]any) int {
	if info == nil {
		return 0
	}
	if v, ok := info["TotalTokens"].(int); ok && v > 0 {
		return v
	}
	total := 0
	if v, ok := info["PromptTokens"].(int); ok {
		total += v
	}
	if v, ok := info["CompletionTokens"].(int); ok {
		total += v
	}
	return total
}

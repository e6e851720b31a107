// Package llm builds the chat model used by every command.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/smallnest/agentcases/internal/config"
	"github.com/smallnest/agentcases/log"
)

// New creates an OpenAI-compatible model from cfg, wrapped with retries
// when cfg.MaxRetries is positive and with cfg.Temperature as the default
// temperature.
func New(cfg config.LLMConfig) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithToken(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.EmbeddingModel != "" {
		opts = append(opts, openai.WithEmbeddingModel(cfg.EmbeddingModel))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}

	return wrap(model, cfg), nil
}

// wrap applies the configured temperature to every call, zero included;
// config.New defaults it to 0.7.
func wrap(model llms.Model, cfg config.LLMConfig) llms.Model {
	m := WithDefaults(model, llms.WithTemperature(cfg.Temperature))
	if cfg.MaxRetries > 0 {
		m = WithRetry(m, cfg.MaxRetries, time.Second)
	}
	return m
}

// Complete sends a single user prompt and returns the trimmed answer.
func Complete(ctx context.Context, model llms.Model, prompt string, options ...llms.CallOption) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, model, prompt, options...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Chat sends a system and a user message.
func Chat(ctx context.Context, model llms.Model, system, prompt string, options ...llms.CallOption) (string, error) {
	msgs := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	resp, err := model.GenerateContent(ctx, msgs, options...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

type retrying struct {
	llms.Model
	retries int
	delay   time.Duration
}

// WithRetry retries failed GenerateContent calls with linear backoff.
func WithRetry(model llms.Model, retries int, delay time.Duration) llms.Model {
	return &retrying{Model: model, retries: retries, delay: delay}
}

func (r *retrying) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= r.retries; attempt++ {
		if attempt > 0 {
			log.Warn("model call failed (attempt %d/%d): %v", attempt, r.retries+1, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * r.delay):
			}
		}
		resp, err := r.Model.GenerateContent(ctx, messages, options...)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("model call failed after %d attempts: %w", r.retries+1, lastErr)
}

func (r *retrying) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, r, prompt, options...)
}

type defaults struct {
	llms.Model
	options []llms.CallOption
}

// WithDefaults prepends options to every call; per-call options still win.
func WithDefaults(model llms.Model, options ...llms.CallOption) llms.Model {
	return &defaults{Model: model, options: options}
}

func (d *defaults) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	return d.Model.GenerateContent(ctx, messages, append(append([]llms.CallOption(nil), d.options...), options...)...)
}

func (d *defaults) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, d, prompt, options...)
}

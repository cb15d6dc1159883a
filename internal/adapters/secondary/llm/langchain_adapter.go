package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/vibin/research-pipeline/config"
	"github.com/vibin/research-pipeline/internal/logger"
)

// LangChainAdapter implements the LLMPort interface over langchaingo,
// supporting Ollama and OpenAI backends
type LangChainAdapter struct {
	model  llms.Model
	config *config.LLMConfig
	logger logger.Logger
}

// NewLangChainAdapter creates a new LangChainAdapter for the configured
// provider
func NewLangChainAdapter(cfg *config.LLMConfig, log logger.Logger) (*LangChainAdapter, error) {
	log.Info("Initializing LLM adapter", "provider", cfg.Provider, "model", cfg.Model)

	var model llms.Model
	var err error

	switch cfg.Provider {
	case "ollama", "":
		model, err = ollama.New(
			ollama.WithServerURL(cfg.Endpoint),
			ollama.WithModel(cfg.Model),
		)
	case "openai":
		opts := []openai.Option{
			openai.WithToken(cfg.APIKey),
			openai.WithModel(cfg.Model),
		}
		if cfg.Endpoint != "" {
			opts = append(opts, openai.WithBaseURL(cfg.Endpoint))
		}
		model, err = openai.New(opts...)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
	if err != nil {
		log.Error("Failed to initialize LLM client", "provider", cfg.Provider, "error", err)
		return nil, err
	}

	return &LangChainAdapter{
		model:  model,
		config: cfg,
		logger: log,
	}, nil
}

// Generate produces text for a single prompt and reports token usage
func (a *LangChainAdapter) Generate(ctx context.Context, prompt string) (string, int, error) {
	a.logger.Info("Generating LLM response", "model", a.config.Model, "prompt_length", len(prompt))

	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(a.config.TimeoutSeconds)*time.Second)
	defer cancel()

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	opts := []llms.CallOption{
		llms.WithMaxTokens(a.config.MaxTokens),
		llms.WithTemperature(a.config.Temperature),
	}

	resp, err := a.model.GenerateContent(timeoutCtx, messages, opts...)
	if err != nil {
		a.logger.Error("LLM generation failed", "error", err)
		return "", 0, err
	}
	if len(resp.Choices) == 0 {
		return "", 0, fmt.Errorf("LLM returned no choices")
	}

	choice := resp.Choices[0]
	content := strings.TrimSpace(choice.Content)
	tokens := tokensUsed(choice.GenerationInfo)

	a.logger.Info("LLM generation completed", "response_length", len(content), "tokens_used", tokens)
	return content, tokens, nil
}

// ModelName returns the configured model identifier
func (a *LangChainAdapter) ModelName() string {
	return a.config.Model
}

// tokensUsed extracts the token count from the backend's generation info.
// Backends report usage under different keys and numeric types.
func tokensUsed(info map[string]any) int {
	if total := intValue(info, "TotalTokens"); total > 0 {
		return total
	}
	return intValue(info, "PromptTokens") + intValue(info, "CompletionTokens")
}

func intValue(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

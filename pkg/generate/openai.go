package generate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	osdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"

	"hugbridge/pkg/config"
	"hugbridge/pkg/registry"
)

// openAIClient serves text models behind an OpenAI-compatible Responses API.
// For these catalog entries the descriptor endpoint carries the model
// identifier; the base URL comes from inference.openai config.
type openAIClient struct {
	client osdk.Client
	log    *slog.Logger
}

func newOpenAIClient(cfg config.OpenAIConfig, timeout time.Duration, log *slog.Logger) (*openAIClient, error) {
	apiKey := resolveAPIKey(cfg)
	if apiKey == "" {
		return nil, errors.New("inference.openai.api_key_env is required or OPENAI_API_KEY must be set")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}

	return &openAIClient{
		client: osdk.NewClient(opts...),
		log:    log.With("component", "generate.openai"),
	}, nil
}

func (c *openAIClient) generate(ctx context.Context, descriptor registry.Descriptor, prompt string) (Artifact, error) {
	response, err := c.client.Responses.New(ctx, responses.ResponseNewParams{
		Model: descriptor.Endpoint,
		Input: responses.ResponseNewParamsInputUnion{OfString: osdk.String(prompt)},
	})
	if err != nil {
		return Artifact{}, mapOpenAIError(err)
	}

	text := strings.TrimSpace(response.OutputText())
	if text == "" {
		return Artifact{}, NewError(ReasonNoCandidates, "response has no output text")
	}

	return Artifact{Output: registry.OutputText, Text: text}, nil
}

func mapOpenAIError(err error) error {
	var apiErr *osdk.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable:
			return NewError(ReasonOverloaded, err.Error())
		default:
			return NewError(ReasonUnavailable, err.Error())
		}
	}

	return NewError(ReasonUnavailable, err.Error())
}

func resolveAPIKey(cfg config.OpenAIConfig) string {
	if apiKeyEnv := strings.TrimSpace(cfg.APIKeyEnv); apiKeyEnv != "" {
		if apiKey := strings.TrimSpace(os.Getenv(apiKeyEnv)); apiKey != "" {
			return apiKey
		}
	}

	return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
}

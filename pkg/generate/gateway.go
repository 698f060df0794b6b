package generate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hugbridge/pkg/config"
	"hugbridge/pkg/registry"
)

// Artifact is the normalized output of one generation call. Image artifacts
// reference a temporary file owned by the caller, which must remove it once
// the send attempt finishes.
type Artifact struct {
	Output    registry.Output
	Text      string
	ImagePath string
}

// Generator performs one blocking remote generation call.
type Generator interface {
	Generate(ctx context.Context, modelKey string, prompt string) (Artifact, error)
}

// Gateway resolves a model key to its descriptor and dispatches to the
// backend client for the descriptor's provider. It never retries; retry
// policy, if any, belongs to the caller.
type Gateway struct {
	registry    *registry.Registry
	huggingFace *huggingFaceClient
	openAI      *openAIClient
	log         *slog.Logger
}

// NewGateway wires backend clients for every provider the catalog references.
func NewGateway(cfg config.InferenceConfig, reg *registry.Registry, log *slog.Logger) (*Gateway, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "generate.gateway")

	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second

	gateway := &Gateway{
		registry:    reg,
		huggingFace: newHuggingFaceClient(cfg.HuggingFaceToken, timeout, log),
		log:         log,
	}

	if catalogUsesProvider(reg, registry.ProviderOpenAI) {
		openAI, err := newOpenAIClient(cfg.OpenAI, timeout, log)
		if err != nil {
			return nil, fmt.Errorf("configure openai backend: %w", err)
		}
		gateway.openAI = openAI
	}

	return gateway, nil
}

// Generate resolves the model and performs the remote call, normalizing the
// response into an Artifact or a categorized error.
func (g *Gateway) Generate(ctx context.Context, modelKey string, prompt string) (Artifact, error) {
	descriptor, err := g.registry.Lookup(modelKey)
	if err != nil {
		return Artifact{}, NewError(ReasonUnknownModel, err.Error())
	}

	startedAt := time.Now()
	g.log.Debug("Generation started", "model", descriptor.Key, "output", string(descriptor.Output), "prompt_length", len(prompt))

	var artifact Artifact
	switch descriptor.Provider {
	case registry.ProviderOpenAI:
		artifact, err = g.openAI.generate(ctx, descriptor, prompt)
	default:
		artifact, err = g.huggingFace.generate(ctx, descriptor, prompt)
	}

	if err != nil {
		g.log.Debug("Generation failed", "model", descriptor.Key, "duration_ms", time.Since(startedAt).Milliseconds(), "reason", ReasonFromError(err), "error", err)
		return Artifact{}, err
	}

	g.log.Debug("Generation completed", "model", descriptor.Key, "duration_ms", time.Since(startedAt).Milliseconds())
	return artifact, nil
}

func catalogUsesProvider(reg *registry.Registry, provider registry.Provider) bool {
	for _, key := range reg.Keys() {
		descriptor, err := reg.Lookup(key)
		if err != nil {
			continue
		}
		if descriptor.Provider == provider {
			return true
		}
	}

	return false
}

package registry

import (
	"errors"
	"fmt"
	"strings"

	"hugbridge/pkg/config"
)

// Output tells the gateway how to interpret a backend's response.
type Output string

const (
	OutputText  Output = "text"
	OutputImage Output = "image"
)

// Provider selects which client the gateway uses for the remote call.
type Provider string

const (
	ProviderHuggingFace Provider = "huggingface"
	ProviderOpenAI      Provider = "openai"
)

// ErrNotFound is returned by Lookup for keys absent from the catalog.
var ErrNotFound = errors.New("model not found")

// Descriptor describes one generation backend. Immutable after registry
// construction; lifetime is the process.
type Descriptor struct {
	Key         string
	DisplayName string
	Endpoint    string
	Output      Output
	Provider    Provider
	Parameters  map[string]any
}

// Registry is the static model catalog. Read-only after New; iteration order
// of Keys equals registration order so selection menus render
// deterministically.
type Registry struct {
	keys    []string
	entries map[string]Descriptor
}

const defaultImageNegativePrompt = "blurry, low quality, watermark"

// defaults mirrors the catalog the bot shipped with before config-file
// support existed.
func defaults() []Descriptor {
	imageParams := map[string]any{
		"negative_prompt":     defaultImageNegativePrompt,
		"num_inference_steps": 25,
		"guidance_scale":      7.0,
	}

	return []Descriptor{
		{Key: "mistral-7b-instruct", DisplayName: "Mistral-7B-Instruct-v0.3", Endpoint: "https://api-inference.huggingface.co/models/mistralai/Mistral-7B-Instruct-v0.3", Output: OutputText, Provider: ProviderHuggingFace},
		{Key: "llama-3-8b", DisplayName: "Meta-Llama-3-8B", Endpoint: "https://api-inference.huggingface.co/models/meta-llama/Meta-Llama-3-8B", Output: OutputText, Provider: ProviderHuggingFace},
		{Key: "sdxl-flash", DisplayName: "SDXL-Flash", Endpoint: "https://api-inference.huggingface.co/models/sd-community/sdxl-flash", Output: OutputImage, Provider: ProviderHuggingFace, Parameters: imageParams},
		{Key: "fluently-xl-lightning", DisplayName: "Fluently-XL-v3-Lightning", Endpoint: "https://api-inference.huggingface.co/models/fluently/Fluently-XL-v3-Lightning", Output: OutputImage, Provider: ProviderHuggingFace, Parameters: imageParams},
		{Key: "fluently-anime", DisplayName: "Fluently-anime", Endpoint: "https://api-inference.huggingface.co/models/fluently/Fluently-anime", Output: OutputImage, Provider: ProviderHuggingFace, Parameters: imageParams},
		{Key: "juggernaut-x", DisplayName: "Juggernaut-X-v10", Endpoint: "https://api-inference.huggingface.co/models/RunDiffusion/Juggernaut-X-v10", Output: OutputImage, Provider: ProviderHuggingFace, Parameters: imageParams},
		{Key: "juggernaut-x-hyper", DisplayName: "Juggernaut-X-Hyper", Endpoint: "https://api-inference.huggingface.co/models/RunDiffusion/Juggernaut-X-Hyper", Output: OutputImage, Provider: ProviderHuggingFace, Parameters: imageParams},
		{Key: "realvisxl-v4", DisplayName: "RealVisXL_V4.0", Endpoint: "https://api-inference.huggingface.co/models/SG161222/RealVisXL_V4.0", Output: OutputImage, Provider: ProviderHuggingFace, Parameters: imageParams},
	}
}

// New builds a registry from descriptors, preserving order.
func New(descriptors []Descriptor) (*Registry, error) {
	if len(descriptors) == 0 {
		return nil, errors.New("at least one model is required")
	}

	reg := &Registry{entries: make(map[string]Descriptor, len(descriptors))}
	for _, descriptor := range descriptors {
		key := strings.TrimSpace(descriptor.Key)
		if key == "" {
			return nil, errors.New("model key cannot be empty")
		}
		if _, exists := reg.entries[key]; exists {
			return nil, fmt.Errorf("duplicate model key %q", key)
		}
		if descriptor.Output != OutputText && descriptor.Output != OutputImage {
			return nil, fmt.Errorf("model %q: unsupported output %q", key, descriptor.Output)
		}
		if descriptor.Provider == "" {
			descriptor.Provider = ProviderHuggingFace
		}
		if descriptor.Provider != ProviderHuggingFace && descriptor.Provider != ProviderOpenAI {
			return nil, fmt.Errorf("model %q: unsupported provider %q", key, descriptor.Provider)
		}
		if descriptor.Provider == ProviderOpenAI && descriptor.Output != OutputText {
			return nil, fmt.Errorf("model %q: provider %q supports only text output", key, descriptor.Provider)
		}
		if strings.TrimSpace(descriptor.DisplayName) == "" {
			descriptor.DisplayName = key
		}
		if strings.TrimSpace(descriptor.Endpoint) == "" {
			return nil, fmt.Errorf("model %q: endpoint is required", key)
		}

		descriptor.Key = key
		reg.keys = append(reg.keys, key)
		reg.entries[key] = descriptor
	}

	return reg, nil
}

// FromConfig builds the registry from configured models, falling back to the
// built-in catalog when the config names none.
func FromConfig(models []config.ModelConfig) (*Registry, error) {
	if len(models) == 0 {
		return New(defaults())
	}

	descriptors := make([]Descriptor, 0, len(models))
	for _, model := range models {
		descriptors = append(descriptors, Descriptor{
			Key:         model.Key,
			DisplayName: model.DisplayName,
			Endpoint:    model.Endpoint,
			Output:      Output(strings.ToLower(strings.TrimSpace(model.Output))),
			Provider:    Provider(strings.ToLower(strings.TrimSpace(model.Provider))),
			Parameters:  model.Parameters,
		})
	}

	return New(descriptors)
}

// Lookup returns the descriptor for key or ErrNotFound.
func (r *Registry) Lookup(key string) (Descriptor, error) {
	descriptor, ok := r.entries[strings.TrimSpace(key)]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}

	return descriptor, nil
}

// Keys returns all model keys in registration order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.keys))
	copy(keys, r.keys)
	return keys
}

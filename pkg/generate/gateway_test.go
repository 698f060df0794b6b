package generate

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"hugbridge/pkg/config"
	"hugbridge/pkg/registry"
)

func newTestGateway(t *testing.T, descriptors []registry.Descriptor) *Gateway {
	t.Helper()

	reg, err := registry.New(descriptors)
	if err != nil {
		t.Fatalf("registry.New error: %v", err)
	}

	gateway, err := NewGateway(config.InferenceConfig{HuggingFaceToken: "hf-test", RequestTimeoutSeconds: 5}, reg, nil)
	if err != nil {
		t.Fatalf("NewGateway error: %v", err)
	}

	return gateway
}

func requireReason(t *testing.T, err error, reason string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %s error, got nil", reason)
	}

	var categorized *Error
	if !errors.As(err, &categorized) {
		t.Fatalf("error = %v, want categorized generation error", err)
	}
	if categorized.Reason != reason {
		t.Fatalf("reason = %q, want %q", categorized.Reason, reason)
	}
}

func TestGenerateTextReturnsFirstCandidate(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"generated_text": "hi there"}, {"generated_text": "second"}]`))
	}))
	defer server.Close()

	gateway := newTestGateway(t, []registry.Descriptor{
		{Key: "alpha", Endpoint: server.URL, Output: registry.OutputText},
	})

	artifact, err := gateway.Generate(context.Background(), "alpha", "hello")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if artifact.Text != "hi there" {
		t.Fatalf("text = %q, want %q", artifact.Text, "hi there")
	}
	if artifact.Output != registry.OutputText {
		t.Fatalf("output = %q, want %q", artifact.Output, registry.OutputText)
	}
	if gotAuth != "Bearer hf-test" {
		t.Fatalf("authorization = %q, want bearer token", gotAuth)
	}
}

func TestGenerateTextEmptyCandidateList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	gateway := newTestGateway(t, []registry.Descriptor{
		{Key: "alpha", Endpoint: server.URL, Output: registry.OutputText},
	})

	_, err := gateway.Generate(context.Background(), "alpha", "hello")
	requireReason(t, err, ReasonNoCandidates)
}

func TestGenerateTextMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json at all`))
	}))
	defer server.Close()

	gateway := newTestGateway(t, []registry.Descriptor{
		{Key: "alpha", Endpoint: server.URL, Output: registry.OutputText},
	})

	_, err := gateway.Generate(context.Background(), "alpha", "hello")
	requireReason(t, err, ReasonInvalidResponse)
}

func TestGenerateOverloadedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": "Model is currently loading", "estimated_time": 42.5}`))
	}))
	defer server.Close()

	gateway := newTestGateway(t, []registry.Descriptor{
		{Key: "alpha", Endpoint: server.URL, Output: registry.OutputText},
	})

	_, err := gateway.Generate(context.Background(), "alpha", "hello")
	requireReason(t, err, ReasonOverloaded)
}

func TestGenerateErrorBodyWithEstimatedTimeIsOverloaded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error": "loading", "estimated_time": 12.0}`))
	}))
	defer server.Close()

	gateway := newTestGateway(t, []registry.Descriptor{
		{Key: "alpha", Endpoint: server.URL, Output: registry.OutputText},
	})

	_, err := gateway.Generate(context.Background(), "alpha", "hello")
	requireReason(t, err, ReasonOverloaded)
}

func TestGenerateTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	gateway := newTestGateway(t, []registry.Descriptor{
		{Key: "alpha", Endpoint: server.URL, Output: registry.OutputText},
	})

	_, err := gateway.Generate(context.Background(), "alpha", "hello")
	requireReason(t, err, ReasonUnavailable)
}

func TestGenerateImageWritesTempFile(t *testing.T) {
	imageBytes := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 1, 2, 3}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(imageBytes)
	}))
	defer server.Close()

	gateway := newTestGateway(t, []registry.Descriptor{
		{Key: "beta", Endpoint: server.URL, Output: registry.OutputImage},
	})

	artifact, err := gateway.Generate(context.Background(), "beta", "a cat")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if artifact.Output != registry.OutputImage {
		t.Fatalf("output = %q, want %q", artifact.Output, registry.OutputImage)
	}
	t.Cleanup(func() { _ = os.Remove(artifact.ImagePath) })

	content, err := os.ReadFile(artifact.ImagePath)
	if err != nil {
		t.Fatalf("read artifact file: %v", err)
	}
	if string(content) != string(imageBytes) {
		t.Fatal("artifact file content differs from response bytes")
	}
}

func TestGenerateImageRejectsJSONPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"unexpected": true}`))
	}))
	defer server.Close()

	gateway := newTestGateway(t, []registry.Descriptor{
		{Key: "beta", Endpoint: server.URL, Output: registry.OutputImage},
	})

	_, err := gateway.Generate(context.Background(), "beta", "a cat")
	requireReason(t, err, ReasonInvalidResponse)
}

func TestGenerateUnknownModel(t *testing.T) {
	gateway := newTestGateway(t, []registry.Descriptor{
		{Key: "alpha", Endpoint: "https://example.test", Output: registry.OutputText},
	})

	_, err := gateway.Generate(context.Background(), "missing", "hello")
	requireReason(t, err, ReasonUnknownModel)
}

func TestGenerateSendsModelParameters(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content, _ := io.ReadAll(r.Body)
		gotBody = string(content)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{1})
	}))
	defer server.Close()

	gateway := newTestGateway(t, []registry.Descriptor{
		{Key: "beta", Endpoint: server.URL, Output: registry.OutputImage, Parameters: map[string]any{"guidance_scale": 7.0}},
	})

	artifact, err := gateway.Generate(context.Background(), "beta", "a cat")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	t.Cleanup(func() { _ = os.Remove(artifact.ImagePath) })

	for _, want := range []string{`"inputs":"a cat"`, `"guidance_scale":7`} {
		if !strings.Contains(gotBody, want) {
			t.Fatalf("request body %q does not contain %q", gotBody, want)
		}
	}
}

package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"hugbridge/pkg/registry"
)

const imageFilePattern = "hugbridge-*.png"

// huggingFaceClient posts prompts to the HuggingFace Inference API. Text
// models answer with a JSON candidate array, image models with raw bytes.
type huggingFaceClient struct {
	token      string
	httpClient *http.Client
	log        *slog.Logger
}

type textCandidate struct {
	GeneratedText string `json:"generated_text"`
}

type apiError struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time"`
}

func newHuggingFaceClient(token string, timeout time.Duration, log *slog.Logger) *huggingFaceClient {
	return &huggingFaceClient{
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With("component", "generate.huggingface"),
	}
}

func (c *huggingFaceClient) generate(ctx context.Context, descriptor registry.Descriptor, prompt string) (Artifact, error) {
	payload := map[string]any{"inputs": prompt}
	if len(descriptor.Parameters) > 0 {
		payload["parameters"] = descriptor.Parameters
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Artifact{}, NewError(ReasonInvalidResponse, fmt.Sprintf("encode request: %v", err))
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, descriptor.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Artifact{}, NewError(ReasonUnavailable, fmt.Sprintf("build request: %v", err))
	}
	request.Header.Set("Authorization", "Bearer "+c.token)
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return Artifact{}, NewError(ReasonUnavailable, err.Error())
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusServiceUnavailable || response.StatusCode == http.StatusTooManyRequests {
		return Artifact{}, NewError(ReasonOverloaded, overloadDetail(response.Body))
	}
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return Artifact{}, NewError(ReasonUnavailable, fmt.Sprintf("unexpected status %d", response.StatusCode))
	}

	if descriptor.Output == registry.OutputImage {
		return c.imageArtifact(response)
	}

	return textArtifact(response.Body)
}

// textArtifact interprets the candidate-array shape and returns the first
// candidate's generated text.
func textArtifact(body io.Reader) (Artifact, error) {
	content, err := io.ReadAll(body)
	if err != nil {
		return Artifact{}, NewError(ReasonUnavailable, fmt.Sprintf("read response: %v", err))
	}

	var candidates []textCandidate
	if err := json.Unmarshal(content, &candidates); err != nil {
		// Some error payloads arrive with a 200; classify them before giving
		// up on the shape.
		var remoteErr apiError
		if jsonErr := json.Unmarshal(content, &remoteErr); jsonErr == nil && remoteErr.Error != "" {
			if remoteErr.EstimatedTime > 0 {
				return Artifact{}, NewError(ReasonOverloaded, remoteErr.Error)
			}
			return Artifact{}, NewError(ReasonUnavailable, remoteErr.Error)
		}
		return Artifact{}, NewError(ReasonInvalidResponse, fmt.Sprintf("decode candidates: %v", err))
	}

	if len(candidates) == 0 {
		return Artifact{}, NewError(ReasonNoCandidates, "empty candidate list")
	}

	text := strings.TrimSpace(candidates[0].GeneratedText)
	if text == "" {
		return Artifact{}, NewError(ReasonNoCandidates, "first candidate has no generated text")
	}

	return Artifact{Output: registry.OutputText, Text: text}, nil
}

// imageArtifact persists inline image bytes to a temporary file. The worker
// owns the file for the duration of the send and deletes it afterwards.
func (c *huggingFaceClient) imageArtifact(response *http.Response) (Artifact, error) {
	if contentType := response.Header.Get("Content-Type"); strings.HasPrefix(contentType, "application/json") {
		return Artifact{}, NewError(ReasonInvalidResponse, "expected image bytes, got JSON payload")
	}

	content, err := io.ReadAll(response.Body)
	if err != nil {
		return Artifact{}, NewError(ReasonUnavailable, fmt.Sprintf("read image bytes: %v", err))
	}
	if len(content) == 0 {
		return Artifact{}, NewError(ReasonInvalidResponse, "empty image payload")
	}

	file, err := os.CreateTemp("", imageFilePattern)
	if err != nil {
		return Artifact{}, NewError(ReasonUnavailable, fmt.Sprintf("create temp file: %v", err))
	}

	if _, err := file.Write(content); err != nil {
		file.Close()
		os.Remove(file.Name())
		return Artifact{}, NewError(ReasonUnavailable, fmt.Sprintf("write temp file: %v", err))
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return Artifact{}, NewError(ReasonUnavailable, fmt.Sprintf("close temp file: %v", err))
	}

	return Artifact{Output: registry.OutputImage, ImagePath: file.Name()}, nil
}

func overloadDetail(body io.Reader) string {
	var remoteErr apiError
	if err := json.NewDecoder(body).Decode(&remoteErr); err == nil && remoteErr.Error != "" {
		return remoteErr.Error
	}

	return "service overloaded"
}

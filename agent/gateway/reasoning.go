package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	contractx "github.com/pattadon/shoppilot/agent/contract"
)

const defaultReasonerTimeout = 30 * time.Second

// AzureReasoner implements contract.Reasoner against an Azure OpenAI
// deployment. Every call is bounded by the configured timeout; callers are
// expected to fall back on error, never to retry inside a turn.
type AzureReasoner struct {
	client     *openaisdk.Client
	deployment string
	timeout    time.Duration
}

func NewAzureReasoner(client *openaisdk.Client, deployment string, timeout time.Duration) (*AzureReasoner, error) {
	if client == nil {
		return nil, errors.New("openai client is required")
	}
	deployment = strings.TrimSpace(deployment)
	if deployment == "" {
		return nil, errors.New("deployment name is required")
	}
	if timeout <= 0 {
		timeout = defaultReasonerTimeout
	}
	return &AzureReasoner{
		client:     client,
		deployment: deployment,
		timeout:    timeout,
	}, nil
}

func (r *AzureReasoner) Complete(ctx context.Context, req contractx.CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var userMessage openaisdk.ChatCompletionMessageParamUnion
	if req.ImageB64 != "" {
		parts := []openaisdk.ChatCompletionContentPartUnionParam{
			openaisdk.TextContentPart(req.Prompt),
			openaisdk.ImageContentPart(openaisdk.ChatCompletionContentPartImageImageURLParam{
				URL: "data:image/jpeg;base64," + req.ImageB64,
			}),
		}
		userMessage = openaisdk.UserMessage(parts)
	} else {
		userMessage = openaisdk.UserMessage(req.Prompt)
	}

	params := openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(r.deployment),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(req.System),
			userMessage,
		},
		Temperature: openaisdk.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openaisdk.Int(int64(req.MaxTokens))
	}

	resp, err := r.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: completion has no choices", contractx.ErrModelInvoke)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// CompleteJSON runs one reasoning call and decodes the completion into T.
// Fenced code blocks around the JSON are tolerated and stripped. Any
// transport or decode failure is returned as an error for the calling stage
// to translate into its documented fallback.
func CompleteJSON[T any](ctx context.Context, r contractx.Reasoner, req contractx.CompletionRequest) (T, error) {
	var out T

	raw, err := r.Complete(ctx, req)
	if err != nil {
		return out, err
	}

	cleaned := StripCodeFences(raw)
	if cleaned == "" {
		return out, fmt.Errorf("%w: empty completion", contractx.ErrSchemaViolation)
	}
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return out, fmt.Errorf("%w: %v", contractx.ErrSchemaViolation, err)
	}
	return out, nil
}

// StripCodeFences removes a leading ```lang fence and the trailing ``` so
// fenced model output still parses.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		// drop the language tag line ("json", "sql", ...)
		first := strings.TrimSpace(s[:idx])
		if first == "" || !strings.ContainsAny(first, " \t{[") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// EncodeImage reads an image file and returns its base64 encoding for a
// multimodal completion request.
func EncodeImage(imagePath string) (string, error) {
	raw, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

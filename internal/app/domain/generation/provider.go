package generation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Provider is the single generative model call the gateway depends on.
type Provider interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

var _ Provider = (*GenAIProvider)(nil)

// GenAIProvider calls the Gemini API through the genai SDK.
type GenAIProvider struct {
	client *genai.Client
	logger *zap.Logger
}

func NewGenAIProvider(ctx context.Context, apiKey string, logger *zap.Logger) (*GenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GenAIProvider{client: client, logger: logger}, nil
}

func (p *GenAIProvider) GenerateContent(ctx context.Context, model string, contents []*genai.Content,
	config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	ctx, span := otel.Tracer("GenerationGateway").Start(ctx, "GenAIProvider.GenerateContent", trace.WithAttributes(
		attribute.String("gen_ai.system", "gemini"),
		attribute.String("gen_ai.request.model", model),
		attribute.Int("gen_ai.request.contents", len(contents)),
	))
	defer span.End()

	resp, err := p.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider call failed")
		return nil, err
	}

	if usage := resp.UsageMetadata; usage != nil {
		span.SetAttributes(
			attribute.Int("gen_ai.usage.input_tokens", int(usage.PromptTokenCount)),
			attribute.Int("gen_ai.usage.output_tokens", int(usage.CandidatesTokenCount)),
		)
		p.logger.Debug("Provider usage",
			zap.String("model", model),
			zap.Int32("prompt_tokens", usage.PromptTokenCount),
			zap.Int32("candidate_tokens", usage.CandidatesTokenCount),
			zap.Int32("total_tokens", usage.TotalTokenCount))
	}
	span.SetStatus(codes.Ok, "")
	return resp, nil
}

func firstCandidate(resp *genai.GenerateContentResponse) *genai.Candidate {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	return resp.Candidates[0]
}

func candidateParts(resp *genai.GenerateContentResponse) []*genai.Part {
	c := firstCandidate(resp)
	if c == nil || c.Content == nil {
		return nil
	}
	return c.Content.Parts
}

// responseText concatenates the non-thought text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	var text string
	for _, part := range candidateParts(resp) {
		if part == nil || part.Thought {
			continue
		}
		text += part.Text
	}
	return text
}

func responseFunctionCalls(resp *genai.GenerateContentResponse) []*genai.FunctionCall {
	var calls []*genai.FunctionCall
	for _, part := range candidateParts(resp) {
		if part != nil && part.FunctionCall != nil {
			calls = append(calls, part.FunctionCall)
		}
	}
	return calls
}

func systemInstruction(text string) *genai.Content {
	return &genai.Content{Parts: []*genai.Part{{Text: text}}}
}

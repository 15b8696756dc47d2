package generation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/FACorreiaa/kanso/internal/app/governance"
	"github.com/FACorreiaa/kanso/internal/pkg/config"
	"github.com/FACorreiaa/kanso/internal/pkg/ledger"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) GenerateContent(ctx context.Context, model string, contents []*genai.Content,
	config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	args := m.Called(ctx, model, contents, config)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*genai.GenerateContentResponse), args.Error(1)
}

var testGemini = config.GeminiConfig{
	TextModel:   "text-model",
	SpeechModel: "speech-model",
	Voice:       "Kore",
}

func newTestGateway(t *testing.T, aiLimit int) (*Gateway, *MockProvider) {
	t.Helper()
	governor := governance.NewGovernor(context.Background(), config.RateLimitConfig{
		AILimit: aiLimit, AIWindow: time.Minute, AuthLimit: 5, AuthWindow: 5 * time.Minute,
	}, ledger.NewMemoryStore(), zap.NewNop())
	provider := new(MockProvider)
	gw := NewGateway(provider, governor, testGemini, zap.NewNop(),
		WithIDGenerator(func() string { return "itin-1" }),
		WithClock(func() time.Time { return time.UnixMilli(1_700_000_000_000) }))
	return gw, provider
}

func responseWithParts(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: parts},
		}},
	}
}

func textResponse(text string) *genai.GenerateContentResponse {
	return responseWithParts(&genai.Part{Text: text})
}

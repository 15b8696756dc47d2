package generation

import (
	"context"
	"encoding/base64"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/FACorreiaa/kanso/internal/app/models"
)

// SynthesizeSpeech reads text aloud with the configured prebuilt voice and
// returns the audio base64 encoded. There is no fallback audio.
func (g *Gateway) SynthesizeSpeech(ctx context.Context, text string) (string, error) {
	if err := g.admit(ctx, opSpeech); err != nil {
		return "", err
	}

	safe := g.gate.Sanitize(text)
	if safe == "" {
		return "", models.NewValidationError("text", "is required")
	}

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityAudio)},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: g.voice},
			},
		},
	}
	resp, elapsed, err := g.generate(ctx, opSpeech, g.speechModel, genai.Text(safe), cfg)
	if err != nil {
		g.record(ctx, opSpeech, outcomeError, elapsed)
		return "", &models.GenerationError{Operation: opSpeech, Kind: models.ProviderError, Err: err}
	}

	for _, part := range candidateParts(resp) {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			g.record(ctx, opSpeech, outcomeSuccess, elapsed)
			g.logger.Debug("Speech synthesized",
				zap.String("mime_type", part.InlineData.MIMEType),
				zap.Int("bytes", len(part.InlineData.Data)))
			return base64.StdEncoding.EncodeToString(part.InlineData.Data), nil
		}
	}

	g.record(ctx, opSpeech, outcomeError, elapsed)
	return "", &models.GenerationError{Operation: opSpeech, Kind: models.ParseError, Err: errors.New("no audio data")}
}

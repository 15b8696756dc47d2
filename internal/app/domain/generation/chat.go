package generation

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/FACorreiaa/kanso/internal/app/models"
)

const (
	chatApology     = "I am having trouble connecting right now."
	chatDefaultText = "Processed."
)

// Chat runs one assistant turn. History is replayed as-is; the new message is
// sanitized. With an itinerary the model may answer with update_day_activities
// calls, returned typed for the dispatcher. Only rate limiting is reported as
// an error; a provider failure yields a fixed apology.
func (g *Gateway) Chat(ctx context.Context, history []models.ChatTurn, message string,
	itinerary *models.Itinerary) (*models.ChatResponse, error) {
	l := g.logger.With(zap.String("method", "Chat"))

	if err := g.admit(ctx, opChat); err != nil {
		return nil, err
	}

	safe := g.gate.Sanitize(message)
	if safe == "" {
		return &models.ChatResponse{}, nil
	}

	tools := []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	var itineraryJSON []byte
	if itinerary != nil {
		var err error
		itineraryJSON, err = json.Marshal(itinerary)
		if err != nil {
			l.Error("Failed to encode itinerary context", zap.Error(err))
			return &models.ChatResponse{Text: chatApology}, nil
		}
		tools = append(tools, &genai.Tool{FunctionDeclarations: []*genai.FunctionDeclaration{updateDayDeclaration()}})
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction(chatInstruction(itineraryJSON)),
		Tools:             tools,
	}

	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		if turn.Text == "" {
			continue
		}
		var role genai.Role = genai.RoleUser
		if turn.Role == models.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}
	contents = append(contents, genai.NewContentFromText(safe, genai.RoleUser))

	resp, elapsed, err := g.generate(ctx, opChat, g.textModel, contents, cfg)
	if err != nil {
		g.record(ctx, opChat, outcomeFallback, elapsed)
		return &models.ChatResponse{Text: chatApology}, nil
	}

	out := &models.ChatResponse{
		Text:      responseText(resp),
		ToolCalls: g.toolCalls(l, responseFunctionCalls(resp), itinerary != nil),
		Sources:   groundingSources(resp),
	}
	if out.Text == "" {
		out.Text = chatDefaultText
	}
	g.record(ctx, opChat, outcomeSuccess, elapsed)
	l.Debug("Chat turn completed",
		zap.Int("history", len(history)),
		zap.Int("tool_calls", len(out.ToolCalls)),
		zap.Int("sources", len(out.Sources)))
	return out, nil
}

// toolCalls converts provider function calls into the closed ToolCall set.
// Unknown names, malformed arguments and calls made without an itinerary
// context are dropped.
func (g *Gateway) toolCalls(l *zap.Logger, calls []*genai.FunctionCall, allowed bool) []models.ToolCall {
	var out []models.ToolCall
	for _, fc := range calls {
		if !allowed {
			l.Warn("Ignoring tool call without itinerary context", zap.String("tool", fc.Name))
			continue
		}
		switch fc.Name {
		case models.ToolUpdateDayActivities:
			call, err := decodeUpdateDay(fc.Args)
			if err != nil {
				l.Warn("Malformed tool call arguments", zap.String("tool", fc.Name), zap.Error(err))
				continue
			}
			out = append(out, call)
		default:
			l.Warn("Unknown tool call", zap.String("tool", fc.Name))
		}
	}
	return out
}

func decodeUpdateDay(args map[string]any) (models.UpdateDayActivities, error) {
	var call models.UpdateDayActivities
	raw, err := json.Marshal(args)
	if err != nil {
		return call, err
	}
	if err := json.Unmarshal(raw, &call); err != nil {
		return call, err
	}
	if call.Activities == nil {
		call.Activities = []models.Activity{}
	}
	return call, nil
}

// groundingSources returns the web citations of the first candidate, skipping
// chunks without both a title and a URI.
func groundingSources(resp *genai.GenerateContentResponse) []models.GroundingSource {
	c := firstCandidate(resp)
	if c == nil || c.GroundingMetadata == nil {
		return nil
	}
	var out []models.GroundingSource
	seen := make(map[string]struct{})
	for _, chunk := range c.GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" || chunk.Web.Title == "" {
			continue
		}
		if _, dup := seen[chunk.Web.URI]; dup {
			continue
		}
		seen[chunk.Web.URI] = struct{}{}
		out = append(out, models.GroundingSource{Title: chunk.Web.Title, URI: chunk.Web.URI})
	}
	return out
}

package advice

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/advisor/internal/common"
	"github.com/bobmcallan/advisor/internal/interfaces"
	"github.com/bobmcallan/advisor/internal/models"
)

// RendererGemini is the name reported when the LLM produced the text.
const RendererGemini = "gemini"

const systemPrompt = `You are an investment assistant for retail brokerage clients.
Explain recommendations clearly and concisely in English.
Keep the tone professional, factual and educational.
Do not guarantee returns or provide personalised financial advice.
Flag stale data when indicated.

Output structure:
1) One-line summary of the client's risk persona.
2) Structural recommendations first (sector concentration, diversification).
3) Tactical recommendations next (top movers, watchlist drops).
4) Data quality notes last.
Each recommendation: short title plus a one-sentence explanation, then an evidence line.
If stale is true, append "(data may be outdated)".

Persona tone: if Conservative, phrase cautiously (for example "consider gradually reducing exposure").
If Aggressive, highlight opportunities. Balanced mixes both.

Completeness rules:
- Include EVERY recommendation item from the JSON payload.
- Do not drop, merge or summarise away any item.
- Preserve the order of items as provided.
- If there are many items, keep bullets concise but include them all.

Formatting rules:
- Use headings for sections (Summary, Recommendations, Data Notes).
- Use one bullet point per recommendation.
- Include a short evidence line per recommendation (stock, sector, % change).`

// promptPayload is the user message sent to the model.
type promptPayload struct {
	Client          promptClient            `json:"client"`
	Recommendations []models.Recommendation `json:"recommendations"`
	Meta            models.EngineMeta       `json:"meta"`
}

type promptClient struct {
	ID                string         `json:"id"`
	Name              string         `json:"name,omitempty"`
	RiskPersona       models.Persona `json:"risk_persona"`
	PersonaConfidence float64        `json:"persona_confidence"`
}

// BuildPrompt returns the system instruction and the JSON user payload.
func BuildPrompt(p *models.Portfolio, out *models.EngineOutput) (string, string, error) {
	payload := promptPayload{
		Client: promptClient{
			ID:                out.ClientID,
			RiskPersona:       out.RiskPersona,
			PersonaConfidence: out.PersonaConfidence,
		},
		Recommendations: out.Recommendations,
		Meta:            out.Meta,
	}
	if p != nil {
		if payload.Client.ID == "" {
			payload.Client.ID = p.ClientID
		}
		payload.Client.Name = p.ClientName
	}
	if payload.Recommendations == nil {
		payload.Recommendations = []models.Recommendation{}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode prompt payload: %w", err)
	}
	return systemPrompt, string(data), nil
}

// LLMRenderer asks Gemini for prose and falls back to the template when the
// call fails, times out or returns nothing.
type LLMRenderer struct {
	client   interfaces.GeminiClient
	fallback TemplateRenderer
	timeout  time.Duration
	logger   *common.Logger
}

// NewLLMRenderer creates a renderer over client. A non-positive timeout
// means the caller's context alone bounds the call.
func NewLLMRenderer(client interfaces.GeminiClient, timeout time.Duration, logger *common.Logger) *LLMRenderer {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &LLMRenderer{client: client, timeout: timeout, logger: logger}
}

// Name returns "gemini".
func (r *LLMRenderer) Name() string { return RendererGemini }

// Render implements interfaces.AdviceRenderer.
func (r *LLMRenderer) Render(ctx context.Context, p *models.Portfolio, out *models.EngineOutput) (*models.Advice, error) {
	if out == nil {
		return nil, fmt.Errorf("%w: engine output is required", models.ErrInvalidInput)
	}

	text, err := r.generate(ctx, p, out)
	if err != nil {
		r.logger.Warn().
			Err(err).
			Str("client_id", out.ClientID).
			Msg("LLM rendering failed, using template")
		return r.fallback.Render(ctx, p, out)
	}

	return &models.Advice{
		ClientID:     out.ClientID,
		AdviceText:   text,
		Renderer:     r.Name(),
		EngineOutput: out,
	}, nil
}

func (r *LLMRenderer) generate(ctx context.Context, p *models.Portfolio, out *models.EngineOutput) (string, error) {
	if r.client == nil {
		return "", fmt.Errorf("no LLM client configured")
	}
	system, prompt, err := BuildPrompt(p, out)
	if err != nil {
		return "", err
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	text, err := r.client.GenerateWithSystem(ctx, system, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty response")
	}
	return strings.TrimSpace(text), nil
}

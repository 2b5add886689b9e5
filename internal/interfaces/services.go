package interfaces

import (
	"context"

	"github.com/bobmcallan/advisor/internal/models"
)

// RecommendationService produces recommendations and advice for a client
type RecommendationService interface {
	// Recommend runs the engine for the requested client
	Recommend(ctx context.Context, req models.RecommendRequest) (*models.EngineOutput, error)

	// Advise runs the engine and renders the result as prose
	Advise(ctx context.Context, req models.RecommendRequest) (*models.Advice, error)

	// Clients lists the client ids in the configured portfolio file
	Clients(ctx context.Context) ([]string, error)

	// NormalizeSector maps a free-text label onto a sector bucket
	NormalizeSector(label string) string
}

// AdviceRenderer turns engine output into client-facing prose
type AdviceRenderer interface {
	// Name identifies the renderer in responses and metrics
	Name() string

	// Render produces advice text for the portfolio's engine output
	Render(ctx context.Context, p *models.Portfolio, out *models.EngineOutput) (*models.Advice, error)
}

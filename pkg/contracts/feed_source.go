package contracts

import (
	"context"

	"github.com/XavierBriggs/Augur/pkg/models"
)

// FeedSource retrieves raw odds/splits payloads from upstream
type FeedSource interface {
	// FetchPayload retrieves the nested book -> sport -> date payload
	FetchPayload(ctx context.Context) (*models.Payload, error)

	// FetchTabular retrieves the flat positional export
	FetchTabular(ctx context.Context) (*models.TabularPayload, error)
}

// InsightProvider produces betting commentary for one market of one game
type InsightProvider interface {
	Analyze(ctx context.Context, req models.InsightRequest) (models.Insight, error)
}

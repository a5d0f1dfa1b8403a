package extractors

import (
	"context"

	"github.com/justchokingaround/gscrape/pkg/types"
)

// Extractor is the interface that all extractors must implement
type Extractor interface {
	Extract(ctx context.Context, url string) (*types.VideoSources, error)
}

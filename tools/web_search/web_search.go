package web_search

import (
	"context"
	"errors"

	"github.com/quarrylabs/quarry/tools/web_search/brave"
	"github.com/quarrylabs/quarry/tools/web_search/duckduckgo"
	"github.com/quarrylabs/quarry/tools/web_search/models"
	"github.com/quarrylabs/quarry/tools/web_search/serper"
)

// WebSearcher turns a query string into up to k raw hits. Implementations must
// tolerate empty result sets and must not treat "no results" as an error.
type WebSearcher interface {
	Discover(ctx context.Context, q string, k int) ([]models.Result, error)
}

type Provider string

const (
	DuckDuckGoProvider Provider = "duckduckgo"
	BraveProvider      Provider = "brave"
	SerperProvider     Provider = "serper"
)

var ErrUnsupportedProvider = errors.New("unsupported search provider")

func NewWebSearcher(provider Provider, apiKey string) (WebSearcher, error) {
	switch provider {
	case DuckDuckGoProvider:
		return duckduckgo.NewSearch(), nil
	case BraveProvider:
		return brave.Search{ApiKey: apiKey}, nil
	case SerperProvider:
		return serper.Search{ApiKey: apiKey}, nil
	default:
		return nil, ErrUnsupportedProvider
	}
}

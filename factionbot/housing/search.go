package housing

import (
	"context"

	"github.com/factionrealms/factionbot/factionbot/database/models"
	"github.com/sahilm/fuzzy"
)

// SearchNeighborhoods fuzzy-matches neighborhoods by name, best match
// first. An empty query returns every neighborhood.
func (s *Service) SearchNeighborhoods(ctx context.Context, query string) ([]*models.Neighborhood, error) {
	neighborhoods, err := s.plots.Neighborhoods(ctx)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return neighborhoods, nil
	}

	names := make([]string, len(neighborhoods))
	for i, nb := range neighborhoods {
		names[i] = nb.Name
	}

	matches := fuzzy.Find(query, names)
	out := make([]*models.Neighborhood, 0, len(matches))
	for _, m := range matches {
		out = append(out, neighborhoods[m.Index])
	}
	return out, nil
}

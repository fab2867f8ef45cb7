// Package shows answers the episode queries of the podcast site on top of the
// cached episode library.
package shows

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"shownotes/internal/models"
)

// sparseWindow is how many episode numbers below the current one keep their HTML.
const sparseWindow = 3

// EpisodeLoader provides the full episode collection ordered by descending number.
type EpisodeLoader interface {
	Load(ctx context.Context) ([]models.Episode, error)
}

// Service implements the list, lookup, sparse and sick picks queries.
type Service struct {
	lib EpisodeLoader
	now func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now when deciding which episodes are published.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a query service that owns lib for its lifetime.
func NewService(lib EpisodeLoader, opts ...Option) *Service {
	s := &Service{lib: lib, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListPublished returns the episodes dated at or before now, newest number first.
func (s *Service) ListPublished(ctx context.Context) ([]models.Episode, error) {
	episodes, err := s.lib.Load(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	published := make([]models.Episode, 0, len(episodes))
	for _, ep := range episodes {
		if ep.Date.After(now) {
			continue
		}
		published = append(published, ep)
	}
	return published, nil
}

// Get looks an episode up by its padded display number ("007") or its plain
// number ("7"). Scheduled episodes are included. The bool is false when no
// episode matches.
func (s *Service) Get(ctx context.Context, id string) (models.Episode, bool, error) {
	episodes, err := s.lib.Load(ctx)
	if err != nil {
		return models.Episode{}, false, err
	}

	id = strings.TrimSpace(id)
	for _, ep := range episodes {
		if ep.DisplayNumber == id {
			return ep, true, nil
		}
	}

	number, err := strconv.Atoi(id)
	if err != nil {
		return models.Episode{}, false, nil
	}
	for _, ep := range episodes {
		if ep.Number == number {
			return ep, true, nil
		}
	}
	return models.Episode{}, false, nil
}

// Sparse returns the published list with HTML kept only for the current
// episode, the three numbers below it, and anything newer. The current episode
// is the one numbered id, or the most recent published episode when id is
// empty or unknown.
func (s *Service) Sparse(ctx context.Context, id string) (models.Sparse, error) {
	published, err := s.ListPublished(ctx)
	if err != nil {
		return models.Sparse{}, err
	}
	if len(published) == 0 {
		return models.Sparse{}, fmt.Errorf("no published episodes: %w", models.ErrNotFound)
	}

	current := published[0]
	if id = strings.TrimSpace(id); id != "" {
		if number, err := strconv.Atoi(id); err == nil {
			for _, ep := range published {
				if ep.Number == number {
					current = ep
					break
				}
			}
		}
	}

	floor := current.Number - sparseWindow
	if floor < 0 {
		floor = 0
	}

	sparse := make([]models.Episode, len(published))
	for i, ep := range published {
		if ep.Number >= floor {
			sparse[i] = ep
			continue
		}
		sparse[i] = ep.WithoutHTML()
	}

	return models.Sparse{Episodes: sparse, Current: current}, nil
}

// SickPicks collects the sick picks section of every published episode that
// has one, relabelled with the episode number.
func (s *Service) SickPicks(ctx context.Context) ([]models.SickPick, error) {
	published, err := s.ListPublished(ctx)
	if err != nil {
		return nil, err
	}

	picks := make([]models.SickPick, 0, len(published))
	for _, ep := range published {
		if ep.Picks == nil {
			continue
		}
		picks = append(picks, models.SickPick{
			ID:   ep.Number,
			HTML: fmt.Sprintf("<h2>Episode Number: %d - Sick Picks</h2>\n%s", ep.Number, ep.Picks.BodyHTML),
		})
	}
	return picks, nil
}

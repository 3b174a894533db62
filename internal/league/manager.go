// Package league serves competition tables: it loads standing rows, ranks
// them with the configured tie-breakers and caches the ranked result.
package league

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/footixhq/footix-manager/internal/cache"
	"github.com/footixhq/footix-manager/internal/event"
	"github.com/footixhq/footix-manager/internal/standings"
	"github.com/footixhq/footix-manager/internal/store"
)

// Manager ranks and caches competition tables.
type Manager struct {
	rows   store.StandingRepository
	events event.Store
	cache  *cache.Cache
	logger *slog.Logger
	tracer trace.Tracer
}

// NewManager returns a league Manager. cache may be nil to bypass caching.
func NewManager(rows store.StandingRepository, events event.Store, c *cache.Cache, logger *slog.Logger, tp trace.TracerProvider) *Manager {
	return &Manager{
		rows:   rows,
		events: events,
		cache:  c,
		logger: logger,
		tracer: tp.Tracer("github.com/footixhq/footix-manager/internal/league"),
	}
}

func cacheKey(competitionID string, criteria []standings.Criterion) string {
	parts := make([]string, len(criteria))
	for i, c := range criteria {
		parts[i] = string(c)
	}
	return "footix:standings:" + competitionID + ":" + strings.Join(parts, ",")
}

// Table returns the ranked table for a competition. Ranked results are
// cached per criteria order; the row repository stays the source of truth.
func (m *Manager) Table(ctx context.Context, competitionID string, criteria []standings.Criterion) ([]standings.Row, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.Table",
		trace.WithAttributes(attribute.String("competition_id", competitionID)),
	)
	defer span.End()

	key := cacheKey(competitionID, criteria)
	if m.cache != nil {
		if raw, ok, err := m.cache.Get(ctx, key); err == nil && ok {
			var rows []standings.Row
			if err := json.Unmarshal(raw, &rows); err == nil {
				return rows, nil
			}
		} else if err != nil {
			m.logger.WarnContext(ctx, "standings cache read failed", slog.Any("error", err))
		}
	}

	rows, err := m.rows.ListByCompetition(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("loading standings: %w", err)
	}
	ranked := standings.Rank(rows, criteria)

	if m.cache != nil {
		if raw, err := json.Marshal(ranked); err == nil {
			if err := m.cache.Set(ctx, key, raw, 0); err != nil {
				m.logger.WarnContext(ctx, "standings cache write failed", slog.Any("error", err))
			}
		}
	}
	return ranked, nil
}

// RecordResult folds a match result into a club's counters and drops every
// cached ranking for the competition.
func (m *Manager) RecordResult(ctx context.Context, competitionID, clubID string, points, goalsFor, goalsAgainst int) error {
	ctx, span := m.tracer.Start(ctx, "Manager.RecordResult",
		trace.WithAttributes(
			attribute.String("competition_id", competitionID),
			attribute.String("club_id", clubID),
		),
	)
	defer span.End()

	if err := m.rows.ApplyResult(ctx, competitionID, clubID, points, goalsFor, goalsAgainst); err != nil {
		return fmt.Errorf("applying result: %w", err)
	}

	data, _ := json.Marshal(event.ResultRecordedData{
		CompetitionID: competitionID,
		ClubID:        clubID,
		Points:        points,
		GoalsFor:      goalsFor,
		GoalsAgainst:  goalsAgainst,
	})
	evt := event.Event{
		AggregateID: competitionID,
		Type:        event.ResultRecorded,
		Data:        data,
	}
	if err := m.events.Append(ctx, evt); err != nil {
		m.logger.ErrorContext(ctx, "failed to append result event", slog.Any("error", err))
	}

	if m.cache != nil {
		if err := m.cache.InvalidatePattern(ctx, "footix:standings:"+competitionID+":*"); err != nil {
			m.logger.WarnContext(ctx, "standings cache invalidation failed", slog.Any("error", err))
		}
	}

	m.logger.InfoContext(ctx, "result recorded",
		slog.String("competition_id", competitionID),
		slog.String("club_id", clubID),
		slog.Int("points", points),
	)
	return nil
}

package store

import (
	"context"
	"fmt"

	"github.com/Priya8975/football-predictions/internal/domain"
	"github.com/jackc/pgx/v5"
)

const insertPredictionSQL = `
	INSERT INTO predictions (
		plan_type, prediction_type, home_team, away_team, league, market_type,
		odds, confidence, kickoff_time, status, result, admin_notes
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	RETURNING id, created_at
`

// InsertPredictions writes the whole batch in one transaction and returns
// the rows with their generated ids.
func (s *PostgresStore) InsertPredictions(ctx context.Context, predictions []domain.Prediction) ([]domain.Prediction, error) {
	inserted := make([]domain.Prediction, len(predictions))
	copy(inserted, predictions)

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, p := range inserted {
			batch.Queue(insertPredictionSQL,
				p.PlanType, p.PredictionType, p.HomeTeam, p.AwayTeam,
				nullIfEmpty(p.League), nullIfEmpty(p.MarketType),
				p.Odds, p.Confidence, p.KickoffTime, p.Status,
				nullIfEmpty(p.Result), nullIfEmpty(p.AdminNotes),
			)
		}

		results := tx.SendBatch(ctx, batch)
		for i := range inserted {
			if err := results.QueryRow().Scan(&inserted[i].ID, &inserted[i].CreatedAt); err != nil {
				results.Close()
				return fmt.Errorf("inserting prediction %d: %w", i, err)
			}
		}
		return results.Close()
	})
	if err != nil {
		return nil, err
	}

	return inserted, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

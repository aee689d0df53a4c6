package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"live-quiz-service/internal/domain"
)

// ResultSink persists completed-session leaderboards in the quiz_results
// table, one row per session with the ranked participants as JSONB.
type ResultSink struct {
	pool *pgxpool.Pool
}

func NewResultSink(pool *pgxpool.Pool) *ResultSink {
	return &ResultSink{pool: pool}
}

func (s *ResultSink) SaveResult(ctx context.Context, result domain.SessionResult) error {
	participants, err := json.Marshal(result.Participants)
	if err != nil {
		return fmt.Errorf("marshal participants: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO quiz_results (quiz_id, host_id, room_code, participants, completed_at)
		 VALUES ($1, $2, $3, $4::jsonb, $5)`,
		result.QuizID, result.HostID, result.RoomCode, string(participants), result.CompletedAt)
	if err != nil {
		return fmt.Errorf("insert quiz result: %w", err)
	}
	return nil
}

package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/voting-system/models"
)

type TransitionRepository interface {
	Create(ctx context.Context, exec SQLExecutor, transition *models.PhaseTransition) error
	ListByElection(ctx context.Context, electionID int) ([]models.PhaseTransition, error)
}

type postgresTransitionRepository struct {
	db *sql.DB
}

func NewPostgresTransitionRepository(db *sql.DB) TransitionRepository {
	return &postgresTransitionRepository{db: db}
}

func (r *postgresTransitionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTransitionRepository) Create(ctx context.Context, exec SQLExecutor, t *models.PhaseTransition) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO phase_transitions (election_id, from_phase, to_phase, actor_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		t.ElectionID, t.FromPhase, t.ToPhase, t.ActorID,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record phase transition: %w", err)
	}
	return nil
}

func (r *postgresTransitionRepository) ListByElection(ctx context.Context, electionID int) ([]models.PhaseTransition, error) {
	query := `
		SELECT id, election_id, from_phase, to_phase, actor_id, created_at
		FROM phase_transitions
		WHERE election_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, electionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transitions := make([]models.PhaseTransition, 0)
	for rows.Next() {
		var t models.PhaseTransition
		if scanErr := rows.Scan(
			&t.ID, &t.ElectionID, &t.FromPhase, &t.ToPhase, &t.ActorID, &t.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		transitions = append(transitions, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return transitions, nil
}

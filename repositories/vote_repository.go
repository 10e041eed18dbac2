package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/voting-system/models"
	"github.com/lib/pq"
)

var (
	ErrVoteNotFound         = errors.New("vote not found")
	ErrVoteDuplicate        = errors.New("vote already exists for this voter and position")
	ErrVoteInvalidPosition  = errors.New("invalid position reference")
	ErrVoteInvalidCandidate = errors.New("invalid candidate reference")
)

// VoteRepository не имеет Update и Delete: бюллетень после записи
// неизменяем, это граница целостности всей системы.
type VoteRepository interface {
	Create(ctx context.Context, vote *models.Vote) error
	ListByPosition(ctx context.Context, positionID int) ([]models.Vote, error)
	CountByPosition(ctx context.Context, positionID int) (int, error)
	Exists(ctx context.Context, voterID, positionID int) (bool, error)
	ExistsByElection(ctx context.Context, electionID int) (bool, error)
	ListPositionIDsVoted(ctx context.Context, voterID, electionID int) ([]int, error)
}

type postgresVoteRepository struct {
	db *sql.DB
}

func NewPostgresVoteRepository(db *sql.DB) VoteRepository {
	return &postgresVoteRepository{db: db}
}

// Create — единственная операция записи. Конкурентные вставки для одной
// пары (voter_id, position_id) разрешает ограничение уникальности в БД:
// ровно одна проходит, остальные получают ErrVoteDuplicate.
func (r *postgresVoteRepository) Create(ctx context.Context, v *models.Vote) error {
	query := `
		INSERT INTO votes (voter_id, election_id, position_id, candidate_ids, receipt)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, cast_at`

	err := r.db.QueryRowContext(ctx, query,
		v.VoterID, v.ElectionID, v.PositionID, pq.Array(v.CandidateIDs), v.Receipt,
	).Scan(&v.ID, &v.CastAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "votes_voter_id_position_id_key" {
					return ErrVoteDuplicate
				}
			case "23503": // foreign_key_violation
				if pqErr.Constraint == "votes_position_id_fkey" {
					return ErrVoteInvalidPosition
				}
			}
		}
		return fmt.Errorf("failed to create vote: %w", err)
	}
	return nil
}

func (r *postgresVoteRepository) ListByPosition(ctx context.Context, positionID int) ([]models.Vote, error) {
	query := `
		SELECT id, voter_id, election_id, position_id, candidate_ids, receipt, cast_at
		FROM votes
		WHERE position_id = $1
		ORDER BY cast_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, positionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	votes := make([]models.Vote, 0)
	for rows.Next() {
		var v models.Vote
		var candidateIDs pq.Int64Array
		if scanErr := rows.Scan(
			&v.ID, &v.VoterID, &v.ElectionID, &v.PositionID, &candidateIDs, &v.Receipt, &v.CastAt,
		); scanErr != nil {
			return nil, scanErr
		}
		v.CandidateIDs = make([]int, len(candidateIDs))
		for i, id := range candidateIDs {
			v.CandidateIDs[i] = int(id)
		}
		votes = append(votes, v)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return votes, nil
}

func (r *postgresVoteRepository) CountByPosition(ctx context.Context, positionID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM votes WHERE position_id = $1`, positionID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return count, nil
}

func (r *postgresVoteRepository) Exists(ctx context.Context, voterID, positionID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM votes WHERE voter_id = $1 AND position_id = $2)`,
		voterID, positionID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check vote existence: %w", err)
	}
	return exists, nil
}

func (r *postgresVoteRepository) ExistsByElection(ctx context.Context, electionID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM votes WHERE election_id = $1)`, electionID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check election votes: %w", err)
	}
	return exists, nil
}

func (r *postgresVoteRepository) ListPositionIDsVoted(ctx context.Context, voterID, electionID int) ([]int, error) {
	query := `
		SELECT position_id FROM votes
		WHERE voter_id = $1 AND election_id = $2
		ORDER BY position_id ASC`

	rows, err := r.db.QueryContext(ctx, query, voterID, electionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, scanErr
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

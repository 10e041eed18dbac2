package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/voting-system/models"
	"github.com/lib/pq"
)

var (
	ErrCandidateNotFound        = errors.New("candidate not found")
	ErrCandidateDuplicate       = errors.New("candidate already exists for this user and position")
	ErrCandidateInvalidPosition = errors.New("invalid position reference")
	ErrCandidateInvalidUser     = errors.New("invalid user reference")
)

type ListCandidatesFilter struct {
	PositionID *int
	UserID     *int
	Status     *models.CandidateStatus
}

type CandidateRepository interface {
	Create(ctx context.Context, candidate *models.Candidate) error
	GetByID(ctx context.Context, id int) (*models.Candidate, error)
	List(ctx context.Context, filter ListCandidatesFilter) ([]models.Candidate, error)
	// UpdateReview фиксирует решение админа. Условие status = 'pending'
	// гарантирует, что два конкурентных ревью не пройдут оба.
	UpdateReview(ctx context.Context, id int, status models.CandidateStatus, reason *string, reviewedAt time.Time) error
	UpdatePhotoKey(ctx context.Context, id int, photoKey *string) error
	UpdateDocumentKey(ctx context.Context, id int, documentKey *string) error
	CountApprovedByPosition(ctx context.Context, positionID int, ids []int) (int, error)
}

type postgresCandidateRepository struct {
	db *sql.DB
}

func NewPostgresCandidateRepository(db *sql.DB) CandidateRepository {
	return &postgresCandidateRepository{db: db}
}

func (r *postgresCandidateRepository) Create(ctx context.Context, c *models.Candidate) error {
	query := `
		INSERT INTO candidates (user_id, position_id, statement, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, submitted_at`

	err := r.db.QueryRowContext(ctx, query,
		c.UserID, c.PositionID, c.Statement, c.Status,
	).Scan(&c.ID, &c.SubmittedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "candidates_user_id_position_id_key" {
					return ErrCandidateDuplicate
				}
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "candidates_position_id_fkey":
					return ErrCandidateInvalidPosition
				case "candidates_user_id_fkey":
					return ErrCandidateInvalidUser
				}
			}
		}
		return fmt.Errorf("failed to create candidate: %w", err)
	}
	return nil
}

func (r *postgresCandidateRepository) GetByID(ctx context.Context, id int) (*models.Candidate, error) {
	query := `
		SELECT id, user_id, position_id, statement, status, rejection_reason,
		       submitted_at, reviewed_at, photo_key, document_key
		FROM candidates
		WHERE id = $1`

	c := &models.Candidate{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.UserID, &c.PositionID, &c.Statement, &c.Status, &c.RejectionReason,
		&c.SubmittedAt, &c.ReviewedAt, &c.PhotoKey, &c.DocumentKey,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCandidateNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *postgresCandidateRepository) List(ctx context.Context, filter ListCandidatesFilter) ([]models.Candidate, error) {
	query := `
		SELECT id, user_id, position_id, statement, status, rejection_reason,
		       submitted_at, reviewed_at, photo_key, document_key
		FROM candidates
		WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.PositionID != nil {
		query += fmt.Sprintf(" AND position_id = $%d", argID)
		args = append(args, *filter.PositionID)
		argID++
	}
	if filter.UserID != nil {
		query += fmt.Sprintf(" AND user_id = $%d", argID)
		args = append(args, *filter.UserID)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}

	// Порядок подачи заявок — это же и детерминированный tie-break подсчёта.
	query += " ORDER BY submitted_at ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := make([]models.Candidate, 0)
	for rows.Next() {
		var c models.Candidate
		if scanErr := rows.Scan(
			&c.ID, &c.UserID, &c.PositionID, &c.Statement, &c.Status, &c.RejectionReason,
			&c.SubmittedAt, &c.ReviewedAt, &c.PhotoKey, &c.DocumentKey,
		); scanErr != nil {
			return nil, scanErr
		}
		candidates = append(candidates, c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return candidates, nil
}

func (r *postgresCandidateRepository) UpdateReview(ctx context.Context, id int, status models.CandidateStatus, reason *string, reviewedAt time.Time) error {
	query := `
		UPDATE candidates SET status = $1, rejection_reason = $2, reviewed_at = $3
		WHERE id = $4 AND status = 'pending'`

	result, err := r.db.ExecContext(ctx, query, status, reason, reviewedAt, id)
	if err != nil {
		return fmt.Errorf("failed to review candidate: %w", err)
	}
	return checkAffectedRows(result, ErrCandidateNotFound)
}

func (r *postgresCandidateRepository) UpdatePhotoKey(ctx context.Context, id int, photoKey *string) error {
	query := `UPDATE candidates SET photo_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, photoKey, id)
	if err != nil {
		return fmt.Errorf("failed to update candidate photo key: %w", err)
	}
	return checkAffectedRows(result, ErrCandidateNotFound)
}

func (r *postgresCandidateRepository) UpdateDocumentKey(ctx context.Context, id int, documentKey *string) error {
	query := `UPDATE candidates SET document_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, documentKey, id)
	if err != nil {
		return fmt.Errorf("failed to update candidate document key: %w", err)
	}
	return checkAffectedRows(result, ErrCandidateNotFound)
}

// CountApprovedByPosition возвращает, сколько из переданных id являются
// одобренными кандидатами именно этой должности.
func (r *postgresCandidateRepository) CountApprovedByPosition(ctx context.Context, positionID int, ids []int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM candidates
		WHERE position_id = $1 AND status = 'approved' AND id = ANY($2)`

	var count int
	err := r.db.QueryRowContext(ctx, query, positionID, pq.Array(ids)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count approved candidates: %w", err)
	}
	return count, nil
}

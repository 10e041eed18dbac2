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
	ErrElectionNotFound     = errors.New("election not found")
	ErrElectionPhaseChanged = errors.New("election phase changed concurrently")
	ErrElectionInUse        = errors.New("election is in use (votes exist)")
)

type ListElectionsFilter struct {
	Phase     *models.ElectionPhase
	CreatedBy *int
	Limit     int
	Offset    int
}

type ElectionRepository interface {
	Create(ctx context.Context, election *models.Election) error
	GetByID(ctx context.Context, id int) (*models.Election, error)
	List(ctx context.Context, filter ListElectionsFilter) ([]models.Election, error)
	UpdateDetails(ctx context.Context, election *models.Election) error
	// UpdatePhase переводит фазу условным UPDATE: ноль затронутых строк
	// означает, что выборы не в ожидаемой фазе (или не существуют).
	UpdatePhase(ctx context.Context, exec SQLExecutor, id int, from, to models.ElectionPhase) error
	Delete(ctx context.Context, id int) error
}

type postgresElectionRepository struct {
	db *sql.DB
}

func NewPostgresElectionRepository(db *sql.DB) ElectionRepository {
	return &postgresElectionRepository{db: db}
}

func (r *postgresElectionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresElectionRepository) Create(ctx context.Context, e *models.Election) error {
	query := `
		INSERT INTO elections (title, description, candidacy_deadline, start_date, end_date, phase, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		e.Title, e.Description, e.CandidacyDeadline, e.StartDate, e.EndDate, e.Phase, e.CreatedBy,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create election: %w", err)
	}
	return nil
}

func (r *postgresElectionRepository) GetByID(ctx context.Context, id int) (*models.Election, error) {
	query := `
		SELECT id, title, description, candidacy_deadline, start_date, end_date, phase, created_by, created_at
		FROM elections
		WHERE id = $1`

	e := &models.Election{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Title, &e.Description, &e.CandidacyDeadline,
		&e.StartDate, &e.EndDate, &e.Phase, &e.CreatedBy, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrElectionNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *postgresElectionRepository) List(ctx context.Context, filter ListElectionsFilter) ([]models.Election, error) {
	query := `
		SELECT id, title, description, candidacy_deadline, start_date, end_date, phase, created_by, created_at
		FROM elections
		WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.Phase != nil {
		query += fmt.Sprintf(" AND phase = $%d", argID)
		args = append(args, *filter.Phase)
		argID++
	}
	if filter.CreatedBy != nil {
		query += fmt.Sprintf(" AND created_by = $%d", argID)
		args = append(args, *filter.CreatedBy)
		argID++
	}

	query += " ORDER BY start_date DESC, created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	elections := make([]models.Election, 0)
	for rows.Next() {
		var e models.Election
		if scanErr := rows.Scan(
			&e.ID, &e.Title, &e.Description, &e.CandidacyDeadline,
			&e.StartDate, &e.EndDate, &e.Phase, &e.CreatedBy, &e.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		elections = append(elections, e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return elections, nil
}

func (r *postgresElectionRepository) UpdateDetails(ctx context.Context, e *models.Election) error {
	query := `
		UPDATE elections SET
			title = $1,
			description = $2,
			candidacy_deadline = $3,
			start_date = $4,
			end_date = $5
		WHERE id = $6`

	result, err := r.db.ExecContext(ctx, query,
		e.Title, e.Description, e.CandidacyDeadline, e.StartDate, e.EndDate, e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update election: %w", err)
	}
	return checkAffectedRows(result, ErrElectionNotFound)
}

func (r *postgresElectionRepository) UpdatePhase(ctx context.Context, exec SQLExecutor, id int, from, to models.ElectionPhase) error {
	executor := r.getExecutor(exec)
	query := `UPDATE elections SET phase = $1 WHERE id = $2 AND phase = $3`
	result, err := executor.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update election phase: %w", err)
	}
	return checkAffectedRows(result, ErrElectionPhaseChanged)
}

func (r *postgresElectionRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM elections WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			// FK violation from votes (ON DELETE RESTRICT).
			return ErrElectionInUse
		}
		return fmt.Errorf("failed to delete election: %w", err)
	}
	return checkAffectedRows(result, ErrElectionNotFound)
}

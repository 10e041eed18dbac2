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
	ErrPositionNotFound        = errors.New("position not found")
	ErrPositionInvalidElection = errors.New("invalid election reference")
)

type PositionRepository interface {
	Create(ctx context.Context, position *models.Position) error
	GetByID(ctx context.Context, id int) (*models.Position, error)
	ListByElection(ctx context.Context, electionID int) ([]models.Position, error)
	Update(ctx context.Context, position *models.Position) error
	Delete(ctx context.Context, id int) error
}

type postgresPositionRepository struct {
	db *sql.DB
}

func NewPostgresPositionRepository(db *sql.DB) PositionRepository {
	return &postgresPositionRepository{db: db}
}

func (r *postgresPositionRepository) Create(ctx context.Context, p *models.Position) error {
	query := `
		INSERT INTO positions (election_id, title, description, seat_count, order_index)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		p.ElectionID, p.Title, p.Description, p.SeatCount, p.OrderIndex,
	).Scan(&p.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrPositionInvalidElection
		}
		return fmt.Errorf("failed to create position: %w", err)
	}
	return nil
}

func (r *postgresPositionRepository) GetByID(ctx context.Context, id int) (*models.Position, error) {
	query := `
		SELECT id, election_id, title, description, seat_count, order_index
		FROM positions
		WHERE id = $1`

	p := &models.Position{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.ElectionID, &p.Title, &p.Description, &p.SeatCount, &p.OrderIndex,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPositionNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresPositionRepository) ListByElection(ctx context.Context, electionID int) ([]models.Position, error) {
	query := `
		SELECT id, election_id, title, description, seat_count, order_index
		FROM positions
		WHERE election_id = $1
		ORDER BY order_index ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, electionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	positions := make([]models.Position, 0)
	for rows.Next() {
		var p models.Position
		if scanErr := rows.Scan(
			&p.ID, &p.ElectionID, &p.Title, &p.Description, &p.SeatCount, &p.OrderIndex,
		); scanErr != nil {
			return nil, scanErr
		}
		positions = append(positions, p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return positions, nil
}

func (r *postgresPositionRepository) Update(ctx context.Context, p *models.Position) error {
	query := `
		UPDATE positions SET
			title = $1,
			description = $2,
			seat_count = $3,
			order_index = $4
		WHERE id = $5`

	result, err := r.db.ExecContext(ctx, query,
		p.Title, p.Description, p.SeatCount, p.OrderIndex, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update position: %w", err)
	}
	return checkAffectedRows(result, ErrPositionNotFound)
}

func (r *postgresPositionRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM positions WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}
	return checkAffectedRows(result, ErrPositionNotFound)
}

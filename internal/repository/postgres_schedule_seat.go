package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minhlq-dev/cinebook/internal/domain"
)

type PostgresScheduleSeatRepository struct {
	db *pgxpool.Pool
}

func NewPostgresScheduleSeatRepository(db *pgxpool.Pool) *PostgresScheduleSeatRepository {
	return &PostgresScheduleSeatRepository{
		db: db,
	}
}

func (p *PostgresScheduleSeatRepository) GetByShowtimeAndIDs(
	ctx context.Context,
	showtimeID int,
	ids []int) ([]domain.ScheduleSeat, error) {

	query := `
		SELECT id, showtime_id, seat_id, seat_row, seat_col, status
		FROM schedule_seats
		WHERE showtime_id = $1 AND id = ANY($2)
		ORDER BY id
	`

	rows, err := p.db.Query(ctx, query, showtimeID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]domain.ScheduleSeat, 0, len(ids))

	for rows.Next() {
		var seat domain.ScheduleSeat

		err = rows.Scan(
			&seat.ID,
			&seat.ShowtimeID,
			&seat.SeatID,
			&seat.Row,
			&seat.Col,
			&seat.Status,
		)
		if err != nil {
			return nil, err
		}

		seats = append(seats, seat)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return seats, nil
}

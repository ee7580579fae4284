package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minhlq-dev/cinebook/internal/domain"
)

type PostgresShowtimeRepository struct {
	db *pgxpool.Pool
}

func NewPostgresShowtimeRepository(db *pgxpool.Pool) *PostgresShowtimeRepository {
	return &PostgresShowtimeRepository{
		db: db,
	}
}

func (p *PostgresShowtimeRepository) GetByID(ctx context.Context, id int) (*domain.Showtime, error) {
	query := `
		SELECT id, movie_title, hall_name, start_time, end_time, base_price
		FROM showtimes
		WHERE id = $1
	`

	var showtime domain.Showtime

	err := p.db.QueryRow(ctx, query, id).Scan(
		&showtime.ID,
		&showtime.MovieTitle,
		&showtime.HallName,
		&showtime.StartTime,
		&showtime.EndTime,
		&showtime.BasePrice,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}

	return &showtime, nil
}

type PostgresTicketTypeRepository struct {
	db *pgxpool.Pool
}

func NewPostgresTicketTypeRepository(db *pgxpool.Pool) *PostgresTicketTypeRepository {
	return &PostgresTicketTypeRepository{
		db: db,
	}
}

func (p *PostgresTicketTypeRepository) GetByIDs(ctx context.Context, ids []int) ([]domain.TicketType, error) {
	query := `
		SELECT id, name, discount_percent
		FROM ticket_types
		WHERE id = ANY($1)
	`

	rows, err := p.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ticketTypes := make([]domain.TicketType, 0, len(ids))

	for rows.Next() {
		var ticketType domain.TicketType

		err = rows.Scan(&ticketType.ID, &ticketType.Name, &ticketType.DiscountPercent)
		if err != nil {
			return nil, err
		}

		ticketTypes = append(ticketTypes, ticketType)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return ticketTypes, nil
}

type PostgresProductRepository struct {
	db *pgxpool.Pool
}

func NewPostgresProductRepository(db *pgxpool.Pool) *PostgresProductRepository {
	return &PostgresProductRepository{
		db: db,
	}
}

func (p *PostgresProductRepository) GetByIDs(ctx context.Context, ids []int) ([]domain.Product, error) {
	query := `
		SELECT id, name, unit_price, is_combo, discount_percent, active
		FROM products
		WHERE id = ANY($1)
	`

	rows, err := p.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, len(ids))

	for rows.Next() {
		var product domain.Product

		err = rows.Scan(
			&product.ID,
			&product.Name,
			&product.UnitPrice,
			&product.IsCombo,
			&product.DiscountPercent,
			&product.Active,
		)
		if err != nil {
			return nil, err
		}

		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

type PostgresPromotionRepository struct {
	db *pgxpool.Pool
}

func NewPostgresPromotionRepository(db *pgxpool.Pool) *PostgresPromotionRepository {
	return &PostgresPromotionRepository{
		db: db,
	}
}

func (p *PostgresPromotionRepository) GetByID(ctx context.Context, id int) (*domain.Promotion, error) {
	query := `
		SELECT id, code, discount_type, discount_value, start_date, end_date,
			exchange_score, active, owner_id
		FROM promotions
		WHERE id = $1
	`

	var promotion domain.Promotion

	err := p.db.QueryRow(ctx, query, id).Scan(
		&promotion.ID,
		&promotion.Code,
		&promotion.DiscountType,
		&promotion.DiscountValue,
		&promotion.StartDate,
		&promotion.EndDate,
		&promotion.ExchangeScore,
		&promotion.Active,
		&promotion.OwnerID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}

	return &promotion, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minhlq-dev/cinebook/internal/domain"
	"github.com/shopspring/decimal"
)

// scoreUnit converts spend into loyalty points: one point per 1000 VND.
var scoreUnit = decimal.NewFromInt(1000)

type PostgresOrderRepository struct {
	db *pgxpool.Pool
}

func NewPostgresOrderRepository(db *pgxpool.Pool) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		db: db,
	}
}

func (p *PostgresOrderRepository) Create(
	ctx context.Context,
	order *domain.Order,
	tickets []domain.Ticket,
	seatStatus domain.SeatStatus) error {

	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		seatIDs := make([]int, 0, len(tickets))
		for _, ticket := range tickets {
			seatIDs = append(seatIDs, ticket.ScheduleSeatID)
		}

		// The seats were only ever leased, never written; another order may
		// have claimed them between lease consumption and this write. The
		// conditional update is what finally closes that window.
		tag, err := tx.Exec(ctx, `
			UPDATE schedule_seats
			SET status = $1, updated_at = NOW()
			WHERE showtime_id = $2 AND id = ANY($3) AND status = 'NOT_YET'`,
			seatStatus, order.ShowtimeID, seatIDs,
		)
		if err != nil {
			return err
		}
		if int(tag.RowsAffected()) != len(seatIDs) {
			return domain.ErrSeatConflict
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO orders (public_code, user_id, customer_id, showtime_id, promotion_id, total_price, status, email)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, created_at`,
			order.PublicCode,
			order.UserID,
			order.CustomerID,
			order.ShowtimeID,
			order.PromotionID,
			order.TotalPrice,
			order.Status,
			order.Email,
		).Scan(&order.ID, &order.CreatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
				return domain.ErrEditConflict
			}
			return err
		}

		order.Transaction.OrderID = order.ID

		err = tx.QueryRow(ctx, `
			INSERT INTO transactions (order_id, code, method, status)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at`,
			order.ID,
			order.Transaction.Code,
			order.Transaction.Method,
			order.Transaction.Status,
		).Scan(&order.Transaction.ID, &order.Transaction.CreatedAt)
		if err != nil {
			return err
		}

		ticketIDsBySeat := make(map[int]int64, len(tickets))

		for i := range tickets {
			tickets[i].OrderID = order.ID

			err = tx.QueryRow(ctx, `
				INSERT INTO tickets (order_id, schedule_seat_id, showtime_id, ticket_type_id, paid, used)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING id`,
				tickets[i].OrderID,
				tickets[i].ScheduleSeatID,
				tickets[i].ShowtimeID,
				tickets[i].TicketTypeID,
				tickets[i].Paid,
				tickets[i].Used,
			).Scan(&tickets[i].ID)
			if err != nil {
				return err
			}

			ticketIDsBySeat[tickets[i].ScheduleSeatID] = tickets[i].ID
		}

		detailRows := make([][]any, 0, len(order.Details))
		for i := range order.Details {
			order.Details[i].OrderID = order.ID
			order.Details[i].TicketID = ticketIDsBySeat[order.Details[i].SeatID]

			detailRows = append(detailRows, []any{
				order.ID,
				order.Details[i].TicketID,
				order.Details[i].ShowtimeID,
				order.Details[i].SeatID,
				order.Details[i].Amount,
			})
		}

		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"order_details"},
			[]string{"order_id", "ticket_id", "showtime_id", "schedule_seat_id", "amount"},
			pgx.CopyFromRows(detailRows),
		)
		if err != nil {
			return err
		}

		if len(order.Extras) == 0 {
			return nil
		}

		extraRows := make([][]any, 0, len(order.Extras))
		for i := range order.Extras {
			order.Extras[i].OrderID = order.ID

			extraRows = append(extraRows, []any{
				order.ID,
				order.Extras[i].ProductID,
				order.Extras[i].Quantity,
				order.Extras[i].UnitPrice,
				order.Extras[i].Status,
			})
		}

		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"order_extras"},
			[]string{"order_id", "product_id", "quantity", "unit_price", "status"},
			pgx.CopyFromRows(extraRows),
		)

		return err
	})
}

func (p *PostgresOrderRepository) GetByCode(ctx context.Context, publicCode string) (*domain.Order, error) {
	return p.getOrder(ctx, "o.public_code = $1", publicCode)
}

func (p *PostgresOrderRepository) GetByTransactionCode(ctx context.Context, code string) (*domain.Order, error) {
	return p.getOrder(ctx, "t.code = $1", code)
}

func (p *PostgresOrderRepository) getOrder(ctx context.Context, where string, arg any) (*domain.Order, error) {
	query := fmt.Sprintf(`
		SELECT
			o.id, o.public_code, o.user_id, o.customer_id, o.showtime_id,
			o.promotion_id, o.total_price, o.status, o.qr_token, o.email,
			o.created_at, o.updated_at,
			t.id, t.code, t.method, t.status, t.created_at, t.updated_at
		FROM orders o
		JOIN transactions t ON t.order_id = o.id
		WHERE %s`, where)

	var order domain.Order

	err := p.db.QueryRow(ctx, query, arg).Scan(
		&order.ID,
		&order.PublicCode,
		&order.UserID,
		&order.CustomerID,
		&order.ShowtimeID,
		&order.PromotionID,
		&order.TotalPrice,
		&order.Status,
		&order.QRToken,
		&order.Email,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.Transaction.ID,
		&order.Transaction.Code,
		&order.Transaction.Method,
		&order.Transaction.Status,
		&order.Transaction.CreatedAt,
		&order.Transaction.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}

	order.Transaction.OrderID = order.ID

	details, err := p.retrieveDetails(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Details = details

	extras, err := p.retrieveExtras(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Extras = extras

	tickets, err := p.retrieveTickets(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Tickets = tickets

	return &order, nil
}

func (p *PostgresOrderRepository) retrieveTickets(ctx context.Context, orderID int64) ([]domain.Ticket, error) {
	query := `
		SELECT id, order_id, schedule_seat_id, showtime_id, ticket_type_id, paid, used
		FROM tickets
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := p.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]domain.Ticket, 0)

	for rows.Next() {
		var ticket domain.Ticket

		err = rows.Scan(
			&ticket.ID,
			&ticket.OrderID,
			&ticket.ScheduleSeatID,
			&ticket.ShowtimeID,
			&ticket.TicketTypeID,
			&ticket.Paid,
			&ticket.Used,
		)
		if err != nil {
			return nil, err
		}

		tickets = append(tickets, ticket)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return tickets, nil
}

func (p *PostgresOrderRepository) retrieveDetails(ctx context.Context, orderID int64) ([]domain.OrderDetail, error) {
	query := `
		SELECT id, order_id, ticket_id, showtime_id, schedule_seat_id, amount
		FROM order_details
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := p.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]domain.OrderDetail, 0)

	for rows.Next() {
		var detail domain.OrderDetail

		err = rows.Scan(
			&detail.ID,
			&detail.OrderID,
			&detail.TicketID,
			&detail.ShowtimeID,
			&detail.SeatID,
			&detail.Amount,
		)
		if err != nil {
			return nil, err
		}

		details = append(details, detail)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return details, nil
}

func (p *PostgresOrderRepository) retrieveExtras(ctx context.Context, orderID int64) ([]domain.OrderExtra, error) {
	query := `
		SELECT id, order_id, product_id, quantity, unit_price, status
		FROM order_extras
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := p.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	extras := make([]domain.OrderExtra, 0)

	for rows.Next() {
		var extra domain.OrderExtra

		err = rows.Scan(
			&extra.ID,
			&extra.OrderID,
			&extra.ProductID,
			&extra.Quantity,
			&extra.UnitPrice,
			&extra.Status,
		)
		if err != nil {
			return nil, err
		}

		extras = append(extras, extra)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return extras, nil
}

func (p *PostgresOrderRepository) ListByUser(
	ctx context.Context,
	userID int,
	pagination domain.Pagination) ([]domain.OrderSummary, *domain.Metadata, error) {

	query := `
		SELECT
			COUNT(*) OVER(),
			o.public_code,
			s.movie_title,
			s.start_time,
			o.total_price,
			o.status,
			(SELECT COUNT(*) FROM tickets tk WHERE tk.order_id = o.id),
			o.created_at
		FROM orders o
		JOIN showtimes s ON o.showtime_id = s.id
		WHERE o.user_id = $1 OR o.customer_id = $1
		ORDER BY o.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := p.db.Query(ctx, query, userID, pagination.Limit(), pagination.Offset())
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	orders := make([]domain.OrderSummary, 0)
	totalRecords := 0

	for rows.Next() {
		var order domain.OrderSummary

		err := rows.Scan(
			&totalRecords,
			&order.PublicCode,
			&order.MovieTitle,
			&order.StartTime,
			&order.TotalPrice,
			&order.Status,
			&order.SeatCount,
			&order.CreatedAt,
		)
		if err != nil {
			return nil, nil, err
		}

		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, nil, err
	}

	metadata := domain.NewMetadata(totalRecords, pagination.Page, pagination.PageSize)

	return orders, metadata, nil
}

func (p *PostgresOrderRepository) SettleSuccess(
	ctx context.Context,
	reference,
	admissionToken string) (*domain.SettledOrder, error) {

	var settled *domain.SettledOrder

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		orderID, err := p.claimPendingTransaction(ctx, tx, reference, domain.OrderStatusSuccess)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `
			UPDATE orders
			SET status = 'SUCCESS', qr_token = $1, updated_at = NOW()
			WHERE id = $2 AND status = 'PENDING'`,
			admissionToken, orderID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			return domain.ErrInvalidTransition
		}

		_, err = tx.Exec(ctx, `
			UPDATE order_extras SET status = 'SUCCESS' WHERE order_id = $1`, orderID)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE tickets SET paid = TRUE WHERE order_id = $1`, orderID)
		if err != nil {
			return err
		}

		seatIDs, err := transitionOrderSeats(ctx, tx, orderID, domain.SeatStatusHeld, domain.SeatStatusBooked)
		if err != nil {
			return err
		}

		settled, err = p.finishSettlement(ctx, tx, orderID, seatIDs, true)
		return err
	})
	if err != nil {
		return nil, err
	}

	return settled, nil
}

func (p *PostgresOrderRepository) SettleFailure(ctx context.Context, reference string) (*domain.SettledOrder, error) {
	var settled *domain.SettledOrder

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		orderID, err := p.claimPendingTransaction(ctx, tx, reference, domain.OrderStatusFailed)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `
			UPDATE orders
			SET status = 'FAILED', updated_at = NOW()
			WHERE id = $1 AND status = 'PENDING'`,
			orderID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			return domain.ErrInvalidTransition
		}

		_, err = tx.Exec(ctx, `
			UPDATE order_extras SET status = 'FAILED' WHERE order_id = $1`, orderID)
		if err != nil {
			return err
		}

		seatIDs, err := transitionOrderSeats(ctx, tx, orderID, domain.SeatStatusHeld, domain.SeatStatusNotYet)
		if err != nil {
			return err
		}

		settled, err = p.finishSettlement(ctx, tx, orderID, seatIDs, false)
		return err
	})
	if err != nil {
		return nil, err
	}

	return settled, nil
}

// claimPendingTransaction flips the transaction row identified by reference
// out of PENDING. The status guard in the WHERE clause is the idempotency
// barrier: a callback replay, or a callback racing the status poller, finds
// no PENDING row and stops here.
func (p *PostgresOrderRepository) claimPendingTransaction(
	ctx context.Context,
	tx pgx.Tx,
	reference string,
	status domain.TransactionStatus) (int64, error) {

	var orderID int64

	err := tx.QueryRow(ctx, `
		UPDATE transactions
		SET status = $1, updated_at = NOW()
		WHERE code = $2 AND status = 'PENDING'
		RETURNING order_id`,
		status, reference,
	).Scan(&orderID)

	if err == nil {
		return orderID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM transactions WHERE code = $1)`, reference,
	).Scan(&exists)
	if err != nil {
		return 0, err
	}

	if exists {
		return 0, domain.ErrAlreadySettled
	}
	return 0, domain.ErrRecordNotFound
}

func transitionOrderSeats(
	ctx context.Context,
	tx pgx.Tx,
	orderID int64,
	from, to domain.SeatStatus) ([]int, error) {

	rows, err := tx.Query(ctx, `
		UPDATE schedule_seats
		SET status = $1, updated_at = NOW()
		WHERE status = $2
			AND id IN (SELECT schedule_seat_id FROM tickets WHERE order_id = $3)
		RETURNING id`,
		to, from, orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seatIDs := make([]int, 0)

	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		seatIDs = append(seatIDs, id)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return seatIDs, nil
}

// finishSettlement loads the settled order and, on success, applies the
// loyalty score delta to the beneficiary: one point per thousand spent,
// minus the score the promotion was redeemed for.
func (p *PostgresOrderRepository) finishSettlement(
	ctx context.Context,
	tx pgx.Tx,
	orderID int64,
	seatIDs []int,
	awardScore bool) (*domain.SettledOrder, error) {

	var (
		order         domain.Order
		exchangeScore int
	)

	err := tx.QueryRow(ctx, `
		SELECT
			o.id, o.public_code, o.user_id, o.customer_id, o.showtime_id,
			o.promotion_id, o.total_price, o.status, o.qr_token, o.email, o.created_at,
			COALESCE(pr.exchange_score, 0)
		FROM orders o
		LEFT JOIN promotions pr ON o.promotion_id = pr.id
		WHERE o.id = $1`,
		orderID,
	).Scan(
		&order.ID,
		&order.PublicCode,
		&order.UserID,
		&order.CustomerID,
		&order.ShowtimeID,
		&order.PromotionID,
		&order.TotalPrice,
		&order.Status,
		&order.QRToken,
		&order.Email,
		&order.CreatedAt,
		&exchangeScore,
	)
	if err != nil {
		return nil, err
	}

	settled := &domain.SettledOrder{
		Order:      order,
		SeatIDs:    seatIDs,
		ShowtimeID: order.ShowtimeID,
	}

	if !awardScore {
		return settled, nil
	}

	settled.ScoreAwarded = int(order.TotalPrice.Div(scoreUnit).Floor().IntPart()) - exchangeScore
	if settled.ScoreAwarded < 0 {
		settled.ScoreAwarded = 0
	}

	// Only customer accounts collect loyalty score.
	_, err = tx.Exec(ctx,
		`UPDATE users SET score = score + $1 WHERE id = $2 AND role = 'customer'`,
		settled.ScoreAwarded, order.Beneficiary(),
	)
	if err != nil {
		return nil, err
	}

	return settled, nil
}

func (p *PostgresOrderRepository) Repay(ctx context.Context, orderID int64, method, reference string) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE transactions
			SET code = $1, method = $2, updated_at = NOW()
			WHERE order_id = $3 AND status = 'PENDING'`,
			reference, method, orderID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			return domain.ErrAlreadySettled
		}

		return nil
	})
}

func (p *PostgresOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE orders
			SET promotion_id = $1, total_price = $2, updated_at = NOW()
			WHERE id = $3 AND status = 'PENDING'`,
			order.PromotionID, order.TotalPrice, order.ID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			return domain.ErrAlreadySettled
		}

		tag, err = tx.Exec(ctx, `
			UPDATE transactions
			SET code = $1, updated_at = NOW()
			WHERE order_id = $2 AND status = 'PENDING'`,
			order.Transaction.Code, order.ID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			return domain.ErrAlreadySettled
		}

		for _, detail := range order.Details {
			tag, err := tx.Exec(ctx, `
				UPDATE order_details
				SET amount = $1
				WHERE order_id = $2 AND schedule_seat_id = $3`,
				detail.Amount, order.ID, detail.SeatID,
			)
			if err != nil {
				return err
			}
			if tag.RowsAffected() != 1 {
				return domain.ErrEditConflict
			}
		}

		_, err = tx.Exec(ctx, `DELETE FROM order_extras WHERE order_id = $1`, order.ID)
		if err != nil {
			return err
		}

		if len(order.Extras) == 0 {
			return nil
		}

		extraRows := make([][]any, 0, len(order.Extras))
		for i := range order.Extras {
			order.Extras[i].OrderID = order.ID

			extraRows = append(extraRows, []any{
				order.ID,
				order.Extras[i].ProductID,
				order.Extras[i].Quantity,
				order.Extras[i].UnitPrice,
				order.Extras[i].Status,
			})
		}

		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"order_extras"},
			[]string{"order_id", "product_id", "quantity", "unit_price", "status"},
			pgx.CopyFromRows(extraRows),
		)

		return err
	})
}

func (p *PostgresOrderRepository) Cancel(ctx context.Context, orderID int64) (*domain.SettledOrder, error) {
	var settled *domain.SettledOrder

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE orders
			SET status = 'FAILED', updated_at = NOW()
			WHERE id = $1 AND status = 'PENDING'`,
			orderID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			return domain.ErrInvalidTransition
		}

		_, err = tx.Exec(ctx, `
			UPDATE transactions
			SET status = 'FAILED', updated_at = NOW()
			WHERE order_id = $1 AND status = 'PENDING'`,
			orderID,
		)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE order_extras SET status = 'FAILED' WHERE order_id = $1`, orderID)
		if err != nil {
			return err
		}

		seatIDs, err := transitionOrderSeats(ctx, tx, orderID, domain.SeatStatusHeld, domain.SeatStatusNotYet)
		if err != nil {
			return err
		}

		settled, err = p.finishSettlement(ctx, tx, orderID, seatIDs, false)
		return err
	})
	if err != nil {
		return nil, err
	}

	return settled, nil
}

func (p *PostgresOrderRepository) Refund(ctx context.Context, orderID int64) (*domain.SettledOrder, error) {
	var settled *domain.SettledOrder

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE orders
			SET status = 'REFUND', updated_at = NOW()
			WHERE id = $1 AND status = 'SUCCESS'`,
			orderID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			return domain.ErrInvalidTransition
		}

		_, err = tx.Exec(ctx, `
			UPDATE transactions
			SET status = 'REFUND', updated_at = NOW()
			WHERE order_id = $1 AND status = 'SUCCESS'`,
			orderID,
		)
		if err != nil {
			return err
		}

		seatIDs, err := transitionOrderSeats(ctx, tx, orderID, domain.SeatStatusBooked, domain.SeatStatusNotYet)
		if err != nil {
			return err
		}

		settled, err = p.finishSettlement(ctx, tx, orderID, seatIDs, false)
		if err != nil {
			return err
		}

		// Claw back the score the settlement awarded.
		var exchangeScore int
		err = tx.QueryRow(ctx, `
			SELECT COALESCE(pr.exchange_score, 0)
			FROM orders o
			LEFT JOIN promotions pr ON o.promotion_id = pr.id
			WHERE o.id = $1`,
			orderID,
		).Scan(&exchangeScore)
		if err != nil {
			return err
		}

		awarded := int(settled.Order.TotalPrice.Div(scoreUnit).Floor().IntPart()) - exchangeScore
		if awarded < 0 {
			awarded = 0
		}

		_, err = tx.Exec(ctx,
			`UPDATE users SET score = score - $1 WHERE id = $2 AND role = 'customer'`,
			awarded, settled.Order.Beneficiary(),
		)
		return err
	})
	if err != nil {
		return nil, err
	}

	return settled, nil
}

func (p *PostgresOrderRepository) MarkTicketsUsed(ctx context.Context, orderID int64) (int, error) {
	tag, err := p.db.Exec(ctx, `
		UPDATE tickets
		SET used = TRUE
		WHERE order_id = $1 AND paid = TRUE AND used = FALSE`,
		orderID,
	)
	if err != nil {
		return 0, err
	}

	return int(tag.RowsAffected()), nil
}

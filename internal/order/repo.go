package order

import (
	"context"
	"errors"
	"fmt"

	"tandyr-pos/pkg/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type PgRepo struct {
	dbPool *pgxpool.Pool
}

func NewPgRepo(dbPool *pgxpool.Pool) *PgRepo {
	return &PgRepo{dbPool: dbPool}
}

// CreateOrder inserts the order, its line items and its payments in a
// single transaction. The order number is generated inside the same
// transaction; a unique-constraint clash surfaces as ErrOrderNumberConflict
// so the caller can retry, it is never silently renumbered.
func (r *PgRepo) CreateOrder(ctx context.Context, branchID, cashierID int64, draft Draft) (models.Order, error) {
	tx, err := r.dbPool.Begin(ctx)
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Date string and daily count come from the same database clock, so a
	// midnight straddle cannot desynchronize them.
	var currentDate string
	var orderCount int
	err = tx.QueryRow(ctx, `
        SELECT to_char(CURRENT_DATE, 'YYYYMMDD'), COUNT(*)
        FROM orders
        WHERE created_at::DATE = CURRENT_DATE AND branch_id = $1
    `, branchID).Scan(&currentDate, &orderCount)
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to count today's orders: %w", err)
	}

	number := orderNumber(currentDate, orderCount+1, branchID)

	order := models.Order{
		Number:      number,
		ClientName:  draft.Client.Name,
		ClientPhone: draft.Client.Phone,
		BranchID:    branchID,
		CashierID:   cashierID,
		TotalAmount: draft.Total,
	}
	if draft.Client.Birthday != nil {
		d := *draft.Client.Birthday
		order.ClientBirthday = &d
	}

	err = tx.QueryRow(ctx, `
        INSERT INTO orders (
            order_number,
            client_name,
            client_phone,
            client_birthday,
            branch_id,
            cashier_id,
            total_amount
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at
    `,
		number,
		draft.Client.Name,
		nullString(draft.Client.Phone),
		draft.Client.Birthday,
		branchID,
		cashierID,
		draft.Total,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.Order{}, ErrOrderNumberConflict
		}
		return models.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}

	for _, item := range draft.Items {
		var itemID int64
		err = tx.QueryRow(ctx, `
            INSERT INTO order_items (order_id, product_name, category, side_name, unit_price, quantity)
            VALUES ($1, $2, $3, $4, $5, $6)
            RETURNING id
        `, order.ID, item.ProductName, item.Category, item.SideName, item.UnitPrice, item.Quantity).Scan(&itemID)
		if err != nil {
			return models.Order{}, fmt.Errorf("failed to insert line item: %w", err)
		}
		item.ID = itemID
		item.OrderID = order.ID
		order.Items = append(order.Items, item)
	}

	for _, payment := range draft.Payments {
		var paymentID int64
		err = tx.QueryRow(ctx, `
            INSERT INTO order_payments (order_id, instrument, amount)
            VALUES ($1, $2, $3)
            RETURNING id
        `, order.ID, string(payment.Instrument), payment.Amount).Scan(&paymentID)
		if err != nil {
			return models.Order{}, fmt.Errorf("failed to insert payment: %w", err)
		}
		payment.ID = paymentID
		payment.OrderID = order.ID
		order.Payments = append(order.Payments, payment)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Order{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return order, nil
}

// orderNumber renders the branch-scoped daily sequence number. Sequence
// widths past three digits keep growing instead of wrapping.
func orderNumber(date string, seq int, branchID int64) string {
	return fmt.Sprintf("ORD_%s_%03d_B%d", date, seq, branchID)
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

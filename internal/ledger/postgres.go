package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nkashyap/storefront/internal/models"
)

// PostgresLedger implements the ledger on the products table. The
// conditional single-statement UPDATE gives per-product atomicity via
// row locks; concurrent adjustments on different rows do not block
// each other.
type PostgresLedger struct {
	db  *sql.DB
	pub Publisher
}

func NewPostgresLedger(db *sql.DB, pub Publisher) *PostgresLedger {
	return &PostgresLedger{db: db, pub: pub}
}

func (l *PostgresLedger) GetStock(ctx context.Context, productID int) (int, error) {
	var stock int
	err := l.db.QueryRowContext(ctx,
		"SELECT stock FROM products WHERE id = $1", productID).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrProductNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read stock: %w", err)
	}
	return stock, nil
}

func (l *PostgresLedger) Adjust(ctx context.Context, productID, delta int) (int, error) {
	query := `
		UPDATE products
		SET stock = stock + $1
		WHERE id = $2 AND stock + $1 >= 0
		RETURNING stock
	`

	var stock int
	err := l.db.QueryRowContext(ctx, query, delta, productID).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		// Row missing, or the guard rejected a negative result.
		if _, getErr := l.GetStock(ctx, productID); getErr != nil {
			return 0, getErr
		}
		return 0, ErrInsufficientStock
	}
	if err != nil {
		return 0, fmt.Errorf("failed to adjust stock: %w", err)
	}

	l.emit(productID, stock)
	return stock, nil
}

func (l *PostgresLedger) Set(ctx context.Context, productID, value int) (int, error) {
	if value < 0 {
		return 0, ErrInvalidStock
	}

	result, err := l.db.ExecContext(ctx,
		"UPDATE products SET stock = $1 WHERE id = $2", value, productID)
	if err != nil {
		return 0, fmt.Errorf("failed to set stock: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return 0, ErrProductNotFound
	}

	l.emit(productID, value)
	return value, nil
}

func (l *PostgresLedger) emit(productID, stock int) {
	if l.pub == nil {
		return
	}
	l.pub.Publish(models.StockChangeEvent{ProductID: productID, Stock: stock})
}

package db

import (
	"context"
	"database/sql"
	"time"

	"ela-checkout/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- ORDERS ----------------

// CreateOrder → insert new order in pending status
func (d *DB) CreateOrder(order *models.Order) error {
	_, err := d.Bun.NewInsert().Model(order).Exec(context.Background())
	return err
}

// GetOrderByIntentID → fetch one order by its payment intent ID
func (d *DB) GetOrderByIntentID(intentID string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("stripe_payment_intent_id = ?", intentID).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatusByIntentID → overwrite payment status and method, keyed by the
// intent ID. Last write wins; there is no compare-and-swap on status.
func (d *DB) UpdateStatusByIntentID(intentID string, status models.PaymentStatus, paymentMethod string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("payment_status = ?", status).
		Set("payment_method = ?", paymentMethod).
		Set("updated_at = ?", time.Now().UTC()).
		Where("stripe_payment_intent_id = ?", intentID).
		Exec(context.Background())
	if err != nil {
		return err
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ---------------- LEADS ----------------

// CreateLead → append a pre-sale contact record
func (d *DB) CreateLead(lead *models.Lead) error {
	_, err := d.Bun.NewInsert().Model(lead).Exec(context.Background())
	return err
}

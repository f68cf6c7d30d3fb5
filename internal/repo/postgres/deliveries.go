package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lapeslabs/foodhub/internal/domain/delivery"
	"github.com/lapeslabs/foodhub/internal/domain/order"
	"github.com/lapeslabs/foodhub/internal/observability"
)

var ErrDeliveryExists = errors.New("order already has a delivery")

type DeliveriesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewDeliveriesRepo(pool *pgxpool.Pool, prom *observability.Prom) *DeliveriesRepo {
	return &DeliveriesRepo{pool: pool, prom: prom}
}

func (r *DeliveriesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// Create inserts a delivery after checking the order exists. One delivery per
// order is enforced by a unique index on order_id.
func (r *DeliveriesRepo) Create(ctx context.Context, req delivery.CreateDeliveryRequest) (delivery.Delivery, error) {
	var exists bool

	err := r.observe("deliveries.create.order_check", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`,
			req.OrderID,
		).Scan(&exists)
	})

	if err != nil {
		return delivery.Delivery{}, err
	}

	if !exists {
		return delivery.Delivery{}, order.ErrNotFound
	}

	d := delivery.NewFromCreateRequest(req)

	err = r.observe("deliveries.create.insert", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO deliveries (id, order_id, driver_id, price, status, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			d.ID, d.OrderID, d.DriverID, d.Price, d.Status, d.CreatedAt, d.UpdatedAt,
		)
		return e
	})

	if err != nil {
		var pgErr *pgconn.PgError

		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return delivery.Delivery{}, ErrDeliveryExists
		}

		return delivery.Delivery{}, err
	}

	return d, nil
}

func (r *DeliveriesRepo) List(ctx context.Context, f delivery.ListDeliveriesFilter) ([]delivery.Delivery, int, error) {
	baseQuery := `SELECT id,
		order_id,
		driver_id,
		price,
		status,
		created_at,
		updated_at,
		COUNT(*) OVER() AS total
	FROM deliveries
	`

	var conds []string
	var args []interface{}

	argsPosition := 1

	if f.DriverID != nil {
		conds = append(conds, fmt.Sprintf("driver_id = $%d", argsPosition))
		args = append(args, *f.DriverID)
		argsPosition++
	}

	if len(f.Statuses) > 0 {
		ph := make([]string, 0, len(f.Statuses))

		for _, st := range f.Statuses {
			ph = append(ph, fmt.Sprintf("$%d", argsPosition))
			args = append(args, st)
			argsPosition++
		}

		conds = append(conds, "status IN ("+strings.Join(ph, ",")+")")
	}

	query := baseQuery

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id ASC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)

	args = append(args, f.Limit, f.Offset)

	var out []delivery.Delivery
	total := 0

	err := r.observe("deliveries.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)

		if err != nil {
			return err
		}

		defer rows.Close()

		out = make([]delivery.Delivery, 0, f.Limit)

		for rows.Next() {
			var d delivery.Delivery
			var t int

			err = rows.Scan(&d.ID, &d.OrderID, &d.DriverID, &d.Price, &d.Status, &d.CreatedAt, &d.UpdatedAt, &t)

			if err != nil {
				return err
			}

			total = t
			out = append(out, d)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

func (r *DeliveriesRepo) GetByID(ctx context.Context, id string) (delivery.Delivery, error) {
	var d delivery.Delivery

	err := r.observe("deliveries.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, order_id, driver_id, price, status, created_at, updated_at
			FROM deliveries WHERE id = $1`,
			id,
		).Scan(&d.ID, &d.OrderID, &d.DriverID, &d.Price, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return delivery.Delivery{}, delivery.ErrNotFound
		}

		return delivery.Delivery{}, err
	}

	return d, nil
}

// UpdateStatus applies a transition already validated by the caller against
// the delivery state machine.
func (r *DeliveriesRepo) UpdateStatus(ctx context.Context, id string, status delivery.Status) (delivery.Delivery, error) {
	var d delivery.Delivery

	err := r.observe("deliveries.update_status", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE deliveries
				SET status = $2,
					updated_at = NOW()
			WHERE id = $1
			RETURNING id, order_id, driver_id, price, status, created_at, updated_at`,
			id, status,
		).Scan(&d.ID, &d.OrderID, &d.DriverID, &d.Price, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return delivery.Delivery{}, delivery.ErrNotFound
		}

		return delivery.Delivery{}, err
	}

	return d, nil
}

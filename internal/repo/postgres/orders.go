package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lapeslabs/foodhub/internal/domain/order"
	"github.com/lapeslabs/foodhub/internal/observability"
)

type OrdersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewOrdersRepo(pool *pgxpool.Pool, prom *observability.Prom) *OrdersRepo {
	return &OrdersRepo{pool: pool, prom: prom}
}

func (r *OrdersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *OrdersRepo) Create(ctx context.Context, req order.CreateOrderRequest) (order.Order, error) {
	o := order.NewFromCreateRequest(req)

	err := r.observe("orders.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO orders (id, title, description, price, order_number, status, user_id, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			o.ID, o.Title, o.Description, o.Price, o.OrderNumber, o.Status, o.UserID, o.CreatedAt, o.UpdatedAt,
		)
		return e
	})

	if err != nil {
		return order.Order{}, err
	}

	return o, nil
}

func (r *OrdersRepo) List(ctx context.Context, f order.ListOrdersFilter) ([]order.Order, int, error) {
	baseQuery := `SELECT id,
		title,
		description,
		price,
		order_number,
		status,
		user_id,
		created_at,
		updated_at,
		COUNT(*) OVER() AS total
	FROM orders
	`

	var conds []string
	var args []interface{}

	argsPosition := 1

	if f.Query != nil && strings.TrimSpace(*f.Query) != "" {
		conds = append(conds, fmt.Sprintf("title ILIKE $%d", argsPosition))
		args = append(args, "%"+strings.TrimSpace(*f.Query)+"%")
		argsPosition++
	}

	// scoping predicates come from the authorization layer, never from clients

	if f.UserID != nil {
		conds = append(conds, fmt.Sprintf("user_id = $%d", argsPosition))
		args = append(args, *f.UserID)
		argsPosition++
	}

	if f.Status != nil {
		conds = append(conds, fmt.Sprintf("status = $%d", argsPosition))
		args = append(args, *f.Status)
		argsPosition++
	}

	query := baseQuery

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	// stable ordering for pagination
	query += fmt.Sprintf(" ORDER BY created_at DESC, id ASC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)

	args = append(args, f.Limit, f.Offset)

	var out []order.Order
	total := 0

	err := r.observe("orders.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)

		if err != nil {
			return err
		}

		defer rows.Close()

		out = make([]order.Order, 0, f.Limit)

		for rows.Next() {
			var o order.Order
			var t int

			err = rows.Scan(&o.ID, &o.Title, &o.Description, &o.Price, &o.OrderNumber, &o.Status, &o.UserID, &o.CreatedAt, &o.UpdatedAt, &t)

			if err != nil {
				return err
			}

			total = t
			out = append(out, o)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

func (r *OrdersRepo) GetByID(ctx context.Context, id string) (order.Order, error) {
	var o order.Order

	err := r.observe("orders.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, title, description, price, order_number, status, user_id, created_at, updated_at
			FROM orders WHERE id = $1`,
			id,
		).Scan(&o.ID, &o.Title, &o.Description, &o.Price, &o.OrderNumber, &o.Status, &o.UserID, &o.CreatedAt, &o.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, order.ErrNotFound
		}

		return order.Order{}, err
	}

	return o, nil
}

func (r *OrdersRepo) Update(ctx context.Context, id string, req order.UpdateOrderRequest) (order.Order, error) {
	var o order.Order

	err := r.observe("orders.update", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE orders
				SET title = $2,
					description = $3,
					price = $4,
					status = $5,
					updated_at = NOW()
			WHERE id = $1
			RETURNING id, title, description, price, order_number, status, user_id, created_at, updated_at`,
			id,
			req.Title,
			req.Description,
			req.Price,
			req.Status,
		).Scan(&o.ID, &o.Title, &o.Description, &o.Price, &o.OrderNumber, &o.Status, &o.UserID, &o.CreatedAt, &o.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, order.ErrNotFound
		}

		return order.Order{}, err
	}

	return o, nil
}

func (r *OrdersRepo) Delete(ctx context.Context, id string) error {
	return r.observe("orders.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return order.ErrNotFound
		}

		return nil
	})
}

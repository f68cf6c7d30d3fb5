package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lapeslabs/foodhub/internal/domain/menu"
	"github.com/lapeslabs/foodhub/internal/observability"
)

type MenuRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewMenuRepo(pool *pgxpool.Pool, prom *observability.Prom) *MenuRepo {
	return &MenuRepo{pool: pool, prom: prom}
}

func (r *MenuRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *MenuRepo) CreateCategory(ctx context.Context, req menu.CreateCategoryRequest) (menu.Category, error) {
	c := menu.NewCategoryFromRequest(req)

	err := r.observe("menu.create_category", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO menu_categories (id, name, description, created_at)
			VALUES ($1,$2,$3,$4)`,
			c.ID, c.Name, c.Description, c.CreatedAt,
		)
		return e
	})

	if err != nil {
		return menu.Category{}, err
	}

	return c, nil
}

func (r *MenuRepo) ListCategories(ctx context.Context) ([]menu.Category, error) {
	var out []menu.Category

	err := r.observe("menu.list_categories", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, name, description, created_at FROM menu_categories ORDER BY name ASC`,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var c menu.Category

			err = rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)

			if err != nil {
				return err
			}

			out = append(out, c)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *MenuRepo) DeleteCategory(ctx context.Context, id string) error {
	return r.observe("menu.delete_category", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM menu_categories WHERE id = $1`, id)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return menu.ErrCategoryNotFound
		}

		return nil
	})
}

func (r *MenuRepo) CreateItem(ctx context.Context, req menu.CreateItemRequest) (menu.Item, error) {
	it := menu.NewItemFromRequest(req)

	err := r.observe("menu.create_item", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO menu_items (id, category_id, name, description, price, is_available, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			it.ID, it.CategoryID, it.Name, it.Description, it.Price, it.IsAvailable, it.CreatedAt, it.UpdatedAt,
		)
		return e
	})

	if err != nil {
		var pgErr *pgconn.PgError

		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return menu.Item{}, menu.ErrCategoryNotFound
		}

		return menu.Item{}, err
	}

	return it, nil
}

func (r *MenuRepo) GetItemByID(ctx context.Context, id string) (menu.Item, error) {
	var it menu.Item

	err := r.observe("menu.get_item", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, category_id, name, description, price, is_available, created_at, updated_at
			FROM menu_items WHERE id = $1`,
			id,
		).Scan(&it.ID, &it.CategoryID, &it.Name, &it.Description, &it.Price, &it.IsAvailable, &it.CreatedAt, &it.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return menu.Item{}, menu.ErrItemNotFound
		}

		return menu.Item{}, err
	}

	return it, nil
}

func (r *MenuRepo) UpdateItem(ctx context.Context, id string, req menu.UpdateItemRequest) (menu.Item, error) {
	var it menu.Item

	available := req.IsAvailable == nil || *req.IsAvailable

	err := r.observe("menu.update_item", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE menu_items
				SET name = $2,
					description = $3,
					price = $4,
					is_available = $5,
					updated_at = NOW()
			WHERE id = $1
			RETURNING id, category_id, name, description, price, is_available, created_at, updated_at`,
			id, req.Name, req.Description, req.Price, available,
		).Scan(&it.ID, &it.CategoryID, &it.Name, &it.Description, &it.Price, &it.IsAvailable, &it.CreatedAt, &it.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return menu.Item{}, menu.ErrItemNotFound
		}

		return menu.Item{}, err
	}

	return it, nil
}

func (r *MenuRepo) DeleteItem(ctx context.Context, id string) error {
	return r.observe("menu.delete_item", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return menu.ErrItemNotFound
		}

		return nil
	})
}

// ListMenu returns every category with its items, the shape served publicly.
func (r *MenuRepo) ListMenu(ctx context.Context) ([]menu.CategoryWithItems, error) {
	cats, err := r.ListCategories(ctx)

	if err != nil {
		return nil, err
	}

	byCategory := make(map[string][]menu.Item, len(cats))

	err = r.observe("menu.list_items", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, category_id, name, description, price, is_available, created_at, updated_at
			FROM menu_items
			ORDER BY name ASC`,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var it menu.Item

			err = rows.Scan(&it.ID, &it.CategoryID, &it.Name, &it.Description, &it.Price, &it.IsAvailable, &it.CreatedAt, &it.UpdatedAt)

			if err != nil {
				return err
			}

			byCategory[it.CategoryID] = append(byCategory[it.CategoryID], it)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	out := make([]menu.CategoryWithItems, 0, len(cats))

	for _, c := range cats {
		items := byCategory[c.ID]

		if items == nil {
			items = []menu.Item{}
		}

		out = append(out, menu.CategoryWithItems{Category: c, Items: items})
	}

	return out, nil
}

package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kitbazar/kitbazar/internal/models"
)

type BadgeStore struct {
	pool *pgxpool.Pool
}

func NewBadgeStore(pool *pgxpool.Pool) *BadgeStore {
	return &BadgeStore{pool: pool}
}

func (s *BadgeStore) List(ctx context.Context) ([]models.Badge, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, price::text, image FROM badges ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	defer rows.Close()

	var badges []models.Badge
	for rows.Next() {
		var (
			badge models.Badge
			price string
		)
		if err := rows.Scan(&badge.ID, &badge.Name, &price, &badge.Image); err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		if badge.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("badge %s price: %w", badge.ID, err)
		}
		badges = append(badges, badge)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	return badges, nil
}

func (s *BadgeStore) Upsert(ctx context.Context, badge models.Badge) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO badges (id, name, price, image)
		VALUES ($1, $2, $3::numeric, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price, image = EXCLUDED.image`,
		badge.ID, badge.Name, badge.Price.String(), badge.Image)
	if err != nil {
		return fmt.Errorf("failed to upsert badge %s: %w", badge.ID, err)
	}
	return nil
}

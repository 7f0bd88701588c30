package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/AnitBishwas/swiss-event-handler/internal/serviceerrs"
)

// Shop is one installed store with its offline API credentials.
type Shop struct {
	Domain      string
	AccessToken string
	InstalledAt time.Time
}

// ShopRepository is the offline credential store the commerce client
// reads its access tokens from.
type ShopRepository struct {
	pool connectionPool
	log  *slog.Logger
}

func NewShopRepository(pool connectionPool, log *slog.Logger) *ShopRepository {
	return &ShopRepository{
		pool: pool,
		log:  log,
	}
}

// AccessToken implements shopify.TokenSource.
func (r *ShopRepository) AccessToken(ctx context.Context, domain string) (string, error) {
	query := func() (string, error) {
		var token string
		err := r.pool.QueryRow(ctx,
			`SELECT access_token FROM shops WHERE domain = $1`,
			domain,
		).Scan(&token)
		if errors.Is(err, pgx.ErrNoRows) {
			return "", serviceerrs.ErrShopNotFound
		}
		if err != nil {
			return "", fmt.Errorf("failed to query shop %s: %w", domain, err)
		}
		return token, nil
	}

	token, err := WithRetry[string](query, 0)
	if err != nil {
		return "", err //nolint: wrapcheck // error from wrapped function
	}
	return token, nil
}

func (r *ShopRepository) Upsert(ctx context.Context, shop Shop) error {
	upsert := func() (struct{}, error) {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO shops (domain, access_token)
			 VALUES ($1, $2)
			 ON CONFLICT (domain) DO UPDATE SET access_token = EXCLUDED.access_token`,
			shop.Domain, shop.AccessToken,
		)
		if err != nil {
			return struct{}{}, fmt.Errorf("failed to upsert shop %s: %w", shop.Domain, err)
		}
		return struct{}{}, nil
	}

	if _, err := WithRetry[struct{}](upsert, 0); err != nil {
		return err //nolint: wrapcheck // error from wrapped function
	}
	return nil
}

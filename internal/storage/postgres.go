// Package storage persists products in PostgreSQL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sjsage522/alkotekaworker/internal/codec"
	"sjsage522/alkotekaworker/internal/item"
	"sjsage522/alkotekaworker/logger"
	apperrors "sjsage522/alkotekaworker/pkg/errors"
)

const provider = "postgres"

// ErrNotFound is returned by Get for an unknown RPC
var ErrNotFound = errors.New("product not found")

const schema = `
CREATE TABLE IF NOT EXISTS products (
	rpc            TEXT PRIMARY KEY,
	url            TEXT NOT NULL,
	title          TEXT NOT NULL,
	brand          TEXT NOT NULL DEFAULT '',
	marketing_tags JSONB NOT NULL DEFAULT '[]',
	section        JSONB NOT NULL DEFAULT '[]',
	price_current  DOUBLE PRECISION NOT NULL,
	price_original DOUBLE PRECISION NOT NULL,
	sale_tag       TEXT NOT NULL DEFAULT '',
	in_stock       BOOLEAN NOT NULL,
	stock_count    INTEGER NOT NULL,
	assets         JSONB NOT NULL DEFAULT '{}',
	metadata       JSONB NOT NULL DEFAULT '{}',
	variants       INTEGER NOT NULL DEFAULT 1,
	crawled_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const upsert = `
INSERT INTO products (rpc, url, title, brand, marketing_tags, section, price_current, price_original,
	sale_tag, in_stock, stock_count, assets, metadata, variants, crawled_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (rpc) DO UPDATE SET
	url = EXCLUDED.url,
	title = EXCLUDED.title,
	brand = EXCLUDED.brand,
	marketing_tags = EXCLUDED.marketing_tags,
	section = EXCLUDED.section,
	price_current = EXCLUDED.price_current,
	price_original = EXCLUDED.price_original,
	sale_tag = EXCLUDED.sale_tag,
	in_stock = EXCLUDED.in_stock,
	stock_count = EXCLUDED.stock_count,
	assets = EXCLUDED.assets,
	metadata = EXCLUDED.metadata,
	variants = EXCLUDED.variants,
	crawled_at = EXCLUDED.crawled_at,
	updated_at = NOW();`

// ProductStore upserts products keyed by RPC
type ProductStore struct {
	db    *pgxpool.Pool
	codec codec.Codec
	log   *logger.Logger
}

// NewProductStore connects to connStr
func NewProductStore(ctx context.Context, connStr string, c codec.Codec) (*ProductStore, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, apperrors.NewStorage(provider, "unable to connect to database", err)
	}
	if c == nil {
		c = codec.Std{}
	}
	return &ProductStore{db: db, codec: c, log: logger.ForStore()}, nil
}

func (s *ProductStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// EnsureSchema creates the products table when missing
func (s *ProductStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return apperrors.NewStorage(provider, "create schema", err)
	}
	return nil
}

func (s *ProductStore) Name() string { return provider }

// Write inserts p or refreshes the stored row with the same RPC
func (s *ProductStore) Write(ctx context.Context, p item.Product) error {
	tags, err := s.codec.Marshal(p.MarketingTags)
	if err != nil {
		return err
	}
	section, err := s.codec.Marshal(p.Section)
	if err != nil {
		return err
	}
	assets, err := s.codec.Marshal(p.Assets)
	if err != nil {
		return err
	}
	metadata, err := s.codec.Marshal(p.Metadata)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, upsert,
		p.RPC,
		p.URL,
		p.Title,
		p.Brand,
		tags,
		section,
		p.PriceData.Current,
		p.PriceData.Original,
		p.PriceData.SaleTag,
		p.Stock.InStock,
		p.Stock.Count,
		assets,
		metadata,
		p.Variants,
		time.Unix(p.Timestamp, 0).UTC(),
	)
	if err != nil {
		return apperrors.NewStorage(provider, "upsert product "+p.RPC, err)
	}
	return nil
}

// Get loads the stored product with the given RPC
func (s *ProductStore) Get(ctx context.Context, rpc string) (item.Product, error) {
	var (
		p         item.Product
		crawledAt time.Time

		tags, section, assets, metadata []byte
	)
	err := s.db.QueryRow(ctx, `
		SELECT rpc, url, title, brand, marketing_tags, section, price_current, price_original,
			sale_tag, in_stock, stock_count, assets, metadata, variants, crawled_at
		FROM products WHERE rpc = $1`, rpc).Scan(
		&p.RPC,
		&p.URL,
		&p.Title,
		&p.Brand,
		&tags,
		&section,
		&p.PriceData.Current,
		&p.PriceData.Original,
		&p.PriceData.SaleTag,
		&p.Stock.InStock,
		&p.Stock.Count,
		&assets,
		&metadata,
		&p.Variants,
		&crawledAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return item.Product{}, ErrNotFound
	}
	if err != nil {
		return item.Product{}, apperrors.NewStorage(provider, "select product "+rpc, err)
	}

	for _, part := range []struct {
		raw []byte
		dst any
	}{
		{tags, &p.MarketingTags},
		{section, &p.Section},
		{assets, &p.Assets},
		{metadata, &p.Metadata},
	} {
		if err := s.codec.Unmarshal(part.raw, part.dst); err != nil {
			return item.Product{}, fmt.Errorf("decode product %s: %w", rpc, err)
		}
	}
	p.Timestamp = crawledAt.Unix()
	return p, nil
}

// Flush is a no-op; every Write is committed on its own
func (s *ProductStore) Flush(context.Context) error { return nil }

func (s *ProductStore) Close() error {
	s.db.Close()
	return nil
}

package importer

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists imported transactions and the product catalog.
type Repository interface {
	TrackedProducts(ctx context.Context) (map[string]bool, error)
	UpsertProducts(ctx context.Context, products []Product) (discovered int, err error)
	InsertTransactions(ctx context.Context, txs []Transaction) (inserted int, err error)
	LogImport(ctx context.Context, s Summary) error
	History(ctx context.Context, limit int) ([]Record, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Postgres-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) TrackedProducts(ctx context.Context) (map[string]bool, error) {
	rows, err := r.pool.Query(ctx, `SELECT product_id, is_tracked FROM all_products`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	tracked := make(map[string]bool)
	for rows.Next() {
		var id string
		var isTracked bool
		if err := rows.Scan(&id, &isTracked); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		tracked[id] = isTracked
	}
	return tracked, rows.Err()
}

// UpsertProducts registers every product seen in the file. New products are
// counted as discovered; known ones only refresh their last_seen_at.
func (r *pgRepository) UpsertProducts(ctx context.Context, products []Product) (int, error) {
	discovered := 0
	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(`
			INSERT INTO all_products (product_id, product_name, msfs_version, is_tracked, first_seen_at, last_seen_at)
			VALUES ($1, $2, $3, FALSE, now(), now())
			ON CONFLICT (product_id) DO UPDATE
			SET product_name = EXCLUDED.product_name, last_seen_at = now()
			RETURNING (xmax = 0)`,
			p.ProductID, p.ProductName, p.MSFSVersion)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range products {
		var isNew bool
		if err := results.QueryRow().Scan(&isNew); err != nil {
			return discovered, fmt.Errorf("upsert product: %w", err)
		}
		if isNew {
			discovered++
		}
	}
	return discovered, nil
}

// InsertTransactions inserts a batch, skipping rows whose earning id was
// already imported. The returned count covers only freshly inserted rows.
func (r *pgRepository) InsertTransactions(ctx context.Context, txs []Transaction) (int, error) {
	inserted := 0
	batch := &pgx.Batch{}
	for _, t := range txs {
		batch.Queue(`
			INSERT INTO transactions (earning_id, product_id, lever, country_code, transaction_date, amount, msfs_version, batch_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (earning_id) DO NOTHING`,
			t.EarningID, t.ProductID, t.Lever, t.CountryCode, t.Date, t.Amount, t.MSFSVersion, t.BatchID)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range txs {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("insert transaction: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func (r *pgRepository) LogImport(ctx context.Context, s Summary) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO import_logs (import_id, filename, rows_read, products_discovered,
			transactions_inserted, transactions_skipped, transactions_untracked, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())`,
		s.ImportID, s.Filename, s.RowsRead, s.ProductsDiscovered,
		s.TransactionsInserted, s.TransactionsSkipped, s.TransactionsUntracked, s.Status)
	if err != nil {
		return fmt.Errorf("log import: %w", err)
	}
	return nil
}

func (r *pgRepository) History(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT import_id, filename, rows_read, products_discovered,
			transactions_inserted, transactions_skipped, transactions_untracked, status, created_at
		FROM import_logs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query import history: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ImportID, &rec.Filename, &rec.RowsRead, &rec.ProductsDiscovered,
			&rec.TransactionsInserted, &rec.TransactionsSkipped, &rec.TransactionsUntracked,
			&rec.Status, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan import record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

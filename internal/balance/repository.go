package balance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kampfth/partner-center/internal/platform/db"
)

// Sentinel errors shared by the repository and its callers.
var (
	ErrNotFound  = errors.New("balance: record not found")
	ErrDuplicate = errors.New("balance: duplicate record")
)

const sortOrderSetting = "balance_sort_order"

// Repository defines balance data access.
type Repository interface {
	Partners(ctx context.Context) ([]Partner, error)
	ReplacePartners(ctx context.Context, partners []Partner) error

	RevenueLines(ctx context.Context, year int) ([]RevenueLine, error)
	Expenses(ctx context.Context, year int) ([]Expense, error)
	Withdrawals(ctx context.Context, year int) ([]Withdrawal, error)
	Adjustments(ctx context.Context, year int) ([]Adjustment, error)
	InitialCash(ctx context.Context, year int) (*InitialCash, error)
	SortOrder(ctx context.Context) ([]string, error)
	Years(ctx context.Context) ([]int, error)

	CreateExpense(ctx context.Context, e Expense) (int64, error)
	UpdateExpense(ctx context.Context, e Expense) error
	DeleteExpense(ctx context.Context, id int64) error

	CreateWithdrawal(ctx context.Context, w Withdrawal) (int64, error)
	UpdateWithdrawal(ctx context.Context, w Withdrawal) error
	DeleteWithdrawal(ctx context.Context, id int64) error

	CreateAdjustment(ctx context.Context, a Adjustment) (int64, error)
	UpdateAdjustment(ctx context.Context, a Adjustment) error
	DeleteAdjustment(ctx context.Context, id int64) error

	UpsertInitialCash(ctx context.Context, ic InitialCash) error
	SetSortOrder(ctx context.Context, names []string) error
}

var _ Repository = (*pgRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a Postgres-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) Partners(ctx context.Context) ([]Partner, error) {
	rows, err := r.pool.Query(ctx, "SELECT id, name, share FROM partners ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("balance: list partners: %w", err)
	}
	defer rows.Close()

	var partners []Partner
	for rows.Next() {
		var p Partner
		if err := rows.Scan(&p.ID, &p.Name, &p.Share); err != nil {
			return nil, err
		}
		partners = append(partners, p)
	}
	return partners, rows.Err()
}

func (r *pgRepository) ReplacePartners(ctx context.Context, partners []Partner) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM partners"); err != nil {
			return fmt.Errorf("balance: clear partners: %w", err)
		}
		for _, p := range partners {
			if _, err := tx.Exec(ctx,
				"INSERT INTO partners (id, name, share) VALUES ($1, $2, $3)",
				p.ID, p.Name, p.Share,
			); err != nil {
				return mapPgError(err)
			}
		}
		return nil
	})
}

// RevenueLines aggregates tracked transactions into one line per product or
// group display name with per-month sums. Products assigned to a group
// roll up under the group's name; the two kinds share one namespace.
func (r *pgRepository) RevenueLines(ctx context.Context, year int) ([]RevenueLine, error) {
	start, _ := MonthRange(year, 1)
	_, end := MonthRange(year, 12)

	const query = `
SELECT COALESCE(g.name, p.product_name)                       AS display_name,
       CASE WHEN g.id IS NULL THEN 'Product' ELSE 'Group' END AS kind,
       to_char(t.transaction_date, 'YYYY-MM')                 AS month,
       COALESCE(SUM(t.transaction_amount), 0)                 AS amount
FROM transactions t
JOIN all_products p ON p.product_id = t.product_id
LEFT JOIN product_group_members m ON m.product_id = p.product_id
LEFT JOIN product_groups g ON g.id = m.group_id
WHERE p.is_tracked AND t.transaction_date BETWEEN $1 AND $2
GROUP BY 1, 2, 3`

	rows, err := r.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("balance: revenue lines: %w", err)
	}
	defer rows.Close()

	byKey := make(map[string]*RevenueLine)
	var order []string
	for rows.Next() {
		var name, kind, month string
		var amount float64
		if err := rows.Scan(&name, &kind, &month, &amount); err != nil {
			return nil, err
		}
		line, ok := byKey[name]
		if !ok {
			line = &RevenueLine{Key: name, Kind: LineKind(kind), ByMonth: make(map[string]float64)}
			byKey[name] = line
			order = append(order, name)
		}
		line.ByMonth[month] += amount
		line.YearTotal += amount
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lines := make([]RevenueLine, 0, len(order))
	for _, name := range order {
		lines = append(lines, *byKey[name])
	}
	return lines, nil
}

func (r *pgRepository) Expenses(ctx context.Context, year int) ([]Expense, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, year_month, category, name, amount
		 FROM balance_expenses
		 WHERE year_month BETWEEN $1 AND $2
		 ORDER BY year_month, id`,
		fmt.Sprintf("%d-01", year), fmt.Sprintf("%d-12", year),
	)
	if err != nil {
		return nil, fmt.Errorf("balance: list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.YearMonth, &e.Category, &e.Name, &e.Amount); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (r *pgRepository) Withdrawals(ctx context.Context, year int) ([]Withdrawal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, year_month, partner_id, amount, COALESCE(note, '')
		 FROM balance_withdrawals
		 WHERE year_month BETWEEN $1 AND $2
		 ORDER BY year_month, id`,
		fmt.Sprintf("%d-01", year), fmt.Sprintf("%d-12", year),
	)
	if err != nil {
		return nil, fmt.Errorf("balance: list withdrawals: %w", err)
	}
	defer rows.Close()

	var withdrawals []Withdrawal
	for rows.Next() {
		var w Withdrawal
		if err := rows.Scan(&w.ID, &w.YearMonth, &w.PartnerID, &w.Amount, &w.Note); err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, w)
	}
	return withdrawals, rows.Err()
}

func (r *pgRepository) Adjustments(ctx context.Context, year int) ([]Adjustment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, year_month, name, amount
		 FROM balance_revenue_adjustments
		 WHERE year_month BETWEEN $1 AND $2
		 ORDER BY year_month, id`,
		fmt.Sprintf("%d-01", year), fmt.Sprintf("%d-12", year),
	)
	if err != nil {
		return nil, fmt.Errorf("balance: list adjustments: %w", err)
	}
	defer rows.Close()

	var adjustments []Adjustment
	for rows.Next() {
		var a Adjustment
		if err := rows.Scan(&a.ID, &a.YearMonth, &a.Name, &a.Amount); err != nil {
			return nil, err
		}
		adjustments = append(adjustments, a)
	}
	return adjustments, rows.Err()
}

func (r *pgRepository) InitialCash(ctx context.Context, year int) (*InitialCash, error) {
	var ic InitialCash
	err := r.pool.QueryRow(ctx,
		"SELECT year, amount, COALESCE(note, '') FROM balance_initial_cash WHERE year = $1",
		year,
	).Scan(&ic.Year, &ic.Amount, &ic.Note)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("balance: initial cash: %w", err)
	}
	return &ic, nil
}

func (r *pgRepository) SortOrder(ctx context.Context) ([]string, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx,
		"SELECT value FROM settings WHERE key = $1", sortOrderSetting,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("balance: sort order: %w", err)
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, fmt.Errorf("balance: decode sort order: %w", err)
	}
	return names, nil
}

func (r *pgRepository) Years(ctx context.Context) ([]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT EXTRACT(YEAR FROM transaction_date)::int AS year
		 FROM transactions ORDER BY year`,
	)
	if err != nil {
		return nil, fmt.Errorf("balance: list years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

func (r *pgRepository) CreateExpense(ctx context.Context, e Expense) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO balance_expenses (year_month, category, name, amount)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		e.YearMonth, e.Category, e.Name, e.Amount,
	).Scan(&id)
	if err != nil {
		return 0, mapPgError(err)
	}
	return id, nil
}

func (r *pgRepository) UpdateExpense(ctx context.Context, e Expense) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE balance_expenses SET year_month = $2, category = $3, name = $4, amount = $5
		 WHERE id = $1`,
		e.ID, e.YearMonth, e.Category, e.Name, e.Amount,
	)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepository) DeleteExpense(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM balance_expenses WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepository) CreateWithdrawal(ctx context.Context, w Withdrawal) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO balance_withdrawals (year_month, partner_id, amount, note)
		 VALUES ($1, $2, $3, NULLIF($4, '')) RETURNING id`,
		w.YearMonth, w.PartnerID, w.Amount, w.Note,
	).Scan(&id)
	if err != nil {
		return 0, mapPgError(err)
	}
	return id, nil
}

func (r *pgRepository) UpdateWithdrawal(ctx context.Context, w Withdrawal) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE balance_withdrawals SET year_month = $2, partner_id = $3, amount = $4, note = NULLIF($5, '')
		 WHERE id = $1`,
		w.ID, w.YearMonth, w.PartnerID, w.Amount, w.Note,
	)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepository) DeleteWithdrawal(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM balance_withdrawals WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepository) CreateAdjustment(ctx context.Context, a Adjustment) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO balance_revenue_adjustments (year_month, name, amount)
		 VALUES ($1, $2, $3) RETURNING id`,
		a.YearMonth, a.Name, a.Amount,
	).Scan(&id)
	if err != nil {
		return 0, mapPgError(err)
	}
	return id, nil
}

func (r *pgRepository) UpdateAdjustment(ctx context.Context, a Adjustment) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE balance_revenue_adjustments SET year_month = $2, name = $3, amount = $4
		 WHERE id = $1`,
		a.ID, a.YearMonth, a.Name, a.Amount,
	)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepository) DeleteAdjustment(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM balance_revenue_adjustments WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepository) UpsertInitialCash(ctx context.Context, ic InitialCash) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO balance_initial_cash (year, amount, note)
		 VALUES ($1, $2, NULLIF($3, ''))
		 ON CONFLICT (year) DO UPDATE SET amount = EXCLUDED.amount, note = EXCLUDED.note`,
		ic.Year, ic.Amount, ic.Note,
	)
	return err
}

func (r *pgRepository) SetSortOrder(ctx context.Context, names []string) error {
	raw, err := json.Marshal(names)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO settings (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		sortOrderSetting, raw,
	)
	return err
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

package balance

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Service assembles raw records for a fiscal year, runs the reconciliation
// pipeline, and caches the computed ledger. Record writes invalidate the
// cache so the next read recomputes.
type Service struct {
	repo  Repository
	cache *Cache
}

// NewService wires a Repository with a Cache helper.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// GetYear returns the computed ledger for one fiscal year, from cache when
// possible.
func (s *Service) GetYear(ctx context.Context, year int) (*Year, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		return s.buildYear(ctx, year)
	}

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		return value.(*Year), nil
	}

	key, err := s.cache.BuildKey(ctx, keyYear(year)...)
	if err != nil {
		return nil, err
	}
	var y Year
	if err := s.cache.FetchJSON(ctx, key, &y, loader); err != nil {
		return nil, err
	}
	return &y, nil
}

// buildYear fans out the per-year queries, normalizes the raw records, and
// runs the engine. The queries are independent, so they run concurrently;
// the computation itself is synchronous and owns its output.
func (s *Service) buildYear(ctx context.Context, year int) (*Year, error) {
	var raw RawInputs
	raw.Year = year

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		raw.Partners, err = s.repo.Partners(gctx)
		return err
	})
	g.Go(func() (err error) {
		raw.RevenueLines, err = s.repo.RevenueLines(gctx, year)
		return err
	})
	g.Go(func() (err error) {
		raw.Expenses, err = s.repo.Expenses(gctx, year)
		return err
	})
	g.Go(func() (err error) {
		raw.Withdrawals, err = s.repo.Withdrawals(gctx, year)
		return err
	})
	g.Go(func() (err error) {
		raw.Adjustments, err = s.repo.Adjustments(gctx, year)
		return err
	})
	g.Go(func() (err error) {
		raw.InitialCash, err = s.repo.InitialCash(gctx, year)
		return err
	})
	g.Go(func() (err error) {
		raw.SortOrder, err = s.repo.SortOrder(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	clean, warnings := Normalize(raw)
	return ComputeFromClean(clean, warnings), nil
}

// Years lists fiscal years with imported transactions.
func (s *Service) Years(ctx context.Context) ([]int, error) {
	return s.repo.Years(ctx)
}

// SortOrder returns the configured revenue line ordering.
func (s *Service) SortOrder(ctx context.Context) (SortOrder, error) {
	names, err := s.repo.SortOrder(ctx)
	if err != nil {
		return SortOrder{}, err
	}
	if names == nil {
		names = []string{}
	}
	return SortOrder{Value: names}, nil
}

// SetSortOrder replaces the revenue line ordering.
func (s *Service) SetSortOrder(ctx context.Context, names []string) error {
	if err := s.repo.SetSortOrder(ctx, names); err != nil {
		return err
	}
	return s.cache.Bump(ctx)
}

// Partners lists the configured partners.
func (s *Service) Partners(ctx context.Context) ([]Partner, error) {
	return s.repo.Partners(ctx)
}

// ReplacePartners swaps the partner set.
func (s *Service) ReplacePartners(ctx context.Context, partners []Partner) error {
	if err := s.repo.ReplacePartners(ctx, partners); err != nil {
		return err
	}
	return s.cache.Bump(ctx)
}

// CreateExpense records a new expense and invalidates cached ledgers.
func (s *Service) CreateExpense(ctx context.Context, e Expense) (int64, error) {
	id, err := s.repo.CreateExpense(ctx, e)
	if err != nil {
		return 0, err
	}
	return id, s.cache.Bump(ctx)
}

// UpdateExpense rewrites an expense record.
func (s *Service) UpdateExpense(ctx context.Context, e Expense) error {
	if err := s.repo.UpdateExpense(ctx, e); err != nil {
		return err
	}
	return s.cache.Bump(ctx)
}

// DeleteExpense removes an expense record.
func (s *Service) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.repo.DeleteExpense(ctx, id); err != nil {
		return err
	}
	return s.cache.Bump(ctx)
}

// CreateWithdrawal records a partner withdrawal.
func (s *Service) CreateWithdrawal(ctx context.Context, w Withdrawal) (int64, error) {
	id, err := s.repo.CreateWithdrawal(ctx, w)
	if err != nil {
		return 0, err
	}
	return id, s.cache.Bump(ctx)
}

// UpdateWithdrawal rewrites a withdrawal record.
func (s *Service) UpdateWithdrawal(ctx context.Context, w Withdrawal) error {
	if err := s.repo.UpdateWithdrawal(ctx, w); err != nil {
		return err
	}
	return s.cache.Bump(ctx)
}

// DeleteWithdrawal removes a withdrawal record.
func (s *Service) DeleteWithdrawal(ctx context.Context, id int64) error {
	if err := s.repo.DeleteWithdrawal(ctx, id); err != nil {
		return err
	}
	return s.cache.Bump(ctx)
}

// CreateAdjustment records a manual revenue adjustment.
func (s *Service) CreateAdjustment(ctx context.Context, a Adjustment) (int64, error) {
	id, err := s.repo.CreateAdjustment(ctx, a)
	if err != nil {
		return 0, err
	}
	return id, s.cache.Bump(ctx)
}

// UpdateAdjustment rewrites a manual revenue adjustment.
func (s *Service) UpdateAdjustment(ctx context.Context, a Adjustment) error {
	if err := s.repo.UpdateAdjustment(ctx, a); err != nil {
		return err
	}
	return s.cache.Bump(ctx)
}

// DeleteAdjustment removes a manual revenue adjustment.
func (s *Service) DeleteAdjustment(ctx context.Context, id int64) error {
	if err := s.repo.DeleteAdjustment(ctx, id); err != nil {
		return err
	}
	return s.cache.Bump(ctx)
}

// SetInitialCash upserts the carry-forward cash for a year.
func (s *Service) SetInitialCash(ctx context.Context, ic InitialCash) error {
	if err := s.repo.UpsertInitialCash(ctx, ic); err != nil {
		return err
	}
	return s.cache.Bump(ctx)
}

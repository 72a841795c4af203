package importer

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kampfth/partner-center/internal/observability"
)

// batchSize bounds how many rows are flushed to the database at once, so a
// large export never holds one giant batch in flight.
const batchSize = 500

// maxZipEntries caps how many CSV files a single archive may carry.
const maxZipEntries = 50

// CacheBumper invalidates cached ledgers after a successful import.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// WarmEnqueuer schedules a ledger recompute after new rows land.
type WarmEnqueuer interface {
	EnqueueBalanceWarm(ctx context.Context) error
}

// Service runs Partner Center earnings imports.
type Service struct {
	repo    Repository
	cache   CacheBumper
	warm    WarmEnqueuer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewService wires the import pipeline. Warm and metrics may be nil in tests.
func NewService(repo Repository, cache CacheBumper, warm WarmEnqueuer, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{repo: repo, cache: cache, warm: warm, logger: logger, metrics: metrics}
}

// ProcessUpload imports one uploaded file, which may be a single CSV or a
// ZIP archive of CSVs. The import is recorded in the history log whatever
// the outcome; computed ledgers are invalidated only when rows landed.
func (s *Service) ProcessUpload(ctx context.Context, filename string, r io.Reader) (Summary, error) {
	summary := Summary{
		ImportID: uuid.NewString(),
		Filename: filename,
		Errors:   []string{},
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return summary, fmt.Errorf("read upload: %w", err)
	}

	tracked, err := s.repo.TrackedProducts(ctx)
	if err != nil {
		return summary, err
	}

	if strings.HasSuffix(strings.ToLower(filename), ".zip") {
		err = s.importArchive(ctx, data, tracked, &summary)
	} else {
		err = s.importCSV(ctx, data, tracked, &summary)
	}

	switch {
	case err != nil:
		summary.Status = StatusFailed
		summary.Errors = append(summary.Errors, err.Error())
	case len(summary.Errors) > 0:
		summary.Status = StatusPartial
	default:
		summary.Status = StatusCompleted
	}

	if logErr := s.repo.LogImport(ctx, summary); logErr != nil {
		s.logger.Error("record import log", "import_id", summary.ImportID, "error", logErr)
	}
	if err != nil {
		return summary, err
	}

	if summary.TransactionsInserted > 0 || summary.ProductsDiscovered > 0 {
		if bumpErr := s.cache.Bump(ctx); bumpErr != nil {
			s.logger.Error("invalidate ledger cache", "import_id", summary.ImportID, "error", bumpErr)
		}
		if s.warm != nil {
			if warmErr := s.warm.EnqueueBalanceWarm(ctx); warmErr != nil {
				s.logger.Error("enqueue ledger warm", "import_id", summary.ImportID, "error", warmErr)
			}
		}
	}

	s.metrics.CountImportRows("inserted", summary.TransactionsInserted)
	s.metrics.CountImportRows("skipped", summary.TransactionsSkipped)
	s.metrics.CountImportRows("untracked", summary.TransactionsUntracked)

	s.logger.Info("import finished",
		"import_id", summary.ImportID,
		"filename", summary.Filename,
		"rows_read", summary.RowsRead,
		"inserted", summary.TransactionsInserted,
		"skipped", summary.TransactionsSkipped,
		"untracked", summary.TransactionsUntracked,
		"discovered", summary.ProductsDiscovered,
	)
	return summary, nil
}

// History lists recent imports, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]Record, error) {
	return s.repo.History(ctx, limit)
}

func (s *Service) importArchive(ctx context.Context, data []byte, tracked map[string]bool, summary *Summary) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	entries := 0
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(strings.ToLower(f.Name), ".csv") {
			continue
		}
		if strings.Contains(f.Name, "..") {
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: suspicious entry name, skipped", f.Name))
			continue
		}
		entries++
		if entries > maxZipEntries {
			return fmt.Errorf("archive holds more than %d csv files", maxZipEntries)
		}

		rc, err := f.Open()
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", f.Name, err))
			continue
		}
		entryData, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", f.Name, err))
			continue
		}
		if err := s.importCSV(ctx, entryData, tracked, summary); err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
	}
	if entries == 0 {
		return fmt.Errorf("archive holds no csv files")
	}
	return nil
}

func (s *Service) importCSV(ctx context.Context, data []byte, tracked map[string]bool, summary *Summary) error {
	reader := csv.NewReader(bytes.NewReader(DecodeText(data)))
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	cols := MapHeaders(headers)
	if _, ok := cols["earning_id"]; !ok {
		return fmt.Errorf("missing earning id column")
	}

	batchID := uuid.NewString()
	var pending []Transaction
	products := make(map[string]Product)

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		inserted, err := s.repo.InsertTransactions(ctx, pending)
		summary.TransactionsInserted += inserted
		summary.TransactionsSkipped += len(pending) - inserted
		pending = pending[:0]
		return err
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("row %d: %v", summary.RowsRead+1, err))
			continue
		}
		summary.RowsRead++

		row := ExtractRow(record, cols)
		if !row.Valid() {
			summary.Errors = append(summary.Errors, fmt.Sprintf("row %d: missing product, earning id, or date", summary.RowsRead))
			continue
		}
		date, ok := normalizeDate(row.Date)
		if !ok {
			summary.Errors = append(summary.Errors, fmt.Sprintf("row %d: unparseable date %q", summary.RowsRead, row.Date))
			continue
		}

		if _, seen := products[row.ProductID]; !seen {
			products[row.ProductID] = Product{
				ProductID:   row.ProductID,
				ProductName: row.ProductName,
				MSFSVersion: row.MSFSVersion,
			}
		}
		if !tracked[row.ProductID] {
			summary.TransactionsUntracked++
			continue
		}

		pending = append(pending, Transaction{
			EarningID:   row.EarningID,
			ProductID:   row.ProductID,
			Lever:       row.Lever,
			CountryCode: row.CountryCode,
			Date:        date,
			Amount:      row.Amount,
			MSFSVersion: row.MSFSVersion,
			BatchID:     batchID,
		})
		if len(pending) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	if len(products) > 0 {
		list := make([]Product, 0, len(products))
		for _, p := range products {
			list = append(list, p)
		}
		discovered, err := s.repo.UpsertProducts(ctx, list)
		summary.ProductsDiscovered += discovered
		if err != nil {
			return err
		}
	}
	return nil
}

// dateLayouts covers the formats Partner Center has shipped over time.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"1/2/2006",
	"01/02/2006",
}

func normalizeDate(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

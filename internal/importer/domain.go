package importer

import "time"

// Transaction is a single Partner Center earning line, keyed by the
// marketplace-assigned earning id.
type Transaction struct {
	EarningID   string
	ProductID   string
	Lever       string
	CountryCode string
	Date        string
	Amount      float64
	MSFSVersion string
	BatchID     string
}

// Product is a catalog entry discovered during import. Newly seen products
// start untracked; an operator flags the ones that feed the ledger.
type Product struct {
	ProductID   string
	ProductName string
	MSFSVersion string
}

// Summary reports the outcome of one file import.
type Summary struct {
	ImportID              string   `json:"importId"`
	Filename              string   `json:"filename"`
	RowsRead              int      `json:"rowsRead"`
	ProductsDiscovered    int      `json:"productsDiscovered"`
	TransactionsInserted  int      `json:"transactionsInserted"`
	TransactionsSkipped   int      `json:"transactionsSkipped"`
	TransactionsUntracked int      `json:"transactionsUntracked"`
	Errors                []string `json:"errors,omitempty"`
	Status                string   `json:"status"`
}

// Import statuses recorded in the history log.
const (
	StatusCompleted = "completed"
	StatusPartial   = "partial"
	StatusFailed    = "failed"
)

// Record is one entry in the import history.
type Record struct {
	ImportID              string    `json:"importId"`
	Filename              string    `json:"filename"`
	RowsRead              int       `json:"rowsRead"`
	ProductsDiscovered    int       `json:"productsDiscovered"`
	TransactionsInserted  int       `json:"transactionsInserted"`
	TransactionsSkipped   int       `json:"transactionsSkipped"`
	TransactionsUntracked int       `json:"transactionsUntracked"`
	Status                string    `json:"status"`
	CreatedAt             time.Time `json:"createdAt"`
}

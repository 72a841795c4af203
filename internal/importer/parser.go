package importer

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// headerMap translates normalized CSV column names to internal fields.
// The standard names match the Microsoft Partner Center earnings export.
var headerMap = map[string]string{
	"earningid":                "earning_id",
	"transactiondate":          "transaction_date",
	"transactionamount":        "transaction_amount",
	"lever":                    "lever",
	"productname":              "product_name",
	"productid":                "product_id",
	"transactioncountrycode":   "transaction_country_code",
	"externalreferenceidlabel": "external_reference_label",
}

// MapHeaders resolves column indexes for the fields we care about.
// Header variants like "Earning ID" vs "EarningID" normalize to the same
// key; a leading BOM on the first column is stripped.
func MapHeaders(headers []string) map[string]int {
	cols := make(map[string]int)
	for i, h := range headers {
		h = strings.TrimPrefix(h, "\uFEFF")
		key := normalizeHeader(h)
		if field, ok := headerMap[key]; ok && key != "" {
			cols[field] = i
		}
	}
	return cols
}

func normalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Row is one extracted earnings record.
type Row struct {
	EarningID   string
	ProductID   string
	ProductName string
	Lever       string
	CountryCode string
	Date        string
	Amount      float64
	MSFSVersion string
}

// ExtractRow pulls the mapped fields out of a raw CSV record. Missing
// columns yield empty strings; a malformed amount yields zero rather than
// an error, matching the ledger's defensive policy.
func ExtractRow(record []string, cols map[string]int) Row {
	get := func(field string) string {
		idx, ok := cols[field]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	return Row{
		EarningID:   get("earning_id"),
		ProductID:   get("product_id"),
		ProductName: get("product_name"),
		Lever:       get("lever"),
		CountryCode: get("transaction_country_code"),
		Date:        get("transaction_date"),
		Amount:      parseAmount(get("transaction_amount")),
		MSFSVersion: ParseMSFSVersion(get("external_reference_label")),
	}
}

// Valid reports whether the row carries the minimum identifying fields.
func (r Row) Valid() bool {
	return r.ProductID != "" && r.EarningID != "" && r.Date != ""
}

// ParseMSFSVersion extracts the simulator version from the external
// reference label, when present.
func ParseMSFSVersion(label string) string {
	upper := strings.ToUpper(label)
	if strings.Contains(upper, "MSFS2024") {
		return "MSFS2024"
	}
	if strings.Contains(upper, "MSFS2020") {
		return "MSFS2020"
	}
	return ""
}

// parseAmount parses a monetary string exactly before converting to
// float64, so values like "1234.567" round the way the source system
// rounded them instead of accumulating binary drift during parsing.
func parseAmount(raw string) float64 {
	if raw == "" {
		return 0
	}
	raw = strings.ReplaceAll(raw, ",", "")
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

// DecodeText converts Partner Center exports to UTF-8. Files arrive either
// UTF-8 or latin-1 depending on the locale of the machine that produced
// them.
func DecodeText(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	decoded, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), data)
	if err != nil {
		return data
	}
	return decoded
}

package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapHeadersNormalizesVariants(t *testing.T) {
	cols := MapHeaders([]string{
		"\uFEFFEarning ID",
		"Transaction Date",
		"transactionAmount",
		"Lever",
		"Product Name",
		"ProductId",
		"Transaction Country Code",
		"External Reference Id Label",
		"Unrelated Column",
	})

	require.Equal(t, 0, cols["earning_id"])
	assert.Equal(t, 1, cols["transaction_date"])
	assert.Equal(t, 2, cols["transaction_amount"])
	assert.Equal(t, 5, cols["product_id"])
	assert.Equal(t, 7, cols["external_reference_label"])
	_, ok := cols["unrelated_column"]
	assert.False(t, ok)
}

func TestExtractRow(t *testing.T) {
	cols := MapHeaders([]string{"EarningID", "TransactionDate", "TransactionAmount", "ProductID", "ExternalReferenceIDLabel"})
	row := ExtractRow([]string{" e-1 ", "2024-03-15", "1,234.56", "P-9", "my-addon-msfs2024"}, cols)

	assert.Equal(t, "e-1", row.EarningID)
	assert.Equal(t, "P-9", row.ProductID)
	assert.Equal(t, "2024-03-15", row.Date)
	assert.Equal(t, 1234.56, row.Amount)
	assert.Equal(t, "MSFS2024", row.MSFSVersion)
	assert.True(t, row.Valid())
}

func TestExtractRowToleratesShortRecords(t *testing.T) {
	cols := MapHeaders([]string{"EarningID", "TransactionAmount"})
	row := ExtractRow([]string{"e-1"}, cols)

	assert.Equal(t, "e-1", row.EarningID)
	assert.Equal(t, 0.0, row.Amount)
	assert.False(t, row.Valid())
}

func TestParseMSFSVersion(t *testing.T) {
	assert.Equal(t, "MSFS2024", ParseMSFSVersion("pack-MSFS2024-std"))
	assert.Equal(t, "MSFS2020", ParseMSFSVersion("legacy msfs2020 bundle"))
	assert.Equal(t, "", ParseMSFSVersion("xplane"))
	assert.Equal(t, "", ParseMSFSVersion(""))
}

func TestParseAmountDefensiveZero(t *testing.T) {
	assert.Equal(t, 0.0, parseAmount(""))
	assert.Equal(t, 0.0, parseAmount("not-a-number"))
	assert.Equal(t, -12.5, parseAmount("-12.50"))
}

func TestDecodeTextLatin1Fallback(t *testing.T) {
	utf8Input := []byte("Aviões")
	assert.Equal(t, utf8Input, DecodeText(utf8Input))

	// "Aviões" encoded as latin-1.
	latin1 := []byte{'A', 'v', 'i', 0xF5, 'e', 's'}
	assert.Equal(t, "Aviões", string(DecodeText(latin1)))
}

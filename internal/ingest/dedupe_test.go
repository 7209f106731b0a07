package ingest

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asx-ingest/internal/models"
)

func tx(notes string) models.DirectorTransaction {
	amount := int64(5000)
	price := decimal.NewFromFloat(1.10)
	return models.DirectorTransaction{
		TickerSymbol:    "BHP.AX",
		DirectorName:    "J. Smith",
		Date:            time.Date(2023, 4, 3, 0, 0, 0, 0, time.UTC),
		TransactionType: "Buy",
		Amount:          &amount,
		Price:           &price,
		Notes:           &notes,
	}
}

func TestDedupeTransactionsKeepsLast(t *testing.T) {
	first := tx("first")
	second := tx("second")

	out := DedupeTransactions([]models.DirectorTransaction{first, second})
	require.Len(t, out, 1)
	assert.Equal(t, "second", *out[0].Notes)
}

func TestDedupeTransactionsDistinctKeys(t *testing.T) {
	a := tx("a")
	b := tx("b")
	b.DirectorName = "A. Jones"
	c := tx("c")
	c.Amount = nil

	out := DedupeTransactions([]models.DirectorTransaction{a, b, c})
	assert.Len(t, out, 3)
}

func TestDedupeTransactionsPreservesOrder(t *testing.T) {
	a := tx("a")
	b := tx("b")
	b.DirectorName = "A. Jones"
	aAgain := tx("a2")

	out := DedupeTransactions([]models.DirectorTransaction{a, b, aAgain})
	require.Len(t, out, 2)
	// The duplicate keeps its original slot with the later content.
	assert.Equal(t, "a2", *out[0].Notes)
	assert.Equal(t, "b", *out[1].Notes)
}

func TestDedupeBars(t *testing.T) {
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	rows := []models.HistoricalBar{
		{TickerSymbol: "BHP.AX", Date: d, Close: 10.0, Volume: 100},
		{TickerSymbol: "BHP.AX", Date: d.AddDate(0, 0, 1), Close: 10.5, Volume: 200},
		{TickerSymbol: "BHP.AX", Date: d, Close: 11.0, Volume: 300},
	}

	out := DedupeBars(rows)
	require.Len(t, out, 2)
	assert.Equal(t, 11.0, out[0].Close)
	assert.Equal(t, int64(300), out[0].Volume)
	assert.Equal(t, 10.5, out[1].Close)
}

package ingest

import (
	"strconv"

	"asx-ingest/internal/models"
)

// transactionKey is the natural key of a director transaction. Nil numeric
// fields render as empty strings, so records identical up to missing amount
// or price collapse to one row within a payload.
type transactionKey struct {
	ticker, director, date, txType, amount, price string
}

func keyOf(t models.DirectorTransaction) transactionKey {
	k := transactionKey{
		ticker:   t.TickerSymbol,
		director: t.DirectorName,
		date:     t.Date.Format("2006-01-02"),
		txType:   t.TransactionType,
	}
	if t.Amount != nil {
		k.amount = strconv.FormatInt(*t.Amount, 10)
	}
	if t.Price != nil {
		k.price = t.Price.String()
	}
	return k
}

// DedupeTransactions collapses the batch to one row per natural key,
// keeping the last occurrence in submission order so resubmission of a
// payload with internal duplicates stays idempotent.
func DedupeTransactions(rows []models.DirectorTransaction) []models.DirectorTransaction {
	out := make([]models.DirectorTransaction, 0, len(rows))
	index := make(map[transactionKey]int, len(rows))
	for _, r := range rows {
		k := keyOf(r)
		if i, seen := index[k]; seen {
			out[i] = r
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	return out
}

// DedupeBars collapses price bars to one row per (ticker, date), keeping
// the last occurrence in submission order.
func DedupeBars(rows []models.HistoricalBar) []models.HistoricalBar {
	type barKey struct{ ticker, date string }

	out := make([]models.HistoricalBar, 0, len(rows))
	index := make(map[barKey]int, len(rows))
	for _, r := range rows {
		k := barKey{r.TickerSymbol, r.Date.Format("2006-01-02")}
		if i, seen := index[k]; seen {
			out[i] = r
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	return out
}

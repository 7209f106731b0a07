package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"asx-ingest/internal/models"
)

// Read-side queries. The ingestion path never reads records back; these
// serve verification tooling and tests.

// Transactions returns the stored director transactions for an instrument,
// ordered by date then director.
func (s *SQLiteStore) Transactions(ctx context.Context, ticker string) ([]models.DirectorTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ticker_symbol, director_name, date, transaction_type, amount, price, value, notes
		FROM director_transactions
		WHERE ticker_symbol = ?
		ORDER BY date ASC, director_name ASC
	`, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var out []models.DirectorTransaction
	for rows.Next() {
		var t models.DirectorTransaction
		var amount sql.NullInt64
		var price, value, notes sql.NullString
		if err := rows.Scan(&t.TickerSymbol, &t.DirectorName, &t.Date, &t.TransactionType, &amount, &price, &value, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.Amount = nullableInt(amount)
		t.Price = nullableDec(price)
		t.Value = nullableDec(value)
		t.Notes = nullableStr(notes)
		out = append(out, t)
	}
	return out, rows.Err()
}

// Interests returns the stored interest set for an instrument.
func (s *SQLiteStore) Interests(ctx context.Context, ticker string) ([]models.DirectorInterest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ticker_symbol, director, last_notice, direct_shares, indirect_shares, options, convertibles, last_updated
		FROM director_interests
		WHERE ticker_symbol = ?
		ORDER BY director ASC
	`, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to query interests: %w", err)
	}
	defer rows.Close()

	var out []models.DirectorInterest
	for rows.Next() {
		var in models.DirectorInterest
		var lastNotice sql.NullTime
		var direct, indirect, options, convertibles sql.NullInt64
		if err := rows.Scan(&in.TickerSymbol, &in.Director, &lastNotice, &direct, &indirect, &options, &convertibles, &in.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan interest: %w", err)
		}
		in.LastNotice = nullableTime(lastNotice)
		in.DirectShares = nullableInt(direct)
		in.IndirectShares = nullableInt(indirect)
		in.Options = nullableInt(options)
		in.Convertibles = nullableInt(convertibles)
		out = append(out, in)
	}
	return out, rows.Err()
}

// Bars returns the stored price history for an instrument in date order.
func (s *SQLiteStore) Bars(ctx context.Context, ticker string) ([]models.HistoricalBar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ticker_symbol, date, open, high, low, close, adj_close, volume
		FROM price_history
		WHERE ticker_symbol = ?
		ORDER BY date ASC
	`, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to query bars: %w", err)
	}
	defer rows.Close()

	var out []models.HistoricalBar
	for rows.Next() {
		var b models.HistoricalBar
		var adj sql.NullFloat64
		if err := rows.Scan(&b.TickerSymbol, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &adj, &b.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan bar: %w", err)
		}
		if adj.Valid {
			v := adj.Float64
			b.AdjClose = &v
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Announcements returns the stored announcements for an instrument, newest
// first.
func (s *SQLiteStore) Announcements(ctx context.Context, ticker string) ([]models.Announcement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ticker_symbol, date, heading, pages, time_of_day, url, filename, file_size, price_sensitive, downloaded
		FROM announcements
		WHERE ticker_symbol = ?
		ORDER BY date DESC, url ASC
	`, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to query announcements: %w", err)
	}
	defer rows.Close()

	var out []models.Announcement
	for rows.Next() {
		var a models.Announcement
		var heading, filename, timeOfDay sql.NullString
		var pages, size sql.NullInt64
		var sensitive, downloaded int
		if err := rows.Scan(&a.TickerSymbol, &a.Date, &heading, &pages, &timeOfDay, &a.URL, &filename, &size, &sensitive, &downloaded); err != nil {
			return nil, fmt.Errorf("failed to scan announcement: %w", err)
		}
		a.Heading = heading.String
		a.FileName = filename.String
		a.Pages = pages.Int64
		a.FileSize = size.Int64
		a.TimeOfDay = nullableStr(timeOfDay)
		a.PriceSensitive = sensitive == 1
		a.Downloaded = downloaded == 1
		out = append(out, a)
	}
	return out, rows.Err()
}

func nullableInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullableStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullableDec(v sql.NullString) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return nil
	}
	return &d
}

// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	apperrors "asx-ingest/internal/errors"
	"asx-ingest/internal/models"
	"asx-ingest/pkg/market"
)

// dateLayout is the canonical form calendar dates are stored in. Natural
// keys include date columns, so the stored form must be stable.
const dateLayout = "2006-01-02"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	suffix string
}

// NewSQLiteStore creates a new SQLite-based store. marketSuffix is the
// exchange suffix instruments are qualified with (empty selects the default).
func NewSQLiteStore(dbPath, marketSuffix string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if marketSuffix == "" {
		marketSuffix = market.DefaultSuffix
	}

	store := &SQLiteStore{db: db, suffix: marketSuffix}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Instrument metadata. Rows are seeded externally; the engine updates
	-- watermarks and overview fields in place.
	CREATE TABLE IF NOT EXISTS market_instruments (
		ticker_symbol TEXT PRIMARY KEY,
		company_name TEXT,
		instrument_type TEXT NOT NULL DEFAULT 'stock',
		is_active INTEGER NOT NULL DEFAULT 1,
		market_cap INTEGER,
		sector TEXT,
		eps TEXT,
		dps TEXT,
		book_value_per_share TEXT,
		shares_issued INTEGER,
		website TEXT,
		auditor TEXT,
		listing_date DATE,
		last_scrape_attempt DATETIME,
		transactions_last_updated DATETIME,
		interests_last_updated DATETIME,
		historical_last_updated DATETIME,
		announcements_last_updated DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Director buy/sell transactions.
	CREATE TABLE IF NOT EXISTS director_transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticker_symbol TEXT NOT NULL,
		director_name TEXT NOT NULL,
		date DATE NOT NULL,
		transaction_type TEXT,
		amount INTEGER,
		price TEXT,
		value TEXT,
		notes TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Amount and price are nullable key members and SQLite treats NULLs as
	-- distinct in plain unique indexes, so the natural key goes over
	-- COALESCEd expressions to keep resubmission idempotent.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_natural
		ON director_transactions(ticker_symbol, date, director_name, transaction_type,
		                         COALESCE(amount, -1), COALESCE(price, ''));

	-- Director shareholding interests, replaced wholesale per submission.
	CREATE TABLE IF NOT EXISTS director_interests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticker_symbol TEXT NOT NULL,
		director TEXT NOT NULL,
		last_notice DATE,
		direct_shares INTEGER,
		indirect_shares INTEGER,
		options INTEGER,
		convertibles INTEGER,
		last_updated DATETIME NOT NULL
	);

	-- Daily as-traded price history.
	CREATE TABLE IF NOT EXISTS price_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticker_symbol TEXT NOT NULL,
		date DATE NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		adj_close REAL,
		volume INTEGER NOT NULL,
		UNIQUE(ticker_symbol, date)
	);

	-- Regulatory announcements, keyed by document link.
	CREATE TABLE IF NOT EXISTS announcements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticker_symbol TEXT NOT NULL,
		date DATE NOT NULL,
		heading TEXT,
		pages INTEGER,
		time_of_day TEXT,
		url TEXT NOT NULL UNIQUE,
		filename TEXT,
		file_size INTEGER,
		price_sensitive INTEGER NOT NULL DEFAULT 0,
		downloaded INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_ticker ON director_transactions(ticker_symbol);
	CREATE INDEX IF NOT EXISTS idx_interests_ticker ON director_interests(ticker_symbol);
	CREATE INDEX IF NOT EXISTS idx_history_ticker ON price_history(ticker_symbol);
	CREATE INDEX IF NOT EXISTS idx_announcements_ticker ON announcements(ticker_symbol);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RegisterInstrument seeds a metadata row. The ingestion engine itself never
// creates instruments; this exists for operational seeding and tests.
func (s *SQLiteStore) RegisterInstrument(ctx context.Context, ticker, companyName string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO market_instruments (ticker_symbol, company_name) VALUES (?, ?)
	`, ticker, companyName)
	if err != nil {
		return fmt.Errorf("failed to register instrument: %w", err)
	}
	return nil
}

// ListTickers returns bare instrument codes ordered by the chosen watermark
// column descending, tie-broken alphabetically ascending.
func (s *SQLiteStore) ListTickers(ctx context.Context, by OrderBy) ([]string, error) {
	switch by {
	case OrderByScrapeAttempt, OrderByTransactions, OrderByInterests, OrderByHistorical, OrderByAnnouncements:
	default:
		return nil, fmt.Errorf("list tickers: unsupported ordering %q", by)
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT substr(ticker_symbol, 1, instr(ticker_symbol, '.') - 1) AS symbol, %s
		FROM market_instruments
		WHERE is_active = 1 AND instrument_type = 'stock' AND ticker_symbol LIKE ?
		ORDER BY %s DESC, symbol ASC
	`, by, by)

	rows, err := s.db.QueryContext(ctx, query, "%."+s.suffix)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var symbol string
		var watermark sql.NullTime
		if err := rows.Scan(&symbol, &watermark); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers = append(tickers, symbol)
	}
	return tickers, rows.Err()
}

// ExistingFiles returns filename/size pairs of stored announcement documents.
func (s *SQLiteStore) ExistingFiles(ctx context.Context, ticker string) ([]models.FileInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT filename, file_size FROM announcements
		WHERE ticker_symbol = ? AND filename IS NOT NULL
		ORDER BY date DESC
	`, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing files: %w", err)
	}
	defer rows.Close()

	var files []models.FileInfo
	for rows.Next() {
		var f models.FileInfo
		var size sql.NullInt64
		if err := rows.Scan(&f.FileName, &size); err != nil {
			return nil, fmt.Errorf("failed to scan file info: %w", err)
		}
		f.FileSize = size.Int64
		files = append(files, f)
	}
	return files, rows.Err()
}

// Instrument looks up one metadata row with its watermarks.
func (s *SQLiteStore) Instrument(ctx context.Context, ticker string) (*models.Instrument, error) {
	var inst models.Instrument
	var name, sector, website sql.NullString
	var marketCap sql.NullInt64
	var attempt, txUpd, intUpd, histUpd, annUpd sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT ticker_symbol, company_name, market_cap, sector, website,
		       last_scrape_attempt,
		       transactions_last_updated, interests_last_updated,
		       historical_last_updated, announcements_last_updated
		FROM market_instruments WHERE ticker_symbol = ?
	`, ticker).Scan(&inst.TickerSymbol, &name, &marketCap, &sector, &website,
		&attempt, &txUpd, &intUpd, &histUpd, &annUpd)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("instrument %s: %w", ticker, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query instrument: %w", err)
	}

	inst.CompanyName = name.String
	if marketCap.Valid {
		v := marketCap.Int64
		inst.MarketCap = &v
	}
	if sector.Valid {
		v := sector.String
		inst.Sector = &v
	}
	if website.Valid {
		v := website.String
		inst.Website = &v
	}
	inst.LastScrapeAttempt = nullableTime(attempt)
	inst.TransactionsLastUpdated = nullableTime(txUpd)
	inst.InterestsLastUpdated = nullableTime(intUpd)
	inst.HistoricalLastUpdated = nullableTime(histUpd)
	inst.AnnouncementsLastUpdated = nullableTime(annUpd)
	return &inst, nil
}

// RecordScrapeAttempt stamps last_scrape_attempt in its own implicit
// transaction, outside any submission batch.
func (s *SQLiteStore) RecordScrapeAttempt(ctx context.Context, ticker string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE market_instruments SET last_scrape_attempt = ? WHERE ticker_symbol = ?
	`, at, ticker)
	if err != nil {
		return fmt.Errorf("failed to record scrape attempt: %w", err)
	}
	return nil
}

// Begin opens the transaction scoping one submission.
func (s *SQLiteStore) Begin(ctx context.Context) (Batch, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &sqliteBatch{tx: tx}, nil
}

// sqliteBatch implements Batch on one *sql.Tx.
type sqliteBatch struct {
	tx *sql.Tx
}

// UpsertTransactions inserts director transactions; a natural-key collision
// updates only the value and notes columns.
func (b *sqliteBatch) UpsertTransactions(ctx context.Context, rows []models.DirectorTransaction) error {
	if len(rows) == 0 {
		return nil
	}

	stmt, err := b.tx.PrepareContext(ctx, `
		INSERT INTO director_transactions (ticker_symbol, director_name, date, transaction_type, amount, price, value, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (ticker_symbol, date, director_name, transaction_type, COALESCE(amount, -1), COALESCE(price, ''))
		DO UPDATE SET value = excluded.value, notes = excluded.notes
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare transaction upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		_, err := stmt.ExecContext(ctx,
			r.TickerSymbol, r.DirectorName, r.Date.Format(dateLayout), r.TransactionType,
			r.Amount, decArg(r.Price), decArg(r.Value), r.Notes)
		if err != nil {
			return fmt.Errorf("failed to upsert transaction: %w", err)
		}
	}
	return nil
}

// ReplaceInterests deletes the instrument's stored interest set and bulk
// inserts the new one.
func (b *sqliteBatch) ReplaceInterests(ctx context.Context, ticker string, rows []models.DirectorInterest) error {
	if _, err := b.tx.ExecContext(ctx, `DELETE FROM director_interests WHERE ticker_symbol = ?`, ticker); err != nil {
		return fmt.Errorf("failed to clear interests: %w", err)
	}

	if len(rows) == 0 {
		return nil
	}

	stmt, err := b.tx.PrepareContext(ctx, `
		INSERT INTO director_interests (ticker_symbol, director, last_notice, direct_shares, indirect_shares, options, convertibles, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare interest insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		_, err := stmt.ExecContext(ctx,
			r.TickerSymbol, r.Director, dateArg(r.LastNotice),
			r.DirectShares, r.IndirectShares, r.Options, r.Convertibles, r.LastUpdated)
		if err != nil {
			return fmt.Errorf("failed to insert interest: %w", err)
		}
	}
	return nil
}

// UpsertBars inserts price bars; a (ticker, date) collision overwrites all
// price and volume fields.
func (b *sqliteBatch) UpsertBars(ctx context.Context, rows []models.HistoricalBar) error {
	if len(rows) == 0 {
		return nil
	}

	stmt, err := b.tx.PrepareContext(ctx, `
		INSERT INTO price_history (ticker_symbol, date, open, high, low, close, adj_close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (ticker_symbol, date)
		DO UPDATE SET open = excluded.open, high = excluded.high, low = excluded.low,
		              close = excluded.close, adj_close = excluded.adj_close, volume = excluded.volume
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare bar upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		_, err := stmt.ExecContext(ctx,
			r.TickerSymbol, r.Date.Format(dateLayout), r.Open, r.High, r.Low, r.Close, r.AdjClose, r.Volume)
		if err != nil {
			return fmt.Errorf("failed to upsert bar: %w", err)
		}
	}
	return nil
}

// UpsertAnnouncements inserts announcements; a document-link collision
// overwrites all mutable fields.
func (b *sqliteBatch) UpsertAnnouncements(ctx context.Context, rows []models.Announcement) error {
	if len(rows) == 0 {
		return nil
	}

	stmt, err := b.tx.PrepareContext(ctx, `
		INSERT INTO announcements (ticker_symbol, date, heading, pages, time_of_day, url, filename, file_size, price_sensitive, downloaded)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url)
		DO UPDATE SET ticker_symbol = excluded.ticker_symbol, date = excluded.date,
		              heading = excluded.heading, pages = excluded.pages,
		              time_of_day = excluded.time_of_day, filename = excluded.filename,
		              file_size = excluded.file_size, price_sensitive = excluded.price_sensitive,
		              downloaded = excluded.downloaded
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare announcement upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		_, err := stmt.ExecContext(ctx,
			r.TickerSymbol, r.Date.Format(dateLayout), r.Heading, r.Pages, r.TimeOfDay,
			r.URL, r.FileName, r.FileSize, boolArg(r.PriceSensitive), boolArg(r.Downloaded))
		if err != nil {
			return fmt.Errorf("failed to upsert announcement: %w", err)
		}
	}
	return nil
}

// UpdateOverview applies the non-nil overview fields to the instrument row.
func (b *sqliteBatch) UpdateOverview(ctx context.Context, ticker string, o models.Overview) error {
	sets := []string{}
	args := []interface{}{}

	add := func(col string, val interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, val)
	}

	if o.MarketCap != nil {
		add("market_cap", *o.MarketCap)
	}
	if o.Sector != nil {
		add("sector", *o.Sector)
	}
	if o.EPS != nil {
		add("eps", o.EPS.String())
	}
	if o.DPS != nil {
		add("dps", o.DPS.String())
	}
	if o.BookValuePerShare != nil {
		add("book_value_per_share", o.BookValuePerShare.String())
	}
	if o.SharesIssued != nil {
		add("shares_issued", *o.SharesIssued)
	}
	if o.Website != nil {
		add("website", *o.Website)
	}
	if o.Auditor != nil {
		add("auditor", *o.Auditor)
	}
	if o.ListingDate != nil {
		add("listing_date", o.ListingDate.Format(dateLayout))
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, ticker)
	query := "UPDATE market_instruments SET " + strings.Join(sets, ", ") + " WHERE ticker_symbol = ?"
	if _, err := b.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update overview: %w", err)
	}
	return nil
}

// StampWatermark advances the kind's watermark column within the batch.
func (b *sqliteBatch) StampWatermark(ctx context.Context, ticker string, kind models.RecordKind, at time.Time) error {
	col, ok := watermarkColumns[kind]
	if !ok {
		return fmt.Errorf("no watermark column for kind %q", kind)
	}
	query := fmt.Sprintf("UPDATE market_instruments SET %s = ? WHERE ticker_symbol = ?", col)
	if _, err := b.tx.ExecContext(ctx, query, at, ticker); err != nil {
		return fmt.Errorf("failed to stamp %s watermark: %w", kind, err)
	}
	return nil
}

// Commit makes the batch durable.
func (b *sqliteBatch) Commit() error {
	if err := b.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit submission: %w", err)
	}
	return nil
}

// Rollback discards the batch. Calling it after Commit is a no-op, so it is
// safe to defer on every path.
func (b *sqliteBatch) Rollback() error {
	if err := b.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to roll back submission: %w", err)
	}
	return nil
}

func nullableTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func dateArg(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}

func decArg(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func boolArg(v bool) int {
	if v {
		return 1
	}
	return 0
}

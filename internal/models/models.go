// Package models provides domain models for the ingestion service.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordKind identifies one sub-batch type within a submission.
type RecordKind string

const (
	KindTransactions  RecordKind = "transactions"
	KindInterests     RecordKind = "director_interests"
	KindHistorical    RecordKind = "historical_data"
	KindAnnouncements RecordKind = "announcements"
)

// DirectorTransaction is a normalized director buy/sell record.
// Natural key: (ticker, date, director, type, amount, price); conflicting
// inserts update only Value and Notes.
type DirectorTransaction struct {
	TickerSymbol    string
	DirectorName    string
	Date            time.Time
	TransactionType string
	Amount          *int64
	Price           *decimal.Decimal
	Value           *decimal.Decimal
	Notes           *string
}

// DirectorInterest is a normalized shareholding-interest record. Interests
// carry no natural key; a submission replaces the instrument's full set.
type DirectorInterest struct {
	TickerSymbol   string
	Director       string
	LastNotice     *time.Time
	DirectShares   *int64
	IndirectShares *int64
	Options        *int64
	Convertibles   *int64
	LastUpdated    time.Time
}

// HistoricalBar is one daily price bar. Natural key: (ticker, date);
// conflicting inserts overwrite all price and volume fields.
type HistoricalBar struct {
	TickerSymbol string
	Date         time.Time
	Open         float64
	High         float64
	Low          float64
	Close        float64
	AdjClose     *float64
	Volume       int64
}

// Announcement is a normalized regulatory announcement. Natural key: URL;
// conflicting inserts overwrite all mutable fields.
type Announcement struct {
	TickerSymbol   string
	Date           time.Time
	Heading        string
	Pages          int64
	TimeOfDay      *string
	URL            string
	FileName       string
	FileSize       int64
	PriceSensitive bool
	Downloaded     bool
}

// Overview carries optional company metadata applied to the instrument row.
// Nil fields are left untouched.
type Overview struct {
	MarketCap         *int64
	Sector            *string
	EPS               *decimal.Decimal
	DPS               *decimal.Decimal
	BookValuePerShare *decimal.Decimal
	SharesIssued      *int64
	Website           *string
	Auditor           *string
	ListingDate       *time.Time
}

// Instrument is the metadata row for a listed security. Rows are seeded
// externally; the ingestion engine only updates watermarks and overview
// fields in place.
type Instrument struct {
	TickerSymbol             string
	CompanyName              string
	MarketCap                *int64
	Sector                   *string
	Website                  *string
	LastScrapeAttempt        *time.Time
	TransactionsLastUpdated  *time.Time
	InterestsLastUpdated     *time.Time
	HistoricalLastUpdated    *time.Time
	AnnouncementsLastUpdated *time.Time
}

// FileInfo is a stored announcement document the client already holds.
type FileInfo struct {
	FileName string `json:"filename"`
	FileSize int64  `json:"size"`
}

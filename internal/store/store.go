// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"asx-ingest/internal/models"

	apperrors "asx-ingest/internal/errors"
)

// OrderBy selects the instrument watermark column used to order the ticker
// work queue handed to the scraping client.
type OrderBy string

const (
	OrderByScrapeAttempt OrderBy = "last_scrape_attempt"
	OrderByTransactions  OrderBy = "transactions_last_updated"
	OrderByInterests     OrderBy = "interests_last_updated"
	OrderByHistorical    OrderBy = "historical_last_updated"
	OrderByAnnouncements OrderBy = "announcements_last_updated"
)

// ParseOrderBy maps a request parameter onto a whitelisted watermark column.
// The empty string selects the scrape-attempt column.
func ParseOrderBy(s string) (OrderBy, error) {
	switch s {
	case "", "attempt", string(OrderByScrapeAttempt):
		return OrderByScrapeAttempt, nil
	case "transactions", string(OrderByTransactions):
		return OrderByTransactions, nil
	case "interests", string(OrderByInterests):
		return OrderByInterests, nil
	case "historical", string(OrderByHistorical):
		return OrderByHistorical, nil
	case "announcements", string(OrderByAnnouncements):
		return OrderByAnnouncements, nil
	}
	return "", apperrors.ErrUnknownOrder
}

// watermarkColumns maps a record kind onto its instrument watermark column.
var watermarkColumns = map[models.RecordKind]string{
	models.KindTransactions:  string(OrderByTransactions),
	models.KindInterests:     string(OrderByInterests),
	models.KindHistorical:    string(OrderByHistorical),
	models.KindAnnouncements: string(OrderByAnnouncements),
}

// Store defines the persistence operations the ingestion engine requires.
// The handle is injected into the coordinator at call time; its lifetime is
// scoped to process start and shutdown.
type Store interface {
	// ListTickers returns the bare codes of active instruments, ordered by
	// the chosen watermark column with an alphabetical tie-break.
	ListTickers(ctx context.Context, by OrderBy) ([]string, error)

	// ExistingFiles returns the announcement documents already stored for an
	// instrument so the client can skip re-fetching them.
	ExistingFiles(ctx context.Context, ticker string) ([]models.FileInfo, error)

	// Instrument looks up the metadata row for a fully-qualified identifier.
	Instrument(ctx context.Context, ticker string) (*models.Instrument, error)

	// RecordScrapeAttempt stamps last_scrape_attempt outside any submission
	// transaction. The stamp survives a later rollback of the submission.
	RecordScrapeAttempt(ctx context.Context, ticker string, at time.Time) error

	// Begin opens the transaction scoping one submission.
	Begin(ctx context.Context) (Batch, error)

	// Lifecycle
	Close() error
}

// Batch scopes all writes of one submission to a single transaction.
// Either Commit or Rollback must be called on every exit path.
type Batch interface {
	UpsertTransactions(ctx context.Context, rows []models.DirectorTransaction) error
	ReplaceInterests(ctx context.Context, ticker string, rows []models.DirectorInterest) error
	UpsertBars(ctx context.Context, rows []models.HistoricalBar) error
	UpsertAnnouncements(ctx context.Context, rows []models.Announcement) error
	UpdateOverview(ctx context.Context, ticker string, o models.Overview) error

	// StampWatermark advances a kind's watermark inside the submission
	// transaction, so data and watermark are never observably inconsistent.
	StampWatermark(ctx context.Context, ticker string, kind models.RecordKind, at time.Time) error

	Commit() error
	Rollback() error
}

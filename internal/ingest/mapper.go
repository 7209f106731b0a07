// Package ingest implements the normalization-and-transactional-ingestion
// engine: per-kind record mappers, batch deduplication, and the coordinator
// that applies one submission as a single atomic unit.
package ingest

import (
	"strconv"
	"time"

	apperrors "asx-ingest/internal/errors"
	"asx-ingest/internal/models"
	"asx-ingest/internal/normalize"
)

// MapTransaction normalizes one scraped director transaction. A record
// without a parseable date is rejected; numeric fields degrade to NULL.
func MapTransaction(raw models.RawTransaction, instrumentID string) (*models.DirectorTransaction, error) {
	date := normalize.Date(raw.Date)
	if date == nil {
		return nil, apperrors.ErrMissingDate
	}

	return &models.DirectorTransaction{
		TickerSymbol:    instrumentID,
		DirectorName:    raw.DirectorName,
		Date:            *date,
		TransactionType: raw.TransactionType,
		Amount:          normalize.Int(raw.Amount),
		Price:           normalize.Decimal(raw.Price),
		Value:           normalize.Decimal(raw.Value),
		Notes:           optional(raw.Notes),
	}, nil
}

// MapInterest normalizes one scraped shareholding interest. Every field is
// optional, so interests are never rejected.
func MapInterest(raw models.RawInterest, instrumentID string, stampedAt time.Time) (*models.DirectorInterest, error) {
	return &models.DirectorInterest{
		TickerSymbol:   instrumentID,
		Director:       raw.Director,
		LastNotice:     normalize.Date(raw.LastNotice),
		DirectShares:   normalize.Int(raw.DirectShares),
		IndirectShares: normalize.Int(raw.IndirectShares),
		Options:        normalize.Int(raw.Options),
		Convertibles:   normalize.Int(raw.Convertibles),
		LastUpdated:    stampedAt,
	}, nil
}

// MapAnnouncement normalizes one scraped announcement. The date and the
// document link are required; everything else degrades to zero values.
func MapAnnouncement(raw models.RawAnnouncement, instrumentID string) (*models.Announcement, error) {
	date := normalize.Date(raw.Date)
	if date == nil {
		return nil, apperrors.ErrMissingDate
	}
	if raw.URL == "" {
		return nil, apperrors.ErrMissingLink
	}

	var pages, size int64
	if n := normalize.Int(raw.Pages); n != nil {
		pages = *n
	}
	if n := normalize.Int(raw.FileSize); n != nil {
		size = *n
	}

	return &models.Announcement{
		TickerSymbol:   instrumentID,
		Date:           *date,
		Heading:        raw.Heading,
		Pages:          pages,
		TimeOfDay:      normalize.TimeOfDay(raw.TimeOfDay),
		URL:            raw.URL,
		FileName:       raw.FileName,
		FileSize:       size,
		PriceSensitive: raw.PriceSensitive,
		Downloaded:     raw.Downloaded,
	}, nil
}

// MapBarRow normalizes one positional row from a historical price file:
// date, open, high, low, close, volume. The source never supplies an
// adjusted close, so it stays NULL.
func MapBarRow(values []string, instrumentID string) (*models.HistoricalBar, error) {
	if len(values) < 6 {
		return nil, apperrors.ErrSchemaMismatch
	}

	date := normalize.Date(values[0])
	if date == nil {
		return nil, apperrors.ErrMissingDate
	}

	open, err := strconv.ParseFloat(values[1], 64)
	if err != nil {
		return nil, apperrors.ErrBadNumeric
	}
	high, err := strconv.ParseFloat(values[2], 64)
	if err != nil {
		return nil, apperrors.ErrBadNumeric
	}
	low, err := strconv.ParseFloat(values[3], 64)
	if err != nil {
		return nil, apperrors.ErrBadNumeric
	}
	closePrice, err := strconv.ParseFloat(values[4], 64)
	if err != nil {
		return nil, apperrors.ErrBadNumeric
	}
	volume, err := strconv.ParseInt(values[5], 10, 64)
	if err != nil {
		return nil, apperrors.ErrBadNumeric
	}

	return &models.HistoricalBar{
		TickerSymbol: instrumentID,
		Date:         *date,
		Open:         open,
		High:         high,
		Low:          low,
		Close:        closePrice,
		Volume:       volume,
	}, nil
}

// MapOverview normalizes the scraped company overview block. Fields that do
// not normalize stay nil and leave the stored value untouched.
func MapOverview(raw models.RawOverview) models.Overview {
	return models.Overview{
		MarketCap:         normalize.Int(raw.MarketCap),
		Sector:            optional(raw.Sector),
		EPS:               normalize.Decimal(raw.EPS),
		DPS:               normalize.Decimal(raw.DPS),
		BookValuePerShare: normalize.Decimal(raw.BookValuePerShare),
		SharesIssued:      normalize.Int(raw.SharesIssued),
		Website:           optional(raw.Website),
		Auditor:           optional(raw.Auditor),
		ListingDate:       normalize.Date(raw.ListingDate),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

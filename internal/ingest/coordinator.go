package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "asx-ingest/internal/errors"
	"asx-ingest/internal/logging"
	"asx-ingest/internal/models"
	"asx-ingest/internal/store"
	"asx-ingest/pkg/market"
)

// KindResult reports the submitted and accepted record counts for one
// sub-batch kind.
type KindResult struct {
	Submitted int `json:"submitted"`
	Accepted  int `json:"accepted"`
}

// Result summarizes one committed submission.
type Result struct {
	Ticker string                           `json:"ticker"`
	Kinds  map[models.RecordKind]KindResult `json:"counts"`
}

// Coordinator applies one submission as a single atomic unit: every
// sub-batch shares one store transaction, a partially-accepted kind aborts
// the whole submission, and watermarks advance only alongside their data.
type Coordinator struct {
	store   store.Store
	log     zerolog.Logger
	suffix  string
	histDir string
	now     func() time.Time
}

// NewCoordinator creates a coordinator bound to an injected store handle.
// histDir, when non-empty, confines historical file references to that
// directory.
func NewCoordinator(st store.Store, logger zerolog.Logger, marketSuffix, histDir string) *Coordinator {
	return &Coordinator{
		store:   st,
		log:     logger,
		suffix:  marketSuffix,
		histDir: histDir,
		now:     time.Now,
	}
}

// Ingest runs one submission through mapping, deduplication and persistence.
//
// The scrape-attempt stamp is applied before the submission transaction
// opens and survives any later rollback; that is the one intentional
// exception to full atomicity. Everything else either commits together or
// is discarded together.
func (c *Coordinator) Ingest(ctx context.Context, sub models.Submission) (*Result, error) {
	if strings.TrimSpace(sub.TickerSymbol) == "" {
		return nil, apperrors.ErrMissingTicker
	}

	ticker := market.InstrumentID(sub.TickerSymbol, c.suffix)
	log := logging.WithTicker(c.log, ticker)
	submittedAt := c.now()

	if err := c.store.RecordScrapeAttempt(ctx, ticker, submittedAt); err != nil {
		return nil, apperrors.NewSubmissionError(ticker, "", err)
	}
	log.Debug().Msg("Recorded scrape attempt")

	batch, err := c.store.Begin(ctx)
	if err != nil {
		return nil, apperrors.NewSubmissionError(ticker, "", err)
	}
	defer batch.Rollback()

	result := &Result{
		Ticker: ticker,
		Kinds:  make(map[models.RecordKind]KindResult),
	}

	if len(sub.Transactions) > 0 {
		if err := c.applyTransactions(ctx, batch, sub.Transactions, ticker, submittedAt, result, log); err != nil {
			return nil, err
		}
	}

	if len(sub.Interests) > 0 {
		if err := c.applyInterests(ctx, batch, sub.Interests, ticker, submittedAt, result, log); err != nil {
			return nil, err
		}
	}

	if sub.Historical != nil {
		if err := c.applyHistorical(ctx, batch, sub.Historical, ticker, submittedAt, result, log); err != nil {
			return nil, err
		}
	}

	if len(sub.Announcements) > 0 {
		if err := c.applyAnnouncements(ctx, batch, sub.Announcements, ticker, submittedAt, result, log); err != nil {
			return nil, err
		}
	}

	if sub.Overview != nil {
		if err := batch.UpdateOverview(ctx, ticker, MapOverview(*sub.Overview)); err != nil {
			return nil, apperrors.NewSubmissionError(ticker, "overview", err)
		}
		log.Debug().Msg("Applied overview fields")
	}

	if err := batch.Commit(); err != nil {
		return nil, apperrors.NewSubmissionError(ticker, "", err)
	}

	log.Info().Interface("counts", result.Kinds).Msg("Submission committed")
	return result, nil
}

func (c *Coordinator) applyTransactions(ctx context.Context, batch store.Batch, raws []models.RawTransaction, ticker string, at time.Time, result *Result, log zerolog.Logger) error {
	kind := models.KindTransactions
	log = logging.WithKind(log, string(kind))
	submitted := len(raws)

	rows := make([]models.DirectorTransaction, 0, submitted)
	rejected := 0
	for i, raw := range raws {
		rec, err := MapTransaction(raw, ticker)
		if err != nil {
			rejected++
			log.Warn().Err(err).Int("index", i).Msg("Record rejected")
			continue
		}
		rows = append(rows, *rec)
	}

	if err := batch.UpsertTransactions(ctx, DedupeTransactions(rows)); err != nil {
		return apperrors.NewSubmissionError(ticker, string(kind), err)
	}

	return c.settleKind(ctx, batch, kind, ticker, at, submitted, rejected, result, log)
}

func (c *Coordinator) applyInterests(ctx context.Context, batch store.Batch, raws []models.RawInterest, ticker string, at time.Time, result *Result, log zerolog.Logger) error {
	kind := models.KindInterests
	log = logging.WithKind(log, string(kind))
	submitted := len(raws)

	rows := make([]models.DirectorInterest, 0, submitted)
	for _, raw := range raws {
		rec, _ := MapInterest(raw, ticker, at)
		rows = append(rows, *rec)
	}

	if err := batch.ReplaceInterests(ctx, ticker, rows); err != nil {
		return apperrors.NewSubmissionError(ticker, string(kind), err)
	}

	return c.settleKind(ctx, batch, kind, ticker, at, submitted, 0, result, log)
}

func (c *Coordinator) applyHistorical(ctx context.Context, batch store.Batch, ref *models.HistoricalRef, ticker string, at time.Time, result *Result, log zerolog.Logger) error {
	kind := models.KindHistorical
	log = logging.WithKind(log, string(kind))

	if ref.FilePath == "" || !withinDir(ref.FilePath, c.histDir) {
		return apperrors.Wrapf(apperrors.ErrFileNotFound, "%s", ref.FilePath)
	}

	raws, skipped, err := readBarRows(ref.FilePath)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrFileNotFound) {
			return err
		}
		return apperrors.NewSubmissionError(ticker, string(kind), err)
	}
	if skipped > 0 {
		log.Warn().Int("rows", skipped).Str("file", ref.FilePath).Msg("Skipped malformed historical rows")
	}

	submitted := len(raws)
	rows := make([]models.HistoricalBar, 0, submitted)
	rejected := 0
	for i, values := range raws {
		rec, err := MapBarRow(values, ticker)
		if err != nil {
			rejected++
			log.Warn().Err(err).Int("index", i).Msg("Record rejected")
			continue
		}
		rows = append(rows, *rec)
	}

	if err := batch.UpsertBars(ctx, DedupeBars(rows)); err != nil {
		return apperrors.NewSubmissionError(ticker, string(kind), err)
	}

	return c.settleKind(ctx, batch, kind, ticker, at, submitted, rejected, result, log)
}

func (c *Coordinator) applyAnnouncements(ctx context.Context, batch store.Batch, raws []models.RawAnnouncement, ticker string, at time.Time, result *Result, log zerolog.Logger) error {
	kind := models.KindAnnouncements
	log = logging.WithKind(log, string(kind))
	submitted := len(raws)

	rows := make([]models.Announcement, 0, submitted)
	rejected := 0
	for i, raw := range raws {
		rec, err := MapAnnouncement(raw, ticker)
		if err != nil {
			rejected++
			log.Warn().Err(err).Int("index", i).Msg("Record rejected")
			continue
		}
		rows = append(rows, *rec)
	}

	if err := batch.UpsertAnnouncements(ctx, rows); err != nil {
		return apperrors.NewSubmissionError(ticker, string(kind), err)
	}

	return c.settleKind(ctx, batch, kind, ticker, at, submitted, rejected, result, log)
}

// settleKind runs the accept-count check for one kind. A fully-accepted,
// non-empty sub-batch advances the kind's watermark inside the submission
// transaction; anything short of that aborts the whole submission.
func (c *Coordinator) settleKind(ctx context.Context, batch store.Batch, kind models.RecordKind, ticker string, at time.Time, submitted, rejected int, result *Result, log zerolog.Logger) error {
	accepted := submitted - rejected
	result.Kinds[kind] = KindResult{Submitted: submitted, Accepted: accepted}

	if accepted < submitted {
		return apperrors.NewSubmissionError(ticker, string(kind),
			apperrors.NewPartialBatchError(string(kind), accepted, submitted))
	}
	if submitted == 0 {
		return nil
	}

	if err := batch.StampWatermark(ctx, ticker, kind, at); err != nil {
		return apperrors.NewSubmissionError(ticker, string(kind), err)
	}
	log.Info().Int("accepted", accepted).Int("submitted", submitted).Msg("Sub-batch applied")
	return nil
}

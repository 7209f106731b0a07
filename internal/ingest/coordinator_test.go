package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "asx-ingest/internal/errors"
	"asx-ingest/internal/models"
	"asx-ingest/internal/store"
)

func newTestEngine(t *testing.T) (*Coordinator, *store.SQLiteStore) {
	t.Helper()

	dir := t.TempDir()
	st, err := store.NewSQLiteStore(filepath.Join(dir, "test.db"), "AX")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.RegisterInstrument(context.Background(), "BHP.AX", "BHP Group"))

	return NewCoordinator(st, zerolog.Nop(), "AX", ""), st
}

func TestIngestMissingTicker(t *testing.T) {
	coord, _ := newTestEngine(t)

	_, err := coord.Ingest(context.Background(), models.Submission{})
	assert.ErrorIs(t, err, apperrors.ErrMissingTicker)
	assert.True(t, apperrors.IsClientError(err))
}

func TestIngestTransactionsCommit(t *testing.T) {
	coord, st := newTestEngine(t)
	ctx := context.Background()

	sub := models.Submission{
		TickerSymbol: "BHP",
		Transactions: []models.RawTransaction{
			{Date: "2023-04-03", DirectorName: "J. Smith", TransactionType: "Buy", Amount: "1,000", Price: "$1.25", Value: "$1,250"},
			{Date: "2023-04-04", DirectorName: "A. Jones", TransactionType: "Sell", Amount: "500", Price: "$1.30", Value: "$650"},
		},
	}

	res, err := coord.Ingest(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, "BHP.AX", res.Ticker)
	assert.Equal(t, KindResult{Submitted: 2, Accepted: 2}, res.Kinds[models.KindTransactions])

	rows, err := st.Transactions(ctx, "BHP.AX")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	inst, err := st.Instrument(ctx, "BHP.AX")
	require.NoError(t, err)
	assert.NotNil(t, inst.LastScrapeAttempt)
	assert.NotNil(t, inst.TransactionsLastUpdated)
	assert.Nil(t, inst.InterestsLastUpdated)
}

// Submitting an identical batch twice yields the same final row set as
// submitting it once.
func TestIngestIdempotentResubmission(t *testing.T) {
	coord, st := newTestEngine(t)
	ctx := context.Background()

	sub := models.Submission{
		TickerSymbol: "BHP",
		Transactions: []models.RawTransaction{
			{Date: "2023-04-03", DirectorName: "J. Smith", TransactionType: "Buy", Amount: "1,000", Price: "$1.25", Value: "$1,250"},
		},
	}

	_, err := coord.Ingest(ctx, sub)
	require.NoError(t, err)
	_, err = coord.Ingest(ctx, sub)
	require.NoError(t, err)

	rows, err := st.Transactions(ctx, "BHP.AX")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

// Records whose amount and price fields carry no value are stored with NULL
// key members; resubmitting them must still update in place, not insert
// sibling rows.
func TestIngestIdempotentWithMissingNumerics(t *testing.T) {
	coord, st := newTestEngine(t)
	ctx := context.Background()

	sub := models.Submission{
		TickerSymbol: "BHP",
		Transactions: []models.RawTransaction{
			{Date: "2023-04-03", DirectorName: "J. Smith", TransactionType: "Buy", Amount: "N/A", Price: "N/A"},
		},
	}

	_, err := coord.Ingest(ctx, sub)
	require.NoError(t, err)
	_, err = coord.Ingest(ctx, sub)
	require.NoError(t, err)

	rows, err := st.Transactions(ctx, "BHP.AX")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Amount)
	assert.Nil(t, rows[0].Price)
}

// Two records sharing a natural key within one payload persist only the
// later record's value and notes.
func TestIngestDuplicateKeyKeepsLast(t *testing.T) {
	coord, st := newTestEngine(t)
	ctx := context.Background()

	sub := models.Submission{
		TickerSymbol: "BHP",
		Transactions: []models.RawTransaction{
			{Date: "2023-04-03", DirectorName: "J. Smith", TransactionType: "Buy", Amount: "1,000", Price: "$1.25", Value: "$1,250", Notes: "first"},
			{Date: "2023-04-03", DirectorName: "J. Smith", TransactionType: "Buy", Amount: "1,000", Price: "$1.25", Value: "$1,300", Notes: "second"},
		},
	}

	res, err := coord.Ingest(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, KindResult{Submitted: 2, Accepted: 2}, res.Kinds[models.KindTransactions])

	rows, err := st.Transactions(ctx, "BHP.AX")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Notes)
	assert.Equal(t, "second", *rows[0].Notes)
	require.NotNil(t, rows[0].Value)
	assert.Equal(t, "1300", rows[0].Value.String())
}

// A rejected record pushes accepted below submitted and aborts the whole
// submission: no rows, no watermark. The scrape-attempt stamp survives by
// design.
func TestIngestRejectionAbortsSubmission(t *testing.T) {
	coord, st := newTestEngine(t)
	ctx := context.Background()

	sub := models.Submission{
		TickerSymbol: "BHP",
		Transactions: []models.RawTransaction{
			{Date: "2023-04-03", DirectorName: "J. Smith", TransactionType: "Buy"},
			{Date: "not a date", DirectorName: "A. Jones", TransactionType: "Sell"},
			{Date: "2023-04-05", DirectorName: "B. Brown", TransactionType: "Buy"},
		},
	}

	_, err := coord.Ingest(ctx, sub)
	require.Error(t, err)

	var partial *apperrors.PartialBatchError
	require.True(t, apperrors.As(err, &partial))
	assert.Equal(t, string(models.KindTransactions), partial.Kind)
	assert.Equal(t, 2, partial.Accepted)
	assert.Equal(t, 3, partial.Submitted)

	rows, err := st.Transactions(ctx, "BHP.AX")
	require.NoError(t, err)
	assert.Empty(t, rows)

	inst, err := st.Instrument(ctx, "BHP.AX")
	require.NoError(t, err)
	assert.Nil(t, inst.TransactionsLastUpdated)
	assert.NotNil(t, inst.LastScrapeAttempt)
}

// A store failure mid-batch leaves no partial state: neither the records
// persisted before the failure nor any after it are visible, and the
// watermark is unchanged.
func TestIngestStoreFailureRollsBackEverything(t *testing.T) {
	coord, st := newTestEngine(t)
	ctx := context.Background()

	failing := &failingStore{Store: st, failAfter: 1}
	coord.store = failing

	sub := models.Submission{
		TickerSymbol: "BHP",
		Transactions: []models.RawTransaction{
			{Date: "2023-04-03", DirectorName: "J. Smith", TransactionType: "Buy"},
			{Date: "2023-04-04", DirectorName: "A. Jones", TransactionType: "Sell"},
			{Date: "2023-04-05", DirectorName: "B. Brown", TransactionType: "Buy"},
		},
	}

	_, err := coord.Ingest(ctx, sub)
	require.Error(t, err)
	assert.False(t, apperrors.IsClientError(err))

	rows, err := st.Transactions(ctx, "BHP.AX")
	require.NoError(t, err)
	assert.Empty(t, rows)

	inst, err := st.Instrument(ctx, "BHP.AX")
	require.NoError(t, err)
	assert.Nil(t, inst.TransactionsLastUpdated)
}

// An interests sub-batch replaces the instrument's entire stored set.
func TestIngestInterestsFullReplace(t *testing.T) {
	coord, st := newTestEngine(t)
	ctx := context.Background()

	five := make([]models.RawInterest, 5)
	for i := range five {
		five[i] = models.RawInterest{Director: "Director " + string(rune('A'+i)), DirectShares: "100"}
	}
	_, err := coord.Ingest(ctx, models.Submission{TickerSymbol: "BHP", Interests: five})
	require.NoError(t, err)

	stored, err := st.Interests(ctx, "BHP.AX")
	require.NoError(t, err)
	require.Len(t, stored, 5)

	two := []models.RawInterest{
		{Director: "New One", DirectShares: "1,000", Options: "50"},
		{Director: "New Two", IndirectShares: "2,000"},
	}
	res, err := coord.Ingest(ctx, models.Submission{TickerSymbol: "BHP", Interests: two})
	require.NoError(t, err)
	assert.Equal(t, KindResult{Submitted: 2, Accepted: 2}, res.Kinds[models.KindInterests])

	stored, err = st.Interests(ctx, "BHP.AX")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestIngestHistoricalEndToEnd(t *testing.T) {
	coord, st := newTestEngine(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "BHP.csv")
	content := "date,open,high,low,close,volume\n" +
		"2024-01-02,10.0,10.5,9.8,10.2,1000\n" +
		"2024-01-03,10.2,10.3,9.9,10.1,900\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	start := time.Now().Add(-time.Second)
	res, err := coord.Ingest(ctx, models.Submission{
		TickerSymbol: "BHP",
		Historical:   &models.HistoricalRef{FilePath: path},
	})
	require.NoError(t, err)
	assert.Equal(t, KindResult{Submitted: 2, Accepted: 2}, res.Kinds[models.KindHistorical])

	bars, err := st.Bars(ctx, "BHP.AX")
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 10.2, bars[0].Close)
	assert.Nil(t, bars[0].AdjClose)
	assert.Nil(t, bars[1].AdjClose)
	assert.Equal(t, int64(900), bars[1].Volume)

	inst, err := st.Instrument(ctx, "BHP.AX")
	require.NoError(t, err)
	require.NotNil(t, inst.HistoricalLastUpdated)
	assert.True(t, inst.HistoricalLastUpdated.After(start))
}

// Rows with the wrong column count or blank content are excluded from the
// submitted denominator and do not abort the batch.
func TestIngestHistoricalSkipsMalformedRows(t *testing.T) {
	coord, st := newTestEngine(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "BHP.csv")
	content := "date,open,high,low,close,volume\n" +
		"2024-01-02,10.0,10.5,9.8,10.2,1000\n" +
		"2024-01-03,10.2,10.3\n" +
		"\n" +
		"2024-01-04,10.1,10.4,10.0,10.3,1100\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	res, err := coord.Ingest(ctx, models.Submission{
		TickerSymbol: "BHP",
		Historical:   &models.HistoricalRef{FilePath: path},
	})
	require.NoError(t, err)
	assert.Equal(t, KindResult{Submitted: 2, Accepted: 2}, res.Kinds[models.KindHistorical])

	bars, err := st.Bars(ctx, "BHP.AX")
	require.NoError(t, err)
	assert.Len(t, bars, 2)
}

func TestIngestHistoricalMissingFile(t *testing.T) {
	coord, st := newTestEngine(t)
	ctx := context.Background()

	_, err := coord.Ingest(ctx, models.Submission{
		TickerSymbol: "BHP",
		Historical:   &models.HistoricalRef{FilePath: filepath.Join(t.TempDir(), "missing.csv")},
	})
	assert.ErrorIs(t, err, apperrors.ErrFileNotFound)
	assert.True(t, apperrors.IsClientError(err))

	inst, err := st.Instrument(ctx, "BHP.AX")
	require.NoError(t, err)
	assert.Nil(t, inst.HistoricalLastUpdated)
}

func TestIngestHistoricalPathOutsideDataDir(t *testing.T) {
	coord, _ := newTestEngine(t)
	coord.histDir = filepath.Join(t.TempDir(), "allowed")

	outside := filepath.Join(t.TempDir(), "outside.csv")
	require.NoError(t, os.WriteFile(outside, []byte("date,open,high,low,close,volume\n"), 0o644))

	_, err := coord.Ingest(context.Background(), models.Submission{
		TickerSymbol: "BHP",
		Historical:   &models.HistoricalRef{FilePath: outside},
	})
	assert.ErrorIs(t, err, apperrors.ErrFileNotFound)
}

func TestIngestAnnouncementsUpsertByLink(t *testing.T) {
	coord, st := newTestEngine(t)
	ctx := context.Background()

	first := models.RawAnnouncement{
		Date: "2024-02-01", Heading: "Half Year Results", Pages: "30",
		URL: "https://example.com/doc.pdf", FileName: "doc.pdf", FileSize: "1024",
	}
	_, err := coord.Ingest(ctx, models.Submission{TickerSymbol: "BHP", Announcements: []models.RawAnnouncement{first}})
	require.NoError(t, err)

	updated := first
	updated.Heading = "Half Year Results (Amended)"
	updated.Downloaded = true
	_, err = coord.Ingest(ctx, models.Submission{TickerSymbol: "BHP", Announcements: []models.RawAnnouncement{updated}})
	require.NoError(t, err)

	stored, err := st.Announcements(ctx, "BHP.AX")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Half Year Results (Amended)", stored[0].Heading)
	assert.True(t, stored[0].Downloaded)

	files, err := st.ExistingFiles(ctx, "BHP.AX")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "doc.pdf", files[0].FileName)
	assert.Equal(t, int64(1024), files[0].FileSize)
}

func TestIngestOverview(t *testing.T) {
	coord, st := newTestEngine(t)
	ctx := context.Background()

	_, err := coord.Ingest(ctx, models.Submission{
		TickerSymbol: "BHP",
		Overview: &models.RawOverview{
			MarketCap: "$1,200,000,000",
			Sector:    "Materials",
			Website:   "https://bhp.com",
		},
	})
	require.NoError(t, err)

	inst, err := st.Instrument(ctx, "BHP.AX")
	require.NoError(t, err)
	require.NotNil(t, inst.MarketCap)
	assert.Equal(t, int64(1200000000), *inst.MarketCap)
	require.NotNil(t, inst.Sector)
	assert.Equal(t, "Materials", *inst.Sector)
	require.NotNil(t, inst.Website)
	assert.Equal(t, "https://bhp.com", *inst.Website)
}

// An empty submission records the scrape attempt and commits vacuously.
func TestIngestEmptySubmission(t *testing.T) {
	coord, st := newTestEngine(t)
	ctx := context.Background()

	res, err := coord.Ingest(ctx, models.Submission{TickerSymbol: "BHP"})
	require.NoError(t, err)
	assert.Empty(t, res.Kinds)

	inst, err := st.Instrument(ctx, "BHP.AX")
	require.NoError(t, err)
	assert.NotNil(t, inst.LastScrapeAttempt)
	assert.Nil(t, inst.TransactionsLastUpdated)
}

// failingStore wraps a real store and injects a persistence failure after
// a configured number of transaction rows.
type failingStore struct {
	store.Store
	failAfter int
}

func (f *failingStore) Begin(ctx context.Context) (store.Batch, error) {
	b, err := f.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &failingBatch{Batch: b, failAfter: f.failAfter}, nil
}

type failingBatch struct {
	store.Batch
	failAfter int
}

func (f *failingBatch) UpsertTransactions(ctx context.Context, rows []models.DirectorTransaction) error {
	if len(rows) > f.failAfter {
		if err := f.Batch.UpsertTransactions(ctx, rows[:f.failAfter]); err != nil {
			return err
		}
		return errors.New("simulated store failure")
	}
	return f.Batch.UpsertTransactions(ctx, rows)
}

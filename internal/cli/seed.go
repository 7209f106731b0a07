package cli

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"asx-ingest/internal/store"
	"asx-ingest/pkg/market"
)

// newSeedCmd registers instruments so submissions have rows to attach to.
// The instrument universe is maintained outside the ingestion path.
func newSeedCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed [file]",
		Short: "Register instruments from a CSV file",
		Long: `Registers instruments from a two-column CSV file (code, company name).
Bare codes are qualified with the configured market suffix. Existing
instruments are left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(app, args[0])
		},
	}
	return cmd
}

func runSeed(app *App, path string) error {
	cfg := app.Config

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	st, err := store.NewSQLiteStore(cfg.Store.DBPath, cfg.Market.Suffix)
	if err != nil {
		return err
	}
	defer st.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	seeded := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if len(rec) < 1 || strings.TrimSpace(rec[0]) == "" {
			continue
		}

		code := strings.ToUpper(strings.TrimSpace(rec[0]))
		name := ""
		if len(rec) > 1 {
			name = strings.TrimSpace(rec[1])
		}

		ticker := market.InstrumentID(code, cfg.Market.Suffix)
		if err := st.RegisterInstrument(context.Background(), ticker, name); err != nil {
			return err
		}
		seeded++
	}

	app.Logger.Info().Int("count", seeded).Msg("Instruments registered")
	fmt.Printf("Registered %d instruments\n", seeded)
	return nil
}

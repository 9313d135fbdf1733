package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"consumption-analytics/internal/growth"
)

// Load imports monthly consumption facts from a CSV file into the warehouse.
// The expected columns are account_id, account_name, business_unit, period,
// amount. Malformed rows are logged and skipped unless strict mode is set.
func (a *App) Load(ctx context.Context, opts LoadOptions) error {
	records, err := readFactCSV(opts.Path)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return errors.New("no data rows found in input file")
	}

	facts, rowErrs, err := growth.NormalizeFacts(records, opts.Strict)
	for _, rowErr := range rowErrs {
		a.Logger.Warn().Int("row", rowErr.Index+1).Str("reason", rowErr.Reason).Msg("rejected input row")
	}
	if err != nil {
		return err
	}

	if opts.DryRun {
		a.Logger.Info().Int("rows", len(facts)).Int("rejected", len(rowErrs)).Msg("load dry-run: nothing written")
		return nil
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot load facts")
	}
	if closeStore != nil {
		defer closeStore()
	}

	loaded := 0
	failed := 0
	for _, fact := range facts {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := store.UpsertFact(ctx, fact); err != nil {
			failed++
			a.Logger.Error().Err(err).Str("account_id", fact.AccountID).Time("period", fact.Period).Msg("failed to upsert fact")
			continue
		}
		loaded++
	}

	a.Logger.Info().Int("loaded", loaded).Int("failed", failed).Int("rejected", len(rowErrs)).Msg("fact load complete")
	if failed > 0 {
		return fmt.Errorf("%d of %d facts failed to load", failed, len(facts))
	}
	return nil
}

func readFactCSV(path string) ([]growth.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = 5

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if header[0] != "account_id" {
		return nil, fmt.Errorf("unexpected csv header %v, want account_id,account_name,business_unit,period,amount", header)
	}

	var records []growth.Record
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		records = append(records, growth.Record{
			AccountID:    fields[0],
			AccountName:  fields[1],
			BusinessUnit: fields[2],
			Period:       fields[3],
			Amount:       fields[4],
		})
	}
	return records, nil
}

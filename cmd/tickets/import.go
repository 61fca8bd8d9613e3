package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/mobil-koeln/tickets/internal/logging"
	"github.com/mobil-koeln/tickets/internal/models"
)

const defaultImportConcurrency = 4

// ticketCreator is the part of the mirror import needs
type ticketCreator interface {
	CreateTicket(ctx context.Context, fields models.Fields) (string, error)
}

// parseImport decodes a YAML list of tickets and validates every entry.
// All problems are reported together.
func parseImport(r io.Reader) ([]models.Fields, error) {
	var entries []models.Fields
	if err := yaml.NewDecoder(r).Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("import file is empty")
		}
		return nil, fmt.Errorf("invalid import file: %w", err)
	}

	var errs []error
	for i := range entries {
		entries[i] = entries[i].Trimmed()
		if err := entries[i].Validate(); err != nil {
			errs = append(errs, fmt.Errorf("ticket %d: %w", i+1, err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return entries, nil
}

// importTickets creates entries with at most concurrency calls in flight.
// The returned ids are in entry order. The first failure cancels the
// remaining creates.
func importTickets(ctx context.Context, creator ticketCreator, entries []models.Fields, concurrency int) ([]string, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	log := logging.Component("import")

	ids := make([]string, len(entries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, fields := range entries {
		g.Go(func() error {
			id, err := creator.CreateTicket(ctx, fields)
			if err != nil {
				return fmt.Errorf("ticket %d: %w", i+1, err)
			}
			ids[i] = id
			log.Debug().Str("ticket_id", id).Int("entry", i+1).Msg("ticket imported")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Info().Int("count", len(ids)).Msg("import finished")
	return ids, nil
}

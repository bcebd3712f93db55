package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"codeberg.org/snonux/nori/internal/batch"
	"codeberg.org/snonux/nori/internal/booru"
	"codeberg.org/snonux/nori/internal/cli"
	"codeberg.org/snonux/nori/internal/client"
	"codeberg.org/snonux/nori/internal/log"
	"codeberg.org/snonux/nori/internal/session"
)

// Services resolves a service name to a client. An empty name selects the
// default service.
type Services interface {
	Client(ctx context.Context, name string) (client.SearchClient, error)
}

// HistoryRecorder remembers queries that were run
type HistoryRecorder interface {
	Add(ctx context.Context, query string) error
}

// Processor runs search queries and prints their results
type Processor struct {
	flags    *cli.Flags
	filters  session.Filters
	services Services
	history  HistoryRecorder
	out      io.Writer
	errOut   io.Writer
}

// NewProcessor creates a new query processor. history may be nil.
func NewProcessor(flags *cli.Flags, filters session.Filters, services Services, history HistoryRecorder) *Processor {
	return &Processor{
		flags:    flags,
		filters:  filters,
		services: services,
		history:  history,
		out:      os.Stdout,
		errOut:   os.Stderr,
	}
}

// queryOutput is the --json form of one query
type queryOutput struct {
	Service string              `json:"service"`
	Query   string              `json:"query"`
	Result  *booru.SearchResult `json:"result"`
}

// ProcessSingleQuery searches service for tags and prints the result
func (p *Processor) ProcessSingleQuery(ctx context.Context, service, tags string) error {
	out, err := p.runQuery(ctx, batch.QueryEntry{Service: service, Tags: tags})
	if err != nil {
		return err
	}
	return p.printResult(out)
}

// ProcessBatch runs every query from the batch file
func (p *Processor) ProcessBatch(ctx context.Context) error {
	entries, err := batch.ReadBatchFile(p.flags.BatchFile)
	if err != nil {
		return err
	}

	// Track statistics
	processedCount := 0
	errorCount := 0
	imageCount := 0

	for i, entry := range entries {
		if !p.flags.JSON {
			fmt.Fprintf(p.out, "\nProcessing %d/%d: %s\n", i+1, len(entries), describe(entry))
		}

		out, err := p.runQuery(ctx, entry)
		if err != nil {
			fmt.Fprintf(p.errOut, "Error searching '%s': %v\n", describe(entry), err)
			errorCount++
			// Continue with next query
			continue
		}
		if err := p.printResult(out); err != nil {
			return err
		}
		processedCount++
		imageCount += out.Result.Len()
	}

	if !p.flags.JSON {
		// Print summary
		fmt.Fprintf(p.out, "\n=== Batch Search Summary ===\n")
		fmt.Fprintf(p.out, "Total queries: %d\n", len(entries))
		fmt.Fprintf(p.out, "Processed: %d\n", processedCount)
		fmt.Fprintf(p.out, "Images: %d\n", imageCount)
		if errorCount > 0 {
			fmt.Fprintf(p.out, "Errors: %d\n", errorCount)
		}
		fmt.Fprintf(p.out, "============================\n")
	}

	if errorCount > 0 && processedCount == 0 {
		return fmt.Errorf("all %d queries failed", errorCount)
	}
	return nil
}

// runQuery fetches flags.Pages pages starting at flags.Page. A failure after
// the first page still returns what was loaded.
func (p *Processor) runQuery(ctx context.Context, entry batch.QueryEntry) (*queryOutput, error) {
	sc, err := p.services.Client(ctx, entry.Service)
	if err != nil {
		return nil, err
	}

	tags := entry.Tags
	if entry.UseDefaultQuery {
		tags = sc.DefaultQuery()
	}

	logger := log.Ctx(ctx).With().
		Str(log.FieldService, sc.Settings().Name).
		Str(log.FieldQuery, tags).
		Logger()

	sess := session.New(sc, p.filters)
	if _, err := sess.StartAt(ctx, tags, p.flags.Page); err != nil {
		return nil, err
	}
	for i := 1; i < p.flags.Pages; i++ {
		_, err := sess.LoadNext(ctx)
		if errors.Is(err, session.ErrLastPage) {
			break
		}
		if err != nil {
			logger.Warn().Err(err).Msg("stopping after partial result")
			fmt.Fprintf(p.errOut, "Warning: stopped after a failed page: %v\n", err)
			break
		}
	}

	if p.history != nil {
		if err := p.history.Add(ctx, tags); err != nil {
			logger.Warn().Err(err).Msg("failed to record history")
		}
	}

	return &queryOutput{
		Service: sc.Settings().Name,
		Query:   tags,
		Result:  sess.Result(),
	}, nil
}

func (p *Processor) printResult(out *queryOutput) error {
	if p.flags.JSON {
		enc := json.NewEncoder(p.out)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		return nil
	}

	images := out.Result.Images()
	if len(images) == 0 {
		fmt.Fprintf(p.out, "%s: no images for %q\n", out.Service, out.Query)
		return nil
	}

	fmt.Fprintf(p.out, "%s: %d images for %q\n", out.Service, len(images), out.Query)
	for _, img := range images {
		fmt.Fprintf(p.out, "  %-10s %-12s %6d  %s\n", img.ID, img.SafeSearchRating, img.Score, img.FileURL)
	}
	if !out.Result.HasNextPage() {
		fmt.Fprintf(p.out, "  (no more pages)\n")
	}
	return nil
}

func describe(entry batch.QueryEntry) string {
	query := entry.Tags
	if entry.UseDefaultQuery {
		query = "(default query)"
	}
	if entry.Service == "" {
		return query
	}
	return entry.Service + " = " + query
}

package conversions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"
)

// maxPages bounds a single run against a feed that never ends.
const maxPages = 1000

// ErrUnknownNetwork is returned for a network without a registered source.
var ErrUnknownNetwork = errors.New("conversions: unknown network")

// Report is the outcome of syncing one network.
type Report struct {
	Network string
	Skipped bool
	Pages   int
	RecordResult
}

// Syncer drains sources into a sink.
type Syncer struct {
	sources map[string]Source
	sink    Sink
	logger  *slog.Logger
}

// NewSyncer registers sources by network. A source reporting itself as not
// configured is kept and skipped at run time.
func NewSyncer(sink Sink, logger *slog.Logger, sources ...Source) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	m := make(map[string]Source, len(sources))
	for _, src := range sources {
		m[src.Network()] = src
	}
	return &Syncer{sources: m, sink: sink, logger: logger}
}

// Networks lists the registered networks in name order.
func (s *Syncer) Networks() []string {
	out := make([]string, 0, len(s.sources))
	for name := range s.sources {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type configurable interface {
	Configured() bool
}

// Sync pulls every page of network and records it.
func (s *Syncer) Sync(ctx context.Context, network string) (Report, error) {
	report := Report{Network: network}
	src, ok := s.sources[network]
	if !ok {
		return report, fmt.Errorf("%w: %q", ErrUnknownNetwork, network)
	}
	logger := s.logger.With(slog.String("network", network))
	if c, ok := src.(configurable); ok && !c.Configured() {
		logger.Info("api key not set; skipping sync")
		report.Skipped = true
		return report, nil
	}

	cursor := ""
	for report.Pages < maxPages {
		page, err := src.Fetch(ctx, cursor)
		if err != nil {
			return report, err
		}
		report.Pages++
		res, err := s.sink.Record(ctx, network, page.Conversions)
		if err != nil {
			return report, err
		}
		report.Add(res)
		if page.NextCursor == "" || page.NextCursor == cursor {
			break
		}
		cursor = page.NextCursor
	}
	if report.Unmatched > 0 {
		logger.Warn("conversions without a matching program link", slog.Int("unmatched", report.Unmatched))
	}
	logger.Info("synced conversions",
		slog.Int("pages", report.Pages),
		slog.Int("inserted", report.Inserted),
		slog.Int("duplicates", report.Duplicates))
	return report, nil
}

// SyncAll syncs every network concurrently. It returns every report and the
// first error; one failing network does not cancel the others.
func (s *Syncer) SyncAll(ctx context.Context) ([]Report, error) {
	networks := s.Networks()
	reports := make([]Report, len(networks))
	var g errgroup.Group
	for i, network := range networks {
		g.Go(func() error {
			report, err := s.Sync(ctx, network)
			reports[i] = report
			if err != nil {
				return fmt.Errorf("%s: %w", network, err)
			}
			return nil
		})
	}
	return reports, g.Wait()
}

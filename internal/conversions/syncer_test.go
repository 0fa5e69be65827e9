package conversions

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	network    string
	pages      map[string]Page
	err        error
	configured bool
}

func (s *staticSource) Network() string  { return s.network }
func (s *staticSource) Configured() bool { return s.configured }

func (s *staticSource) Fetch(_ context.Context, cursor string) (Page, error) {
	if s.err != nil {
		return Page{}, s.err
	}
	return s.pages[cursor], nil
}

// memSink mirrors the unique (network, network_conversion_id) constraint.
type memSink struct {
	mu       sync.Mutex
	programs map[string]bool
	rows     map[string]Conversion
}

func newMemSink(programs ...string) *memSink {
	s := &memSink{programs: map[string]bool{}, rows: map[string]Conversion{}}
	for _, p := range programs {
		s.programs[p] = true
	}
	return s
}

func (s *memSink) Record(_ context.Context, network string, batch []Conversion) (RecordResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res RecordResult
	for _, c := range batch {
		if !s.programs[network+"/"+c.ProgramID] {
			res.Unmatched++
			continue
		}
		key := network + "/" + c.ID
		if _, ok := s.rows[key]; ok {
			res.Duplicates++
			continue
		}
		s.rows[key] = c
		res.Inserted++
	}
	return res, nil
}

func quietLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

func impactFeed() *staticSource {
	return &staticSource{network: NetworkImpact, configured: true, pages: map[string]Page{
		"":  {Conversions: []Conversion{{ID: "a", ProgramID: "p1"}, {ID: "b", ProgramID: "p1"}}, NextCursor: "2"},
		"2": {Conversions: []Conversion{{ID: "c", ProgramID: "p1"}, {ID: "d", ProgramID: "unknown"}}},
	}}
}

func TestSyncIsIdempotent(t *testing.T) {
	sink := newMemSink(NetworkImpact + "/p1")
	s := NewSyncer(sink, quietLogger(), impactFeed())

	first, err := s.Sync(context.Background(), NetworkImpact)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Pages)
	assert.Equal(t, 3, first.Inserted)
	assert.Equal(t, 1, first.Unmatched)

	second, err := s.Sync(context.Background(), NetworkImpact)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 3, second.Duplicates)
	assert.Len(t, sink.rows, 3)
}

func TestSyncSkipsUnconfiguredNetwork(t *testing.T) {
	src := impactFeed()
	src.configured = false
	sink := newMemSink(NetworkImpact + "/p1")
	report, err := NewSyncer(sink, quietLogger(), src).Sync(context.Background(), NetworkImpact)
	require.NoError(t, err)
	assert.True(t, report.Skipped)
	assert.Empty(t, sink.rows)
}

func TestSyncUnknownNetwork(t *testing.T) {
	_, err := NewSyncer(newMemSink(), quietLogger()).Sync(context.Background(), "cj")
	assert.ErrorIs(t, err, ErrUnknownNetwork)
}

func TestSyncStopsOnRepeatedCursor(t *testing.T) {
	src := &staticSource{network: NetworkImpact, configured: true, pages: map[string]Page{
		"":     {NextCursor: "loop"},
		"loop": {NextCursor: "loop"},
	}}
	report, err := NewSyncer(newMemSink(), quietLogger(), src).Sync(context.Background(), NetworkImpact)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Pages)
}

func TestSyncAllReportsEveryNetwork(t *testing.T) {
	boom := errors.New("feed down")
	broken := &staticSource{network: NetworkPartnerstack, configured: true, err: boom}
	sink := newMemSink(NetworkImpact + "/p1")
	s := NewSyncer(sink, quietLogger(), impactFeed(), broken)
	assert.Equal(t, []string{NetworkImpact, NetworkPartnerstack}, s.Networks())

	reports, err := s.SyncAll(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), NetworkPartnerstack)
	require.Len(t, reports, 2)
	assert.Equal(t, 3, reports[0].Inserted)
	assert.Equal(t, NetworkPartnerstack, reports[1].Network)
}

package conversions

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RecordResult counts the outcome of one recorded batch.
type RecordResult struct {
	Inserted   int
	Duplicates int
	Unmatched  int
}

// Add accumulates other into r.
func (r *RecordResult) Add(other RecordResult) {
	r.Inserted += other.Inserted
	r.Duplicates += other.Duplicates
	r.Unmatched += other.Unmatched
}

// Sink stores conversions.
type Sink interface {
	Record(ctx context.Context, network string, batch []Conversion) (RecordResult, error)
}

// Recorder writes conversions into PostgreSQL.
type Recorder struct {
	pool *pgxpool.Pool
}

// NewRecorder constructs a Recorder.
func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool}
}

// recordConversion resolves the program by (network, api_program_id) and the
// tool through the program's links, primary first. Conversions already stored
// under (network, network_conversion_id) are left alone.
const recordConversion = `
WITH target AS (
	SELECT ap.id AS program_id,
		(SELECT al.tool_id FROM affiliate_links al
			WHERE al.affiliate_program_id = ap.id
			ORDER BY al.is_primary DESC, al.created_at
			LIMIT 1) AS tool_id
	FROM affiliate_programs ap
	WHERE ap.network = $1 AND ap.api_program_id = $2
), ins AS (
	INSERT INTO conversions (tool_id, affiliate_program_id, network, network_conversion_id, revenue, commission, converted_at)
	SELECT tool_id, program_id, $1, $3, $4, $5, $6 FROM target WHERE tool_id IS NOT NULL
	ON CONFLICT (network, network_conversion_id) DO NOTHING
	RETURNING 1
)
SELECT EXISTS (SELECT 1 FROM target WHERE tool_id IS NOT NULL), EXISTS (SELECT 1 FROM ins)`

// Record implements Sink in a single round trip per batch.
func (r *Recorder) Record(ctx context.Context, network string, batch []Conversion) (RecordResult, error) {
	var res RecordResult
	if len(batch) == 0 {
		return res, nil
	}
	b := &pgx.Batch{}
	for _, c := range batch {
		b.Queue(recordConversion, network, c.ProgramID, c.ID, c.Revenue, c.Commission, c.ConvertedAt.UTC())
	}
	results := r.pool.SendBatch(ctx, b)
	defer func() {
		_ = results.Close()
	}()
	for range batch {
		var matched, inserted bool
		if err := results.QueryRow().Scan(&matched, &inserted); err != nil {
			return res, fmt.Errorf("conversions: record %s: %w", network, err)
		}
		switch {
		case inserted:
			res.Inserted++
		case matched:
			res.Duplicates++
		default:
			res.Unmatched++
		}
	}
	return res, nil
}

//go:build integration

package affiliates_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewdesk/reviewdesk/internal/affiliates"
	"github.com/reviewdesk/reviewdesk/internal/platform/db/dbtest"
)

func TestRepositoryLinksAndTarget(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.NewPool(t)
	repo := affiliates.NewRepository(pool)

	var toolID uuid.UUID
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO tools (name, slug, status) VALUES ('Linear', 'linear', 'published') RETURNING id`).Scan(&toolID))

	program, err := repo.CreateProgram(ctx, affiliates.ProgramInput{Network: "impact", ProgramName: "Linear", APIProgramID: "lin-1"})
	require.NoError(t, err)
	_, err = repo.CreateProgram(ctx, affiliates.ProgramInput{Network: "impact", ProgramName: "Linear again", APIProgramID: "lin-1"})
	require.ErrorIs(t, err, affiliates.ErrProgramExists)

	_, err = repo.Target(ctx, "linear")
	require.ErrorIs(t, err, affiliates.ErrNoTarget)

	plain, err := repo.CreateLink(ctx, toolID, affiliates.LinkInput{AffiliateProgramID: program.ID, TrackingURL: "https://linear.example/a"})
	require.NoError(t, err)
	target, err := repo.Target(ctx, "linear")
	require.NoError(t, err)
	assert.Equal(t, plain.TrackingURL, target.TrackingURL)

	first, err := repo.CreateLink(ctx, toolID, affiliates.LinkInput{AffiliateProgramID: program.ID, TrackingURL: "https://linear.example/b", IsPrimary: true})
	require.NoError(t, err)
	second, err := repo.CreateLink(ctx, toolID, affiliates.LinkInput{AffiliateProgramID: program.ID, TrackingURL: "https://linear.example/c", IsPrimary: true})
	require.NoError(t, err)

	links, err := repo.ListLinks(ctx, toolID)
	require.NoError(t, err)
	primaries := 0
	for _, l := range links {
		if l.IsPrimary {
			primaries++
			assert.Equal(t, second.ID, l.ID)
		}
	}
	assert.Equal(t, 1, primaries)
	assert.NotEqual(t, first.ID, second.ID)

	target, err = repo.Target(ctx, "linear")
	require.NoError(t, err)
	assert.Equal(t, "https://linear.example/c", target.TrackingURL)

	require.NoError(t, repo.RecordClick(ctx, affiliates.Click{ToolID: toolID, ProgramID: program.ID}))
	var ip *string
	require.NoError(t, pool.QueryRow(ctx, `SELECT ip_address FROM clicks WHERE tool_id = $1`, toolID).Scan(&ip))
	assert.Nil(t, ip)

	_, err = repo.CreateLink(ctx, uuid.New(), affiliates.LinkInput{AffiliateProgramID: program.ID, TrackingURL: "https://x.example"})
	require.ErrorIs(t, err, affiliates.ErrToolNotFound)
	_, err = repo.CreateLink(ctx, toolID, affiliates.LinkInput{AffiliateProgramID: uuid.New(), TrackingURL: "https://x.example"})
	require.ErrorIs(t, err, affiliates.ErrProgramNotFound)
}

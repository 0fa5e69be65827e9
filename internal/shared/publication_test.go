package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishUnpublish(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.FixedZone("x", 3600))
	p := Publish(now)
	assert.Equal(t, StatusPublished, p.Status)
	require.NotNil(t, p.PublishedAt)
	assert.True(t, p.PublishedAt.Equal(now))
	assert.Equal(t, time.UTC, p.PublishedAt.Location())

	u := Unpublish()
	assert.Equal(t, StatusDraft, u.Status)
	assert.Nil(t, u.PublishedAt)
}

func TestParseListScope(t *testing.T) {
	scope, err := ParseListScope("")
	require.NoError(t, err)
	assert.Equal(t, ScopePublished, scope)
	assert.Equal(t, []string{"published"}, scope.Statuses())

	scope, err = ParseListScope("all")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"draft", "published"}, scope.Statuses())

	_, err = ParseListScope("archived")
	assert.Error(t, err)
}

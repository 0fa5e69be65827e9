package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsOrderedAndComplete(t *testing.T) {
	migrations, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version, "migrations must be contiguous")
		assert.NotEmpty(t, strings.TrimSpace(m.SQL))
		assert.NotEmpty(t, m.Description)
	}

	all := ""
	for _, m := range migrations {
		all += m.SQL
	}
	for _, table := range []string{"roles", "permissions", "role_permissions", "users", "audit_logs", "conversions", "posts"} {
		assert.Contains(t, all, "CREATE TABLE IF NOT EXISTS "+table+" ", "missing table %s", table)
	}
	assert.Contains(t, all, "conversions_network_conversion_unique")
}

func TestParseMigrationName(t *testing.T) {
	m, err := parseMigrationName("0007_add_things.sql")
	require.NoError(t, err)
	assert.Equal(t, 7, m.Version)
	assert.Equal(t, "add things", m.Description)

	_, err = parseMigrationName("nope.sql")
	assert.Error(t, err)
	_, err = parseMigrationName("x1_bad.sql")
	assert.Error(t, err)
}

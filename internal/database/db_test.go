package database

import (
	"strings"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seat-reservation/internal/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DBConfig{User: "app", Pass: "p@ss", Host: "db", Port: "3307", Name: "seats"})

	parsed, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "app", parsed.User)
	assert.Equal(t, "p@ss", parsed.Passwd)
	assert.Equal(t, "db:3307", parsed.Addr)
	assert.Equal(t, "seats", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.Equal(t, time.UTC, parsed.Loc)
}

func TestSchemaDeclaresClaimKeys(t *testing.T) {
	all := strings.Join(schema, "\n")
	assert.Contains(t, all, "PRIMARY KEY (seat_id, date, slot)")
	assert.Contains(t, all, "PRIMARY KEY (user_id, date)")
	assert.Contains(t, all, "UNIQUE KEY uq_seats_number (seat_number)")
}

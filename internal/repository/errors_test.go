package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestDuplicateKeyDetection(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	deadlock := &mysql.MySQLError{Number: 1213, Message: "Deadlock found"}

	assert.True(t, isDuplicateKey(dup))
	assert.True(t, isDuplicateKey(fmt.Errorf("insert: %w", dup)))
	assert.False(t, isDuplicateKey(deadlock))
	assert.False(t, isDuplicateKey(errors.New("1062")))

	assert.True(t, isClaimRace(dup))
	assert.True(t, isClaimRace(deadlock))
	assert.False(t, isClaimRace(&mysql.MySQLError{Number: 1146}))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "intern@example.com", NormalizeEmail("  Intern@Example.COM "))
}

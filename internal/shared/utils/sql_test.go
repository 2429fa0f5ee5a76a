package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinWithAnd(t *testing.T) {
	assert.Equal(t, "1=1", JoinWithAnd(nil))
	assert.Equal(t, "a = $1", JoinWithAnd([]string{"a = $1"}))
	assert.Equal(t, "a = $1 AND b ILIKE $2", JoinWithAnd([]string{"a = $1", "b ILIKE $2"}))
}

func TestJoinWithOr(t *testing.T) {
	assert.Equal(t, "1=1", JoinWithOr(nil))
	assert.Equal(t, "a = $1 OR b = $2", JoinWithOr([]string{"a = $1", "b = $2"}))
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%rowling%", LikePattern("rowling"))
	assert.Equal(t, "%%", LikePattern(""))
}

package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to IssueStatus }{
		{Reported, InProgress},
		{Reported, Resolved},
		{InProgress, Resolved},
		{InProgress, Closed},
		{Resolved, Closed},
		{Resolved, Reported}, // citizen rejects the resolution
		{Closed, Closed},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	denied := []struct{ from, to IssueStatus }{
		{InProgress, Reported},
		{Closed, Reported},
		{Closed, Resolved},
		{Closed, InProgress},
		{Resolved, InProgress},
	}
	for _, tc := range denied {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s should be denied", tc.from, tc.to)
	}
}

func TestLocationValid(t *testing.T) {
	assert.True(t, Location{Lat: 40.7128, Lng: -74.0060}.Valid())
	assert.True(t, Location{Lat: -90, Lng: 180}.Valid())
	assert.False(t, Location{Lat: 91, Lng: 0}.Valid())
	assert.False(t, Location{Lat: 0, Lng: -181}.Valid())
	assert.False(t, Location{Lat: math.NaN(), Lng: 0}.Valid())
}

func TestEnumValidation(t *testing.T) {
	assert.True(t, ValidCategory("roads"))
	assert.False(t, ValidCategory("Road"))
	assert.True(t, ValidStatus("in_progress"))
	assert.False(t, ValidStatus("pending"))
	assert.True(t, ValidSeverity("critical"))
	assert.False(t, ValidSeverity("urgent"))
	assert.True(t, ValidVoteType("downvote"))
	assert.False(t, ValidVoteType("vote"))
	assert.True(t, ValidRole("field_worker"))
	assert.False(t, ValidRole("superuser"))
}

package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(d int) time.Time {
	return time.Date(2026, 9, d, 0, 0, 0, 0, time.UTC)
}

func TestRangesOverlap(t *testing.T) {
	// plain overlap
	assert.True(t, RangesOverlap(day(1), day(5), day(3), day(8)))
	assert.True(t, RangesOverlap(day(3), day(8), day(1), day(5)))

	// containment
	assert.True(t, RangesOverlap(day(1), day(10), day(3), day(5)))
	assert.True(t, RangesOverlap(day(3), day(5), day(1), day(10)))

	// identical
	assert.True(t, RangesOverlap(day(1), day(5), day(1), day(5)))

	// disjoint
	assert.False(t, RangesOverlap(day(1), day(3), day(5), day(8)))
	assert.False(t, RangesOverlap(day(5), day(8), day(1), day(3)))
}

func TestRangesOverlapAdjacency(t *testing.T) {
	// Half-open intervals: one stay ending on the day another begins is a
	// valid back-to-back booking, not a conflict.
	assert.False(t, RangesOverlap(day(1), day(5), day(5), day(8)))
	assert.False(t, RangesOverlap(day(5), day(8), day(1), day(5)))
}

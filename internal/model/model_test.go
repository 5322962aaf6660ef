package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStyleTier(t *testing.T) {
	assert.Equal(t, 0, StyleTier(0))
	assert.Equal(t, 0, StyleTier(499))
	assert.Equal(t, 1, StyleTier(500))
	assert.Equal(t, 4, StyleTier(2000))
	// Clamped at the top tier
	assert.Equal(t, 4, StyleTier(5000))
}

func TestZoneValidation(t *testing.T) {
	assert.True(t, IsOutdoorZone(ZoneBeach))
	assert.False(t, IsOutdoorZone("atlantis"))

	interior := InteriorZone("bar-17")
	assert.Equal(t, ZoneID("building:bar-17"), interior)
	assert.True(t, IsInteriorZone(interior))
	assert.False(t, IsInteriorZone(ZoneCity))

	assert.True(t, ValidZone(ZoneHotel))
	assert.True(t, ValidZone(interior))
	assert.False(t, ValidZone("building:"))
	assert.False(t, ValidZone("nowhere"))
}

func TestRecordHasRewarded(t *testing.T) {
	r := &PlayerRecord{Name: "Larry", RewardedTargets: []string{"object:cat-1"}}
	assert.True(t, r.HasRewarded("object:cat-1"))
	assert.False(t, r.HasRewarded("object:cat-2"))
}

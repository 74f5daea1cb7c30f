package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestHealthStartsFull(t *testing.T) {
	h := NewHealth(100)
	assert.Equal(t, 100.0, h.Current())
	assert.Equal(t, 100.0, h.Max())
}

func TestApplyEffectClampsAndNotifies(t *testing.T) {
	h := NewHealth(100)
	var changes []HealthChange
	h.OnChange(func(c HealthChange) { changes = append(changes, c) })

	h.ApplyEffect(-30)
	h.ApplyEffect(-200)
	h.ApplyEffect(50)
	h.ApplyEffect(1000)

	assert.Equal(t, 100.0, h.Current())
	assert.Len(t, changes, 4, "every effect notifies, even saturated ones")

	assert.Equal(t, 70.0, changes[0].Current)
	assert.True(t, changes[0].IsDamage)
	assert.Equal(t, 0.0, changes[1].Current, "overkill clamps to zero")
	assert.True(t, changes[2].IsHealing)
	assert.Equal(t, 100.0, changes[3].Current, "overheal clamps to max")
}

func TestZeroDeltaIsNeitherDamageNorHealing(t *testing.T) {
	h := NewHealth(50)
	change := h.ApplyEffect(0)
	assert.False(t, change.IsDamage)
	assert.False(t, change.IsHealing)
}

func TestHealthNeverLeavesRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		max := rapid.Float64Range(1, 1000).Draw(t, "max")
		h := NewHealth(max)

		n := rapid.IntRange(1, 100).Draw(t, "effects")
		for i := 0; i < n; i++ {
			h.ApplyEffect(rapid.Float64Range(-2*max, 2*max).Draw(t, "delta"))
			if h.Current() < 0 || h.Current() > max {
				t.Fatalf("health %g escaped [0, %g]", h.Current(), max)
			}
		}
	})
}

package actuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch_Range(t *testing.T) {
	res := Match("0-10", "5")
	assert.True(t, res.Valid)
	assert.Equal(t, DisplayRange, res.Display)

	res = Match("0-10", "0")
	assert.True(t, res.Valid)

	res = Match("0-10", "10")
	assert.True(t, res.Valid)

	res = Match("0-10", "15")
	assert.False(t, res.Valid)
	assert.Equal(t, DisplayRange, res.Display)

	res = Match("0-10", "on")
	assert.False(t, res.Valid)
}

func TestMatch_RangeInvertedBoundsAlwaysRejects(t *testing.T) {
	// "5-3" is an authoring mistake; the comparison is taken as given.
	for _, candidate := range []string{"3", "4", "5"} {
		res := Match("5-3", candidate)
		assert.False(t, res.Valid, "candidate %s", candidate)
		assert.Equal(t, DisplayRange, res.Display)
	}
}

func TestMatch_Toggle(t *testing.T) {
	res := Match("on,off", "on")
	assert.True(t, res.Valid)
	assert.Equal(t, DisplayToggle, res.Display)

	res = Match("on,off", "off")
	assert.True(t, res.Valid)

	res = Match("on,off", "On")
	assert.False(t, res.Valid, "list matching is case-sensitive")
}

func TestMatch_List(t *testing.T) {
	res := Match("red,green,blue", "green")
	assert.True(t, res.Valid)
	assert.Equal(t, DisplayList, res.Display)

	res = Match("red,green,blue", "yellow")
	assert.False(t, res.Valid)
	assert.Equal(t, DisplayList, res.Display)
}

func TestMatch_SingleValue(t *testing.T) {
	res := Match("ENABLED", "ENABLED")
	assert.True(t, res.Valid)
	assert.Equal(t, DisplayText, res.Display)

	res = Match("ENABLED", "enabled")
	assert.False(t, res.Valid)
	assert.Equal(t, DisplayText, res.Display)
}

func TestMatch_NumericRangeWithDecimals(t *testing.T) {
	res := Match("0.5-1.5", "1.0")
	assert.True(t, res.Valid)
	assert.Equal(t, DisplayRange, res.Display)
}

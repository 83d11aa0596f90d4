package rules

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClearanceMatrixIsSymmetric(t *testing.T) {
	m := NewClearanceMatrix(2)
	signal := m.AddClass("signal")
	power := m.AddClass("power")

	m.Set(signal, power, 12)
	m.SetOnLayer(power, power, 1, 20)

	assert.Equal(t, 12.0, m.Value(signal, power, 0))
	assert.Equal(t, 12.0, m.Value(power, signal, 1))
	assert.Equal(t, 0.0, m.Value(power, power, 0))
	assert.Equal(t, 20.0, m.Value(power, power, 1))
	assert.Equal(t, 20.0, m.MaxValue(power, 1))
	assert.Equal(t, 12.0, m.MaxValue(power, 0))
}

func TestClearanceMatrixNullClass(t *testing.T) {
	m := NewClearanceMatrix(1)
	def := m.ClassNo("default")
	m.Set(0, def, 10)
	assert.Equal(t, 0.0, m.Value(0, def, 0))
	assert.Equal(t, 0.0, m.Value(def, def, 5), "layer out of range")
	assert.Equal(t, def, m.AddClass("default"))
}

func TestMustClassNo(t *testing.T) {
	m := NewClearanceMatrix(1)
	_, err := m.MustClassNo("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownClass))
}

func TestNetTableNaturalOrder(t *testing.T) {
	nets := NewNetTable()
	nets.Add("D10", 1)
	nets.Add("D2", 1)
	nets.Add("GND", 1)
	again := nets.Add("D2", 1)
	assert.Equal(t, 2, again.No)

	var names []string
	for _, n := range nets.Sorted() {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"D2", "D10", "GND"}, names)

	n, ok := nets.ByName("GND")
	require.True(t, ok)
	assert.Equal(t, "GND", nets.Name(n.No))
}

func TestParseAngleRestriction(t *testing.T) {
	for in, want := range map[string]AngleRestriction{"none": AngleNone, "45": Angle45, "90": Angle90} {
		got, err := ParseAngleRestriction(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, in, got.String())
	}
	_, err := ParseAngleRestriction("30")
	assert.Error(t, err)
}

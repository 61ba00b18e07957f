package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpianalyzer/pkg/contracts/domain"
)

func TestSummarizeKPIs(t *testing.T) {
	c := fixture()
	s := domain.Selection{Agencies: []string{"A", "B", "C"}, Periods: []string{"Enero", "Febrero"}}

	got := SummarizeKPIs(c, s)
	require.Len(t, got, len(c.AllKPIs))

	ventas := got[0]
	assert.Equal(t, "Ventas", ventas.KPI)
	assert.Equal(t, 3, ventas.Count)
	assert.Equal(t, 47.0, ventas.Sum)
	assert.InDelta(t, 47.0/3, ventas.Mean, 1e-9)
	assert.Equal(t, 10.0, ventas.Median)
	assert.Equal(t, 7.0, ventas.Min)
	assert.Equal(t, 30.0, ventas.Max)
	assert.Greater(t, ventas.StdDev, 0.0)
}

func TestSummarizeKPIsEmptySelection(t *testing.T) {
	got := SummarizeKPIs(fixture(), domain.Selection{})
	require.Len(t, got, 3)
	for _, s := range got {
		assert.Zero(t, s.Count)
		assert.Zero(t, s.Sum)
	}
}

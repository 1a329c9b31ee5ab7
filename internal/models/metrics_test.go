package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBatch_SetKeepsInsertionOrder(t *testing.T) {
	b := NewBatch("rack")
	b.Set("rack.humidity", 41.5)
	b.Set("rack.temperature", 22.1)
	b.Set("rack.humidity", 42.0)

	require.Equal(t, 2, b.Len())
	require.Equal(t, []Metric{
		{Name: "rack.humidity", Value: 42.0},
		{Name: "rack.temperature", Value: 22.1},
	}, b.Metrics())

	v, ok := b.Get("rack.temperature")
	require.True(t, ok)
	require.Equal(t, 22.1, v)

	_, ok = b.Get("rack.pressure")
	require.False(t, ok)
}

func TestBatch_MetricsReturnsCopy(t *testing.T) {
	b := NewBatch("rack")
	b.Set("a", 1)

	m := b.Metrics()
	m[0].Value = 99

	v, _ := b.Get("a")
	require.Equal(t, 1.0, v)
}

func TestBatch_NilAndZeroValue(t *testing.T) {
	var nilBatch *Batch
	require.Equal(t, 0, nilBatch.Len())
	require.Nil(t, nilBatch.Metrics())

	var zero Batch
	zero.Set("x", 3)
	require.Equal(t, 1, zero.Len())
}

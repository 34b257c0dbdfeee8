package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistory_PushAndGet(t *testing.T) {
	h := NewHistory(3)

	assert.Nil(t, h.Get(1, 10))

	h.Push(1, 10)
	h.Push(1, 20)
	assert.Equal(t, []float64{10, 20}, h.Get(1, 10))
	assert.Equal(t, []float64{20}, h.Get(1, 1))
	assert.Equal(t, 2, h.Count(1))
	assert.Equal(t, 0, h.Count(2))
}

func TestHistory_Wraps(t *testing.T) {
	h := NewHistory(3)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		h.Push(7, v)
	}

	assert.Equal(t, []float64{3, 4, 5}, h.Get(7, 10))
	assert.Equal(t, 3, h.Count(7))
}

func TestHistory_DefaultSize(t *testing.T) {
	h := NewHistory(0)
	assert.Equal(t, DefaultHistorySize, h.size)
}

func TestHistory_Retain(t *testing.T) {
	h := NewHistory(5)
	h.Push(1, 1)
	h.Push(2, 2)

	h.Retain(map[int]bool{2: true})

	assert.Nil(t, h.Get(1, 5))
	assert.Equal(t, []float64{2}, h.Get(2, 5))
}

func TestRenderSparkline(t *testing.T) {
	assert.Empty(t, RenderSparkline(nil, 10, ColorGraph))
	assert.Empty(t, RenderSparkline([]float64{1}, 0, ColorGraph))

	out := RenderSparkline([]float64{0, 50, 100}, 3, ColorGraph)
	assert.Equal(t, "▁▄█", out)

	// All zero stays on the floor.
	assert.Equal(t, "▁▁", RenderSparkline([]float64{0, 0}, 2, ColorGraph))
}

func TestResampleData(t *testing.T) {
	assert.Nil(t, resampleData(nil, 4))
	assert.Equal(t, []float64{5, 5, 5}, resampleData([]float64{5}, 3))
	assert.Equal(t, []float64{2, 4}, resampleData([]float64{1, 2, 3, 4}, 2))
	assert.Equal(t, []float64{0, 5, 10}, resampleData([]float64{0, 10}, 3))
}

package monitor

import "sync"

// DefaultHistorySize is the number of hashrate samples kept per node.
const DefaultHistorySize = 120

// History keeps the recent 10s hashrate of every node in ring buffers,
// keyed by node id so samples survive edits and reordering.
type History struct {
	mu    sync.RWMutex
	size  int
	nodes map[int]*ringBuffer
}

// ringBuffer is a fixed-size circular buffer for float64 values.
type ringBuffer struct {
	data  []float64
	head  int
	count int
	size  int
}

// NewHistory creates a history tracker with the specified buffer size.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{
		size:  size,
		nodes: make(map[int]*ringBuffer),
	}
}

// Push records one hashrate sample for node id.
func (h *History) Push(id int, hashrate float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	buf, ok := h.nodes[id]
	if !ok {
		buf = newRingBuffer(h.size)
		h.nodes[id] = buf
	}
	buf.push(hashrate)
}

// Get returns up to count of the most recent samples, oldest first.
func (h *History) Get(id, count int) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	buf, ok := h.nodes[id]
	if !ok {
		return nil
	}
	return buf.getLast(count)
}

// Count returns the number of samples stored for id.
func (h *History) Count(id int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	buf, ok := h.nodes[id]
	if !ok {
		return 0
	}
	return buf.count
}

// Retain drops the history of every node whose id is not in ids.
func (h *History) Retain(ids map[int]bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id := range h.nodes {
		if !ids[id] {
			delete(h.nodes, id)
		}
	}
}

func newRingBuffer(size int) *ringBuffer {
	return &ringBuffer{
		data: make([]float64, size),
		size: size,
	}
}

func (r *ringBuffer) push(value float64) {
	r.data[r.head] = value
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

// getLast returns the last count values in chronological order (oldest first).
func (r *ringBuffer) getLast(count int) []float64 {
	if count <= 0 || r.count == 0 {
		return nil
	}
	if count > r.count {
		count = r.count
	}

	result := make([]float64, count)

	// head is the next write position, so the newest value sits at head-1.
	start := (r.head - count + r.size) % r.size
	for i := 0; i < count; i++ {
		result[i] = r.data[(start+i)%r.size]
	}
	return result
}

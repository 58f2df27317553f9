package testserver

import (
	"container/heap"
	"strconv"
)

// item is a key scheduled for expiration
type item struct {
	Key      string
	Deadline int64 // unix nanoseconds
	index    int   // Index in the heap, maintained by heap package
}

func (i *item) String() string {
	return "{Key: " + i.Key + ", Deadline: " + strconv.FormatInt(i.Deadline, 10) + "}"
}

// expiryHeap is a min heap of expiration deadlines with key based access.
// It is not thread-safe, the store guards it with a mutex.
type expiryHeap struct {
	items    []*item          // The actual heap slice
	itemsMap map[string]*item // Map for O(1) access by key
}

func newExpiryHeap() *expiryHeap {
	return &expiryHeap{
		items:    make([]*item, 0),
		itemsMap: make(map[string]*item),
	}
}

// Len returns the number of items in the queue (part of heap.Interface)
func (h *expiryHeap) Len() int { return len(h.items) }

// Less orders by deadline, the next key to expire comes first (part of heap.Interface)
func (h *expiryHeap) Less(i, j int) bool {
	return h.items[i].Deadline < h.items[j].Deadline
}

// Swap exchanges items at positions i and j (part of heap.Interface)
func (h *expiryHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].index = i
	h.items[j].index = j
}

// Push adds an item to the heap (part of heap.Interface)
func (h *expiryHeap) Push(x interface{}) {
	it := x.(*item)
	it.index = len(h.items)
	h.items = append(h.items, it)
	h.itemsMap[it.Key] = it
}

// Pop removes and returns the minimum item (part of heap.Interface)
func (h *expiryHeap) Pop() interface{} {
	old := h.items
	n := len(old)
	it := old[n-1]
	old[n-1] = nil // Avoid memory leak
	it.index = -1
	h.items = old[:n-1]
	delete(h.itemsMap, it.Key)
	return it
}

// Schedule adds a key or moves its deadline
func (h *expiryHeap) Schedule(key string, deadline int64) {
	if it, exists := h.itemsMap[key]; exists {
		it.Deadline = deadline
		heap.Fix(h, it.index)
		return
	}
	heap.Push(h, &item{Key: key, Deadline: deadline})
}

// Unschedule removes a key, it returns false if the key was not scheduled
func (h *expiryHeap) Unschedule(key string) bool {
	it, exists := h.itemsMap[key]
	if !exists {
		return false
	}
	heap.Remove(h, it.index)
	return true
}

// Peek returns the next item to expire without removing it
func (h *expiryHeap) Peek() (*item, bool) {
	if len(h.items) == 0 {
		return nil, false
	}
	return h.items[0], true
}

// PopDue removes and returns all keys with a deadline at or before now
func (h *expiryHeap) PopDue(now int64) []string {
	var due []string
	for {
		it, ok := h.Peek()
		if !ok || it.Deadline > now {
			return due
		}
		heap.Pop(h)
		due = append(due, it.Key)
	}
}

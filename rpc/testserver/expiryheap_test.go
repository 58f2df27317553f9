package testserver

import (
	"container/heap"
	"math/rand"
	"sort"
	"strconv"
	"testing"
)

// TestNewExpiryHeap tests the creation of a new expiryHeap
func TestNewExpiryHeap(t *testing.T) {
	h := newExpiryHeap()

	if h.Len() != 0 {
		t.Errorf("New heap should be empty, but has length %d", h.Len())
	}

	if len(h.itemsMap) != 0 {
		t.Errorf("New heap's map should be empty, but has %d items", len(h.itemsMap))
	}

	if _, exists := h.Peek(); exists {
		t.Error("Peek on empty heap should return exists=false")
	}
}

// TestSchedule tests adding keys to the heap
func TestSchedule(t *testing.T) {
	h := newExpiryHeap()

	h.Schedule("a", 100)
	h.Schedule("b", 200)
	h.Schedule("c", 50)

	if h.Len() != 3 {
		t.Errorf("Heap should have 3 items, but has %d", h.Len())
	}

	it, exists := h.Peek()
	if !exists {
		t.Fatal("Peek() should return an item")
	}
	if it.Key != "c" || it.Deadline != 50 {
		t.Errorf("Expected next item to be {c 50}, got %s", it)
	}
}

// TestReschedule tests moving the deadline of a scheduled key
func TestReschedule(t *testing.T) {
	h := newExpiryHeap()

	h.Schedule("a", 100)
	h.Schedule("b", 200)

	// Move a behind b
	h.Schedule("a", 300)

	if h.Len() != 2 {
		t.Errorf("Rescheduling must not add an item, heap has %d items", h.Len())
	}

	next, _ := h.Peek()
	if next.Key != "b" {
		t.Errorf("Next item should now be b, got %s", next.Key)
	}

	// Move b to the front again
	h.Schedule("b", 50)

	next, _ = h.Peek()
	if next.Key != "b" || next.Deadline != 50 {
		t.Errorf("Next item should now be {b 50}, got %s", next)
	}
}

// TestUnschedule tests removing keys
func TestUnschedule(t *testing.T) {
	h := newExpiryHeap()

	h.Schedule("a", 100)
	h.Schedule("b", 200)
	h.Schedule("c", 300)

	if !h.Unschedule("b") {
		t.Fatal("Unschedule should return true for a scheduled key")
	}

	if h.Len() != 2 {
		t.Errorf("Heap should have 2 items after removal, has %d", h.Len())
	}

	if _, exists := h.itemsMap["b"]; exists {
		t.Error("Heap should not contain b after removal")
	}

	if h.Unschedule("missing") {
		t.Error("Unschedule should return false for a key that is not scheduled")
	}
}

// TestPopDue tests that only keys at or before now are removed
func TestPopDue(t *testing.T) {
	h := newExpiryHeap()

	h.Schedule("late", 300)
	h.Schedule("first", 100)
	h.Schedule("exact", 200)

	due := h.PopDue(200)
	if len(due) != 2 || due[0] != "first" || due[1] != "exact" {
		t.Errorf("Expected [first exact] to be due, got %v", due)
	}

	if h.Len() != 1 {
		t.Errorf("Heap should have 1 item left, has %d", h.Len())
	}

	if due := h.PopDue(299); len(due) != 0 {
		t.Errorf("Expected nothing to be due, got %v", due)
	}

	if due := h.PopDue(1000); len(due) != 1 || due[0] != "late" {
		t.Errorf("Expected [late] to be due, got %v", due)
	}
}

// TestPopOrder tests if items are popped in deadline order
func TestPopOrder(t *testing.T) {
	h := newExpiryHeap()

	deadlines := make([]int64, 1000)
	for i := range deadlines {
		deadlines[i] = rand.Int63n(1 << 40)
		h.Schedule("key-"+strconv.Itoa(i), deadlines[i])
	}

	sort.Slice(deadlines, func(i, j int) bool { return deadlines[i] < deadlines[j] })

	for i, expected := range deadlines {
		if h.Len() == 0 {
			t.Fatalf("Heap empty after %d items, expected %d items", i, len(deadlines))
		}

		it := heap.Pop(h).(*item)
		if it.Deadline != expected {
			t.Fatalf("Pop %d: expected deadline %d, got %d", i, expected, it.Deadline)
		}
	}

	if len(h.itemsMap) != 0 {
		t.Errorf("Map should be empty after popping all items, has %d items", len(h.itemsMap))
	}
}

package explore

import (
	"testing"

	"github.com/nao1215/namescan/internal/model"
)

// TestQueueFIFO verifies ordering and drain reporting.
func TestQueueFIFO(t *testing.T) {
	t.Parallel()

	q := NewQueue(false)
	q.Push(model.NewIdentifier("alice", ""))
	q.Push(model.NewIdentifier("bob", ""))

	first, ok := q.Pop()
	if !ok || first.Value != "alice" {
		t.Errorf("first pop = %v (%v), want alice", first, ok)
	}
	second, ok := q.Pop()
	if !ok || second.Value != "bob" {
		t.Errorf("second pop = %v (%v), want bob", second, ok)
	}
	if _, ok := q.Pop(); ok {
		t.Error("drained queue must report false")
	}
}

// TestQueueCaseFoldedDedup verifies that identifiers differing only by
// case are dispatched once.
func TestQueueCaseFoldedDedup(t *testing.T) {
	t.Parallel()

	q := NewQueue(false)
	q.Push(model.NewIdentifier("Alice", ""))
	q.Push(model.NewIdentifier("alice", ""))
	q.Push(model.NewIdentifier("ALICE", ""))

	var popped []string
	for {
		id, ok := q.Pop()
		if !ok {
			break
		}
		popped = append(popped, id.Value)
	}
	if len(popped) != 1 {
		t.Errorf("popped %v, want exactly one entry", popped)
	}
}

// TestQueueCaseSensitive verifies the sensitivity toggle keeps case
// variants distinct.
func TestQueueCaseSensitive(t *testing.T) {
	t.Parallel()

	q := NewQueue(true)
	q.Push(model.NewIdentifier("Alice", ""))
	q.Push(model.NewIdentifier("alice", ""))

	count := 0
	for {
		if _, ok := q.Pop(); !ok {
			break
		}
		count++
	}
	if count != 2 {
		t.Errorf("popped %d entries, want 2 in case-sensitive mode", count)
	}
}

// TestQueueKindsAreDistinct verifies that equal values under different
// kinds are separate targets.
func TestQueueKindsAreDistinct(t *testing.T) {
	t.Parallel()

	q := NewQueue(false)
	q.Push(model.NewIdentifier("12345", model.KindUsername))
	q.Push(model.NewIdentifier("12345", model.KindGaiaID))

	count := 0
	for {
		if _, ok := q.Pop(); !ok {
			break
		}
		count++
	}
	if count != 2 {
		t.Errorf("popped %d entries, want 2", count)
	}
}

// TestQueueSeen verifies seen reporting after a pop.
func TestQueueSeen(t *testing.T) {
	t.Parallel()

	q := NewQueue(false)
	id := model.NewIdentifier("alice", "")
	if q.Seen(id) {
		t.Error("fresh identifier must not be seen")
	}
	q.Push(id)
	if _, ok := q.Pop(); !ok {
		t.Fatal("expected a pop")
	}
	if !q.Seen(model.NewIdentifier("ALICE", "")) {
		t.Error("case variant of a dispatched identifier must read as seen")
	}
}

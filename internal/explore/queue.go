package explore

import (
	"golang.org/x/text/cases"

	"github.com/nao1215/namescan/internal/model"
)

// Queue is the driver's FIFO of identifiers pending exploration, paired
// with the seen set that guarantees each identifier is dispatched at
// most once per run.
//
// Deduplication folds case by default, so "Alice" and "alice" are one
// target. Sensitive mode keeps them distinct for services where case
// matters.
//
// Queue is not safe for concurrent use. The driver mutates it only
// between dispatch rounds.
type Queue struct {
	items  []model.Identifier
	seen   map[string]bool
	folder cases.Caser

	// caseSensitive disables case folding in the seen set.
	caseSensitive bool
}

// NewQueue creates an empty queue. caseSensitive disables the default
// case-folded deduplication.
func NewQueue(caseSensitive bool) *Queue {
	return &Queue{
		seen:          make(map[string]bool),
		folder:        cases.Fold(),
		caseSensitive: caseSensitive,
	}
}

// Push appends an identifier for later exploration. Duplicates are
// accepted here and discarded at Pop time, which keeps Push cheap for
// probe-round fold-ins.
func (q *Queue) Push(id model.Identifier) {
	q.items = append(q.items, id)
}

// Pop returns the next identifier that has not been dispatched yet,
// marking it seen. It reports false when the queue is drained.
func (q *Queue) Pop() (model.Identifier, bool) {
	for len(q.items) > 0 {
		id := q.items[0]
		q.items = q.items[1:]

		key := q.key(id)
		if q.seen[key] {
			continue
		}
		q.seen[key] = true
		return id, true
	}
	return model.Identifier{}, false
}

// Seen reports whether an identifier has already been dispatched.
func (q *Queue) Seen(id model.Identifier) bool {
	return q.seen[q.key(id)]
}

// Len returns the number of queued entries, seen or not.
func (q *Queue) Len() int {
	return len(q.items)
}

// key builds the seen-set key. Identifiers of different kinds are
// distinct targets even when their values collide.
func (q *Queue) key(id model.Identifier) string {
	value := id.Value
	if !q.caseSensitive {
		value = q.folder.String(value)
	}
	return id.Kind + "\x00" + value
}

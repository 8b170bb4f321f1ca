// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package pool

import (
	"math/rand"
	"sync"
)

// Queue is a finite, depleting image pool. Refs are handed out in order and
// never come back.
type Queue struct {
	mu   sync.Mutex
	refs []string
	next int
}

func NewQueue(refs []string) *Queue {
	cp := make([]string, len(refs))
	copy(cp, refs)
	return &Queue{refs: cp}
}

// Shuffled returns a queue over a random permutation of refs.
func Shuffled(refs []string, rnd *rand.Rand) *Queue {
	q := NewQueue(refs)
	rnd.Shuffle(len(q.refs), func(i, j int) {
		q.refs[i], q.refs[j] = q.refs[j], q.refs[i]
	})
	return q
}

func (q *Queue) Next() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.next >= len(q.refs) {
		return "", false
	}
	ref := q.refs[q.next]
	q.next++
	return ref, true
}

// Peek returns up to n refs that Next would return, without consuming them.
func (q *Queue) Peek(n int) []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	end := q.next + n
	if end > len(q.refs) {
		end = len(q.refs)
	}
	if end <= q.next {
		return nil
	}
	out := make([]string, end-q.next)
	copy(out, q.refs[q.next:end])
	return out
}

func (q *Queue) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.refs) - q.next
}

// ForSession builds the queue one session draws from: the manifest's refs,
// shuffled when requested, cut to the sample size.
func ForSession(m Manifest, shuffle bool, rnd *rand.Rand) *Queue {
	var q *Queue
	if shuffle {
		q = Shuffled(m.Refs(), rnd)
	} else {
		q = NewQueue(m.Refs())
	}
	q.refs = q.refs[:m.SampleSize()]
	return q
}

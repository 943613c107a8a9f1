package watcher

import (
	"slices"
	"strings"
	"time"
)

// pending is a coalesced change waiting for its quiet period to end.
type pending struct {
	path     string
	op       Op
	deadline time.Time
}

// debouncer coalesces events per path. It is driven by the watcher loop
// and is not safe for concurrent use.
type debouncer struct {
	delay   time.Duration
	pending map[string]*pending
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:   delay,
		pending: make(map[string]*pending),
	}
}

// add records op for path and pushes its deadline back.
func (d *debouncer) add(path string, op Op, now time.Time) {
	p, ok := d.pending[path]
	if !ok {
		p = &pending{path: path}
		d.pending[path] = p
	}
	p.op |= op
	p.deadline = now.Add(d.delay)
}

// next returns the time until the earliest deadline.
func (d *debouncer) next(now time.Time) (time.Duration, bool) {
	if len(d.pending) == 0 {
		return 0, false
	}
	var earliest time.Time
	for _, p := range d.pending {
		if earliest.IsZero() || p.deadline.Before(earliest) {
			earliest = p.deadline
		}
	}
	return max(earliest.Sub(now), 0), true
}

// flush removes and returns every change whose deadline has passed, in
// path order.
func (d *debouncer) flush(now time.Time) []pending {
	var out []pending
	for path, p := range d.pending {
		if !p.deadline.After(now) {
			out = append(out, *p)
			delete(d.pending, path)
		}
	}
	slices.SortFunc(out, func(a, b pending) int {
		return strings.Compare(a.path, b.path)
	})
	return out
}

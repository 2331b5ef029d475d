// Package mempool implements an in-memory pool of the state transitions
// admitted by the check gate. Two transitions of the pool never share a
// unique identifier, so that the pool cannot hold two uses of the same nonce
// or asset lock.
package mempool

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.dedis.ch/dpp/core/checktx"
	"golang.org/x/xerrors"
)

// Key is the hash of a transition.
type Key [32]byte

// String implements fmt.Stringer. It returns a short string representation of
// the key.
func (k Key) String() string {
	return fmt.Sprintf("%#x", k[:4])
}

// Entry is a transition waiting in the pool.
type Entry struct {
	Raw    []byte
	Result checktx.Result

	seq uint64
}

// Key returns the key of the entry.
func (e Entry) Key() Key {
	return Key(e.Result.Hash)
}

// Config is the configuration of a gathering.
type Config struct {
	// Min is the number of entries to wait for.
	Min int
	// Max is the largest number of entries returned, or zero for no limit.
	Max int
	// Callback is called once the gathering waits for new entries.
	Callback func()
}

type item struct {
	cfg Config
	ch  chan []Entry
}

// Pool is an in-memory pool of transitions ordered by priority.
type Pool struct {
	sync.Mutex
	entries map[Key]Entry
	// owners maps the unique identifiers to the entry using them.
	owners  map[string]Key
	history map[Key]struct{}
	queue   []item
	seq     uint64
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{
		entries: make(map[Key]Entry),
		owners:  make(map[string]Key),
		history: make(map[Key]struct{}),
	}
}

// Len returns the number of entries.
func (p *Pool) Len() int {
	p.Lock()
	defer p.Unlock()

	return len(p.entries)
}

// Add adds the transition checked for the first time. It returns an error if
// the transition is already known, or if one of its unique identifiers is used
// by another entry.
func (p *Pool) Add(raw []byte, res checktx.Result) error {
	key := Key(res.Hash)

	p.Lock()
	defer p.Unlock()

	_, found := p.history[key]
	if found {
		return xerrors.Errorf("transition %v already executed", key)
	}

	_, found = p.entries[key]
	if found {
		return xerrors.Errorf("transition %v already exists", key)
	}

	for _, id := range res.UniqueIdentifiers {
		other, found := p.owners[id]
		if found {
			return xerrors.Errorf("identifier %s already used by %v", id, other)
		}
	}

	for _, id := range res.UniqueIdentifiers {
		p.owners[id] = key
	}

	p.seq++
	p.entries[key] = Entry{Raw: raw, Result: res, seq: p.seq}

	p.notify(len(p.entries))

	return nil
}

// Remove removes the transition once it is part of a committed block. The key
// is kept in the history so that the transition cannot come back.
func (p *Pool) Remove(key Key) error {
	p.Lock()
	defer p.Unlock()

	err := p.drop(key)
	if err != nil {
		return err
	}

	p.history[key] = struct{}{}

	return nil
}

// Evict removes a transition that does not pass the recheck anymore. It can
// be added again.
func (p *Pool) Evict(key Key) error {
	p.Lock()
	defer p.Unlock()

	return p.drop(key)
}

// Entries returns the entries by descending priority, then by order of
// arrival.
func (p *Pool) Entries() []Entry {
	p.Lock()
	defer p.Unlock()

	return p.makeArray(0)
}

// Gather waits for the configured number of entries and returns them by
// priority. It returns nil if the context ends before.
func (p *Pool) Gather(ctx context.Context, cfg Config) []Entry {
	ch := make(chan []Entry, 1)

	p.Lock()

	if len(p.entries) >= cfg.Min {
		entries := p.makeArray(cfg.Max)
		p.Unlock()

		return entries
	}

	p.queue = append(p.queue, item{cfg: cfg, ch: ch})

	p.Unlock()

	if cfg.Callback != nil {
		cfg.Callback()
	}

	select {
	case entries := <-ch:
		return entries
	case <-ctx.Done():
		return nil
	}
}

// Close releases the gatherings in progress and empties the pool.
func (p *Pool) Close() {
	p.Lock()

	p.entries = make(map[Key]Entry)
	p.owners = make(map[string]Key)
	p.history = make(map[Key]struct{})

	for _, item := range p.queue {
		close(item.ch)
	}

	p.queue = nil

	p.Unlock()
}

func (p *Pool) drop(key Key) error {
	entry, found := p.entries[key]
	if !found {
		return xerrors.Errorf("transition %v not found", key)
	}

	delete(p.entries, key)

	for _, id := range entry.Result.UniqueIdentifiers {
		if p.owners[id] == key {
			delete(p.owners, id)
		}
	}

	return nil
}

// notify triggers the gatherings waiting for at least the length in parameter
// and removes them from the queue.
func (p *Pool) notify(length int) {
	// Iterating by descending order to allow the deletion of the element inside
	// the loop.
	for i := len(p.queue) - 1; i >= 0; i-- {
		item := p.queue[i]

		if item.cfg.Min <= length {
			item.ch <- p.makeArray(item.cfg.Max)
			p.queue = append(p.queue[:i], p.queue[i+1:]...)
		}
	}
}

func (p *Pool) makeArray(max int) []Entry {
	entries := make([]Entry, 0, len(p.entries))
	for _, e := range p.entries {
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Result.Priority != b.Result.Priority {
			return a.Result.Priority > b.Result.Priority
		}

		return a.seq < b.seq
	})

	if max > 0 && len(entries) > max {
		entries = entries[:max]
	}

	return entries
}

package policy

import (
	"fmt"
	"sync"

	"github.com/always-cache/easyrequest/cache"
	"github.com/google/uuid"
)

// State is the lifecycle state of a pending request.
type State int

const (
	Created State = iota
	Submitted
	// EntryEvicted means a bypassing request removed an entry from the store and holds on to it.
	EntryEvicted
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Submitted:
		return "submitted"
	case EntryEvicted:
		return "entry-evicted"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Pending tracks one submitted request until its result is delivered.
type Pending struct {
	ID   uuid.UUID
	Key  string
	Mode CachingMode

	mutex sync.Mutex
	state State
	entry *cache.Entry
}

func (p *Pending) State() State {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.state
}

// Retained returns the entry evicted on submission, if it is still held.
func (p *Pending) Retained() (cache.Entry, bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.entry == nil {
		return cache.Entry{}, false
	}
	return *p.entry, true
}

func (p *Pending) setState(s State) {
	p.mutex.Lock()
	p.state = s
	p.mutex.Unlock()
}

// resolve moves the pending to a terminal state and hands out the retained entry.
// It returns false if the pending was already resolved.
func (p *Pending) resolve(to State) (*cache.Entry, bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.state == Succeeded || p.state == Failed {
		return nil, false
	}
	p.state = to
	entry := p.entry
	p.entry = nil
	return entry, true
}

// internal/session/session.go
package session

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mibgheda/fitbud-bot/internal/models"
)

// AwaitState is the conversation sub-state held alongside the pending
// candidate. The presence of a pending candidate in Idle is itself the
// implicit awaiting-confirmation signal.
type AwaitState int

const (
	Idle AwaitState = iota
	AwaitingFoodEdit
	AwaitingWorkoutEdit
	AwaitingWorkoutDuration
)

// Pending is one user's staged, unconfirmed candidate. Exactly one of
// Food/Workout is set. It lives in memory only; loss on restart just means
// the user resubmits.
type Pending struct {
	Token        string
	Food         *models.FoodCandidate
	Workout      *models.WorkoutCandidate
	Source       models.Provenance
	InputKind    models.InputKind
	FilePath     string
	OriginalText string
	RawResponse  string
	Model        string
}

type record struct {
	mu      sync.Mutex // serializes one user's events
	state   AwaitState
	pending *Pending
	touched time.Time
}

// Store keys conversation state by user id. Safe for concurrent use by
// many users; records idle longer than the TTL are evicted by a sweeper.
type Store struct {
	mu      sync.Mutex
	users   map[int64]*record
	ttl     time.Duration
	entropy *rand.Rand
	done    chan struct{}
}

const sweepInterval = time.Minute

func NewStore(ttl time.Duration) *Store {
	s := &Store{
		users:   make(map[int64]*record),
		ttl:     ttl,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
		done:    make(chan struct{}),
	}
	if ttl > 0 {
		go s.sweep()
	}
	return s
}

func (s *Store) Close() {
	close(s.done)
}

func (s *Store) record(userID int64) *record {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.users[userID]
	if !ok {
		r = &record{touched: time.Now()}
		s.users[userID] = r
	}
	return r
}

// Lock takes the per-user lock so one inbound event runs to completion
// before the next event for the same user is looked at. The sweeper may
// evict the record between the map lookup and the lock, so acquisition is
// re-checked against the map; a locked record is never evicted, which keeps
// the held pointer current for the duration of the event.
func (s *Store) Lock(userID int64) {
	for {
		r := s.record(userID)
		r.mu.Lock()
		s.mu.Lock()
		current := s.users[userID]
		s.mu.Unlock()
		if current == r {
			return
		}
		// Evicted while we waited; the lock we hold is orphaned.
		r.mu.Unlock()
	}
}

func (s *Store) Unlock(userID int64) {
	s.record(userID).mu.Unlock()
}

// Stage overwrites any existing pending candidate for the user and returns
// the new candidate's token. A superseded candidate is gone for good.
func (s *Store) Stage(userID int64, p *Pending) string {
	s.mu.Lock()
	p.Token = ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
	s.mu.Unlock()

	r := s.record(userID)
	r.pending = p
	r.touched = time.Now()
	return p.Token
}

// Pending returns the user's staged candidate, or nil.
func (s *Store) Pending(userID int64) *Pending {
	r := s.record(userID)
	r.touched = time.Now()
	return r.pending
}

func (s *Store) State(userID int64) AwaitState {
	return s.record(userID).state
}

func (s *Store) SetState(userID int64, st AwaitState) {
	r := s.record(userID)
	r.state = st
	r.touched = time.Now()
}

// Clear drops the pending candidate and resets the state to Idle.
func (s *Store) Clear(userID int64) {
	r := s.record(userID)
	r.pending = nil
	r.state = Idle
	r.touched = time.Now()
}

func (s *Store) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.evictIdle(time.Now().Add(-s.ttl))
		}
	}
}

// evictIdle removes records idle since before cutoff. Deletion happens with
// both the map lock and the record lock held, so Lock's membership re-check
// observes it.
func (s *Store) evictIdle(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.users {
		// Skip records whose event is in flight.
		if !r.mu.TryLock() {
			continue
		}
		if r.touched.Before(cutoff) {
			delete(s.users, id)
		}
		r.mu.Unlock()
	}
}

package automation

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed location, which decides the
// calendar day rules are evaluated against.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// DefaultIdleTimeout is how long a session lives without a request or a rule
// change.
const DefaultIdleTimeout = 30 * time.Minute

// Scheduler runs automation passes for signed-in users. Each user with an
// active session has one worker; a change notification that arrives while a
// pass is running queues at most one follow-up pass, which reads the newest
// snapshot. Passes for the same user never overlap, including those started
// through RunNow. A session that sees no activity for the idle timeout ends
// as if End had been called.
type Scheduler struct {
	source      RuleSource
	store       Store
	clock       Clock
	afterPass   func(userID int64, effects []Effect)
	idleTimeout time.Duration

	mu       sync.Mutex
	sessions map[int64]*session
	locks    map[int64]*userLock
	closed   bool
	wg       sync.WaitGroup
}

type session struct {
	cancel context.CancelFunc
	kick   chan struct{}
	touch  chan struct{}
	done   chan struct{}
}

// userLock is held for the length of a pass. refs counts holders and
// waiters so the entry can be dropped once nobody needs it.
type userLock struct {
	mu   sync.Mutex
	refs int
}

func NewScheduler(source RuleSource, store Store, clock Clock) *Scheduler {
	return &Scheduler{
		source:      source,
		store:       store,
		clock:       clock,
		idleTimeout: DefaultIdleTimeout,
		sessions:    make(map[int64]*session),
		locks:       make(map[int64]*userLock),
	}
}

// OnPass registers fn to be called after every completed pass.
func (s *Scheduler) OnPass(fn func(userID int64, effects []Effect)) {
	s.afterPass = fn
}

// IdleAfter sets the idle timeout of sessions opened from now on. Zero keeps
// sessions open until End.
func (s *Scheduler) IdleAfter(d time.Duration) {
	s.mu.Lock()
	s.idleTimeout = d
	s.mu.Unlock()
}

// Begin opens a session for userID and queues the initial pass. If the
// session is already open it only counts as activity and Begin returns false,
// as it does once the scheduler is closed.
func (s *Scheduler) Begin(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if sess, ok := s.sessions[userID]; ok {
		select {
		case sess.touch <- struct{}{}:
		default:
		}
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	sess := &session{
		cancel: cancel,
		kick:   make(chan struct{}, 1),
		touch:  make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	sess.kick <- struct{}{}
	s.sessions[userID] = sess

	s.wg.Add(1)
	go s.work(ctx, userID, sess, s.idleTimeout)
	log.Printf("INFO: Automation session started for user %d", userID)
	return true
}

// Notify queues a pass for userID if a session is open. Users without a
// session are ignored.
func (s *Scheduler) Notify(userID int64) {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	s.mu.Unlock()
	if !ok {
		return
	}
	select {
	case sess.kick <- struct{}{}:
	default:
	}
}

// End closes the session of userID, cancelling an in-flight pass, and waits
// for its worker to exit.
func (s *Scheduler) End(userID int64) {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	delete(s.sessions, userID)
	s.mu.Unlock()
	if !ok {
		return
	}
	sess.cancel()
	<-sess.done
	log.Printf("INFO: Automation session ended for user %d", userID)
}

func (s *Scheduler) Active(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[userID]
	return ok
}

// Close ends every session and waits for the workers.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	for id, sess := range s.sessions {
		sess.cancel()
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// RunNow loads the rule snapshot of userID and runs one pass over it.
func (s *Scheduler) RunNow(ctx context.Context, userID int64) ([]Effect, error) {
	unlock := s.lockUser(userID)
	defer unlock()

	rules, err := s.source.ListRecurringRules(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading recurring rules: %w", err)
	}
	effects := RunPass(ctx, userID, rules, s.clock.Now(), s.store)
	if s.afterPass != nil {
		s.afterPass(userID, effects)
	}
	return effects, nil
}

func (s *Scheduler) work(ctx context.Context, userID int64, sess *session, idle time.Duration) {
	defer s.wg.Done()
	defer close(sess.done)

	var expired <-chan time.Time
	var timer *time.Timer
	if idle > 0 {
		timer = time.NewTimer(idle)
		defer timer.Stop()
		expired = timer.C
	}
	active := func() {
		if timer != nil {
			timer.Reset(idle)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-sess.touch:
			active()
		case <-sess.kick:
			if _, err := s.RunNow(ctx, userID); err != nil && ctx.Err() == nil {
				log.Printf("ERROR: Automation pass failed for user %d: %v", userID, err)
			}
			active()
		case <-expired:
			s.expire(userID, sess)
			return
		}
	}
}

// expire removes sess unless End or a newer session already replaced it.
func (s *Scheduler) expire(userID int64, sess *session) {
	s.mu.Lock()
	if s.sessions[userID] == sess {
		delete(s.sessions, userID)
	}
	s.mu.Unlock()
	sess.cancel()
	log.Printf("INFO: Automation session for user %d ended after being idle", userID)
}

// lockUser serializes passes of userID and returns the unlock func.
func (s *Scheduler) lockUser(userID int64) func() {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &userLock{}
		s.locks[userID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, userID)
		}
		s.mu.Unlock()
	}
}

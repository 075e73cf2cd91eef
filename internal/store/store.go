package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/infem06/progress/internal/domain"
)

// DefaultDebounceWindow is the trailing window used to coalesce rapid
// mutations into a single write of all three blobs.
const DefaultDebounceWindow = 300 * time.Millisecond

// State is the full in-memory application state: the practitioner profile,
// the patient roster and the log collection.
type State struct {
	User     domain.User
	Patients []domain.Patient
	Logs     []domain.TherapyLog
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := State{User: s.User}
	if s.Patients != nil {
		out.Patients = make([]domain.Patient, len(s.Patients))
		for i, p := range s.Patients {
			out.Patients[i] = p.Clone()
		}
	}
	if s.Logs != nil {
		out.Logs = append([]domain.TherapyLog(nil), s.Logs...)
	}
	return out
}

// Store owns the application state. All reads go through Snapshot and all
// writes through Mutate; persistence is debounced and eventually consistent,
// never transactional across the three blobs.
type Store struct {
	blobs    BlobStore
	log      *logrus.Logger
	debounce time.Duration

	mu    sync.Mutex
	state State
	dirty bool
	timer *time.Timer

	subMu sync.Mutex
	subs  map[int]chan struct{}
	next  int
}

// New creates a Store over the given blob backend. A debounce of zero falls
// back to DefaultDebounceWindow.
func New(blobs BlobStore, debounce time.Duration, logger *logrus.Logger) *Store {
	if debounce <= 0 {
		debounce = DefaultDebounceWindow
	}
	return &Store{
		blobs:    blobs,
		log:      logger,
		debounce: debounce,
		subs:     make(map[int]chan struct{}),
	}
}

// Load reads the three blobs. Each key fails independently: a missing or
// undecodable blob defaults that collection alone and is logged, never fatal.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = State{User: domain.DefaultUser()}

	if data, err := s.blobs.Get(ctx, KeyUser); err != nil {
		s.log.WithFields(logrus.Fields{"key": KeyUser, "error": err}).
			Warn("Blob unavailable, using default profile")
	} else {
		var u domain.User
		if err := json.Unmarshal(data, &u); err != nil {
			s.log.WithFields(logrus.Fields{"key": KeyUser, "error": err}).
				Warn("Blob undecodable, using default profile")
		} else {
			s.state.User = u
		}
	}

	if data, err := s.blobs.Get(ctx, KeyPatients); err != nil {
		s.log.WithFields(logrus.Fields{"key": KeyPatients, "error": err}).
			Warn("Blob unavailable, starting with empty roster")
	} else {
		var patients []domain.Patient
		if err := json.Unmarshal(data, &patients); err != nil {
			s.log.WithFields(logrus.Fields{"key": KeyPatients, "error": err}).
				Warn("Blob undecodable, starting with empty roster")
		} else {
			s.state.Patients = patients
		}
	}

	if data, err := s.blobs.Get(ctx, KeyLogs); err != nil {
		s.log.WithFields(logrus.Fields{"key": KeyLogs, "error": err}).
			Warn("Blob unavailable, starting with empty log collection")
	} else {
		var logs []domain.TherapyLog
		if err := json.Unmarshal(data, &logs); err != nil {
			s.log.WithFields(logrus.Fields{"key": KeyLogs, "error": err}).
				Warn("Blob undecodable, starting with empty log collection")
		} else {
			s.state.Logs = logs
		}
	}

	return nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Mutate applies fn to the state under lock, schedules a debounced write and
// notifies subscribers. A batch of rapid mutations produces a single write.
func (s *Store) Mutate(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	s.dirty = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.flushPending)
	s.mu.Unlock()

	s.notify()
}

// Subscribe returns a channel that receives a signal after every mutation,
// and a cancel function releasing the subscription. Signals are coalesced:
// a slow receiver sees at least one signal, not one per mutation.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.next
	s.next++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch
	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Store) flushPending() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Flush(ctx); err != nil {
		s.log.WithError(err).Error("Failed to persist state")
	}
}

// Flush writes all three blobs immediately. A failure on one key does not
// stop the others; the first error is returned.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	snapshot := s.state.Clone()
	s.dirty = false
	s.mu.Unlock()

	var firstErr error
	write := func(key string, v any) {
		data, err := json.Marshal(v)
		if err == nil {
			err = s.blobs.Put(ctx, key, data)
		}
		if err != nil {
			s.log.WithFields(logrus.Fields{"key": key, "error": err}).
				Error("Failed to write blob")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	write(KeyUser, snapshot.User)
	write(KeyPatients, snapshot.Patients)
	write(KeyLogs, snapshot.Logs)
	return firstErr
}

// Close flushes any pending write and closes the blob backend.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	dirty := s.dirty
	s.mu.Unlock()

	if dirty {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Flush(ctx); err != nil {
			s.blobs.Close()
			return err
		}
	}
	return s.blobs.Close()
}

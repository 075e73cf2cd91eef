package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infem06/progress/internal/domain"
)

// fakeBlobStore records writes so tests can observe coalescing.
type fakeBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	puts  int
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (f *fakeBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.blobs[key]
	if !ok {
		return nil, fmt.Errorf("blob %q: %w", key, domain.ErrNotFound)
	}
	return data, nil
}

func (f *fakeBlobStore) Put(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[key] = value
	f.puts++
	return nil
}

func (f *fakeBlobStore) Close() error { return nil }

func (f *fakeBlobStore) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestStoreDebounceCoalescesMutations(t *testing.T) {
	blobs := newFakeBlobStore()
	st := New(blobs, 50*time.Millisecond, quietLogger())
	require.NoError(t, st.Load(context.Background()))
	blobs.mu.Lock()
	blobs.puts = 0
	blobs.mu.Unlock()

	// A generated batch lands as several mutations in rapid succession.
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("log-%d", i)
		st.Mutate(func(s *State) {
			s.Logs = append(s.Logs, domain.TherapyLog{ID: id, PatientID: "p-1"})
		})
	}

	assert.Equal(t, 0, blobs.putCount(), "writes must wait for the debounce window")

	assert.Eventually(t, func() bool {
		return blobs.putCount() == 3
	}, time.Second, 10*time.Millisecond, "one coalesced flush writes exactly the three keys")
}

func TestStoreLoadIndependentFailureDomains(t *testing.T) {
	blobs := newFakeBlobStore()
	blobs.blobs[KeyUser] = []byte(`{"id":"user_1","name":"김주영"}`)
	blobs.blobs[KeyPatients] = []byte(`{not json`)
	blobs.blobs[KeyLogs] = []byte(`[{"id":"l-1","patientId":"p-1","createdAt":1}]`)

	st := New(blobs, time.Second, quietLogger())
	require.NoError(t, st.Load(context.Background()))

	snap := st.Snapshot()
	assert.Equal(t, "김주영", snap.User.Name)
	assert.Empty(t, snap.Patients, "corrupted blob defaults to empty")
	require.Len(t, snap.Logs, 1, "other blobs must still load")
	assert.Equal(t, "l-1", snap.Logs[0].ID)
}

func TestStoreLoadRejectsUnknownEnumValue(t *testing.T) {
	blobs := newFakeBlobStore()
	blobs.blobs[KeyPatients] = []byte(`[{"id":"p-1","name":"Kim","gender":"남","diagnosis":"invented disorder","disabilitySeverity":"심한 장애"}]`)

	st := New(blobs, time.Second, quietLogger())
	require.NoError(t, st.Load(context.Background()))

	// A value outside the closed set is a decode error, and the decode
	// failure defaults the whole collection.
	assert.Empty(t, st.Snapshot().Patients)
}

func TestStoreLoadMissingBlobsDefaults(t *testing.T) {
	st := New(newFakeBlobStore(), time.Second, quietLogger())
	require.NoError(t, st.Load(context.Background()))

	snap := st.Snapshot()
	assert.Equal(t, domain.DefaultUser(), snap.User)
	assert.Empty(t, snap.Patients)
	assert.Empty(t, snap.Logs)
}

func TestStoreRoundTrip(t *testing.T) {
	blobs := newFakeBlobStore()
	st := New(blobs, 10*time.Millisecond, quietLogger())
	require.NoError(t, st.Load(context.Background()))

	patient := domain.Patient{
		ID:                 "p-1",
		Name:               "Kim",
		Gender:             domain.GenderMale,
		Diagnosis:          domain.DiagnosisASD,
		DisabilitySeverity: domain.SeveritySevere,
		Goals:              []string{"fine motor"},
		TherapyStartDate:   "2024-01-05",
	}
	st.Mutate(func(s *State) {
		s.Patients = append(s.Patients, patient)
	})
	require.NoError(t, st.Flush(context.Background()))

	// A second store over the same blobs must see an equal record.
	st2 := New(blobs, time.Second, quietLogger())
	require.NoError(t, st2.Load(context.Background()))
	require.Len(t, st2.Snapshot().Patients, 1)
	assert.Equal(t, patient, st2.Snapshot().Patients[0])
}

func TestStoreSnapshotIsolation(t *testing.T) {
	st := New(newFakeBlobStore(), time.Second, quietLogger())
	require.NoError(t, st.Load(context.Background()))
	st.Mutate(func(s *State) {
		s.Patients = []domain.Patient{{ID: "p-1", Goals: []string{"a"}}}
	})

	snap := st.Snapshot()
	snap.Patients[0].Goals[0] = "mutated"

	assert.Equal(t, "a", st.Snapshot().Patients[0].Goals[0])
}

func TestStoreSubscribe(t *testing.T) {
	st := New(newFakeBlobStore(), time.Second, quietLogger())
	require.NoError(t, st.Load(context.Background()))

	ch, cancel := st.Subscribe()
	defer cancel()

	st.Mutate(func(s *State) { s.User.Name = "changed" })

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a notification after mutation")
	}
}

func TestStoreCloseFlushesPendingWrite(t *testing.T) {
	blobs := newFakeBlobStore()
	st := New(blobs, time.Hour, quietLogger())
	require.NoError(t, st.Load(context.Background()))

	st.Mutate(func(s *State) { s.User.Name = "changed" })
	require.NoError(t, st.Close())

	assert.Equal(t, 3, blobs.putCount(), "pending state must be written on close")
}

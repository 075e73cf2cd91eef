package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infem06/progress/internal/domain"
)

func validBackupJSON(t *testing.T) []byte {
	t.Helper()
	payload := BackupPayload{
		User: domain.User{ID: "user_1", Name: "김주영", APIKey: "key-123"},
		Patients: []domain.Patient{{
			ID:                 "p-1",
			Name:               "Lee",
			Gender:             domain.GenderFemale,
			Diagnosis:          domain.DiagnosisDD,
			DisabilitySeverity: domain.SeverityNotSevere,
			Goals:              []string{"sensory integration"},
			TherapyStartDate:   "2024-03-04",
		}},
		Logs: []domain.TherapyLog{{
			ID:        "l-1",
			PatientID: "p-1",
			Date:      "2024-03-04",
			CreatedAt: 1709521200000,
		}},
	}
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return data
}

func TestDecodeBackupValid(t *testing.T) {
	p, err := DecodeBackup(validBackupJSON(t))
	require.NoError(t, err)
	assert.Equal(t, "user_1", p.User.ID)
	assert.Len(t, p.Patients, 1)
	assert.Len(t, p.Logs, 1)
}

func TestDecodeBackupRejections(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{broken`},
		{"missing user id", `{"user":{"name":"x"},"patients":[],"logs":[]}`},
		{
			"unknown diagnosis",
			`{"user":{"id":"u"},"patients":[{"id":"p-1","name":"Lee","gender":"여","diagnosis":"made up","disabilitySeverity":"심하지 않은 장애"}],"logs":[]}`,
		},
		{
			"duplicate patient id",
			`{"user":{"id":"u"},"patients":[{"id":"p-1","name":"a"},{"id":"p-1","name":"b"}],"logs":[]}`,
		},
		{
			"empty goal entry",
			`{"user":{"id":"u"},"patients":[{"id":"p-1","name":"a","goals":["ok","  "]}],"logs":[]}`,
		},
		{
			"orphan log",
			`{"user":{"id":"u"},"patients":[{"id":"p-1","name":"a"}],"logs":[{"id":"l-1","patientId":"p-9"}]}`,
		},
		{
			"duplicate log id",
			`{"user":{"id":"u"},"patients":[{"id":"p-1","name":"a"}],"logs":[{"id":"l-1","patientId":"p-1"},{"id":"l-1","patientId":"p-1"}]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := DecodeBackup([]byte(tt.data))
			assert.Nil(t, p)
			assert.ErrorIs(t, err, domain.ErrImportRejected)
		})
	}
}

func TestImportReplacesState(t *testing.T) {
	st := New(newFakeBlobStore(), time.Second, quietLogger())
	require.NoError(t, st.Load(context.Background()))
	st.Mutate(func(s *State) {
		s.Patients = []domain.Patient{{ID: "old", Name: "Old"}}
		s.Logs = []domain.TherapyLog{{ID: "old-log", PatientID: "old"}}
	})

	p, err := DecodeBackup(validBackupJSON(t))
	require.NoError(t, err)
	st.Import(p)

	snap := st.Snapshot()
	assert.Equal(t, "김주영", snap.User.Name)
	require.Len(t, snap.Patients, 1)
	assert.Equal(t, "p-1", snap.Patients[0].ID)
	require.Len(t, snap.Logs, 1)
	assert.Equal(t, "l-1", snap.Logs[0].ID)
}

func TestExportRoundTripsThroughDecode(t *testing.T) {
	st := New(newFakeBlobStore(), time.Second, quietLogger())
	require.NoError(t, st.Load(context.Background()))
	st.Mutate(func(s *State) {
		s.Patients = []domain.Patient{{
			ID:                 "p-1",
			Name:               "Lee",
			Gender:             domain.GenderMale,
			Diagnosis:          domain.DiagnosisADHD,
			DisabilitySeverity: domain.SeveritySevere,
		}}
	})

	data, err := json.Marshal(st.Export())
	require.NoError(t, err)

	p, err := DecodeBackup(data)
	require.NoError(t, err)
	assert.Equal(t, "p-1", p.Patients[0].ID)
}

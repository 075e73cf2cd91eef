package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGoals(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"plain list", "a,b,c", []string{"a", "b", "c"}},
		{"spaces and empties", "a, b ,, c", []string{"a", "b", "c"}},
		{"single goal", "시지각 변별력 향상", []string{"시지각 변별력 향상"}},
		{"trailing comma", "fine motor,", []string{"fine motor"}},
		{"only separators", ", ,,", []string{}},
		{"empty input", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseGoals(tt.input)
			assert.Equal(t, tt.want, got)
			for _, g := range got {
				assert.NotEmpty(t, g, "goals must never contain empty strings")
			}
		})
	}
}

func TestPatientRoundTrip(t *testing.T) {
	original := Patient{
		ID:                    "p-1",
		Name:                  "Kim",
		Gender:                GenderMale,
		BirthDate:             "2017-03-01",
		Diagnosis:             DiagnosisASD,
		DisabilitySeverity:    SeveritySevere,
		Goals:                 []string{"fine motor", "visual perception"},
		InitialAssessment:     "초기 관찰 소견",
		InitialAssessmentDate: "2024-01-05",
		TherapyStartDate:      "2024-01-05",
		Suspensions: []SuspensionRange{
			{Start: "2024-02-01", End: "2024-02-14"},
		},
		TerminationDate: "2024-12-31",
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Patient
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}

func TestTherapyLogRoundTrip(t *testing.T) {
	original := TherapyLog{
		ID:           "1717000000000",
		PatientID:    "p-1",
		Date:         "2024-06-03",
		ActivityName: "퍼즐 맞추기",
		GeneratedLog: "*제목\n1. 활동함\n\n*상담내용\n- 피드백함",
		Reaction:     "잘 참여함",
		CreatedAt:    1717000000000,
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded TherapyLog
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}

func TestUserRoundTrip(t *testing.T) {
	original := User{ID: "user_1", Name: "김주영", Password: "pw", APIKey: "key-123"}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded User
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}

func TestNewLogID(t *testing.T) {
	now := time.UnixMilli(1717000000000)

	// Batch members share the timestamp and differ by their index offset.
	assert.Equal(t, "1717000000000", NewLogID(now, 0))
	assert.Equal(t, "1717000000004", NewLogID(now, 4))
	assert.NotEqual(t, NewLogID(now, 1), NewLogID(now, 2))
}

func TestPatientCloneDoesNotAlias(t *testing.T) {
	p := Patient{
		ID:          "p-1",
		Goals:       []string{"a"},
		Suspensions: []SuspensionRange{{Start: "2024-01-01", End: "2024-01-02"}},
	}
	c := p.Clone()
	c.Goals[0] = "changed"
	c.Suspensions[0].End = "2024-01-03"

	assert.Equal(t, "a", p.Goals[0])
	assert.Equal(t, "2024-01-02", p.Suspensions[0].End)
}

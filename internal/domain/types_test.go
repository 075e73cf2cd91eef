package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnosisRoundTrip(t *testing.T) {
	for _, d := range Diagnoses() {
		data, err := json.Marshal(d)
		require.NoError(t, err)

		var decoded Diagnosis
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, d, decoded)
	}
}

func TestDiagnosisRejectsUnknownValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"arbitrary string", `"made-up diagnosis"`},
		{"empty string", `""`},
		{"numeric code", `"3"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Diagnosis
			err := json.Unmarshal([]byte(tt.input), &d)
			assert.Error(t, err)
		})
	}
}

func TestSeverityAndGenderValidation(t *testing.T) {
	var sev DisabilitySeverity
	require.NoError(t, json.Unmarshal([]byte(`"심한 장애"`), &sev))
	assert.Equal(t, SeveritySevere, sev)
	assert.Error(t, json.Unmarshal([]byte(`"moderate"`), &sev))

	var g Gender
	require.NoError(t, json.Unmarshal([]byte(`"여"`), &g))
	assert.Equal(t, GenderFemale, g)
	assert.Error(t, json.Unmarshal([]byte(`"unknown"`), &g))
}

func TestEnumStoredAsDisplayString(t *testing.T) {
	// The persisted form must be the clinical term itself, not a code.
	data, err := json.Marshal(DiagnosisASD)
	require.NoError(t, err)
	assert.Equal(t, `"자폐스펙트럼"`, string(data))
}

func TestParseAssessmentStage(t *testing.T) {
	tests := []struct {
		input   string
		want    AssessmentStage
		wantErr bool
	}{
		{"initial", StageInitial, false},
		{"interim", StageInterim, false},
		{"final", StageFinal, false},
		{" Final ", StageFinal, false},
		{"midterm", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseAssessmentStage(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got)
	}
}

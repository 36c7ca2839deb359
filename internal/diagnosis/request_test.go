package diagnosis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSymptoms(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"comma separated", []string{"headache, fever,  nausea"}, []string{"headache", "fever", "nausea"}},
		{"drops empties", []string{" , headache,,", ""}, []string{"headache"}},
		{"several entries keep order", []string{"cough", "sore throat, chills"}, []string{"cough", "sore throat", "chills"}},
		{"nothing", []string{"  ", ","}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSymptoms(tt.input...))
		})
	}
}

func TestNewRequest(t *testing.T) {
	req, err := NewRequest([]string{"headache, dizziness"}, nil, "  asthma ")
	require.NoError(t, err)
	assert.Equal(t, []string{"headache", "dizziness"}, req.Symptoms)
	assert.Equal(t, "asthma", req.ExistingConditions)
}

func TestNewRequest_NoSymptoms(t *testing.T) {
	_, err := NewRequest([]string{" , "}, nil, "")
	assert.ErrorIs(t, err, ErrNoSymptoms)
}

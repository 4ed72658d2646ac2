package canvas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateDrivenPayload(t *testing.T) {
	settings := ParticipationSettings{
		Mode:      DateDriven,
		StartDate: "2024-01-15",
		EndDate:   "2024-05-30",
	}
	require.NoError(t, settings.Validate())

	body, err := json.Marshal(settings.payload())
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"course": {
			"start_at": "2024-01-15T00:00:00Z",
			"end_at": "2024-05-30T23:59:59Z",
			"restrict_enrollments_to_course_dates": true
		},
		"override_sis_stickiness": true
	}`, string(body))
}

func TestDateDrivenPayloadNoEndDate(t *testing.T) {
	settings := ParticipationSettings{
		Mode:      DateDriven,
		StartDate: "2024-01-15",
	}
	require.NoError(t, settings.Validate())

	body, err := json.Marshal(settings.payload())
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"course": {
			"start_at": "2024-01-15T00:00:00Z",
			"end_at": null,
			"restrict_enrollments_to_course_dates": true
		},
		"override_sis_stickiness": true
	}`, string(body))
}

func TestTermDrivenPayload(t *testing.T) {
	settings := ParticipationSettings{Mode: TermDriven}
	require.NoError(t, settings.Validate())

	body, err := json.Marshal(settings.payload())
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"course": {
			"start_at": null,
			"end_at": null,
			"restrict_enrollments_to_course_dates": false
		},
		"override_sis_stickiness": true
	}`, string(body))
}

func TestParticipationValidate(t *testing.T) {
	tests := []struct {
		name     string
		settings ParticipationSettings
		wantErr  bool
	}{
		{
			name:     "term driven needs nothing",
			settings: ParticipationSettings{Mode: TermDriven},
			wantErr:  false,
		},
		{
			name:     "term driven ignores dates",
			settings: ParticipationSettings{Mode: TermDriven, StartDate: "whatever"},
			wantErr:  false,
		},
		{
			name:     "date driven with valid dates",
			settings: ParticipationSettings{Mode: DateDriven, StartDate: "2024-01-15", EndDate: "2024-05-30"},
			wantErr:  false,
		},
		{
			name:     "date driven without end date",
			settings: ParticipationSettings{Mode: DateDriven, StartDate: "2024-01-15"},
			wantErr:  false,
		},
		{
			name:     "date driven without start date",
			settings: ParticipationSettings{Mode: DateDriven},
			wantErr:  true,
		},
		{
			name:     "date driven with bad start date",
			settings: ParticipationSettings{Mode: DateDriven, StartDate: "15/01/2024"},
			wantErr:  true,
		},
		{
			name:     "date driven with bad end date",
			settings: ParticipationSettings{Mode: DateDriven, StartDate: "2024-01-15", EndDate: "soon"},
			wantErr:  true,
		},
		{
			name:     "unknown mode",
			settings: ParticipationSettings{Mode: "whenever"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.settings.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

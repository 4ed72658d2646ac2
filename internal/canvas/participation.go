package canvas

import (
	"fmt"
	"time"
)

// ParticipationMode selects how a course's participation window is
// driven.
type ParticipationMode string

const (
	// TermDriven makes participation follow the course's term dates.
	TermDriven ParticipationMode = "term"
	// DateDriven restricts participation to explicit course dates.
	DateDriven ParticipationMode = "date"
)

const dateLayout = "2006-01-02"

// ParticipationSettings is the write-only payload applied to a course.
// Dates are calendar dates in YYYY-MM-DD form; the start expands to
// midnight UTC and the end to the last second of its day.
type ParticipationSettings struct {
	Mode      ParticipationMode
	StartDate string // required when date-driven
	EndDate   string // optional; empty means no end date
}

// Validate checks the settings before any network call is made.
func (s ParticipationSettings) Validate() error {
	switch s.Mode {
	case TermDriven:
		return nil
	case DateDriven:
		if s.StartDate == "" {
			return fmt.Errorf("date-driven participation requires a start date")
		}
		if _, err := time.Parse(dateLayout, s.StartDate); err != nil {
			return fmt.Errorf("invalid start date %q: %w", s.StartDate, err)
		}
		if s.EndDate != "" {
			if _, err := time.Parse(dateLayout, s.EndDate); err != nil {
				return fmt.Errorf("invalid end date %q: %w", s.EndDate, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown participation mode %q", s.Mode)
	}
}

type updateRequest struct {
	Course                coursePatch `json:"course"`
	OverrideSISStickiness bool        `json:"override_sis_stickiness"`
}

type coursePatch struct {
	StartAt                          *string `json:"start_at"`
	EndAt                            *string `json:"end_at"`
	RestrictEnrollmentsToCourseDates bool    `json:"restrict_enrollments_to_course_dates"`
}

// payload builds the request body for the course update endpoint.
// Term-driven sends null dates and a false restriction flag so the
// term dates take back over; date-driven sends the expanded timestamps
// and true.
func (s ParticipationSettings) payload() updateRequest {
	patch := coursePatch{
		RestrictEnrollmentsToCourseDates: s.Mode == DateDriven,
	}

	if s.Mode == DateDriven {
		start := s.StartDate + "T00:00:00Z"
		patch.StartAt = &start
		if s.EndDate != "" {
			end := s.EndDate + "T23:59:59Z"
			patch.EndAt = &end
		}
	}

	return updateRequest{
		Course:                patch,
		OverrideSISStickiness: true,
	}
}

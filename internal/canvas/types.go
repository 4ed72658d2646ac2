package canvas

import "time"

// Term is an enrollment term as returned by the Canvas API. Terms are
// fetched wholesale and never mutated locally.
type Term struct {
	ID      int64      `json:"id"`
	Name    string     `json:"name"`
	StartAt *time.Time `json:"start_at"`
	EndAt   *time.Time `json:"end_at"`
}

// Course is a course as returned by the Canvas API. The tool never
// mutates a course locally; updates go through UpdateParticipation and
// the server's state is refetched or trusted.
type Course struct {
	ID                               int64      `json:"id"`
	Name                             string     `json:"name"`
	CourseCode                       string     `json:"course_code"`
	StartAt                          *time.Time `json:"start_at"`
	EndAt                            *time.Time `json:"end_at"`
	EnrollmentTermID                 int64      `json:"enrollment_term_id"`
	RestrictEnrollmentsToCourseDates bool       `json:"restrict_enrollments_to_course_dates"`
	TotalStudents                    int        `json:"total_students"`
	WorkflowState                    string     `json:"workflow_state"`
}

// Enrollment is a single enrollment record. Only the fields the
// active-student count relies on are decoded.
type Enrollment struct {
	ID              int64  `json:"id"`
	Type            string `json:"type"`
	EnrollmentState string `json:"enrollment_state"`
}

package web

import (
	"strings"
	"sync"
	"time"

	"canvas-course-manager/internal/canvas"
	"canvas-course-manager/internal/config"
)

// Flash is a one-shot message rendered on the next page load.
type Flash struct {
	Level   string // "success", "error", "warning", "info"
	Message string
}

// Session holds the operator's UI state: credentials, the fetched
// term/course lists, the current selection and display cursor. One
// session exists per server instance (single-operator tool); handlers
// receive it explicitly instead of reaching into ambient state.
type Session struct {
	mu sync.Mutex

	prefill   config.Credentials
	creds     config.Credentials
	connected bool

	terms          []canvas.Term
	selectedTermID int64

	courses          []canvas.Course
	coursesFetchedAt time.Time
	coursesCached    bool

	filter       string
	selected     map[int64]bool
	displayCount int
	displayLimit int

	enrollmentCounts map[int64]int

	lookupCourse *canvas.Course

	flashes []Flash
}

// NewSession creates a session showing displayLimit courses at a time,
// with the connect form pre-filled from prefill.
func NewSession(displayLimit int, prefill config.Credentials) *Session {
	return &Session{
		prefill:          prefill,
		creds:            prefill,
		displayLimit:     displayLimit,
		displayCount:     displayLimit,
		selected:         make(map[int64]bool),
		enrollmentCounts: make(map[int64]int),
	}
}

// Connect stores the credentials and marks the session connected.
func (s *Session) Connect(creds config.Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	s.connected = true
}

// Reset drops all state back to a fresh session. The credential
// prefill survives so the connect form stays convenient.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = s.prefill
	s.connected = false
	s.terms = nil
	s.selectedTermID = 0
	s.courses = nil
	s.coursesFetchedAt = time.Time{}
	s.coursesCached = false
	s.filter = ""
	s.selected = make(map[int64]bool)
	s.displayCount = s.displayLimit
	s.enrollmentCounts = make(map[int64]int)
	s.lookupCourse = nil
}

// Credentials returns the stored credentials and whether the session
// is connected.
func (s *Session) Credentials() (config.Credentials, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds, s.connected
}

// SetTerms replaces the term list wholesale.
func (s *Session) SetTerms(terms []canvas.Term) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terms = terms
}

// SelectTerm records the chosen term and clears the per-term state.
// It reports whether the term exists in the fetched list.
func (s *Session) SelectTerm(termID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.terms {
		if t.ID == termID {
			s.selectedTermID = termID
			s.courses = nil
			s.coursesFetchedAt = time.Time{}
			s.coursesCached = false
			s.filter = ""
			s.selected = make(map[int64]bool)
			s.displayCount = s.displayLimit
			return true
		}
	}
	return false
}

// SelectedTermID returns the chosen term id, 0 when none.
func (s *Session) SelectedTermID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedTermID
}

// SetCourses replaces the course list for the selected term. The
// selection set and display cursor reset; the name filter survives a
// refresh.
func (s *Session) SetCourses(courses []canvas.Course, fetchedAt time.Time, cached bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses = courses
	s.coursesFetchedAt = fetchedAt
	s.coursesCached = cached
	s.selected = make(map[int64]bool)
	s.displayCount = s.displayLimit
}

// SetFilter applies a name filter and rewinds the display cursor.
func (s *Session) SetFilter(filter string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = strings.TrimSpace(filter)
	s.displayCount = s.displayLimit
}

// ShowMore extends the display window by one page.
func (s *Session) ShowMore() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.displayCount += s.displayLimit
}

// SetSelected replaces the selection set with the given course ids.
func (s *Session) SetSelected(ids []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[int64]bool, len(ids))
	for _, id := range ids {
		s.selected[id] = true
	}
}

// SelectAllFiltered selects every course matching the current filter.
func (s *Session) SelectAllFiltered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[int64]bool)
	for _, course := range s.filtered() {
		s.selected[course.ID] = true
	}
	return len(s.selected)
}

// ClearSelection empties the selection set.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[int64]bool)
}

// SetEnrollmentCount records a fetched active-student count.
func (s *Session) SetEnrollmentCount(courseID int64, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enrollmentCounts[courseID] = count
}

// SetLookupCourse stores the result of the course-by-ID lookup; nil
// clears it.
func (s *Session) SetLookupCourse(course *canvas.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookupCourse = course
}

// AddFlash queues a message for the next render.
func (s *Session) AddFlash(level, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flashes = append(s.flashes, Flash{Level: level, Message: message})
}

func (s *Session) takeFlashes() []Flash {
	flashes := s.flashes
	s.flashes = nil
	return flashes
}

// filtered returns the courses matching the current filter. Caller
// must hold the lock.
func (s *Session) filtered() []canvas.Course {
	if s.filter == "" {
		return s.courses
	}
	needle := strings.ToLower(s.filter)
	var matched []canvas.Course
	for _, course := range s.courses {
		if strings.Contains(strings.ToLower(course.Name), needle) ||
			strings.Contains(strings.ToLower(course.CourseCode), needle) {
			matched = append(matched, course)
		}
	}
	return matched
}

// CourseRow is one table row in the rendered course list.
type CourseRow struct {
	canvas.Course
	Selected           bool
	HasEnrollmentCount bool
	EnrollmentCount    int
}

// View is an immutable snapshot of the session handed to templates.
type View struct {
	Connected bool
	Domain    string
	AccountID string
	TokenSet  bool

	Terms            []canvas.Term
	SelectedTermID   int64
	SelectedTermName string

	Filter           string
	Courses          []CourseRow
	TotalCourses     int
	TotalMatching    int
	HasMore          bool
	CoursesCached    bool
	CoursesFetchedAt time.Time

	LookupCourse *canvas.Course

	Flashes []Flash
}

// View snapshots the session for rendering and consumes the queued
// flashes.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := View{
		Connected:        s.connected,
		Domain:           s.creds.Domain,
		AccountID:        s.creds.AccountID,
		TokenSet:         s.creds.Token != "",
		Terms:            s.terms,
		SelectedTermID:   s.selectedTermID,
		Filter:           s.filter,
		TotalCourses:     len(s.courses),
		CoursesCached:    s.coursesCached,
		CoursesFetchedAt: s.coursesFetchedAt,
		LookupCourse:     s.lookupCourse,
		Flashes:          s.takeFlashes(),
	}

	for _, t := range s.terms {
		if t.ID == s.selectedTermID {
			view.SelectedTermName = t.Name
		}
	}

	matched := s.filtered()
	view.TotalMatching = len(matched)

	shown := matched
	if len(shown) > s.displayCount {
		shown = shown[:s.displayCount]
		view.HasMore = true
	}
	for _, course := range shown {
		row := CourseRow{Course: course, Selected: s.selected[course.ID]}
		if count, ok := s.enrollmentCounts[course.ID]; ok {
			row.HasEnrollmentCount = true
			row.EnrollmentCount = count
		}
		view.Courses = append(view.Courses, row)
	}

	return view
}

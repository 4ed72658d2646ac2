package web

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"canvas-course-manager/internal/canvas"
	"canvas-course-manager/internal/config"
)

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", s.session.View())
}

func (s *Server) handleConnect(c *gin.Context) {
	creds := config.Credentials{
		Domain:    strings.TrimSpace(c.PostForm("domain")),
		Token:     strings.TrimSpace(c.PostForm("token")),
		AccountID: strings.TrimSpace(c.PostForm("account_id")),
	}

	if creds.Domain == "" || creds.Token == "" || creds.AccountID == "" {
		s.session.AddFlash("error", "Domain, API token and account ID are all required.")
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	s.session.Connect(creds)
	s.loadTerms(c.Request.Context(), false)
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleReset(c *gin.Context) {
	s.session.Reset()
	s.session.AddFlash("info", "Session reset.")
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleTermsLoad(c *gin.Context) {
	force := c.PostForm("force") == "1"
	s.loadTerms(c.Request.Context(), force)
	c.Redirect(http.StatusSeeOther, "/")
}

// loadTerms fetches the term list (cache-aware) into the session.
func (s *Server) loadTerms(ctx context.Context, force bool) {
	cat, accountID, err := s.catalog()
	if err != nil {
		s.session.AddFlash("error", "Connect to Canvas first.")
		return
	}

	terms, _, cached, err := cat.Terms(ctx, accountID, force)
	if err != nil {
		logrus.Errorf("Failed to fetch terms: %v", err)
		s.session.AddFlash("error", fmt.Sprintf("Failed to fetch terms: %v", err))
		return
	}

	s.session.SetTerms(terms)
	s.session.AddFlash("success", fmt.Sprintf("Loaded %d terms%s.", len(terms), sourceSuffix(cached)))
}

func (s *Server) handleTermsSelect(c *gin.Context) {
	termID, err := strconv.ParseInt(c.PostForm("term_id"), 10, 64)
	if err != nil || !s.session.SelectTerm(termID) {
		s.session.AddFlash("error", "Select a valid term.")
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	s.loadCourses(c.Request.Context(), termID, false)
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleCoursesRefresh(c *gin.Context) {
	termID := s.session.SelectedTermID()
	if termID == 0 {
		s.session.AddFlash("error", "Select a term first.")
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	s.loadCourses(c.Request.Context(), termID, true)
	c.Redirect(http.StatusSeeOther, "/")
}

// loadCourses fetches one term's course list (cache-aware) into the
// session.
func (s *Server) loadCourses(ctx context.Context, termID int64, force bool) {
	cat, accountID, err := s.catalog()
	if err != nil {
		s.session.AddFlash("error", "Connect to Canvas first.")
		return
	}

	courses, fetchedAt, cached, err := cat.Courses(ctx, accountID, termID, force)
	if err != nil {
		logrus.Errorf("Failed to fetch courses for term %d: %v", termID, err)
		s.session.AddFlash("error", fmt.Sprintf("Failed to fetch courses: %v", err))
		return
	}

	s.session.SetCourses(courses, fetchedAt, cached)
	s.session.AddFlash("success", fmt.Sprintf("Loaded %d courses%s.", len(courses), sourceSuffix(cached)))
}

func sourceSuffix(cached bool) string {
	if cached {
		return " (from cache)"
	}
	return ""
}

func (s *Server) handleCoursesFilter(c *gin.Context) {
	s.session.SetFilter(c.PostForm("q"))
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleCoursesMore(c *gin.Context) {
	s.session.ShowMore()
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleCoursesSelect(c *gin.Context) {
	switch c.PostForm("action") {
	case "all":
		n := s.session.SelectAllFiltered()
		s.session.AddFlash("info", fmt.Sprintf("Selected all %d matching courses.", n))
	case "none":
		s.session.ClearSelection()
	default:
		s.session.SetSelected(parseCourseIDs(c.PostFormArray("course_ids")))
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleCoursesApply(c *gin.Context) {
	ids := parseCourseIDs(c.PostFormArray("course_ids"))
	if len(ids) == 0 {
		s.session.AddFlash("error", "No courses selected.")
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	s.session.SetSelected(ids)

	settings, err := settingsFromForm(c)
	if err != nil {
		s.session.AddFlash("error", err.Error())
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	client, err := s.client()
	if err != nil {
		s.session.AddFlash("error", "Connect to Canvas first.")
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	updated, failed := s.applyParticipation(c.Request.Context(), client, ids, settings)
	if len(failed) == 0 {
		s.session.AddFlash("success", fmt.Sprintf("Updated %d courses.", len(updated)))
	} else {
		s.session.AddFlash("warning", fmt.Sprintf("Updated %d of %d courses.", len(updated), len(ids)))
		for id, ferr := range failed {
			s.session.AddFlash("error", fmt.Sprintf("Course %d: %v", id, ferr))
		}
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleCoursesCount(c *gin.Context) {
	courseID, err := strconv.ParseInt(c.PostForm("course_id"), 10, 64)
	if err != nil {
		s.session.AddFlash("error", "Invalid course ID.")
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	client, cerr := s.client()
	if cerr != nil {
		s.session.AddFlash("error", "Connect to Canvas first.")
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	count, err := client.CountActiveStudents(c.Request.Context(), courseID)
	if err != nil {
		logrus.Errorf("Enrollment count for course %d failed: %v", courseID, err)
		s.session.AddFlash("error", fmt.Sprintf("Could not count enrollments for course %d: %v", courseID, err))
	} else {
		s.session.SetEnrollmentCount(courseID, count)
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleLookup(c *gin.Context) {
	c.HTML(http.StatusOK, "lookup.html", s.session.View())
}

func (s *Server) handleLookupSearch(c *gin.Context) {
	courseID, err := strconv.ParseInt(strings.TrimSpace(c.PostForm("course_id")), 10, 64)
	if err != nil {
		s.session.AddFlash("error", "Enter a numeric course ID.")
		c.Redirect(http.StatusSeeOther, "/lookup")
		return
	}

	client, cerr := s.client()
	if cerr != nil {
		s.session.AddFlash("error", "Connect to Canvas first.")
		c.Redirect(http.StatusSeeOther, "/lookup")
		return
	}

	course, err := client.GetCourse(c.Request.Context(), courseID)
	if err != nil {
		s.session.SetLookupCourse(nil)
		s.session.AddFlash("warning", "Course not found or access denied.")
	} else {
		s.session.SetLookupCourse(course)
		s.session.AddFlash("success", fmt.Sprintf("Course found: %s", course.Name))
	}
	c.Redirect(http.StatusSeeOther, "/lookup")
}

func (s *Server) handleLookupApply(c *gin.Context) {
	courseID, err := strconv.ParseInt(c.PostForm("course_id"), 10, 64)
	if err != nil {
		s.session.AddFlash("error", "Invalid course ID.")
		c.Redirect(http.StatusSeeOther, "/lookup")
		return
	}

	settings, err := settingsFromForm(c)
	if err != nil {
		s.session.AddFlash("error", err.Error())
		c.Redirect(http.StatusSeeOther, "/lookup")
		return
	}

	client, cerr := s.client()
	if cerr != nil {
		s.session.AddFlash("error", "Connect to Canvas first.")
		c.Redirect(http.StatusSeeOther, "/lookup")
		return
	}

	updated, failed := s.applyParticipation(c.Request.Context(), client, []int64{courseID}, settings)
	if len(updated) == 1 {
		s.session.AddFlash("success", "Course updated successfully.")
		// Refresh the displayed course so the new window shows up
		if course, err := client.GetCourse(c.Request.Context(), courseID); err == nil {
			s.session.SetLookupCourse(course)
		}
	} else {
		s.session.AddFlash("error", fmt.Sprintf("Failed to update course: %v", failed[courseID]))
	}
	c.Redirect(http.StatusSeeOther, "/lookup")
}

// applyParticipation runs one update per course id, in order. Both the
// bulk flow and the lookup flow go through here.
func (s *Server) applyParticipation(ctx context.Context, client *canvas.Client, ids []int64, settings canvas.ParticipationSettings) (updated []int64, failed map[int64]error) {
	failed = make(map[int64]error)
	for _, id := range ids {
		if err := client.UpdateParticipation(ctx, id, settings); err != nil {
			logrus.Errorf("Failed to update course %d: %v", id, err)
			failed[id] = err
			continue
		}
		updated = append(updated, id)
	}
	return updated, failed
}

// settingsFromForm builds and validates participation settings from
// the shared form fields.
func settingsFromForm(c *gin.Context) (canvas.ParticipationSettings, error) {
	settings := canvas.ParticipationSettings{
		Mode: canvas.ParticipationMode(c.PostForm("mode")),
	}
	if settings.Mode == canvas.DateDriven {
		settings.StartDate = strings.TrimSpace(c.PostForm("start_date"))
		if c.PostForm("no_end_date") != "1" {
			settings.EndDate = strings.TrimSpace(c.PostForm("end_date"))
		}
	}
	return settings, settings.Validate()
}

func parseCourseIDs(values []string) []int64 {
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

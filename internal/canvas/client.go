// Client for the Canvas LMS REST API
package canvas

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrCourseNotFound covers every non-200 on a course lookup; the
	// API's 401/403/404 are deliberately not told apart.
	ErrCourseNotFound = errors.New("course not found or access denied")

	// ErrUpdateFailed covers every non-200 on a course update.
	ErrUpdateFailed = errors.New("course update failed")
)

// Client talks to one Canvas deployment with one bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a client for the given Canvas domain. The domain may be
// a bare host ("school.instructure.com") or a full URL; bare hosts get
// the https scheme.
func New(domain, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: BaseURL(domain),
		token:   token,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL normalizes a Canvas domain into a base URL.
func BaseURL(domain string) string {
	if strings.Contains(domain, "://") {
		return strings.TrimSuffix(domain, "/")
	}
	return "https://" + strings.TrimSuffix(domain, "/")
}

func (c *Client) apiURL(path string, query url.Values) string {
	u := c.baseURL + "/api/v1" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	return c.http.Do(req)
}

func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// ListTerms fetches every enrollment term of the account, following
// pagination. The terms endpoint wraps its list under an
// "enrollment_terms" field.
func (c *Client) ListTerms(ctx context.Context, accountID string) ([]Term, error) {
	query := url.Values{}
	query.Set("per_page", "100")
	startURL := c.apiURL("/accounts/"+url.PathEscape(accountID)+"/terms", query)

	raw, err := c.getPaginated(ctx, startURL, "enrollment_terms")
	if err != nil {
		return nil, err
	}

	terms := make([]Term, 0, len(raw))
	for _, r := range raw {
		var t Term
		if err := json.Unmarshal(r, &t); err != nil {
			return nil, fmt.Errorf("decoding term: %w", err)
		}
		terms = append(terms, t)
	}
	return terms, nil
}

// ListCourses fetches every course of the account belonging to the
// given enrollment term, following pagination.
func (c *Client) ListCourses(ctx context.Context, accountID string, termID int64) ([]Course, error) {
	query := url.Values{}
	query.Set("per_page", "100")
	query.Set("enrollment_term_id", fmt.Sprintf("%d", termID))
	query.Add("include[]", "total_students")
	startURL := c.apiURL("/accounts/"+url.PathEscape(accountID)+"/courses", query)

	raw, err := c.getPaginated(ctx, startURL, "courses")
	if err != nil {
		return nil, err
	}

	courses := make([]Course, 0, len(raw))
	for _, r := range raw {
		var course Course
		if err := json.Unmarshal(r, &course); err != nil {
			return nil, fmt.Errorf("decoding course: %w", err)
		}
		courses = append(courses, course)
	}
	return courses, nil
}

// GetCourse fetches a single course by id.
func (c *Client) GetCourse(ctx context.Context, courseID int64) (*Course, error) {
	resp, err := c.get(ctx, c.apiURL(fmt.Sprintf("/courses/%d", courseID), nil))
	if err != nil {
		return nil, fmt.Errorf("fetching course %d: %w", courseID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logrus.Debugf("Course %d lookup returned status %d", courseID, resp.StatusCode)
		return nil, ErrCourseNotFound
	}

	var course Course
	if err := json.NewDecoder(resp.Body).Decode(&course); err != nil {
		return nil, fmt.Errorf("decoding course %d: %w", courseID, err)
	}
	return &course, nil
}

// UpdateParticipation applies the participation settings to a course.
// A 200 response is success; the echoed course state is not verified.
func (c *Client) UpdateParticipation(ctx context.Context, courseID int64, settings ParticipationSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(settings.payload())
	if err != nil {
		return fmt.Errorf("marshaling update payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.apiURL(fmt.Sprintf("/courses/%d", courseID), nil), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("updating course %d: %w", courseID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: course %d, status %d", ErrUpdateFailed, courseID, resp.StatusCode)
	}

	logrus.Infof("Updated participation for course %d (%s)", courseID, settings.Mode)
	return nil
}

// CountActiveStudents returns the number of active student enrollments
// in a course. Failures are reported as errors so callers can tell
// "zero students" from "request failed".
func (c *Client) CountActiveStudents(ctx context.Context, courseID int64) (int, error) {
	query := url.Values{}
	query.Add("type[]", "StudentEnrollment")
	query.Add("state[]", "active")

	resp, err := c.get(ctx, c.apiURL(fmt.Sprintf("/courses/%d/enrollments", courseID), query))
	if err != nil {
		return 0, fmt.Errorf("fetching enrollments for course %d: %w", courseID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("enrollment count for course %d failed with status %d", courseID, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("reading enrollments for course %d: %w", courseID, err)
	}

	var enrollments []Enrollment
	if err := json.Unmarshal(body, &enrollments); err != nil {
		return 0, fmt.Errorf("decoding enrollments for course %d: %w", courseID, err)
	}
	return len(enrollments), nil
}

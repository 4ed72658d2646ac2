// Cache-aside access to term and course lists
package catalog

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"canvas-course-manager/internal/cache"
	"canvas-course-manager/internal/canvas"
)

// Catalog serves term and course lists from the file cache, falling
// back to the Canvas API when the cache misses. Live fetches are
// written through for the next read. Direct course lookups and updates
// stay on the client and never touch the cache.
type Catalog struct {
	client *canvas.Client
	store  *cache.DiskStore
}

// New creates a catalog over the given client and store.
func New(client *canvas.Client, store *cache.DiskStore) *Catalog {
	return &Catalog{
		client: client,
		store:  store,
	}
}

// Terms returns the account's enrollment terms. The bool reports
// whether they came from the cache; the time is when they were
// captured from the API.
func (c *Catalog) Terms(ctx context.Context, accountID string, force bool) ([]canvas.Term, time.Time, bool, error) {
	key := cache.TermsKey()

	if !force {
		var cached []canvas.Term
		if fetchedAt, ok := c.store.Read(key, &cached); ok {
			logrus.Debugf("Serving terms from cache (captured %s)", fetchedAt.Format(time.RFC3339))
			return cached, fetchedAt, true, nil
		}
	}

	terms, err := c.client.ListTerms(ctx, accountID)
	if err != nil {
		return nil, time.Time{}, false, err
	}

	// Empty results are not cached; a transient outage must not pin
	// an empty term list for a whole TTL.
	if len(terms) > 0 {
		if err := c.store.Write(key, terms); err != nil {
			logrus.Warnf("Failed to cache terms: %v", err)
		}
	}

	return terms, time.Now(), false, nil
}

// Courses returns the courses of one enrollment term, with the same
// cache semantics as Terms.
func (c *Catalog) Courses(ctx context.Context, accountID string, termID int64, force bool) ([]canvas.Course, time.Time, bool, error) {
	key := cache.CoursesKey(termID)

	if !force {
		var cached []canvas.Course
		if fetchedAt, ok := c.store.Read(key, &cached); ok {
			logrus.Debugf("Serving courses for term %d from cache (captured %s)", termID, fetchedAt.Format(time.RFC3339))
			return cached, fetchedAt, true, nil
		}
	}

	courses, err := c.client.ListCourses(ctx, accountID, termID)
	if err != nil {
		return nil, time.Time{}, false, err
	}

	if len(courses) > 0 {
		if err := c.store.Write(key, courses); err != nil {
			logrus.Warnf("Failed to cache courses for term %d: %v", termID, err)
		}
	}

	return courses, time.Now(), false, nil
}

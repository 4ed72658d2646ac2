package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// getPaginated fetches every page of a list endpoint, starting at
// startURL and following the Link header's rel="next" pointer. Records
// accumulate in server page order.
//
// A non-2xx page stops the walk and returns whatever accumulated so
// far. This best-effort policy comes from the tool's history: a bulk
// admin UI prefers a truncated course list over no list. The
// truncation is logged so it is not silent. Transport and decode
// failures are real errors.
func (c *Client) getPaginated(ctx context.Context, startURL, wrapperField string) ([]json.RawMessage, error) {
	var records []json.RawMessage

	current := startURL
	for current != "" {
		resp, err := c.get(ctx, current)
		if err != nil {
			return records, fmt.Errorf("fetching %s: %w", current, err)
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			logrus.Warnf("Pagination stopped at %s: status %d, returning %d records fetched so far",
				current, resp.StatusCode, len(records))
			return records, nil
		}
		if readErr != nil {
			return records, fmt.Errorf("reading page %s: %w", current, readErr)
		}

		page, err := decodeRecords(body, wrapperField)
		if err != nil {
			return records, fmt.Errorf("decoding page %s: %w", current, err)
		}
		records = append(records, page...)

		current = nextLink(resp.Header.Get("Link"))
	}

	return records, nil
}

// decodeRecords normalizes the two body shapes Canvas list endpoints
// use: a bare JSON array, or an object wrapping the array under a
// known field name.
func decodeRecords(body []byte, wrapperField string) ([]json.RawMessage, error) {
	var list []json.RawMessage
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("response is neither a list nor an object: %w", err)
	}

	raw, ok := wrapped[wrapperField]
	if !ok {
		return nil, fmt.Errorf("response object has no %q field", wrapperField)
	}
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("field %q is not a list: %w", wrapperField, err)
	}
	return list, nil
}

// nextLink extracts the rel="next" URL from a Link header. A missing
// or malformed header yields "" and ends pagination.
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		segment := strings.SplitN(part, ";", 2)[0]
		return strings.Trim(strings.TrimSpace(segment), "<>")
	}
	return ""
}

// Package cursor implements keyset pagination over a compound
// (created_at, id) ordering. The cursor transmitted to clients is only the
// tiebreak component; the store layer recovers the full compound boundary
// with a correlated lookup. Pages are always presented newest-first; the
// direction flag controls which side of the boundary is scanned.
package cursor

import (
	"fmt"
	"strings"
)

// Direction selects which side of the cursor boundary a query scans.
type Direction int

const (
	// Forward walks toward older records (the default).
	Forward Direction = iota
	// Backward walks toward newer records.
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// ParseDirection parses a direction query parameter. Empty means Forward.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "forward":
		return Forward, nil
	case "backward":
		return Backward, nil
	default:
		return Forward, fmt.Errorf("invalid direction %q: must be \"forward\" or \"backward\"", s)
	}
}

// CompareOp returns the row-value comparison operator for the scan direction.
func (d Direction) CompareOp() string {
	if d == Backward {
		return ">"
	}
	return "<"
}

// OrderSQL returns the ORDER BY fragment for the scan direction over the
// compound key columns.
func (d Direction) OrderSQL(timeCol, idCol string) string {
	if d == Backward {
		return fmt.Sprintf("ORDER BY %s ASC, %s ASC", timeCol, idCol)
	}
	return fmt.Sprintf("ORDER BY %s DESC, %s DESC", timeCol, idCol)
}

// Meta is the pagination metadata returned alongside a page.
type Meta[K any] struct {
	Limit int `json:"limit"`
	// NextCursor resumes the scan toward older records.
	NextCursor *K `json:"next_cursor,omitempty"`
	// PrevCursor resumes toward newer records; using it with
	// direction=backward reproduces the preceding page.
	PrevCursor *K   `json:"prev_cursor,omitempty"`
	HasMore    bool `json:"has_more"`
}

// Page is the standard paginated envelope.
type Page[T any, K any] struct {
	Items  []T     `json:"items"`
	Cursor Meta[K] `json:"cursor"`
}

// Resolve turns rows fetched in scan order with a limit+1 over-fetch into a
// page in presentation order (newest first). key extracts the tiebreak value
// from a row.
//
// Forward scans return rows newest-first already; backward scans return them
// oldest-first and are reversed here. HasMore reflects the over-fetch in the
// requested direction: more older rows for Forward, more newer rows for
// Backward.
func Resolve[T any, K any](rows []T, limit int, dir Direction, key func(T) K) Page[T, K] {
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}

	if dir == Backward {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}

	meta := Meta[K]{Limit: limit, HasMore: hasMore}
	if len(rows) > 0 {
		first := key(rows[0])
		last := key(rows[len(rows)-1])
		switch dir {
		case Forward:
			if hasMore {
				meta.NextCursor = &last
			}
			meta.PrevCursor = &first
		case Backward:
			meta.NextCursor = &last
			if hasMore {
				meta.PrevCursor = &first
			}
		}
	}

	if rows == nil {
		rows = []T{}
	}
	return Page[T, K]{Items: rows, Cursor: meta}
}

package api

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"example.com/tracker/internal/domain"
)

// cursor marks the last workout of a page.
type cursor struct {
	CreatedAt time.Time
	ID        string
}

func encodeCursor(c *cursor) string {
	if c == nil {
		return ""
	}
	raw := fmt.Sprintf("%s|%s", c.CreatedAt.UTC().Format(time.RFC3339Nano), c.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(token string) (*cursor, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, err
	}
	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return nil, fmt.Errorf("invalid cursor format")
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, err
	}
	return &cursor{CreatedAt: ts, ID: parts[1]}, nil
}

// resumeAfter returns the index of the first workout after c. If the cursor's
// workout was deleted in the meantime, paging resumes at the first workout
// created after it.
func resumeAfter(workouts []*domain.Workout, c *cursor) int {
	if c == nil {
		return 0
	}
	for i, w := range workouts {
		if w.ID == c.ID {
			return i + 1
		}
	}
	for i, w := range workouts {
		if w.CreatedAt.After(c.CreatedAt) {
			return i
		}
	}
	return len(workouts)
}

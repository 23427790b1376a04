package transcript

import (
	"sort"
	"time"

	"github.com/namanNagelia/canvasAgents/model"
)

const previewLen = 120

// Summarize turns session history records into list rows, newest first.
func Summarize(records []model.SessionRecord) []model.Session {
	sessions := make([]model.Session, 0, len(records))
	for _, r := range records {
		if r.ID == "" {
			continue
		}
		preview := "New chat"
		if len(r.UserInput) > 0 && r.UserInput[0].Message != "" {
			preview = Truncate(r.UserInput[0].Message, previewLen)
		}
		sessions = append(sessions, model.Session{
			ID:        r.ID,
			ShortID:   ShortID(r.ID),
			Preview:   preview,
			CreatedAt: parseTime(r.CreatedAt),
			UpdatedAt: parseTime(r.UpdatedAt),
		})
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].LastActive().After(sessions[j].LastActive())
	})
	return sessions
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05",
}

// parseTime accepts RFC 3339 and the naive timestamps the backend's ORM
// emits; anything else is the zero time.
func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

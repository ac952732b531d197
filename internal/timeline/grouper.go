package timeline

import (
	"context"
	"errors"
	"sort"
	"time"

	"crm-platform/internal/activity"
	"crm-platform/internal/feedback"
)

var ErrInvalidInput = errors.New("timeline: invalid input")

// Repository reads the raw material a timeline is built from.
type Repository interface {
	ListActivityByLead(ctx context.Context, leadID string) ([]activity.Entry, error)
	ListFeedbackByLead(ctx context.Context, leadID string) ([]feedback.Feedback, error)
}

// Session is one call attempt's worth of timeline material: the activity
// entries sharing a session id plus any feedback correlated to it.
type Session struct {
	SessionID activity.SessionID  `json:"session_id"`
	Entries   []activity.Entry    `json:"entries"`
	Feedback  []feedback.Feedback `json:"feedback,omitempty"`

	// LatestTime is the newest timestamp among the session's members and is
	// the sort key for the session list.
	LatestTime time.Time `json:"latest_time"`
}

// Grouper assembles a lead's per-session timeline.
type Grouper struct {
	repo Repository
}

func NewGrouper(repo Repository) *Grouper {
	return &Grouper{repo: repo}
}

// Sessions groups a lead's activity entries and feedback by session id,
// newest session first. Feedback without a session id belongs to no session
// and is excluded; entries within a session keep chronological order.
func (g *Grouper) Sessions(ctx context.Context, leadID string) ([]Session, error) {
	if leadID == "" {
		return nil, ErrInvalidInput
	}

	entries, err := g.repo.ListActivityByLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	fbs, err := g.repo.ListFeedbackByLead(ctx, leadID)
	if err != nil {
		return nil, err
	}

	byID := make(map[activity.SessionID]*Session)
	var order []activity.SessionID

	get := func(id activity.SessionID) *Session {
		sess, ok := byID[id]
		if !ok {
			sess = &Session{SessionID: id}
			byID[id] = sess
			order = append(order, id)
		}
		return sess
	}

	for _, e := range entries {
		if e.SessionID == "" {
			continue
		}
		sess := get(e.SessionID)
		sess.Entries = append(sess.Entries, e)
		if e.CreatedAt.After(sess.LatestTime) {
			sess.LatestTime = e.CreatedAt
		}
	}
	for _, f := range fbs {
		if f.SessionID == "" {
			continue
		}
		sess := get(f.SessionID)
		sess.Feedback = append(sess.Feedback, f)
		if f.CreatedAt.After(sess.LatestTime) {
			sess.LatestTime = f.CreatedAt
		}
	}

	out := make([]Session, 0, len(order))
	for _, id := range order {
		sess := byID[id]
		sort.Slice(sess.Entries, func(i, j int) bool {
			return sess.Entries[i].CreatedAt.Before(sess.Entries[j].CreatedAt)
		})
		out = append(out, *sess)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LatestTime.After(out[j].LatestTime)
	})
	return out, nil
}

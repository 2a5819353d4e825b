package campaign

import "time"

// Campaign is a fundraising campaign run by an organizer profile.
type Campaign struct {
	ID          string    `json:"id"`
	OrganizerID string    `json:"organizer_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	GoalCents   int64     `json:"goal_cents"`
	CreatedAt   time.Time `json:"created_at"`
}

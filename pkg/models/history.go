package models

import "time"

// History is the write-once archive of a terminated plan. Rows are never
// updated after insertion; the statistics snapshot is frozen at archival time.
type History struct {
	ID             string      `json:"_id" db:"id"`
	Owner          string      `json:"-" db:"owner"`
	StartDate      string      `json:"startDate" db:"start_date"`
	EndDate        string      `json:"endDate" db:"end_date"`
	CompletionDate string      `json:"completionDate" db:"completion_date"`
	Status         string      `json:"status" db:"status"` // cancel, finished or timeover
	Statistics     []Statistic `json:"statistics"`
	CreatedAt      time.Time   `json:"-" db:"created_at"`
}

package models

import "time"

// ReadEvent is a single progress submission within a day. Events are kept in
// insertion order and never merged.
type ReadEvent struct {
	PagesRead      int    `json:"pagesRead"`
	Time           string `json:"time"` // HH-MM-SS in the caller's timezone
	Book           string `json:"book"`
	IsFinishedBook bool   `json:"isFinishedBook"`
}

// Statistic is the per-day bucket of reading events for a plan. At most one
// exists per (owner, plan, date); same-day submissions append to
// CurrentDateStats.
type Statistic struct {
	ID               string      `json:"_id" db:"id"`
	Owner            string      `json:"-" db:"owner"`
	Plan             string      `json:"plan" db:"plan_id"`
	Date             string      `json:"date" db:"date"` // YYYY-MM-DD in the caller's timezone
	PagesPerDay      int         `json:"pagesPerDay" db:"pages_per_day"`
	CurrentDateStats []ReadEvent `json:"currentDateStats"`
	CreatedAt        time.Time   `json:"-" db:"created_at"`
}

type AddStatisticRequest struct {
	PagesRead int    `json:"pagesRead" binding:"required,min=1"`
	Book      string `json:"book" binding:"required"`
}

// StatisticResponse is what a progress submission returns: the touched
// statistic bucket, the updated book, and the plan's possibly just-changed
// status.
type StatisticResponse struct {
	Statistics Statistic `json:"statistics"`
	Book       Book      `json:"book"`
	PlanStatus string    `json:"planStatus"`
}

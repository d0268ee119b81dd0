package models

import "time"

// Plan statuses. A plan starts idle or active depending on its start date,
// and ends up finished or timeover. "cancel" never appears on a live plan;
// it only exists as an archived history status.
const (
	PlanStatusIdle     = "idle"
	PlanStatusActive   = "active"
	PlanStatusFinished = "finished"
	PlanStatusTimeover = "timeover"
	PlanStatusCancel   = "cancel"
)

type Plan struct {
	ID        string    `json:"_id" db:"id"`
	Owner     string    `json:"-" db:"owner"`
	StartDate string    `json:"startDate" db:"start_date"`
	EndDate   string    `json:"endDate" db:"end_date"`
	Status    string    `json:"status" db:"status"`
	BookIDs   []string  `json:"-"`
	CreatedAt time.Time `json:"-" db:"created_at"`
}

type AddPlanRequest struct {
	StartDate string   `json:"startDate" binding:"required"`
	EndDate   string   `json:"endDate" binding:"required"`
	Books     []string `json:"books" binding:"required,min=1,max=20"`
}

type ChangePlanStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active timeover"`
}

// PlanResponse is the wire shape of a plan: referenced books and statistics
// populated, plus the derived daily quota. pagesPerDay is computed per
// request and never stored on the plan itself.
type PlanResponse struct {
	ID          string      `json:"_id"`
	StartDate   string      `json:"startDate"`
	EndDate     string      `json:"endDate"`
	Books       []Book      `json:"books"`
	Statistics  []Statistic `json:"statistics"`
	Status      string      `json:"status"`
	PagesPerDay int         `json:"pagesPerDay"`
}

package plan

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yevgeniy8/books-reading-backend/internal/book"
	"github.com/yevgeniy8/books-reading-backend/pkg/clock"
	"github.com/yevgeniy8/books-reading-backend/pkg/database"
	"github.com/yevgeniy8/books-reading-backend/pkg/logger"
	"github.com/yevgeniy8/books-reading-backend/pkg/models"
	"github.com/yevgeniy8/books-reading-backend/pkg/utils"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// Get returns the owner's plan with its books, statistics and the derived
// daily quota. Expired plans are reconciled to timeover before reporting.
func (h *Handler) Get(c *gin.Context) {
	owner := c.GetString("user_id")

	now, err := clock.Now(c.Query("timezone"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid timezone"})
		return
	}

	p, err := GetByOwner(database.DB, owner)
	if err != nil {
		if err == ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	if _, err := Reconcile(database.DB, p, now); err != nil {
		logger.L().Errorw("reconcile_failed", "plan", p.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	books, err := Books(database.DB, p.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}
	stats, err := Statistics(database.DB, p.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}
	if stats == nil {
		stats = []models.Statistic{}
	}

	resp := models.PlanResponse{
		ID:         p.ID,
		StartDate:  p.StartDate,
		EndDate:    p.EndDate,
		Books:      books,
		Statistics: stats,
		Status:     p.Status,
	}

	if p.Status == models.PlanStatusFinished || p.Status == models.PlanStatusTimeover {
		c.JSON(http.StatusOK, resp)
		return
	}

	days, err := clock.DaysUntil(p.EndDate, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	resp.PagesPerDay = Quota(RemainingPages(books), days)
	c.JSON(http.StatusOK, resp)
}

// Add creates the owner's plan. Fails when one already exists, when the book
// set is invalid, or when the dates break the calendar rules.
func (h *Handler) Add(c *gin.Context) {
	owner := c.GetString("user_id")

	var req models.AddPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	now, err := clock.Now(c.Query("timezone"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid timezone"})
		return
	}

	start, err := clock.ParseDate(req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": ErrInvalidDates.Error()})
		return
	}
	end, err := clock.ParseDate(req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": ErrInvalidDates.Error()})
		return
	}

	daysToStart := clock.CalendarDaysBetween(start, now)
	length := clock.CalendarDaysBetween(end, start)
	if daysToStart < 0 || length < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"message": ErrInvalidDates.Error()})
		return
	}

	status := models.PlanStatusIdle
	if daysToStart <= 0 {
		status = models.PlanStatusActive
	}

	seen := make(map[string]struct{}, len(req.Books))
	for _, id := range req.Books {
		if _, dup := seen[id]; dup {
			c.JSON(http.StatusBadRequest, gin.H{"message": "id books must be unique"})
			return
		}
		seen[id] = struct{}{}
	}

	var books []models.Book
	for _, id := range req.Books {
		b, err := book.GetByID(database.DB, owner, id)
		if err != nil {
			if err == book.ErrNotFound {
				c.JSON(http.StatusBadRequest, gin.H{"message": ErrInvalidBooks.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
			return
		}
		if b.Finished() {
			c.JSON(http.StatusBadRequest, gin.H{"message": ErrFinishedBook.Error()})
			return
		}
		books = append(books, *b)
	}

	planID, err := utils.GenerateID(12)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate plan ID"})
		return
	}

	tx, err := database.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO plans (id, owner, start_date, end_date, status) VALUES (?, ?, ?, ?, ?)`,
		planID, owner, req.StartDate, req.EndDate, status); err != nil {
		if database.IsUniqueViolation(err, "plans.owner") {
			c.JSON(http.StatusConflict, gin.H{"message": ErrConflict.Error()})
			return
		}
		logger.L().Errorw("insert_plan_failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create plan"})
		return
	}
	for i, id := range req.Books {
		if _, err := tx.Exec(`INSERT INTO plan_books (plan_id, book_id, position) VALUES (?, ?, ?)`,
			planID, id, i); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create plan"})
			return
		}
	}
	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create plan"})
		return
	}

	c.JSON(http.StatusCreated, models.PlanResponse{
		ID:          planID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Books:       books,
		Statistics:  []models.Statistic{},
		Status:      status,
		PagesPerDay: Quota(RemainingPages(books), length),
	})
}

// ChangeStatus lets the user set the plan to active or timeover once the
// corresponding date boundary has been reached.
func (h *Handler) ChangeStatus(c *gin.Context) {
	owner := c.GetString("user_id")

	var req models.ChangePlanStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	now, err := clock.Now(c.Query("timezone"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid timezone"})
		return
	}

	p, err := GetByOwner(database.DB, owner)
	if err != nil {
		if err == ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	if _, err := Reconcile(database.DB, p, now); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	if err := SetStatus(database.DB, p, req.Status, now); err != nil {
		if err == ErrInvalidTransition {
			c.JSON(http.StatusBadRequest, gin.H{"message": ErrInvalidTransition.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": p.Status})
}

// Finish terminates the plan. An idle plan was never acted upon and is
// deleted without an archive entry; anything else lands in history with the
// archived status (cancel when the user quit an active plan early).
func (h *Handler) Finish(c *gin.Context) {
	owner := c.GetString("user_id")

	now, err := clock.Now(c.Query("timezone"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid timezone"})
		return
	}

	p, err := GetByOwner(database.DB, owner)
	if err != nil {
		if err == ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	if p.Status == models.PlanStatusIdle {
		if _, err := database.DB.Exec(`DELETE FROM plans WHERE id = ?`, p.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete plan"})
			return
		}
		c.Status(http.StatusNoContent)
		return
	}

	archivedStatus := p.Status
	if p.Status == models.PlanStatusActive {
		archivedStatus = models.PlanStatusCancel
	}

	stats, err := Statistics(database.DB, p.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}
	if stats == nil {
		stats = []models.Statistic{}
	}
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	historyID, err := utils.GenerateID(12)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate history ID"})
		return
	}

	// History insert and plan removal commit together; a failure before the
	// commit leaves the live plan untouched.
	tx, err := database.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO history (id, owner, start_date, end_date, completion_date, status, statistics)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		historyID, owner, p.StartDate, p.EndDate, clock.FormatDate(now), archivedStatus, string(statsJSON)); err != nil {
		logger.L().Errorw("insert_history_failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to archive plan"})
		return
	}
	if _, err := tx.Exec(`DELETE FROM statistics WHERE plan_id = ?`, p.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to archive plan"})
		return
	}
	if _, err := tx.Exec(`DELETE FROM plans WHERE id = ?`, p.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to archive plan"})
		return
	}
	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to archive plan"})
		return
	}

	c.Status(http.StatusNoContent)
}

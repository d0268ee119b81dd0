// Package stats records daily reading events against the active plan: it
// applies page progress to the book ledger, snapshots the daily quota, and
// appends into the per-day statistic bucket.
package stats

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yevgeniy8/books-reading-backend/internal/book"
	"github.com/yevgeniy8/books-reading-backend/internal/plan"
	"github.com/yevgeniy8/books-reading-backend/pkg/clock"
	"github.com/yevgeniy8/books-reading-backend/pkg/database"
	"github.com/yevgeniy8/books-reading-backend/pkg/logger"
	"github.com/yevgeniy8/books-reading-backend/pkg/models"
	"github.com/yevgeniy8/books-reading-backend/pkg/utils"
)

var (
	ErrNotActive = errors.New("plan is not active")
	ErrExpired   = errors.New("timeover")
	ErrPagesRead = errors.New("invalid pagesRead")
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// Add handles a progress submission. Validation happens up front against a
// consistent read; all writes (book progress, plan transition, statistic
// bucket) commit in one transaction so a failure leaves no partial state.
func (h *Handler) Add(c *gin.Context) {
	owner := c.GetString("user_id")

	var req models.AddStatisticRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	now, err := clock.Now(c.Query("timezone"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid timezone"})
		return
	}

	p, err := plan.GetByOwner(database.DB, owner)
	if err != nil {
		if err == plan.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	if p.Status != models.PlanStatusActive {
		c.JSON(http.StatusBadRequest, gin.H{"message": ErrNotActive.Error()})
		return
	}

	changed, err := plan.Reconcile(database.DB, p, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}
	if changed {
		// The end date passed; the plan just became timeover and nothing
		// gets recorded.
		c.JSON(http.StatusBadRequest, gin.H{"message": ErrExpired.Error()})
		return
	}

	daysLeft, err := clock.DaysUntil(p.EndDate, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	planBooks, err := plan.Books(database.DB, p.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	var target *models.Book
	for i := range planBooks {
		if planBooks[i].ID == req.Book {
			target = &planBooks[i]
			break
		}
	}
	if target == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid book id"})
		return
	}

	if target.PagesFinished+req.PagesRead > target.PagesTotal {
		c.JSON(http.StatusBadRequest, gin.H{"message": ErrPagesRead.Error()})
		return
	}

	// Quota snapshots today's target: pre-update remaining pages over the
	// days still left.
	remaining := plan.RemainingPages(planBooks)
	pagesPerDay := plan.Quota(remaining, daysLeft)

	tx, err := database.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}
	defer tx.Rollback()

	updatedBook, isFinishedBook, err := book.ApplyProgress(tx, target.ID, req.PagesRead)
	if err != nil {
		if err == book.ErrOverrun {
			c.JSON(http.StatusBadRequest, gin.H{"message": ErrPagesRead.Error()})
			return
		}
		logger.L().Errorw("apply_progress_failed", "book", target.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	if remaining-req.PagesRead == 0 {
		if err := plan.MarkFinished(tx, p); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
			return
		}
	}

	event := models.ReadEvent{
		PagesRead:      req.PagesRead,
		Time:           clock.FormatTime(now),
		Book:           req.Book,
		IsFinishedBook: isFinishedBook,
	}

	stat, err := upsertStatistic(tx, owner, p.ID, clock.FormatDate(now), pagesPerDay, event)
	if err != nil {
		logger.L().Errorw("upsert_statistic_failed", "plan", p.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	c.JSON(http.StatusOK, models.StatisticResponse{
		Statistics: *stat,
		Book:       *updatedBook,
		PlanStatus: p.Status,
	})
}

// upsertStatistic appends the event to today's bucket, creating the bucket
// on the first event of the day. A concurrent create surfaces as a UNIQUE
// violation on (owner, plan, date) and is retried as an append exactly once.
func upsertStatistic(tx book.DBTX, owner, planID, date string, pagesPerDay int, event models.ReadEvent) (*models.Statistic, error) {
	stat, err := appendToExisting(tx, owner, planID, date, event)
	if err == nil {
		return stat, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	stat, err = insertStatistic(tx, owner, planID, date, pagesPerDay, event)
	if err == nil {
		return stat, nil
	}
	if !database.IsUniqueViolation(err, "statistics.owner, statistics.plan_id, statistics.date") {
		return nil, err
	}

	// Lost the create race: someone inserted today's bucket between our
	// lookup and insert. Append instead.
	return appendToExisting(tx, owner, planID, date, event)
}

func appendToExisting(tx book.DBTX, owner, planID, date string, event models.ReadEvent) (*models.Statistic, error) {
	var s models.Statistic
	var events string
	err := tx.QueryRow(
		`SELECT id, owner, plan_id, date, pages_per_day, events
         FROM statistics WHERE owner = ? AND plan_id = ? AND date = ?`,
		owner, planID, date).
		Scan(&s.ID, &s.Owner, &s.Plan, &s.Date, &s.PagesPerDay, &events)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(events), &s.CurrentDateStats); err != nil {
		return nil, fmt.Errorf("decode statistic events: %w", err)
	}
	s.CurrentDateStats = append(s.CurrentDateStats, event)

	encoded, err := json.Marshal(s.CurrentDateStats)
	if err != nil {
		return nil, fmt.Errorf("encode statistic events: %w", err)
	}
	if _, err := tx.Exec(`UPDATE statistics SET events = ? WHERE id = ?`, string(encoded), s.ID); err != nil {
		return nil, fmt.Errorf("append statistic event: %w", err)
	}
	return &s, nil
}

func insertStatistic(tx book.DBTX, owner, planID, date string, pagesPerDay int, event models.ReadEvent) (*models.Statistic, error) {
	id, err := utils.GenerateID(12)
	if err != nil {
		return nil, err
	}

	events := []models.ReadEvent{event}
	encoded, err := json.Marshal(events)
	if err != nil {
		return nil, fmt.Errorf("encode statistic events: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO statistics (id, owner, plan_id, date, pages_per_day, events)
         VALUES (?, ?, ?, ?, ?, ?)`,
		id, owner, planID, date, pagesPerDay, string(encoded)); err != nil {
		return nil, err
	}

	return &models.Statistic{
		ID:               id,
		Owner:            owner,
		Plan:             planID,
		Date:             date,
		PagesPerDay:      pagesPerDay,
		CurrentDateStats: events,
		CreatedAt:        time.Now(),
	}, nil
}

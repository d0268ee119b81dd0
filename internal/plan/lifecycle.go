// Package plan owns the reading-plan state machine: creation, the
// idle/active/finished/timeover transitions, daily quota derivation and
// archival of terminated plans into history.
package plan

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/yevgeniy8/books-reading-backend/internal/book"
	"github.com/yevgeniy8/books-reading-backend/pkg/clock"
	"github.com/yevgeniy8/books-reading-backend/pkg/models"
)

var (
	ErrNotFound          = errors.New("plan not found")
	ErrConflict          = errors.New("this user has a plan created")
	ErrInvalidDates      = errors.New("invalid dates")
	ErrInvalidBooks      = errors.New("invalid 'bookId'")
	ErrFinishedBook      = errors.New("invalid 'bookId', you can't add books that you've already read")
	ErrInvalidTransition = errors.New("invalid status")
)

// Quota derives the daily page target. Callers guarantee remainingDays >= 1;
// every expired path forces the quota to 0 before division would happen.
func Quota(remainingPages, remainingDays int) int {
	return (remainingPages + remainingDays - 1) / remainingDays
}

// RemainingPages sums the unread pages across the plan's books.
func RemainingPages(books []models.Book) int {
	total := 0
	for _, b := range books {
		total += b.PagesTotal - b.PagesFinished
	}
	return total
}

// GetByOwner loads the owner's plan without its references.
func GetByOwner(db book.DBTX, owner string) (*models.Plan, error) {
	var p models.Plan
	err := db.QueryRow(`SELECT id, owner, start_date, end_date, status FROM plans WHERE owner = ?`, owner).
		Scan(&p.ID, &p.Owner, &p.StartDate, &p.EndDate, &p.Status)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return &p, nil
}

// Books returns the plan's books in the order they were added to the plan.
func Books(db book.DBTX, planID string) ([]models.Book, error) {
	rows, err := db.Query(
		`SELECT b.id, b.owner, b.title, b.author, b.publish_year, b.pages_total, b.pages_finished, b.rating, b.feedback
         FROM plan_books pb JOIN books b ON b.id = pb.book_id
         WHERE pb.plan_id = ? ORDER BY pb.position`, planID)
	if err != nil {
		return nil, fmt.Errorf("plan books: %w", err)
	}
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		var b models.Book
		if err := rows.Scan(&b.ID, &b.Owner, &b.Title, &b.Author, &b.PublishYear,
			&b.PagesTotal, &b.PagesFinished, &b.Rating, &b.Feedback); err != nil {
			return nil, fmt.Errorf("scan plan book: %w", err)
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// Statistics returns the plan's statistic buckets in chronological order.
func Statistics(db book.DBTX, planID string) ([]models.Statistic, error) {
	rows, err := db.Query(
		`SELECT id, owner, plan_id, date, pages_per_day, events
         FROM statistics WHERE plan_id = ? ORDER BY created_at, id`, planID)
	if err != nil {
		return nil, fmt.Errorf("plan statistics: %w", err)
	}
	defer rows.Close()

	var stats []models.Statistic
	for rows.Next() {
		var s models.Statistic
		var events string
		if err := rows.Scan(&s.ID, &s.Owner, &s.Plan, &s.Date, &s.PagesPerDay, &events); err != nil {
			return nil, fmt.Errorf("scan statistic: %w", err)
		}
		if err := json.Unmarshal([]byte(events), &s.CurrentDateStats); err != nil {
			return nil, fmt.Errorf("decode statistic events: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// Reconcile detects an expired plan and persists the timeover transition.
// It is invoked at the start of every plan operation instead of being a
// hidden side effect of reads. Returns whether a transition happened.
func Reconcile(db book.DBTX, p *models.Plan, now time.Time) (bool, error) {
	if p.Status != models.PlanStatusIdle && p.Status != models.PlanStatusActive {
		return false, nil
	}

	days, err := clock.DaysUntil(p.EndDate, now)
	if err != nil {
		return false, fmt.Errorf("reconcile plan: %w", err)
	}
	if days > 0 {
		return false, nil
	}

	if _, err := db.Exec(`UPDATE plans SET status = ? WHERE id = ?`, models.PlanStatusTimeover, p.ID); err != nil {
		return false, fmt.Errorf("reconcile plan: %w", err)
	}
	p.Status = models.PlanStatusTimeover
	return true, nil
}

// SetStatus applies a direct status change requested by the user. Only
// active and timeover are settable, and each is gated on the corresponding
// date boundary having been reached.
func SetStatus(db book.DBTX, p *models.Plan, status string, now time.Time) error {
	switch status {
	case models.PlanStatusActive:
		days, err := clock.DaysUntil(p.StartDate, now)
		if err != nil {
			return fmt.Errorf("change status: %w", err)
		}
		if days > 0 {
			return ErrInvalidTransition
		}
	case models.PlanStatusTimeover:
		days, err := clock.DaysUntil(p.EndDate, now)
		if err != nil {
			return fmt.Errorf("change status: %w", err)
		}
		if days > 0 {
			return ErrInvalidTransition
		}
	default:
		return ErrInvalidTransition
	}

	if _, err := db.Exec(`UPDATE plans SET status = ? WHERE id = ?`, status, p.ID); err != nil {
		return fmt.Errorf("change status: %w", err)
	}
	p.Status = status
	return nil
}

// MarkFinished flips the plan to finished once every plan book is fully read.
func MarkFinished(db book.DBTX, p *models.Plan) error {
	if _, err := db.Exec(`UPDATE plans SET status = ? WHERE id = ?`, models.PlanStatusFinished, p.ID); err != nil {
		return fmt.Errorf("mark finished: %w", err)
	}
	p.Status = models.PlanStatusFinished
	return nil
}

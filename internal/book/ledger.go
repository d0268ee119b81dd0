// Package book owns book records and per-book page progress. The ledger
// functions take a DBTX so the statistics flow can run them inside its own
// transaction.
package book

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/yevgeniy8/books-reading-backend/pkg/models"
)

var (
	ErrNotFound    = errors.New("book not found")
	ErrDuplicate   = errors.New("this user already has such a book")
	ErrInUse       = errors.New("this book is included in the plan")
	ErrNotFinished = errors.New("this book is not finished")
	ErrOverrun     = errors.New("pages read would exceed the book total")
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

const bookColumns = `id, owner, title, author, publish_year, pages_total, pages_finished, rating, feedback`

func scanBook(row *sql.Row) (*models.Book, error) {
	var b models.Book
	err := row.Scan(&b.ID, &b.Owner, &b.Title, &b.Author, &b.PublishYear,
		&b.PagesTotal, &b.PagesFinished, &b.Rating, &b.Feedback)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan book: %w", err)
	}
	return &b, nil
}

// GetByID fetches a book owned by the given user.
func GetByID(db DBTX, owner, id string) (*models.Book, error) {
	row := db.QueryRow(`SELECT `+bookColumns+` FROM books WHERE id = ? AND owner = ?`, id, owner)
	return scanBook(row)
}

// ListByOwner returns all of the owner's books ordered by creation.
func ListByOwner(db DBTX, owner string) ([]models.Book, error) {
	rows, err := db.Query(`SELECT `+bookColumns+` FROM books WHERE owner = ? ORDER BY created_at, id`, owner)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		var b models.Book
		if err := rows.Scan(&b.ID, &b.Owner, &b.Title, &b.Author, &b.PublishYear,
			&b.PagesTotal, &b.PagesFinished, &b.Rating, &b.Feedback); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// ApplyProgress adds pagesRead to the book's finished count. The bound check
// rides on the UPDATE itself, so two concurrent submissions cannot push
// pages_finished past pages_total. Returns the updated book and whether this
// call finished it.
func ApplyProgress(db DBTX, bookID string, pagesRead int) (*models.Book, bool, error) {
	res, err := db.Exec(
		`UPDATE books SET pages_finished = pages_finished + ?
         WHERE id = ? AND pages_finished + ? <= pages_total`,
		pagesRead, bookID, pagesRead)
	if err != nil {
		return nil, false, fmt.Errorf("apply progress: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("apply progress: %w", err)
	}
	if affected == 0 {
		// Either the book is gone or the increment would overrun the total.
		var exists int
		if err := db.QueryRow(`SELECT 1 FROM books WHERE id = ?`, bookID).Scan(&exists); err != nil {
			if err == sql.ErrNoRows {
				return nil, false, ErrNotFound
			}
			return nil, false, fmt.Errorf("apply progress: %w", err)
		}
		return nil, false, ErrOverrun
	}

	row := db.QueryRow(`SELECT `+bookColumns+` FROM books WHERE id = ?`, bookID)
	updated, err := scanBook(row)
	if err != nil {
		return nil, false, err
	}

	// pagesRead is always positive, so reaching the total means this call
	// finished the book.
	return updated, updated.Finished(), nil
}

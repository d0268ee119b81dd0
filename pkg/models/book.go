package models

import "time"

type Book struct {
	ID            string    `json:"_id" db:"id"`
	Owner         string    `json:"-" db:"owner"`
	Title         string    `json:"title" db:"title"`
	Author        string    `json:"author" db:"author"`
	PublishYear   int       `json:"publishYear" db:"publish_year"`
	PagesTotal    int       `json:"pagesTotal" db:"pages_total"`
	PagesFinished int       `json:"pagesFinished" db:"pages_finished"`
	Rating        *int      `json:"rating" db:"rating"`   // Pointer so null is explicit
	Feedback      *string   `json:"feedback" db:"feedback"`
	CreatedAt     time.Time `json:"-" db:"created_at"`
}

// Finished reports whether every page of the book has been read.
func (b *Book) Finished() bool {
	return b.PagesFinished == b.PagesTotal
}

type AddBookRequest struct {
	Title       string `json:"title" binding:"required,min=2,max=255"`
	Author      string `json:"author" binding:"required,min=2,max=255"`
	PublishYear int    `json:"publishYear" binding:"required,min=1000,max=9999"`
	PagesTotal  int    `json:"pagesTotal" binding:"required,min=1,max=5000"`
}

type AddReviewRequest struct {
	Rating   int    `json:"rating" binding:"required,min=1,max=5"`
	Feedback string `json:"feedback" binding:"max=3000"`
}

// BookShelf groups the user's books the way the client renders them.
type BookShelf struct {
	GoingToRead      []Book `json:"goingToRead"`
	CurrentlyReading []Book `json:"currentlyReading"`
	FinishedReading  []Book `json:"finishedReading"`
}

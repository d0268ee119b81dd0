package book

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yevgeniy8/books-reading-backend/pkg/database"
	"github.com/yevgeniy8/books-reading-backend/pkg/logger"
	"github.com/yevgeniy8/books-reading-backend/pkg/models"
	"github.com/yevgeniy8/books-reading-backend/pkg/utils"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// GetAll returns the user's books grouped by reading state.
func (h *Handler) GetAll(c *gin.Context) {
	owner := c.GetString("user_id")

	books, err := ListByOwner(database.DB, owner)
	if err != nil {
		logger.L().Errorw("list_books_failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	shelf := models.BookShelf{
		GoingToRead:      []models.Book{},
		CurrentlyReading: []models.Book{},
		FinishedReading:  []models.Book{},
	}
	for _, b := range books {
		switch {
		case b.PagesFinished == 0:
			shelf.GoingToRead = append(shelf.GoingToRead, b)
		case b.Finished():
			shelf.FinishedReading = append(shelf.FinishedReading, b)
		default:
			shelf.CurrentlyReading = append(shelf.CurrentlyReading, b)
		}
	}

	c.JSON(http.StatusOK, shelf)
}

func (h *Handler) Add(c *gin.Context) {
	owner := c.GetString("user_id")

	var req models.AddBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	bookID, err := utils.GenerateID(12)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate book ID"})
		return
	}

	query := `INSERT INTO books (id, owner, title, author, publish_year, pages_total) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := database.DB.Exec(query, bookID, owner, req.Title, req.Author, req.PublishYear, req.PagesTotal); err != nil {
		if database.IsUniqueViolation(err, "books.owner, books.title, books.author") {
			c.JSON(http.StatusConflict, gin.H{"message": ErrDuplicate.Error()})
			return
		}
		logger.L().Errorw("insert_book_failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create book"})
		return
	}

	c.JSON(http.StatusCreated, models.Book{
		ID:          bookID,
		Title:       req.Title,
		Author:      req.Author,
		PublishYear: req.PublishYear,
		PagesTotal:  req.PagesTotal,
	})
}

// DeleteByID removes a book unless the owner's plan still references it.
func (h *Handler) DeleteByID(c *gin.Context) {
	owner := c.GetString("user_id")
	bookID := c.Param("id")

	var planID string
	err := database.DB.QueryRow(
		`SELECT p.id FROM plans p JOIN plan_books pb ON pb.plan_id = p.id
         WHERE p.owner = ? AND pb.book_id = ?`, owner, bookID).Scan(&planID)
	if err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": ErrInUse.Error()})
		return
	}
	if err != sql.ErrNoRows {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	res, err := database.DB.Exec(`DELETE FROM books WHERE id = ? AND owner = ?`, bookID, owner)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete book"})
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"_id": bookID})
}

// AddReview attaches a rating and feedback to a finished book.
func (h *Handler) AddReview(c *gin.Context) {
	owner := c.GetString("user_id")
	bookID := c.Param("id")

	var req models.AddReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	b, err := GetByID(database.DB, owner, bookID)
	if err != nil {
		if err == ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	if !b.Finished() {
		c.JSON(http.StatusBadRequest, gin.H{"message": ErrNotFinished.Error()})
		return
	}

	if _, err := database.DB.Exec(`UPDATE books SET rating = ?, feedback = ? WHERE id = ? AND owner = ?`,
		req.Rating, req.Feedback, bookID, owner); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update book"})
		return
	}

	b.Rating = &req.Rating
	b.Feedback = &req.Feedback
	c.JSON(http.StatusOK, b)
}

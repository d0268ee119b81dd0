package auth

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yevgeniy8/books-reading-backend/pkg/database"
	"github.com/yevgeniy8/books-reading-backend/pkg/logger"
	"github.com/yevgeniy8/books-reading-backend/pkg/models"
	"github.com/yevgeniy8/books-reading-backend/pkg/utils"
)

type Handler struct {
	AccessSecret  string
	RefreshSecret string
}

func NewHandler(accessSecret, refreshSecret string) *Handler {
	return &Handler{
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	userID, err := utils.GenerateID(12)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate user ID"})
		return
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to hash password"})
		return
	}

	query := `INSERT INTO users (id, name, email, password_hash) VALUES (?, ?, ?, ?)`
	if _, err := database.DB.Exec(query, userID, req.Name, req.Email, passwordHash); err != nil {
		if database.IsUniqueViolation(err, "users.email") {
			c.JSON(http.StatusConflict, gin.H{"message": "Email on use"})
			return
		}
		logger.L().Errorw("insert_user_failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, models.UserData{
		Name:  req.Name,
		Email: req.Email,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	var user models.User
	err := database.DB.QueryRow(`SELECT id, name, email, password_hash FROM users WHERE email = ?`, req.Email).
		Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Email or password is wrong"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	if err := utils.CheckPassword(user.PasswordHash, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Email or password is wrong"})
		return
	}

	accessToken, refreshToken, err := utils.CreateTokens(user.ID, h.AccessSecret, h.RefreshSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate tokens"})
		return
	}

	if _, err := database.DB.Exec(`UPDATE users SET access_token = ?, refresh_token = ? WHERE id = ?`,
		accessToken, refreshToken, user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to store tokens"})
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{
		UserData: models.UserData{
			Name:  user.Name,
			Email: user.Email,
		},
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	userID := c.GetString("user_id")

	if _, err := database.DB.Exec(`UPDATE users SET access_token = '', refresh_token = '' WHERE id = ?`, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to log out"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Refresh rotates the access/refresh pair. The refresh token was already
// validated by the refresh-token middleware.
func (h *Handler) Refresh(c *gin.Context) {
	userID := c.GetString("user_id")

	accessToken, refreshToken, err := utils.CreateTokens(userID, h.AccessSecret, h.RefreshSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate tokens"})
		return
	}

	if _, err := database.DB.Exec(`UPDATE users SET access_token = ?, refresh_token = ? WHERE id = ?`,
		accessToken, refreshToken, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to store tokens"})
		return
	}

	c.JSON(http.StatusOK, models.RefreshResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

func (h *Handler) Current(c *gin.Context) {
	userID := c.GetString("user_id")

	var user models.UserData
	err := database.DB.QueryRow(`SELECT name, email FROM users WHERE id = ?`, userID).
		Scan(&user.Name, &user.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authorized"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	c.JSON(http.StatusOK, user)
}

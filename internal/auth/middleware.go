package auth

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yevgeniy8/books-reading-backend/pkg/database"
	"github.com/yevgeniy8/books-reading-backend/pkg/utils"
)

// Token columns a middleware instance can check the presented token against.
const (
	AccessTokenColumn  = "access_token"
	RefreshTokenColumn = "refresh_token"
)

// TokenMiddleware authenticates a Bearer token signed with secret and checks
// it matches the token stored in the given users column, so logout (which
// clears the columns) invalidates outstanding tokens. One implementation
// serves both the access and the refresh paths.
func TokenMiddleware(secret, column string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authorized"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authorized"})
			c.Abort()
			return
		}
		token := parts[1]

		userID, err := utils.ParseToken(token, secret)
		if err != nil {
			msg := "Not authorized"
			if errors.Is(err, utils.ErrTokenExpired) {
				msg = "Token is expired"
			}
			c.JSON(http.StatusUnauthorized, gin.H{"message": msg})
			c.Abort()
			return
		}

		var stored string
		query := `SELECT ` + column + ` FROM users WHERE id = ?`
		err = database.DB.QueryRow(query, userID).Scan(&stored)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authorized"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
			}
			c.Abort()
			return
		}
		if stored == "" || stored != token {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authorized"})
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}

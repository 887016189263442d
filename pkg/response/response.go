package response

import (
	"log"
	"net/http"

	"anoa.com/jobportal/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// UserKey holds the authenticated *entity.User.
	UserKey = "user"
	// UserIDKey holds the authenticated user id as a string.
	UserIDKey = "user_id"
)

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr := c.GetString(UserIDKey)
	if userIDStr == "" {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	return userID, nil
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	// Log internal errors
	if code == http.StatusInternalServerError {
		log.Printf("[Internal Error]: %v", err)
	}

	c.JSON(code, gin.H{"error": err.Error()})
}

// Page renders a page context: the template that would be rendered, the flash
// messages to show on it, the current user and the template context.
func Page(c *gin.Context, status int, template string, context gin.H) {
	if context == nil {
		context = gin.H{}
	}

	user, _ := c.Get(UserKey)

	c.JSON(status, gin.H{
		"template": template,
		"messages": consumeMessages(c),
		"user":     user,
		"context":  context,
	})
}

// Redirect sends a 302, carrying pending flash messages to the next page.
func Redirect(c *gin.Context, location string) {
	persistMessages(c)
	c.Redirect(http.StatusFound, location)
}

func NotFound(c *gin.Context) {
	Page(c, http.StatusNotFound, "404.html", nil)
}

// PageError renders the error page matching err. Internal errors are logged.
func PageError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)
	switch code {
	case http.StatusNotFound:
		NotFound(c)
	case http.StatusForbidden:
		Page(c, code, "403.html", gin.H{"error": err.Error()})
	case http.StatusInternalServerError:
		log.Printf("[Internal Error]: %v", err)
		Page(c, code, "500.html", nil)
	default:
		Page(c, code, "error.html", gin.H{"error": err.Error()})
	}
}

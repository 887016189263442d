package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"anoa.com/jobportal/internal/entity"
	userRepo "anoa.com/jobportal/internal/modules/user/repository"
	"anoa.com/jobportal/pkg/response"
	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	userRepo userRepo.UserRepository
	sessions *SessionManager
}

func NewAuthMiddleware(userRepo userRepo.UserRepository, sessions *SessionManager) *AuthMiddleware {
	return &AuthMiddleware{
		userRepo: userRepo,
		sessions: sessions,
	}
}

// LoadSession resolves the session cookie (or a Bearer token, or a "token" query
// parameter for WebSockets) to an active user. Requests without a valid session
// continue anonymously.
func (m *AuthMiddleware) LoadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, fromCookie := extractToken(c)
		if tokenString == "" {
			c.Next()
			return
		}

		claims, err := m.sessions.Parse(c.Request.Context(), tokenString)
		if err != nil {
			if fromCookie {
				m.sessions.setCookie(c, "", -1)
			}
			c.Next()
			return
		}

		user, err := m.userRepo.FindByID(c.Request.Context(), claims.Subject)
		if err != nil || !user.IsActive {
			c.Next()
			return
		}

		c.Set(response.UserKey, user)
		c.Set(response.UserIDKey, user.ID.String())
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireLogin sends anonymous visitors to the login page, remembering where they were going.
func (m *AuthMiddleware) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			response.Warning(c, "Please log in to continue.")
			response.Redirect(c, "/login/?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAnonymous sends logged-in users home.
func (m *AuthMiddleware) RequireAnonymous() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) != nil {
			response.Redirect(c, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAuth is the JSON variant of RequireLogin.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			c.Abort()
			return
		}

		if !user.IsStaff {
			c.JSON(http.StatusForbidden, gin.H{"error": "staff access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// CurrentUser returns the authenticated user or nil.
func CurrentUser(c *gin.Context) *entity.User {
	v, ok := c.Get(response.UserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*entity.User)
	return user
}

func extractToken(c *gin.Context) (string, bool) {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie, true
	}

	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1], false
		}
	}

	// Fallback to query parameter "token" (useful for WebSockets)
	return c.Query("token"), false
}

// SafeRedirect returns next when it is a local path, otherwise fallback.
func SafeRedirect(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return fallback
	}
	return next
}

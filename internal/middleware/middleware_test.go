package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anoa.com/jobportal/internal/entity"
	userRepo "anoa.com/jobportal/internal/modules/user/repository"
	"anoa.com/jobportal/internal/testutil"
	"anoa.com/jobportal/pkg/ratelimiter"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newSessions() *SessionManager {
	return NewSessionManager(SessionConfig{Secret: "test-secret", TTL: time.Hour}, nil)
}

func issueToken(t *testing.T, sessions *SessionManager, userID uuid.UUID) string {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/login/", nil)

	token, err := sessions.Issue(c, userID, false)
	require.NoError(t, err)
	assert.Contains(t, w.Header().Get("Set-Cookie"), SessionCookie+"=")
	return token
}

func TestSessionParse(t *testing.T) {
	sessions := newSessions()
	id := uuid.New()
	token := issueToken(t, sessions, id)

	claims, err := sessions.Parse(t.Context(), token)
	require.NoError(t, err)
	assert.Equal(t, id.String(), claims.Subject)

	other := NewSessionManager(SessionConfig{Secret: "another-secret"}, nil)
	_, err = other.Parse(t.Context(), token)
	assert.Error(t, err)

	_, err = sessions.Parse(t.Context(), token+"x")
	assert.Error(t, err)
}

func TestSessionRevoke(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	sessions := NewSessionManager(SessionConfig{Secret: "test-secret", TTL: time.Hour}, rdb)
	token := issueToken(t, sessions, uuid.New())

	claims, err := sessions.Parse(t.Context(), token)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/logout/", nil)
	c.Set(claimsKey, claims)
	require.NoError(t, sessions.Revoke(c))
	assert.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=0")

	_, err = sessions.Parse(t.Context(), token)
	assert.ErrorIs(t, err, ErrSessionRevoked)
}

func newRouter(t *testing.T) (*gin.Engine, *SessionManager, *entity.User, *entity.User) {
	db := testutil.NewDB(t)
	seeker := testutil.CreateUser(t, db, "seeker", entity.RoleApplicant)
	staff := testutil.CreateStaff(t, db, "admin")

	sessions := newSessions()
	auth := NewAuthMiddleware(userRepo.NewUserRepository(db), sessions)

	ok := func(c *gin.Context) { c.String(http.StatusOK, "ok") }

	r := gin.New()
	r.Use(auth.LoadSession())
	r.GET("/private/", auth.RequireLogin(), ok)
	r.GET("/login/", auth.RequireAnonymous(), ok)
	r.GET("/api/", auth.RequireAuth(), ok)
	r.GET("/admin/", auth.RequireStaff(), ok)
	return r, sessions, seeker, staff
}

func get(r http.Handler, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireLogin(t *testing.T) {
	r, sessions, seeker, _ := newRouter(t)

	w := get(r, "/private/?page=2", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login/?next=%2Fprivate%2F%3Fpage%3D2", w.Header().Get("Location"))

	w = get(r, "/private/", issueToken(t, sessions, seeker.ID))
	assert.Equal(t, http.StatusOK, w.Code)

	// a stale cookie is dropped and the visitor treated as anonymous
	w = get(r, "/private/", "garbage")
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestRequireAnonymous(t *testing.T) {
	r, sessions, seeker, _ := newRouter(t)

	assert.Equal(t, http.StatusOK, get(r, "/login/", "").Code)

	w := get(r, "/login/", issueToken(t, sessions, seeker.ID))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestRequireAuthAndStaff(t *testing.T) {
	r, sessions, seeker, staff := newRouter(t)

	assert.Equal(t, http.StatusUnauthorized, get(r, "/api/", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/admin/", "").Code)

	seekerToken := issueToken(t, sessions, seeker.ID)
	assert.Equal(t, http.StatusOK, get(r, "/api/", seekerToken).Code)
	assert.Equal(t, http.StatusForbidden, get(r, "/admin/", seekerToken).Code)

	assert.Equal(t, http.StatusOK, get(r, "/admin/", issueToken(t, sessions, staff.ID)).Code)

	// bearer tokens work for API clients
	req := httptest.NewRequest(http.MethodGet, "/api/", nil)
	req.Header.Set("Authorization", "Bearer "+seekerToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSafeRedirect(t *testing.T) {
	cases := map[string]string{
		"":                     "/",
		"/jobs/3/apply/":       "/jobs/3/apply/",
		"/jobs/?title=go":      "/jobs/?title=go",
		"//evil.example":       "/",
		"/\\evil.example":      "/",
		"https://evil.example": "/",
		"jobs/":                "/",
	}
	for next, want := range cases {
		assert.Equal(t, want, SafeRedirect(next, "/"), next)
	}
}

func TestFormRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(FormRateLimit(ratelimiter.NewClientLimiter(0.001, 1)))
	r.Any("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	do := func(method string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, "/", nil))
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, do(http.MethodPost))
	assert.Equal(t, http.StatusTooManyRequests, do(http.MethodPost))
	assert.Equal(t, http.StatusNoContent, do(http.MethodGet))
}

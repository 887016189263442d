package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"anoa.com/jobportal/internal/config"
	"anoa.com/jobportal/internal/entity"
	"anoa.com/jobportal/internal/middleware"
	"anoa.com/jobportal/internal/testutil"
	"anoa.com/jobportal/pkg/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type page struct {
	Template string              `json:"template"`
	Messages []map[string]string `json:"messages"`
	Context  map[string]any      `json:"context"`
	User     map[string]any      `json:"user"`
}

func newTestServer(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	mediaRoot := t.TempDir()
	store, err := storage.NewLocalStorage(mediaRoot, "/media/")
	require.NoError(t, err)

	cfg := &config.Config{
		AppEnv:            "test",
		AllowedOrigins:    "http://localhost:3000",
		StorageDriver:     "local",
		MediaRoot:         mediaRoot,
		JWTSecret:         "test-secret",
		MaxResumeBytes:    5 << 20,
		FormRatePerSecond: 100,
		FormRateBurst:     100,
	}

	srv := NewServer(cfg, Deps{DB: db, FileStorage: store})
	return srv.Handler(), db
}

func do(t *testing.T, h http.Handler, method, target string, form url.Values, session string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if session != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: session})
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodePage(t *testing.T, w *httptest.ResponseRecorder) page {
	t.Helper()
	var p page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	return p
}

func login(t *testing.T, h http.Handler, username string) string {
	t.Helper()

	w := do(t, h, http.MethodPost, "/login/", url.Values{
		"username": {username},
		"password": {testutil.Password},
	}, "")
	require.Equal(t, http.StatusFound, w.Code)

	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie && c.Value != "" {
			return c.Value
		}
	}
	t.Fatalf("no session cookie for %s", username)
	return ""
}

func TestUnknownRouteRendersNotFound(t *testing.T) {
	h, _ := newTestServer(t)

	w := do(t, h, http.MethodGet, "/nope/", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "404.html", decodePage(t, w).Template)

	w = do(t, h, http.MethodGet, "/jobs/abc/", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnonymousApplyRedirectsToLogin(t *testing.T) {
	h, _ := newTestServer(t)

	w := do(t, h, http.MethodGet, "/jobs/1/apply/", nil, "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login/?next=%2Fjobs%2F1%2Fapply%2F", w.Header().Get("Location"))
}

func TestHomepageShowsLatestNine(t *testing.T) {
	h, db := newTestServer(t)

	poster := testutil.CreateUser(t, db, "poster", entity.RoleEmployee)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 12; i++ {
		testutil.CreateJob(t, db, poster, fmt.Sprintf("Job %d", i), "Acme", "Remote", base.Add(time.Duration(i)*time.Minute))
	}

	w := do(t, h, http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	p := decodePage(t, w)
	assert.Equal(t, "jobs/home.html", p.Template)
	assert.Len(t, p.Context["jobs"], 9)
	assert.EqualValues(t, 12, p.Context["total_jobs"])
	assert.Equal(t, false, p.Context["search_performed"])

	w = do(t, h, http.MethodGet, "/jobs/?company=acme", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	p = decodePage(t, w)
	assert.Equal(t, "jobs/job_listings.html", p.Template)
	assert.Len(t, p.Context["jobs"], 12)
	assert.EqualValues(t, 12, p.Context["total_jobs"])
	assert.Equal(t, true, p.Context["search_performed"])

	w = do(t, h, http.MethodGet, "/jobs/?title=job%201", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	p = decodePage(t, w)
	// "Job 1", "Job 10", "Job 11"
	assert.Len(t, p.Context["jobs"], 3)
	assert.EqualValues(t, 3, p.Context["total_jobs"])
}

func TestPostAndApplyFlow(t *testing.T) {
	h, db := newTestServer(t)

	testutil.CreateUser(t, db, "poster", entity.RoleEmployee)
	testutil.CreateUser(t, db, "seeker", entity.RoleApplicant)

	posterSession := login(t, h, "poster")
	seekerSession := login(t, h, "seeker")

	// applicants cannot post
	w := do(t, h, http.MethodGet, "/post-job/", nil, seekerSession)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = do(t, h, http.MethodPost, "/post-job/", url.Values{
		"title":        {"Go Developer"},
		"company_name": {"Acme"},
		"location":     {"Remote"},
		"description":  {"Build services"},
	}, posterSession)
	require.Equal(t, http.StatusFound, w.Code)

	var job entity.Job
	require.NoError(t, db.First(&job).Error)
	detail := fmt.Sprintf("/jobs/%d/", job.ID)
	assert.Equal(t, detail, w.Header().Get("Location"))

	w = do(t, h, http.MethodPost, detail+"apply/", url.Values{"cover_letter": {"   "}}, seekerSession)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, detail+"apply/", url.Values{"cover_letter": {"Hire me"}}, seekerSession)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/my-applications/", w.Header().Get("Location"))

	// the second attempt bounces back to the job
	w = do(t, h, http.MethodPost, detail+"apply/", url.Values{"cover_letter": {"Again"}}, seekerSession)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, detail, w.Header().Get("Location"))

	w = do(t, h, http.MethodGet, "/my-applications/", nil, seekerSession)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decodePage(t, w).Context["total_applications"])

	w = do(t, h, http.MethodGet, detail, nil, seekerSession)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodePage(t, w).Context["has_applied"])
}

func TestAdminRequiresStaff(t *testing.T) {
	h, db := newTestServer(t)

	testutil.CreateUser(t, db, "seeker", entity.RoleApplicant)
	testutil.CreateStaff(t, db, "admin")

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/admin/jobs", nil, "").Code)
	assert.Equal(t, http.StatusForbidden, do(t, h, http.MethodGet, "/admin/jobs", nil, login(t, h, "seeker")).Code)

	w := do(t, h, http.MethodGet, "/admin/profiles", nil, login(t, h, "admin"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user":"seeker"`)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker("http://localhost:3000, https://jobs.example")

	req := httptest.NewRequest(http.MethodGet, "http://api.example/notifications/ws/", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://jobs.example")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://api.example")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))
}

func TestPosterNotifications(t *testing.T) {
	h, db := newTestServer(t)

	poster := testutil.CreateUser(t, db, "poster", entity.RoleEmployee)
	testutil.CreateUser(t, db, "seeker", entity.RoleApplicant)
	job := testutil.CreateJob(t, db, poster, "Go Developer", "Acme", "Remote", time.Now())

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/notifications/", nil, "").Code)

	w := do(t, h, http.MethodPost, fmt.Sprintf("/jobs/%d/apply/", job.ID), url.Values{"cover_letter": {"Hire me"}}, login(t, h, "seeker"))
	require.Equal(t, http.StatusFound, w.Code)

	posterSession := login(t, h, "poster")
	unread := func() float64 {
		w := do(t, h, http.MethodGet, "/notifications/unread-count/", nil, posterSession)
		var body struct {
			UnreadCount float64 `json:"unread_count"`
		}
		if w.Code != http.StatusOK || json.Unmarshal(w.Body.Bytes(), &body) != nil {
			return -1
		}
		return body.UnreadCount
	}
	assert.Eventually(t, func() bool { return unread() == 1 }, 2*time.Second, 20*time.Millisecond)

	w = do(t, h, http.MethodGet, "/notifications/?limit=500", nil, posterSession)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []entity.Notification `json:"data"`
		Meta struct {
			TotalItems int64 `json:"total_items"`
			Limit      int   `json:"limit"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.EqualValues(t, 1, list.Meta.TotalItems)
	assert.Equal(t, 20, list.Meta.Limit)
	assert.Equal(t, entity.NotificationNewApplication, list.Data[0].Type)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/notifications/not-a-uuid/read/", nil, posterSession).Code)

	w = do(t, h, http.MethodPost, "/notifications/read-all/", nil, posterSession)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"updated":1`)
	assert.Zero(t, unread())

	// no live socket without redis
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/notifications/ws/", nil, posterSession).Code)
}

func TestRegisterRequiresTickedTerms(t *testing.T) {
	h, db := newTestServer(t)

	form := func(username, agree string) url.Values {
		v := url.Values{
			"username":   {username},
			"first_name": {"Ada"},
			"last_name":  {"Lovelace"},
			"email":      {username + "@example.com"},
			"password1":  {"analytical-engine"},
			"password2":  {"analytical-engine"},
			"role":       {entity.RoleApplicant},
		}
		if agree != "" {
			v.Set("agree_terms", agree)
		}
		return v
	}

	for _, agree := range []string{"", "false", "0", "off"} {
		w := do(t, h, http.MethodPost, "/register/", form("declined", agree), "")
		require.Equal(t, http.StatusBadRequest, w.Code, "agree_terms=%q", agree)
		errs, _ := decodePage(t, w).Context["errors"].(map[string]any)
		assert.Equal(t, "You must agree to the terms and conditions.", errs["agree_terms"], "agree_terms=%q", agree)
	}

	var n int64
	require.NoError(t, db.Model(&entity.User{}).Count(&n).Error)
	assert.Zero(t, n)

	w := do(t, h, http.MethodPost, "/register/", form("ada", "on"), "")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	require.NoError(t, db.Model(&entity.User{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"anoa.com/jobportal/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pageBody struct {
	Template string         `json:"template"`
	Messages []Message      `json:"messages"`
	Context  map[string]any `json:"context"`
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestFlashSurvivesRedirect(t *testing.T) {
	router := gin.New()
	router.GET("/go", func(c *gin.Context) {
		Success(c, "You have been successfully logged out.")
		Redirect(c, "/")
	})
	router.GET("/", func(c *gin.Context) {
		Page(c, http.StatusOK, "home.html", gin.H{"total_jobs": 3})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/go", nil))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range w.Result().Cookies() {
		req.AddCookie(cookie)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body pageBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "home.html", body.Template)
	require.Len(t, body.Messages, 1)
	assert.Equal(t, Message{Level: LevelSuccess, Text: "You have been successfully logged out."}, body.Messages[0])
	assert.EqualValues(t, 3, body.Context["total_jobs"])
}

func TestPageErrorStatuses(t *testing.T) {
	cases := []struct {
		err      error
		status   int
		template string
	}{
		{apperror.ErrNotFound, http.StatusNotFound, "404.html"},
		{apperror.ErrForbidden, http.StatusForbidden, "403.html"},
		{errors.New("db down"), http.StatusInternalServerError, "500.html"},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		PageError(c, tc.err)

		var body pageBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, tc.status, w.Code)
		assert.Equal(t, tc.template, body.Template)
	}
}

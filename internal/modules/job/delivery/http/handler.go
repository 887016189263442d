package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"anoa.com/jobportal/internal/middleware"
	"anoa.com/jobportal/internal/modules/job/dto"
	"anoa.com/jobportal/internal/modules/job/service"
	"anoa.com/jobportal/pkg/apperror"
	"anoa.com/jobportal/pkg/response"
	"anoa.com/jobportal/pkg/validator"
	"github.com/gin-gonic/gin"
)

type JobHandler struct {
	service service.JobService
}

func NewJobHandler(service service.JobService) *JobHandler {
	return &JobHandler{service: service}
}

// ParseJobID reads the :id path parameter. Anything that is not a positive
// integer is reported as not found.
func ParseJobID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (h *JobHandler) Homepage(c *gin.Context) {
	var query dto.SearchQuery
	_ = c.ShouldBindQuery(&query)

	result, err := h.service.Homepage(c.Request.Context(), query, middleware.CurrentUser(c))
	if err != nil {
		response.PageError(c, err)
		return
	}

	response.Page(c, http.StatusOK, "jobs/home.html", listContext(result))
}

// listContext is shared by the homepage and the full listing.
func listContext(result *dto.JobListResult) gin.H {
	return gin.H{
		"jobs":              result.Jobs,
		"total_jobs":        result.TotalJobs,
		"search_performed":  result.SearchPerformed,
		"search_params":     result.SearchParams,
		"user_applied_jobs": result.UserAppliedJobs,
	}
}

func (h *JobHandler) Listings(c *gin.Context) {
	var query dto.SearchQuery
	_ = c.ShouldBindQuery(&query)

	result, err := h.service.Listings(c.Request.Context(), query, middleware.CurrentUser(c))
	if err != nil {
		response.PageError(c, err)
		return
	}

	response.Page(c, http.StatusOK, "jobs/job_listings.html", listContext(result))
}

func (h *JobHandler) Detail(c *gin.Context) {
	id, ok := ParseJobID(c)
	if !ok {
		response.NotFound(c)
		return
	}

	user := middleware.CurrentUser(c)
	viewer := c.ClientIP()
	if user != nil {
		viewer = user.ID.String()
	}

	result, err := h.service.Detail(c.Request.Context(), id, user, viewer)
	if err != nil {
		response.PageError(c, err)
		return
	}

	response.Page(c, http.StatusOK, "jobs/job_detail.html", gin.H{
		"job":          result.Job,
		"similar_jobs": result.SimilarJobs,
		"has_applied":  result.HasApplied,
	})
}

func (h *JobHandler) ApplicantDashboard(c *gin.Context) {
	response.Page(c, http.StatusOK, "jobs/applicant_dashboard.html", nil)
}

func (h *JobHandler) PostJobPage(c *gin.Context) {
	if !h.canPost(c) {
		return
	}
	response.Page(c, http.StatusOK, "jobs/post_job.html", gin.H{"form": dto.CreateJobInput{}})
}

func (h *JobHandler) PostJob(c *gin.Context) {
	if !h.canPost(c) {
		return
	}

	var input dto.CreateJobInput
	if err := c.ShouldBind(&input); err != nil {
		h.renderPostErrors(c, input, validator.ToFieldErrors(err))
		return
	}

	job, err := h.service.CreateJob(c.Request.Context(), middleware.CurrentUser(c), input)
	if err != nil {
		if errors.Is(err, apperror.ErrInvalidInput) {
			fields := validator.FieldErrors{}
			fields.Add("__all__", err.Error())
			h.renderPostErrors(c, input, fields)
			return
		}
		response.PageError(c, err)
		return
	}

	response.Success(c, fmt.Sprintf("Job \"%s\" has been posted.", job.Title))
	response.Redirect(c, fmt.Sprintf("/jobs/%d/", job.ID))
}

func (h *JobHandler) canPost(c *gin.Context) bool {
	user := middleware.CurrentUser(c)
	if user == nil || !user.IsEmployee() {
		response.Error(c, "Only employers can post jobs.")
		response.Redirect(c, "/")
		return false
	}
	return true
}

func (h *JobHandler) renderPostErrors(c *gin.Context, input dto.CreateJobInput, fields validator.FieldErrors) {
	response.Error(c, "Please correct the errors below.")
	response.Page(c, http.StatusBadRequest, "jobs/post_job.html", gin.H{
		"form":   input,
		"errors": fields,
	})
}

func (h *JobHandler) SearchToken(c *gin.Context) {
	token, err := h.service.SearchToken()
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "index": "jobs"})
}

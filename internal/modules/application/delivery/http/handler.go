package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"path/filepath"

	"anoa.com/jobportal/internal/middleware"
	"anoa.com/jobportal/internal/modules/application/dto"
	"anoa.com/jobportal/internal/modules/application/service"
	jobHttp "anoa.com/jobportal/internal/modules/job/delivery/http"
	"anoa.com/jobportal/pkg/apperror"
	"anoa.com/jobportal/pkg/response"
	"github.com/gin-gonic/gin"
)

type ApplicationHandler struct {
	service   service.ApplicationService
	mediaRoot string
}

// NewApplicationHandler builds the handler. mediaRoot is where locally stored
// resumes live; leave it empty when resumes are kept remotely.
func NewApplicationHandler(service service.ApplicationService, mediaRoot string) *ApplicationHandler {
	return &ApplicationHandler{service: service, mediaRoot: mediaRoot}
}

func (h *ApplicationHandler) ApplyPage(c *gin.Context) {
	id, ok := jobHttp.ParseJobID(c)
	if !ok {
		response.NotFound(c)
		return
	}

	job, err := h.service.CheckEligibility(c.Request.Context(), id, middleware.CurrentUser(c))
	if err != nil {
		h.rejectApply(c, id, err)
		return
	}

	response.Page(c, http.StatusOK, "applicant/apply.html", gin.H{"job": job})
}

func (h *ApplicationHandler) Apply(c *gin.Context) {
	id, ok := jobHttp.ParseJobID(c)
	if !ok {
		response.NotFound(c)
		return
	}

	input := dto.ApplyInput{CoverLetter: c.PostForm("cover_letter")}
	if file, err := c.FormFile("resume"); err == nil {
		input.Resume = file
	} else if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		response.Error(c, "The uploaded resume could not be read.")
		response.Page(c, http.StatusBadRequest, "applicant/apply.html", nil)
		return
	}

	_, job, err := h.service.Apply(c.Request.Context(), id, middleware.CurrentUser(c), input)
	if err != nil {
		var appErr *apperror.AppError
		if job != nil && errors.As(err, &appErr) && errors.Is(err, apperror.ErrInvalidInput) {
			response.Error(c, appErr.Message)
			response.Page(c, http.StatusBadRequest, "applicant/apply.html", gin.H{
				"job":          job,
				"cover_letter": input.CoverLetter,
			})
			return
		}
		h.rejectApply(c, id, err)
		return
	}

	response.Success(c, fmt.Sprintf("Your application for \"%s\" has been submitted successfully!", job.Title))
	response.Redirect(c, "/my-applications/")
}

// rejectApply maps eligibility failures to the flash + redirect the applicant sees.
func (h *ApplicationHandler) rejectApply(c *gin.Context, jobID uint, err error) {
	detail := fmt.Sprintf("/jobs/%d/", jobID)

	switch {
	case errors.Is(err, service.ErrNotApplicant):
		response.Error(c, service.ErrNotApplicant.Message)
		response.Redirect(c, detail)
	case errors.Is(err, service.ErrAlreadyApplied):
		response.Warning(c, service.ErrAlreadyApplied.Message)
		response.Redirect(c, detail)
	case errors.Is(err, service.ErrApplyTooSoon):
		response.Warning(c, err.Error())
		response.Redirect(c, detail)
	case errors.Is(err, apperror.ErrUnauthorized):
		response.Warning(c, "Please log in to continue.")
		response.Redirect(c, "/login/?next="+url.QueryEscape(c.Request.URL.RequestURI()))
	default:
		response.PageError(c, err)
	}
}

func (h *ApplicationHandler) MyApplications(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.PageError(c, err)
		return
	}

	result, err := h.service.MyApplications(c.Request.Context(), userID)
	if err != nil {
		response.PageError(c, err)
		return
	}

	response.Page(c, http.StatusOK, "applicant/my_applications.html", gin.H{
		"applications":       result.Applications,
		"total_applications": result.TotalApplications,
	})
}

// Resume serves a locally stored resume to staff, its applicant or the job poster.
func (h *ApplicationHandler) Resume(c *gin.Context) {
	if h.mediaRoot == "" {
		response.NotFound(c)
		return
	}

	name := path.Base(path.Clean("/" + c.Param("filepath")))
	if name == "/" || name == "." {
		response.NotFound(c)
		return
	}
	ref := "resumes/" + name

	if err := h.service.AuthorizeResume(c.Request.Context(), middleware.CurrentUser(c), ref); err != nil {
		response.PageError(c, err)
		return
	}

	c.FileAttachment(filepath.Join(h.mediaRoot, filepath.FromSlash(ref)), name)
}

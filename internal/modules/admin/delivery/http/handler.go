package http

import (
	"fmt"
	"net/http"

	"anoa.com/jobportal/internal/middleware"
	"anoa.com/jobportal/internal/modules/admin/dto"
	adminService "anoa.com/jobportal/internal/modules/admin/service"
	jobHttp "anoa.com/jobportal/internal/modules/job/delivery/http"
	"anoa.com/jobportal/pkg/apperror"
	"anoa.com/jobportal/pkg/response"
	"anoa.com/jobportal/pkg/validator"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	adminService adminService.AdminService
}

func NewAdminHandler(adminService adminService.AdminService) *AdminHandler {
	validator.RegisterCustomValidations()
	return &AdminHandler{
		adminService: adminService,
	}
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":  validator.FormatValidationError(err),
		"errors": validator.ToFieldErrors(err),
	})
}

func idParam(c *gin.Context) (uint, bool) {
	id, ok := jobHttp.ParseJobID(c)
	if !ok {
		response.ResponseError(c, fmt.Errorf("id %q: %w", c.Param("id"), apperror.ErrNotFound))
	}
	return id, ok
}

// Users

func (h *AdminHandler) GetAllUsers(c *gin.Context) {
	var query dto.UserQuery
	_ = c.ShouldBindQuery(&query)

	res, err := h.adminService.ListUsers(c.Request.Context(), query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": res})
}

func (h *AdminHandler) CreateUser(c *gin.Context) {
	var input dto.CreateUserInput
	if err := c.ShouldBind(&input); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.adminService.CreateUser(c.Request.Context(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

func (h *AdminHandler) UpdateUser(c *gin.Context) {
	var input dto.UpdateAdminUserInput
	if err := c.ShouldBind(&input); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.adminService.UpdateUser(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	if err := h.adminService.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user deleted successfully"})
}

// Profiles

func (h *AdminHandler) GetProfiles(c *gin.Context) {
	var query dto.UserQuery
	_ = c.ShouldBindQuery(&query)

	rows, err := h.adminService.ListProfiles(c.Request.Context(), query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rows})
}

func (h *AdminHandler) UpdateProfile(c *gin.Context) {
	var input dto.UpdateProfileInput
	if err := c.ShouldBind(&input); err != nil {
		bindError(c, err)
		return
	}

	row, err := h.adminService.UpdateProfileRole(c.Request.Context(), c.Param("user_id"), input.Role)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, row)
}

func (h *AdminHandler) ProfileActions(c *gin.Context) {
	var input dto.ProfileActionInput
	if err := c.ShouldBind(&input); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.adminService.ApplyProfileAction(c.Request.Context(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// Jobs

func (h *AdminHandler) GetJobs(c *gin.Context) {
	var query dto.JobQuery
	_ = c.ShouldBindQuery(&query)

	rows, err := h.adminService.ListJobs(c.Request.Context(), query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rows})
}

func (h *AdminHandler) CreateJob(c *gin.Context) {
	var input dto.AdminJobInput
	if err := c.ShouldBind(&input); err != nil {
		bindError(c, err)
		return
	}

	job, err := h.adminService.CreateJob(c.Request.Context(), middleware.CurrentUser(c), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, job)
}

func (h *AdminHandler) GetJob(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	res, err := h.adminService.GetJob(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AdminHandler) UpdateJob(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var input dto.AdminJobInput
	if err := c.ShouldBind(&input); err != nil {
		bindError(c, err)
		return
	}

	job, err := h.adminService.UpdateJob(c.Request.Context(), id, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

func (h *AdminHandler) DeleteJob(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.adminService.DeleteJob(c.Request.Context(), id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "job deleted successfully"})
}

func (h *AdminHandler) GetJobApplications(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	res, err := h.adminService.JobApplications(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// Applications

func (h *AdminHandler) GetApplications(c *gin.Context) {
	var query dto.ApplicationQuery
	_ = c.ShouldBindQuery(&query)

	rows, err := h.adminService.ListApplications(c.Request.Context(), query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rows})
}

func (h *AdminHandler) GetApplication(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	res, err := h.adminService.GetApplication(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AdminHandler) DeleteApplication(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.adminService.DeleteApplication(c.Request.Context(), id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "application deleted successfully"})
}

package http

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"anoa.com/jobportal/internal/middleware"
	"anoa.com/jobportal/internal/modules/user/dto"
	"anoa.com/jobportal/internal/modules/user/service"
	"anoa.com/jobportal/pkg/apperror"
	"anoa.com/jobportal/pkg/response"
	"anoa.com/jobportal/pkg/validator"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	service  service.AuthService
	sessions *middleware.SessionManager
}

func NewAuthHandler(service service.AuthService, sessions *middleware.SessionManager) *AuthHandler {
	validator.RegisterCustomValidations()
	return &AuthHandler{
		service:  service,
		sessions: sessions,
	}
}

func (h *AuthHandler) LoginPage(c *gin.Context) {
	response.Page(c, http.StatusOK, "auth/login.html", gin.H{
		"form": gin.H{"username": "", "remember_me": false},
		"next": c.Query("next"),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input dto.LoginInput
	if err := c.ShouldBind(&input); err != nil {
		response.Error(c, "Please correct the errors below.")
		response.Page(c, http.StatusBadRequest, "auth/login.html", gin.H{
			"form":   gin.H{"username": input.Username, "remember_me": input.RememberMe},
			"errors": validator.ToFieldErrors(err),
			"next":   input.Next,
		})
		return
	}

	user, err := h.service.Authenticate(c.Request.Context(), input)
	if err != nil {
		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			response.PageError(c, err)
			return
		}
		response.Error(c, appErr.Message)
		response.Page(c, appErr.Code, "auth/login.html", gin.H{
			"form": gin.H{"username": input.Username, "remember_me": input.RememberMe},
			"next": input.Next,
		})
		return
	}

	if _, err := h.sessions.Issue(c, user.ID, input.RememberMe); err != nil {
		response.PageError(c, err)
		return
	}

	response.Success(c, fmt.Sprintf("Welcome back, %s!", user.DisplayName()))
	response.Redirect(c, middleware.SafeRedirect(input.Next, "/"))
}

func (h *AuthHandler) RegisterPage(c *gin.Context) {
	response.Page(c, http.StatusOK, "auth/register.html", gin.H{
		"form":         gin.H{},
		"role_choices": dto.RoleChoices,
	})
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input dto.RegisterInput
	if err := c.ShouldBind(&input); err != nil {
		h.renderRegisterErrors(c, input, validator.ToFieldErrors(err))
		return
	}

	user, err := h.service.Register(c.Request.Context(), input)
	if err != nil {
		var fields validator.FieldErrors
		if errors.As(err, &fields) {
			h.renderRegisterErrors(c, input, fields)
			return
		}
		response.PageError(c, err)
		return
	}

	if _, err := h.sessions.Issue(c, user.ID, false); err != nil {
		log.Printf("failed to start session for new user %s: %v", user.Username, err)
	}

	response.Success(c, fmt.Sprintf("Account created successfully! Welcome, %s!", user.FullName()))
	response.Redirect(c, "/")
}

func (h *AuthHandler) renderRegisterErrors(c *gin.Context, input dto.RegisterInput, fields validator.FieldErrors) {
	response.Error(c, "Please correct the errors below.")
	response.Page(c, http.StatusBadRequest, "auth/register.html", gin.H{
		"form":         input.FormValues(),
		"errors":       fields,
		"role_choices": dto.RoleChoices,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.Revoke(c); err != nil {
		log.Printf("failed to revoke session: %v", err)
	}

	response.Success(c, "You have been successfully logged out.")
	response.Redirect(c, "/")
}

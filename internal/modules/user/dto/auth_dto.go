package dto

import "strings"

type LoginInput struct {
	Username   string `form:"username" json:"username" binding:"required,max=150"`
	Password   string `form:"password" json:"password" binding:"required"`
	RememberMe bool   `form:"remember_me" json:"remember_me"`
	Next       string `form:"next" json:"next"`
}

// Checkbox is a form checkbox. Browsers send "on" when it is ticked and nothing
// when it is not; "false", "0", "off" and "no" also read as unticked.
type Checkbox bool

// UnmarshalParam implements binding.BindUnmarshaler.
func (cb *Checkbox) UnmarshalParam(param string) error {
	switch strings.ToLower(strings.TrimSpace(param)) {
	case "", "false", "0", "off", "no":
		*cb = false
	default:
		*cb = true
	}
	return nil
}

// RegisterInput mirrors the registration form.
type RegisterInput struct {
	Username   string   `form:"username" json:"username" binding:"required,max=150,username"`
	FirstName  string   `form:"first_name" json:"first_name" binding:"required,max=30"`
	LastName   string   `form:"last_name" json:"last_name" binding:"required,max=30"`
	Email      string   `form:"email" json:"email" binding:"required,email,max=254"`
	Password1  string   `form:"password1" json:"password1" binding:"required,min=8"`
	Password2  string   `form:"password2" json:"password2" binding:"required,eqfield=Password1"`
	Role       string   `form:"role" json:"role" binding:"required,oneof=applicant employee"`
	AgreeTerms Checkbox `form:"agree_terms" json:"agree_terms" binding:"required"`
}

// FormValues echoes the submitted fields back to the page, without passwords.
func (in RegisterInput) FormValues() map[string]string {
	return map[string]string{
		"username":   in.Username,
		"first_name": in.FirstName,
		"last_name":  in.LastName,
		"email":      in.Email,
		"role":       in.Role,
	}
}

var RoleChoices = []map[string]string{
	{"value": "applicant", "label": "Applicant"},
	{"value": "employee", "label": "Employee"},
}

package validation

import "taskflow/internal/models"

// Each form carries the messages its fields show, keyed by validator tag, in
// the msg struct tag.

// LoginForm is the login form
type LoginForm struct {
	Email    string `json:"email" validate:"required,email" msg:"required=Email is required;email=Invalid email"`
	Password string `json:"password" validate:"required" msg:"required=Password is required"`
}

// RegisterForm is the sign-up form
type RegisterForm struct {
	Name            string `json:"name" validate:"required" msg:"required=Full name is required"`
	Email           string `json:"email" validate:"required,email" msg:"required=Email is required;email=Invalid email"`
	Password        string `json:"password" validate:"required,min=6" msg:"required=Password is required;min=Minimum 6 characters"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password" msg:"required=Confirm password is required;eqfield=Passwords must match"`
}

// ForgotPasswordForm requests an OTP
type ForgotPasswordForm struct {
	Email string `json:"email" validate:"required,email" msg:"required=Email required;email=Invalid email"`
}

// VerifyOTPForm exchanges an OTP for a reset token
type VerifyOTPForm struct {
	Email string `json:"email" validate:"required,email" msg:"required=Email required;email=Invalid email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric" msg:"required=OTP required;len=6 digit OTP;numeric=6 digit OTP"`
}

// ResetPasswordForm sets the new password
type ResetPasswordForm struct {
	Password        string `json:"password" validate:"required,min=6" msg:"required=Password required;min=Minimum 6 characters"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password" msg:"required=Confirm required;eqfield=Passwords must match"`
}

// ProfileForm edits the display name
type ProfileForm struct {
	Name string `json:"name" validate:"required" msg:"required=Name is required"`
}

// ProjectForm creates or edits a project
type ProjectForm struct {
	Name        string `json:"name" validate:"required" msg:"required=Project name required"`
	Description string `json:"description" validate:"max=600" msg:"max=Max 600 chars"`
}

// Input converts the form to the request body
func (f ProjectForm) Input() models.ProjectInput {
	return models.ProjectInput{Name: f.Name, Description: f.Description}
}

// TaskForm creates or edits a task
type TaskForm struct {
	Project     string            `json:"project"`
	Title       string            `json:"title" validate:"required" msg:"required=Task name is required"`
	Description string            `json:"description"`
	Status      models.TaskStatus `json:"status" validate:"omitempty,oneof=todo in-progress in-review done" msg:"oneof=Invalid status"`
	Assignees   []string          `json:"assignees"`
}

// Input converts the form to the request body
func (f TaskForm) Input() models.TaskInput {
	return models.TaskInput{
		Project:     f.Project,
		Title:       f.Title,
		Description: f.Description,
		Status:      f.Status,
		Assignees:   f.Assignees,
	}
}

// InviteForm invites a user found through the invitee search
type InviteForm struct {
	ProjectID string `json:"projectId" validate:"required" msg:"required=Project is required"`
	UserID    string `json:"userId" validate:"required" msg:"required=Select a user to invite"`
}

// CommentForm adds or edits a comment
type CommentForm struct {
	Text string `json:"text" validate:"required" msg:"required=Comment cannot be empty"`
}

// InviteEmailForm looks up an invitee by email before inviting them
type InviteEmailForm struct {
	ProjectID string `json:"projectId" validate:"required" msg:"required=Project is required"`
	Email     string `json:"email" validate:"required,email" msg:"required=Email is required;email=Invalid email"`
}

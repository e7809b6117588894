package api

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/techdocs/internal/apperr"
	"github.com/starford/techdocs/internal/auth"
)

var (
	errInvalidJSON  = fmt.Errorf("%w: invalid JSON body", apperr.ErrInvalidPath)
	errBodyTooLarge = errors.New("request body too large")
)

type validatable interface {
	Validate() error
}

// invalid tags a validation failure so it maps to 400.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s", apperr.ErrInvalidPath, err.Error())
}

// LoginRequest is the request body for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" example:"admin"`
	Password string `json:"password" example:"admin123"`
}

// Validate checks that both credentials are present.
func (r *LoginRequest) Validate() error {
	return invalid(validation.ValidateStruct(r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	))
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token string    `json:"token"`
	User  auth.User `json:"user"`
}

// SaveDocumentRequest is the request body for POST /api/docs.
type SaveDocumentRequest struct {
	Path    string `json:"path" example:"guides/setup.md"`
	Content string `json:"content" example:"# Setup\nSteps"`
	Title   string `json:"title,omitempty" example:"Setup"`
}

// Validate checks that path and content are present.
func (r *SaveDocumentRequest) Validate() error {
	return invalid(validation.ValidateStruct(r,
		validation.Field(&r.Path, validation.Required),
		validation.Field(&r.Content, validation.Required),
	))
}

// MoveRequest is the request body for POST /api/docs/move.
type MoveRequest struct {
	SourcePath string `json:"sourcePath" example:"drafts/a.md"`
	TargetPath string `json:"targetPath" example:"guides/a.md"`
}

// Validate checks that both paths are present.
func (r *MoveRequest) Validate() error {
	return invalid(validation.ValidateStruct(r,
		validation.Field(&r.SourcePath, validation.Required),
		validation.Field(&r.TargetPath, validation.Required),
	))
}

// CreateDirectoryRequest is the request body for POST /api/directories.
type CreateDirectoryRequest struct {
	Path string `json:"path" example:"guides/ops"`
}

// Validate checks that the path is present.
func (r *CreateDirectoryRequest) Validate() error {
	return invalid(validation.ValidateStruct(r,
		validation.Field(&r.Path, validation.Required),
	))
}

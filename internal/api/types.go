package api

import (
	"io"

	"github.com/vidfriends/feedclient/internal/models"
)

// Envelope is the common response shape of every backend endpoint. Only the
// fields relevant to the called endpoint are populated.
type Envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Token   string              `json:"token,omitempty"`
	User    *models.UserProfile `json:"user,omitempty"`
	Videos  []models.Video      `json:"videos,omitempty"`
	Video   *models.Video       `json:"video,omitempty"`
}

// Result converts the envelope into the user-facing result shape.
func (e Envelope) Result(fallback string) models.Result {
	if e.Success {
		return models.OK()
	}
	if e.Message == "" {
		return models.Fail(fallback)
	}
	return models.Fail(e.Message)
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest is the body of POST /api/auth/signup.
type SignupRequest struct {
	Email    string      `json:"email"`
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

// UploadRequest describes the multipart body of POST /api/videos/upload.
type UploadRequest struct {
	File        io.Reader
	FileName    string
	ContentType string
	Title       string
	Description string
	Genre       string

	// OnWrite, when set, receives the running count of file bytes handed to
	// the transport.
	OnWrite func(written int64)
}

package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Role distinguishes accounts that only watch from accounts that may upload.
type Role string

const (
	RoleConsumer Role = "consumer"
	RoleCreator  Role = "creator"
)

// Valid reports whether the role is one the backend issues.
func (r Role) Valid() bool {
	return r == RoleConsumer || r == RoleCreator
}

// ParseRole normalises user input into a Role. Unknown values yield an empty Role.
func ParseRole(raw string) Role {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !role.Valid() {
		return ""
	}
	return role
}

// UserProfile is the identity returned by login and signup.
type UserProfile struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// CanUpload reports whether the profile belongs to a creator account.
func (u UserProfile) CanUpload() bool {
	return u.Role == RoleCreator
}

// Session pairs the bearer token with the profile it was issued for.
type Session struct {
	Token string
	User  UserProfile
}

// Valid reports whether both halves of the session are present.
func (s Session) Valid() bool {
	return strings.TrimSpace(s.Token) != "" && strings.TrimSpace(s.User.Username) != ""
}

// Video is a feed entry as served by the backend.
type Video struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	VideoURL        string    `json:"videoUrl"`
	CreatorUsername string    `json:"creatorUsername,omitempty"`
	Username        string    `json:"username,omitempty"`
	Likes           int       `json:"likes"`
	CreatedAt       time.Time `json:"createdAt"`
}

// UnmarshalJSON decodes a video. A missing or unparsable createdAt leaves
// CreatedAt zero instead of failing the record, and with it the whole list.
func (v *Video) UnmarshalJSON(data []byte) error {
	type plain Video
	aux := struct {
		*plain
		CreatedAt json.RawMessage `json:"createdAt"`
	}{plain: (*plain)(v)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	v.CreatedAt = parseTimestamp(aux.CreatedAt)
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// parseTimestamp accepts an RFC 3339 style string or epoch milliseconds.
func parseTimestamp(raw json.RawMessage) time.Time {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}
	}
	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return time.Time{}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t
		}
	}
	if ms, err := strconv.ParseInt(text, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	return time.Time{}
}

// Creator returns the uploader's username. Older records only carry the
// username field.
func (v Video) Creator() string {
	if v.CreatorUsername != "" {
		return v.CreatorUsername
	}
	return v.Username
}

// Result is the single shape every user-facing operation resolves to.
type Result struct {
	Success bool
	Message string
}

// OK returns a successful result.
func OK() Result {
	return Result{Success: true}
}

// Fail returns a failed result carrying a displayable message.
func Fail(message string) Result {
	return Result{Message: message}
}

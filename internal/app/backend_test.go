package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vidfriends/feedclient/internal/models"
)

// fakeBackend serves the REST surface the client talks to.
type fakeBackend struct {
	mu          sync.Mutex
	token       string
	user        models.UserProfile
	public      []models.Video
	all         []models.Video
	mineCalls   int
	feedCalls   int
	uploadCalls int
	uploadTitle string
	failUpload  string
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{
		token: "tok-123",
		user:  models.UserProfile{Username: "sunny", Role: models.RoleCreator},
		public: []models.Video{
			{ID: "1", Title: "One", VideoURL: "http://media/1.mp4", CreatorUsername: "rain"},
			{ID: "2", Title: "Two", VideoURL: "http://media/2.mp4", CreatorUsername: "sunny"},
			{ID: "3", Title: "Three", VideoURL: "http://media/3.mp4", Username: "sunny"},
		},
	}
	fb.all = fb.public

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/videos", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		fb.feedCalls++
		list := fb.public
		fb.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "videos": list})
	})
	mux.HandleFunc("GET /api/users/me/videos", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		fb.mineCalls++
		if r.Header.Get("Authorization") != "Bearer "+fb.token {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "videos": fb.all})
	})
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid credentials"})
			return
		}
		fb.mu.Lock()
		defer fb.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "token": fb.token, "user": fb.user})
	})
	mux.HandleFunc("POST /api/videos/upload", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		fb.uploadCalls++
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": err.Error()})
			return
		}
		if fb.failUpload != "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": fb.failUpload})
			return
		}
		fb.uploadTitle = r.FormValue("title")
		v := models.Video{
			ID:              "new",
			Title:           fb.uploadTitle,
			VideoURL:        "http://media/new.mp4",
			CreatorUsername: fb.user.Username,
			CreatedAt:       time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		}
		fb.public = append(append([]models.Video{}, fb.public...), v)
		fb.all = fb.public
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "video": v})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return fb, srv
}

func (fb *fakeBackend) counts() (feed, mine, uploads int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.feedCalls, fb.mineCalls, fb.uploadCalls
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func titles(list []models.Video) string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		out = append(out, v.Title)
	}
	return strings.Join(out, ",")
}

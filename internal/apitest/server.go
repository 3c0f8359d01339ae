// Package apitest provides an in-process fake of the dealership backend for
// client-side tests. It speaks the same wire contract as the real service:
// bearer auth, JSON error bodies, multipart upload, attachment download.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Sai2266/dealership-platform/internal/models"
)

// Doc is one stored document with its file content.
type Doc struct {
	models.Document
	Detail  models.DocumentDetail
	Owner   string
	Content []byte
}

// Server is the fake backend. Fields may be mutated between requests to
// stage scenarios (for example ForceStatus to simulate outages).
type Server struct {
	mu sync.Mutex

	// Accounts maps email → password for login.
	Accounts map[string]string
	// Users maps email → profile returned on login.
	Users map[string]models.User
	// Token is the bearer token issued by login and required on every
	// protected route.
	Token string
	// Docs holds stored documents by id.
	Docs   map[int]*Doc
	nextID int

	// ForceStatus, when non-zero, makes every protected route answer with
	// this status and ForceError as the error body.
	ForceStatus int
	ForceError  string
}

// New creates a fake backend with one registered dealer and starts an
// httptest server that is torn down with the test.
func New(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := &Server{
		Accounts: map[string]string{"d@x.com": "p"},
		Users: map[string]models.User{
			"d@x.com": {ID: 1, Email: "d@x.com", Role: models.RoleDealer, DealershipName: "Test Motors"},
		},
		Token:  "t1",
		Docs:   map[int]*Doc{},
		nextID: 1,
	}
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return s, ts
}

// AddDoc stores a document owned by the default dealer and returns its id.
func (s *Server) AddDoc(name string, detail models.DocumentDetail, content []byte) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	detail.ID = id
	detail.Filename = name
	d := &Doc{
		Document: models.Document{
			ID:               id,
			Filename:         fmt.Sprintf("20250101_000000_%s", name),
			OriginalFilename: name,
			FileType:         ext,
			Status:           models.StatusProcessed,
			UploadedAt:       models.Timestamp{Time: time.Now().UTC()},
		},
		Detail:  detail,
		Owner:   "d@x.com",
		Content: content,
	}
	if detail.Status != "" {
		d.Document.Status = detail.Status
	}
	s.Docs[id] = d
	return id
}

// Router builds the chi router implementing the wire contract.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Post("/api/auth/login", s.login)
	r.Post("/api/auth/register", s.register)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/api/documents", s.listDocuments)
		r.Post("/api/documents/upload", s.upload)
		r.Get("/api/documents/{id}/notes", s.getNotes)
		r.Post("/api/documents/{id}/notes", s.saveNotes)
		r.Get("/api/documents/{id}/download", s.download)
		r.Delete("/api/documents/{id}", s.deleteDocument)
	})

	return r
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		forced, forcedMsg := s.ForceStatus, s.ForceError
		token := s.Token
		s.mu.Unlock()
		if forced != 0 {
			writeJSON(w, forced, errorBody(forcedMsg))
			return
		}
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
			writeJSON(w, http.StatusUnauthorized, errorBody("Unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("Email and password required"))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Accounts[req.Email] != req.Password {
		writeJSON(w, http.StatusUnauthorized, errorBody("Invalid email or password"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   s.Token,
		"user":    s.Users[req.Email],
	})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email          string `json:"email"`
		Password       string `json:"password"`
		DealershipName string `json:"dealership_name"`
		Role           string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("Email and password required"))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.Accounts[req.Email]; exists {
		writeJSON(w, http.StatusBadRequest, errorBody("Email already exists"))
		return
	}
	s.Accounts[req.Email] = req.Password
	s.Users[req.Email] = models.User{ID: len(s.Users) + 1, Email: req.Email, Role: req.Role, DealershipName: req.DealershipName}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Registration successful",
		"user_id": len(s.Users),
	})
}

func (s *Server) listDocuments(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := []models.Document{}
	for _, d := range s.Docs {
		docs = append(docs, d.Document)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "documents": docs})
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(models.MaxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid multipart"))
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("No files"))
		return
	}
	var uploaded []map[string]any
	var uploadErrs []string
	for _, fh := range files {
		if !models.AllowedFile(fh.Filename) {
			uploadErrs = append(uploadErrs, "Invalid type")
			continue
		}
		f, err := fh.Open()
		if err != nil {
			uploadErrs = append(uploadErrs, err.Error())
			continue
		}
		content := make([]byte, fh.Size)
		_, _ = f.Read(content)
		f.Close()
		id := s.AddDoc(fh.Filename, models.DocumentDetail{Status: models.StatusPending}, content)
		uploaded = append(uploaded, map[string]any{"filename": fh.Filename, "size": fh.Size, "id": id})
	}
	status := http.StatusOK
	if len(uploaded) == 0 {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]any{
		"success":  len(uploaded) > 0,
		"message":  fmt.Sprintf("Uploaded %d file(s)", len(uploaded)),
		"uploaded": uploaded,
		"errors":   uploadErrs,
	})
}

func (s *Server) doc(w http.ResponseWriter, r *http.Request) *Doc {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.Docs[id]
	if !ok {
		writeJSON(w, http.StatusForbidden, errorBody("Unauthorized"))
		return nil
	}
	return d
}

func (s *Server) getNotes(w http.ResponseWriter, r *http.Request) {
	d := s.doc(w, r)
	if d == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	detail := d.Detail
	detail.Filename = d.Document.OriginalFilename
	detail.FileType = d.Document.FileType
	detail.Status = d.Document.Status
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) saveNotes(w http.ResponseWriter, r *http.Request) {
	d := s.doc(w, r)
	if d == nil {
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	s.mu.Lock()
	d.Detail.Notes = req.Notes
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Notes saved"})
}

func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	d := s.doc(w, r)
	if d == nil {
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.Document.OriginalFilename))
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(d.Content)
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	d := s.doc(w, r)
	if d == nil {
		return
	}
	s.mu.Lock()
	delete(s.Docs, d.Document.ID)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Deleted"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/Sai2266/dealership-platform/internal/apperr"
	"github.com/Sai2266/dealership-platform/internal/models"
)

// UploadFile is one file in a multipart upload request.
type UploadFile struct {
	Name string
	Data io.Reader
}

// UploadedFile is one accepted file in the upload confirmation.
type UploadedFile struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	ID       int    `json:"id"`
}

// UploadResult is the upload confirmation payload.
type UploadResult struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message"`
	Uploaded []UploadedFile `json:"uploaded"`
	Errors   []string       `json:"errors"`
}

type documentList struct {
	Success   bool              `json:"success"`
	Documents []models.Document `json:"documents"`
}

type confirmation struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type notesUpdate struct {
	Notes string `json:"notes"`
}

// ListDocuments fetches the full current document set for the
// authenticated dealer.
func (c *Client) ListDocuments(ctx context.Context) ([]models.Document, error) {
	var resp documentList
	if err := c.doJSON(ctx, http.MethodGet, "/api/documents", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Documents == nil {
		resp.Documents = []models.Document{}
	}
	return resp.Documents, nil
}

// DocumentDetail fetches the OCR fields and notes for one document.
func (c *Client) DocumentDetail(ctx context.Context, id int) (models.DocumentDetail, error) {
	var detail models.DocumentDetail
	path := fmt.Sprintf("/api/documents/%d/notes", id)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &detail); err != nil {
		return models.DocumentDetail{}, err
	}
	return detail, nil
}

// SaveNotes writes the notes text for one document. Write-only: the caller
// must re-fetch detail rather than patch a cached copy.
func (c *Client) SaveNotes(ctx context.Context, id int, notes string) error {
	path := fmt.Sprintf("/api/documents/%d/notes", id)
	return c.doJSON(ctx, http.MethodPost, path, notesUpdate{Notes: notes}, &confirmation{})
}

// DeleteDocument removes one document.
func (c *Client) DeleteDocument(ctx context.Context, id int) error {
	path := fmt.Sprintf("/api/documents/%d", id)
	return c.doJSON(ctx, http.MethodDelete, path, nil, &confirmation{})
}

// Download fetches the original file as an opaque byte blob together with
// the suggested filename from Content-Disposition. Persisting the bytes is
// the consumer's responsibility.
func (c *Client) Download(ctx context.Context, id int) ([]byte, string, error) {
	path := fmt.Sprintf("/api/documents/%d/download", id)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", apperr.ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: read response: %v", apperr.ErrNetwork, err)
	}
	if err := classify(resp.StatusCode, data); err != nil {
		return nil, "", err
	}
	return data, suggestedFilename(resp.Header.Get("Content-Disposition")), nil
}

// Upload issues one multipart request carrying all files. The JSON
// content-type is omitted; the multipart writer sets its own boundary type.
func (c *Client) Upload(ctx context.Context, files []UploadFile) (UploadResult, error) {
	if len(files) == 0 {
		return UploadResult{}, apperr.ErrNoFilesSelected
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mw.CreateFormFile("files", f.Name)
		if err != nil {
			return UploadResult{}, fmt.Errorf("apiclient: multipart part: %w", err)
		}
		if _, err := io.Copy(part, f.Data); err != nil {
			return UploadResult{}, fmt.Errorf("apiclient: read %s: %w", f.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("apiclient: finish multipart: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/documents/upload", &buf)
	if err != nil {
		return UploadResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var result UploadResult
	if err := c.send(req, &result); err != nil {
		return UploadResult{}, err
	}
	return result, nil
}

// suggestedFilename extracts the filename parameter from a
// Content-Disposition header, or returns "" when absent.
func suggestedFilename(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturier/facturier/internal/extract"
	"github.com/facturier/facturier/internal/uploadstore"
)

type stubExtractor struct {
	text string
	err  error
	got  []byte
}

func (s *stubExtractor) Text(ctx context.Context, data []byte) (string, error) {
	s.got = data
	return s.text, s.err
}

func multipartFile(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func newUploadHandler(t *testing.T, extractor TextExtractor, maxBytes int64, rawLimit int) (*UploadHandler, string) {
	t.Helper()
	dir := t.TempDir()
	return NewUploadHandler(newTestLogger(), uploadstore.New(dir), extractor, maxBytes, rawLimit), dir
}

func postUpload(t *testing.T, h *UploadHandler, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartFile(t, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Upload(rec, asUser(req, testUser()))
	return rec
}

func TestUpload(t *testing.T) {
	text := "FACTURE\n\nDe :\nAtelier Lumière\n75011 Paris\n\nÀ :\nStudio Nord\n\nTotal (€): 250,00\n"
	extractor := &stubExtractor{text: text}
	h, dir := newUploadHandler(t, extractor, 10<<20, 3000)

	content := []byte("%PDF-1.4 stub document body")
	rec := postUpload(t, h, "facture aout.pdf", content)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp UploadResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "facture aout.pdf", resp.Filename)
	assert.Empty(t, resp.Warning)
	assert.Equal(t, text, resp.RawText)

	_, err := uuid.Parse(resp.FileID)
	assert.NoError(t, err, "file_id is the upload UUID")

	// Sanitization drops the space from the stored name.
	assert.True(t, strings.HasSuffix(resp.SavedPath, "_factureaout.pdf"))
	saved, err := os.ReadFile(resp.SavedPath)
	require.NoError(t, err)
	assert.Equal(t, content, saved)
	assert.Contains(t, resp.SavedPath, dir)

	// The extractor saw the raw bytes and the draft mirrors its text.
	assert.Equal(t, content, extractor.got)
	want := extract.Extract(text)
	assert.Equal(t, want.Mode, resp.Extracted.Mode)
	assert.Equal(t, want.Language, resp.Extracted.Language)
	assert.Equal(t, want.DocTitle, resp.Extracted.DocTitle)
	assert.Equal(t, want.FromAddress, resp.Extracted.FromAddress)
	assert.Equal(t, want.ToAddress, resp.Extracted.ToAddress)
}

func TestUpload_RejectsNonPDFExtension(t *testing.T) {
	h, _ := newUploadHandler(t, &stubExtractor{}, 10<<20, 3000)

	rec := postUpload(t, h, "notes.txt", []byte("%PDF-1.4 content with pdf header"))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Only PDF files are accepted", body["error"])
}

func TestUpload_RejectsEmptyFile(t *testing.T) {
	h, _ := newUploadHandler(t, &stubExtractor{}, 10<<20, 3000)

	rec := postUpload(t, h, "empty.pdf", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Empty file", body["error"])
}

func TestUpload_RejectsOversize(t *testing.T) {
	h, _ := newUploadHandler(t, &stubExtractor{}, 64, 3000)

	content := append([]byte("%PDF-1.4 "), bytes.Repeat([]byte("a"), 200)...)
	rec := postUpload(t, h, "big.pdf", content)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "File too large. Maximum size is 10MB", body["error"])
}

func TestUpload_RejectsBadMagic(t *testing.T) {
	h, _ := newUploadHandler(t, &stubExtractor{}, 10<<20, 3000)

	rec := postUpload(t, h, "renamed.pdf", []byte("plain text pretending"))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Only PDF files are accepted", body["error"])
}

func TestUpload_ExtractionFailureYieldsEmptyDraft(t *testing.T) {
	extractor := &stubExtractor{err: errors.New("encrypted document")}
	h, _ := newUploadHandler(t, extractor, 10<<20, 3000)

	rec := postUpload(t, h, "locked.pdf", []byte("%PDF-1.7 encrypted"))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp UploadResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Warning)
	assert.Empty(t, resp.RawText)
	assert.Empty(t, resp.Extracted.Items)
	assert.Empty(t, resp.Extracted.DocTitle)

	// Draft arrays stay arrays even when there is nothing in them.
	assert.Contains(t, rec.Body.String(), `"from_address":[]`)
	assert.Contains(t, rec.Body.String(), `"items":[]`)
}

func TestUpload_MissingFileField(t *testing.T) {
	h, _ := newUploadHandler(t, &stubExtractor{}, 10<<20, 3000)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("note", "no file here"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Upload(rec, asUser(req, testUser()))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "file field is required", body["error"])
}

func TestUpload_TruncatesRawText(t *testing.T) {
	extractor := &stubExtractor{text: strings.Repeat("é", 50)}
	h, _ := newUploadHandler(t, extractor, 10<<20, 10)

	rec := postUpload(t, h, "long.pdf", []byte("%PDF-1.4 x"))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp UploadResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, strings.Repeat("é", 10), resp.RawText)
}

func TestUpload_RequiresUser(t *testing.T) {
	h, _ := newUploadHandler(t, &stubExtractor{}, 10<<20, 3000)

	body, contentType := multipartFile(t, "doc.pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

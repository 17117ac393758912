package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/facturier/facturier/internal/api/middleware"
	"github.com/facturier/facturier/internal/extract"
	"github.com/facturier/facturier/internal/observability"
	"github.com/facturier/facturier/internal/pdftext"
	"github.com/facturier/facturier/internal/uploadstore"
)

// multipart framing slack on top of the configured file size cap.
const multipartOverhead = 10 << 10

// TextExtractor pulls plain text out of PDF bytes.
type TextExtractor interface {
	Text(ctx context.Context, data []byte) (string, error)
}

// UploadHandler accepts PDF uploads and answers with a parsed draft.
type UploadHandler struct {
	logger       *observability.Logger
	store        *uploadstore.Store
	extractor    TextExtractor
	maxBytes     int64
	rawTextLimit int
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(logger *observability.Logger, store *uploadstore.Store, extractor TextExtractor, maxBytes int64, rawTextLimit int) *UploadHandler {
	return &UploadHandler{
		logger:       logger,
		store:        store,
		extractor:    extractor,
		maxBytes:     maxBytes,
		rawTextLimit: rawTextLimit,
	}
}

// ExtractedDTO is the draft parsed from an uploaded document. Raw text is
// returned separately so this stays form-sized.
type ExtractedDTO struct {
	Mode        extract.Mode       `json:"mode"`
	Language    extract.Language   `json:"language"`
	FromAddress []string           `json:"from_address"`
	ToAddress   []string           `json:"to_address"`
	Items       []extract.LineItem `json:"items"`
	DocTitle    string             `json:"doc_title"`
	Total       float64            `json:"total"`
}

// UploadResponseDTO is the upload endpoint response.
type UploadResponseDTO struct {
	Success   bool         `json:"success"`
	Filename  string       `json:"filename"`
	FileID    string       `json:"file_id"`
	SavedPath string       `json:"saved_path"`
	Extracted ExtractedDTO `json:"extracted"`
	RawText   string       `json:"raw_text"`
	Warning   string       `json:"warning,omitempty"`
}

// Upload handles POST /api/v1/upload. The file is persisted first, then
// parsed; a valid PDF that yields no text still succeeds with an empty
// draft and a warning.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 10MB")
			return
		}
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		writeError(w, http.StatusBadRequest, "Only PDF files are accepted")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 10MB")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "Empty file")
		return
	}
	if int64(len(data)) > h.maxBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 10MB")
		return
	}
	if err := pdftext.Sniff(data); err != nil {
		writeError(w, http.StatusBadRequest, "Only PDF files are accepted")
		return
	}

	fileID, savedName, err := h.store.Save(header.Filename, data)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("Upload save failed")
		writeError(w, http.StatusInternalServerError, "failed to save file")
		return
	}

	warning := ""
	text, err := h.extractor.Text(ctx, data)
	if err != nil {
		h.logger.Warn().Err(err).Str("file_id", fileID).Msg("Text extraction failed")
		warning = "text extraction failed; draft is empty"
		text = ""
	}

	draft := extract.Extract(text)

	h.logger.Info().
		Str("user_id", user.ID.String()).
		Str("file_id", fileID).
		Int("bytes", len(data)).
		Int("items", len(draft.Items)).
		Str("language", string(draft.Language)).
		Msg("Upload parsed")

	writeJSON(w, http.StatusOK, UploadResponseDTO{
		Success:   true,
		Filename:  header.Filename,
		FileID:    fileID,
		SavedPath: filepath.Join(h.store.Dir, savedName),
		Extracted: ExtractedDTO{
			Mode:        draft.Mode,
			Language:    draft.Language,
			FromAddress: draft.FromAddress,
			ToAddress:   draft.ToAddress,
			Items:       draft.Items,
			DocTitle:    draft.DocTitle,
			Total:       draft.Total,
		},
		RawText: truncateRunes(draft.RawText, h.rawTextLimit),
		Warning: warning,
	})
}

// truncateRunes caps s at limit runes so multi-byte text never splits.
func truncateRunes(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

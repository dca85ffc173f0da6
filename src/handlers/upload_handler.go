package handlers

import (
	"fmt"
	"net/http"

	"github.com/mediajenny/the-oracle/src/logger"
	"github.com/mediajenny/the-oracle/src/parsers"
	"github.com/mediajenny/the-oracle/src/security/validation"
	"github.com/mediajenny/the-oracle/src/services"
	"github.com/mediajenny/the-oracle/src/utils"
)

// Room for the multipart envelope and the fileType field on top of the file itself.
const multipartOverheadBytes = 1 << 20

type UploadHandler struct {
	uploadService      services.UploadService
	maxUploadSizeBytes int64
}

func NewUploadHandler(service services.UploadService, maxUploadSizeBytes int64) *UploadHandler {
	return &UploadHandler{
		uploadService:      service,
		maxUploadSizeBytes: maxUploadSizeBytes,
	}
}

func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	log := logger.FromContext(r.Context())
	maxSize := utils.HumanFileSize(h.maxUploadSizeBytes)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSizeBytes+multipartOverheadBytes)
	if err := r.ParseMultipartForm(h.maxUploadSizeBytes); err != nil {
		log.Warn("Failed to parse multipart form or request too large", "error", err, "limit", h.maxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %s)", maxSize), http.StatusBadRequest)
		return
	}

	kind, err := parsers.ParseFileKind(r.FormValue("fileType"))
	if err != nil {
		utils.SendJSONError(w, "fileType must be 'transaction' or 'nxn_lookup'", http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		log.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > h.maxUploadSizeBytes {
		log.Warn("Uploaded file too large", "fileSize", fileHeader.Size, "limit", h.maxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %s", maxSize), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file, fileHeader.Filename)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	log.Debug("Upload content validated", "filename", fileHeader.Filename, "clientType", clientContentType, "detectedType", detectedContentType)

	record, err := h.uploadService.ProcessUpload(r.Context(), userID, fileHeader.Filename, kind, file)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, record, http.StatusCreated)
}

func (h *UploadHandler) HandleListFiles(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	files, err := h.uploadService.ListFiles(r.Context(), userID, r.URL.Query().Get("type"))
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, files, http.StatusOK)
}

func (h *UploadHandler) HandleGetFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	fileID, ok := pathID(w, r, "file")
	if !ok {
		return
	}
	f, err := h.uploadService.GetFile(r.Context(), userID, fileID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, f, http.StatusOK)
}

func (h *UploadHandler) HandleDownloadFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	fileID, ok := pathID(w, r, "file")
	if !ok {
		return
	}
	f, content, err := h.uploadService.OpenFile(r.Context(), userID, fileID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	defer content.Close()

	w.Header().Set("Content-Type", f.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", validation.SanitizeFileName(f.FileName)))
	w.Header().Set("Cache-Control", "private")
	http.ServeContent(w, r, f.FileName, f.CreatedAt, content)
}

func (h *UploadHandler) HandleDeleteFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	fileID, ok := pathID(w, r, "file")
	if !ok {
		return
	}
	if err := h.uploadService.DeleteFile(r.Context(), userID, fileID); err != nil {
		sendServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

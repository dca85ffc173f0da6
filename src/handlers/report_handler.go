package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/mediajenny/the-oracle/src/exporters"
	"github.com/mediajenny/the-oracle/src/logger"
	"github.com/mediajenny/the-oracle/src/processors"
	"github.com/mediajenny/the-oracle/src/services"
	"github.com/mediajenny/the-oracle/src/utils"
)

const (
	// Row payloads posted to /api/process can be large exports.
	maxProcessBodyBytes = 100 << 20
	maxReportBodyBytes  = 1 << 20

	defaultTopN = 10
)

type ReportHandler struct {
	reportService services.ReportService
}

func NewReportHandler(service services.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: service,
	}
}

// HandleProcess runs the pipeline over rows posted in the body without
// storing anything.
func (h *ReportHandler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TransactionData []map[string]any `json:"transactionData"`
		NxnData         []map[string]any `json:"nxnData"`
	}
	if !decodeJSONBody(w, r, maxProcessBodyBytes, &body) {
		return
	}

	report, err := h.reportService.ProcessRows(r.Context(), body.TransactionData, body.NxnData)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, report, http.StatusOK)
}

func (h *ReportHandler) HandleCreateReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req services.CreateReportRequest
	if !decodeJSONBody(w, r, maxReportBodyBytes, &req) {
		return
	}

	detail, err := h.reportService.CreateReport(r.Context(), userID, req)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, detail, http.StatusCreated)
}

func (h *ReportHandler) HandleListReports(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	reports, err := h.reportService.ListReports(r.Context(), userID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, reports, http.StatusOK)
}

func (h *ReportHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	reportID, ok := pathID(w, r, "report")
	if !ok {
		return
	}
	detail, err := h.reportService.GetReport(r.Context(), userID, reportID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	sendWithETag(w, r, detail)
}

func (h *ReportHandler) HandleDeleteReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	reportID, ok := pathID(w, r, "report")
	if !ok {
		return
	}
	if err := h.reportService.DeleteReport(r.Context(), userID, reportID); err != nil {
		sendServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReportHandler) HandleExportReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	reportID, ok := pathID(w, r, "report")
	if !ok {
		return
	}
	format, err := exporters.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	file, err := h.reportService.ExportReport(r.Context(), userID, reportID, format)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Content); err != nil {
		logger.FromContext(r.Context()).Error("Failed to write export", "reportID", reportID, "error", err)
	}
}

// HandleGetRankings accepts top, search and repeatable io / advertiser
// query parameters.
func (h *ReportHandler) HandleGetRankings(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	reportID, ok := pathID(w, r, "report")
	if !ok {
		return
	}
	q := r.URL.Query()
	topN := defaultTopN
	if s := q.Get("top"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			utils.SendJSONError(w, "top must be an integer", http.StatusBadRequest)
			return
		}
		topN = n
	}
	filter := processors.LineItemFilter{
		Search:          q.Get("search"),
		InsertionOrders: nonEmpty(q["io"]),
		Advertisers:     nonEmpty(q["advertiser"]),
	}

	rankings, err := h.reportService.GetRankings(r.Context(), userID, reportID, filter, topN)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, rankings, http.StatusOK)
}

func (h *ReportHandler) HandleShareReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	reportID, ok := pathID(w, r, "report")
	if !ok {
		return
	}
	var body struct {
		Email string `json:"email"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := readOptionalJSON(w, r, &body); err != nil {
			utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	info, err := h.reportService.ShareReport(r.Context(), userID, reportID, body.Email)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, info, http.StatusOK)
}

func (h *ReportHandler) HandleRevokeShare(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	reportID, ok := pathID(w, r, "report")
	if !ok {
		return
	}
	if err := h.reportService.RevokeShare(r.Context(), userID, reportID); err != nil {
		sendServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReportHandler) HandleGetSharedReport(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		utils.SendJSONError(w, "Share token is required", http.StatusBadRequest)
		return
	}
	detail, err := h.reportService.GetSharedReport(r.Context(), token)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	sendWithETag(w, r, detail)
}

// sendWithETag writes data as JSON unless the client already holds the
// same representation.
func sendWithETag(w http.ResponseWriter, r *http.Request, data any) {
	log := logger.FromContext(r.Context())
	currentETag, etagErr := utils.GenerateETag(data)
	if etagErr != nil {
		log.Error("Failed to generate ETag", "path", r.URL.Path, "error", etagErr)
	}

	w.Header().Set("Cache-Control", "no-cache, private")
	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		for _, cETag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				log.Debug("ETag match", "path", r.URL.Path, "etag", currentETag)
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}
	utils.SendJSON(w, data, http.StatusOK)
}

// readOptionalJSON decodes a small body, treating an empty one as no input.
func readOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxReportBodyBytes))
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil
	}
	return json.Unmarshal(data, dst)
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

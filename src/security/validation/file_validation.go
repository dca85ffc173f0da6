package validation

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/mediajenny/the-oracle/src/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AllowedClientContentTypes is a map for quick lookup of allowed client-declared MIME types.
var AllowedClientContentTypes = map[string]bool{
	"text/csv":                 true,
	"application/csv":          true,
	"application/vnd.ms-excel": true, // Often used for CSV by older Excel
	"text/plain":               true, // CSVs are often plain text
	"application/octet-stream": true, // Fallback, but be more cautious
	xlsxContentType:            true,
	"application/vnd.ms-excel.sheet.macroenabled.12": true,
}

// ValidateClientContentType checks the Content-Type header provided by the client.
func ValidateClientContentType(contentType string) error {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if ct == "" {
		return nil
	}
	if !AllowedClientContentTypes[ct] {
		logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType)
		return fmt.Errorf("client-declared file type '%s' is not allowed for report uploads", contentType)
	}
	return nil
}

// ValidateFileContentByMagicBytes checks the actual file content signature
// against what the file extension promises. CSV files must look like text,
// workbooks must be zip containers. The reader is rewound before returning.
func ValidateFileContentByMagicBytes(file io.ReadSeeker, fileName string) (string, error) {
	if file == nil {
		return "", fmt.Errorf("file is nil")
	}

	buffer := make([]byte, 512) // Read first 512 bytes for MIME detection
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}

	// Reset so the parser can read the full file.
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}

	detectedContentType := http.DetectContentType(buffer[:n])
	detectedContentType = strings.ToLower(strings.Split(detectedContentType, ";")[0])

	var allowedDetectedTypes map[string]bool
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		allowedDetectedTypes = map[string]bool{"application/zip": true}
	default:
		allowedDetectedTypes = map[string]bool{
			"text/plain":               true,
			"text/csv":                 true,
			"application/csv":          true,
			"application/octet-stream": true, // strict parsing later rejects non-CSV
		}
	}

	if !allowedDetectedTypes[detectedContentType] {
		logger.L.Warn("Disallowed detected file content type (magic bytes)", "detectedContentType", detectedContentType, "fileName", fileName)
		return detectedContentType, fmt.Errorf("detected file content type '%s' is not consistent with %s", detectedContentType, fileName)
	}

	logger.L.Debug("File content type (magic bytes) validated", "detectedContentType", detectedContentType)
	return detectedContentType, nil
}

// MimeTypeForFile returns the content type stored and served for an upload.
func MimeTypeForFile(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx":
		return xlsxContentType
	case ".xlsm":
		return "application/vnd.ms-excel.sheet.macroenabled.12"
	default:
		return "text/csv"
	}
}

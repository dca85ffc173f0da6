package processors

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mediajenny/the-oracle/src/logger"
)

const lineItemIDKey = "LINEITEMID"

type lineItemExtractorImpl struct {
	log *slog.Logger
}

// NewLineItemExtractor returns an extractor that reports malformed journeys to log.
// A nil log falls back to the application logger.
func NewLineItemExtractor(log *slog.Logger) LineItemExtractor {
	return &lineItemExtractorImpl{log: resolveLogger(log)}
}

// Extract returns the distinct LINEITEMID values of an impression journey in
// order of first appearance. Blank, non-array or malformed input yields no ids.
func (e *lineItemExtractorImpl) Extract(impressionsJSON string) []string {
	if strings.TrimSpace(impressionsJSON) == "" {
		return nil
	}

	entries, err := decodeJourney(impressionsJSON)
	if err != nil {
		e.log.Warn("Skipping malformed impressions JSON", "error", err, "length", len(impressionsJSON))
		return nil
	}

	var ids []string
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		impression, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		raw, ok := impression[lineItemIDKey]
		if !ok {
			continue
		}
		id, ok := lineItemIDString(raw)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// decodeJourney parses the journey keeping numbers exact. A valid JSON value
// that is not an array decodes to nil without error.
func decodeJourney(s string) ([]any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var parsed any
	if err := dec.Decode(&parsed); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level JSON value")
	}

	entries, _ := parsed.([]any)
	return entries, nil
}

func lineItemIDString(v any) (string, bool) {
	var id string
	switch t := v.(type) {
	case string:
		id = t
	case json.Number:
		id = t.String()
	case bool:
		id = strconv.FormatBool(t)
	default:
		// null, objects and arrays are not identifiers
		return "", false
	}
	return id, id != ""
}

func resolveLogger(log *slog.Logger) *slog.Logger {
	if log != nil {
		return log
	}
	if logger.L != nil {
		return logger.L
	}
	return slog.Default()
}

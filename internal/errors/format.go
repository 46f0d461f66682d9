package errors

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// FormatForCLI renders an error for the terminal. Details are listed in key
// order; verbose adds the underlying cause.
//
//	Error: invalid configuration
//	  processor: ignore_character
//	  Hint: Run 'indexprep validate' for details
//	  Code: ERR_102_CONFIG_INVALID
func FormatForCLI(err error, verbose bool) string {
	if err == nil {
		return ""
	}
	pe := asOrWrap(err)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", pe.Message)
	for _, k := range detailKeys(pe) {
		fmt.Fprintf(&sb, "  %s: %s\n", k, pe.Details[k])
	}
	if verbose && pe.Cause != nil {
		fmt.Fprintf(&sb, "  Cause: %s\n", pe.Cause)
	}
	if pe.Suggestion != "" {
		fmt.Fprintf(&sb, "  Hint: %s\n", pe.Suggestion)
	}
	fmt.Fprintf(&sb, "  Code: %s\n", pe.Code)
	return sb.String()
}

type jsonError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Category   Category          `json:"category"`
	Severity   Severity          `json:"severity"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      string            `json:"cause,omitempty"`
}

// FormatJSON encodes an error as a single JSON object for scripts driving
// the CLI. Errors that are not PrepErrors are reported as internal errors.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return []byte("null"), nil
	}
	pe := asOrWrap(err)

	je := jsonError{
		Code:       pe.Code,
		Message:    pe.Message,
		Category:   pe.Category,
		Severity:   pe.Severity,
		Details:    pe.Details,
		Suggestion: pe.Suggestion,
	}
	if pe.Cause != nil {
		je.Cause = pe.Cause.Error()
	}
	return json.Marshal(je)
}

// LogAttrs returns slog attributes describing err. Details become
// detail_<key> attributes.
func LogAttrs(err error) []slog.Attr {
	if err == nil {
		return nil
	}
	pe, ok := asPrepError(err)
	if !ok {
		return []slog.Attr{slog.String("error", err.Error())}
	}

	attrs := []slog.Attr{
		slog.String("error_code", pe.Code),
		slog.String("message", pe.Message),
		slog.String("category", string(pe.Category)),
	}
	if pe.Cause != nil {
		attrs = append(attrs, slog.String("cause", pe.Cause.Error()))
	}
	for _, k := range detailKeys(pe) {
		attrs = append(attrs, slog.String("detail_"+k, pe.Details[k]))
	}
	return attrs
}

func asOrWrap(err error) *PrepError {
	if pe, ok := asPrepError(err); ok {
		return pe
	}
	return Wrap(ErrCodeInternal, err)
}

func detailKeys(pe *PrepError) []string {
	keys := make([]string, 0, len(pe.Details))
	for k := range pe.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

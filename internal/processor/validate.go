package processor

import (
	"fmt"
	"strings"
)

// ValidationError describes one rejected configuration option.
type ValidationError struct {
	Processor string `json:"processor"`
	Option    string `json:"option,omitempty"`
	Message   string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Option == "" {
		return fmt.Sprintf("%s: %s", e.Processor, e.Message)
	}
	return fmt.Sprintf("%s.%s: %s", e.Processor, e.Option, e.Message)
}

// ValidationErrors collects every problem found in a configuration.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Err returns nil when there are no errors, so callers can write
// `if err := v.Err(); err != nil`.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func (v *ValidationErrors) add(processor, option, format string, args ...any) {
	*v = append(*v, ValidationError{
		Processor: processor,
		Option:    option,
		Message:   fmt.Sprintf(format, args...),
	})
}

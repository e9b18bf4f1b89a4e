package solconfig

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// ErrConfigNotFound is returned by Discover when no configuration file exists
var ErrConfigNotFound = errors.New("configuration file not found")

// ParseError is returned when the configuration cannot be read or its
// structure is malformed (syntax errors, wrong value types).
type ParseError struct {
	Path   string
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to parse %s config: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("failed to parse config '%s': %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// FieldError describes a single invalid value
type FieldError struct {
	// Field is the dotted path of the value, i.e. networks.development.port
	Field string

	Value interface{}

	Reason string
}

func (e *FieldError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s (got %v)", e.Field, e.Reason, e.Value)
}

// ValidationError is returned when the configuration is well formed but
// holds out-of-range or unrecognized values. It carries every problem found.
type ValidationError struct {
	Path string
	Err  *multierror.Error
}

func (e *ValidationError) Error() string {
	msgs := []string{}
	for _, err := range e.Err.Errors {
		msgs = append(msgs, err.Error())
	}

	prefix := "invalid config"
	if e.Path != "" {
		prefix = fmt.Sprintf("invalid config '%s'", e.Path)
	}
	return prefix + ": " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Fields returns the individual field errors
func (e *ValidationError) Fields() []*FieldError {
	res := []*FieldError{}
	for _, err := range e.Err.Errors {
		var fieldErr *FieldError
		if errors.As(err, &fieldErr) {
			res = append(res, fieldErr)
		}
	}
	return res
}

// NotFoundError is returned when a network label is not defined
type NotFoundError struct {
	Label string

	// Defined is the list of labels that are available
	Defined []string
}

func (e *NotFoundError) Error() string {
	if len(e.Defined) == 0 {
		return fmt.Sprintf("network '%s' not found: no networks defined", e.Label)
	}
	return fmt.Sprintf("network '%s' not found (defined: %s)", e.Label, strings.Join(e.Defined, ", "))
}

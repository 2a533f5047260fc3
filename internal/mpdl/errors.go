package mpdl

import (
	"errors"
	"fmt"
)

// Grammar and validation violations. Compile wraps them in a *ParseError.
var (
	ErrUnknownVariable           = errors.New("unknown variable")
	ErrInvalidVariableValue      = errors.New("invalid variable value")
	ErrUnknownPreprocessor       = errors.New("unknown preprocessor")
	ErrInvalidPreprocessorValue  = errors.New("invalid preprocessor value")
	ErrImportCycle               = errors.New("import cycle")
	ErrImportDepth               = errors.New("imports nested too deeply")
	ErrUnknownPostprocessor      = errors.New("unknown postprocessor")
	ErrInvalidPostprocessorValue = errors.New("invalid postprocessor value")
	ErrMissingGroupCloser        = errors.New("missing group closer")
	ErrUnexpectedGroupToken      = errors.New("unexpected token outside group brackets")
	ErrInsufficientAlternatives  = errors.New("group needs at least two names")
	ErrDuplicateGroupMembership  = errors.New("name already belongs to a group")
	ErrUndeclaredGroup           = errors.New("undeclared group")
	ErrInvalidMarker             = errors.New("invalid marker")
	ErrDuplicateSideMarker       = errors.New("duplicate side marker")
	ErrDuplicateOptionalMarker   = errors.New("duplicate optional marker")
	ErrOptionalRelatedFile       = errors.New("related files cannot be optional")
	ErrMissingEntryData          = errors.New("missing entry data")
	ErrInvalidProjectID          = errors.New("invalid project ID")
	ErrInvalidFileID             = errors.New("invalid file ID")
	ErrInvalidPath               = errors.New("invalid path")
	ErrMisplacedDirective        = errors.New("directive not allowed here")
)

// ErrExternalIO matches every *IOError with errors.Is.
var ErrExternalIO = errors.New("external I/O error")

// ParseError reports the first grammar violation in a definition.
type ParseError struct {
	Origin string // "<input>" or the import location
	Line   int
	Text   string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %v: %q", e.Origin, e.Line, e.Err, e.Text)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IOError reports a failure to load imported definition text.
type IOError struct {
	Source string
	Origin string
	Line   int
	Err    error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s:%d: importing %s: %v", e.Origin, e.Line, e.Source, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func (e *IOError) Is(target error) bool {
	return target == ErrExternalIO
}

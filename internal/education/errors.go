package education

import "errors"

var (
	// ErrUnknownContentType is returned for content type keys outside the registry.
	ErrUnknownContentType = errors.New("unknown content type")

	// ErrContainerNotFound means the generated text has no root element
	// for the requested content type.
	ErrContainerNotFound = errors.New("content container not found")

	// ErrMalformedStandards means the curriculum_standards field is not a
	// JSON array of strings. It fails the whole parse.
	ErrMalformedStandards = errors.New("malformed curriculum standards")

	// ErrParseFailed wraps unexpected failures inside a parser.
	ErrParseFailed = errors.New("content parse failed")
)

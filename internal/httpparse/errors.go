package httpparse

import "errors"

// ErrAgain signals the parser ran out of buffered input mid-request; the
// caller should read more bytes and call the same parse function again —
// state is preserved across the call, matching original_source's EAGAIN
// return from http_parse_request_line / http_parse_request_body.
var ErrAgain = errors.New("httpparse: need more data")

// Errors mirroring original_source/src/http.h's http_parser_retcode enum.
var (
	ErrInvalidMethod  = errors.New("httpparse: invalid method")
	ErrInvalidRequest = errors.New("httpparse: invalid request line")
	ErrInvalidHeader  = errors.New("httpparse: invalid header")
)

package router

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/shandysiswandi/otpsvc/internal/pkg/goerror"
)

// Request wraps http.Request for inbound handlers.
type Request struct {
	*http.Request
}

// DecodeBody decodes the JSON body into dst. Unknown fields and trailing
// content are rejected so malformed callers fail loudly.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return goerror.NewInvalidFormat()
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return goerror.NewInvalidFormat()
	}

	return nil
}

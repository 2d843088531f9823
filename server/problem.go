package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/digitorus/pdfmark/common"
	"github.com/digitorus/pdfmark/isolate"
)

// Problem type URNs, namespace api-error.
const (
	TypeBadRequest      = "urn:api-error:common.bad-request"
	TypeInternal        = "urn:api-error:common.internal"
	TypeMalformedPDF    = "urn:api-error:utils.malformed-pdf"
	TypePayloadTooLarge = "urn:api-error:utils.payload-too-large"
	TypeProcessingLimit = "urn:api-error:utils.processing-limit"
)

// Problem is an RFC 7807 problem details object.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// problemFor classifies err. Only client errors carry a detail.
func problemFor(err error) Problem {
	var (
		paramErr     *common.ParamError
		malformedErr *common.MalformedInputError
		maxBytesErr  *http.MaxBytesError
	)

	switch {
	case errors.As(err, &paramErr):
		return Problem{Type: TypeBadRequest, Title: "Invalid request parameters", Status: http.StatusBadRequest, Detail: paramErr.Error()}
	case errors.As(err, &malformedErr):
		return Problem{Type: TypeMalformedPDF, Title: "The request body is not a valid PDF document", Status: http.StatusBadRequest}
	case errors.As(err, &maxBytesErr):
		return Problem{Type: TypePayloadTooLarge, Title: "The request body is too large", Status: http.StatusRequestEntityTooLarge}
	case errors.Is(err, isolate.ErrTimeout):
		return Problem{Type: TypeProcessingLimit, Title: "The document took too long to process", Status: http.StatusRequestEntityTooLarge}
	default:
		return Problem{Type: TypeInternal, Title: "Internal server error", Status: http.StatusInternalServerError}
	}
}

func writeProblem(w http.ResponseWriter, r *http.Request, p Problem) {
	p.Instance = r.URL.Path
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

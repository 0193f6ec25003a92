package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"pet/internal/analytics"
	"pet/internal/core"
)

const (
	maxBodyBytes   = 1 << 20
	maxUploadBytes = 10 << 20
)

var (
	errBadRequest    = errors.New("bad request")
	errTooLarge      = errors.New("request body too large")
	errSheetDisabled = errors.New("spreadsheet mirror is not configured")
)

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// decodeJSON reads a single JSON document of at most maxBodyBytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return bodyError(err)
	}
	if dec.More() {
		return badRequest("body must hold a single JSON document")
	}
	return nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return fmt.Errorf("%w: limit is %d bytes", errTooLarge, tooLarge.Limit)
	case errors.Is(err, core.ErrValidation):
		return err
	case errors.Is(err, io.EOF):
		return badRequest("empty body")
	default:
		return badRequest("invalid JSON body: %v", err)
	}
}

// parseID reads the {id} path value.
func parseID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid expense id %q", raw)
	}
	return id, nil
}

// ParseFilter builds a search filter from q, category, from and to.
func ParseFilter(query url.Values) (analytics.Filter, error) {
	f := analytics.Filter{Text: query.Get("q")}
	if c := strings.TrimSpace(query.Get("category")); c != "" {
		f.Category = core.ParseCategory(c)
	}
	var err error
	if v := strings.TrimSpace(query.Get("from")); v != "" {
		if f.From, err = core.ParseDate(v); err != nil {
			return analytics.Filter{}, err
		}
	}
	if v := strings.TrimSpace(query.Get("to")); v != "" {
		if f.To, err = core.ParseDate(v); err != nil {
			return analytics.Filter{}, err
		}
	}
	return f, nil
}

// ParsePeriodQuery reads period, from and to. An absent period means monthly.
func ParsePeriodQuery(query url.Values) (analytics.Period, error) {
	kind := strings.TrimSpace(query.Get("period"))
	if kind == "" {
		kind = string(analytics.Monthly)
	}
	return analytics.ParsePeriod(kind, query.Get("from"), query.Get("to"))
}

// uploadedFile returns the multipart "file" part. The caller closes it.
func uploadedFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, fmt.Errorf("%w: limit is %d bytes", errTooLarge, tooLarge.Limit)
		}
		return nil, nil, badRequest("expected multipart form: %v", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, badRequest("missing file field")
	}
	return file, header, nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data")
}

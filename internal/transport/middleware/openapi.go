package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/frahmantamala/employee-console/internal"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

// LoadOpenAPI reads and validates the API document.
func LoadOpenAPI(ctx context.Context, path string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return doc, nil
}

// RequestValidator checks parameters and JSON bodies against the API document.
// Paths the document does not describe and multipart bodies pass through untouched.
type RequestValidator struct {
	router   routers.Router
	basePath string
	logger   *slog.Logger
	writeErr func(w http.ResponseWriter, err error)
}

func NewRequestValidator(doc *openapi3.T, basePath string, logger *slog.Logger, writeErr func(w http.ResponseWriter, err error)) (*RequestValidator, error) {
	// routes are matched on the path below basePath, whatever host serves them
	doc.Servers = nil
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}
	return &RequestValidator{
		router:   router,
		basePath: strings.TrimRight(basePath, "/"),
		logger:   logger,
		writeErr: writeErr,
	}, nil
}

func (v *RequestValidator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, v.basePath+"/") {
			next.ServeHTTP(w, r)
			return
		}

		probe := r.Clone(r.Context())
		probe.URL.Path = strings.TrimPrefix(r.URL.Path, v.basePath)
		probe.URL.RawPath = ""

		route, params, err := v.router.FindRoute(probe)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		opts := &openapi3filter.Options{AuthenticationFunc: openapi3filter.NoopAuthenticationFunc}
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			opts.ExcludeRequestBody = true
		} else if r.Body != nil {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				v.writeErr(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			probe.Body = io.NopCloser(bytes.NewReader(body))
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    probe,
			PathParams: params,
			Route:      route,
			Options:    opts,
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			v.logger.Warn("request does not match API document",
				"method", r.Method,
				"path", r.URL.Path,
				"error", err)
			v.writeErr(w, toAppError(err))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func toAppError(err error) *internal.AppError {
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		field := "body"
		if reqErr.Parameter != nil {
			field = reqErr.Parameter.Name
		}
		msg := reqErr.Reason
		if msg == "" && reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return internal.NewValidationFieldError(field, msg, internal.ErrCodeInvalidQuery)
	}
	return internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
}

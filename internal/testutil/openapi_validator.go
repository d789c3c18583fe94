package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

// maxReported bounds how much of an error or body lands in test output.
const maxReported = 400

// OpenAPIValidator checks exchanges against api/openapi/openapi.yaml.
type OpenAPIValidator struct {
	doc    *openapi3.T
	router routers.Router
}

// LoadOpenAPIValidator loads and validates the document at specPath.
func LoadOpenAPIValidator(specPath string) (*OpenAPIValidator, error) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromFile(specPath)
	if err != nil {
		return nil, fmt.Errorf("load OpenAPI document %s: %w", specPath, err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validate OpenAPI document: %w", err)
	}

	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("create OpenAPI router: %w", err)
	}

	return &OpenAPIValidator{doc: doc, router: router}, nil
}

// documented reports whether the path belongs to the described API. Probes,
// docs and the document itself are served outside it.
func documented(path string) bool {
	return strings.HasPrefix(path, "/api/v1/") || path == "/version"
}

// route resolves the operation using the path and query only; the document
// declares no servers, so the host of the test server must not take part.
func (v *OpenAPIValidator) route(req *http.Request) (*routers.Route, map[string]string, error) {
	probe, err := http.NewRequest(req.Method, req.URL.RequestURI(), nil)
	if err != nil {
		return nil, nil, err
	}
	return v.router.FindRoute(probe)
}

// ValidateRequest reports a test error when req does not match its operation.
func (v *OpenAPIValidator) ValidateRequest(t *testing.T, req *http.Request) {
	t.Helper()

	if !documented(req.URL.Path) {
		return
	}

	route, pathParams, err := v.route(req)
	if err != nil {
		t.Errorf("OpenAPI: no operation for %s %s: %v", req.Method, req.URL.Path, err)
		return
	}

	input := &openapi3filter.RequestValidationInput{
		Request:    req,
		PathParams: pathParams,
		Route:      route,
		Options:    &openapi3filter.Options{MultiError: true},
	}
	if err := openapi3filter.ValidateRequest(context.Background(), input); err != nil {
		t.Errorf("OpenAPI request %s %s: %s", req.Method, req.URL.Path, truncate(err.Error()))
	}
}

// ValidateResponse reports a test error when resp does not match the
// operation of req. The response body is read and put back.
func (v *OpenAPIValidator) ValidateResponse(t *testing.T, req *http.Request, resp *http.Response) {
	t.Helper()

	if !documented(req.URL.Path) {
		return
	}

	route, pathParams, err := v.route(req)
	if err != nil {
		t.Errorf("OpenAPI: no operation for %s %s: %v", req.Method, req.URL.Path, err)
		return
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Errorf("read response body: %v", err)
		return
	}
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: pathParams,
			Route:      route,
		},
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   io.NopCloser(bytes.NewReader(body)),
		Options: &openapi3filter.Options{
			MultiError:            true,
			IncludeResponseStatus: true,
		},
	}
	if err := openapi3filter.ValidateResponse(context.Background(), input); err != nil {
		t.Errorf("OpenAPI response %s %s (status %d): %s\nbody: %s",
			req.Method, req.URL.Path, resp.StatusCode, truncate(err.Error()), truncate(string(body)))
	}
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxReported {
		return s[:maxReported] + "..."
	}
	return s
}

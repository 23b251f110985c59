package lsv

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
)

func classify(t *testing.T, status int, header http.Header, body string) error {
	t.Helper()

	if header == nil {
		header = http.Header{}
	}
	return classifyResponse(&http.Response{StatusCode: status, Header: header}, []byte(body))
}

func TestClassifyResponse_Taxonomy(t *testing.T) {
	cases := []struct {
		status int
		want   any
	}{
		{http.StatusBadRequest, new(*ValidationError)},
		{http.StatusUnauthorized, new(*AuthenticationError)},
		{http.StatusForbidden, new(*AuthorizationError)},
		{http.StatusNotFound, new(*NotFoundError)},
		{http.StatusConflict, new(*ConflictError)},
		{http.StatusTooManyRequests, new(*RateLimitError)},
		{http.StatusInternalServerError, new(*APIError)},
		{http.StatusBadGateway, new(*APIError)},
		{http.StatusTeapot, new(*APIError)},
	}

	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			err := classify(t, tc.status, nil, `{"message":"nope"}`)
			if !errors.As(err, tc.want) {
				t.Fatalf("status %d classified as %T", tc.status, err)
			}
		})
	}
}

func TestClassifyResponse_APIErrorKeepsStatus(t *testing.T) {
	err := classify(t, http.StatusBadGateway, nil, "")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected status 502 carried, got %d", apiErr.StatusCode)
	}
}

func TestClassifyResponse_MessageFromBody(t *testing.T) {
	err := classify(t, http.StatusConflict, nil, `{"message":"vault name taken"}`)

	var conflictErr *ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected ConflictError, got %T", err)
	}
	if conflictErr.Message != "vault name taken" {
		t.Fatalf("unexpected message: %q", conflictErr.Message)
	}
}

func TestClassifyResponse_FallbackMessage(t *testing.T) {
	cases := map[string]string{
		"empty body":    "",
		"body not json": "<html>gateway</html>",
		"no message":    `{"code":"forbidden"}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			err := classify(t, http.StatusForbidden, nil, body)

			var authzErr *AuthorizationError
			if !errors.As(err, &authzErr) {
				t.Fatalf("expected AuthorizationError, got %T", err)
			}
			if authzErr.Message != http.StatusText(http.StatusForbidden) {
				t.Fatalf("expected generic message, got %q", authzErr.Message)
			}
		})
	}
}

func TestClassifyResponse_NotFoundCarriesResource(t *testing.T) {
	err := classify(t, http.StatusNotFound, nil,
		`{"message":"document not found","resource":"document","id":"notes/plan.md"}`)

	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %T", err)
	}
	if notFound.Resource != "document" || notFound.ID != "notes/plan.md" {
		t.Fatalf("unexpected resource/id: %q %q", notFound.Resource, notFound.ID)
	}
	if msg := notFound.Error(); !strings.Contains(msg, "document") || !strings.Contains(msg, "notes/plan.md") {
		t.Fatalf("error message should name the resource: %q", msg)
	}
}

func TestClassifyResponse_RetryAfter(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"seconds", "30", 30 * time.Second},
		{"missing", "", 0},
		{"garbage", "soon", 0},
		{"http date", "Wed, 21 Oct 2026 07:28:00 GMT", 0},
		{"negative", "-5", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			header := http.Header{}
			if tc.value != "" {
				header.Set("Retry-After", tc.value)
			}

			err := classify(t, http.StatusTooManyRequests, header, "")

			var rateErr *RateLimitError
			if !errors.As(err, &rateErr) {
				t.Fatalf("expected RateLimitError, got %T", err)
			}
			if rateErr.RetryAfter != tc.want {
				t.Fatalf("expected RetryAfter %v, got %v", tc.want, rateErr.RetryAfter)
			}
		})
	}
}

func TestClassifyResponse_RequestID(t *testing.T) {
	header := http.Header{}
	header.Set(RequestIDHeader, "req-7")

	err := classify(t, http.StatusBadRequest, header, "")

	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if valErr.RequestID != "req-7" {
		t.Fatalf("expected request ID surfaced, got %q", valErr.RequestID)
	}
}

func TestNetworkError_Unwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := &NetworkError{Err: cause}

	if !errors.Is(err, cause) {
		t.Fatal("expected NetworkError to unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected cause in message, got %q", err.Error())
	}
}

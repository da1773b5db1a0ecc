package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/module-swap/pkg/logger"
)

func captureWorkflowToken(cookieName string, req *http.Request) string {
	var got string
	WorkflowToken(cookieName, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = WorkflowTokenFromContext(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestWorkflowTokenPrefersHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(WorkflowTokenHeader, " from-header ")
	req.AddCookie(&http.Cookie{Name: "wf", Value: "from-cookie"})

	if got := captureWorkflowToken("wf", req); got != "from-header" {
		t.Fatalf("expected header token, got %q", got)
	}
}

func TestWorkflowTokenFallsBackToCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "wf", Value: "from-cookie"})

	if got := captureWorkflowToken("wf", req); got != "from-cookie" {
		t.Fatalf("expected cookie token, got %q", got)
	}
	if got := captureWorkflowToken("", req); got != "" {
		t.Fatalf("expected cookie ignored without a name, got %q", got)
	}
}

func TestWorkflowTokenAbsent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := captureWorkflowToken("wf", req); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
}

func TestWorkflowTokenLogsDigestNotToken(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("info"), Output: &buf})
	const token = "zZ9secretWorkflowTokenValue"

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(WorkflowTokenHeader, token)
	WorkflowToken("wf", logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logg.Info(r.Context(), "placement form")
	})).ServeHTTP(httptest.NewRecorder(), req)

	entry := buf.String()
	if strings.Contains(entry, "zZ9secret") {
		t.Fatalf("token leaked into log entry: %s", entry)
	}
	if !strings.Contains(entry, `"workflow":"`+logger.TokenDigest(token)+`"`) {
		t.Fatalf("expected workflow digest in entry: %s", entry)
	}
}

//go:build integration

package tests

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/sparlo/reportd/internal/httpapi"
	"github.com/sparlo/reportd/internal/share"
	"github.com/sparlo/reportd/internal/store"
)

const legacyReport = `{
	"report_type": "due_diligence",
	"title": "Heat exchanger rework",
	"brief": "Cut cooling loop cost without losing margin.",
	"problem_analysis": {
		"narrative": "The current loop overshoots spec by 2x at triple the cost."
	},
	"solution_concepts": {
		"primary": {
			"id": "c1",
			"title": "Counterflow plate stack",
			"description": "Replace the shell-and-tube unit with a brazed plate stack.",
			"confidence_percent": 78,
			"economics": {"expected_outcome": {"value": "18% unit cost reduction"}},
			"first_validation_step": "Bench-test one plate pair at spec flow rate."
		},
		"supporting": []
	},
	"innovation_concepts": {
		"recommended": {
			"id": "i1",
			"title": "Phase-change buffer",
			"confidence": 35,
			"first_validation_step": "Model the buffer mass for worst-case load."
		}
	},
	"constraints": {
		"hard_constraints": ["No supplier changes this quarter"]
	}
}`

// startService wires a real store-backed server the way cmd/reportd does,
// minus the PDF renderer and chat, which need external processes.
func startService(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "e2e.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	shares := share.NewService(st, "http://example.test", share.RateLimits{PerHour: 5, PerDay: 10}, log)

	srv := httptest.NewServer(httpapi.NewServer(httpapi.Config{
		Store:  st,
		Shares: shares,
		Log:    log,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, client *http.Client, method, url, user, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if user != "" {
		req.Header.Set("X-Sparlo-User", user)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, b
}

func TestEndToEndReportLifecycle(t *testing.T) {
	srv := startService(t)
	client := srv.Client()

	// Submit a legacy-schema report.
	resp, body := do(t, client, http.MethodPost, srv.URL+"/api/reports", "alice", legacyReport)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: %d %s", resp.StatusCode, body)
	}
	var created struct {
		ReportID string `json:"report_id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode create: %v", err)
	}

	// JSON view returns the normalized schema plus TOC and read time.
	resp, body = do(t, client, http.MethodGet, srv.URL+"/api/reports/"+created.ReportID, "alice", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: %d %s", resp.StatusCode, body)
	}
	payload := string(body)
	if !strings.Contains(payload, `"execution_track"`) {
		t.Fatal("expected normalized execution_track in response")
	}
	if strings.Contains(payload, `"solution_concepts"`) {
		t.Fatal("legacy key must not survive normalization")
	}
	if !strings.Contains(payload, `"toc"`) || !strings.Contains(payload, `"read_time_minutes"`) {
		t.Fatal("expected toc and read time in response")
	}

	// HTML view renders the canonical sections.
	resp, body = do(t, client, http.MethodGet, srv.URL+"/api/reports/"+created.ReportID+"/html", "alice", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get html: %d", resp.StatusCode)
	}
	html := string(body)
	for _, want := range []string{"Heat exchanger rework", "Execution Track", "Innovation Portfolio", "Counterflow plate stack"} {
		if !strings.Contains(html, want) {
			t.Fatalf("html missing %q", want)
		}
	}

	// Share, view publicly, revoke.
	resp, body = do(t, client, http.MethodPost, srv.URL+"/api/reports/"+created.ReportID+"/share", "alice", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("share: %d %s", resp.StatusCode, body)
	}
	var info struct {
		Token string `json:"share_token"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		t.Fatalf("decode share: %v", err)
	}

	resp, body = do(t, client, http.MethodGet, srv.URL+"/shared/"+info.Token, "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("shared view: %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "Heat exchanger rework") {
		t.Fatal("shared view must render the report")
	}

	resp, _ = do(t, client, http.MethodDelete, srv.URL+"/api/reports/"+created.ReportID+"/share", "alice", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("revoke: %d", resp.StatusCode)
	}
	resp, _ = do(t, client, http.MethodGet, srv.URL+"/shared/"+info.Token, "", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("revoked link must 404, got %d", resp.StatusCode)
	}

	// Another user cannot read or share alice's report.
	resp, _ = do(t, client, http.MethodGet, srv.URL+"/api/reports/"+created.ReportID, "bob", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("cross-user get must 404, got %d", resp.StatusCode)
	}
	resp, _ = do(t, client, http.MethodPost, srv.URL+"/api/reports/"+created.ReportID+"/share", "bob", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("cross-user share must 404, got %d", resp.StatusCode)
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huythanhnguyen/phongthuyso-cli/internal/config"
)

// =============================================================================
// HARNESS
// =============================================================================

type result struct {
	code   int
	stdout string
	stderr string
}

// harness runs command lines the way separate ptso processes would: each
// run gets a fresh App, all runs share one PTSO_HOME.
type harness struct {
	t    *testing.T
	home string
	url  string
	hits atomic.Int32
}

func newHarness(t *testing.T, h http.HandlerFunc) *harness {
	t.Helper()
	hs := &harness{t: t, home: t.TempDir()}
	t.Setenv("PTSO_HOME", hs.home)
	for _, v := range []string{"PTSO_API_URL", "PTSO_PROFILE", "PTSO_OUTPUT", "PTSO_TIMEOUT", "PTSO_LOG_LEVEL", "PTSO_NO_HISTORY"} {
		t.Setenv(v, "")
	}

	if h != nil {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hs.hits.Add(1)
			h(w, r)
		}))
		t.Cleanup(srv.Close)
		hs.url = srv.URL
	}
	return hs
}

func (hs *harness) run(stdin string, args ...string) result {
	hs.t.Helper()
	var stdout, stderr bytes.Buffer

	app := NewApp(strings.NewReader(stdin), &stdout, &stderr)
	app.httpClient = &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	if hs.url != "" {
		args = append([]string{"--api-url", hs.url}, args...)
	}
	code := app.Run(context.Background(), args)
	require.NoError(hs.t, app.Close())

	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

// capture holds a value written by a handler goroutine.
type capture struct {
	mu sync.Mutex
	s  string
}

func (c *capture) set(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s = s
}

func (c *capture) get() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s
}

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v), "stdout: %s", s)
	return v
}

// =============================================================================
// COMMANDS
// =============================================================================

func TestVersion_WorksWithoutSetup(t *testing.T) {
	hs := newHarness(t, nil)

	res := hs.run("", "-o", "json", "version")

	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, config.Version, decode(t, res.stdout).(map[string]any)["version"])
}

func TestHealth_PrintsReply(t *testing.T) {
	hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"status":"ok","agents":3}`)
	})

	res := hs.run("", "-o", "json", "health")

	require.Equal(t, ExitSuccess, res.code, res.stderr)
	want := map[string]any{"status": "ok", "agents": float64(3)}
	if diff := cmp.Diff(want, decode(t, res.stdout)); diff != "" {
		t.Errorf("health output mismatch (-want +got):\n%s", diff)
	}
}

func TestStatus_CombinesHealthAndAgents(t *testing.T) {
	hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			writeJSON(w, http.StatusOK, `{"status":"ok"}`)
		case "/agents":
			writeJSON(w, http.StatusOK, `["root","chat"]`)
		default:
			http.NotFound(w, r)
		}
	})

	res := hs.run("", "-o", "json", "status")

	require.Equal(t, ExitSuccess, res.code, res.stderr)
	got := decode(t, res.stdout).(map[string]any)
	assert.Equal(t, hs.url, got["api_url"])
	assert.Equal(t, false, got["logged_in"])
	assert.Equal(t, map[string]any{"status": "ok"}, got["health"])
	assert.Equal(t, []any{"root", "chat"}, got["agents"])
}

func TestRequiredAuth_FailsWithoutRequest(t *testing.T) {
	hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})

	for _, args := range [][]string{
		{"user", "me"},
		{"analyze", "history"},
		{"apikey", "list"},
		{"payment", "subscription"},
	} {
		res := hs.run("", args...)
		assert.Equal(t, ExitAuthError, res.code, "%v", args)
		assert.Contains(t, res.stderr, "not logged in", "%v", args)
	}
	assert.Zero(t, hs.hits.Load(), "no request may be sent without a token")
}

func TestLogin_PersistsTokenAcrossRuns(t *testing.T) {
	var (
		mu   sync.Mutex
		auth []string
	)
	hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/user/token":
			assert.Equal(t, "me@example.com", r.FormValue("username"))
			assert.Equal(t, "s3cret", r.FormValue("password"))
			writeJSON(w, http.StatusOK, `{"access_token":"tok-123","token_type":"bearer"}`)
		case "/api/user/me":
			mu.Lock()
			auth = append(auth, r.Header.Get("Authorization"))
			mu.Unlock()
			writeJSON(w, http.StatusOK, `{"email":"me@example.com"}`)
		}
	})

	res := hs.run("s3cret\n", "user", "login", "me@example.com", "--password-stdin")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Logged in as me@example.com")
	assert.NotContains(t, res.stdout+res.stderr, "tok-123")

	res = hs.run("", "user", "me")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	res = hs.run("", "user", "logout")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	res = hs.run("", "user", "me")
	assert.Equal(t, ExitAuthError, res.code)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"Bearer tok-123"}, auth)
}

func TestLogin_WithoutTerminalNeedsPasswordStdin(t *testing.T) {
	hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})

	res := hs.run("", "user", "login", "me@example.com")

	assert.Equal(t, ExitUsageError, res.code)
	assert.Contains(t, res.stderr, "--password-stdin")
	assert.Zero(t, hs.hits.Load())
}

func TestAPIErrors_MapToExitCodes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   int
		msg    string
	}{
		{"not found", http.StatusNotFound, `{"detail":"Plan not found"}`, ExitNotFoundError, "Plan not found (HTTP 404)"},
		{"server error", http.StatusInternalServerError, `{"message":"boom"}`, ExitGeneralError, "boom (HTTP 500)"},
		{"unauthorized", http.StatusUnauthorized, `{"detail":"Invalid token"}`, ExitAuthError, "Invalid token"},
		{"validation", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"}]}`, ExitGeneralError, "field required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			res := hs.run("", "payment", "plan", "gold")

			assert.Equal(t, tt.want, res.code)
			assert.Contains(t, res.stderr, tt.msg)
			assert.Empty(t, res.stdout)
		})
	}
}

func TestNetworkError_ExitCode(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	hs := newHarness(t, nil)
	res := hs.run("", "--api-url", url, "health")

	assert.Equal(t, ExitNetworkError, res.code)
	assert.Contains(t, res.stderr, "network error")
}

func TestUsageErrors(t *testing.T) {
	hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})

	tests := []struct {
		name string
		args []string
	}{
		{"unknown command", []string{"frobnicate"}},
		{"unknown flag", []string{"health", "--frob"}},
		{"missing argument", []string{"analyze", "number"}},
		{"extra argument", []string{"health", "now"}},
		{"user data not an object", []string{"analyze", "number", "0912345678", "--user-data", "[1,2]"}},
		{"bad output format", []string{"--output", "xml", "health"}},
		{"bad amount", []string{"payment", "create", "--plan", "p", "--method", "momo", "--amount", "lots"}},
		{"upload metadata not JSON", []string{"upload", "-", "--name", "a.txt", "--metadata", "{oops"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := hs.run("data", tt.args...)
			assert.Equal(t, ExitUsageError, res.code, res.stderr)
		})
	}
	assert.Zero(t, hs.hits.Load(), "usage errors must not reach the network")
}

func TestBadBaseURLOverride_IsConfigError(t *testing.T) {
	hs := newHarness(t, nil)

	res := hs.run("", "--api-url", "ftp://example.com", "health")

	assert.Equal(t, ExitConfigError, res.code)
	assert.Contains(t, res.stderr, "http or https")
}

func TestAnalyzeNumber_SendsUserData(t *testing.T) {
	var query capture
	hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		query.set(r.URL.RawQuery)
		writeJSON(w, http.StatusOK, `{"response":"good number"}`)
	})

	res := hs.run("", "analyze", "number", " 0912345678 ", "--user-data", `{"birth_year":1990}`)

	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, query.get(), "number=0912345678")
	assert.Contains(t, query.get(), "user_data=%7B%22birth_year%22%3A1990%7D")
}

func TestChatSend_PrintsAnswerText(t *testing.T) {
	hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "xin chào", body["message"])
		writeJSON(w, http.StatusOK, `{"response":"Chào bạn","agent":"root"}`)
	})

	res := hs.run("", "chat", "send", "xin", "chào")

	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, "Chào bạn\n", res.stdout)
}

func TestChatStream_PrintsEventsUntilFinal(t *testing.T) {
	var query capture
	hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		query.set(r.URL.RawQuery)
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"response\":\"Hello\"}\n\n")
		io.WriteString(w, "data: {\"response\":\"world\",\"is_final\":true}\n\n")
	})

	res := hs.run("", "chat", "stream", "--session", "s-1", "hi")

	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, "Hello\nworld\n", res.stdout)
	assert.Contains(t, query.get(), "session_id=s-1")
	assert.Contains(t, query.get(), "message=hi")
}

func TestChatStream_FailureExitCode(t *testing.T) {
	hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: not json\n\n")
	})

	res := hs.run("", "chat", "stream", "--session", "s-1")

	assert.Equal(t, ExitNetworkError, res.code)
	assert.Contains(t, res.stderr, "malformed event payload")
}

func TestPaymentCreate_SendsDecimalAmount(t *testing.T) {
	var raw capture
	hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/user/token":
			writeJSON(w, http.StatusOK, `{"access_token":"tok"}`)
		case "/api/payment":
			b, _ := io.ReadAll(r.Body)
			raw.set(string(b))
			writeJSON(w, http.StatusOK, `{"id":"pay-1","paymentUrl":"https://pay.example/pay-1"}`)
		}
	})
	require.Equal(t, ExitSuccess, hs.run("pw\n", "user", "login", "a@b.c", "--password-stdin").code)

	res := hs.run("", "payment", "create", "--plan", "premium", "--method", "momo", "--amount", "199000.50")

	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.JSONEq(t, `{"plan_id":"premium","payment_method":"momo","amount":199000.5,"currency":"VND"}`, raw.get())
	assert.Contains(t, res.stderr, "https://pay.example/pay-1")
}

func TestAPIKeyList_TableMasksKeys(t *testing.T) {
	hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/user/token":
			writeJSON(w, http.StatusOK, `{"access_token":"tok"}`)
		case "/api/apikey/list":
			writeJSON(w, http.StatusOK, `[{"id":"k1","name":"ci","key":"pts_abcdefgh1234","is_active":true}]`)
		default:
			http.NotFound(w, r)
		}
	})
	require.Equal(t, ExitSuccess, hs.run("pw\n", "user", "login", "a@b.c", "--password-stdin").code)

	res := hs.run("", "--profile", "legacy", "apikey", "list")

	require.Equal(t, ExitSuccess, res.code, res.stderr)
	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "****1234")
	assert.NotContains(t, res.stdout, "pts_abcdefgh1234")
}

func TestUpload_ReadsStdin(t *testing.T) {
	var got capture
	hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if assert.NoError(t, err) {
			b, _ := io.ReadAll(f)
			got.set(hdr.Filename + ":" + string(b))
		}
		writeJSON(w, http.StatusOK, `{"id":"u1"}`)
	})

	res := hs.run("hello", "upload", "-", "--name", "note.txt", "--type", "text")

	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, "note.txt:hello", got.get())
}

// =============================================================================
// CONFIG AND HISTORY
// =============================================================================

func TestConfigSetGet_RoundTrip(t *testing.T) {
	hs := newHarness(t, nil)

	res := hs.run("", "config", "set", "output.format", "yaml")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	res = hs.run("", "config", "get", "output.format")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "yaml")

	res = hs.run("", "config", "set", "output.format", "xml")
	assert.Equal(t, ExitUsageError, res.code)

	res = hs.run("", "config", "set", "no.such", "1")
	assert.Equal(t, ExitUsageError, res.code)
}

func TestConfigSet_DoesNotPersistEnvOverrides(t *testing.T) {
	hs := newHarness(t, nil)
	t.Setenv("PTSO_PROFILE", "legacy")

	require.Equal(t, ExitSuccess, hs.run("", "config", "set", "api.rate_limit", "2").code)

	t.Setenv("PTSO_PROFILE", "")
	res := hs.run("", "config", "get", "api.profile")
	assert.Contains(t, res.stdout, "default")
}

func TestConfigURL_StoresAndValidates(t *testing.T) {
	hs := newHarness(t, nil)

	res := hs.run("", "config", "url", "https://api.example.com/")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	res = hs.run("", "config", "url")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, "https://api.example.com\n", res.stdout)

	res = hs.run("", "config", "url", "not a url")
	assert.Equal(t, ExitConfigError, res.code)

	res = hs.run("", "config", "url")
	assert.Equal(t, "https://api.example.com\n", res.stdout, "a rejected URL must not replace the stored one")
}

func TestBrokenSettingsFile_LocalCommandsStillWork(t *testing.T) {
	hs := newHarness(t, nil)
	path := hs.home + "/config.toml"
	cfg := config.Default()
	cfg.Output.Format = "xml"
	require.NoError(t, config.SaveTo(cfg, path))

	res := hs.run("", "health")
	assert.Equal(t, ExitConfigError, res.code)
	assert.Contains(t, res.stderr, "output.format")

	res = hs.run("", "config", "path")
	assert.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, path)
}

func TestHistory_RecordsEveryCall(t *testing.T) {
	hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/agents" {
			writeJSON(w, http.StatusServiceUnavailable, `{"detail":"down"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"status":"ok"}`)
	})

	require.Equal(t, ExitSuccess, hs.run("", "health").code)
	require.Equal(t, ExitGeneralError, hs.run("", "agents").code)

	res := hs.run("", "-o", "json", "history", "list")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	rows := decode(t, res.stdout).([]any)
	require.Len(t, rows, 2)
	newest := rows[0].(map[string]any)
	assert.Equal(t, "/agents", newest["PATH"])
	assert.Equal(t, "503", newest["STATUS"])
	assert.Equal(t, "/health", rows[1].(map[string]any)["PATH"])

	res = hs.run("", "-o", "json", "history", "list", "--failed")
	assert.Len(t, decode(t, res.stdout).([]any), 1)

	require.Equal(t, ExitSuccess, hs.run("", "history", "clear").code)
	res = hs.run("", "history", "list")
	assert.Contains(t, res.stdout, "(none)")
}

func TestEphemeral_KeepsNothing(t *testing.T) {
	hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"access_token":"tok"}`)
	})

	res := hs.run("pw\n", "--ephemeral", "user", "login", "a@b.c", "--password-stdin")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	res = hs.run("", "user", "me")
	assert.Equal(t, ExitAuthError, res.code)

	res = hs.run("", "--ephemeral", "history", "list")
	assert.Equal(t, ExitGeneralError, res.code)
	assert.Contains(t, res.stderr, "history is disabled")
}

// =============================================================================
// SHELL
// =============================================================================

func TestShell_RunsEachLine(t *testing.T) {
	hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"status":"ok"}`)
	})

	script := strings.Join([]string{
		"health",
		`config url`,
		"frobnicate",
		`chat send "unterminated`,
		"shell",
		"exit",
		"health",
	}, "\n")
	res := hs.run(script, "-o", "json", "shell")

	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, 1, int(hs.hits.Load()), "lines after exit must not run")
	assert.Contains(t, res.stdout, `"status": "ok"`)
	assert.Contains(t, res.stdout, hs.url)
	assert.Contains(t, res.stderr, "unknown command")
	assert.Contains(t, res.stderr, "unterminated")
	assert.Contains(t, res.stderr, "already in a shell")
}

func TestShell_EndsAtEOF(t *testing.T) {
	hs := newHarness(t, nil)

	res := hs.run("version\n", "shell")

	assert.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, config.Version)
}

package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("failed to read stdout: %v", err)
	}
	return buf.String()
}

func withTestServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	origURL := baseURL
	baseURL = server.URL
	t.Cleanup(func() { baseURL = origURL })
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("expected short unchanged, got %q", got)
	}

	if got := truncate("longerstring", 6); got != "lon..." {
		t.Fatalf("expected lon..., got %q", got)
	}
}

func TestPrintJSON(t *testing.T) {
	out := captureOutput(t, func() {
		printJSON(struct {
			A int `json:"a"`
		}{A: 1})
	})

	expected := "{\n  \"a\": 1\n}\n"
	if out != expected {
		t.Fatalf("unexpected json output:\n%s", out)
	}
}

func TestBalanceCmd(t *testing.T) {
	withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/wallets/wal-1/balance" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"wallet_id":"wal-1","balance":"1300"}`))
	})

	cmd := balanceCmd()
	cmd.SetArgs([]string{"wal-1"})

	out := captureOutput(t, func() {
		if err := cmd.Execute(); err != nil {
			t.Fatalf("command failed: %v", err)
		}
	})

	if !strings.Contains(out, `"balance": "1300"`) {
		t.Fatalf("expected balance in output, got %q", out)
	}
}

func TestVerifyCmd_Inconsistent(t *testing.T) {
	withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"wallet_id":"wal-1","consistent":false,"detail":"title t2"}`))
	})

	cmd := verifyCmd()
	cmd.SetArgs([]string{"wal-1"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	var execErr error
	captureOutput(t, func() {
		execErr = cmd.Execute()
	})

	if execErr == nil {
		t.Fatal("expected error for inconsistent chain")
	}
}

func TestVerifyCmd_Consistent(t *testing.T) {
	withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"wallet_id":"wal-1","consistent":true}`))
	})

	cmd := verifyCmd()
	cmd.SetArgs([]string{"wal-1"})

	out := captureOutput(t, func() {
		if err := cmd.Execute(); err != nil {
			t.Fatalf("command failed: %v", err)
		}
	})

	if !strings.Contains(out, "consistent") {
		t.Fatalf("expected consistency message, got %q", out)
	}
}

func TestReprocessCmd_ServerError(t *testing.T) {
	withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"wallet not found"}`, http.StatusNotFound)
	})

	cmd := reprocessCmd()
	cmd.SetArgs([]string{"missing"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	var execErr error
	captureOutput(t, func() {
		execErr = cmd.Execute()
	})

	if execErr == nil {
		t.Fatal("expected error for 404 response")
	}
}

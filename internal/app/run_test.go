package app

import (
	"bytes"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestRun_ServeCommand_UnreachableDatabase_ReturnsError はserveコマンドがDB接続に失敗した場合に
// サーバーを起動せずエラーを返すことを検証する。
func TestRun_ServeCommand_UnreachableDatabase_ReturnsError(t *testing.T) {
	setTestEnv(t)

	var buf bytes.Buffer
	err := Run(&buf, []string{"serve"})
	if err == nil {
		t.Fatal("Run(serve) with unreachable database should return error")
	}
	if !strings.Contains(err.Error(), "database") {
		t.Errorf("error = %v, should mention database", err)
	}
}

func TestRun_DefaultCommand_UnreachableDatabase_ReturnsError(t *testing.T) {
	setTestEnv(t)

	var buf bytes.Buffer
	if err := Run(&buf, []string{}); err == nil {
		t.Fatal("Run([]) with unreachable database should return error")
	}
}

func TestRun_ServeCommand_InvalidModerationScope_ReturnsError(t *testing.T) {
	setTestEnv(t)
	t.Setenv("MODERATION_SCOPE", "everything")

	var buf bytes.Buffer
	err := Run(&buf, []string{"serve"})
	if err == nil {
		t.Fatal("Run(serve) with invalid MODERATION_SCOPE should return error")
	}
	if !strings.Contains(err.Error(), "moderation scope") {
		t.Errorf("error = %v, should mention moderation scope", err)
	}
}

func TestRun_WorkerCommand_UnreachableDatabase_ReturnsError(t *testing.T) {
	setTestEnv(t)

	var buf bytes.Buffer
	if err := Run(&buf, []string{"worker"}); err == nil {
		t.Fatal("Run(worker) with unreachable database should return error")
	}
}

func TestRun_WorkerCommand_RedisSessions_ReturnsImmediately(t *testing.T) {
	setTestEnv(t)
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("REDIS_URL", "redis://127.0.0.1:1/0")

	var buf bytes.Buffer
	if err := Run(&buf, []string{"worker"}); err != nil {
		t.Fatalf("Run(worker) with redis sessions should not fail, got %v", err)
	}
	if !strings.Contains(buf.String(), "session cleanup is not required") {
		t.Errorf("expected skip log, got %s", buf.String())
	}
}

func TestRun_MigrateCommand_UnreachableDatabase_ReturnsError(t *testing.T) {
	setTestEnv(t)

	var buf bytes.Buffer
	if err := Run(&buf, []string{"migrate"}); err == nil {
		t.Fatal("Run(migrate) with unreachable database should return error")
	}
}

func TestRun_WithMissingEnv_ReturnsError(t *testing.T) {
	clearRequiredEnv(t)

	var buf bytes.Buffer
	if err := Run(&buf, []string{"serve"}); err == nil {
		t.Fatal("Run with missing env should return error")
	}
}

func TestRunHealthcheck(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"healthy", http.StatusOK, false},
		{"unavailable", http.StatusServiceUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/health" {
					t.Errorf("path = %q, want /health", r.URL.Path)
				}
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, port, err := net.SplitHostPort(srv.Listener.Addr().String())
			if err != nil {
				t.Fatalf("failed to parse listener address: %v", err)
			}

			err = runHealthcheck(port)
			if (err != nil) != tt.wantErr {
				t.Errorf("runHealthcheck() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRunHealthcheck_NoServer_ReturnsError(t *testing.T) {
	if err := runHealthcheck("1"); err == nil {
		t.Fatal("runHealthcheck should fail when nothing is listening")
	}
}

func TestMaskDatabaseURL_HidesPassword(t *testing.T) {
	got := maskDatabaseURL("postgres://newsdesk:s3cret@db:5432/newsdesk?sslmode=disable")
	if strings.Contains(got, "s3cret") {
		t.Errorf("maskDatabaseURL() = %q, should not contain the password", got)
	}
	if !strings.Contains(got, "db:5432") {
		t.Errorf("maskDatabaseURL() = %q, should keep the host", got)
	}
	if got := maskDatabaseURL("not a url"); got != "***" {
		t.Errorf("maskDatabaseURL(invalid) = %q, want ***", got)
	}
}

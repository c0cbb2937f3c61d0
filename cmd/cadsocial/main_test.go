package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/SantanaDZ/cad-social/internal/app"
	"github.com/SantanaDZ/cad-social/internal/config"
	"github.com/SantanaDZ/cad-social/internal/identity"
)

type cliTestEnv struct {
	baseDir     string
	configPath  string
	prefsPath   string
	sessionPath string
	dataDir     string
}

func setupCLITestEnv(t *testing.T, extra string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", base)
	env := &cliTestEnv{
		baseDir:     base,
		configPath:  filepath.Join(base, "config.toml"),
		prefsPath:   filepath.Join(base, "prefs.toml"),
		sessionPath: filepath.Join(base, "session.toml"),
		dataDir:     filepath.Join(base, "data"),
	}
	content := fmt.Sprintf("data_dir = %q\nsession_path = %q\nstorage = \"file\"\n%s", env.dataDir, env.sessionPath, extra)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, env *cliTestEnv, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	flags := []string{"--config", env.configPath, "--prefs", env.prefsPath}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}

func openRuntime(t *testing.T, env *cliTestEnv) *app.Runtime {
	t.Helper()
	rt, err := app.Open(context.Background(), app.Options{ConfigPath: env.configPath, PrefsPath: env.prefsPath})
	if err != nil {
		t.Fatalf("app.Open: %v", err)
	}
	return rt
}

func enqueue(t *testing.T, env *cliTestEnv, names ...string) []string {
	t.Helper()
	rt := openRuntime(t, env)
	defer rt.Close()
	ids := make([]string, 0, len(names))
	for _, name := range names {
		id, err := rt.Queue.Enqueue(map[string]any{
			"nome_completo": name,
			"cidade":        "Recife",
			"estado":        "PE",
		})
		if err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

func queueLen(t *testing.T, env *cliTestEnv) int {
	t.Helper()
	rt := openRuntime(t, env)
	defer rt.Close()
	return rt.Queue.Len()
}

func signToken(t *testing.T, sub string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"email": sub + "@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte("segredo"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestQueueListEmptyAndPopulated(t *testing.T) {
	env := setupCLITestEnv(t, "")

	out, _, err := runCLI(t, env, "", "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "Nenhuma inscrição pendente.")

	ids := enqueue(t, env, "Ana Silva", "Bruno Lima")

	out, _, err = runCLI(t, env, "", "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, ids[0])
	requireContains(t, out, "Ana Silva")
	requireContains(t, out, "Bruno Lima")
	requireContains(t, out, "Recife/PE")
	if strings.Index(out, "Ana Silva") > strings.Index(out, "Bruno Lima") {
		t.Fatalf("queue list out of order:\n%s", out)
	}
}

func TestQueueDiscard(t *testing.T) {
	env := setupCLITestEnv(t, "")
	ids := enqueue(t, env, "Ana Silva", "Bruno Lima", "Carla Souza")

	if _, _, err := runCLI(t, env, "", "queue", "discard"); err == nil {
		t.Fatal("discard without ids or --all should fail")
	}
	if _, _, err := runCLI(t, env, "", "queue", "discard", "missing-id", "--yes"); err == nil {
		t.Fatal("discard of unknown id should fail")
	}
	if _, _, err := runCLI(t, env, "", "queue", "discard", ids[1]); err == nil {
		t.Fatal("discard without a terminal should require --yes")
	}

	out, _, err := runCLI(t, env, "", "queue", "discard", ids[1], "--yes")
	if err != nil {
		t.Fatalf("queue discard: %v", err)
	}
	requireContains(t, out, "1 inscrição(ões) descartada(s).")
	if n := queueLen(t, env); n != 2 {
		t.Fatalf("queue len = %d, want 2", n)
	}

	out, _, err = runCLI(t, env, "", "queue", "discard", "--all", "-y")
	if err != nil {
		t.Fatalf("queue discard --all: %v", err)
	}
	requireContains(t, out, "2 inscrição(ões) descartada(s).")
	if n := queueLen(t, env); n != 0 {
		t.Fatalf("queue len = %d, want 0", n)
	}
}

func TestQueueSyncOfflineKeepsQueue(t *testing.T) {
	env := setupCLITestEnv(t, "")
	enqueue(t, env, "Ana Silva")

	out, _, err := runCLI(t, env, "", "queue", "sync")
	if err != nil {
		t.Fatalf("queue sync: %v", err)
	}
	requireContains(t, out, "Sem conexão")
	if n := queueLen(t, env); n != 1 {
		t.Fatalf("queue len = %d, want 1", n)
	}
}

func TestQueueSyncDrainsToAPI(t *testing.T) {
	var mu sync.Mutex
	var inserted []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead:
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPost && r.URL.Path == "/rest/v1/inscricoes":
			var record map[string]any
			_ = json.NewDecoder(r.Body).Decode(&record)
			mu.Lock()
			inserted = append(inserted, record)
			mu.Unlock()
			w.WriteHeader(http.StatusCreated)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	env := setupCLITestEnv(t, fmt.Sprintf("api_url = %q\njwt_secret = \"segredo\"\n", srv.URL))
	if err := identity.SaveSession(env.sessionPath, identity.Session{AccessToken: signToken(t, "user-7")}); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	enqueue(t, env, "Ana Silva", "Bruno Lima")

	out, _, err := runCLI(t, env, "", "queue", "sync")
	if err != nil {
		t.Fatalf("queue sync: %v", err)
	}
	requireContains(t, out, "2 inscrição(ões) sincronizada(s) com sucesso!")
	if n := queueLen(t, env); n != 0 {
		t.Fatalf("queue len = %d, want 0", n)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(inserted) != 2 {
		t.Fatalf("inserted = %d, want 2", len(inserted))
	}
	if inserted[0]["nome_completo"] != "Ana Silva" || inserted[0]["user_id"] != "user-7" {
		t.Fatalf("first insert = %#v", inserted[0])
	}
}

func TestQueueSyncWithoutSessionAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	env := setupCLITestEnv(t, fmt.Sprintf("api_url = %q\n", srv.URL))
	enqueue(t, env, "Ana Silva")

	out, _, err := runCLI(t, env, "", "queue", "sync")
	if err == nil {
		t.Fatal("sync without a session should fail")
	}
	requireContains(t, out, "Sessão expirada")
	if n := queueLen(t, env); n != 1 {
		t.Fatalf("queue len = %d, want 1", n)
	}
}

func TestReviewCommands(t *testing.T) {
	var mu sync.Mutex
	var requests []string
	var patched map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, r.Method+" "+r.URL.Path+"?"+r.URL.RawQuery)
		mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `[{"id":"sub-1","user_id":"u1","nome_completo":"Ana Silva","cidade":"Recife","estado":"PE","status":"pendente","created_at":"2026-10-01T12:00:00Z"}]`)
		case http.MethodPatch:
			mu.Lock()
			_ = json.NewDecoder(r.Body).Decode(&patched)
			mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	env := setupCLITestEnv(t, fmt.Sprintf("api_url = %q\n", srv.URL))

	out, _, err := runCLI(t, env, "", "review", "list", "--status", "pendente")
	if err != nil {
		t.Fatalf("review list: %v", err)
	}
	requireContains(t, out, "sub-1")
	requireContains(t, out, "Ana Silva")
	requireContains(t, out, "Recife/PE")

	if _, _, err := runCLI(t, env, "", "review", "status", "sub-1", "arquivado"); err == nil {
		t.Fatal("unknown status should be rejected")
	}

	out, _, err = runCLI(t, env, "", "review", "status", "sub-1", "Aprovado", "--notes", "Documentação ok")
	if err != nil {
		t.Fatalf("review status: %v", err)
	}
	requireContains(t, out, "aprovado")

	out, _, err = runCLI(t, env, "", "review", "delete", "sub-1", "--yes")
	if err != nil {
		t.Fatalf("review delete: %v", err)
	}
	requireContains(t, out, "excluída")

	mu.Lock()
	defer mu.Unlock()
	if patched["status"] != "aprovado" || patched["observacoes"] != "Documentação ok" {
		t.Fatalf("patch body = %#v", patched)
	}
	joined := strings.Join(requests, "\n")
	requireContains(t, joined, "status=eq.pendente")
	requireContains(t, joined, "PATCH /rest/v1/inscricoes?id=eq.sub-1")
	requireContains(t, joined, "DELETE /rest/v1/inscricoes?id=eq.sub-1")
}

func TestReviewShowStatsAndSearch(t *testing.T) {
	var mu sync.Mutex
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusOK)
			return
		}
		mu.Lock()
		queries = append(queries, r.URL.RawQuery)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		q := r.URL.Query()
		switch {
		case q.Get("id") == "eq.sub-1":
			_, _ = io.WriteString(w, `[{"id":"sub-1","nome_completo":"Ana Silva","genero":"feminino","renda_familiar":1250.5,"possui_beneficio_gov":true,"cidade":"Recife","estado":"PE","status":"pendente","membros_familia":4,"extra_col":"x"}]`)
		case q.Get("id") != "":
			_, _ = io.WriteString(w, `[]`)
		case q.Get("select") == "status,cidade,estado":
			_, _ = io.WriteString(w, `[{"status":"pendente","cidade":"Recife","estado":"PE"},{"status":"aprovado","cidade":"Recife","estado":"PE"},{"status":"pendente","cidade":"Natal","estado":"RN"}]`)
		default:
			_, _ = io.WriteString(w, `[]`)
		}
	}))
	defer srv.Close()

	env := setupCLITestEnv(t, fmt.Sprintf("api_url = %q\n", srv.URL))

	out, _, err := runCLI(t, env, "", "review", "show", "sub-1")
	if err != nil {
		t.Fatalf("review show: %v", err)
	}
	for _, want := range []string{"Nome completo", "Ana Silva", "Feminino", "R$ 1.250,50", "Sim", "extra_col"} {
		requireContains(t, out, want)
	}

	if _, _, err := runCLI(t, env, "", "review", "show", "ghost"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("review show ghost error = %v, want not found", err)
	}

	out, _, err = runCLI(t, env, "", "review", "stats")
	if err != nil {
		t.Fatalf("review stats: %v", err)
	}
	for _, want := range []string{"pendente", "aprovado", "rejeitado", "Recife/PE", "Natal/RN"} {
		requireContains(t, out, want)
	}

	out, _, err = runCLI(t, env, "", "review", "list", "--search", "Silva", "--limit", "10", "--page", "3")
	if err != nil {
		t.Fatalf("review list --search: %v", err)
	}
	requireContains(t, out, "Nenhuma inscrição encontrada.")

	if _, _, err := runCLI(t, env, "", "review", "list", "--page", "0"); err == nil {
		t.Fatal("page 0 should be rejected")
	}

	mu.Lock()
	defer mu.Unlock()
	joined := strings.Join(queries, "\n")
	requireContains(t, joined, "or=%28nome_completo.ilike.%2ASilva%2A")
	requireContains(t, joined, "offset=20")
}

func TestFormatCurrency(t *testing.T) {
	cases := map[float64]string{
		0:       "R$ 0,00",
		12.3:    "R$ 12,30",
		1250.5:  "R$ 1.250,50",
		1234567: "R$ 1.234.567,00",
		-99.999: "-R$ 100,00",
	}
	for in, want := range cases {
		if got := formatCurrency(in); got != want {
			t.Errorf("formatCurrency(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestReviewRequiresRemote(t *testing.T) {
	env := setupCLITestEnv(t, "")
	_, _, err := runCLI(t, env, "", "review", "list")
	if err == nil || !strings.Contains(err.Error(), "api_url") {
		t.Fatalf("review list error = %v, want missing api_url", err)
	}
}

func TestSessionSetShowClear(t *testing.T) {
	env := setupCLITestEnv(t, "jwt_secret = \"segredo\"\n")

	out, _, err := runCLI(t, env, "", "session", "show")
	if err != nil {
		t.Fatalf("session show: %v", err)
	}
	requireContains(t, out, "Nenhuma sessão ativa.")

	if _, _, err := runCLI(t, env, "", "session", "set"); err == nil {
		t.Fatal("session set without a token should fail")
	}

	out, _, err = runCLI(t, env, signToken(t, "user-9")+"\n", "session", "set")
	if err != nil {
		t.Fatalf("session set: %v", err)
	}
	requireContains(t, out, "user-9@example.com (user-9)")

	out, _, err = runCLI(t, env, "", "session", "show")
	if err != nil {
		t.Fatalf("session show: %v", err)
	}
	requireContains(t, out, "Sessão ativa: user-9@example.com")

	if _, _, err := runCLI(t, env, "", "session", "clear"); err != nil {
		t.Fatalf("session clear: %v", err)
	}
	if _, err := os.Stat(env.sessionPath); !os.IsNotExist(err) {
		t.Fatalf("session file still present: %v", err)
	}
}

func TestLogsFilters(t *testing.T) {
	env := setupCLITestEnv(t, "")
	cfg, err := config.Load(env.configPath)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	if err := os.MkdirAll(cfg.LogDir(), 0o755); err != nil {
		t.Fatalf("mkdir logs: %v", err)
	}
	lines := []string{
		"2026-10-18T10:00:00Z DEBUG connectivity: probe ok",
		"2026-10-18T10:00:01Z INFO queue: submission queued id=a1",
		"2026-10-18T10:00:02Z WARN reconcile: sync aborted: no signed-in user",
		"2026-10-18T10:00:03Z ERROR reconcile: insert failed id=a1",
	}
	if err := os.WriteFile(cfg.LogPath(), []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, env, "", "logs", "--level", "warn")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.Contains(out, "probe ok") || strings.Contains(out, "submission queued") {
		t.Fatalf("level filter leaked lines:\n%s", out)
	}
	requireContains(t, out, "sync aborted")
	requireContains(t, out, "insert failed")

	out, _, err = runCLI(t, env, "", "logs", "--component", "queue")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.TrimSpace(out) != lines[1] {
		t.Fatalf("component filter = %q", out)
	}

	out, _, err = runCLI(t, env, "", "logs", "-n", "1", "--match", "probe")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "Nenhum registro encontrado.")
}

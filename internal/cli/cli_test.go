package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu      sync.Mutex
	tasks   []map[string]any
	updates []map[string]any
}

func send(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": status < 300, "message": message, "data": data})
}

func startAPI(t *testing.T) (*fakeAPI, string) {
	t.Helper()
	f := &fakeAPI{tasks: []map[string]any{
		{"id": 42, "projectId": "p1", "title": "Maquettes", "status": "TODO", "priority": "URGENT", "assignees": []any{}},
		{"id": 43, "projectId": "p1", "title": "Recette", "status": "TODO", "priority": "URGENT", "assignees": []any{}},
	}}
	alice := map[string]any{"id": "u1", "name": "Alice Martin", "email": "alice@x.io"}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		if in["password"] != "secret" {
			send(w, http.StatusUnauthorized, "Invalid credentials", nil)
			return
		}
		send(w, http.StatusOK, "", map[string]any{"token": "tok-alice", "user": alice})
	})
	mux.HandleFunc("GET /auth/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-alice" {
			send(w, http.StatusUnauthorized, "Token invalide", nil)
			return
		}
		send(w, http.StatusOK, "", map[string]any{"user": alice})
	})
	mux.HandleFunc("GET /projects", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		send(w, http.StatusOK, "", map[string]any{"projects": []any{
			map[string]any{"id": "p0", "name": "Calme", "owner": alice, "members": []any{}, "tasks": []any{}},
			map[string]any{"id": "p1", "name": "Lancement", "owner": alice, "members": []any{}, "tasks": f.tasks},
		}})
	})
	mux.HandleFunc("GET /projects/{id}/tasks", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		send(w, http.StatusOK, "", map[string]any{"tasks": f.tasks})
	})
	mux.HandleFunc("GET /dashboard/assigned-tasks", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		send(w, http.StatusOK, "", map[string]any{"tasks": f.tasks})
	})
	mux.HandleFunc("GET /dashboard/stats", func(w http.ResponseWriter, r *http.Request) {
		send(w, http.StatusInternalServerError, "boom", nil)
	})
	mux.HandleFunc("PUT /projects/{id}/tasks/{taskId}", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		f.mu.Lock()
		defer f.mu.Unlock()
		f.updates = append(f.updates, in)
		for _, task := range f.tasks {
			if r.PathValue("taskId") == "42" && task["id"] == 42 {
				for k, v := range in {
					task[k] = v
				}
				send(w, http.StatusOK, "", map[string]any{"task": task})
				return
			}
		}
		send(w, http.StatusNotFound, "Tâche introuvable", nil)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv.URL
}

// useBackend points the client at url with a fresh token file.
func useBackend(t *testing.T, url string) string {
	t.Helper()
	tokenPath := filepath.Join(t.TempDir(), "token")
	t.Setenv("ABRICOT_API_URL", url)
	t.Setenv("ABRICOT_TOKEN_PATH", tokenPath)
	t.Setenv("CACHE_BACKEND", "memory")
	return tokenPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	registerCommands()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append(args, "--config-dir", t.TempDir(), "--env", "test"))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLoginWithBadPasswordStoresNothing(t *testing.T) {
	_, url := startAPI(t)
	tokenPath := useBackend(t, url)

	_, err := run(t, "login", "--email", "alice@x.io", "--password", "nope")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", err.Error())

	_, statErr := os.Stat(tokenPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCommandsRequireLogin(t *testing.T) {
	_, url := startAPI(t)
	useBackend(t, url)

	_, err := run(t, "projects")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non connecté")
}

func TestLoginThenWorkTheBoard(t *testing.T) {
	f, url := startAPI(t)
	tokenPath := useBackend(t, url)

	out, err := run(t, "login", "--email", "alice@x.io", "--password", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Connecté en tant que Alice Martin")
	saved, err := os.ReadFile(tokenPath)
	require.NoError(t, err)
	assert.Equal(t, "tok-alice", string(saved))

	out, err = run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "AL  Alice Martin")

	out, err = run(t, "projects")
	require.NoError(t, err)
	assert.Contains(t, out, "Prioritaire")
	assert.Less(t, strings.Index(out, "Lancement"), strings.Index(out, "Calme"))

	out, err = run(t, "tasks", "move", "p1", "42", "done")
	require.NoError(t, err)
	assert.Contains(t, out, "Tâche déplacée vers Terminée")
	require.Len(t, f.updates, 1)
	assert.Equal(t, map[string]any{"status": "DONE"}, f.updates[0])

	out, err = run(t, "tasks", "move", "p1", "42", "DONE")
	require.NoError(t, err)
	assert.Contains(t, out, "Aucun changement")
	assert.Len(t, f.updates, 1)

	// Stats fail: the dashboard falls back to the local summary.
	out, err = run(t, "dashboard", "--view", "kanban")
	require.NoError(t, err)
	assert.Contains(t, out, "Tâches: 2")
	assert.Contains(t, out, "À faire (1)")
	assert.Contains(t, out, "Terminée (1)")

	out, err = run(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Déconnecté")
	_, statErr := os.Stat(tokenPath)
	assert.True(t, os.IsNotExist(statErr))
}

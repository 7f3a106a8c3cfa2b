package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"abricot/internal/api"
	"abricot/internal/model"
	"abricot/internal/token"
	"abricot/pkg/trace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestBearerAndTraceHeaders(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "trace-1", r.Header.Get(trace.HeaderName))
		assert.Equal(t, "/auth/profile", r.URL.Path)
		_, _ = io.WriteString(w, `{"success":true,"message":"","data":{"user":{"id":7,"name":null,"email":"a@x.io"}}}`)
	})
	c := api.NewClient(srv.URL+"/", token.NewMemoryStore("tok"), nil)

	user, err := c.GetProfile(trace.WithContext(context.Background(), "trace-1"))
	require.NoError(t, err)
	assert.Equal(t, model.ID("7"), user.ID)
	assert.Equal(t, "a@x.io", user.DisplayName())
}

func TestNoTokenSendsNoAuthorization(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"success":true,"data":{"token":"t","user":{"id":"u1","email":"a@x.io"}}}`)
	})
	c := api.NewClient(srv.URL, token.NewMemoryStore(""), nil)

	resp, err := c.Login(context.Background(), model.LoginPayload{Email: "a@x.io", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "t", resp.Token)
}

func TestUnwrapAcceptsBareData(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"data":[{"id":"p1","name":"Alpha","_count":{"tasks":3}}]}`)
	})
	c := api.NewClient(srv.URL, nil, nil)

	projects, err := c.GetProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, 3, projects[0].TaskCount)
}

func TestErrorKeepsBackendMessage(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"success":false,"message":"Invalid credentials"}`)
	})
	c := api.NewClient(srv.URL, nil, nil)

	_, err := c.Login(context.Background(), model.LoginPayload{Email: "a", Password: "b"})
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", err.Error())
	assert.Equal(t, http.StatusUnauthorized, api.StatusCode(err))
	assert.True(t, api.IsUnauthorized(err))
}

func TestErrorWithoutMessageFallsBack(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `<html>oops</html>`)
	})
	c := api.NewClient(srv.URL, nil, nil)

	err := c.DeleteProject(context.Background(), "p1")
	require.Error(t, err)
	assert.Equal(t, api.DefaultErrorMessage, err.Error())
	assert.Equal(t, http.StatusInternalServerError, api.StatusCode(err))
}

func TestTransportFailureHasNoStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c := api.NewClient(url, nil, nil)

	_, err := c.GetProjects(context.Background())
	require.Error(t, err)
	var reqErr *api.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Zero(t, reqErr.Status)
	assert.Equal(t, api.DefaultErrorMessage, reqErr.Message)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestRequestBodies(t *testing.T) {
	var got map[string]any
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/projects/p%201/tasks/42", r.URL.EscapedPath())
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"success":true,"data":{"task":{"id":42,"title":"x","status":"DONE"}}}`)
	})
	c := api.NewClient(srv.URL, nil, nil)

	task, err := c.UpdateTask(context.Background(), "p 1", "42", model.StatusUpdate(model.StatusDone))
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, task.Status)
	assert.Equal(t, map[string]any{"status": "DONE"}, got)
}

func TestSearchUsersEncodesQuery(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "a&b", r.URL.Query().Get("query"))
		_, _ = io.WriteString(w, `{"success":true,"data":{"users":[]}}`)
	})
	c := api.NewClient(srv.URL, nil, nil)

	users, err := c.SearchUsers(context.Background(), "a&b")
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestContributorWritesIgnoreResponseBody(t *testing.T) {
	var calls []string
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		// Whatever the backend returns about the member is not decoded.
		_, _ = io.WriteString(w, `{"success":true,"data":{"member":"not an object"}}`)
	})
	c := api.NewClient(srv.URL, token.NewMemoryStore("tok"), nil)

	require.NoError(t, c.AddContributor(context.Background(), "p1", model.ContributorInput{Email: "bob@x.io"}))
	require.NoError(t, c.UpdateContributorRole(context.Background(), "p1", "u2", model.RoleAdmin))
	assert.Equal(t, []string{
		"POST /projects/p1/contributors",
		"PUT /projects/p1/contributors/u2",
	}, calls)
}

package api_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/allbugisi/scanapi/internal/api"
)

func TestNewClient(t *testing.T) {
	t.Parallel()
	cases := []struct {
		scenario string
		given    string
		wantErr  bool
	}{
		{"valid", "http://127.0.0.1:8775", false},
		{"valid_trailing_slash", "http://127.0.0.1:8775/", false},
		{"no_scheme", "127.0.0.1:8775", true},
		{"with_path", "http://127.0.0.1:8775/api", true},
		{"empty", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()
			c, err := api.NewClient(tc.given)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "http://127.0.0.1:8775", c.BaseURL())
		})
	}
}

func TestSend(t *testing.T) {
	t.Parallel()

	t.Run("no success key passes body through", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"status": "running", "returncode": null}`)
		}))
		t.Cleanup(srv.Close)

		c, err := api.NewClient(srv.URL)
		require.NoError(t, err)

		env, err := c.Send(t.Context(), http.MethodGet, "/scan/abc123/status", nil)
		require.NoError(t, err)
		require.Equal(t, api.Envelope{"status": "running", "returncode": nil}, env)
	})

	t.Run("success false fails with RequestError", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"success": false, "message": "no such task"}`)
		}))
		t.Cleanup(srv.Close)

		c, err := api.NewClient(srv.URL)
		require.NoError(t, err)

		env, err := c.Send(t.Context(), http.MethodGet, "/task/nope/delete", nil)
		require.Nil(t, env)
		var reqErr *api.RequestError
		require.ErrorAs(t, err, &reqErr)
		require.Equal(t, srv.URL+"/task/nope/delete", reqErr.URL)
		require.EqualError(t, err, "request to "+srv.URL+"/task/nope/delete failed")
	})

	t.Run("success true returns body unchanged", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"success": true, "taskid": "abc123"}`)
		}))
		t.Cleanup(srv.Close)

		c, err := api.NewClient(srv.URL)
		require.NoError(t, err)

		env, err := c.Send(t.Context(), http.MethodGet, "/task/new", nil)
		require.NoError(t, err)
		require.Equal(t, api.Envelope{"success": true, "taskid": "abc123"}, env)
	})

	t.Run("invalid body fails with DecodeError", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `500 Internal Server Error`)
		}))
		t.Cleanup(srv.Close)

		c, err := api.NewClient(srv.URL)
		require.NoError(t, err)

		env, err := c.Send(t.Context(), http.MethodGet, "/task/new", nil)
		require.Nil(t, env)
		var decErr *api.DecodeError
		require.ErrorAs(t, err, &decErr)
		require.Equal(t, srv.URL+"/task/new", decErr.URL)
	})

	t.Run("json body is posted", func(t *testing.T) {
		t.Parallel()
		var gotBody []byte
		var gotContentType string
		var gotMethod string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotContentType = r.Header.Get("Content-Type")
			gotBody, _ = io.ReadAll(r.Body)
			_, _ = io.WriteString(w, `{"success": true}`)
		}))
		t.Cleanup(srv.Close)

		c, err := api.NewClient(srv.URL)
		require.NoError(t, err)

		_, err = c.Send(t.Context(), http.MethodPost, "/option/abc123/get", []string{"cookie", "referer"})
		require.NoError(t, err)
		require.Equal(t, http.MethodPost, gotMethod)
		require.Equal(t, "application/json", gotContentType)
		require.JSONEq(t, `["cookie","referer"]`, string(gotBody))
	})

	t.Run("unsupported method", func(t *testing.T) {
		t.Parallel()
		c, err := api.NewClient("http://127.0.0.1:8775")
		require.NoError(t, err)

		_, err = c.Send(t.Context(), "TRACE", "/task/new", nil)
		require.EqualError(t, err, `method "TRACE" is not supported`)
	})

	t.Run("transport error surfaces unchanged", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // refuse connections on purpose

		c, err := api.NewClient(srv.URL)
		require.NoError(t, err)

		env, err := c.Send(t.Context(), http.MethodGet, "/task/new", nil)
		require.Nil(t, env)
		require.Error(t, err)
		var reqErr *api.RequestError
		require.NotErrorAs(t, err, &reqErr)
	})
}

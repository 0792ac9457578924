package restapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tencent-go/restbind/errx"
	"github.com/tencent-go/restbind/transport"
	"github.com/tencent-go/restbind/types"
)

func TestConfigValidate(t *testing.T) {
	assert.Nil(t, Config{Host: "api.example.com"}.Validate())
	assert.Nil(t, Config{Host: "127.0.0.1:8443", Scheme: types.SchemeHttp}.Validate())
	assert.NotNil(t, Config{}.Validate())
	assert.NotNil(t, Config{Host: "bad host"}.Validate())
	assert.NotNil(t, Config{Host: "api.example.com/v1"}.Validate())
	assert.NotNil(t, Config{Host: "api.example.com", Scheme: "ftp"}.Validate())
}

func TestConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	content := "scheme: http\n" +
		"host: api.example.com\n" +
		"pathPrefix: /v2\n" +
		"appendTrailingSlash: true\n" +
		"timeout: 2s\n" +
		"header:\n" +
		"  User-Agent: [gizmo-client]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := ConfigFromFile(path)
	require.Nil(t, err)
	assert.Equal(t, types.SchemeHttp, cfg.Scheme)
	assert.Equal(t, "api.example.com", cfg.Host)
	assert.Equal(t, "/v2", cfg.PathPrefix)
	assert.True(t, cfg.AppendTrailingSlash)
	assert.Equal(t, 2*time.Second, cfg.Timeout.Std())
	assert.Equal(t, "gizmo-client", cfg.Header.Get("User-Agent"))

	t.Run("missing file", func(t *testing.T) {
		_, err := ConfigFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.NotNil(t, err)
	})

	t.Run("invalid host rejected", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("host: 'no spaces allowed'\n"), 0o600))
		_, err := ConfigFromFile(bad)
		require.NotNil(t, err)
		assert.Equal(t, errx.TypeValidation, err.Type())
	})
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("GIZMO_SCHEME", "http")
	t.Setenv("GIZMO_HOST", "api.example.com")
	t.Setenv("GIZMO_PATH_PREFIX", "v1")
	t.Setenv("GIZMO_APPEND_TRAILING_SLASH", "true")
	t.Setenv("GIZMO_TIMEOUT", "3s")

	cfg, err := ConfigFromEnv("GIZMO")
	require.Nil(t, err)
	assert.Equal(t, types.SchemeHttp, cfg.Scheme)
	assert.Equal(t, "api.example.com", cfg.Host)
	assert.Equal(t, "v1", cfg.PathPrefix)
	assert.True(t, cfg.AppendTrailingSlash)
	assert.Equal(t, 3*time.Second, cfg.Timeout.Std())

	t.Run("scheme defaults to https", func(t *testing.T) {
		t.Setenv("OTHER_HOST", "internal")
		cfg, err := ConfigFromEnv("OTHER")
		require.Nil(t, err)
		assert.Equal(t, types.SchemeHttps, cfg.Scheme)
		assert.Zero(t, cfg.Timeout)
	})

	t.Run("missing host fails", func(t *testing.T) {
		_, err := ConfigFromEnv("UNSET")
		assert.NotNil(t, err)
	})
}

func TestNew(t *testing.T) {
	_, err := New(Config{})
	require.NotNil(t, err)
	assert.Equal(t, errx.TypeValidation, err.Type())

	client, err := New(Config{Host: "api.example.com"})
	require.Nil(t, err)
	defer client.Close()
	assert.Equal(t, types.SchemeHttps, client.Config().Scheme)
	assert.Nil(t, client.Codec())

	jsonClient, err := NewJson(Config{Host: "api.example.com"})
	require.Nil(t, err)
	defer jsonClient.Close()
	assert.Equal(t, types.ContentTypeApplicationJson, jsonClient.Codec().ContentType())

	packClient, err := NewMsgpack(Config{Host: "api.example.com"})
	require.Nil(t, err)
	defer packClient.Close()
	assert.Equal(t, types.ContentTypeApplicationMsgpack, packClient.Codec().ContentType())
}

func TestClientHeaders(t *testing.T) {
	mock := transport.NewMock().Reply(http.StatusOK, nil).Reply(http.StatusOK, nil)
	client, err := NewJson(
		Config{Host: "api.example.com", Header: http.Header{"X-Team": []string{"config"}, "X-Base": []string{"a"}}},
		WithTransport(mock),
		WithHeader("X-Team", "option"),
		WithIdempotencyKey(),
	)
	require.Nil(t, err)

	_, err = client.Do(context.Background(), &Request{Method: types.MethodPost, Path: "objects", Body: []byte(`{}`)})
	require.Nil(t, err)
	_, err = client.Do(context.Background(), &Request{Method: types.MethodGet, Path: "objects",
		Header: http.Header{"X-Team": []string{"call"}}})
	require.Nil(t, err)

	reqs := mock.Requests()
	require.Len(t, reqs, 2)

	post := reqs[0]
	assert.Equal(t, "https://api.example.com/objects", post.URL)
	assert.Equal(t, "option", post.Header.Get("X-Team"))
	assert.Equal(t, "a", post.Header.Get("X-Base"))
	assert.NotEmpty(t, post.Header.Get(HeaderRequestID))
	assert.NotEmpty(t, post.Header.Get(HeaderIdempotencyKey))
	assert.Equal(t, "application/json", post.Header.Get("Content-Type"))
	assert.Equal(t, "application/json", post.Header.Get("Accept"))

	get := reqs[1]
	assert.Equal(t, "call", get.Header.Get("X-Team"))
	assert.Empty(t, get.Header.Get(HeaderIdempotencyKey), "idempotency keys are for mutating methods only")
	assert.Empty(t, get.Header.Get("Content-Type"), "no body, no content type")
	assert.NotEqual(t, post.Header.Get(HeaderRequestID), get.Header.Get(HeaderRequestID))
}

func TestClientBuildURL(t *testing.T) {
	mock := transport.NewMock().Reply(http.StatusOK, nil).Reply(http.StatusOK, nil)
	client, err := New(
		Config{Scheme: types.SchemeHttp, Host: "h", PathPrefix: "/api/v1/", AppendTrailingSlash: true},
		WithTransport(mock),
	)
	require.Nil(t, err)

	_, err = client.Do(context.Background(), &Request{Path: types.NewPath("/objects/42/")})
	require.Nil(t, err)
	_, err = client.Do(context.Background(), &Request{})
	require.Nil(t, err)

	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "http://h/api/v1/objects/42/", reqs[0].URL)
	assert.Equal(t, "http://h/api/v1/", reqs[1].URL)
}

func TestClientArgumentChecks(t *testing.T) {
	mock := transport.NewMock()
	client, err := New(Config{Host: "h"}, WithTransport(mock))
	require.Nil(t, err)

	_, derr := client.Do(context.Background(), nil)
	require.NotNil(t, derr)
	assert.Equal(t, errx.TypeArgument, derr.Type())

	_, derr = client.Do(context.Background(), &Request{Method: "FETCH"})
	require.NotNil(t, derr)
	assert.Equal(t, errx.TypeArgument, derr.Type())
	assert.Equal(t, 0, mock.Calls(), "argument failures must precede any I/O")
}

func TestClientStatusError(t *testing.T) {
	mock := transport.NewMock().ReplyJson(http.StatusNotFound, `{"detail":"missing"}`)
	client, err := NewJson(Config{Host: "h"}, WithTransport(mock))
	require.Nil(t, err)

	res, derr := client.Do(context.Background(), &Request{Path: "objects/7"})
	assert.Nil(t, res)
	require.NotNil(t, derr)
	assert.Equal(t, errx.TypeHTTP, derr.Type())
	assert.Equal(t, http.StatusNotFound, derr.Code())
	assert.Contains(t, derr.Error(), "404")
}

func TestClientClean(t *testing.T) {
	t.Run("payload decoded", func(t *testing.T) {
		mock := transport.NewMock().ReplyJson(http.StatusOK, `{"id":"7","name":"gizmo"}`)
		client, err := NewJson(Config{Host: "h"}, WithTransport(mock))
		require.Nil(t, err)

		res, derr := client.Do(context.Background(), &Request{Path: "objects/7"})
		require.Nil(t, derr)
		data, ok := res.Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "gizmo", data["name"])
	})

	t.Run("empty body skipped", func(t *testing.T) {
		mock := transport.NewMock().Reply(http.StatusNoContent, nil)
		client, err := NewJson(Config{Host: "h"}, WithTransport(mock))
		require.Nil(t, err)

		res, derr := client.Do(context.Background(), &Request{Method: types.MethodDelete, Path: "objects/7"})
		require.Nil(t, derr)
		assert.Nil(t, res.Data)
		assert.Empty(t, res.Body)
	})

	t.Run("malformed payload", func(t *testing.T) {
		mock := transport.NewMock().Reply(http.StatusOK, []byte("{"))
		client, err := NewJson(Config{Host: "h"}, WithTransport(mock))
		require.Nil(t, err)

		_, derr := client.Do(context.Background(), &Request{Path: "objects"})
		require.NotNil(t, derr)
		assert.Equal(t, errx.TypeDecode, derr.Type())
	})

	t.Run("no codec leaves body raw", func(t *testing.T) {
		mock := transport.NewMock().Reply(http.StatusOK, []byte("plain text"))
		client, err := New(Config{Host: "h"}, WithTransport(mock))
		require.Nil(t, err)

		res, derr := client.Do(context.Background(), &Request{Path: "objects"})
		require.Nil(t, derr)
		assert.Nil(t, res.Data)
		assert.Equal(t, "plain text", string(res.Body))
	})
}

func TestClientSetup(t *testing.T) {
	t.Run("handshake headers cached", func(t *testing.T) {
		mock := transport.NewMock().
			ReplyJson(http.StatusOK, `{"token":"abc"}`).
			Reply(http.StatusOK, nil)
		client, err := NewJson(Config{Host: "h"}, WithTransport(mock),
			WithSetup(func(ctx context.Context, c *Client) (http.Header, errx.Error) {
				res, err := c.Do(ctx, &Request{Method: types.MethodPost, Path: "auth/session"})
				if err != nil {
					return nil, err
				}
				token, _ := res.Data.(map[string]any)["token"].(string)
				h := make(http.Header)
				h.Set("Authorization", "Bearer "+token)
				return h, nil
			}))
		require.Nil(t, err)

		_, derr := client.Do(context.Background(), &Request{Path: "objects"})
		require.Nil(t, derr)

		reqs := mock.Requests()
		require.Len(t, reqs, 2)
		assert.Empty(t, reqs[0].Header.Get("Authorization"))
		assert.Equal(t, "Bearer abc", reqs[1].Header.Get("Authorization"))
	})

	t.Run("handshake failure is fatal", func(t *testing.T) {
		client, err := New(Config{Host: "h"}, WithTransport(transport.NewMock()),
			WithSetup(func(ctx context.Context, c *Client) (http.Header, errx.Error) {
				return nil, errx.New("handshake refused")
			}))
		assert.Nil(t, client)
		require.NotNil(t, err)
		assert.Contains(t, err.Error(), "client setup failed")
	})
}

func TestClientResponseHook(t *testing.T) {
	mock := transport.NewMock().ReplyJson(http.StatusOK, `{"ok":false}`)
	client, err := NewJson(Config{Host: "h"}, WithTransport(mock),
		WithResponseHook(func(res *Response) errx.Error {
			if data, ok := res.Data.(map[string]any); ok && data["ok"] == false {
				return errx.HTTP.WithMsg("application level failure").Err()
			}
			return nil
		}))
	require.Nil(t, err)

	_, derr := client.Do(context.Background(), &Request{Path: "objects"})
	require.NotNil(t, derr)
	assert.Equal(t, errx.TypeHTTP, derr.Type())
}

func TestClientAgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/echo":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"path":"` + r.URL.Path + `","q":"` + r.URL.Query().Get("q") + `"}`))
		case "/v1/slow":
			time.Sleep(200 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	host := strings.TrimPrefix(srv.URL, "http://")

	t.Run("roundtrip", func(t *testing.T) {
		client, err := NewJson(Config{Scheme: types.SchemeHttp, Host: host, PathPrefix: "v1"})
		require.Nil(t, err)
		defer client.Close()

		res, derr := client.Do(context.Background(), &Request{Path: "echo", Query: url.Values{"q": []string{"42"}}})
		require.Nil(t, derr)
		assert.Equal(t, http.StatusOK, res.Status)
		data := res.Data.(map[string]any)
		assert.Equal(t, "/v1/echo", data["path"])
		assert.Equal(t, "42", data["q"])
	})

	t.Run("deadline", func(t *testing.T) {
		client, err := NewJson(Config{Scheme: types.SchemeHttp, Host: host, PathPrefix: "v1"},
			WithTimeout(50*time.Millisecond))
		require.Nil(t, err)
		defer client.Close()

		_, derr := client.Do(context.Background(), &Request{Path: "slow"})
		require.NotNil(t, derr)
		assert.Equal(t, errx.TypeTimeout, derr.Type())
	})
}

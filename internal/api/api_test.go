package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sundsvall.se/integration-eneo/internal/appinfo"
	"sundsvall.se/integration-eneo/internal/auth"
	"sundsvall.se/integration-eneo/internal/core"
	"sundsvall.se/integration-eneo/internal/eneo"
	"sundsvall.se/integration-eneo/internal/files"
	"sundsvall.se/integration-eneo/internal/logger"
	"sundsvall.se/integration-eneo/internal/oauth"
	"sundsvall.se/integration-eneo/internal/reference"
	"sundsvall.se/integration-eneo/internal/store"
)

type testEnv struct {
	server   *httptest.Server
	storage  *files.Storage
	fs       afero.Fs
	accounts *core.UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens := auth.NewTokens("test-secret")
	accounts := core.NewUserService(db, tokens)
	settings := core.NewSettingsService(db, "")
	fsys := afero.NewMemMapFs()
	storage := files.NewStorage(fsys, db)

	registry := reference.NewRegistry()
	registry.RegisterReferenceProvider(reference.NewEneoProvider("http://cloud.example"))

	handler := NewAPIHandler(Deps{
		Settings:   settings,
		Eneo:       eneo.NewClient(settings, nil, logger.Discard()),
		Files:      storage,
		References: registry,
		Accounts:   accounts,
		OAuth:      oauth.NewFlow(settings, tokens, "http://cloud.example"+appinfo.RoutePrefix+"/oauth/callback", nil, nil),
		Logger:     logger.Discard(),
	})

	server := httptest.NewServer(NewRouter(handler))
	t.Cleanup(server.Close)

	return &testEnv{server: server, storage: storage, fs: fsys, accounts: accounts}
}

// login creates the account and returns its session token.
func (e *testEnv) login(t *testing.T, uid string, isAdmin bool) string {
	t.Helper()
	_, err := e.accounts.CreateUser(context.Background(), uid, "pw-"+uid, isAdmin)
	require.NoError(t, err)
	token, err := e.accounts.Login(context.Background(), uid, "pw-"+uid)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) (*http.Response, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.server.URL+appinfo.RoutePrefix+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(raw)
}

func newEneoServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/chat":
			assert.Equal(t, "Bearer tok123", r.Header.Get("Authorization"))
			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "hello", body["message"])
			w.Write([]byte(`{"response":"hi"}`))
		case "/api/v1/documents/index":
			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "/notes.txt", body["file_path"])
			assert.Equal(t, "remember the milk", body["content"])
			assert.Equal(t, "nextcloud", body["source"])
			w.Write([]byte(`{"status":"indexed"}`))
		case "/api/v1/documents":
			w.Write([]byte(`[{"file_id":"1"}]`))
		case "/api/v1/health":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestChatEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	var calls atomic.Int32
	remote := newEneoServer(t, &calls)

	admin := env.login(t, "admin", true)
	alice := env.login(t, "alice", false)

	resp, body := env.do(t, http.MethodPost, "/admin/config", admin, `{"values":{"eneo_url":"`+remote.URL+`/"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.JSONEq(t, `{"status":"success"}`, body)

	resp, body = env.do(t, http.MethodPost, "/user/config", alice, `{"oauth_access_token":"tok123"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	resp, body = env.do(t, http.MethodPost, "/api/chat", alice, `{"message":"hello"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.JSONEq(t, `{"response":"hi"}`, body)
	assert.Equal(t, int32(1), calls.Load())

	resp, body = env.do(t, http.MethodGet, "/api/indexed-files", alice, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.JSONEq(t, `[{"file_id":"1"}]`, body)
}

func TestChatWithoutToken(t *testing.T) {
	env := newTestEnv(t)
	var calls atomic.Int32
	remote := newEneoServer(t, &calls)

	admin := env.login(t, "admin", true)
	alice := env.login(t, "alice", false)
	env.do(t, http.MethodPost, "/admin/config", admin, `{"eneo_url":"`+remote.URL+`"}`)

	resp, body := env.do(t, http.MethodPost, "/api/chat", alice, `{"message":"hello"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, "not authenticated with Eneo")
	assert.Zero(t, calls.Load())
}

func TestChatValidation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.login(t, "alice", false)

	resp, _ := env.do(t, http.MethodPost, "/api/chat", alice, `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatForwardsEmptyMessage(t *testing.T) {
	env := newTestEnv(t)

	var calls atomic.Int32
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"message":"","context":{},"stream":false}`, string(raw))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":""}`))
	}))
	defer remote.Close()

	admin := env.login(t, "admin", true)
	alice := env.login(t, "alice", false)
	env.do(t, http.MethodPost, "/admin/config", admin, `{"eneo_url":"`+remote.URL+`"}`)
	env.do(t, http.MethodPost, "/user/config", alice, `{"oauth_access_token":"tok123"}`)

	resp, body := env.do(t, http.MethodPost, "/api/chat", alice, `{"message":""}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.JSONEq(t, `{"response":""}`, body)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAuthorization(t *testing.T) {
	env := newTestEnv(t)
	alice := env.login(t, "alice", false)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"anonymous chat", http.MethodPost, "/api/chat", "", http.StatusUnauthorized},
		{"anonymous user config", http.MethodGet, "/user/config", "", http.StatusUnauthorized},
		{"anonymous admin config", http.MethodPost, "/admin/config", "", http.StatusUnauthorized},
		{"user admin config", http.MethodPost, "/admin/config", alice, http.StatusForbidden},
		{"user admin settings", http.MethodGet, "/settings/admin", alice, http.StatusForbidden},
		{"garbage token", http.MethodGet, "/user/config", "not-a-jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.do(t, tt.method, tt.path, tt.token, `{"eneo_url":"http://x"}`)
			assert.Equal(t, tt.want, resp.StatusCode, body)
		})
	}
}

func TestUserConfigDefaults(t *testing.T) {
	env := newTestEnv(t)
	alice := env.login(t, "alice", false)

	resp, body := env.do(t, http.MethodGet, "/user/config", alice, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"oauth_access_token":"","eneo_enabled":"1"}`, body)

	resp, _ = env.do(t, http.MethodPost, "/user/config", alice, `{"eneo_enabled":false}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, body = env.do(t, http.MethodGet, "/user/config", alice, "")
	assert.JSONEq(t, `{"oauth_access_token":"","eneo_enabled":"0"}`, body)
}

func TestSetConfigRejectsNestedValues(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(t, "admin", true)

	resp, _ := env.do(t, http.MethodPost, "/admin/config", admin, `{"eneo_url":{"nested":true}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIndexFile(t *testing.T) {
	env := newTestEnv(t)
	var calls atomic.Int32
	remote := newEneoServer(t, &calls)

	admin := env.login(t, "admin", true)
	alice := env.login(t, "alice", false)
	env.do(t, http.MethodPost, "/admin/config", admin, `{"eneo_url":"`+remote.URL+`"}`)
	env.do(t, http.MethodPost, "/user/config", alice, `{"oauth_access_token":"tok123"}`)

	ctx := context.Background()
	folder, err := env.storage.UserFolder("alice")
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(folder, "/notes.txt", []byte("remember the milk"), 0o640))
	require.NoError(t, folder.MkdirAll("/Documents", 0o750))
	_, err = env.storage.Scan(ctx, "alice")
	require.NoError(t, err)

	nodes, err := env.storage.List(ctx, "alice")
	require.NoError(t, err)
	ids := map[string]int64{}
	for _, n := range nodes {
		ids[n.Path] = n.ID
	}
	require.Contains(t, ids, "/notes.txt")
	require.Contains(t, ids, "/Documents")

	t.Run("numeric id", func(t *testing.T) {
		resp, body := env.do(t, http.MethodPost, "/api/index-file", alice, `{"fileId":`+itoa(ids["/notes.txt"])+`}`)
		require.Equal(t, http.StatusOK, resp.StatusCode, body)
		assert.JSONEq(t, `{"status":"indexed"}`, body)
	})

	t.Run("string id", func(t *testing.T) {
		resp, body := env.do(t, http.MethodPost, "/api/index-file", alice, `{"fileId":"`+itoa(ids["/notes.txt"])+`"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode, body)
	})

	before := calls.Load()

	t.Run("folder", func(t *testing.T) {
		resp, body := env.do(t, http.MethodPost, "/api/index-file", alice, `{"fileId":`+itoa(ids["/Documents"])+`}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.JSONEq(t, `{"error":"Not a file"}`, body)
	})

	t.Run("unknown id", func(t *testing.T) {
		resp, body := env.do(t, http.MethodPost, "/api/index-file", alice, `{"fileId":999999}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.JSONEq(t, `{"error":"File not found"}`, body)
	})

	t.Run("other user's file", func(t *testing.T) {
		bob := env.login(t, "bob", false)
		resp, _ := env.do(t, http.MethodPost, "/api/index-file", bob, `{"fileId":`+itoa(ids["/notes.txt"])+`}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	assert.Equal(t, before, calls.Load())
}

func TestRemoveFromIndex(t *testing.T) {
	env := newTestEnv(t)
	alice := env.login(t, "alice", false)

	resp, body := env.do(t, http.MethodDelete, "/api/remove-from-index", alice, "")
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
	assert.JSONEq(t, `{"status":"not_implemented"}`, body)
}

func TestTestConnection(t *testing.T) {
	env := newTestEnv(t)
	var calls atomic.Int32
	remote := newEneoServer(t, &calls)

	admin := env.login(t, "admin", true)
	alice := env.login(t, "alice", false)

	env.do(t, http.MethodPost, "/admin/config", admin, `{"eneo_url":"http://127.0.0.1:1"}`)
	resp, body := env.do(t, http.MethodGet, "/test-connection", alice, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success":false,"message":"Failed to connect to Eneo"}`, body)

	env.do(t, http.MethodPost, "/admin/config", admin, `{"eneo_url":"`+remote.URL+`"}`)
	_, body = env.do(t, http.MethodGet, "/test-connection", alice, "")
	assert.JSONEq(t, `{"success":true,"message":"Connection to Eneo successful"}`, body)
}

func TestCapabilities(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/capabilities", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"integration_eneo":{"enabled":false,"version":"1.0.0","features":{"smart_picker":true,"reference_provider":true,"file_context":true,"oauth2_sso":true}}}`, body)

	admin := env.login(t, "admin", true)
	env.do(t, http.MethodPost, "/admin/config", admin, `{"eneo_url":"http://eneo.example"}`)

	_, body = env.do(t, http.MethodGet, "/capabilities", "", "")
	assert.Contains(t, body, `"enabled":true`)
}

func TestSessions(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodPost, "/session/signup", "", `{"user_id":"carol","password":"secret"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.NotContains(t, body, "password")

	resp, _ = env.do(t, http.MethodPost, "/session/signup", "", `{"user_id":"carol","password":"secret"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/session/login", "", `{"user_id":"carol","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = env.do(t, http.MethodPost, "/session/login", "", `{"user_id":"carol","password":"secret"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	require.NotEmpty(t, out["token"])

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	req, err := http.NewRequest(http.MethodGet, env.server.URL+appinfo.RoutePrefix+"/user/config", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)
	cookieResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	cookieResp.Body.Close()
	assert.Equal(t, http.StatusOK, cookieResp.StatusCode)
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(t, "admin", true)
	alice := env.login(t, "alice", false)

	resp, _ := env.do(t, http.MethodDelete, "/admin/users/alice", admin, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = env.do(t, http.MethodDelete, "/admin/users/alice", admin, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/user/config", alice, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestReferences(t *testing.T) {
	env := newTestEnv(t)
	alice := env.login(t, "alice", false)

	resp, body := env.do(t, http.MethodGet, "/references/providers", alice, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"id":"integration_eneo"`)

	resp, body = env.do(t, http.MethodGet, "/references/resolve?reference="+url.QueryEscape("https://eneo.example/conversation/abc123"), alice, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"title":"Eneo AI Conversation"`)

	_, body = env.do(t, http.MethodGet, "/references/resolve?reference="+url.QueryEscape("https://example.com/page"), alice, "")
	assert.JSONEq(t, `{"references":{"https://example.com/page":null}}`, body)
}

func TestSettingsPages(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(t, "admin", true)
	alice := env.login(t, "alice", false)

	resp, body := env.do(t, http.MethodGet, "/settings/admin", admin, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, "http://localhost:8000")

	resp, _ = env.do(t, http.MethodGet, "/settings/personal", alice, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// postForm submits an HTML form the way a browser without scripts would.
func (e *testEnv) postForm(t *testing.T, action, token string, form url.Values) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, e.server.URL+action, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func formAction(t *testing.T, html, formID string) string {
	t.Helper()
	m := regexp.MustCompile(`id="` + formID + `" [^>]*method="post" action="([^"]+)"`).FindStringSubmatch(html)
	require.NotNil(t, m, "form %s has no post action", formID)
	return m[1]
}

func TestAdminSettingsFormSubmits(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(t, "admin", true)

	_, page := env.do(t, http.MethodGet, "/settings/admin", admin, "")
	action := formAction(t, page, "eneo-admin-form")
	assert.Equal(t, appinfo.RoutePrefix+"/admin/config", action)

	resp := env.postForm(t, action, admin, url.Values{
		"eneo_url":            {"http://eneo.internal:9000"},
		"oauth_client_id":     {"nextcloud"},
		"oauth_client_secret": {"s3cret"},
		"enabled":             {"0"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, appinfo.RoutePrefix+"/settings/admin", resp.Header.Get("Location"))

	_, page = env.do(t, http.MethodGet, "/settings/admin", admin, "")
	assert.Contains(t, page, `value="http://eneo.internal:9000"`)
	assert.Contains(t, page, `value="nextcloud"`)
	assert.NotContains(t, page, `name="enabled" value="1" checked`)

	_, caps := env.do(t, http.MethodGet, "/capabilities", "", "")
	assert.Contains(t, caps, `"enabled":true`)
}

func TestPersonalSettingsFormsSubmit(t *testing.T) {
	env := newTestEnv(t)
	alice := env.login(t, "alice", false)
	env.do(t, http.MethodPost, "/user/config", alice, `{"oauth_access_token":"tok123"}`)

	_, page := env.do(t, http.MethodGet, "/settings/personal", alice, "")

	resp := env.postForm(t, formAction(t, page, "eneo-user-form"), alice, url.Values{"eneo_enabled": {"0"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp = env.postForm(t, formAction(t, page, "eneo-disconnect-form"), alice, url.Values{"oauth_access_token": {""}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, appinfo.RoutePrefix+"/settings/personal", resp.Header.Get("Location"))

	_, body := env.do(t, http.MethodGet, "/user/config", alice, "")
	assert.JSONEq(t, `{"oauth_access_token":"","eneo_enabled":"0"}`, body)
}

func TestOAuthAuthorize(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(t, "admin", true)
	alice := env.login(t, "alice", false)

	resp, _ := env.do(t, http.MethodGet, "/oauth/authorize", alice, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	env.do(t, http.MethodPost, "/admin/config", admin, `{"eneo_url":"http://eneo.example","oauth_client_id":"nc"}`)

	resp, _ = env.do(t, http.MethodGet, "/oauth/authorize", alice, "")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	target, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "eneo.example", target.Host)
	assert.Equal(t, "/oauth/authorize", target.Path)
	assert.Equal(t, "nc", target.Query().Get("client_id"))

	resp, _ = env.do(t, http.MethodGet, "/oauth/callback?code=abc&state=forged", alice, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/oauth/callback?error=access_denied", alice, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

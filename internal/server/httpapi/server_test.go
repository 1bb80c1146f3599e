package httpapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dmitrijs2005/quickcollab/internal/common"
	"github.com/dmitrijs2005/quickcollab/internal/logging"
	"github.com/dmitrijs2005/quickcollab/internal/server/config"
	"github.com/dmitrijs2005/quickcollab/internal/server/realtime"
	"github.com/dmitrijs2005/quickcollab/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/quickcollab/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "k"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	m := repomanager.NewInMemoryRepositoryManager()
	cfg := &config.Config{
		SecretKey:                   testSecret,
		AccessTokenValidityDuration: time.Hour,
		RefreshGrace:                time.Hour,
	}
	svc := Services{
		Users:    services.NewUserService(m, cfg),
		Boards:   services.NewBoardService(m),
		Tasks:    services.NewTaskService(m),
		Comments: services.NewCommentService(m),
	}
	hub := realtime.NewHub(svc.Boards, nil, logging.Discard(), realtime.WithVersions(svc.Tasks))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return NewServer("", []string{"*"}, svc, hub, logging.Discard())
}

func call(t *testing.T, s *Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	assert.Equal(t, code, decode[errorBody](t, rec).Code)
}

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
}

func registerUser(t *testing.T, s *Server, name, email string) authResponse {
	t.Helper()
	rec := call(t, s, http.MethodPost, "/auth/register", "",
		`{"name":"`+name+`","email":"`+email+`","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[authResponse](t, rec)
}

func newPreflight(path string) *http.Request {
	req := httptest.NewRequest(http.MethodOptions, path, nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

package identity

import (
	"context"
	"errors"
	"github.com/labstack/echo/v4"
	"net/http"
	"net/http/httptest"
	"nutricare/cmd/internal/domain/entity"
	"nutricare/cmd/internal/utils/apierror"
	"testing"
)

type staticResolver struct {
	principals map[string]*Principal
	err        error
}

func (s *staticResolver) Resolve(_ context.Context, token string) (*Principal, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.principals[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	return p, nil
}

type recordingMirror struct {
	ids []int
	err apierror.ErrorResponse
}

func (r *recordingMirror) EnsureUser(_ context.Context, id int, _ string, _ entity.Role) apierror.ErrorResponse {
	r.ids = append(r.ids, id)
	return r.err
}

func serve(t *testing.T, mw []echo.MiddlewareFunc, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	e.GET("/", func(c echo.Context) error {
		p := PrincipalFromCtx(c)
		return c.JSON(http.StatusOK, echo.Map{"user_id": p.UserID})
	}, mw...)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware(t *testing.T) {
	resolver := &staticResolver{principals: map[string]*Principal{
		"client-token": {UserID: 10, Role: entity.RoleClient},
	}}

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{name: "missing", want: http.StatusUnauthorized},
		{name: "invalid", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic client-token", want: http.StatusUnauthorized},
		{name: "header", header: "Bearer client-token", want: http.StatusOK},
		{name: "query", query: "?token=client-token", want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mirror := &recordingMirror{}
			req := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}

			rec := serve(t, []echo.MiddlewareFunc{Middleware(resolver, mirror)}, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
			if tt.want == http.StatusOK && (len(mirror.ids) != 1 || mirror.ids[0] != 10) {
				t.Fatalf("user not mirrored: %v", mirror.ids)
			}
		})
	}
}

func TestMiddlewareResolverOutage(t *testing.T) {
	resolver := &staticResolver{err: errors.New("idp down")}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer x")

	rec := serve(t, []echo.MiddlewareFunc{Middleware(resolver, nil)}, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestMiddlewareMirrorFailure(t *testing.T) {
	resolver := &staticResolver{principals: map[string]*Principal{"t": {UserID: 1, Role: entity.RoleClient}}}
	mirror := &recordingMirror{err: apierror.StorageUnavailableError}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer t")

	rec := serve(t, []echo.MiddlewareFunc{Middleware(resolver, mirror)}, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	resolver := &staticResolver{principals: map[string]*Principal{
		"client":     {UserID: 10, Role: entity.RoleClient},
		"consultant": {UserID: 20, Role: entity.RoleConsultant},
	}}
	mw := []echo.MiddlewareFunc{Middleware(resolver, nil), RequireRole(entity.RoleConsultant)}

	for token, want := range map[string]int{"client": http.StatusForbidden, "consultant": http.StatusOK} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		if rec := serve(t, mw, req); rec.Code != want {
			t.Fatalf("%s: status = %d, want %d", token, rec.Code, want)
		}
	}
}

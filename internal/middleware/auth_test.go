package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"blood_connect_backend/internal/common"
	"blood_connect_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubTokenService struct {
	claims *shared.Claims
	err    error
}

func (s *stubTokenService) GenerateAccessToken(shared.DonorDataForToken) (string, time.Time, error) {
	return "stub-token", time.Now().Add(time.Hour), nil
}

func (s *stubTokenService) ValidateToken(string) (*shared.Claims, error) {
	return s.claims, s.err
}

type stubDonorProvider struct {
	donor *shared.Donor
	err   error
}

func (s *stubDonorProvider) GetDonorByID(context.Context, uuid.UUID) (*shared.Donor, error) {
	return s.donor, s.err
}

func authTestRouter(tokens shared.TokenService, donors shared.DonorProvider, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers := []gin.HandlerFunc{AuthMiddleware(tokens, donors, zap.NewNop())}
	handlers = append(handlers, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		authDonor := GetDonorFromContext(c)
		if authDonor == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "donor missing from context"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": authDonor.ID})
	})
	router.GET("/protected", handlers...)
	return router
}

func doAuthRequest(router *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set(AuthorizationHeader, header)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func stubDonor(role shared.Role) *shared.Donor {
	return &shared.Donor{
		ID:    uuid.New(),
		Name:  "Stub Donor",
		Email: "stub@example.com",
		Role:  role,
	}
}

func validStubs(role shared.Role) (*stubTokenService, *stubDonorProvider) {
	d := stubDonor(role)
	tokens := &stubTokenService{claims: &shared.Claims{DonorID: d.ID, Email: d.Email, Role: d.Role}}
	return tokens, &stubDonorProvider{donor: d}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	tokens, donors := validStubs(shared.RoleDonor)
	rec := doAuthRequest(authTestRouter(tokens, donors), "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	tokens, donors := validStubs(shared.RoleDonor)
	router := authTestRouter(tokens, donors)

	for _, header := range []string{"sometoken", "Basic abc123", "Bearer a b"} {
		rec := doAuthRequest(router, header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
		assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	tokens := &stubTokenService{err: errors.New("signature invalid")}
	rec := doAuthRequest(authTestRouter(tokens, &stubDonorProvider{}), "Bearer bad-token")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_TOKEN")
}

func TestAuthMiddleware_DonorNoLongerExists(t *testing.T) {
	tokens := &stubTokenService{claims: &shared.Claims{DonorID: uuid.New()}}
	donors := &stubDonorProvider{err: common.ErrNotFound}
	rec := doAuthRequest(authTestRouter(tokens, donors), "Bearer stale-token")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "no longer exists")
}

func TestAuthMiddleware_StoreFailure(t *testing.T) {
	tokens := &stubTokenService{claims: &shared.Claims{DonorID: uuid.New()}}
	donors := &stubDonorProvider{err: errors.New("connection refused")}
	rec := doAuthRequest(authTestRouter(tokens, donors), "Bearer some-token")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_SERVER_ERROR")
}

func TestAuthMiddleware_AttachesDonor(t *testing.T) {
	tokens, donors := validStubs(shared.RoleDonor)
	rec := doAuthRequest(authTestRouter(tokens, donors), "Bearer good-token")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), donors.donor.ID.String())
}

func TestAuthMiddleware_BearerCaseInsensitive(t *testing.T) {
	tokens, donors := validStubs(shared.RoleDonor)
	rec := doAuthRequest(authTestRouter(tokens, donors), "bearer good-token")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRequired_NonAdmin(t *testing.T) {
	tokens, donors := validStubs(shared.RoleDonor)
	rec := doAuthRequest(authTestRouter(tokens, donors, AdminRequired()), "Bearer good-token")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "FORBIDDEN")
}

func TestAdminRequired_Admin(t *testing.T) {
	tokens, donors := validStubs(shared.RoleAdmin)
	rec := doAuthRequest(authTestRouter(tokens, donors, AdminRequired()), "Bearer good-token")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRequired_WithoutAuthContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/admin", AdminRequired(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetDonorFromContext_WrongType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(DonorKey, "not a donor")

	assert.Nil(t, GetDonorFromContext(c))
}

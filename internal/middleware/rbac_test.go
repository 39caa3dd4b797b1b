package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/courseloop/marketplace-api/internal/models"
)

func runProtected(t *testing.T, claims *models.JWTClaims, email string, mw gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	c.Request = req
	if email != "" {
		c.Params = gin.Params{{Key: "email", Value: email}}
	}
	if claims != nil {
		c.Set(ContextUserKey, claims)
	}

	mw(c)
	if !c.IsAborted() {
		c.Status(http.StatusOK)
	}
	return w
}

func TestRequireRolesAllows(t *testing.T) {
	claims := &models.JWTClaims{Email: "boss@example.com", Role: models.RoleAdmin}
	w := runProtected(t, claims, "", RequireRoles(models.RoleAdmin))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRolesForbidsStudent(t *testing.T) {
	claims := &models.JWTClaims{Email: "kid@example.com", Role: models.RoleStudent}
	w := runProtected(t, claims, "", RequireRoles(models.RoleAdmin, models.RoleInstructor))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	w := runProtected(t, nil, "", RequireRoles(models.RoleAdmin))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireSelfMatchesCaseInsensitive(t *testing.T) {
	claims := &models.JWTClaims{Email: "Kid@Example.com", Role: models.RoleStudent}
	w := runProtected(t, claims, "kid@example.com", RequireSelf())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireSelfForbidsOtherStudent(t *testing.T) {
	claims := &models.JWTClaims{Email: "kid@example.com", Role: models.RoleStudent}
	w := runProtected(t, claims, "other@example.com", RequireSelf())
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireSelfAdminOverride(t *testing.T) {
	claims := &models.JWTClaims{Email: "boss@example.com", Role: models.RoleAdmin}
	w := runProtected(t, claims, "kid@example.com", RequireSelf())
	assert.Equal(t, http.StatusOK, w.Code)
}

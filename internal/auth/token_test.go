package auth

import (
	"net/http"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func TestExtractTokenFromRequest(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc123")

	token, err := ExtractTokenFromRequest(req)
	assert.NoError(t, err)
	assert.Equal(t, "abc123", token)
}

func TestExtractTokenFromRequestMissingHeader(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/", nil)

	_, err := ExtractTokenFromRequest(req)
	assert.Error(t, err)
}

func TestExtractTokenFromRequestBadFormat(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc123")

	_, err := ExtractTokenFromRequest(req)
	assert.Error(t, err)
}

func TestExtractUserIDFromJWT(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user1",
	}).SignedString([]byte("test-secret"))
	assert.NoError(t, err)

	sub, err := ExtractUserIDFromJWT(signed)
	assert.NoError(t, err)
	assert.Equal(t, "user1", sub)
}

func TestExtractUserIDFromJWTMissingSub(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"name": "no subject here",
	}).SignedString([]byte("test-secret"))
	assert.NoError(t, err)

	_, err = ExtractUserIDFromJWT(signed)
	assert.Error(t, err)
}

func TestExtractUserIDFromJWTGarbage(t *testing.T) {
	_, err := ExtractUserIDFromJWT("")
	assert.Error(t, err)

	_, err = ExtractUserIDFromJWT("not-a-jwt")
	assert.Error(t, err)
}

package controlplane

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func TestValidateChaosToken(t *testing.T) {
	s := &Server{cfg: Config{ChaosToken: "right"}}

	req := httptest.NewRequest(http.MethodGet, "/plan", nil)
	req.Header.Set("X-Chaos-Token", "right")
	assert.True(t, s.validateChaosToken(req))

	req.Header.Set("X-Chaos-Token", "wrong")
	assert.False(t, s.validateChaosToken(req))

	req.Header.Del("X-Chaos-Token")
	assert.False(t, s.validateChaosToken(req))
}

func TestValidateChaosToken_EmptyConfiguredTokenAlwaysFails(t *testing.T) {
	s := &Server{cfg: Config{ChaosToken: ""}}
	req := httptest.NewRequest(http.MethodGet, "/plan", nil)
	req.Header.Set("X-Chaos-Token", "")
	assert.False(t, s.validateChaosToken(req))
}

func TestValidateJWT_AcceptsValidHS256Token(t *testing.T) {
	s := &Server{cfg: Config{JWTStrict: true, JWTSecret: "shh"}}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte("shh"))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/plan", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	assert.True(t, s.validateJWT(req))
}

func TestValidateJWT_RejectsWrongSecret(t *testing.T) {
	s := &Server{cfg: Config{JWTStrict: true, JWTSecret: "shh"}}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte("other-secret"))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/plan", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	assert.False(t, s.validateJWT(req))
}

func TestValidateJWT_RejectsExpiredToken(t *testing.T) {
	s := &Server{cfg: Config{JWTStrict: true, JWTSecret: "shh"}}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	signed, err := token.SignedString([]byte("shh"))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/plan", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	assert.False(t, s.validateJWT(req))
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "", bearerToken("abc"))
	assert.Equal(t, "", bearerToken(""))
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func TestIssueAndParseToken(t *testing.T) {
	now := time.Now()
	signed, issued, err := IssueToken(testSecret, 42, "ada", now)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.JTI)

	claims, err := ParseToken(testSecret, signed)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "ada", claims.Username)
	assert.Equal(t, issued.JTI, claims.JTI)
	assert.WithinDuration(t, now.Add(TokenTTL), claims.ExpiresAt, time.Second)
}

func TestIssueToken_RequiresSecret(t *testing.T) {
	_, _, err := IssueToken("", 1, "ada", time.Now())
	assert.Error(t, err)
}

func TestParseToken_Rejects(t *testing.T) {
	sign := func(method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	valid := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub": strconv.Itoa(7),
			"iss": TokenIssuer,
			"aud": TokenAudience,
			"exp": time.Now().Add(time.Hour).Unix(),
		}
	}

	tests := []struct {
		name  string
		token func() string
	}{
		{"malformed", func() string { return "malformed.token.here" }},
		{"wrong secret", func() string {
			return sign(jwt.SigningMethodHS256, []byte("other-secret"), valid())
		}},
		{"expired", func() string {
			c := valid()
			c["exp"] = time.Now().Add(-time.Hour).Unix()
			return sign(jwt.SigningMethodHS256, []byte(testSecret), c)
		}},
		{"missing expiry", func() string {
			c := valid()
			delete(c, "exp")
			return sign(jwt.SigningMethodHS256, []byte(testSecret), c)
		}},
		{"wrong issuer", func() string {
			c := valid()
			c["iss"] = "someone-else"
			return sign(jwt.SigningMethodHS256, []byte(testSecret), c)
		}},
		{"wrong audience", func() string {
			c := valid()
			c["aud"] = "another-client"
			return sign(jwt.SigningMethodHS256, []byte(testSecret), c)
		}},
		{"non numeric subject", func() string {
			c := valid()
			c["sub"] = "ada"
			return sign(jwt.SigningMethodHS256, []byte(testSecret), c)
		}},
		{"wrong algorithm", func() string {
			return sign(jwt.SigningMethodHS512, []byte(testSecret), valid())
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ParseToken(testSecret, tt.token())
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestBearerToken(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(BearerToken(c))
	})

	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def", "abc.def"},
		{"bearer abc.def", "abc.def"},
		{"Basic dXNlcjpwYXNz", ""},
		{"Bearer", ""},
		{"", ""},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		buf := make([]byte, 64)
		n, _ := resp.Body.Read(buf)
		_ = resp.Body.Close()
		assert.Equal(t, tt.want, string(buf[:n]), "header %q", tt.header)
	}
}

package middlewares

import (
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const (
	authHeader   = "Authorization"
	bearerPrefix = "Bearer "

	// Audiences keep the two token populations apart: a guest token can
	// never pass session auth and vice versa. Guest calls have no session
	// refresh path at all.
	audSession = "session"
	audShare   = "share"

	sessionTTL = 24 * time.Hour
	guestTTL   = 30 * time.Minute
)

// Claims is our JWT payload. Sessions carry subject=userID; guest tokens
// carry subject=shareToken. Both carry the tenant schema.
type Claims struct {
	Schema string `json:"schema"`
	jwt.RegisteredClaims
}

var (
	secretOnce sync.Once
	jwtSecret  []byte
	secretErr  error
)

func loadJWTSecret() error {
	secretOnce.Do(func() {
		sec := os.Getenv("JWT_SECRET_KEY")
		if strings.TrimSpace(sec) == "" {
			sec = os.Getenv("JWT_SECRET")
		}
		if strings.TrimSpace(sec) == "" {
			secretErr = errors.New("JWT secret not configured (set JWT_SECRET_KEY or JWT_SECRET)")
			return
		}
		jwtSecret = []byte(sec)
	})
	return secretErr
}

func parseBearer(c *fiber.Ctx) (string, error) {
	h := c.Get(authHeader)
	if h == "" || !strings.HasPrefix(strings.ToLower(h), strings.ToLower(bearerPrefix)) {
		return "", errors.New("missing/invalid Authorization header")
	}
	raw := strings.TrimSpace(h[len(bearerPrefix):])
	if raw == "" {
		return "", errors.New("invalid bearer token")
	}
	return raw, nil
}

func parseClaims(raw, audience string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	var claims Claims
	token, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	if !claims.VerifyAudience(audience, true) {
		return nil, errors.New("token audience mismatch")
	}
	if strings.TrimSpace(claims.Subject) == "" || strings.TrimSpace(claims.Schema) == "" {
		return nil, errors.New("token missing subject/schema")
	}
	return &claims, nil
}

// IsAuthenticatedHeader validates a session Bearer token and populates
// c.Locals("userID","schema").
func IsAuthenticatedHeader() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := loadJWTSecret(); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "server auth not configured",
			})
		}
		raw, err := parseBearer(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": err.Error()})
		}
		claims, err := parseClaims(raw, audSession)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": err.Error()})
		}

		c.Locals("userID", claims.Subject)
		c.Locals("schema", claims.Schema)
		return c.Next()
	}
}

// IsVerifiedGuest validates a guest Bearer token issued by share-link
// open/verify, and populates c.Locals("shareToken","schema"). Guest calls
// never touch the session path and never trigger a session refresh.
func IsVerifiedGuest() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := loadJWTSecret(); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "server auth not configured",
			})
		}
		raw, err := parseBearer(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": err.Error()})
		}
		claims, err := parseClaims(raw, audShare)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": err.Error()})
		}

		c.Locals("shareToken", claims.Subject)
		c.Locals("schema", claims.Schema)
		return c.Next()
	}
}

func sign(subject, schema, audience string, ttl time.Duration) (string, error) {
	if err := loadJWTSecret(); err != nil {
		return "", err
	}
	now := time.Now()
	claims := &Claims{
		Schema: schema,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// GenerateJWT signs a session token for the given user & schema.
func GenerateJWT(userID, schema string) (string, error) {
	return sign(userID, schema, audSession, sessionTTL)
}

// GenerateGuestJWT signs a short-lived token bound to one share token,
// good for the remainder of the guest's browsing session.
func GenerateGuestJWT(shareToken, schema string) (string, error) {
	return sign(shareToken, schema, audShare, guestTTL)
}

// middleware/auth.go
package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"codemaster/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Auth verifies HS256 bearer tokens issued by the platform's login service.
type Auth struct {
	secret []byte
}

func NewAuth(secret string) *Auth {
	return &Auth{secret: []byte(secret)}
}

type identity struct {
	userID uuid.UUID
	role   string
}

// Required rejects requests without a valid token and stores the caller's
// id and role in locals.
func (a *Auth) Required(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Missing authorization header"})
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Invalid authorization header format"})
	}

	id, err := a.verify(parts[1])
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Invalid or expired token"})
	}

	c.Locals("userId", id.userID)
	c.Locals("role", id.role)
	return c.Next()
}

// RequireRoles lets through only callers whose role is listed. It must run
// after Required.
func RequireRoles(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("role").(string)
		for _, r := range roles {
			if r == role {
				return c.Next()
			}
		}
		return c.Status(403).JSON(fiber.Map{"success": false, "error": "Access denied"})
	}
}

// WebSocket authenticates an upgrade request. Browsers cannot set headers on
// websocket handshakes, so the token may also come from the "token" query
// parameter or cookie.
func (a *Auth) WebSocket(c *fiber.Ctx) error {
	var tokenString string

	if parts := strings.Split(c.Get("Authorization"), " "); len(parts) == 2 && parts[0] == "Bearer" {
		tokenString = parts[1]
	}
	if tokenString == "" {
		tokenString = c.Query("token")
	}
	if tokenString == "" {
		tokenString = c.Cookies("token")
	}
	if tokenString == "" {
		return fiber.NewError(401, "Missing token")
	}

	id, err := a.verify(tokenString)
	if err != nil {
		return fiber.NewError(401, "Invalid or expired token")
	}

	c.Locals("userId", id.userID)
	c.Locals("role", id.role)
	return c.Next()
}

func (a *Auth) verify(tokenString string) (identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return identity{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return identity{}, errors.New("invalid token claims")
	}

	raw, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(raw)
	if err != nil || userID == uuid.Nil {
		return identity{}, errors.New("invalid user id claim")
	}

	role, _ := claims["role"].(string)
	if role == "" {
		role = models.RoleStudent
	}
	return identity{userID: userID, role: role}, nil
}

// SignToken issues a token in the format Auth verifies. Used by the dev
// token command and tests.
func SignToken(secret string, userID uuid.UUID, role string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	userID, ok := c.Locals("userId").(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, fiber.NewError(401, "User not authenticated")
	}
	return userID, nil
}

func GetRole(c *fiber.Ctx) string {
	role, _ := c.Locals("role").(string)
	return role
}

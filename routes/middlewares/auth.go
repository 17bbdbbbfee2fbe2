package middlewares

import (
	"crypto/rsa"
	"encoding/base64"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v2"

	"github.com/zsmartex/tradecore/controllers/auth"
	"github.com/zsmartex/tradecore/controllers/helpers"
)

var (
	AuthzInvalidSession = "authz.invalid_session"
	JwtDecodeAndVerify  = "jwt.decode_and_verify"
)

// ParsePublicKey decodes a base64 encoded PEM RSA public key.
func ParsePublicKey(encoded string) (*rsa.PublicKey, error) {
	public_key_pem, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}

	return jwt.ParseRSAPublicKeyFromPEM(public_key_pem)
}

func Authenticate(public_key *rsa.PublicKey) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var claims auth.Auth

		token := c.Get("Authorization")
		if len(token) == 0 {
			return c.Status(401).JSON(helpers.Errors{
				Errors: []string{AuthzInvalidSession},
			})
		}

		token = strings.Replace(token, "Bearer ", "", -1)

		_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, jwt.ErrSignatureInvalid
			}

			return public_key, nil
		})
		if err != nil || claims.UID <= 0 {
			return c.Status(401).JSON(helpers.Errors{
				Errors: []string{JwtDecodeAndVerify},
			})
		}

		c.Locals("CurrentUser", &claims)

		return c.Next()
	}
}

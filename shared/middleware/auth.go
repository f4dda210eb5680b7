package middleware

import (
	"errors"
	"strings"
	"sync"

	"github.com/changzer/choppy/shared/errcode"
	"github.com/changzer/choppy/shared/result"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var (
	jwtSecretMu  sync.RWMutex
	jwtSecretVal []byte
)

// MustInitJWTSecret installs the HMAC key used to sign and verify tokens.
func MustInitJWTSecret(secret string) {
	if secret == "" {
		panic("JWT_SECRET is not set")
	}
	jwtSecretMu.Lock()
	defer jwtSecretMu.Unlock()
	jwtSecretVal = []byte(secret)
}

func JWTSecret() []byte {
	jwtSecretMu.RLock()
	defer jwtSecretMu.RUnlock()
	if jwtSecretVal == nil {
		panic("JWT secret used before MustInitJWTSecret")
	}
	return jwtSecretVal
}

type Claims struct {
	UserID  int64  `json:"userId"`
	Account string `json:"account"`
	Name    string `json:"name"`
	jwt.RegisteredClaims
}

// ParseToken verifies an HS256 token and returns its claims.
func ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return JWTSecret(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// TokenErrorCode picks the response code for a token parse failure.
func TokenErrorCode(err error) errcode.Code {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return errcode.JWTTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return errcode.JWTSignature
	case errors.Is(err, jwt.ErrTokenMalformed):
		return errcode.JWTParserTokenFail
	default:
		return errcode.JWTParserTokenFail
	}
}

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			result.Abort(c, errcode.JWTIllegalArgument)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			result.Abort(c, errcode.JWTIllegalArgument)
			return
		}

		claims, err := ParseToken(parts[1])
		if err != nil {
			result.Abort(c, TokenErrorCode(err))
			return
		}

		c.Set("userId", claims.UserID)
		c.Set("account", claims.Account)
		c.Next()
	}
}

func GetUserID(c *gin.Context) (int64, bool) {
	userID, exists := c.Get("userId")
	if !exists {
		return 0, false
	}
	id, ok := userID.(int64)
	return id, ok
}

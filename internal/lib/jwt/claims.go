package jwt

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/serpleno/serpleno/internal/models"
)

// Claims: содержимое сессионного токена.
type Claims struct {
	models.Identity
	jwt.RegisteredClaims
}

// CreateSession подписывает токен со снимком пользователя и сроком tokenTTL.
func (j *MakerImpl) CreateSession(identity models.Identity) (string, error) {
	now := j.now()
	claims := Claims{
		Identity: identity,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secretKey)
}

// VerifySession проверяет подпись и срок токена. Любая ошибка сводится к ErrInvalidToken.
func (j *MakerImpl) VerifySession(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(_ *jwt.Token) (any, error) {
		return j.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

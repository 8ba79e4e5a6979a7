// Package jwt выпускает и проверяет сессионные токены HS256 со снимком
// пользователя (id, имя, email, роль, план). Отзыва токенов нет: токен
// действует до истечения срока.
package jwt

import (
	"errors"
	"time"

	"github.com/serpleno/serpleno/internal/models"
)

// DefaultTTL: срок жизни сессии, если в конфиге не задан свой.
const DefaultTTL = 7 * 24 * time.Hour

var (
	// ErrInvalidToken возвращается при любой ошибке проверки токена.
	// Причина (подпись, срок, формат) намеренно не различается.
	ErrInvalidToken = errors.New("invalid token")
	// ErrEmptySecret возвращается конструктором при пустом ключе подписи.
	ErrEmptySecret = errors.New("jwt secret key is required")
)

// Maker выпускает и проверяет сессионные токены.
type Maker interface {
	CreateSession(identity models.Identity) (string, error)
	VerifySession(token string) (*Claims, error)
}

// MakerImpl реализует Maker на секретном ключе HMAC.
type MakerImpl struct {
	secretKey []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewJWTMaker создаёт Maker. Пустой ключ недопустим, значения по умолчанию нет.
func NewJWTMaker(secretKey string, ttl time.Duration) (*MakerImpl, error) {
	if secretKey == "" {
		return nil, ErrEmptySecret
	}
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &MakerImpl{
		secretKey: []byte(secretKey),
		tokenTTL:  ttl,
		now:       time.Now,
	}, nil
}

package middlewarectx

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"
)

// maxTokenBody ограничивает объём тела, просматриваемого в поисках поля token.
const maxTokenBody = 1 << 20

// replayBody отдаёт прочитанный префикс и непрочитанный остаток тела.
type replayBody struct {
	io.Reader
	io.Closer
}

// ExtractToken возвращает токен из заголовка Authorization: Bearer, а при его
// отсутствии из поля token JSON-тела. Прочитанное тело возвращается в запрос.
func ExtractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxTokenBody))
	r.Body = replayBody{Reader: io.MultiReader(bytes.NewReader(body), r.Body), Closer: r.Body}
	if err != nil {
		return ""
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Token
}

// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков. Каждый ответ платформы
// имеет вид {ok, error?, redirect?, data?}.
package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Поле OK: признак успеха.
// Поле Error: текст ошибки (при неуспехе).
// Поле Redirect: страница, на которую клиенту следует перейти.
// Поле Data: данные ответа.
type Response struct {
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
	Redirect string `json:"redirect,omitempty"`
	Data     any    `json:"data,omitempty"`
}

// ErrorResponse: структура ошибки для Swagger-документации.
// Используется в аннотациях @Failure как возвращаемый тип ошибки.
type ErrorResponse struct {
	OK       bool   `json:"ok" example:"false"`
	Error    string `json:"error" example:"invalid request body"`
	Redirect string `json:"redirect,omitempty" example:"/login"`
}

// OK возвращает успешный Response без данных.
func OK() Response {
	return Response{OK: true}
}

// OKWithData возвращает успешный Response с переданными данными.
func OKWithData(data any) Response {
	return Response{OK: true, Data: data}
}

// OKWithRedirect возвращает успешный Response с адресом перехода.
func OKWithRedirect(redirect string, data any) Response {
	return Response{OK: true, Redirect: redirect, Data: data}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) Response {
	return Response{Error: msg}
}

// ErrorWithRedirect возвращает ошибку с адресом, куда следует перенаправить клиента.
func ErrorWithRedirect(msg, redirect string) Response {
	return Response{Error: msg, Redirect: redirect}
}

// ValidationError формирует Response с ошибкой на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too short", err.Field()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of: %s", err.Field(), err.Param()))
		case "gt", "gte":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be positive", err.Field()))
		case "datetime":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must match format %s", err.Field(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Error: strings.Join(errsMsgs, ", "),
	}
}

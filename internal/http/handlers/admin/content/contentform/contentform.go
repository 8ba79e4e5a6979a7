// Package contentform читает поля материала из multipart-формы или JSON.
package contentform

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator"

	"github.com/serpleno/serpleno/internal/http/request"
	"github.com/serpleno/serpleno/internal/models"
	services "github.com/serpleno/serpleno/internal/services/content"
)

// Form: поля материала.
type Form struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
	Category    string `json:"category" validate:"required,max=100"`
	Day         int    `json:"day" validate:"gte=0"`
	IsFree      bool   `json:"is_free"`
}

// Input переводит форму во входные данные сервиса.
func (f Form) Input() services.Input {
	return services.Input{
		Title:       f.Title,
		Description: f.Description,
		Category:    f.Category,
		Day:         f.Day,
		IsFree:      f.IsFree,
	}
}

// Parse читает форму и необязательный файл из поля file.
// Ошибка валидации возвращается как validator.ValidationErrors, слишком
// большое тело как request.ErrTooLarge.
func Parse(w http.ResponseWriter, r *http.Request, validate *validator.Validate, limits request.Limits) (Form, *models.File, error) {
	var (
		form Form
		file *models.File
		err  error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := request.ParseForm(w, r, limits); err != nil {
			return form, nil, err
		}
		form, err = fromValues(r)
		if err != nil {
			return form, nil, err
		}
		if file, err = request.File(r, "file"); err != nil {
			return form, nil, err
		}
	} else if err := request.DecodeJSON(w, r, limits, &form); err != nil {
		return form, nil, fmt.Errorf("contentform.Parse: %w", err)
	}

	if err := validate.Struct(form); err != nil {
		return form, nil, err
	}
	return form, file, nil
}

func fromValues(r *http.Request) (Form, error) {
	form := Form{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
	}
	if s := r.FormValue("day"); s != "" {
		day, err := strconv.Atoi(s)
		if err != nil {
			return form, fmt.Errorf("contentform: invalid day: %w", err)
		}
		form.Day = day
	}
	if s := r.FormValue("is_free"); s != "" {
		free, err := strconv.ParseBool(s)
		if err != nil {
			return form, fmt.Errorf("contentform: invalid is_free: %w", err)
		}
		form.IsFree = free
	}
	return form, nil
}

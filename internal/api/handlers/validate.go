package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/m04kA/SMC-ShuttleService/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// В сообщениях используются имена полей из JSON
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	if err := v.RegisterValidation("date", validateDate); err != nil {
		panic(fmt.Sprintf("handlers: register date validation: %v", err))
	}
	return v
}

func validateDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(domain.DateFormat, strings.TrimSpace(fl.Field().String()))
	return err == nil
}

// ValidateStruct проверяет теги validate и возвращает читаемое описание первой ошибки
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}

	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
		case "date":
			messages = append(messages, fmt.Sprintf("%s must be a date in YYYY-MM-DD format", e.Field()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", e.Field()))
		}
	}
	return errors.New(strings.Join(messages, "; "))
}

// Package validation checks request and service input structs against their
// `validate` tags and turns failures into messages keyed by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("pastdate", pastDate)
		_ = v.RegisterValidation("pastyear", pastYear)
		validate = v
	})
	return validate
}

// pastDate accepts a YYYY-MM-DD date strictly before today.
func pastDate(fl validator.FieldLevel) bool {
	t, err := time.Parse(dateLayout, fl.Field().String())
	if err != nil {
		return false
	}
	return t.Before(time.Now())
}

// pastYear accepts a year no later than the current one.
func pastYear(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fl.Field().Int() <= int64(time.Now().Year())
	}
	return false
}

// FieldError is one failed rule.
type FieldError struct {
	Field string
	Rule  string
	Param string
	Kind  reflect.Kind
}

func (e FieldError) Error() string {
	return e.Field + " " + e.message()
}

func (e FieldError) message() string {
	switch e.Rule {
	case "required", "required_with":
		return "is required"
	case "max", "lte":
		return "must be at most " + e.Param + unit(e.Kind)
	case "min", "gte":
		if e.Param == "1" && isCollection(e.Kind) {
			return "needs at least one entry"
		}
		return "must be at least " + e.Param + unit(e.Kind)
	case "len":
		return "must be exactly " + e.Param + unit(e.Kind)
	case "oneof", "oneofci":
		return "must be one of " + strings.Join(strings.Fields(e.Param), ", ")
	case "email":
		return "is not a valid email address"
	case "url", "http_url":
		return "must be an http(s) URL"
	case "uuid":
		return "is not a valid id"
	case "numeric":
		return "must contain digits only"
	case "datetime":
		return "must match " + e.Param
	case "pastdate":
		return "must be a date in the past"
	case "pastyear":
		return "must not be in the future"
	}
	return "failed the " + e.Rule + " rule"
}

func isCollection(k reflect.Kind) bool {
	return k == reflect.Slice || k == reflect.Array || k == reflect.Map
}

func unit(k reflect.Kind) string {
	switch {
	case k == reflect.String:
		return " characters"
	case isCollection(k):
		return " entries"
	}
	return ""
}

// Errors lists every failed rule in field order.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether field failed any rule.
func (e Errors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

func convert(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field: fe.Field(),
			Rule:  fe.Tag(),
			Param: fe.Param(),
			Kind:  fe.Kind(),
		})
	}
	return out
}

// Struct validates every tagged field of s.
func Struct(s any) error {
	if err := instance().Struct(s); err != nil {
		return convert(err)
	}
	return nil
}

// StructPartial validates only the named Go fields of s.
func StructPartial(s any, fields ...string) error {
	if err := instance().StructPartial(s, fields...); err != nil {
		return convert(err)
	}
	return nil
}

// Var validates a single value against tag; field names it in the error.
func Var(field string, v any, tag string) error {
	err := instance().Var(v, tag)
	if err == nil {
		return nil
	}
	verr := convert(err)
	var out Errors
	if errors.As(verr, &out) {
		for i := range out {
			out[i].Field = field
		}
		return out
	}
	return fmt.Errorf("%s: %w", field, verr)
}

// Fiber plugs the validator into fiber.Config.StructValidator so Bind()
// rejects request bodies that break their tags.
type Fiber struct{}

func (Fiber) Validate(out any) error {
	t := reflect.TypeOf(out)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	return Struct(out)
}

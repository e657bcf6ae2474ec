package router

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gantrykit/gantry/errors"
)

// validate is shared by all request binding; validator instances cache
// struct metadata internally.
var validate = validator.New(validator.WithRequiredStructEnabled())

// BindRequest binds a request struct from all sources, then validates it.
//
//	type GetUserRequest struct {
//	    ID     string `path:"id"`
//	    Expand bool   `query:"expand"`
//	    APIKey string `header:"X-API-Key"`
//	    Name   string `json:"name" validate:"required"`
//	}
//
// Tag priority per field: path, then query, then header; remaining
// json-tagged fields are decoded from the body. Validation uses the
// validate tags and reports a VALIDATION_ERROR.
func (c *requestContext) BindRequest(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("BindRequest requires a non-nil pointer")
	}

	rv = rv.Elem()
	rt := rv.Type()

	if rt.Kind() != reflect.Struct {
		return c.Bind(v)
	}

	if hasBodyFields(rt) {
		if err := c.Bind(v); err != nil {
			// GET-like requests legitimately carry no body.
			if c.request.Method != "GET" && c.request.Method != "HEAD" && c.request.Method != "DELETE" {
				return errors.ErrValidationError("body", err)
			}
		}
	}

	for i := range rt.NumField() {
		field := rt.Field(i)
		fieldValue := rv.Field(i)

		if !field.IsExported() || !fieldValue.CanSet() {
			continue
		}

		if err := c.bindField(field, fieldValue); err != nil {
			return err
		}
	}

	if err := validate.Struct(v); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return err
		}

		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return errors.ErrValidationError(fieldErrs[0].Field(), err)
		}

		return errors.ErrValidationError("request", err)
	}

	return nil
}

// bindField binds one struct field from its tagged source.
func (c *requestContext) bindField(field reflect.StructField, fieldValue reflect.Value) error {
	var value, source string

	switch {
	case field.Tag.Get("path") != "":
		source = tagName(field.Tag.Get("path"), field.Name)
		value = c.Param(source)

		// Path parameters always exist on a matched route.
		if value == "" {
			return errors.ErrValidationError(source, fmt.Errorf("missing path parameter"))
		}
	case field.Tag.Get("query") != "":
		source = tagName(field.Tag.Get("query"), field.Name)
		value = c.Query(source)
	case field.Tag.Get("header") != "":
		source = tagName(field.Tag.Get("header"), field.Name)
		value = c.Header(source)
	default:
		return nil
	}

	if value == "" {
		if def := field.Tag.Get("default"); def != "" {
			value = def
		} else {
			return nil
		}
	}

	if err := setFieldValue(fieldValue, value); err != nil {
		return errors.ErrValidationError(source, err)
	}

	return nil
}

// hasBodyFields reports whether any field is decoded from the request body.
func hasBodyFields(rt reflect.Type) bool {
	for i := range rt.NumField() {
		field := rt.Field(i)

		if field.Tag.Get("path") != "" || field.Tag.Get("query") != "" || field.Tag.Get("header") != "" {
			continue
		}

		if tag := field.Tag.Get("json"); tag != "" && tag != "-" {
			return true
		}
	}

	return false
}

// tagName extracts the name portion of a tag value like "name,omitempty".
func tagName(tag, fallback string) string {
	if idx := strings.Index(tag, ","); idx != -1 {
		tag = tag[:idx]
	}

	tag = strings.TrimSpace(tag)
	if tag == "" {
		return fallback
	}

	return tag
}

// setFieldValue converts a string value to the field's type.
func setFieldValue(fieldValue reflect.Value, value string) error {
	switch fieldValue.Kind() {
	case reflect.String:
		fieldValue.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value %q", value)
		}

		fieldValue.SetInt(parsed)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		parsed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid unsigned integer value %q", value)
		}

		fieldValue.SetUint(parsed)
	case reflect.Float32, reflect.Float64:
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float value %q", value)
		}

		fieldValue.SetFloat(parsed)
	case reflect.Bool:
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value %q", value)
		}

		fieldValue.SetBool(parsed)
	case reflect.Ptr:
		if fieldValue.IsNil() {
			fieldValue.Set(reflect.New(fieldValue.Type().Elem()))
		}

		return setFieldValue(fieldValue.Elem(), value)
	default:
		return fmt.Errorf("unsupported field kind %s", fieldValue.Kind())
	}

	return nil
}

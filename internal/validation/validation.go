// Package validation applies the per-entity rule sets to incoming payloads
// and turns failures into caller-facing messages.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/Baaaki/storefront/internal/apperror"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

	validate = newValidator()
)

func init() {
	// Unknown fields are rejected rather than silently dropped.
	binding.EnableDecoderDisallowUnknownFields = true
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRegex.MatchString(fl.Field().String())
	})

	return v
}

// Struct validates v and returns the first violated rule as a Validation
// error. v itself is never modified.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return apperror.Validation(message(fieldErrs[0]))
	}
	return apperror.Validation(err.Error())
}

// Bind decodes the JSON request body into dst. An empty body leaves dst at
// its zero value so the rule set decides whether that is acceptable.
func Bind(c *gin.Context, dst any) error {
	if err := c.ShouldBindBodyWithJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var body []byte
		if raw, ok := c.Get(gin.BodyBytesKey); ok {
			body, _ = raw.([]byte)
		}
		return fromDecodeError(err, body)
	}
	return nil
}

// FromDecodeError translates JSON decoding failures into Validation errors.
func FromDecodeError(err error) error {
	return fromDecodeError(err, nil)
}

// fromDecodeError is FromDecodeError with the request body at hand, which
// lets type mismatches inside arrays be reported with their index.
func fromDecodeError(err error, body []byte) error {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	var fieldErrs validator.ValidationErrors

	switch {
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "this"
		} else if body != nil {
			field = indexedPath(body, field, typeErr.Value)
		}
		return apperror.Validation(fmt.Sprintf("%s must be a `%s` type", field, jsonKind(typeErr.Type)))
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return apperror.Validation("request body must be valid JSON")
	case errors.As(err, &fieldErrs) && len(fieldErrs) > 0:
		return apperror.Validation(message(fieldErrs[0]))
	}

	const unknownPrefix = "json: unknown field "
	if msg := err.Error(); strings.HasPrefix(msg, unknownPrefix) {
		field := strings.Trim(strings.TrimPrefix(msg, unknownPrefix), `"`)
		return apperror.Validation("this field has unspecified keys: " + field)
	}

	return apperror.Validation(err.Error())
}

// indexedPath turns the dotted path of a decode error ("products.quantity")
// into the validator style ("products[1].quantity") by finding the first
// value in body at that path whose JSON kind matches the rejected one.
// The dotted path is returned unchanged when no such value is found.
func indexedPath(body []byte, dotted, rejected string) string {
	var root any
	if err := json.Unmarshal(body, &root); err != nil {
		return dotted
	}
	want, _, _ := strings.Cut(rejected, " ")
	if path, ok := findPath(root, strings.Split(dotted, "."), "", want); ok {
		return path
	}
	return dotted
}

func findPath(node any, keys []string, path, want string) (string, bool) {
	if len(keys) == 0 && valueKind(node) == want {
		return path, true
	}
	switch n := node.(type) {
	case map[string]any:
		if len(keys) == 0 {
			return "", false
		}
		v, ok := n[keys[0]]
		if !ok {
			return "", false
		}
		next := keys[0]
		if path != "" {
			next = path + "." + keys[0]
		}
		return findPath(v, keys[1:], next, want)
	case []any:
		for i, el := range n {
			if p, ok := findPath(el, keys, fmt.Sprintf("%s[%d]", path, i), want); ok {
				return p, true
			}
		}
	}
	return "", false
}

func valueKind(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "bool"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "null"
	}
}

// ParseID validates a route id.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperror.Validation("id must be a `number` type")
	}
	return id, nil
}

func message(fe validator.FieldError) string {
	field := fieldPath(fe)

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is a required field", field)
	case "min":
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("%s field must have at least %s items", field, fe.Param())
		default:
			return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
		}
	case "gt":
		if fe.Param() == "0" {
			return fmt.Sprintf("%s must be a positive number", field)
		}
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		values := strings.Join(strings.Fields(fe.Param()), ", ")
		return fmt.Sprintf("%s must be one of the following values: %s", field, values)
	case "username":
		return "You can only enter letters, numbers or underscores."
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// fieldPath drops the root struct name from the namespace, so
// "CreateOrder.products[0].quantity" becomes "products[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func jsonKind(t reflect.Type) string {
	if t == nil {
		return "unknown"
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return "object"
	}
}

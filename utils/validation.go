package utils

import (
	"errors"
	"fmt"
	"mime/multipart"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// AllowedImageContentTypes is the set of allowed content types for image uploads.
var AllowedImageContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// MaxUploadSize is the maximum allowed file size for uploads (5MB).
const MaxUploadSize = 5 << 20 // 5MB

var (
	upiPattern      = regexp.MustCompile(`^[\w.-]+@[\w.-]+$`)
	tenDigitPattern = regexp.MustCompile(`^\d{10}$`)
)

// ValidateFileUpload checks that the uploaded file has a valid image content type
// and does not exceed the maximum file size.
func ValidateFileUpload(fh *multipart.FileHeader) error {
	// Check file size
	if fh.Size > MaxUploadSize {
		return fmt.Errorf("file size %d bytes exceeds maximum allowed size of 5MB", fh.Size)
	}

	// Check content type
	contentType := fh.Header.Get("Content-Type")
	if !AllowedImageContentTypes[contentType] {
		return fmt.Errorf("invalid file type '%s'; allowed types: image/jpeg, image/png, image/webp, image/gif", contentType)
	}

	return nil
}

// ValidateInvoiceUpload accepts the image types plus PDF.
func ValidateInvoiceUpload(fh *multipart.FileHeader) error {
	if fh.Header.Get("Content-Type") == "application/pdf" {
		if fh.Size > MaxUploadSize {
			return fmt.Errorf("file size %d bytes exceeds maximum allowed size of 5MB", fh.Size)
		}
		return nil
	}
	return ValidateFileUpload(fh)
}

// RegisterValidators installs the console's custom tags on v and makes field
// errors report JSON field names.
//
//	upi       name@handle
//	digits10  exactly ten digits
//	country   one of Countries
//	notblank  not only whitespace
func RegisterValidators(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonFieldName)

	tags := map[string]validator.Func{
		"upi": func(fl validator.FieldLevel) bool {
			return upiPattern.MatchString(fl.Field().String())
		},
		"digits10": func(fl validator.FieldLevel) bool {
			return tenDigitPattern.MatchString(fl.Field().String())
		},
		"country": func(fl validator.FieldLevel) bool {
			return IsKnownCountry(fl.Field().String())
		},
		"notblank": validators.NotBlank,
	}
	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// FieldMessages maps a field name to per-tag messages.
type FieldMessages map[string]map[string]string

// FieldErrors turns a validator error into one message per failing field.
// Fields or tags without an entry in messages get a generic message.
// It returns nil when err is not a validation error.
func FieldErrors(err error, messages FieldMessages) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	out := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		if msg, ok := messages[field][fe.Tag()]; ok {
			out[field] = msg
			continue
		}
		out[field] = fieldMessage(fe)
	}
	return out
}

// SanitizeValidationError takes a validator error and returns a user-friendly message
// without leaking internal Go struct names.
func SanitizeValidationError(err error) string {
	if err == nil {
		return ""
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "Invalid request body"
	}

	// Build user-friendly error messages from field-level errors
	var messages []string
	for _, fe := range validationErrors {
		messages = append(messages, fieldMessage(fe))
	}

	if len(messages) == 0 {
		return "Invalid request body"
	}

	return strings.Join(messages, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

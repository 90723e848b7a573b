// Package common holds the request plumbing shared by the HTTP routes:
// caller identity headers, body binding and response rendering.
package common

import (
	"errors"
	"reflect"
	"strings"

	"github.com/amirasaad/ledgercore/pkg/domain"
	"github.com/amirasaad/ledgercore/pkg/handler"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const (
	HeaderUserID         = "X-User-ID"
	HeaderCorrelationID  = "X-Correlation-ID"
	HeaderIdempotencyKey = "Idempotency-Key"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ProblemDetails follows RFC 9457 Problem Details for HTTP APIs. It is used
// for failures that happen before an operation runs.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// ProblemDetailsJSON writes a problem document with the given status.
func ProblemDetailsJSON(c *fiber.Ctx, status int, title string, err error) error {
	pd := ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Instance: c.OriginalURL(),
	}
	if err != nil {
		pd.Detail = err.Error()
	}
	c.Set(fiber.HeaderContentType, "application/problem+json")
	return c.Status(status).JSON(pd)
}

// Caller is the identity and tracing data carried on request headers.
type Caller struct {
	UserID         string
	CorrelationID  string
	IdempotencyKey string
}

// RequireCaller reads the caller headers. It writes a 401 problem and
// returns false when X-User-ID is missing.
func RequireCaller(c *fiber.Ctx) (Caller, bool) {
	caller := Caller{
		UserID:         strings.TrimSpace(c.Get(HeaderUserID)),
		CorrelationID:  strings.TrimSpace(c.Get(HeaderCorrelationID)),
		IdempotencyKey: strings.TrimSpace(c.Get(HeaderIdempotencyKey)),
	}
	if caller.UserID == "" {
		_ = ProblemDetailsJSON(c, fiber.StatusUnauthorized, "Unauthorized",
			errors.New("missing "+HeaderUserID+" header"))
		return caller, false
	}
	return caller, true
}

// BindAndValidate parses the body into T, applies fill and validates the
// result. On failure it writes a VALIDATION_ERROR response and returns nil.
func BindAndValidate[T any](c *fiber.Ctx, caller Caller, fill func(*T)) *T {
	var input T
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			_ = invalid(c, caller, "Invalid request body: "+err.Error())
			return nil
		}
	}
	return finish(c, caller, &input, fill)
}

// BindQuery is BindAndValidate for query-string parameters.
func BindQuery[T any](c *fiber.Ctx, caller Caller, fill func(*T)) *T {
	var input T
	if err := c.QueryParser(&input); err != nil {
		_ = invalid(c, caller, "Invalid query: "+err.Error())
		return nil
	}
	return finish(c, caller, &input, fill)
}

func finish[T any](c *fiber.Ctx, caller Caller, input *T, fill func(*T)) *T {
	if fill != nil {
		fill(input)
	}
	if err := validate.Struct(input); err != nil {
		_ = invalid(c, caller, validationMessage(err))
		return nil
	}
	return input
}

func invalid(c *fiber.Ctx, caller Caller, message string) error {
	return Respond(c, handler.Response{
		Success:       false,
		Status:        fiber.StatusBadRequest,
		Error:         &handler.ErrorBody{Code: domain.CodeValidation, Message: message},
		CorrelationID: caller.CorrelationID,
	})
}

// validationMessage reports the first failed field as "field: tag".
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return "Invalid " + fe.Field() + ": failed " + fe.Tag()
	}
	return err.Error()
}

// Respond renders an operation response with its own status code.
func Respond(c *fiber.Ctx, resp handler.Response) error {
	if resp.CorrelationID != "" {
		c.Set(HeaderCorrelationID, resp.CorrelationID)
	}
	return c.Status(resp.Status).JSON(resp)
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/anonto42/picgram/backend/internal/apperr"
	"github.com/anonto42/picgram/backend/internal/identity"
	"github.com/anonto42/picgram/backend/internal/logging"
	"github.com/anonto42/picgram/backend/internal/models"
)

// Validator adapts go-playground/validator to echo.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate reports the first failing field as a VALIDATION_ERROR whose
// field is "<name>.<rule>", e.g. "type.oneof".
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperr.Validation(strings.ToLower(fe.Field())+"."+fe.Tag(),
			fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return apperr.Wrap(apperr.CodeValidation, "validation failed", err)
}

// ErrorHandler renders every error as {success:false, error, code}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		status  int
		code    apperr.Code
		message string
	)

	var he *echo.HTTPError
	if errors.As(err, &he) && !isDomainError(err) {
		status = he.Code
		code = codeForStatus(he.Code)
		message = fmt.Sprint(he.Message)
	} else {
		code = apperr.CodeOf(err)
		status = apperr.HTTPStatus(code)
		message = apperr.Localize(apperr.ResolveTag(c.Request()), err)
	}

	if status >= http.StatusInternalServerError {
		logging.Ctx(c.Request().Context()).Error().Err(err).Str("code", string(code)).Msg("request failed")
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, echo.Map{
			"success": false,
			"error":   message,
			"code":    code,
		})
	}
	if writeErr != nil {
		logging.Ctx(c.Request().Context()).Warn().Err(writeErr).Msg("failed to write error response")
	}
}

func isDomainError(err error) bool {
	var e *apperr.Error
	return errors.As(err, &e)
}

func codeForStatus(status int) apperr.Code {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperr.CodeAuthRequired
	case status == http.StatusNotFound:
		return apperr.CodeNotFound
	case status >= 400 && status < 500:
		return apperr.CodeValidation
	default:
		return apperr.CodeUnknownStore
	}
}

func principal(c echo.Context) identity.Principal {
	return identity.FromContext(c.Request().Context())
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, apperr.Validation("id", "invalid id "+strconv.Quote(c.Param("id")))
	}
	return uint(id), nil
}

// bindQuery binds the query string into req and validates it.
func bindQuery(c echo.Context, req interface{}, field string) error {
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, req); err != nil {
		return apperr.Validation(field, "malformed query: "+err.Error())
	}
	return c.Validate(req)
}

// readLimit parses ?limit= without range checks; callers clamp.
func readLimit(c echo.Context) (int, error) {
	var req models.LimitRequest
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &req); err != nil {
		return 0, apperr.Validation("limit", "limit must be an integer")
	}
	return req.Limit, nil
}

package api

import (
	"errors"
	"log/slog"

	echo "github.com/labstack/echo/v5"

	"github.com/planning-explorer/core/pkg/apperrors"
)

// writeError maps err to its canonical HTTP status (§7) and writes the
// error envelope. Grounded on the teacher's mapServiceError, adapted
// from service-specific sentinel checks to the single apperrors.Kind
// taxonomy every capability in this module returns.
func writeError(c *echo.Context, err error) error {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		slog.Error("unexpected internal error", "error", err)
		appErr = apperrors.Wrap(apperrors.KindInternal, "INTERNAL_ERROR", "internal server error", err)
	}

	return c.JSON(appErr.Kind.HTTPStatus(), envelope{
		Success: false,
		Error: &errorBody{
			Code:              appErr.Code,
			Message:           appErr.Message,
			Suggestion:        appErr.Suggestion,
			RetryAfterSeconds: appErr.RetryAfterSeconds,
		},
	})
}

// badRequest writes a validation-kind error for a request rejected before
// it reaches a service (bad query params, malformed JSON body).
func badRequest(c *echo.Context, code, message string) error {
	return writeError(c, apperrors.New(apperrors.KindValidation, code, message))
}

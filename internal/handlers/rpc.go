package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	domainerrors "github.com/anonto42/pins/backend/internal/errors"
	"github.com/anonto42/pins/backend/internal/middleware"
	"github.com/anonto42/pins/backend/internal/session"
	"github.com/anonto42/pins/backend/pkg/api"
)

// bindInput decodes a procedure input into dst and validates it. Queries
// carry the input as JSON in the "input" query parameter, mutations in the
// request body. A missing input decodes as {}.
func bindInput(c echo.Context, dst any) error {
	if c.Request().Method == http.MethodGet {
		raw := strings.TrimSpace(c.QueryParam("input"))
		if raw != "" {
			if err := json.Unmarshal([]byte(raw), dst); err != nil {
				return domainerrors.Validation("input is not a valid JSON object").WithCause(err)
			}
		}
	} else if err := c.Echo().JSONSerializer.Deserialize(c, dst); err != nil && !errors.Is(err, io.EOF) {
		return domainerrors.Validation("input is not a valid JSON object").WithCause(err)
	}
	return c.Validate(dst)
}

// ok writes the success envelope.
func ok(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, api.Response{Result: &api.Result{Data: data}})
}

func caller(c echo.Context) *session.Session {
	return middleware.CurrentSession(c)
}

// NewHTTPErrorHandler renders every error as an RPC error envelope.
// Anything that is not a domain error is reported as INTERNAL without its
// message.
func NewHTTPErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		derr := toDomainError(err)
		if derr.Code == domainerrors.CodeInternal {
			log.ErrorContext(c.Request().Context(), "request failed",
				"path", c.Request().URL.Path, "error", err)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(derr.HTTPStatus())
		} else {
			writeErr = c.JSON(derr.HTTPStatus(), api.Response{Error: derr.Body()})
		}
		if writeErr != nil {
			log.ErrorContext(c.Request().Context(), "write error response", "error", writeErr)
		}
	}
}

func toDomainError(err error) *domainerrors.Error {
	var derr *domainerrors.Error
	if errors.As(err, &derr) {
		return derr
	}

	var herr *echo.HTTPError
	if errors.As(err, &herr) {
		msg := http.StatusText(herr.Code)
		if s, ok := herr.Message.(string); ok {
			msg = s
		}
		return &domainerrors.Error{Code: codeForStatus(herr.Code), Message: msg}
	}

	return domainerrors.Internal("internal server error")
}

func codeForStatus(status int) domainerrors.Code {
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		return domainerrors.CodeValidation
	case http.StatusUnauthorized:
		return domainerrors.CodeUnauthorized
	case http.StatusForbidden:
		return domainerrors.CodeForbidden
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return domainerrors.CodeNotFound
	case http.StatusConflict:
		return domainerrors.CodeConflict
	case http.StatusTooManyRequests:
		return domainerrors.CodeTooManyRequests
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return domainerrors.CodeUpstream
	default:
		return domainerrors.CodeInternal
	}
}

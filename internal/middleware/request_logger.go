package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/picgram/backend/internal/logging"
	"github.com/anonto42/picgram/backend/internal/metrics"
)

// RequestLogger stamps a request id on the context and the response, then
// logs and counts the request once the handler and error handler ran.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = logging.GenerateRequestID()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			c.SetRequest(req.WithContext(logging.ContextWithRequestID(req.Context(), id)))

			if err := next(c); err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			latency := time.Since(start)
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.RecordAPIRequest(req.Method, route, status, latency)

			event := logging.Ctx(c.Request().Context()).Info()
			if status >= 500 {
				event = logging.Ctx(c.Request().Context()).Error()
			}
			event.Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", status).
				Dur("latency", latency).
				Msg("request")
			return nil
		}
	}
}

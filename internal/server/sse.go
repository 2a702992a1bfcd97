package server

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
)

// openStream switches the response to server-sent events and returns the
// flusher used to push each event out immediately.
func openStream(c echo.Context) (http.Flusher, error) {
	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	flusher, ok := resp.Writer.(http.Flusher)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "streaming unsupported")
	}
	return flusher, nil
}

// sendEvent writes one SSE data frame carrying payload as JSON and flushes it.
func sendEvent(c echo.Context, flusher http.Flusher, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := c.Response().Write([]byte("data: " + string(data) + "\n\n")); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

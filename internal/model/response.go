package model

import (
	"github.com/labstack/echo/v4"
)

// Response is the envelope used for every JSON response.
type Response struct {
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
	Status string      `json:"status"`
}

// SuccessResponse wraps a result in a response envelope.
func SuccessResponse(data interface{}, status int) Response {
	return Response{Result: data, Status: statusText(status)}
}

// Success sends a successful response containing the given data.
func Success(ctx echo.Context, data interface{}, status int) error {
	return ctx.JSON(status, SuccessResponse(data, status))
}

// SuccessMessage sends a successful response containing only a message.
func SuccessMessage(ctx echo.Context, msg string, status int) error {
	return ctx.JSON(status, SuccessResponse(map[string]string{"message": msg}, status))
}

// Error sends an error response.
func Error(ctx echo.Context, msg string, status int) error {
	return ctx.JSON(status, Response{Error: msg, Status: statusText(status)})
}

// ErrorWithData sends an error response that also carries a result, for example the remaining quota when a
// conversion batch is rejected.
func ErrorWithData(ctx echo.Context, msg string, data interface{}, status int) error {
	return ctx.JSON(status, Response{Result: data, Error: msg, Status: statusText(status)})
}

func statusText(status int) string {
	if status >= 200 && status < 300 {
		return "success"
	}
	return "failure"
}

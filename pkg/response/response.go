package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes returned in the response envelope
const (
	CodeBadRequest            = "BAD_REQUEST"
	CodeInvalidCredentials    = "INVALID_CREDENTIALS"
	CodeAccountNotActivated   = "ACCOUNT_NOT_ACTIVATED"
	CodeInvalidRefreshToken   = "INVALID_REFRESH_TOKEN"
	CodeInvalidActivationCode = "INVALID_ACTIVATION_CODE"
	CodeDuplicateEmail        = "DUPLICATE_EMAIL"
	CodeUnauthenticated       = "UNAUTHENTICATED"
	CodeForbidden             = "FORBIDDEN"
	CodeTooManyAttempts       = "TOO_MANY_ATTEMPTS"
	CodeTooManyRequests       = "TOO_MANY_REQUESTS"
	CodeInternalError         = "INTERNAL_ERROR"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorData  `json:"error,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

func Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, Response{
		Success: false,
		Error: &ErrorData{
			Code:    code,
			Message: message,
		},
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, CodeBadRequest, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Error(c, http.StatusUnauthorized, code, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, CodeForbidden, message)
}

func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, CodeInternalError, "internal server error")
}

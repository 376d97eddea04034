package responder

import (
	"net/http"

	bridgeerrors "github.com/leeforge/hostbridge/errors"
)

const (
	// 4xxx - 客户端错误
	ErrCodeBadRequest       = 4000
	ErrCodeNotFound         = 4003
	ErrCodeRouteNotFound    = 4004
	ErrCodeMethodNotAllowed = 4005

	// 5xxx - 服务端错误
	ErrCodeInternalServer = 5000
	ErrCodeHostLookup     = 5001
	ErrCodeCapability     = 5002
)

var errorMessages = map[int]string{
	ErrCodeBadRequest:       "Bad Request",
	ErrCodeNotFound:         "Resource Not Found",
	ErrCodeRouteNotFound:    "Route Not Found",
	ErrCodeMethodNotAllowed: "Method Not Allowed",
	ErrCodeInternalServer:   "Internal Server Error",
	ErrCodeHostLookup:       "Host Query Failed",
	ErrCodeCapability:       "Host Capability Missing",
}

// GetErrorMessage returns the default message for an error code
func GetErrorMessage(code int) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "Unknown Error"
}

// NewError creates a new Error with code and message
func NewError(code int, message string) Error {
	if message == "" {
		message = GetErrorMessage(code)
	}
	return Error{Code: code, Message: message}
}

// FromError maps a bridge error to an HTTP status and envelope error.
func FromError(err error) (int, Error) {
	be := bridgeerrors.FromError(err)
	if be == nil {
		return http.StatusInternalServerError, NewError(ErrCodeInternalServer, "")
	}
	switch be.Type {
	case bridgeerrors.ErrorTypeNotFound:
		return http.StatusNotFound, NewError(ErrCodeNotFound, be.Error())
	case bridgeerrors.ErrorTypeDecode:
		return http.StatusBadRequest, NewError(ErrCodeBadRequest, be.Error())
	case bridgeerrors.ErrorTypeLookup:
		return http.StatusBadGateway, NewError(ErrCodeHostLookup, be.Error())
	case bridgeerrors.ErrorTypeCapability:
		return http.StatusNotImplemented, NewError(ErrCodeCapability, be.Error())
	default:
		return http.StatusInternalServerError, NewError(ErrCodeInternalServer, be.Error())
	}
}

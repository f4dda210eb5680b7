// Package errcode holds the predefined response codes shared by every service.
package errcode

import "net/http"

// Code is a response code paired with its default message and the HTTP
// status it is served with.
type Code struct {
	Code   int
	Msg    string
	Status int
}

var (
	Success            = Code{0, "ok", http.StatusOK}
	SystemBusy         = Code{-1, "System busy, please try again later", http.StatusInternalServerError}
	SystemTimeout      = Code{-2, "System timed out, please try again later", http.StatusGatewayTimeout}
	ParamEx            = Code{-3, "Failed to parse parameter type", http.StatusBadRequest}
	SQLEx              = Code{-4, "Error while executing SQL", http.StatusInternalServerError}
	NullPointEx        = Code{-5, "Null pointer error", http.StatusInternalServerError}
	IllegalArgumentEx  = Code{-6, "Invalid argument", http.StatusBadRequest}
	MediaTypeEx        = Code{-7, "Invalid request media type", http.StatusUnsupportedMediaType}
	LoadResourcesError = Code{-8, "Failed to load resources", http.StatusInternalServerError}
	BaseValidParam     = Code{-9, "Parameter validation failed", http.StatusBadRequest}
	OperationEx        = Code{-10, "Operation failed", http.StatusBadRequest}

	BadRequest          = Code{400, "Bad request", http.StatusBadRequest}
	Unauthorized        = Code{401, "Unauthorized", http.StatusUnauthorized}
	Forbidden           = Code{403, "Forbidden", http.StatusForbidden}
	NotFound            = Code{404, "Resource not found", http.StatusNotFound}
	MethodNotAllowed    = Code{405, "Request method not supported", http.StatusMethodNotAllowed}
	Conflict            = Code{409, "Resource already exists", http.StatusConflict}
	TooManyRequests     = Code{429, "Too many requests", http.StatusTooManyRequests}
	InternalServerError = Code{500, "Internal server error", http.StatusInternalServerError}
	BadGateway          = Code{502, "Bad gateway", http.StatusBadGateway}
	GatewayTimeout      = Code{504, "Gateway timeout", http.StatusGatewayTimeout}

	RequiredFileParamEx = Code{1001, "The request must contain at least one valid file", http.StatusBadRequest}

	JWTTokenExpired    = Code{40001, "Session expired, please log in again", http.StatusUnauthorized}
	JWTSignature       = Code{40002, "Invalid token signature", http.StatusUnauthorized}
	JWTIllegalArgument = Code{40003, "Missing token", http.StatusUnauthorized}
	JWTParserTokenFail = Code{40009, "Failed to parse user identity, please log in again", http.StatusUnauthorized}
)

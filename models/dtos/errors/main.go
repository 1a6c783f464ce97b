package errors

import (
	"time"

	"variation-commons/api/models/dtos"
)

/*
	Utility functions to facillitate returning error responses to HTTP clients
*/

func createSimple(code int, message string, detail string) dtos.GeneralErrorResponseDto {
	return dtos.GeneralErrorResponseDto{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Errors: []dtos.GeneralError{
			{
				Message: detail,
			},
		},
	}
}

// -- Simplest: 1 error with message
func CreateSimpleBadRequest(message string) dtos.GeneralErrorResponseDto {
	return createSimple(400, "Bad Request", message)
}
func CreateSimpleNotFound(message string) dtos.GeneralErrorResponseDto {
	return createSimple(404, "Not Found", message)
}
func CreateSimpleConflict(message string) dtos.GeneralErrorResponseDto {
	return createSimple(409, "Conflict", message)
}
func CreateSimpleInternalServerError(message string) dtos.GeneralErrorResponseDto {
	return createSimple(500, "Internal Server Error", message)
}
func CreateSimpleServiceUnavailable(message string) dtos.GeneralErrorResponseDto {
	return createSimple(503, "Service Unavailable", message)
}

// --

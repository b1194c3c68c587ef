package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/marufkhan20/pizza-auth-service/pkg/apperror"
)

var kindStatus = map[apperror.Kind]int{
	apperror.KindValidationFailed:   fiber.StatusBadRequest,
	apperror.KindInvalidCredentials: fiber.StatusBadRequest,
	apperror.KindConflict:           fiber.StatusConflict,
	apperror.KindUnauthenticated:    fiber.StatusUnauthorized,
	apperror.KindForbidden:          fiber.StatusForbidden,
	apperror.KindNotFound:           fiber.StatusNotFound,
	apperror.KindStorageFailure:     fiber.StatusInternalServerError,
}

// StatusOf maps an error to its HTTP status. *fiber.Error keeps its own code.
func StatusOf(err error) int {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	if status, ok := kindStatus[apperror.KindOf(err)]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

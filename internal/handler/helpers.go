package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/marufkhan20/pizza-auth-service/pkg/apperror"
	"github.com/marufkhan20/pizza-auth-service/pkg/validator"
)

// bind parses the JSON body into dst and validates it.
func bind(c *fiber.Ctx, v *validator.Validator, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperror.Wrap(apperror.KindValidationFailed, "Invalid request body", err)
	}
	return v.Validate(dst)
}

// paramID reads the :id route parameter as a positive integer.
func paramID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, apperror.Validation([]apperror.FieldError{
			{Field: "id", Message: "id must be a positive integer"},
		})
	}
	return id, nil
}

package utils

import "github.com/gofiber/fiber/v2"

// APIResponse is the envelope every JSON endpoint answers with.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

// SendSuccess answers 200 with data.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	return write(c, fiber.StatusOK, APIResponse{Success: true, Message: message, Data: data})
}

// SendCreated answers 201 with the created resource.
func SendCreated(c *fiber.Ctx, message string, data interface{}) error {
	return write(c, fiber.StatusCreated, APIResponse{Success: true, Message: message, Data: data})
}

// SendPage answers 200 with one page of items and its pagination meta.
func SendPage(c *fiber.Ctx, message string, items interface{}, meta interface{}) error {
	return write(c, fiber.StatusOK, APIResponse{Success: true, Message: message, Data: items, Meta: meta})
}

// SendError answers status with a message and no data.
func SendError(c *fiber.Ctx, status int, message string) error {
	return Fail(c, status, message, nil)
}

// Fail answers status and lists the individual problems, if any.
func Fail(c *fiber.Ctx, status int, message string, problems []string) error {
	return write(c, status, APIResponse{Success: false, Message: message, Errors: problems})
}

func write(c *fiber.Ctx, status int, payload APIResponse) error {
	if status == 0 {
		status = fiber.StatusOK
	}
	if payload.Message == "" {
		if payload.Success {
			payload.Message = "success"
		} else {
			payload.Message = "error"
		}
	}
	// Responses carry account data and tokens.
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Status(status).JSON(payload)
}

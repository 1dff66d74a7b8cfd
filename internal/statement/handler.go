package statement

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// POST /api/statements/upload (multipart, field "file")
func UploadHandler(in *Ingestor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file upload failed: "+err.Error())
		}

		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "only .xlsx files are accepted")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not open upload: "+err.Error())
		}
		defer file.Close()

		stats, err := in.Ingest(c.UserContext(), file)
		if err != nil {
			return err
		}
		return c.JSON(stats)
	}
}

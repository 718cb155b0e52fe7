package handlers

import (
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
)

// FilesHandler serves generated and uploaded files
type FilesHandler struct {
	uploadDir string
}

// NewFilesHandler creates a new files handler
func NewFilesHandler(uploadDir string) *FilesHandler {
	return &FilesHandler{uploadDir: uploadDir}
}

// resolve maps a requested filename to a path inside the uploads directory.
// Base() strips any traversal components.
func (h *FilesHandler) resolve(filename string) (string, bool) {
	name := filepath.Base(filename)
	if name == "" || name == "." || name == ".." {
		return "", false
	}
	path := filepath.Join(h.uploadDir, name)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// Serve handles GET /uploads/:filename (inline)
func (h *FilesHandler) Serve(c *fiber.Ctx) error {
	path, ok := h.resolve(c.Params("filename"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "File not found",
		})
	}
	return c.SendFile(path)
}

// Download handles GET /files/download/:filename (attachment)
func (h *FilesHandler) Download(c *fiber.Ctx) error {
	path, ok := h.resolve(c.Params("filename"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "File not found",
		})
	}
	return c.Download(path)
}

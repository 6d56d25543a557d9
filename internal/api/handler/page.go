package handler

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
)

//go:embed static/*
var staticFS embed.FS

// StaticFiles serves the embedded client under /static
func StaticFiles() fiber.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}

	return filesystem.New(filesystem.Config{
		Root:   http.FS(sub),
		MaxAge: 300,
	})
}

// Index serves the client page at GET /
func Index(c *fiber.Ctx) error {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		return err
	}

	c.Type("html", "utf-8")
	return c.Send(page)
}

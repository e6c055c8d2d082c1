package handlers

import (
	"fmt"
	"log"
	"os"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Swagger Handlers
// ============================================================

// SpecPath — OpenAPI-описание API планировщика.
const SpecPath = "docs/planner.openapi.yaml"

const docsTitle = "Planner Service API"

// DocsHandler отдаёт OpenAPI-описание планировщика и страницу Swagger UI к нему.
// Файл читается один раз при создании; без него /docs отвечает 404.
type DocsHandler struct {
	document []byte
	url      string
}

func NewDocsHandler(path string) *DocsHandler {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[DOCS] openapi document %s unavailable: %v", path, err)
	}
	return &DocsHandler{document: data, url: "/docs/openapi.yaml"}
}

func (h *DocsHandler) Register(r fiber.Router) {
	r.Get("/docs", h.SwaggerUI)
	r.Get(h.url, h.SwaggerSpec)
}

// SwaggerSpec отдаёт OpenAPI YAML.
func (h *DocsHandler) SwaggerSpec(c fiber.Ctx) error {
	if len(h.document) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "openapi document not found"})
	}
	c.Type("yaml")
	return c.Send(h.document)
}

func (h *DocsHandler) SwaggerUI(c fiber.Ctx) error {
	if len(h.document) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "openapi document not found"})
	}
	c.Type("html")
	return c.SendString(fmt.Sprintf(swaggerPage, docsTitle, h.url))
}

const swaggerPage = `<!doctype html>
<html>
<head>
  <meta charset="utf-8">
  <title>%s</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist/swagger-ui.css">
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist/swagger-ui-bundle.js"></script>
<script>
  window.onload = () => {
    window.ui = SwaggerUIBundle({
      url: '%s',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      tryItOutEnabled: true,
    });
  };
</script>
</body>
</html>`

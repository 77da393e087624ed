package http

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"os"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"
)

// OpenAPIPath is where the API document is read from, relative to the
// working directory of the process.
var OpenAPIPath = "api/openapi.yaml"

// apiDocs is the API document as loaded once at startup.
type apiDocs struct {
	title string
	yaml  []byte
	json  []byte
}

// loadAPIDocs parses and validates the document at path. A document that
// does not validate is not served.
func loadAPIDocs(path string) (*apiDocs, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	js, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", path, err)
	}
	title := "API"
	if doc.Info != nil && doc.Info.Title != "" {
		title = doc.Info.Title
	}
	return &apiDocs{title: title, yaml: raw, json: js}, nil
}

func (d *apiDocs) uiPage() string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>%s</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>SwaggerUIBundle({url: '/docs/openapi.json', dom_id: '#swagger-ui'});</script>
</body>
</html>`, html.EscapeString(d.title))
}

// SetupDocs serves the API document under /docs: a Swagger UI page, the
// source YAML and the parsed document as JSON. When the document is missing
// or invalid every docs route answers 404.
func SetupDocs(app *fiber.App) {
	docs, err := loadAPIDocs(OpenAPIPath)
	if err != nil {
		slog.Warn("api docs disabled", "path", OpenAPIPath, "error", err)
	}

	serve := func(contentType string, body func(*apiDocs) []byte) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if docs == nil {
				return errNotFound(c, "API document not available")
			}
			c.Set(fiber.HeaderContentType, contentType)
			return c.Send(body(docs))
		}
	}

	app.Get("/docs", serve(fiber.MIMETextHTMLCharsetUTF8, func(d *apiDocs) []byte { return []byte(d.uiPage()) }))
	app.Get("/docs/openapi.yaml", serve("application/yaml", func(d *apiDocs) []byte { return d.yaml }))
	app.Get("/docs/openapi.json", serve(fiber.MIMEApplicationJSON, func(d *apiDocs) []byte { return d.json }))
}

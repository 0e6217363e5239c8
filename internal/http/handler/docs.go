package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"

	"docingest/docs"
)

const docsPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Document Ingestion API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/swagger/doc.json',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`

// DocsPage serves a standalone Swagger UI that loads /swagger/doc.json.
func DocsPage() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Type("html").SendString(docsPage)
	}
}

// SwaggerUI serves the embedded Swagger UI and doc.json under /swagger/*,
// with host and scheme taken from the request.
func SwaggerUI() fiber.Handler {
	return func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
		}

		docs.SwaggerInfo.Host = c.Get(fiber.HeaderHost)
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	}
}

// Package openapi serves the OpenAPI 3.1 document of the API and a Swagger UI
// page that renders it.
package openapi

import (
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/labstack/echo/v4"
)

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>market-suggest API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: "/swagger/swagger.json",
      dom_id: "#swagger-ui",
      presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
      layout: "BaseLayout",
    });
  </script>
</body>
</html>`

// RegisterRoutes adds Swagger UI and spec endpoints to the Echo instance.
// The document is rendered on each request so routes registered after this
// call still appear.
func RegisterRoutes(e *echo.Echo, spec *huma.OpenAPI) {
	e.GET("/swagger/swagger.json", serveJSON(spec))
	e.GET("/swagger/swagger.yaml", serveYAML(spec))
	e.GET("/swagger/index.html", serveUI)
	e.GET("/swagger", redirectToUI)
	e.GET("/swagger/", redirectToUI)
}

// JSON renders spec as indented JSON.
func JSON(spec *huma.OpenAPI) ([]byte, error) {
	return json.MarshalIndent(spec, "", "  ")
}

func serveJSON(spec *huma.OpenAPI) echo.HandlerFunc {
	return func(c echo.Context) error {
		data, err := JSON(spec)
		if err != nil {
			return c.String(http.StatusInternalServerError, "rendering spec failed")
		}
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, data)
	}
}

func serveYAML(spec *huma.OpenAPI) echo.HandlerFunc {
	return func(c echo.Context) error {
		data, err := spec.YAML()
		if err != nil {
			return c.String(http.StatusInternalServerError, "rendering spec failed")
		}
		return c.Blob(http.StatusOK, "text/yaml", data)
	}
}

func serveUI(c echo.Context) error {
	return c.HTML(http.StatusOK, swaggerUIHTML)
}

func redirectToUI(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
}

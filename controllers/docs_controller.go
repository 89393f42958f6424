package controllers

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed openapi.json
var openapiSpec []byte

// DocsController serves the machine-readable API schema and the two
// documentation UIs on top of it.
type DocsController struct{}

// NewDocsController creates a DocsController.
func NewDocsController() *DocsController {
	return &DocsController{}
}

// Schema serves the raw OpenAPI document.
func (d *DocsController) Schema(ctx *gin.Context) {
	ctx.Data(http.StatusOK, "application/json", openapiSpec)
}

// SwaggerUI serves an interactive Swagger UI page backed by /swagger.json.
func (d *DocsController) SwaggerUI(ctx *gin.Context) {
	ctx.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerHTML))
}

// Redoc serves the ReDoc rendering of the same schema.
func (d *DocsController) Redoc(ctx *gin.Context) {
	ctx.Data(http.StatusOK, "text/html; charset=utf-8", []byte(redocHTML))
}

const swaggerHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Yatut API</title>
  <meta charset="utf-8"/>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css"/>
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
<script>
  window.onload = function() {
    SwaggerUIBundle({url: "/swagger.json", dom_id: "#swagger-ui"});
  };
</script>
</body>
</html>`

const redocHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Yatut API</title>
  <meta charset="utf-8"/>
  <meta name="viewport" content="width=device-width, initial-scale=1">
</head>
<body>
<redoc spec-url="/swagger.json"></redoc>
<script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
</body>
</html>`

package apiserver

import (
	_ "embed"
	"html/template"
	"net/http"

	"go.uber.org/zap"
)

const specPath = "/api/v1/openapi.yaml"

//go:embed openapi.yaml
var openAPISpec []byte

var docsPage = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui-bundle.js"></script>
  <script>
    window.onload = () => SwaggerUIBundle({
      url: {{.SpecURL}},
      dom_id: "#swagger-ui",
      docExpansion: "list",
      validatorUrl: null
    });
  </script>
</body>
</html>`))

// OpenAPIHandler serves the embedded API description and a Swagger UI page.
type OpenAPIHandler struct {
	logger *zap.Logger
}

func NewOpenAPIHandler(logger *zap.Logger) *OpenAPIHandler {
	return &OpenAPIHandler{logger: logger}
}

func (h *OpenAPIHandler) ServeOpenAPISpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	if _, err := w.Write(openAPISpec); err != nil {
		h.logger.Debug("Writing OpenAPI document failed", zap.Error(err))
	}
}

// ServeSwaggerUI points the UI at the document by path so it works behind any
// proxy scheme or host.
func (h *OpenAPIHandler) ServeSwaggerUI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := docsPage.Execute(w, struct{ Title, SpecURL string }{"Harvest Chef API", specPath})
	if err != nil {
		h.logger.Debug("Rendering API docs failed", zap.Error(err))
	}
}

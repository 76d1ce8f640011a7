package apiserver

import (
	"embed"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed openapi.yaml
var openAPISpec embed.FS

// OpenAPIHandler serves the API description
type OpenAPIHandler struct {
	spec []byte
}

// NewOpenAPIHandler creates a new OpenAPI handler
func NewOpenAPIHandler(logger *zap.Logger) *OpenAPIHandler {
	specData, err := openAPISpec.ReadFile("openapi.yaml")
	if err != nil {
		logger.Error("Failed to read OpenAPI spec", zap.Error(err))
		specData = []byte("# OpenAPI spec not available\n")
	}
	return &OpenAPIHandler{spec: specData}
}

// ServeSpec serves the OpenAPI document in YAML format
func (h *OpenAPIHandler) ServeSpec(c *gin.Context) {
	c.Data(http.StatusOK, "application/x-yaml", h.spec)
}

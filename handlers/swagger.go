package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>carelink API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "carelink", "version": "v1.0.0" },
  "components": { "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } } },
  "paths": {
    "/auth/login": {
      "post": {
        "summary": "Verify credentials and issue a session token",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["username","password"],"properties":{"username":{"type":"string"},"password":{"type":"string"},"employeeId":{"type":"string"}}}}}},
        "responses": { "200": { "description": "token and user" }, "400": { "description": "missing fields" }, "401": { "description": "invalid credentials" }, "429": { "description": "rate limited" } }
      }
    },
    "/auth/me": { "get": { "summary": "Claims of the caller", "security": [{"bearer": []}], "responses": { "200": { "description": "claims" }, "401": { "description": "invalid token" } } } },
    "/api/users": {
      "get": { "summary": "List users", "security": [{"bearer": []}], "responses": { "200": { "description": "users without credentials" } } },
      "post": { "summary": "Create user (admin)", "security": [{"bearer": []}], "responses": { "201": { "description": "created" }, "400": { "description": "validation or duplicate" } } }
    },
    "/api/users/{id}": {
      "get": { "summary": "Get user", "security": [{"bearer": []}], "responses": { "200": { "description": "user" }, "404": { "description": "not found" } } },
      "put": { "summary": "Update user", "security": [{"bearer": []}], "responses": { "200": { "description": "updated" } } },
      "delete": { "summary": "Deactivate user (admin)", "security": [{"bearer": []}], "responses": { "200": { "description": "deactivated" } } }
    },
    "/api/patients": {
      "get": { "summary": "List active patients", "security": [{"bearer": []}], "responses": { "200": { "description": "page of patients" } } },
      "post": { "summary": "Register patient", "security": [{"bearer": []}], "responses": { "201": { "description": "registered" } } }
    },
    "/api/patients/{id}": {
      "get": { "summary": "Get patient", "security": [{"bearer": []}], "responses": { "200": { "description": "patient" } } },
      "put": { "summary": "Update patient", "security": [{"bearer": []}], "responses": { "200": { "description": "updated" } } },
      "delete": { "summary": "Soft delete patient", "security": [{"bearer": []}], "responses": { "200": { "description": "deleted" } } }
    },
    "/api/beds": {
      "get": { "summary": "List beds", "security": [{"bearer": []}], "responses": { "200": { "description": "page of beds" } } },
      "post": { "summary": "Create bed", "security": [{"bearer": []}], "responses": { "201": { "description": "created" } } }
    },
    "/api/beds/{id}": { "put": { "summary": "Update bed occupancy", "security": [{"bearer": []}], "responses": { "200": { "description": "updated" } } } },
    "/api/notifications": {
      "get": { "summary": "List notifications", "security": [{"bearer": []}], "responses": { "200": { "description": "notifications" } } },
      "post": { "summary": "Create notification", "security": [{"bearer": []}], "responses": { "201": { "description": "created" } } }
    },
    "/api/notifications/{id}/read": { "put": { "summary": "Mark read", "security": [{"bearer": []}], "responses": { "200": { "description": "updated" } } } },
    "/api/notifications/role/{role}": { "get": { "summary": "Notifications for a role", "security": [{"bearer": []}], "responses": { "200": { "description": "notifications" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Store status", "responses": { "200": { "description": "ready" } } } }
  }
}`

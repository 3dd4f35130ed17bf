// Package docs holds the OpenAPI description served under /swagger.
// Regenerate with `swag init -g cmd/main.go` after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "url": "https://github.com/guttosm/fiscalpulse"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/reports": {
            "post": {
                "description": "Runs the pipeline over the uploaded zip archive and returns the rendered report. Nothing is stored. An archive without transactions yields a JSON body with status \"empty\".",
                "consumes": ["multipart/form-data"],
                "produces": [
                    "application/json",
                    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
                    "application/pdf"
                ],
                "tags": ["reports"],
                "summary": "Build a report from an archive",
                "parameters": [
                    {"type": "file", "description": "Zip archive of register exports", "name": "archive", "in": "formData", "required": true},
                    {"type": "string", "default": "xlsx", "description": "xlsx | json | pdf", "name": "format", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "JSON report or document bytes", "schema": {"$ref": "#/definitions/dto.ReportResponse"}},
                    "400": {"description": "Missing or oversized upload, bad format", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "422": {"description": "Archive unreadable", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "501": {"description": "PDF font not configured", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/v1/summary": {
            "get": {
                "description": "Recomputes period totals from stored day rows. VAT is derived from the summed turnover of each group.",
                "produces": ["application/json"],
                "tags": ["reports"],
                "summary": "Stored period summary",
                "parameters": [
                    {"type": "string", "example": "2024-01-01", "description": "First day, YYYY-MM-DD", "name": "from", "in": "query"},
                    {"type": "string", "example": "2024-01-31", "description": "Last day, YYYY-MM-DD", "name": "to", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Success", "schema": {"$ref": "#/definitions/dto.SummaryResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "503": {"description": "Persistence disabled", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}}
            }
        },
        "/readyz": {
            "get": {
                "description": "Ready when the database answers a ping, or when persistence is disabled",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "zip: not a valid zip file"},
                "message": {"type": "string", "example": "archive unreadable"},
                "timestamp": {"type": "string"}
            }
        },
        "dto.GroupSummary": {
            "type": "object",
            "properties": {
                "label": {"type": "string"},
                "percent": {"type": "string"},
                "turnover": {"type": "string"},
                "vat": {"type": "string"}
            }
        },
        "dto.ReportResponse": {
            "type": "object",
            "properties": {
                "archive": {"type": "string"},
                "files": {"type": "integer"},
                "malformed_fragments": {"type": "integer"},
                "rows": {"type": "array", "items": {"$ref": "#/definitions/dto.ReportRow"}},
                "run_id": {"type": "string"},
                "status": {"type": "string"},
                "transactions": {"type": "integer"}
            }
        },
        "dto.ReportRow": {
            "type": "object",
            "properties": {
                "amount": {"type": "string"},
                "check": {"type": "string"},
                "date": {"type": "string"},
                "kind": {"type": "string"},
                "label": {"type": "string"},
                "tag": {"type": "string"},
                "time": {"type": "string"}
            }
        },
        "dto.SummaryResponse": {
            "type": "object",
            "properties": {
                "from": {"type": "string"},
                "net_balance": {"type": "string"},
                "tax_groups": {"type": "array", "items": {"$ref": "#/definitions/dto.GroupSummary"}},
                "to": {"type": "string"},
                "total_returns": {"type": "string"},
                "total_sales": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "fiscalpulse API",
	Description:      "Fiscal-register archive reports: per-day and per-period turnover with VAT by tax group.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

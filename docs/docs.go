// Package docs registers the OpenAPI description served under /swagger.
// Regenerate the full document with: swag init -g cmd/api/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Database health",
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/years/current": {
            "get": {
                "produces": ["application/json"],
                "tags": ["years"],
                "summary": "Current year",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.yearBody"}}}
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["years"],
                "summary": "Jump to a year",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.yearBody"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.yearBody"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/years": {
            "get": {
                "produces": ["application/json"],
                "tags": ["years"],
                "summary": "Years present in the store",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"type": "integer"}}}}
            }
        },
        "/history/{year}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["history"],
                "summary": "Atlas data of one year",
                "parameters": [
                    {"type": "integer", "name": "year", "in": "path", "required": true},
                    {"type": "boolean", "name": "wait", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Data"}},
                    "202": {"description": "Accepted"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/sources/{source}/save": {
            "post": {
                "consumes": ["application/json"],
                "tags": ["sources"],
                "summary": "Save a year range of a source to the store",
                "parameters": [
                    {"type": "string", "name": "source", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.saveBody"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/export": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["exchange"],
                "summary": "Export the selection to a file",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/service.ExportRequest"}}],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/import": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["exchange"],
                "summary": "Import a file into a new source",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/service.ImportResult"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/tiles/query": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tiles"],
                "summary": "Tiles covering a plot viewport",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        }
    },
    "definitions": {
        "handler.errorEnvelope": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}}
        },
        "handler.errorPayload": {
            "type": "object",
            "properties": {"error": {"$ref": "#/definitions/handler.errorEnvelope"}, "request_id": {"type": "string"}}
        },
        "handler.yearBody": {
            "type": "object",
            "properties": {"year": {"type": "integer"}}
        },
        "handler.saveBody": {
            "type": "object",
            "properties": {"start": {"type": "integer"}, "end": {"type": "integer"}}
        },
        "model.Coordinate": {
            "type": "object",
            "properties": {"latitude": {"type": "number"}, "longitude": {"type": "number"}}
        },
        "model.Country": {
            "type": "object",
            "properties": {"name": {"type": "string"}, "contour": {"type": "array", "items": {"$ref": "#/definitions/model.Coordinate"}}}
        },
        "model.City": {
            "type": "object",
            "properties": {"name": {"type": "string"}, "coordinate": {"$ref": "#/definitions/model.Coordinate"}}
        },
        "model.Note": {
            "type": "object",
            "properties": {"text": {"type": "string"}}
        },
        "model.Data": {
            "type": "object",
            "properties": {
                "year": {"type": "integer"},
                "countries": {"type": "array", "items": {"$ref": "#/definitions/model.Country"}},
                "cities": {"type": "array", "items": {"$ref": "#/definitions/model.City"}},
                "note": {"$ref": "#/definitions/model.Note"}
            }
        },
        "service.ExportRequest": {
            "type": "object",
            "properties": {
                "file": {"type": "string"},
                "format": {"type": "string"},
                "overwrite": {"type": "boolean"},
                "source": {"type": "string"},
                "author": {"type": "string"}
            }
        },
        "service.ImportResult": {
            "type": "object",
            "properties": {"source": {"type": "string"}, "first_year": {"type": "integer"}, "years": {"type": "integer"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Historical Map API",
	Description:      "Historical atlas data, edit sources and map tiles.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

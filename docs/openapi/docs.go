// Package openapi registers the OpenAPI document of the admin API with
// swag so the Swagger UI can serve it.
package openapi

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "basic": {"type": "basic"},
        "bearer": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/": {
            "get": {"tags": ["System"], "summary": "Service status", "produces": ["application/json"], "responses": {"200": {"description": "status=ok"}}}
        },
        "/healthz": {
            "get": {"tags": ["System"], "summary": "Health check including the session store", "produces": ["application/json"], "responses": {"200": {"description": "status, store_ping"}}}
        },
        "/api/v1/methods": {
            "get": {"tags": ["Methods"], "summary": "Registered methods and their rules", "produces": ["application/json"], "responses": {"200": {"description": "catalog"}}}
        },
        "/api/v1/methods/{name}": {
            "get": {
                "tags": ["Methods"], "summary": "One registered method", "produces": ["application/json"],
                "parameters": [{"name": "name", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "method"}, "404": {"description": "fault -32601"}}
            }
        },
        "/api/v1/authorize": {
            "post": {
                "tags": ["Methods"], "summary": "Authorize the caller for a list of methods", "consumes": ["application/json"], "produces": ["application/json"],
                "security": [{"basic": []}, {"bearer": []}],
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AuthorizeReq"}}],
                "responses": {"200": {"description": "results"}, "400": {"description": "fault -32700 or -32600"}}
            }
        },
        "/api/v1/token": {
            "post": {"tags": ["Auth"], "summary": "Issue a bearer token", "security": [{"basic": []}], "produces": ["application/json"], "responses": {"200": {"description": "token"}, "401": {"description": "authentication required"}}}
        },
        "/api/v1/session": {
            "post": {"tags": ["Auth"], "summary": "Open a cookie session", "security": [{"basic": []}], "produces": ["application/json"], "responses": {"200": {"description": "session"}, "401": {"description": "authentication required"}}},
            "delete": {"tags": ["Auth"], "summary": "Close the cookie session", "produces": ["application/json"], "responses": {"200": {"description": "deleted"}}}
        },
        "/api/v1/whoami": {
            "get": {"tags": ["Auth"], "summary": "The caller's identity", "security": [{"basic": []}, {"bearer": []}], "produces": ["application/json"], "responses": {"200": {"description": "user"}, "401": {"description": "authentication required"}}}
        },
        "/api/v1/settings": {
            "get": {"tags": ["Settings"], "summary": "Effective settings", "security": [{"basic": []}], "produces": ["application/json"], "responses": {"200": {"description": "settings"}, "403": {"description": "superuser required"}}}
        },
        "/api/v1/settings/{name}": {
            "put": {
                "tags": ["Settings"], "summary": "Override a setting", "security": [{"basic": []}], "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"name": "name", "in": "path", "required": true, "type": "string"}, {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SettingReq"}}],
                "responses": {"200": {"description": "setting"}, "403": {"description": "superuser required"}}
            },
            "delete": {
                "tags": ["Settings"], "summary": "Drop a setting override", "security": [{"basic": []}], "produces": ["application/json"],
                "parameters": [{"name": "name", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "setting"}, "403": {"description": "superuser required"}}
            }
        },
        "/api/v1/users/{username}/sessions": {
            "delete": {
                "tags": ["Sessions"], "summary": "Revoke every cookie session of a user", "security": [{"basic": []}], "produces": ["application/json"],
                "parameters": [{"name": "username", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "revoked count"}, "403": {"description": "superuser required"}}
            }
        }
    },
    "definitions": {
        "AuthorizeReq": {"type": "object", "properties": {"methods": {"type": "array", "items": {"type": "string"}}}},
        "SettingReq": {"type": "object", "properties": {"value": {}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "rpc-authd admin API",
	Description:      "Method registry, authorization and credential endpoints.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// Package swagger holds the OpenAPI description served at /swagger.
package swagger

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
        "/applications": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["applications"],
                "summary": "List applications",
                "parameters": [
                    {"type": "string", "description": "Status filter", "name": "status", "in": "query"},
                    {"type": "string", "description": "Name, email, business or tracking id", "name": "search", "in": "query"},
                    {"type": "integer", "description": "Page number (default 1)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Items per page (default 20)", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["applications"],
                "summary": "Submit an application",
                "parameters": [
                    {"description": "Wizard values keyed by field name", "name": "request", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/applications/track/{trackingId}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["applications"],
                "summary": "Track an application",
                "parameters": [{"type": "string", "description": "Tracking ID", "name": "trackingId", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/applications/track/{trackingId}/info": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["applications"],
                "summary": "Supply additional information",
                "parameters": [
                    {"type": "string", "description": "Tracking ID", "name": "trackingId", "in": "path", "required": true},
                    {"description": "Information", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.SupplyInfoRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/applications/track/{trackingId}/payment": {
            "get": {
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "UPI payment instructions",
                "parameters": [{"type": "string", "description": "Tracking ID", "name": "trackingId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/applications/{id}": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["applications"],
                "summary": "Change application status",
                "parameters": [
                    {"type": "string", "description": "Application ID", "name": "id", "in": "path", "required": true},
                    {"description": "Target status", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.UpdateStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/payments": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "List payments",
                "parameters": [{"type": "string", "description": "pending, completed or failed", "name": "status", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Submit payment details",
                "parameters": [{"description": "Payment details", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.SubmitPaymentRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/payments/{id}": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Review a payment",
                "parameters": [
                    {"type": "string", "description": "Payment ID", "name": "id", "in": "path", "required": true},
                    {"description": "Decision", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.ReviewPaymentRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/support": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["support"],
                "summary": "Contact support",
                "parameters": [{"description": "Message", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.CreateSupportRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/approval-letters": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["approval-letters"],
                "summary": "Generate approval letter",
                "parameters": [{"description": "Application", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.GenerateLetterRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/dashboard": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Dashboard statistics",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/audit-logs": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["audit"],
                "summary": "Get audit logs",
                "parameters": [
                    {"type": "string", "description": "Only entries for this record", "name": "entityId", "in": "query"},
                    {"type": "integer", "description": "Page number (default 1)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Number of items per page (default 20)", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log in",
                "parameters": [{"description": "Credentials", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.LoginUserRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/logout": {
            "post": {
                "tags": ["auth"],
                "summary": "Log out",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current user",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        }
    },
    "definitions": {
        "response.Response": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "status_code": {"type": "integer"},
                "code": {"type": "string"},
                "data": {},
                "error": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "service.SupplyInfoRequest": {
            "type": "object",
            "required": ["information"],
            "properties": {"information": {"type": "string"}}
        },
        "service.UpdateStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string"},
                "notes": {"type": "string"},
                "rejectionReason": {"type": "string"},
                "adminNotes": {"type": "string"}
            }
        },
        "service.SubmitPaymentRequest": {
            "type": "object",
            "required": ["trackingId"],
            "properties": {
                "trackingId": {"type": "string"},
                "transactionId": {"type": "string"},
                "utrNumber": {"type": "string"},
                "amount": {"type": "string"},
                "paymentMethod": {"type": "string"}
            }
        },
        "service.ReviewPaymentRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {"status": {"type": "string"}, "notes": {"type": "string"}}
        },
        "service.CreateSupportRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "subject": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "service.GenerateLetterRequest": {
            "type": "object",
            "required": ["applicationId"],
            "properties": {"applicationId": {"type": "string"}}
        },
        "service.LoginUserRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Dealership Application API",
	Description:      "Dealership applications, status tracking, UPI payments and the back-office review workflow.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

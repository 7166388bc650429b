// Package docs registers the OpenAPI document served by gin-swagger.
package docs

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
        "Bearer": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"Bearer": []}],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["auth"], "summary": "Sign in with email and password", "security": [],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {"200": {"description": "token and user"}, "401": {"description": "UNAUTHENTICATED", "schema": {"$ref": "#/definitions/Error"}}}
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["auth"], "summary": "Create a local account", "security": [],
                "responses": {"201": {"description": "token and user"}, "409": {"description": "CONFLICT", "schema": {"$ref": "#/definitions/Error"}}}
            }
        },
        "/auth/me": {
            "get": {"tags": ["auth"], "summary": "Current account", "responses": {"200": {"description": "user"}}}
        },
        "/checkouts": {
            "get": {
                "tags": ["checkouts"], "summary": "List checkouts (non-admins see their own)",
                "parameters": [
                    {"in": "query", "name": "status", "type": "string", "enum": ["borrowed", "returned", "overdue"]},
                    {"in": "query", "name": "user_id", "type": "integer"},
                    {"in": "query", "name": "book_id", "type": "integer"},
                    {"in": "query", "name": "page", "type": "integer", "default": 1},
                    {"in": "query", "name": "limit", "type": "integer", "default": 10, "maximum": 100}
                ],
                "responses": {"200": {"description": "page", "schema": {"$ref": "#/definitions/CheckoutList"}}}
            },
            "post": {
                "tags": ["checkouts"], "summary": "Check a book out",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/CheckoutRequest"}}],
                "responses": {
                    "201": {"description": "created", "schema": {"$ref": "#/definitions/CheckoutEnvelope"}},
                    "400": {"description": "INVALID_ARGUMENT or LIMIT_EXCEEDED", "schema": {"$ref": "#/definitions/Error"}},
                    "403": {"description": "FORBIDDEN", "schema": {"$ref": "#/definitions/Error"}},
                    "404": {"description": "NOT_FOUND", "schema": {"$ref": "#/definitions/Error"}},
                    "409": {"description": "CONFLICT", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/checkouts/{id}": {
            "get": {
                "tags": ["checkouts"], "summary": "Get a checkout",
                "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}],
                "responses": {"200": {"description": "checkout", "schema": {"$ref": "#/definitions/CheckoutEnvelope"}}, "404": {"description": "NOT_FOUND", "schema": {"$ref": "#/definitions/Error"}}}
            }
        },
        "/checkouts/{id}/return": {
            "put": {
                "tags": ["checkouts"], "summary": "Return a book",
                "parameters": [
                    {"in": "path", "name": "id", "type": "integer", "required": true},
                    {"in": "body", "name": "body", "schema": {"$ref": "#/definitions/ReturnRequest"}}
                ],
                "responses": {"200": {"description": "returned", "schema": {"$ref": "#/definitions/CheckoutEnvelope"}}, "404": {"description": "NOT_FOUND", "schema": {"$ref": "#/definitions/Error"}}}
            }
        },
        "/checkouts/overdue": {
            "get": {
                "tags": ["checkouts"], "summary": "Open checkouts past their due date, soonest due first",
                "parameters": [
                    {"in": "query", "name": "page", "type": "integer", "default": 1},
                    {"in": "query", "name": "limit", "type": "integer", "default": 10, "maximum": 100}
                ],
                "responses": {"200": {"description": "page", "schema": {"$ref": "#/definitions/CheckoutList"}}}
            }
        },
        "/checkouts/overdue.csv": {
            "get": {"tags": ["checkouts"], "summary": "Overdue checkouts as Shift_JIS CSV (admin)", "produces": ["text/csv"], "responses": {"200": {"description": "csv"}}}
        },
        "/checkouts/user/{user_id}": {
            "get": {
                "tags": ["checkouts"], "summary": "Checkouts of one user",
                "parameters": [{"in": "path", "name": "user_id", "type": "integer", "required": true}],
                "responses": {"200": {"description": "page", "schema": {"$ref": "#/definitions/CheckoutList"}}}
            }
        },
        "/books": {
            "get": {"tags": ["books"], "summary": "Search books", "parameters": [{"in": "query", "name": "q", "type": "string"}, {"in": "query", "name": "status", "type": "string"}], "responses": {"200": {"description": "page"}}},
            "post": {"tags": ["books"], "summary": "Add a book (admin)", "responses": {"201": {"description": "book"}, "409": {"description": "CONFLICT"}}}
        },
        "/books/{id}": {
            "get": {"tags": ["books"], "summary": "Get a book", "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}], "responses": {"200": {"description": "book"}}},
            "put": {"tags": ["books"], "summary": "Update a book (admin)", "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}], "responses": {"200": {"description": "book"}}},
            "delete": {"tags": ["books"], "summary": "Soft-delete a book (admin)", "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}], "responses": {"200": {"description": "deleted"}, "409": {"description": "open checkout exists"}}}
        },
        "/books/{id}/status": {
            "put": {"tags": ["books"], "summary": "Set available or maintenance (admin)", "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}], "responses": {"200": {"description": "status"}}}
        },
        "/users": {
            "get": {"tags": ["users"], "summary": "List users (admin)", "responses": {"200": {"description": "page"}}},
            "post": {"tags": ["users"], "summary": "Create a user (admin)", "responses": {"201": {"description": "user"}}}
        },
        "/users/{id}": {
            "delete": {"tags": ["users"], "summary": "Soft-delete a user (admin)", "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}], "responses": {"200": {"description": "deleted"}, "409": {"description": "open checkouts exist"}}}
        },
        "/stats/overview": {"get": {"tags": ["stats"], "summary": "Totals (admin)", "responses": {"200": {"description": "overview"}}}},
        "/stats/monthly": {"get": {"tags": ["stats"], "summary": "Daily checkouts and returns for a month (admin)", "responses": {"200": {"description": "stats"}}}},
        "/stats/popular": {"get": {"tags": ["stats"], "summary": "Most borrowed books (admin)", "responses": {"200": {"description": "books"}}}},
        "/stats/user/{user_id}": {"get": {"tags": ["stats"], "summary": "Per-user counts", "parameters": [{"in": "path", "name": "user_id", "type": "integer", "required": true}], "responses": {"200": {"description": "stats"}}}}
    },
    "definitions": {
        "Error": {
            "type": "object",
            "properties": {"error": {"type": "object", "properties": {
                "code": {"type": "string", "enum": ["INVALID_ARGUMENT", "NOT_FOUND", "CONFLICT", "LIMIT_EXCEEDED", "UNAUTHENTICATED", "FORBIDDEN", "INTERNAL"]},
                "message": {"type": "string"}
            }}}
        },
        "LoginRequest": {"type": "object", "required": ["email", "password"], "properties": {"email": {"type": "string"}, "password": {"type": "string"}}},
        "CheckoutRequest": {
            "type": "object", "required": ["book_id", "user_id"],
            "properties": {"book_id": {"type": "integer"}, "user_id": {"type": "integer"}, "due_date": {"type": "string", "format": "date-time"}}
        },
        "ReturnRequest": {"type": "object", "properties": {"return_date": {"type": "string", "format": "date-time"}}},
        "Checkout": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"}, "book_id": {"type": "integer"}, "user_id": {"type": "integer"},
                "borrowed_date": {"type": "string", "format": "date-time"},
                "due_date": {"type": "string", "format": "date-time"},
                "return_date": {"type": "string", "format": "date-time", "x-nullable": true},
                "status": {"type": "string", "enum": ["borrowed", "returned"]},
                "overdue": {"type": "boolean"},
                "book": {"type": "object", "properties": {"id": {"type": "integer"}, "title": {"type": "string"}, "author": {"type": "string"}, "isbn": {"type": "string"}}},
                "user": {"type": "object", "properties": {"id": {"type": "integer"}, "name": {"type": "string"}, "email": {"type": "string"}, "student_id": {"type": "string"}}}
            }
        },
        "CheckoutEnvelope": {"type": "object", "properties": {"checkout": {"$ref": "#/definitions/Checkout"}}},
        "Pagination": {"type": "object", "properties": {"total": {"type": "integer"}, "page": {"type": "integer"}, "limit": {"type": "integer"}, "total_pages": {"type": "integer"}}},
        "CheckoutList": {"type": "object", "properties": {"checkouts": {"type": "array", "items": {"$ref": "#/definitions/Checkout"}}, "pagination": {"$ref": "#/definitions/Pagination"}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "2.0.0",
	Host:             "",
	BasePath:         "/api/v2",
	Schemes:          []string{},
	Title:            "Library Checkout API",
	Description:      "Books, users and the checkout ledger.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

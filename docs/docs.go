// Package docs は /swagger で配信する API ドキュメント
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
    "securityDefinitions": {
        "Bearer": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "security": [{"Bearer": []}],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Log in and receive a token",
                "security": [],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/auth.LoginRequest"}}],
                "responses": {
                    "200": {"description": "data.token", "schema": {"$ref": "#/definitions/httpx.Envelope"}},
                    "400": {"description": "bad credential", "schema": {"$ref": "#/definitions/httpx.Envelope"}}
                }
            }
        },
        "/auth/check": {
            "get": {
                "tags": ["auth"],
                "summary": "Validate the current token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httpx.Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httpx.Envelope"}}
                }
            }
        },
        "/auth/info": {
            "get": {
                "tags": ["auth"],
                "summary": "Current account",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httpx.Envelope"}}}
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Create an account (admin only)",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/auth.RegisterRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/httpx.Envelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httpx.Envelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpx.Envelope"}}
                }
            }
        },
        "/book/all": {
            "post": {
                "tags": ["books"],
                "summary": "List books",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/list.Request"}}],
                "responses": {"200": {"description": "data.items, data.total", "schema": {"$ref": "#/definitions/httpx.Envelope"}}}
            }
        },
        "/book/search": {
            "post": {
                "tags": ["books"],
                "summary": "Typeahead search by isbn prefix or name",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/httpx.SearchRequest"}}],
                "responses": {"200": {"description": "data.items", "schema": {"$ref": "#/definitions/httpx.Envelope"}}}
            }
        },
        "/book/add": {
            "post": {
                "tags": ["books"],
                "summary": "Add a book",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/books.CreateBookRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/httpx.Envelope"}},
                    "409": {"description": "isbn already exists", "schema": {"$ref": "#/definitions/httpx.Envelope"}}
                }
            }
        },
        "/book/{isbn}": {
            "get": {
                "tags": ["books"],
                "summary": "Get a book",
                "parameters": [{"in": "path", "name": "isbn", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httpx.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpx.Envelope"}}
                }
            },
            "patch": {
                "tags": ["books"],
                "summary": "Edit a book",
                "parameters": [{"in": "path", "name": "isbn", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httpx.Envelope"}}}
            },
            "delete": {
                "tags": ["books"],
                "summary": "Delist a book",
                "parameters": [{"in": "path", "name": "isbn", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httpx.Envelope"}},
                    "409": {"description": "unreturned records", "schema": {"$ref": "#/definitions/httpx.Envelope"}}
                }
            }
        },
        "/reader/all": {
            "post": {
                "tags": ["readers"],
                "summary": "List readers",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/list.Request"}}],
                "responses": {"200": {"description": "data.items, data.total", "schema": {"$ref": "#/definitions/httpx.Envelope"}}}
            }
        },
        "/reader/search": {
            "post": {
                "tags": ["readers"],
                "summary": "Typeahead search by id_card prefix or name",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/httpx.SearchRequest"}}],
                "responses": {"200": {"description": "data.items", "schema": {"$ref": "#/definitions/httpx.Envelope"}}}
            }
        },
        "/reader/add": {
            "post": {
                "tags": ["readers"],
                "summary": "Add a reader",
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/httpx.Envelope"}}}
            }
        },
        "/reader/{id_card}": {
            "get": {
                "tags": ["readers"],
                "summary": "Get a reader",
                "parameters": [{"in": "path", "name": "id_card", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httpx.Envelope"}}}
            },
            "patch": {
                "tags": ["readers"],
                "summary": "Edit a reader",
                "parameters": [{"in": "path", "name": "id_card", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httpx.Envelope"}}}
            },
            "delete": {
                "tags": ["readers"],
                "summary": "Remove a reader",
                "parameters": [{"in": "path", "name": "id_card", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httpx.Envelope"}}}
            }
        },
        "/record/all": {
            "post": {
                "tags": ["records"],
                "summary": "List borrowing records",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/list.Request"}}],
                "responses": {"200": {"description": "data.items, data.total", "schema": {"$ref": "#/definitions/httpx.Envelope"}}}
            }
        },
        "/record": {
            "post": {
                "tags": ["records"],
                "summary": "Register a borrowing",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/records.CreateRecordRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/httpx.Envelope"}},
                    "409": {"description": "out of stock", "schema": {"$ref": "#/definitions/httpx.Envelope"}}
                }
            }
        },
        "/record/{uuid}": {
            "get": {
                "tags": ["records"],
                "summary": "Get a record with its fee payments",
                "parameters": [{"in": "path", "name": "uuid", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httpx.Envelope"}}}
            },
            "delete": {
                "tags": ["records"],
                "summary": "Return the book",
                "parameters": [{"in": "path", "name": "uuid", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httpx.Envelope"}},
                    "409": {"description": "FEE_OUTSTANDING or already returned", "schema": {"$ref": "#/definitions/httpx.Envelope"}}
                }
            }
        },
        "/punishment": {
            "post": {
                "tags": ["records"],
                "summary": "Pay a late fee installment",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/records.PaymentRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httpx.Envelope"}}}
            }
        }
    },
    "definitions": {
        "httpx.Envelope": {
            "type": "object",
            "properties": {
                "data": {},
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "httpx.SearchRequest": {
            "type": "object",
            "properties": {"keyword": {"type": "string"}}
        },
        "list.Request": {
            "type": "object",
            "properties": {
                "query": {"type": "object"},
                "page": {"type": "integer"},
                "size": {"type": "integer"}
            }
        },
        "auth.LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {"username": {"type": "string"}, "password": {"type": "string"}}
        },
        "auth.RegisterRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {"username": {"type": "string"}, "password": {"type": "string"}, "role": {"type": "string"}}
        },
        "books.CreateBookRequest": {
            "type": "object",
            "required": ["isbn", "name", "author", "publisher", "count"],
            "properties": {
                "isbn": {"type": "string"},
                "name": {"type": "string"},
                "author": {"type": "string"},
                "publisher": {"type": "string"},
                "publish_date": {"type": "string", "format": "date-time"},
                "count": {"type": "integer"},
                "cover": {"type": "string"}
            }
        },
        "records.CreateRecordRequest": {
            "type": "object",
            "required": ["id_card", "isbn", "return_date"],
            "properties": {
                "id_card": {"type": "string"},
                "isbn": {"type": "string"},
                "return_date": {"type": "string", "format": "date-time"}
            }
        },
        "records.PaymentRequest": {
            "type": "object",
            "required": ["uuid", "amount"],
            "properties": {"uuid": {"type": "string"}, "amount": {"type": "number"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Library Admin API",
	Description:      "Books, readers, borrowing records and late fees.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

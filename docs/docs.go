// Package docs registers the OpenAPI document served under /swagger/.
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
        "/api/command": {
            "post": {
                "description": "Runs the command through language detection, intent resolution and execution.\nPipeline failures are normal replies with success=false.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["commands"],
                "summary": "Submit a command",
                "parameters": [
                    {
                        "description": "Command text and optional language hint (auto, en, fa)",
                        "name": "command",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/httpapi.CommandRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httpapi.CommandResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpapi.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httpapi.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/httpapi.ErrorResponse"}}
                }
            }
        },
        "/api/devices": {
            "get": {
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "List devices",
                "parameters": [
                    {"type": "string", "description": "lamp, ac or tv", "name": "category", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "array",
                                "items": {"$ref": "#/definitions/httpapi.DeviceResponse"}
                            }
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpapi.ErrorResponse"}}
                }
            }
        },
        "/api/devices/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "Get a device",
                "parameters": [
                    {"type": "string", "description": "Device id, e.g. kitchen_lamp", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httpapi.DeviceResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpapi.ErrorResponse"}}
                }
            }
        },
        "/api/devices/{id}/toggle": {
            "post": {
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "Toggle a device",
                "parameters": [
                    {"type": "string", "description": "Device id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httpapi.ActionResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httpapi.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpapi.ActionResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/httpapi.ErrorResponse"}}
                }
            }
        },
        "/api/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["status"],
                "summary": "Conversation history",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/httpapi.TurnResponse"}}
                    }
                }
            }
        },
        "/api/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["status"],
                "summary": "System status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httpapi.StatusResponse"}}
                }
            }
        }
    },
    "definitions": {
        "httpapi.ActionResponse": {
            "type": "object",
            "properties": {
                "affected_device_ids": {"type": "array", "items": {"type": "string"}},
                "error_kind": {"type": "string"},
                "message": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "httpapi.CommandRequest": {
            "type": "object",
            "properties": {
                "command": {"type": "string", "example": "turn on the kitchen lamp"},
                "language": {"type": "string", "example": "auto"}
            }
        },
        "httpapi.CommandResponse": {
            "type": "object",
            "properties": {
                "error_kind": {"type": "string"},
                "language_detected": {"type": "string"},
                "response": {"type": "string"},
                "success": {"type": "boolean"},
                "translation_degraded": {"type": "boolean"},
                "turn_id": {"type": "string"}
            }
        },
        "httpapi.DeviceResponse": {
            "type": "object",
            "properties": {
                "attributes": {"type": "object", "additionalProperties": {}},
                "category": {"type": "string"},
                "id": {"type": "string"},
                "location": {"type": "string"},
                "name": {"type": "string"},
                "online": {"type": "boolean"},
                "power": {"type": "boolean"},
                "updated_at": {"type": "string"}
            }
        },
        "httpapi.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "httpapi.StatusResponse": {
            "type": "object",
            "properties": {
                "by_category": {"type": "object", "additionalProperties": {"type": "integer"}},
                "offline": {"type": "integer"},
                "powered_on": {"type": "integer"},
                "total_devices": {"type": "integer"}
            }
        },
        "httpapi.TurnResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "input": {"type": "string"},
                "language": {"type": "string"},
                "response": {"type": "string"},
                "success": {"type": "boolean"},
                "timestamp": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Smart Home Assistant API",
	Description:      "Natural-language control of lamps, air conditioners and TVs.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

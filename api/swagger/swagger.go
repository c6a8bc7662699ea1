package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Check-In API",
        "description": "Kiosk check-in opportunity resolution service",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Kiosk device authentication"},
        {"name": "CheckIn", "description": "Family search, option resolution and labels"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Unavailable"}
                }
            }
        },
        "/auth/kiosk/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate kiosk",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/KioskLoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/checkin/search": {
            "post": {
                "tags": ["CheckIn"],
                "summary": "Search families",
                "parameters": [
                    {"name": "term", "in": "query", "type": "string", "required": true},
                    {"name": "campus_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Constraint violation", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/checkin/family": {
            "post": {
                "tags": ["CheckIn"],
                "summary": "Resolve family check-in options",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FamilyCheckInRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/checkin/person": {
            "post": {
                "tags": ["CheckIn"],
                "summary": "Resolve single-person check-in options",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PersonCheckInRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/checkin/current": {
            "get": {
                "tags": ["CheckIn"],
                "summary": "List current attendance",
                "parameters": [
                    {"name": "person_ids", "in": "query", "type": "array", "items": {"type": "string"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/checkin/labels": {
            "post": {
                "tags": ["CheckIn"],
                "summary": "Print name tags",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LabelRequest"}}
                ],
                "responses": {
                    "200": {"description": "PDF or CSV bytes"},
                    "422": {"description": "No open attendance", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "KioskLoginRequest": {
            "type": "object",
            "required": ["device_id", "pin"],
            "properties": {
                "device_id": {"type": "string"},
                "pin": {"type": "string"}
            }
        },
        "FamilyCheckInRequest": {
            "type": "object",
            "required": ["family_id"],
            "properties": {
                "family_id": {"type": "string"},
                "area_ids": {"type": "array", "items": {"type": "string"}},
                "location_ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "PersonCheckInRequest": {
            "type": "object",
            "required": ["person_id"],
            "properties": {
                "person_id": {"type": "string"},
                "area_ids": {"type": "array", "items": {"type": "string"}},
                "location_ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "LabelRequest": {
            "type": "object",
            "required": ["person_ids"],
            "properties": {
                "person_ids": {"type": "array", "items": {"type": "string"}},
                "format": {"type": "string", "enum": ["pdf", "csv"]}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}

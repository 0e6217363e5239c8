// Package docs holds the Swagger 2.0 document of the HTTP API. It mirrors the
// swag annotations on cmd/api and internal/http/handler; regenerate it with
// swag init -g cmd/api/main.go after changing them.
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
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "health"
                ],
                "summary": "Readiness check",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {
                            "$ref": "#/definitions/handler.errorPayload"
                        }
                    }
                }
            }
        },
        "/healthz": {
            "get": {
                "tags": [
                    "health"
                ],
                "summary": "Liveness probe",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/prescriptions": {
            "post": {
                "description": "Every image is classified; the batch is stored only when all of them match the document type. Empty schema fields are filled from the classifier consensus, \"null\" clears a field.",
                "consumes": [
                    "multipart/form-data"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "documents"
                ],
                "summary": "Upload a new prescription or report",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Access token, or use the Authorization header",
                        "name": "accessToken",
                        "in": "formData",
                        "required": false
                    },
                    {
                        "type": "integer",
                        "description": "Family member id",
                        "name": "member_id",
                        "in": "formData",
                        "required": true
                    },
                    {
                        "type": "file",
                        "description": "Document image (repeatable)",
                        "name": "image",
                        "in": "formData",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Title",
                        "name": "title",
                        "in": "formData",
                        "required": false
                    },
                    {
                        "type": "boolean",
                        "description": "Shared with the family",
                        "name": "shared",
                        "in": "formData",
                        "required": false
                    },
                    {
                        "type": "string",
                        "description": "Prescription department",
                        "name": "department",
                        "in": "formData",
                        "required": false
                    },
                    {
                        "type": "string",
                        "description": "Prescription doctor",
                        "name": "doctor_name",
                        "in": "formData",
                        "required": false
                    },
                    {
                        "type": "string",
                        "description": "Prescription visit date (YYYY-MM-DD)",
                        "name": "visited_date",
                        "in": "formData",
                        "required": false
                    },
                    {
                        "type": "string",
                        "description": "Report test name",
                        "name": "test_name",
                        "in": "formData",
                        "required": false
                    },
                    {
                        "type": "string",
                        "description": "Report delivery date (YYYY-MM-DD)",
                        "name": "deliveryDate",
                        "in": "formData",
                        "required": false
                    },
                    {
                        "type": "string",
                        "description": "Report result flag",
                        "name": "normal_or_not",
                        "in": "formData",
                        "required": false
                    },
                    {
                        "type": "integer",
                        "description": "Parent prescription of a report",
                        "name": "prescription_id",
                        "in": "formData",
                        "required": false
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/handler.documentResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/handler.errorPayload"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handler.errorPayload"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/handler.errorPayload"
                        }
                    }
                }
            }
        },
        "/prescriptions/{id}/images": {
            "post": {
                "consumes": [
                    "multipart/form-data"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "documents"
                ],
                "summary": "Append images to an existing document",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Document id",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Access token, or use the Authorization header",
                        "name": "accessToken",
                        "in": "formData",
                        "required": false
                    },
                    {
                        "type": "integer",
                        "description": "Family member id",
                        "name": "member_id",
                        "in": "formData",
                        "required": true
                    },
                    {
                        "type": "file",
                        "description": "Document image (repeatable)",
                        "name": "image",
                        "in": "formData",
                        "required": true
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/handler.appendResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/handler.errorPayload"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handler.errorPayload"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/handler.errorPayload"
                        }
                    }
                }
            }
        },
        "/profile/image": {
            "post": {
                "consumes": [
                    "multipart/form-data"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "profile"
                ],
                "summary": "Replace the profile picture",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Access token, or use the Authorization header",
                        "name": "accessToken",
                        "in": "formData",
                        "required": false
                    },
                    {
                        "type": "integer",
                        "description": "Family member id",
                        "name": "member_id",
                        "in": "formData",
                        "required": true
                    },
                    {
                        "type": "file",
                        "description": "Profile image",
                        "name": "image",
                        "in": "formData",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/handler.errorPayload"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handler.errorPayload"
                        }
                    }
                }
            }
        },
        "/profiles/{name}": {
            "get": {
                "produces": [
                    "image/png"
                ],
                "tags": [
                    "files"
                ],
                "summary": "Download a stored image",
                "parameters": [
                    {
                        "type": "string",
                        "description": "File name",
                        "name": "name",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Access or file token",
                        "name": "token",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handler.errorPayload"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/handler.errorPayload"
                        }
                    }
                }
            }
        },
        "/reports": {
            "post": {
                "description": "Every image is classified; the batch is stored only when all of them match the document type. Empty schema fields are filled from the classifier consensus, \"null\" clears a field.",
                "consumes": [
                    "multipart/form-data"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "documents"
                ],
                "summary": "Upload a new prescription or report",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Access token, or use the Authorization header",
                        "name": "accessToken",
                        "in": "formData",
                        "required": false
                    },
                    {
                        "type": "integer",
                        "description": "Family member id",
                        "name": "member_id",
                        "in": "formData",
                        "required": true
                    },
                    {
                        "type": "file",
                        "description": "Document image (repeatable)",
                        "name": "image",
                        "in": "formData",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Title",
                        "name": "title",
                        "in": "formData",
                        "required": false
                    },
                    {
                        "type": "boolean",
                        "description": "Shared with the family",
                        "name": "shared",
                        "in": "formData",
                        "required": false
                    },
                    {
                        "type": "string",
                        "description": "Prescription department",
                        "name": "department",
                        "in": "formData",
                        "required": false
                    },
                    {
                        "type": "string",
                        "description": "Prescription doctor",
                        "name": "doctor_name",
                        "in": "formData",
                        "required": false
                    },
                    {
                        "type": "string",
                        "description": "Prescription visit date (YYYY-MM-DD)",
                        "name": "visited_date",
                        "in": "formData",
                        "required": false
                    },
                    {
                        "type": "string",
                        "description": "Report test name",
                        "name": "test_name",
                        "in": "formData",
                        "required": false
                    },
                    {
                        "type": "string",
                        "description": "Report delivery date (YYYY-MM-DD)",
                        "name": "deliveryDate",
                        "in": "formData",
                        "required": false
                    },
                    {
                        "type": "string",
                        "description": "Report result flag",
                        "name": "normal_or_not",
                        "in": "formData",
                        "required": false
                    },
                    {
                        "type": "integer",
                        "description": "Parent prescription of a report",
                        "name": "prescription_id",
                        "in": "formData",
                        "required": false
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/handler.documentResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/handler.errorPayload"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handler.errorPayload"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/handler.errorPayload"
                        }
                    }
                }
            }
        },
        "/reports/{id}/images": {
            "post": {
                "consumes": [
                    "multipart/form-data"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "documents"
                ],
                "summary": "Append images to an existing document",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Document id",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Access token, or use the Authorization header",
                        "name": "accessToken",
                        "in": "formData",
                        "required": false
                    },
                    {
                        "type": "integer",
                        "description": "Family member id",
                        "name": "member_id",
                        "in": "formData",
                        "required": true
                    },
                    {
                        "type": "file",
                        "description": "Document image (repeatable)",
                        "name": "image",
                        "in": "formData",
                        "required": true
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/handler.appendResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/handler.errorPayload"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handler.errorPayload"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/handler.errorPayload"
                        }
                    }
                }
            }
        },
        "/shared": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "sharing"
                ],
                "summary": "List shared documents",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Share token",
                        "name": "token",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handler.sharedResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handler.errorPayload"
                        }
                    }
                }
            }
        },
        "/uploads/{name}": {
            "get": {
                "produces": [
                    "image/png"
                ],
                "tags": [
                    "files"
                ],
                "summary": "Download a stored image",
                "parameters": [
                    {
                        "type": "string",
                        "description": "File name",
                        "name": "name",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Access or file token",
                        "name": "token",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handler.errorPayload"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/handler.errorPayload"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "handler.appendResponse": {
            "type": "object",
            "properties": {
                "document_id": {
                    "type": "integer"
                },
                "images": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/model.ImageRecord"
                    }
                },
                "kind": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                }
            }
        },
        "handler.documentResponse": {
            "type": "object",
            "properties": {
                "auto_filled_data": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "string"
                    }
                },
                "auto_filled_fields": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "document_id": {
                    "type": "integer"
                },
                "images": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/model.ImageRecord"
                    }
                },
                "kind": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                }
            }
        },
        "handler.errorEnvelope": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "invalid_files": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/model.InvalidFile"
                    }
                },
                "message": {
                    "type": "string"
                }
            }
        },
        "handler.errorPayload": {
            "type": "object",
            "properties": {
                "error": {
                    "$ref": "#/definitions/handler.errorEnvelope"
                },
                "request_id": {
                    "type": "string"
                }
            }
        },
        "handler.sharedResponse": {
            "type": "object",
            "properties": {
                "access_token": {
                    "type": "string"
                },
                "expires_at": {
                    "type": "string"
                },
                "prescriptions": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/model.SharedPrescription"
                    }
                },
                "standalone_reports": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/model.SharedReport"
                    }
                }
            }
        },
        "model.ImageRecord": {
            "type": "object",
            "properties": {
                "created_at": {
                    "type": "string"
                },
                "document_id": {
                    "type": "integer"
                },
                "fingerprint": {
                    "type": "string"
                },
                "id": {
                    "type": "integer"
                },
                "normalized_path": {
                    "type": "string"
                },
                "thumbnail_path": {
                    "type": "string"
                }
            }
        },
        "model.InvalidFile": {
            "type": "object",
            "properties": {
                "classified_as": {
                    "type": "string"
                },
                "index": {
                    "type": "integer"
                },
                "original_name": {
                    "type": "string"
                },
                "reason": {
                    "type": "string"
                }
            }
        },
        "model.SharedImage": {
            "type": "object",
            "properties": {
                "document_id": {
                    "type": "integer"
                },
                "id": {
                    "type": "integer"
                },
                "normalized_path": {
                    "type": "string"
                },
                "thumbnail_path": {
                    "type": "string"
                }
            }
        },
        "model.SharedPrescription": {
            "type": "object",
            "properties": {
                "created_at": {
                    "type": "string"
                },
                "department": {
                    "type": "string"
                },
                "doctor_name": {
                    "type": "string"
                },
                "id": {
                    "type": "integer"
                },
                "images": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/model.SharedImage"
                    }
                },
                "reports": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/model.SharedReport"
                    }
                },
                "title": {
                    "type": "string"
                },
                "visited_date": {
                    "type": "string"
                }
            }
        },
        "model.SharedReport": {
            "type": "object",
            "properties": {
                "created_at": {
                    "type": "string"
                },
                "delivery_date": {
                    "type": "string"
                },
                "id": {
                    "type": "integer"
                },
                "images": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/model.SharedImage"
                    }
                },
                "prescription_id": {
                    "type": "integer"
                },
                "test_name": {
                    "type": "string"
                },
                "title": {
                    "type": "string"
                }
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
	Title:            "Document Ingestion API",
	Description:      "Classifies and stores medical document images.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Club Membership API",
        "description": "Membership registration, review and card issuance service",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Administrator and member login"},
        {"name": "Members", "description": "Registration and member self-service"},
        {"name": "Admin", "description": "Application review workflow"},
        {"name": "Cards", "description": "Membership card downloads"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Members"],
                "summary": "Register a membership application",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "name", "in": "formData", "required": true, "type": "string"},
                    {"name": "nickname", "in": "formData", "required": true, "type": "string"},
                    {"name": "father_name", "in": "formData", "type": "string"},
                    {"name": "email", "in": "formData", "type": "string"},
                    {"name": "phone", "in": "formData", "required": true, "type": "string"},
                    {"name": "whatsapp", "in": "formData", "type": "string"},
                    {"name": "age", "in": "formData", "type": "integer"},
                    {"name": "dob", "in": "formData", "type": "string"},
                    {"name": "blood_group", "in": "formData", "required": true, "type": "string"},
                    {"name": "address", "in": "formData", "required": true, "type": "string"},
                    {"name": "photo", "in": "formData", "type": "file"},
                    {"name": "paymentProof", "in": "formData", "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Phone already registered"}
                }
            }
        },
        "/admin/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Administrator login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AdminLoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/member/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Member login by phone and membership identifier",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MemberLoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Membership not approved"}
                }
            }
        },
        "/user/{id}": {
            "get": {
                "tags": ["Members"],
                "summary": "Get a member record",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/user/{id}/payment-proof": {
            "post": {
                "tags": ["Members"],
                "summary": "Upload payment proof for an existing application",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "paymentProof", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/membership-card/{id}": {
            "get": {
                "tags": ["Cards"],
                "summary": "Download the membership card PDF",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "PDF"},
                    "403": {"description": "Membership not approved"}
                }
            }
        },
        "/admin/pending-users": {
            "get": {
                "tags": ["Admin"],
                "summary": "List applications awaiting review",
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/all-users": {
            "get": {
                "tags": ["Admin"],
                "summary": "List every member record",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/approve/{id}": {
            "post": {
                "tags": ["Admin"],
                "summary": "Approve an application",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict, please retry"},
                    "412": {"description": "Photo and payment proof are required"}
                }
            }
        },
        "/admin/reject/{id}": {
            "post": {
                "tags": ["Admin"],
                "summary": "Reject an application",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/users/{id}": {
            "put": {
                "tags": ["Admin"],
                "summary": "Edit a member's demographic fields",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EditMemberRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Admin"],
                "summary": "Delete a member record and its attachments",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/admin/users/{id}/attachments": {
            "get": {
                "tags": ["Admin"],
                "summary": "Issue signed download links for a member's attachments",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/export": {
            "get": {
                "tags": ["Admin"],
                "summary": "Download the member roster as CSV",
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "CSV"}
                }
            }
        },
        "/admin/audit-logs": {
            "get": {
                "tags": ["Admin"],
                "summary": "List recent administrative actions",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer", "default": 50}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Member": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "nickname": {"type": "string"},
                "father_name": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "whatsapp": {"type": "string"},
                "age": {"type": "integer"},
                "dob": {"type": "string"},
                "blood_group": {"type": "string"},
                "address": {"type": "string"},
                "photo_url": {"type": "string"},
                "payment_proof_url": {"type": "string"},
                "status": {"type": "string"},
                "membership_id": {"type": "string"},
                "approved_at": {"type": "string"},
                "expiry_date": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "AdminLoginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["username", "password"]
        },
        "MemberLoginRequest": {
            "type": "object",
            "properties": {
                "phone": {"type": "string"},
                "membership_id": {"type": "string"}
            },
            "required": ["phone", "membership_id"]
        },
        "EditMemberRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "nickname": {"type": "string"},
                "father_name": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "whatsapp": {"type": "string"},
                "age": {"type": "integer"},
                "dob": {"type": "string"},
                "blood_group": {"type": "string"},
                "address": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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

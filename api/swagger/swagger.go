package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "StudyPlan API",
        "description": "Study plan generation service for exam preparation platforms",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "StudyPlans", "description": "Study plan generation and management"},
        {"name": "Admin", "description": "Operational endpoints"}
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
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate with email and password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange a refresh token for a new token pair",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Token expired or revoked"}
                }
            }
        },
        "/study-plans/generate": {
            "post": {
                "tags": ["StudyPlans"],
                "summary": "Generate a week-by-week study plan",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateStudyPlanRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failure or infeasible selection"},
                    "403": {"description": "Plan belongs to another student"}
                }
            }
        },
        "/study-plans": {
            "get": {
                "tags": ["StudyPlans"],
                "summary": "List study plans",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/study-plans/{id}": {
            "get": {
                "tags": ["StudyPlans"],
                "summary": "Get a study plan with its items",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "tags": ["StudyPlans"],
                "summary": "Delete a study plan",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/study-plans/{id}/items/{itemId}": {
            "patch": {
                "tags": ["StudyPlans"],
                "summary": "Toggle completion of a scheduled lesson",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "itemId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/study-plans/{id}/export": {
            "get": {
                "tags": ["StudyPlans"],
                "summary": "Export a study plan as CSV or PDF",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/admin/status": {
            "get": {
                "tags": ["Admin"],
                "summary": "Aggregated runtime metrics snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "GenerateStudyPlanRequest": {
            "type": "object",
            "required": ["start_date", "end_date", "hours_per_day", "days_per_week", "discipline_ids", "mode"],
            "properties": {
                "student_id": {"type": "string"},
                "target_course_id": {"type": "string"},
                "name": {"type": "string"},
                "start_date": {"type": "string", "format": "date"},
                "end_date": {"type": "string", "format": "date"},
                "hours_per_day": {"type": "number"},
                "days_per_week": {"type": "integer"},
                "discipline_ids": {"type": "array", "items": {"type": "string"}},
                "module_ids": {"type": "array", "items": {"type": "string"}},
                "min_priority": {"type": "integer"},
                "mode": {"type": "string", "enum": ["parallel", "sequential"]},
                "front_order": {"type": "array", "items": {"type": "string"}},
                "vacations": {"type": "array", "items": {"$ref": "#/definitions/VacationPeriod"}},
                "playback_speed": {"type": "number"},
                "exclude_completed": {"type": "boolean"}
            }
        },
        "VacationPeriod": {
            "type": "object",
            "properties": {
                "start": {"type": "string", "format": "date"},
                "end": {"type": "string", "format": "date"}
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
                "status": {"type": "integer"},
                "details": {"type": "object"}
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

package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable GA API",
        "description": "Genetic-algorithm timetable generation for faculties, classrooms and batches",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Timetable", "description": "Generation, retrieval and export of timetables"},
        {"name": "Ops", "description": "Health, readiness and metrics"}
    ],
    "paths": {
        "/timetable/generate": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Generate a timetable",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Unfulfilled requirements under the reject policy", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/jobs": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Queue a timetable generation",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Queue full", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/jobs/{id}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Get generation job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/timetables": {
            "get": {
                "tags": ["Timetable"],
                "summary": "List generated timetables",
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/timetables/{id}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Get a generated timetable",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/timetables/{id}/export": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Download a timetable as CSV or PDF",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/timetables/batch/{batchId}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Timetables narrowed to one batch",
                "parameters": [
                    {"name": "batchId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/timetables/faculty/{facultyId}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Timetables narrowed to one faculty",
                "parameters": [
                    {"name": "facultyId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/data": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Last submitted problem and slot catalog",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Timetable"],
                "summary": "Clear stored problem, timetables and cache",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "TimeSlot": {
            "type": "object",
            "required": ["day", "startTime", "endTime"],
            "properties": {
                "id": {"type": "string"},
                "day": {"type": "string", "enum": ["Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"]},
                "startTime": {"type": "string", "example": "09:00"},
                "endTime": {"type": "string", "example": "10:00"},
                "duration": {"type": "integer"}
            }
        },
        "Subject": {
            "type": "object",
            "required": ["id"],
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "code": {"type": "string"},
                "credits": {"type": "integer"},
                "hoursPerWeek": {"type": "integer"},
                "semester": {"type": "integer"},
                "type": {"type": "string", "enum": ["UG", "PG"]}
            }
        },
        "Faculty": {
            "type": "object",
            "required": ["id"],
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "department": {"type": "string"},
                "availableSlots": {"type": "array", "items": {"$ref": "#/definitions/TimeSlot"}},
                "subjects": {"type": "array", "items": {"type": "string"}},
                "maxHoursPerDay": {"type": "integer"},
                "maxHoursPerWeek": {"type": "integer"}
            }
        },
        "Classroom": {
            "type": "object",
            "required": ["id"],
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "capacity": {"type": "integer"},
                "type": {"type": "string", "enum": ["lecture", "lab", "tutorial"]},
                "equipment": {"type": "array", "items": {"type": "string"}}
            }
        },
        "Batch": {
            "type": "object",
            "required": ["id"],
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "semester": {"type": "integer"},
                "strength": {"type": "integer"},
                "subjects": {"type": "array", "items": {"type": "string"}},
                "type": {"type": "string", "enum": ["UG", "PG"]}
            }
        },
        "TimetableConstraints": {
            "type": "object",
            "properties": {
                "maxClassesPerDay": {"type": "integer"},
                "minBreakBetweenClasses": {"type": "integer"},
                "preferredTimeSlots": {"type": "array", "items": {"$ref": "#/definitions/TimeSlot"}},
                "blackoutSlots": {"type": "array", "items": {"$ref": "#/definitions/TimeSlot"}},
                "enforceFacultyCaps": {"type": "boolean"}
            }
        },
        "GenerationParams": {
            "type": "object",
            "properties": {
                "populationSize": {"type": "integer", "example": 50},
                "generations": {"type": "integer", "example": 100},
                "mutationRate": {"type": "number", "example": 0.1},
                "crossoverRate": {"type": "number", "example": 0.8},
                "elitismCount": {"type": "integer", "example": 5},
                "tournamentSize": {"type": "integer", "example": 3},
                "sessionMinutes": {"type": "integer", "example": 60},
                "expandSessions": {"type": "boolean"},
                "unfulfilledPolicy": {"type": "string", "enum": ["warn", "reject"]},
                "seed": {"type": "integer"}
            }
        },
        "GenerateTimetableRequest": {
            "type": "object",
            "required": ["subjects", "faculties", "classrooms", "batches"],
            "properties": {
                "subjects": {"type": "array", "items": {"$ref": "#/definitions/Subject"}},
                "faculties": {"type": "array", "items": {"$ref": "#/definitions/Faculty"}},
                "classrooms": {"type": "array", "items": {"$ref": "#/definitions/Classroom"}},
                "batches": {"type": "array", "items": {"$ref": "#/definitions/Batch"}},
                "timeSlots": {"type": "array", "items": {"$ref": "#/definitions/TimeSlot"}},
                "constraints": {"$ref": "#/definitions/TimetableConstraints"},
                "params": {"$ref": "#/definitions/GenerationParams"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "pageSize": {"type": "integer"},
                "totalCount": {"type": "integer"}
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

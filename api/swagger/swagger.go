package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Bloodchain Matching API",
        "description": "Donor matching, match lifecycle and donation settlement",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Requests", "description": "Blood request creation and matching"},
        {"name": "Matches", "description": "Donor-facing match lifecycle"},
        {"name": "Donations", "description": "Donation confirmation and history"},
        {"name": "Reputation", "description": "Donor reputation and rewards"},
        {"name": "Location", "description": "Live donor position reporting"},
        {"name": "Cron", "description": "Scheduler-triggered maintenance"}
    ],
    "paths": {
        "/requests": {
            "get": {
                "tags": ["Requests"],
                "summary": "List active blood requests",
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Requests"],
                "summary": "Open a blood request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateBloodRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"}
                }
            }
        },
        "/requests/{id}": {
            "get": {
                "tags": ["Requests"],
                "summary": "Get a request with its match offers",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/requests/{id}/matches": {
            "post": {
                "tags": ["Requests"],
                "summary": "Rank donors and create match offers",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Request not found or not open"}
                }
            }
        },
        "/matches/{id}/accept": {
            "post": {
                "tags": ["Matches"],
                "summary": "Accept a match offer",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Match belongs to another donor"},
                    "409": {"description": "Match already actioned or expired"}
                }
            }
        },
        "/matches/{id}/reject": {
            "post": {
                "tags": ["Matches"],
                "summary": "Reject a match offer",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Match already actioned"}
                }
            }
        },
        "/matches/{id}/donation": {
            "post": {
                "tags": ["Donations"],
                "summary": "Confirm a collected donation and settle it",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConfirmDonationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Settlement gateway failure, retry later"}
                }
            }
        },
        "/donations": {
            "get": {
                "tags": ["Donations"],
                "summary": "List the caller's donations",
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/donations/export": {
            "get": {
                "tags": ["Donations"],
                "summary": "Export the caller's donation history",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        },
        "/reputation/{donorId}": {
            "get": {
                "tags": ["Reputation"],
                "summary": "Get a donor's reputation stats",
                "parameters": [
                    {"name": "donorId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reputation/{donorId}/events": {
            "get": {
                "tags": ["Reputation"],
                "summary": "List a donor's reputation events",
                "parameters": [
                    {"name": "donorId", "in": "path", "required": true, "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reputation/{donorId}/failures": {
            "post": {
                "tags": ["Reputation"],
                "summary": "Record a failed donation against a donor",
                "parameters": [
                    {"name": "donorId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/location": {
            "put": {
                "tags": ["Location"],
                "summary": "Report the caller's current position",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateLocationRequest"}}
                ],
                "responses": {
                    "204": {"description": "Stored"}
                }
            }
        },
        "/cron/expire-matches": {
            "post": {
                "tags": ["Cron"],
                "summary": "Expire overdue match offers and requests",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/cron/decay-reputation": {
            "post": {
                "tags": ["Cron"],
                "summary": "Apply inactivity decay to dormant donors",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/cron/run-matching": {
            "post": {
                "tags": ["Cron"],
                "summary": "Rank candidates for every open request without live offers",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/cron/detect-fraud": {
            "post": {
                "tags": ["Cron"],
                "summary": "Rescore donor fraud risk and block offenders",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateBloodRequest": {
            "type": "object",
            "required": ["blood_type", "rh_factor", "units", "urgency"],
            "properties": {
                "blood_type": {"type": "string", "enum": ["A", "B", "AB", "O"]},
                "rh_factor": {"type": "string", "enum": ["POSITIVE", "NEGATIVE"]},
                "units": {"type": "integer"},
                "urgency": {"type": "string", "enum": ["LOW", "MEDIUM", "HIGH", "CRITICAL", "EMERGENCY"]},
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "radius_km": {"type": "number"}
            }
        },
        "ConfirmDonationRequest": {
            "type": "object",
            "required": ["units_collected", "proof_hash"],
            "properties": {
                "units_collected": {"type": "integer"},
                "proof_hash": {"type": "string"}
            }
        },
        "UpdateLocationRequest": {
            "type": "object",
            "required": ["latitude", "longitude"],
            "properties": {
                "latitude": {"type": "number"},
                "longitude": {"type": "number"}
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

// Package docs registers the OpenAPI document served under /swagger.
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
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}}
            }
        },
        "/auth/sign-up": {
            "post": {
                "description": "Only the first account can be created; later calls are refused.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Create the API account",
                "parameters": [{"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.authCredentials"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "integer"}}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/auth/sign-in": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign in",
                "parameters": [{"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.authCredentials"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/status": {
            "get": {
                "description": "Latest sample with per-probe alarm and rate texts. status_message is returned once after a login attempt.",
                "produces": ["application/json"],
                "tags": ["samples"],
                "summary": "Latest status",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/service.StatusView"}}}
            }
        },
        "/api/v1/samples": {
            "get": {
                "produces": ["application/json"],
                "tags": ["samples"],
                "summary": "Sample series",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/service.SamplesView"}}}
            }
        },
        "/api/v1/samples/export.csv": {
            "get": {
                "description": "Same format the device serves from /luci/lm/hist, so the file can be loaded back as saved history.",
                "produces": ["text/csv"],
                "tags": ["samples"],
                "summary": "Export samples as CSV",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "string"}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/samples/export.xlsx": {
            "get": {
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["samples"],
                "summary": "Export samples as XLSX",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/alarms": {
            "get": {
                "produces": ["application/json"],
                "tags": ["alarms"],
                "summary": "Get alarm settings",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/service.AlarmView"}}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Accepts packed lo/hi arrays or decoded per-probe bounds. Settings are persisted.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["alarms"],
                "summary": "Replace alarm settings",
                "parameters": [{"description": "Alarm thresholds", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.AlarmRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.AlarmView"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/alarms/check": {
            "get": {
                "description": "Runs the alarm check against the latest sample without recording an event.",
                "produces": ["application/json"],
                "tags": ["alarms"],
                "summary": "Evaluate alarms now",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/alarm.Report"}}}
            }
        },
        "/api/v1/setpoint": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Forwards the setpoint to the device. Requires an admin password in the config and an established device session.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["device"],
                "summary": "Change pit setpoint",
                "parameters": [{"description": "Setpoint payload", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.SetpointRequest"}}],
                "responses": {
                    "200": {"description": "status, setpoint", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "502": {"description": "Bad Gateway", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/device/password": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Replaces the controller admin password; the next poll logs in with it and the result shows up in /status.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["device"],
                "summary": "Set device admin password",
                "parameters": [{"description": "Password payload", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.DevicePasswordRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/logs": {
            "get": {
                "description": "Filter logs by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'). If 'to' is date-only, it is treated as end-of-day inclusive (23:59:59.999999999Z).",
                "produces": ["application/json"],
                "tags": ["logs"],
                "summary": "List logs",
                "parameters": [
                    {"type": "string", "example": "2026-08-01", "description": "Start of range", "name": "from", "in": "query"},
                    {"type": "string", "example": "2026-08-31", "description": "End of range. Date-only treated as end of day.", "name": "to", "in": "query"},
                    {"enum": ["SYNC", "STATUS", "NO_DATA", "AUTH", "SETPOINT", "ALARM"], "type": "string", "description": "Event type", "name": "type", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "count, events", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/ws": {
            "get": {
                "description": "WebSocket stream. Each applied poll tick sends {\"type\":\"sample\",\"data\":{...}} or {\"type\":\"no_data\"}.",
                "tags": ["samples"],
                "summary": "Live samples",
                "responses": {}
            }
        }
    },
    "definitions": {
        "alarm.Bound": {
            "type": "object",
            "properties": {"enabled": {"type": "boolean"}, "value": {"type": "integer"}}
        },
        "alarm.Report": {
            "type": "object",
            "properties": {"text": {"type": "string"}, "triggered": {"type": "boolean"}}
        },
        "alarm.Settings": {
            "type": "object",
            "properties": {
                "hi": {"type": "array", "items": {"type": "integer"}},
                "lo": {"type": "array", "items": {"type": "integer"}}
            }
        },
        "handlers.AlarmRequest": {
            "type": "object",
            "properties": {
                "hi": {"type": "array", "items": {"type": "integer"}, "example": [250, -200, -200, -200]},
                "lo": {"type": "array", "items": {"type": "integer"}, "example": [-70, -70, -70, -70]},
                "probes": {"type": "array", "items": {"$ref": "#/definitions/handlers.ProbeAlarm"}}
            }
        },
        "handlers.DevicePasswordRequest": {
            "type": "object",
            "required": ["password"],
            "properties": {"password": {"description": "Admin password of the controller's web UI.", "type": "string"}}
        },
        "handlers.ProbeAlarm": {
            "type": "object",
            "properties": {"hi": {"$ref": "#/definitions/alarm.Bound"}, "lo": {"$ref": "#/definitions/alarm.Bound"}}
        },
        "handlers.SetpointRequest": {
            "type": "object",
            "required": ["setpoint"],
            "properties": {"setpoint": {"description": "Target pit temperature in degrees.", "type": "integer", "example": 225}}
        },
        "handlers.authCredentials": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {"password": {"type": "string"}, "username": {"type": "string"}}
        },
        "pitwatch.NamedSample": {
            "type": "object",
            "properties": {
                "time": {"type": "integer"},
                "fan_speed": {"type": "number"},
                "lid_open": {"type": "number"},
                "set_point": {"type": "number", "x-nullable": true},
                "probes": {"type": "array", "items": {"type": "number", "x-nullable": true}},
                "probe_names": {"type": "array", "items": {"type": "string"}},
                "degrees_per_hour": {"type": "array", "items": {"type": "number"}}
            }
        },
        "pitwatch.Sample": {
            "type": "object",
            "properties": {
                "time": {"type": "integer"},
                "fan_speed": {"type": "number"},
                "lid_open": {"type": "number"},
                "set_point": {"type": "number", "x-nullable": true},
                "probes": {"type": "array", "items": {"type": "number", "x-nullable": true}}
            }
        },
        "service.AlarmView": {
            "type": "object",
            "properties": {
                "has_alarms": {"type": "boolean"},
                "hi": {"type": "array", "items": {"$ref": "#/definitions/alarm.Bound"}},
                "lo": {"type": "array", "items": {"$ref": "#/definitions/alarm.Bound"}},
                "settings": {"$ref": "#/definitions/alarm.Settings"}
            }
        },
        "service.ProbeStatus": {
            "type": "object",
            "properties": {
                "alarm_text": {"type": "string"},
                "connected": {"type": "boolean"},
                "name": {"type": "string"},
                "position": {"description": "Temperature as a 0..1 fraction of the display range.", "type": "number"},
                "rate_text": {"type": "string"},
                "temperature": {"type": "number", "x-nullable": true}
            }
        },
        "service.SamplesView": {
            "type": "object",
            "properties": {
                "max_time": {"type": "integer"},
                "min_time": {"type": "integer"},
                "probe_names": {"type": "array", "items": {"type": "string"}},
                "range": {"$ref": "#/definitions/store.Range"},
                "samples": {"type": "array", "items": {"$ref": "#/definitions/pitwatch.Sample"}}
            }
        },
        "service.StatusView": {
            "type": "object",
            "properties": {
                "authenticated": {"type": "boolean"},
                "connected": {"type": "boolean"},
                "latest": {"$ref": "#/definitions/pitwatch.NamedSample"},
                "max_time": {"type": "integer"},
                "min_time": {"type": "integer"},
                "probes": {"type": "array", "items": {"$ref": "#/definitions/service.ProbeStatus"}},
                "range": {"$ref": "#/definitions/store.Range"},
                "status_line": {"type": "string"},
                "status_message": {"type": "string"}
            }
        },
        "store.Range": {
            "type": "object",
            "properties": {"max": {"type": "number", "x-nullable": true}, "min": {"type": "number", "x-nullable": true}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the JWT.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "pitwatch API",
	Description:      "Polls a HeaterMeter smoker controller and serves its samples, alarms and event log.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

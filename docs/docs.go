// Package docs registers the OpenAPI description served under /swagger.
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
        "/auth/token": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Issue organizer token",
                "parameters": [
                    {"description": "Organizer password", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.LoginInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.TokenResult"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/tournaments": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tournaments"],
                "summary": "Create tournament",
                "parameters": [
                    {"description": "Tournament", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.CreateTournamentInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Tournament"}},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/tournaments/{tournamentID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tournaments"],
                "summary": "Get tournament",
                "parameters": [{"type": "integer", "description": "Tournament ID", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Tournament"}},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/tournaments/{tournamentID}/players": {
            "get": {
                "produces": ["application/json"],
                "tags": ["players"],
                "summary": "Count registered players",
                "parameters": [{"type": "integer", "description": "Tournament ID", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["players"],
                "summary": "Register player",
                "parameters": [
                    {"type": "integer", "description": "Tournament ID", "name": "tournamentID", "in": "path", "required": true},
                    {"description": "Player", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.RegisterPlayerInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Player"}},
                    "409": {"description": "Conflict"}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["players"],
                "summary": "Delete all players and their matches",
                "parameters": [{"type": "integer", "description": "Tournament ID", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/tournaments/{tournamentID}/standings": {
            "get": {
                "produces": ["application/json"],
                "tags": ["players"],
                "summary": "Current standings",
                "parameters": [{"type": "integer", "description": "Tournament ID", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Standing"}}},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/tournaments/{tournamentID}/matches": {
            "get": {
                "produces": ["application/json"],
                "tags": ["matches"],
                "summary": "List reported matches",
                "parameters": [{"type": "integer", "description": "Tournament ID", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Match"}}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["matches"],
                "summary": "Report a match result",
                "parameters": [
                    {"type": "integer", "description": "Tournament ID", "name": "tournamentID", "in": "path", "required": true},
                    {"description": "Result", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.ReportMatchInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Match"}},
                    "400": {"description": "Bad Request"}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["matches"],
                "summary": "Delete all match records",
                "parameters": [{"type": "integer", "description": "Tournament ID", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/tournaments/{tournamentID}/pairings": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["rounds"],
                "summary": "Pair the next Swiss round",
                "parameters": [{"type": "integer", "description": "Tournament ID", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Round"}},
                    "422": {"description": "Unprocessable Entity"}
                }
            }
        },
        "/tournaments/{tournamentID}/rankings": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["rounds"],
                "summary": "Compute final rankings",
                "parameters": [{"type": "integer", "description": "Tournament ID", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/services.RankingsResult"}}}
            }
        }
    },
    "definitions": {
        "models.Tournament": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "models.Player": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "tournament_id": {"type": "integer"},
                "name": {"type": "string"},
                "score": {"type": "number"},
                "matches_played": {"type": "integer"},
                "opponents": {"type": "array", "items": {"type": "integer"}},
                "has_bye": {"type": "boolean"},
                "opponent_strength": {"type": "number"}
            }
        },
        "models.Standing": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "score": {"type": "number"},
                "matches_played": {"type": "integer"},
                "opponent_strength": {"type": "number"}
            }
        },
        "models.Match": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "tournament_id": {"type": "integer"},
                "winner_id": {"type": "integer"},
                "loser_id": {"type": "integer"},
                "is_draw": {"type": "boolean"},
                "created_at": {"type": "string"}
            }
        },
        "models.Pairing": {
            "type": "object",
            "properties": {
                "player1_id": {"type": "integer"},
                "player1_name": {"type": "string"},
                "player2_id": {"type": "integer"},
                "player2_name": {"type": "string"},
                "rematch": {"type": "boolean"}
            }
        },
        "models.ByeAssignment": {
            "type": "object",
            "properties": {
                "player_id": {"type": "integer"},
                "player_name": {"type": "string"},
                "repeat": {"type": "boolean"}
            }
        },
        "models.Round": {
            "type": "object",
            "properties": {
                "tournament_id": {"type": "integer"},
                "pairings": {"type": "array", "items": {"$ref": "#/definitions/models.Pairing"}},
                "bye": {"$ref": "#/definitions/models.ByeAssignment"}
            }
        },
        "models.Ranking": {
            "type": "object",
            "properties": {
                "rank": {"type": "integer"},
                "player_id": {"type": "integer"},
                "name": {"type": "string"},
                "score": {"type": "number"},
                "opponent_strength": {"type": "number"}
            }
        },
        "services.LoginInput": {
            "type": "object",
            "properties": {"password": {"type": "string"}}
        },
        "services.TokenResult": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "expires_at": {"type": "string"}
            }
        },
        "services.CreateTournamentInput": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"}
            }
        },
        "services.RegisterPlayerInput": {
            "type": "object",
            "properties": {"name": {"type": "string"}}
        },
        "services.ReportMatchInput": {
            "type": "object",
            "properties": {
                "winner_id": {"type": "integer"},
                "loser_id": {"type": "integer"},
                "is_draw": {"type": "boolean"}
            }
        },
        "services.RankingsResult": {
            "type": "object",
            "properties": {
                "tournament_id": {"type": "integer"},
                "rankings": {"type": "array", "items": {"$ref": "#/definitions/models.Ranking"}},
                "export_url": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Swiss Tournament API",
	Description:      "Swiss-system pairing, results and rankings.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

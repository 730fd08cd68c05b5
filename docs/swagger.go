// Package docs News Aggregator API
//
// News Aggregator is a service that pulls articles from multiple news
// providers, stores them in a canonical form, and serves filtered,
// personalized article listings in JSON format.
//
//	Schemes: http, https
//	Host: localhost:8080
//	BasePath: /api/v1
//	Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
//	Security:
//	- bearer_token:
//
// swagger:meta
package docs

import "github.com/swaggo/swag"

// @title News Aggregator API
// @version 1.0
// @description A news aggregation service with provider fan-out, filtering and personalization

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey bearer_token
// @in header
// @name Authorization
// @description Bearer token issued by /register or /login

func init() {
	swag.Register(swag.Name, &swag.Spec{
		InfoInstanceName: "swagger",
		SwaggerTemplate:  docTemplate,
	})
}

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "News Aggregator API",
        "description": "A news aggregation service with provider fan-out, filtering and personalization",
        "version": "1.0.0"
    },
    "host": "localhost:8080",
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "consumes": ["application/json"],
    "produces": ["application/json"],
    "securityDefinitions": {
        "bearer_token": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "Bearer token issued by /register or /login"
        }
    },
    "paths": {
        "/articles": {
            "get": {
                "description": "List articles ordered by publish date descending. Explicit filters always win over the caller's stored preferences; an unfiltered authenticated request is narrowed by them unless ignore_preferences is set.",
                "summary": "List Articles",
                "operationId": "listArticles",
                "parameters": [
                    {
                        "name": "q",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Keyword matched against title, description and content"
                    },
                    {
                        "name": "source",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Source names, comma-separated (newsapi, guardian, nytimes)"
                    },
                    {
                        "name": "category",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Category names, comma-separated"
                    },
                    {
                        "name": "author",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Author names, comma-separated"
                    },
                    {
                        "name": "from",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Earliest publish date (YYYY-MM-DD)"
                    },
                    {
                        "name": "to",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Latest publish date (YYYY-MM-DD, inclusive)"
                    },
                    {
                        "name": "ignore_preferences",
                        "in": "query",
                        "required": false,
                        "type": "boolean",
                        "description": "Disable preference narrowing for this request"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "required": false,
                        "type": "integer",
                        "description": "Page number, starting at 1"
                    },
                    {
                        "name": "per_page",
                        "in": "query",
                        "required": false,
                        "type": "integer",
                        "description": "Page size (default 15, capped at 100)"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "One page of articles",
                        "schema": {
                            "$ref": "#/definitions/ArticlePage"
                        }
                    },
                    "400": {
                        "description": "Bad request - invalid filter input"
                    },
                    "500": {
                        "description": "Internal server error"
                    }
                }
            }
        },
        "/articles/{id}": {
            "get": {
                "description": "Get one article by its numeric id",
                "summary": "Get Article",
                "operationId": "getArticle",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "description": "Article id"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "The article",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "data": {
                                    "$ref": "#/definitions/Article"
                                }
                            }
                        }
                    },
                    "404": {
                        "description": "Article not found"
                    },
                    "500": {
                        "description": "Internal server error"
                    }
                }
            }
        },
        "/sources": {
            "get": {
                "description": "List the known news providers with their enabled status",
                "summary": "List Sources",
                "operationId": "getSources",
                "responses": {
                    "200": {
                        "description": "Provider list",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "data": {
                                    "type": "array",
                                    "items": {
                                        "$ref": "#/definitions/SourceInfo"
                                    }
                                },
                                "count": {
                                    "type": "integer"
                                }
                            }
                        }
                    }
                }
            }
        },
        "/categories": {
            "get": {
                "description": "List the distinct categories across stored articles",
                "summary": "List Categories",
                "operationId": "getCategories",
                "responses": {
                    "200": {
                        "description": "Category list",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "data": {
                                    "type": "array",
                                    "items": {
                                        "type": "string"
                                    }
                                },
                                "count": {
                                    "type": "integer"
                                }
                            }
                        }
                    },
                    "500": {
                        "description": "Internal server error"
                    }
                }
            }
        },
        "/authors": {
            "get": {
                "description": "List the distinct authors across stored articles",
                "summary": "List Authors",
                "operationId": "getAuthors",
                "responses": {
                    "200": {
                        "description": "Author list",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "data": {
                                    "type": "array",
                                    "items": {
                                        "type": "string"
                                    }
                                },
                                "count": {
                                    "type": "integer"
                                }
                            }
                        }
                    },
                    "500": {
                        "description": "Internal server error"
                    }
                }
            }
        },
        "/stats": {
            "get": {
                "description": "Article counts per source",
                "summary": "Get Stats",
                "operationId": "getStats",
                "responses": {
                    "200": {
                        "description": "Per-source article counts",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "articles_by_source": {
                                    "type": "object"
                                },
                                "total_articles": {
                                    "type": "integer"
                                }
                            }
                        }
                    },
                    "500": {
                        "description": "Internal server error"
                    }
                }
            }
        },
        "/register": {
            "post": {
                "description": "Create an account and receive a bearer token",
                "summary": "Register",
                "operationId": "register",
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object",
                            "properties": {
                                "name": {
                                    "type": "string"
                                },
                                "email": {
                                    "type": "string"
                                },
                                "password": {
                                    "type": "string"
                                }
                            }
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Account created"
                    },
                    "400": {
                        "description": "Validation failed"
                    },
                    "409": {
                        "description": "Email already registered"
                    }
                }
            }
        },
        "/login": {
            "post": {
                "description": "Exchange credentials for a bearer token",
                "summary": "Login",
                "operationId": "login",
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object",
                            "properties": {
                                "email": {
                                    "type": "string"
                                },
                                "password": {
                                    "type": "string"
                                }
                            }
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Login succeeded"
                    },
                    "401": {
                        "description": "Invalid email or password"
                    }
                }
            }
        },
        "/preferences": {
            "get": {
                "description": "Get the caller's stored preference bundle",
                "summary": "Get Preferences",
                "operationId": "getPreferences",
                "security": [{"bearer_token": []}],
                "responses": {
                    "200": {
                        "description": "The stored bundle, empty lists when nothing is stored",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "data": {
                                    "$ref": "#/definitions/UserPreference"
                                }
                            }
                        }
                    },
                    "401": {
                        "description": "Authentication required"
                    }
                }
            },
            "post": {
                "description": "Replace the caller's preference bundle",
                "summary": "Save Preferences",
                "operationId": "savePreferences",
                "security": [{"bearer_token": []}],
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UserPreference"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Bundle saved"
                    },
                    "400": {
                        "description": "Validation failed"
                    },
                    "401": {
                        "description": "Authentication required"
                    }
                }
            },
            "delete": {
                "description": "Delete the caller's preference bundle",
                "summary": "Delete Preferences",
                "operationId": "deletePreferences",
                "security": [{"bearer_token": []}],
                "responses": {
                    "200": {
                        "description": "Deletion result"
                    },
                    "401": {
                        "description": "Authentication required"
                    }
                }
            }
        },
        "/ingest": {
            "post": {
                "description": "Trigger an ingestion run, optionally scoped to one source. Only one run executes at a time.",
                "summary": "Trigger Ingestion",
                "operationId": "triggerIngest",
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": false,
                        "schema": {
                            "type": "object",
                            "properties": {
                                "source": {
                                    "type": "string",
                                    "example": "guardian"
                                },
                                "limit": {
                                    "type": "integer"
                                }
                            }
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Ingestion report"
                    },
                    "400": {
                        "description": "Validation failed"
                    },
                    "409": {
                        "description": "An ingestion run is already in progress"
                    },
                    "500": {
                        "description": "Ingestion run failed"
                    }
                }
            }
        },
        "/cleanup": {
            "post": {
                "description": "Delete articles published before the retention window",
                "summary": "Trigger Cleanup",
                "operationId": "triggerCleanup",
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": false,
                        "schema": {
                            "type": "object",
                            "properties": {
                                "days": {
                                    "type": "integer",
                                    "example": 30
                                }
                            }
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Deleted article count"
                    },
                    "500": {
                        "description": "Cleanup failed"
                    }
                }
            }
        },
        "/scheduler/status": {
            "get": {
                "description": "Background scheduler state with last run timestamps",
                "summary": "Scheduler Status",
                "operationId": "getSchedulerStatus",
                "responses": {
                    "200": {
                        "description": "Scheduler status"
                    }
                }
            }
        }
    },
    "definitions": {
        "Article": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer"
                },
                "title": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "content": {
                    "type": "string"
                },
                "author": {
                    "type": "string"
                },
                "category": {
                    "type": "string"
                },
                "url": {
                    "type": "string"
                },
                "image_url": {
                    "type": "string"
                },
                "source": {
                    "type": "string",
                    "example": "guardian"
                },
                "external_id": {
                    "type": "string"
                },
                "published_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "created_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "updated_at": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "ArticlePage": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/Article"
                    }
                },
                "meta": {
                    "type": "object",
                    "properties": {
                        "total": {
                            "type": "integer"
                        },
                        "per_page": {
                            "type": "integer"
                        },
                        "current_page": {
                            "type": "integer"
                        },
                        "last_page": {
                            "type": "integer"
                        }
                    }
                }
            }
        },
        "SourceInfo": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string",
                    "example": "newsapi"
                },
                "name": {
                    "type": "string",
                    "example": "NewsAPI"
                },
                "enabled": {
                    "type": "boolean"
                }
            }
        },
        "UserPreference": {
            "type": "object",
            "properties": {
                "preferred_sources": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "preferred_categories": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "preferred_authors": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "keywords": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        }
    }
}`

// Package swagger provides API documentation
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/v1/uploads/plan": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["uploads"],
                "summary": "Plan an upload",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"},
                    "502": {"description": "Bad Gateway"}
                }
            }
        },
        "/v1/uploads/complete": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["uploads"],
                "summary": "Complete a multipart upload",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"},
                    "500": {"description": "Internal Server Error"},
                    "502": {"description": "Bad Gateway"}
                }
            }
        },
        "/v1/uploads/abort": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["uploads"],
                "summary": "Abort a multipart upload",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"},
                    "502": {"description": "Bad Gateway"}
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
	Title:            "Upload API",
	Description:      "Upload coordination service: plans single-shot and multipart uploads, completes or aborts multipart sessions",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

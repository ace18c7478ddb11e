// Package docs bundles the OpenAPI description served at /api-docs.
package docs

import _ "embed"

//go:embed swagger.json
var SwaggerJSON []byte

// Package openapi embeds the OpenAPI description of the REST API.
package openapi

import _ "embed"

// Spec is the OpenAPI 2.0 document served at /swagger/openapi.json.
//
//go:embed users.json
var Spec []byte

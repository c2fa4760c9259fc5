// Package openapi holds the OpenAPI contract of the incident record API.
package openapi

import _ "embed"

// Spec is the contents of openapi.yaml.
//
//go:embed openapi.yaml
var Spec []byte

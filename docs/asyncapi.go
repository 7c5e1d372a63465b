package docs

import _ "embed"

// AsyncAPISpec describes the device websocket protocol. Served at
// /asyncapi.yaml next to the swagger UI.
//
//go:embed asyncapi.yaml
var AsyncAPISpec []byte

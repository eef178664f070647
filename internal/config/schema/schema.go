// Package schema embeds the JSON schemas of the configuration files.
package schema

import _ "embed"

//go:embed config.schema.json
var ConfigSchema []byte

//go:embed snapshot.schema.json
var SnapshotSchema []byte

// Package seed embeds the demo data loaded into empty databases.
package seed

import _ "embed"

//go:embed demo.yaml
var Demo []byte

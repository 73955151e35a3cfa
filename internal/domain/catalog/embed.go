package catalog

import _ "embed"

// menuJSON contains the shop's menu data.
//
//go:embed menu.json
var menuJSON []byte

// Default returns the catalog built from the embedded menu data.
func Default() (*Catalog, error) {
	return Load(menuJSON)
}

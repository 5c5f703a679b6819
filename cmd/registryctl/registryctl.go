package main

import (
	"github.com/assetized/asset-registry/cmd/registryctl/cmd"
)

// Asset Registry CLI
//
func main() {
	cmd.Execute()
}

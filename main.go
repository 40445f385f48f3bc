package main

import (
	"os"

	"github.com/apetor56/vulkan-engine/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}

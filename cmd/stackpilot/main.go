package main

import (
	"os"

	"github.com/stackpilot/stackpilot/internal/stackpilot"
)

func main() {
	os.Exit(stackpilot.Main())
}

package main

import (
	"os"

	"github.com/nholik/admin-state/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

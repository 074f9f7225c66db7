package main

import (
	"github.com/spf13/cobra"

	"github.com/vango-dev/routestate/internal/config"
)

// loadRoutes loads the file named by --file, or the routes file in the
// working directory.
func loadRoutes(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("file")
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load(".")
}

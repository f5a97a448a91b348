package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the frames release.
const Version = "0.1.0"

const modulePath = "github.com/mesh-intelligence/frames"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the frames version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "frames v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}

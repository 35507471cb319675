package status

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/maxgio92/tracey/internal/settings"
	"github.com/maxgio92/tracey/pkg/cmd/common"
	"github.com/maxgio92/tracey/pkg/cmd/options"
)

func NewCommand(o *options.CommonOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "status",
		Short:             fmt.Sprintf("Check the %s daemon status", settings.CmdName),
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Run: func(_ *cobra.Command, _ []string) {
			if common.IsDaemonRunning() {
				pidData, _ := os.ReadFile(settings.PidFile)
				fmt.Printf("%s is running (PID %s)\n", settings.CmdName, pidData)
			} else {
				fmt.Printf("%s is not running\n", settings.CmdName)
			}
		},
	}

	return cmd
}

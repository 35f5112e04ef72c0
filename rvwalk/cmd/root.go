// Package cmd provides the command-line interface of rvwalk.
package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rvwalk",
	Short: "rvwalk translates addresses with a RISC-V Sv39 page table walker.",
	Long: `rvwalk builds page tables described by a scenario file and ` +
		`translates the accesses of the scenario in functional, atomic or ` +
		`timing mode. Defaults of the flags can be set with RVWALK_* ` +
		`environment variables or a .env file.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Exit handlers, such as the flush of trace databases, run
// before the process ends.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func init() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	rootCmd.AddCommand(newRunCmd())
}

package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mendtool/mend/internal/config"
	"github.com/mendtool/mend/internal/scan"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create .mend/ with a starter configuration",
	Long: `Create the .mend/ state directory and write a commented starter
config.yaml. An existing config is left untouched.`,
	Run: func(cmd *cobra.Command, args []string) {
		green := color.New(color.FgGreen).SprintFunc()

		created, err := config.EnsureDefault(rootDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if !created {
			fmt.Printf("%s already exists, keeping it\n", config.Path(rootDir))
			return
		}

		fmt.Printf("%s Created %s\n", green("✓"), config.Path(rootDir))

		if testCmd := scan.DetectTestCommand(rootDir); testCmd != "" {
			fmt.Printf("%s Detected test command: %s\n", green("✓"), testCmd)
		} else {
			fmt.Println("No test command detected; set test_command in the config before 'mend run'.")
		}

		fmt.Println("\nNext steps:")
		fmt.Printf("  mend analyze    build the backlog (%s)\n", config.BacklogPath(rootDir))
		fmt.Println("  mend run        apply the best candidates behind your tests")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

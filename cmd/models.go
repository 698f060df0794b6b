package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"hugbridge/pkg/config"
	"hugbridge/pkg/registry"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the configured model catalog",
	Long:  "Prints the model catalog the bridge would serve, including the built-in defaults when no models are configured.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = args

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			os.Exit(1)
		}

		reg, err := registry.FromConfig(cfg.Models)
		if err != nil {
			fmt.Printf("failed to build model registry: %v\n", err)
			os.Exit(1)
		}

		defaultKey := cfg.DefaultModel
		if defaultKey == "" {
			defaultKey = reg.Keys()[0]
		}

		writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(writer, "KEY\tNAME\tOUTPUT\tPROVIDER\tDEFAULT")
		for _, key := range reg.Keys() {
			descriptor, err := reg.Lookup(key)
			if err != nil {
				continue
			}

			marker := ""
			if key == defaultKey {
				marker = "*"
			}

			fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n", descriptor.Key, descriptor.DisplayName, descriptor.Output, descriptor.Provider, marker)
		}

		if err := writer.Flush(); err != nil {
			fmt.Printf("failed to write model table: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

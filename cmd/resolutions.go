package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MagicDippyEgg/random-images-daily/internal/resolution"
)

var resolutionsCmd = &cobra.Command{
	Use:   "resolutions",
	Short: "List the resolution catalog used for random picks",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println()
		fmt.Printf("  %-12s %-8s %s\n", "Resolution", "Aspect", "Pixels")
		for _, r := range resolution.Catalog() {
			mp := float64(r.Width*r.Height) / 1e6
			fmt.Printf("  %-12s %-8s %.2f MP\n", r.String(), r.Aspect(), mp)
		}
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(resolutionsCmd)
}

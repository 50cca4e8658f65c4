package cmd

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MagicDippyEgg/random-images-daily/internal/config"
	"github.com/MagicDippyEgg/random-images-daily/internal/fitter"
	"github.com/MagicDippyEgg/random-images-daily/internal/hasher"
	"github.com/MagicDippyEgg/random-images-daily/internal/report"
)

var (
	fitOutDir string
	fitWidth  int
	fitHeight int
	fitBudget int
	fitReport bool
)

var fitCmd = &cobra.Command{
	Use:   "fit <image>",
	Short: "Fit a local image under a byte budget without posting",
	Long: `Decodes a local image (png, jpg, jpeg, gif, bmp, tiff, webp),
re-encodes it as an RGB JPEG at the requested dimensions under the byte
budget, and writes it with a content-addressed filename:
<name>.<w>.<h>.<hash>.jpeg`,
	Args: cobra.ExactArgs(1),
	RunE: runFit,
}

func init() {
	fitCmd.Flags().StringVarP(&fitOutDir, "out", "o", ".", "output directory")
	fitCmd.Flags().IntVarP(&fitWidth, "width", "W", 0, "target width (0 = source width)")
	fitCmd.Flags().IntVarP(&fitHeight, "height", "H", 0, "target height (0 = source height)")
	fitCmd.Flags().IntVarP(&fitBudget, "budget", "b", config.TargetMaxBytes, "byte budget")
	fitCmd.Flags().BoolVar(&fitReport, "report", false, "write a JSON report next to the output")
	rootCmd.AddCommand(fitCmd)
}

func runFit(_ *cobra.Command, args []string) error {
	inputPath := args[0]

	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", inputPath, err)
	}

	// Default to the source dimensions so a bare `fit` just recompresses.
	width, height := fitWidth, fitHeight
	if width <= 0 || height <= 0 {
		imgCfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
		if err != nil {
			return fmt.Errorf("decode %s: %w", inputPath, err)
		}
		if width <= 0 {
			width = imgCfg.Width
		}
		if height <= 0 {
			height = imgCfg.Height
		}
	}

	start := time.Now()
	fitted, err := fitter.Fit(raw, fitter.TargetSpec{Width: width, Height: height, ByteBudget: fitBudget})
	if err != nil {
		return fmt.Errorf("fit %s: %w", inputPath, err)
	}
	elapsed := time.Since(start)

	if err := os.MkdirAll(fitOutDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	hash := hasher.ContentHash(fitted.Data, 16)
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	fileName := fmt.Sprintf("%s.%d.%d.%s.jpeg", base, fitted.Width, fitted.Height, hash[:8])
	outPath := filepath.Join(fitOutDir, fileName)

	if err := os.WriteFile(outPath, fitted.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	if fitReport {
		r := report.New()
		r.Source = report.Source{Path: inputPath, Bytes: int64(len(raw))}
		r.Target = report.Target{Width: width, Height: height, ByteBudget: fitBudget}
		r.Output = report.Output{
			Width:      fitted.Width,
			Height:     fitted.Height,
			Bytes:      len(fitted.Data),
			Quality:    fitted.Quality,
			ScaleRound: fitted.ScaleRound,
			Hash:       hash,
			Path:       fileName,
		}
		if err := report.WriteJSON(r, outPath+".report.json"); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	printFitReport(inputPath, outPath, int64(len(raw)), fitted, elapsed)
	return nil
}

func printFitReport(inputPath, outPath string, inBytes int64, fitted *fitter.Result, elapsed time.Duration) {
	fmt.Println()
	fmt.Printf("  Input:      %s (%s)\n", inputPath, formatBytes(inBytes))
	fmt.Printf("  Output:     %s\n", outPath)
	fmt.Printf("  Dimensions: %dx%d\n", fitted.Width, fitted.Height)
	fmt.Printf("  Quality:    %d\n", fitted.Quality)
	if fitted.ScaleRound > 0 {
		fmt.Printf("  Scale:      round %d (0.9^%d of target)\n", fitted.ScaleRound, fitted.ScaleRound)
	}
	fmt.Printf("  Size:       %s (budget %s)\n", formatBytes(int64(len(fitted.Data))), formatBytes(int64(fitBudget)))
	fmt.Printf("  Time:       %s\n", elapsed.Round(time.Millisecond))
	fmt.Println()
}

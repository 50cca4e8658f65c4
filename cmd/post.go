package cmd

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/MagicDippyEgg/random-images-daily/internal/bsky"
	"github.com/MagicDippyEgg/random-images-daily/internal/config"
	"github.com/MagicDippyEgg/random-images-daily/internal/fitter"
	"github.com/MagicDippyEgg/random-images-daily/internal/hasher"
	"github.com/MagicDippyEgg/random-images-daily/internal/picsum"
	"github.com/MagicDippyEgg/random-images-daily/internal/report"
	"github.com/MagicDippyEgg/random-images-daily/internal/resolution"
)

var (
	postDryRun     bool
	postReportPath string
	postResolution string
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Fetch a random photo, fit it under the size limit, and post it",
	Long: `Picks a random resolution from the catalog, downloads a matching
placeholder photo from picsum.photos, fits it under the Bluesky image
size limit as an RGB JPEG, and publishes it with caption and alt text.

Credentials come from BSKY_HANDLE and BSKY_APP_PASSWORD (optionally via
a .env file); BSKY_PDS selects an alternate server endpoint. This is a
single linear run: any failure aborts with a non-zero exit and is left
to the external scheduler to retry.`,
	Args: cobra.NoArgs,
	RunE: runPost,
}

func init() {
	postCmd.Flags().BoolVar(&postDryRun, "dry-run", false, "fetch and fit, but skip login and posting")
	postCmd.Flags().StringVar(&postReportPath, "report", "", "write a JSON run report to this path")
	postCmd.Flags().StringVar(&postResolution, "resolution", "", "override the random pick (WxH, e.g. 1280x720)")
	rootCmd.AddCommand(postCmd)
}

func runPost(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !postDryRun {
		if err := cfg.RequireCredentials(); err != nil {
			return err
		}
	}

	res, err := pickResolution()
	if err != nil {
		return err
	}
	logger.Debug().Str("resolution", res.String()).Msg("picked resolution")

	photo, err := picsum.NewClient(cfg.PicsumBase, cfg.HTTPTimeout).Fetch(ctx, res.Width, res.Height)
	if err != nil {
		return fmt.Errorf("download photo: %w", err)
	}
	logger.Debug().
		Int("bytes", len(photo.Data)).
		Str("source", photo.SourceURL).
		Msg("downloaded photo")

	fitted, err := fitter.Fit(photo.Data, fitter.TargetSpec{
		Width:      res.Width,
		Height:     res.Height,
		ByteBudget: cfg.TargetMaxBytes,
	})
	if err != nil {
		return fmt.Errorf("fit image: %w", err)
	}
	logger.Debug().
		Int("bytes", len(fitted.Data)).
		Int("quality", fitted.Quality).
		Int("scale_round", fitted.ScaleRound).
		Msg("fitted image")

	// The fitter targets a budget below the hard protocol limit; re-check
	// the hard limit anyway and treat a violation as fatal.
	if len(fitted.Data) > cfg.MaxBytes {
		return fmt.Errorf("fitted image is still too large: %d bytes (limit %d)", len(fitted.Data), cfg.MaxBytes)
	}

	caption, alt := composeCaption(res, photo.SourceURL, time.Now().UTC())

	var postedURI string
	if postDryRun {
		logger.Info().Msg("dry run: skipping login and post")
	} else {
		client := bsky.NewClient(cfg.PDS, cfg.HTTPTimeout)
		if err := client.Login(ctx, cfg.Handle, cfg.AppPassword); err != nil {
			return fmt.Errorf("login as %s: %w", cfg.Handle, err)
		}
		postedURI, err = client.PostImage(ctx, bsky.ImagePost{
			Text:   caption,
			Alt:    alt,
			JPEG:   fitted.Data,
			Width:  fitted.Width,
			Height: fitted.Height,
		})
		if err != nil {
			return fmt.Errorf("post image: %w", err)
		}
	}

	if postReportPath != "" {
		r := report.New()
		r.Source = report.Source{URL: photo.SourceURL, Bytes: int64(len(photo.Data))}
		r.Target = report.Target{Width: res.Width, Height: res.Height, ByteBudget: cfg.TargetMaxBytes}
		r.Output = report.Output{
			Width:      fitted.Width,
			Height:     fitted.Height,
			Bytes:      len(fitted.Data),
			Quality:    fitted.Quality,
			ScaleRound: fitted.ScaleRound,
			Hash:       hasher.ContentHash(fitted.Data, 16),
		}
		if postedURI != "" {
			r.Post = &report.Post{URI: postedURI, Handle: cfg.Handle}
		}
		if err := report.WriteJSON(r, postReportPath); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	if postDryRun {
		fmt.Printf("Fitted (dry run): %dx%d %s bytes=%d\n",
			fitted.Width, fitted.Height, photo.SourceURL, len(fitted.Data))
	} else {
		fmt.Printf("Posted successfully: %dx%d %s bytes=%d\n",
			fitted.Width, fitted.Height, photo.SourceURL, len(fitted.Data))
	}
	return nil
}

// pickResolution honors the --resolution override, otherwise draws a
// random entry from the catalog.
func pickResolution() (resolution.Resolution, error) {
	if postResolution != "" {
		return resolution.Parse(postResolution)
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return resolution.Pick(rng), nil
}

// composeCaption builds the post text and alt text for a fetched photo.
func composeCaption(res resolution.Resolution, sourceURL string, now time.Time) (text, alt string) {
	text = fmt.Sprintf("Daily random image %s\n%s\nSource: %s",
		now.Format("2006-01-02"), res.String(), sourceURL)
	alt = fmt.Sprintf("Random photo placeholder at %d by %d resolution.", res.Width, res.Height)
	return text, alt
}

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/adminpanel/pkg/compress"
)

// compressCommand shrinks an image file the way uploads are shrunk.
func (c *CLI) compressCommand() *cobra.Command {
	var (
		output string
		opts   = compress.DefaultOptions()
	)
	cmd := &cobra.Command{
		Use:   "compress <image>",
		Short: "Compress an image for upload",
		Long: `Compress an image for upload.

The image is re-encoded as JPEG, fitted into --max-dim pixels and scaled down
until it is under --max-size megabytes. When compression fails, or would not
make the file smaller, the original bytes are written unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := args[0]

			opts.Logger = c.Logger
			prog := newProgress(c.Logger)
			spinner := newSpinnerWithContext(cmd.Context(), "Compressing "+filepath.Base(in)+"...")
			spinner.Start()
			out, err := compress.CompressFile(cmd.Context(), in, &opts)
			spinner.Stop()
			if err != nil {
				return err
			}
			prog.done("Processed " + filepath.Base(in))

			info, _ := os.Stat(in)
			before := len(out)
			if info != nil {
				before = int(info.Size())
			}
			kept := before == len(out)
			if output == "" {
				output = defaultCompressedPath(in, kept)
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}

			if kept {
				printWarning("Kept original (%s)", formatBytes(before))
			} else {
				printSuccess("Compressed %s %s %s", formatBytes(before), iconArrow, formatBytes(len(out)))
			}
			printFile(output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default <name>.min.jpg)")
	cmd.Flags().Float64Var(&opts.MaxSizeMB, "max-size", opts.MaxSizeMB, "target size in MB")
	cmd.Flags().IntVar(&opts.MaxWidthOrHeight, "max-dim", opts.MaxWidthOrHeight, "maximum width or height in pixels")
	cmd.Flags().IntVar(&opts.Quality, "quality", opts.Quality, "JPEG quality (1-100)")
	cmd.Flags().BoolVar(&opts.DisableResize, "no-resize", false, "only re-encode, never reduce resolution")
	return cmd
}

// defaultCompressedPath returns <name>.min.jpg, or <name>.min.<ext> when
// the original bytes were kept.
func defaultCompressedPath(in string, kept bool) string {
	ext := filepath.Ext(in)
	if !kept || ext == "" {
		return strings.TrimSuffix(in, ext) + ".min.jpg"
	}
	return strings.TrimSuffix(in, ext) + ".min" + ext
}

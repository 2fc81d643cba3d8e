package cmd

import (
	"os"
	"path/filepath"

	"github.com/andybalholm/brotli"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ngld/ninelives/pkg"
	"github.com/ngld/ninelives/pkg/pack"
)

var packKarCmd = &cobra.Command{
	Use:   "pack-kar archive_name content_directory",
	Short: "Recursively packs the content of the passed directory into a .kar archive",
	Long: `Pass the name of the .kar file that should be generated and a directory with
the intended contents, e.g. "pack-kar dist/assets.kar dist".`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		quality, err := cmd.Flags().GetInt("quality")
		if err != nil {
			return err
		}

		if quality < brotli.BestSpeed || quality > brotli.BestCompression {
			return eris.Errorf("quality has to be between %d and %d", brotli.BestSpeed, brotli.BestCompression)
		}

		absArchive, err := filepath.Abs(args[0])
		if err != nil {
			return eris.Wrapf(err, "failed to resolve %s", args[0])
		}

		writer, err := pack.NewKarWriter(args[0], quality)
		if err != nil {
			return err
		}

		err = karWalkDirectory(writer, args[1], absArchive)
		if err != nil {
			writer.Close()
			return err
		}

		err = writer.Close()
		if err != nil {
			return err
		}

		pkg.PrintSubtask("Packed " + args[0])
		return nil
	},
}

func init() {
	packKarCmd.Flags().IntP("quality", "q", brotli.BestCompression, "brotli compression level")
	rootCmd.AddCommand(packKarCmd)
}

// karWalkDirectory adds everything in dir to writer. skip is the absolute path of the archive itself
// which may be located inside dir.
func karWalkDirectory(writer *pack.KarWriter, dir, skip string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return eris.Wrapf(err, "failed to read dir %s", dir)
	}

	for _, entry := range entries {
		itemPath := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			writer.OpenDirectory(entry.Name())
			err = karWalkDirectory(writer, itemPath, skip)
			if err != nil {
				return err
			}

			err = writer.CloseDirectory()
			if err != nil {
				return err
			}
			continue
		}

		absPath, err := filepath.Abs(itemPath)
		if err == nil && absPath == skip {
			continue
		}

		f, err := os.Open(itemPath)
		if err != nil {
			return eris.Wrapf(err, "failed to open file %s", itemPath)
		}

		err = writer.WriteFile(entry.Name(), f)
		f.Close()
		if err != nil {
			return eris.Wrapf(err, "failed to pack file %s", itemPath)
		}
	}

	return nil
}

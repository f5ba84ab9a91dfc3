package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteImagesZip packages the named files from srcDir into a flat zip
// at zipPath (no subdirectories), as bulk importers expect.
func WriteImagesZip(zipPath, srcDir string, filenames []string) error {
	f, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("failed to create zip: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	for _, name := range filenames {
		if err := addFile(zw, filepath.Join(srcDir, name), filepath.Base(name)); err != nil {
			zw.Close()
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize zip: %w", err)
	}

	return f.Close()
}

// BundleEntry names one product's output files for the consolidated
// batch bundle. Files keep their directory name inside the archive.
type BundleEntry struct {
	Dir   string
	Files []string
}

// WriteBundle builds a single zip collecting every successful
// product's CSV and images zip, each under its output directory name.
func WriteBundle(bundlePath string, entries []BundleEntry) error {
	f, err := os.Create(bundlePath)
	if err != nil {
		return fmt.Errorf("failed to create bundle: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	for _, entry := range entries {
		dirName := filepath.Base(entry.Dir)
		for _, file := range entry.Files {
			arcName := dirName + "/" + filepath.Base(file)
			if err := addFile(zw, file, arcName); err != nil {
				zw.Close()
				return err
			}
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize bundle: %w", err)
	}

	return f.Close()
}

func addFile(zw *zip.Writer, path, arcName string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer src.Close()

	// Deflate is the zip.Writer default method.
	dst, err := zw.Create(arcName)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", arcName, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to write %s: %w", arcName, err)
	}

	return nil
}

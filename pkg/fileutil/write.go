package fileutil

import (
	"fmt"
	"os"
)

// WriteFileExclusive writes content to a file at the specified path.
// The write fails if the file already exists, so an existing file is
// never touched.
func WriteFileExclusive(filePath string, content []byte, perm os.FileMode) error {
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", filePath, err)
	}
	defer f.Close()

	_, err = f.Write(content)
	if err != nil {
		return fmt.Errorf("failed to write to file %s: %w", filePath, err)
	}

	return nil
}

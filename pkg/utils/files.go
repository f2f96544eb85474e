package utils

import (
	"io"
	"os"
	"path/filepath"
)

// StdinPath names standard input on the command line.
const StdinPath = "-"

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	// Get the directory containing the file
	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// ReadSource reads a whole source file, or stdin when path is StdinPath.
// fullPath is empty for stdin.
func ReadSource(path string, stdin io.Reader) (src string, fullPath string, err error) {
	if path == StdinPath {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", err
		}
		return string(b), "", nil
	}

	fullPath, _, err = GetPathInfo(path)
	if err != nil {
		return "", "", err
	}
	b, err := os.ReadFile(fullPath)
	if err != nil {
		return "", "", err
	}
	return string(b), fullPath, nil
}

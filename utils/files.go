// Package utils holds small filesystem helpers.
package utils

import (
	"os"
)

// Exists reports whether path exists and whether it is a directory. A stat
// error other than "not exist" is returned.
func Exists(path string) (isDir bool, exists bool, err error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return info.IsDir(), true, nil
}

// IsFile reports whether path exists and is not a directory.
func IsFile(path string) bool {
	isDir, exists, _ := Exists(path)
	return exists && !isDir
}

package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

//InSlice returns true if given string appears in given slice
func InSlice(lookingFor string, slice []string) bool {
	for _, s := range slice {
		if s == lookingFor {
			return true
		}
	}

	return false
}

//ListDir returns a list of files/ directories in given path
func ListDir(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.Wrap(err, "ListDir")
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}

	return names, nil
}

//ListImages returns the names of files in given path that have one of ImageExtensions
func ListImages(path string) ([]string, error) {
	names, err := ListDir(path)
	if err != nil {
		return nil, err
	}

	images := make([]string, 0, len(names))
	for _, name := range names {
		if InSlice(strings.ToLower(filepath.Ext(name)), ImageExtensions) {
			images = append(images, name)
		}
	}

	return images, nil
}

//EnsureDir creates given directory (and parents) in case it is missing
func EnsureDir(path string) error {
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return errors.Wrapf(err, "EnsureDir: could not stat '%s'", path)
		}
		if err := os.MkdirAll(path, 0766); err != nil {
			return errors.Wrapf(err, "EnsureDir: could not create '%s'", path)
		}
	}

	return nil
}

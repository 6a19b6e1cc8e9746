package helpers

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const featureExt = ".feature"

// ExpandFeatures resolves the run arguments to feature files. A directory
// contributes every *.feature file below it, sorted; a file is taken as is.
// Duplicates are dropped.
func ExpandFeatures(args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no feature file specified")
	}

	seen := make(map[string]bool)
	var features []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			features = append(features, path)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read feature %s: %w", arg, err)
		}
		if !info.IsDir() {
			add(filepath.Clean(arg))
			continue
		}

		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), featureExt) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", arg, err)
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("no %s files found in %s", featureExt, arg)
		}
		sort.Strings(found)
		for _, f := range found {
			add(f)
		}
	}

	return features, nil
}

package solconfig

import (
	"fmt"
	"os"
	"path/filepath"
)

// configNames are the file names searched by Discover, in order of preference
var configNames = []string{
	"truffle-config.json",
	"truffle-config.yaml",
	"truffle-config.yml",
	"truffle-config.toml",
	"truffle.json",
	"truffle.yaml",
	"truffle.yml",
	"truffle.toml",
}

// Discover returns the configuration file in dir or in the closest of its
// parents that has one
func Discover(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for cur := abs; ; {
		for _, name := range configNames {
			path := filepath.Join(cur, name)

			info, err := os.Stat(path)
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return "", err
			}
			if !info.IsDir() {
				return path, nil
			}
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}
	return "", fmt.Errorf("%w in '%s' or any parent directory", ErrConfigNotFound, abs)
}

package configutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

func readInto[T any](path string, out *T) (found bool, err error) {
	contents, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}
	if len(contents) == 0 {
		return false, nil
	}
	err = json5.Unmarshal(contents, out)
	if err != nil {
		return false, err
	}
	return true, nil
}

// localName turns "config.json5" into "config.local.json5".
func localName(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

// ReadConfig reads a json5 configuration file. If a sibling
// `<name>.local.<ext>` file exists its values are merged on top,
// so checked-in defaults can be overridden per machine without
// touching the main file.
func ReadConfig[T any](name string) (T, error) {
	var out T

	foundDefault, err := readInto(name, &out)
	if err != nil {
		return out, err
	}

	localPath := localName(name)
	var override T
	foundLocal, err := readInto(localPath, &override)
	if err != nil {
		return out, err
	}
	if foundLocal {
		err = mergo.Merge(&out, override, mergo.WithOverride)
		if err != nil {
			return out, err
		}
		slog.Info("merging config with local overrides", "local", localPath)
	}

	if !foundDefault && !foundLocal {
		return out, os.ErrNotExist
	}
	return out, nil
}

// ReadRecursively walks up from the working directory to the
// filesystem root looking for a config file matching `name`.
func ReadRecursively[T any](name string) (T, error) {
	var zero T

	current, err := os.Getwd()
	if err != nil {
		return zero, err
	}

	for {
		config, err := ReadConfig[T](filepath.Join(current, name))
		if os.IsNotExist(err) {
			parent := filepath.Dir(current)
			if parent == current {
				return zero, os.ErrNotExist
			}
			current = parent
			continue
		}
		if err != nil {
			return zero, err
		}
		return config, nil
	}
}

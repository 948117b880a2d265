// Package config holds the CLI's optional compost.toml settings, parsed with
// github.com/BurntSushi/toml in the same style as the teacher's
// server/config.go typed-struct-plus-toml.Decode pattern.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the config file Load looks for beside the program being run.
const FileName = "compost.toml"

// DefaultWidth is the console wrap width used when no config file is found
// or it does not set display.width.
const DefaultWidth = 80

// Config is CLI plumbing, not core language semantics: it never changes how
// a Compost program is lexed, parsed, analyzed, or evaluated, only how the
// CLI presents its output.
type Config struct {
	Display DisplayConfig `toml:"display"`
}

// DisplayConfig controls output rendering.
type DisplayConfig struct {
	// Width is the column width FullMessage wraps error text to. Zero
	// disables wrapping.
	Width int `toml:"width"`
}

// Default returns a Config with every field set to its zero-config default.
func Default() Config {
	return Config{Display: DisplayConfig{Width: DefaultWidth}}
}

// Load reads compost.toml from the same directory as sourcePath, if it
// exists. A missing file is not an error: Load returns Default(). A present
// but malformed file is an error.
func Load(sourcePath string) (Config, error) {
	dir := filepath.Dir(sourcePath)
	path := filepath.Join(dir, FileName)

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, err
	}

	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Config{}, err
	}
	if cfg.Display.Width < 0 {
		cfg.Display.Width = 0
	}
	return cfg, nil
}

/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

const EnvPrefix = "DIPTD_"

// LoadConfig decodes the TOML file at path onto target, which should already
// hold defaults, then applies DIPTD_* environment overrides. A missing file
// leaves the defaults in place.
func LoadConfig(path string, target any) error {
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return fmt.Errorf("internal.loadConfig: read %v: %w", path, err)
		default:
			if err := toml.Unmarshal(data, target); err != nil {
				return fmt.Errorf("internal.loadConfig: parse %v: %w", path, err)
			}
		}
	}

	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("internal.loadConfig: parse env: %w", err)
	}

	return nil
}

// SaveConfig writes src to path as TOML.
func SaveConfig(path string, src any) error {
	data, err := toml.Marshal(src)
	if err != nil {
		return fmt.Errorf("internal.saveConfig: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("internal.saveConfig: write %v: %w", path, err)
	}

	return nil
}

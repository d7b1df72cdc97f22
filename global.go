// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package typemapper

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// GlobalSettings are the registry-wide settings. They can be decoded from
// a TOML document:
//
//    allow_implicit_destination_inheritance = false
//    log_level = "debug"
//
type GlobalSettings struct {
	// AllowImplicitDestinationInheritance is the default for every
	// configuration that doesn't set it explicitly. When true, adapting a
	// pair that has no configuration uses the configuration of the nearest
	// base pair instead.
	AllowImplicitDestinationInheritance bool `toml:"allow_implicit_destination_inheritance"`

	// LogLevel is the hclog level of the registry logger. It is only used
	// if no logger is given with WithLogger.
	LogLevel string `toml:"log_level"`
}

// DefaultGlobalSettings returns the settings a Registry uses unless
// WithGlobalSettings is given.
func DefaultGlobalSettings() GlobalSettings {
	return GlobalSettings{
		AllowImplicitDestinationInheritance: true,
	}
}

// DecodeGlobalSettings reads TOML-encoded GlobalSettings from r. Keys that
// are missing keep their default value. Unknown keys are an error.
func DecodeGlobalSettings(r io.Reader) (GlobalSettings, error) {
	result := DefaultGlobalSettings()
	md, err := toml.NewDecoder(r).Decode(&result)
	if err != nil {
		return GlobalSettings{}, fmt.Errorf("error decoding global settings: %w", err)
	}

	return result, checkUndecoded(md)
}

// LoadGlobalSettings reads TOML-encoded GlobalSettings from the file at path.
func LoadGlobalSettings(path string) (GlobalSettings, error) {
	result := DefaultGlobalSettings()
	md, err := toml.DecodeFile(path, &result)
	if err != nil {
		return GlobalSettings{}, fmt.Errorf("error loading global settings from %q: %w", path, err)
	}

	return result, checkUndecoded(md)
}

func checkUndecoded(md toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}

	keys := make([]string, len(undecoded))
	for i, k := range undecoded {
		keys[i] = k.String()
	}
	sort.Strings(keys)

	return fmt.Errorf("unknown global settings: %s", strings.Join(keys, ", "))
}

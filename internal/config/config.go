/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/
// Package config maps command line flags, environment variables and the
// optional appbuild config file onto build session options.
package config

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/appbuild/build"
	"bennypowers.dev/appbuild/cdn"
	"bennypowers.dev/appbuild/compile"
	appfs "bennypowers.dev/appbuild/fs"
	"bennypowers.dev/appbuild/internal/logging"
	"bennypowers.dev/appbuild/strategy"
)

const (
	// FileName is the config file base name, read from the package directory.
	FileName = "appbuild"
	// EnvPrefix prefixes environment overrides, e.g. APPBUILD_LOG_LEVEL.
	EnvPrefix = "APPBUILD"

	DefaultMaxDownloadSize = 32 << 20
	DefaultPort            = 8080
)

// Setup registers defaults derived from defaults, enables environment
// overrides and reads the config file from root, if there is one.
func Setup(root string, defaults build.Options) error {
	viper.SetDefault("input", defaults.Input)
	viper.SetDefault("build-dir", defaults.Output)
	viper.SetDefault("dist", defaults.Dist)
	viper.SetDefault("assets", defaults.Assets)
	viper.SetDefault("vendor", defaults.Vendor)
	viper.SetDefault("vendor-bundle", defaults.VendorBundle)
	viper.SetDefault("mode", string(defaults.Mode))
	viper.SetDefault("minify", defaults.Minify)
	viper.SetDefault("live", defaults.Live)
	viper.SetDefault("rebuild", defaults.Rebuild)
	viper.SetDefault("require-name", defaults.RequireName)
	viper.SetDefault("lookup", defaults.Lookup)
	viper.SetDefault("entry-types", defaults.EntryTypes)
	viper.SetDefault("cdn", defaults.Provider)
	viper.SetDefault("cdn-template", defaults.CDNTemplate)
	viper.SetDefault("concurrency", defaults.Concurrency)
	viper.SetDefault("log", true)
	viper.SetDefault("log-level", "info")
	viper.SetDefault("log-format", "text")
	viper.SetDefault("max-download-size", DefaultMaxDownloadSize)
	viper.SetDefault("port", DefaultPort)
	viper.SetDefault("proxy", "")

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(root)
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading %s config: %w", FileName, err)
		}
	}
	return nil
}

// AddBuildFlags registers the flags shared by every command that runs a
// build session.
func AddBuildFlags(cmd *cobra.Command, defaults build.Options) {
	f := cmd.Flags()
	f.String("input", defaults.Input, "Input directory")
	f.String("build-dir", defaults.Output, "Directory for per-module build artifacts")
	f.String("dist", defaults.Dist, "Directory for production bundles")
	f.String("mode", string(defaults.Mode), "Build mode (developer, production)")
	f.Bool("minify", defaults.Minify, "Minify production bundles")
	f.Bool("live", defaults.Live, "Inject the live-reload client (developer mode)")
	f.Bool("rebuild", defaults.Rebuild, "Compile every asset, even when its artifacts are current")
	f.String("cdn", defaults.Provider, "CDN provider for vendor packages (jsdelivr, unpkg)")
	f.String("cdn-template", defaults.CDNTemplate, "Custom CDN dist URL template, e.g. https://cdn.example.com/{package}@{version}/dist/{path}")
	f.Int("concurrency", defaults.Concurrency, "Entry points built at once (0: one per CPU)")
	f.Bool("log", true, "Log build progress")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

// BindFlags binds the flags of the running command. Commands share flag
// names, so binding happens once the command is known.
func BindFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// Root returns the absolute package directory.
func Root() (string, error) {
	root, err := filepath.Abs(viper.GetString("package"))
	if err != nil {
		return "", fmt.Errorf("invalid package directory: %w", err)
	}
	return root, nil
}

// Options returns the session options for the package directory.
func Options() (build.Options, error) {
	root, err := Root()
	if err != nil {
		return build.Options{}, err
	}
	mode, err := build.ParseMode(viper.GetString("mode"))
	if err != nil {
		return build.Options{}, err
	}
	provider := viper.GetString("cdn")
	if provider != "" && !cdn.IsValidProvider(provider) {
		return build.Options{}, fmt.Errorf("unknown CDN provider %q (want one of %s)",
			provider, strings.Join(cdn.ProviderNames(), ", "))
	}
	return build.Options{
		Root:         root,
		Input:        viper.GetString("input"),
		Output:       viper.GetString("build-dir"),
		Dist:         viper.GetString("dist"),
		Assets:       viper.GetString("assets"),
		Vendor:       viper.GetString("vendor"),
		VendorBundle: viper.GetString("vendor-bundle"),
		Mode:         mode,
		Minify:       viper.GetBool("minify"),
		Live:         viper.GetBool("live"),
		Rebuild:      viper.GetBool("rebuild"),
		RequireName:  viper.GetString("require-name"),
		Lookup:       viper.GetStringSlice("lookup"),
		EntryTypes:   viper.GetStringSlice("entry-types"),
		Provider:     provider,
		CDNTemplate:  viper.GetString("cdn-template"),
		Concurrency:  viper.GetInt("concurrency"),
	}, nil
}

// Logger returns the configured logger writing to w.
func Logger(w io.Writer) build.Logger {
	if !viper.GetBool("log") {
		return build.NopLogger{}
	}
	return logging.New(w, viper.GetString("log-level"), viper.GetString("log-format"))
}

// Fetcher returns the HTTP fetcher for remote URLs and CDN packages.
func Fetcher() cdn.Fetcher {
	return cdn.NewHTTPFetcher().WithMaxSize(viper.GetInt("max-download-size"))
}

// Strategy returns a fresh strategy for mode.
func Strategy(mode build.Mode) build.Strategy {
	if mode == build.ModeDeveloper {
		return strategy.NewDeveloper()
	}
	return strategy.NewProduction()
}

// NewSession creates a session with the default compilers.
func NewSession(fsys appfs.FileSystem, opts build.Options, logger build.Logger, fetcher cdn.Fetcher) (*build.Session, error) {
	return build.New(build.Config{
		Options:  opts,
		FS:       fsys,
		Fetcher:  fetcher,
		Logger:   logger,
		Strategy: Strategy(opts.Mode),
		Registry: compile.Default(),
	})
}

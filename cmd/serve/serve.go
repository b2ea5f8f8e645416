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
// Package serve provides the serve command for appbuild.
package serve

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/appbuild/build"
	"bennypowers.dev/appbuild/fs"
	"bennypowers.dev/appbuild/internal/config"
	"bennypowers.dev/appbuild/serve"
)

// Cmd is the serve command, which builds the application, serves it and
// rebuilds whatever changes.
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Build, watch and serve the application",
	Long: `Build the application, then serve it over HTTP while watching the input
directory. Changed files are recompiled together with everything that depends
on them, and connected pages are told to reload them.`,
	Example: `  # Developer server with live reload on :8080
  appbuild serve

  # Serve the production build, forwarding API calls to a backend
  appbuild serve --mode production --proxy http://localhost:3000`,
	RunE: run,
}

// Defaults are the serve command's session defaults.
func Defaults() build.Options {
	opts := build.DefaultOptions()
	opts.Mode = build.ModeDeveloper
	opts.Live = true
	opts.Minify = false
	opts.Rebuild = false
	return opts
}

func init() {
	config.AddBuildFlags(Cmd, Defaults())
	Cmd.Flags().Int("port", config.DefaultPort, "Port to listen on")
	Cmd.Flags().String("proxy", "", "Backend URL for requests no file answers")
}

func run(cmd *cobra.Command, args []string) error {
	if err := config.BindFlags(cmd); err != nil {
		return err
	}
	root, err := config.Root()
	if err != nil {
		return err
	}
	if err := config.Setup(root, Defaults()); err != nil {
		return err
	}
	opts, err := config.Options()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	osfs := fs.NewOSFileSystem()
	logger := config.Logger(cmd.ErrOrStderr())
	session, err := config.NewSession(osfs, opts, logger, config.Fetcher())
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Error("closing session: %v", err)
		}
	}()

	srv := serve.New(osfs, logger)
	if proxy := viper.GetString("proxy"); proxy != "" {
		if srv, err = srv.WithProxy(proxy); err != nil {
			return err
		}
	}
	session.RegisterWithServer(srv)

	// Requests wait on readiness, so the first build runs behind the listener.
	go func() {
		report, err := session.Build(ctx)
		if err != nil {
			logger.Error("%v", err)
			return
		}
		if n := len(report.Failures); n > 0 {
			logger.Warning("%d of %d entry points failed", n, len(report.Entries))
		}
		if err := session.Watch(ctx); err != nil {
			logger.Error("watching %s: %v", opts.InputDir(), err)
		}
	}()

	return srv.ListenAndServe(ctx, fmt.Sprintf(":%d", viper.GetInt("port")))
}

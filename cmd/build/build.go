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
// Package build provides the build command for appbuild.
package build

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	appbuild "bennypowers.dev/appbuild/build"
	"bennypowers.dev/appbuild/fs"
	"bennypowers.dev/appbuild/internal/config"
	"bennypowers.dev/appbuild/internal/output"
)

// Cmd is the build command, which compiles every entry point of the input
// directory once.
var Cmd = &cobra.Command{
	Use:   "build",
	Short: "Build the application",
	Long: `Build every entry point document of the input directory.

Developer mode writes one artifact per module to the build directory.
Production mode additionally writes bundled, license-stamped pages to the
dist directory.`,
	Example: `  # Production build of ./app into ./dist
  appbuild build

  # Per-module developer build, reusing current artifacts
  appbuild build --mode developer --rebuild=false

  # Production build from scratch
  appbuild build --clean`,
	RunE: run,
}

func init() {
	config.AddBuildFlags(Cmd, appbuild.DefaultOptions())
	Cmd.Flags().Bool("clean", false, "Remove previous build output first")
}

func run(cmd *cobra.Command, args []string) error {
	if err := config.BindFlags(cmd); err != nil {
		return err
	}
	root, err := config.Root()
	if err != nil {
		return err
	}
	if err := config.Setup(root, appbuild.DefaultOptions()); err != nil {
		return err
	}
	opts, err := config.Options()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	osfs := fs.NewOSFileSystem()
	if clean, _ := cmd.Flags().GetBool("clean"); clean {
		if err := appbuild.Clean(osfs, opts); err != nil {
			return err
		}
	}
	session, err := config.NewSession(osfs, opts, config.Logger(cmd.ErrOrStderr()), config.Fetcher())
	if err != nil {
		return err
	}
	report, err := session.Build(ctx)
	if err != nil {
		return err
	}
	if err := output.Write(osfs, Summary(report)); err != nil {
		return err
	}
	if len(report.Failures) > 0 {
		return fmt.Errorf("%d of %d entry points failed", len(report.Failures), len(report.Entries))
	}
	return context.Cause(ctx)
}

// Summary renders a build report for humans.
func Summary(report *appbuild.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "built %d entry points, %d compilations", len(report.Entries), report.Compiled)
	failed := make([]string, 0, len(report.Failures))
	for entry := range report.Failures {
		failed = append(failed, entry)
	}
	slices.Sort(failed)
	for _, entry := range failed {
		fmt.Fprintf(&b, "\n  %s: %v", entry, report.Failures[entry])
	}
	return b.String()
}

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
// Command appbuild builds, serves and live-reloads browser applications.
package main

import (
	"errors"
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/appbuild/cmd/build"
	"bennypowers.dev/appbuild/cmd/create"
	"bennypowers.dev/appbuild/cmd/graph"
	"bennypowers.dev/appbuild/cmd/serve"
	"bennypowers.dev/appbuild/cmd/version"
)

var rootCmd = &cobra.Command{
	Use:   "appbuild",
	Short: "Incremental builds for browser applications",
	Long: `appbuild compiles the scripts, styles, components and vendor packages an
application's pages reference, recompiling only what changed since the last
build, and serves the result with live reload.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return prof.start()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return prof.stop()
	},
}

// profile writes a CPU profile of one command run.
type profile struct {
	path string
	file *os.File
}

var prof profile

func (p *profile) start() error {
	if p.path == "" {
		return nil
	}
	f, err := os.Create(p.path)
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		return errors.Join(fmt.Errorf("could not start CPU profile: %w", err), f.Close())
	}
	p.file = f
	return nil
}

func (p *profile) stop() error {
	if p.file == nil {
		return nil
	}
	pprof.StopCPUProfile()
	f := p.file
	p.file = nil
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing CPU profile: %w", err)
	}
	return nil
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("package", "p", ".", "Project directory holding appbuild.yaml and package.json")
	flags.StringP("output", "o", "", "Write command results to this file instead of stdout")
	flags.StringVar(&prof.path, "cpuprofile", "", "Write a CPU profile of the run to file")

	for _, name := range []string{"package", "output"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}

	rootCmd.AddCommand(build.Cmd, serve.Cmd, create.Cmd, graph.Cmd, version.Cmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

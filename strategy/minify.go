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
package strategy

import (
	"fmt"

	"github.com/evanw/esbuild/pkg/api"

	"bennypowers.dev/appbuild/build"
)

// Defines returns the compile-time constants substituted while minifying,
// so code guarded by them is dropped from bundles of other modes.
func Defines(opts build.Options) map[string]string {
	return map[string]string{
		"BUILD":      fmt.Sprintf("%q", opts.Mode),
		"DEBUG":      fmt.Sprint(opts.Mode == build.ModeDeveloper),
		"DEVELOPER":  fmt.Sprint(opts.Mode == build.ModeDeveloper),
		"PRODUCTION": fmt.Sprint(opts.Mode == build.ModeProduction),
		"LIVE":       fmt.Sprint(opts.Live),
	}
}

// MinifyScript minifies a script bundle. Legal comments are dropped; the
// caller prepends the license it wants kept.
func MinifyScript(code []byte, defines map[string]string) ([]byte, error) {
	return minify(code, api.LoaderJS, defines)
}

// MinifyStyle minifies a style sheet bundle.
func MinifyStyle(code []byte) ([]byte, error) {
	return minify(code, api.LoaderCSS, nil)
}

func minify(code []byte, loader api.Loader, defines map[string]string) ([]byte, error) {
	result := api.Transform(string(code), api.TransformOptions{
		Loader:            loader,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		LegalComments:     api.LegalCommentsNone,
		Define:            defines,
	})
	if len(result.Errors) > 0 {
		msg := result.Errors[0]
		if msg.Location != nil {
			return nil, fmt.Errorf("minify: line %d: %s", msg.Location.Line, msg.Text)
		}
		return nil, fmt.Errorf("minify: %s", msg.Text)
	}
	return result.Code, nil
}

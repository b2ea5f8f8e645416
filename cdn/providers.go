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
package cdn

// Provider is a content delivery network serving the dist directories of
// published npm packages.
type Provider struct {
	Name string
	// DistTemplate is the URL of a dist file, with {package}, {version}
	// and {path} placeholders. An empty version selects the latest release.
	DistTemplate string
}

var (
	// Jsdelivr serves packages from cdn.jsdelivr.net.
	Jsdelivr = Provider{
		Name:         "jsdelivr",
		DistTemplate: "https://cdn.jsdelivr.net/npm/{package}@{version}/dist/{path}",
	}

	// Unpkg serves packages from unpkg.com.
	Unpkg = Provider{
		Name:         "unpkg",
		DistTemplate: "https://unpkg.com/{package}@{version}/dist/{path}",
	}
)

// DefaultProvider is used when no provider is configured.
var DefaultProvider = Jsdelivr

// providers maps every accepted provider name, including host names, to
// its provider.
var providers = map[string]*Provider{
	"jsdelivr":         &Jsdelivr,
	"jsdelivr.net":     &Jsdelivr,
	"cdn.jsdelivr.net": &Jsdelivr,
	"unpkg":            &Unpkg,
	"unpkg.com":        &Unpkg,
}

// ProviderByName returns the provider known by name, or nil.
func ProviderByName(name string) *Provider {
	return providers[name]
}

// ProviderNames returns the canonical provider names.
func ProviderNames() []string {
	return []string{Jsdelivr.Name, Unpkg.Name}
}

// IsValidProvider reports whether ProviderByName knows name.
func IsValidProvider(name string) bool {
	return ProviderByName(name) != nil
}

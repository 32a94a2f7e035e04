package urdf

import (
	"path/filepath"
	"strings"
)

// PackageScheme prefixes package-relative resource URIs.
const PackageScheme = "package://"

// ResolveMesh maps a package://<pkg>/<rest> reference to <root>/<rest>.
// References using any other scheme or package are not resolved.
func ResolveMesh(filename, pkg, root string) (string, bool) {
	prefix := PackageScheme + pkg + "/"
	if pkg == "" || !strings.HasPrefix(filename, prefix) {
		return "", false
	}
	rest := strings.TrimPrefix(filename, prefix)
	if rest == "" {
		return "", false
	}
	return filepath.Join(root, filepath.FromSlash(rest)), true
}

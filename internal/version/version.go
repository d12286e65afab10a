// Package version holds the release version reported by the CLI.
package version

// Current is the release version, without a leading "v".
const Current = "2.0.0"

// String is the human-readable version line printed by --version.
func String() string {
	return "leadrepair v" + Current
}

package types

import "github.com/Masterminds/semver/v3"

// SchemaVersion is the version written into every persisted document
const SchemaVersion = "1.0.0"

var currentSchema = semver.MustParse(SchemaVersion)

// CompatibleSchema reports whether a document written at version v can be
// read by this build. Empty versions predate versioning and are accepted.
// Documents from a newer major version are rejected.
func CompatibleSchema(v string) bool {
	if v == "" {
		return true
	}
	parsed, err := semver.NewVersion(v)
	if err != nil {
		return false
	}
	return parsed.Major() <= currentSchema.Major()
}

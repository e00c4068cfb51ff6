// Package version provides the gh-gfi version constant.
// The Version constant is updated during the release workflow.
package version

// Version is the current gh-gfi version.
const Version = "0.3.0"

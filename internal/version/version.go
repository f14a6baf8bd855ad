// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.3.0"

// UserAgent identifies the feed fetcher to remote hosts.
const UserAgent = "ls-globe/" + Version

// Milestones:
// 0.3.0 - City lights with suburb sprawl, selection arcs, headless PNG export
// 0.2.0 - Night terminator with twilight band, inertial drag, focus lock
// 0.1.0 - Initial release: orthographic globe, graticule, land outlines

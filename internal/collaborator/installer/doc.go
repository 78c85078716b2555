// Package installer downloads the latest scrcpy release for the running
// platform and unpacks it next to the application.
//
// The release is found through the GitHub releases API. When the API is
// throttled or unreachable the installer follows the /releases/latest
// redirect to learn the tag and builds the asset URL itself. Progress is
// reported on the status topic and as console lines, ending with a
// download-complete event that carries the install directory.
package installer

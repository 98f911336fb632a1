// Package pathutil holds the filesystem helpers used around measurement runs:
// directory creation, binary lookup, recursive file discovery and a few date
// conversions used when naming and matching log files.
package pathutil

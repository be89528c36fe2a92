// Package watcher converts files dropped into a watched directory.
//
// New files are picked up via fsnotify, allowed to settle so partially
// written uploads are not consumed mid-copy, then converted to the
// configured target format by a small worker pool. Outputs land in the
// output directory and every attempt is recorded in the job history.
package watcher

// Package database records conversion job history in SQLite. Only job
// metadata is persisted (formats, sizes, timing, outcome); converted
// payloads never touch disk.
package database

// Package api implements the HTTP surface of the converter service.
//
// Conversions are submitted as multipart uploads to POST /api/convert,
// with the source and target format tags carried as form fields. A
// single output file is returned as-is; batches that fan out to
// multiple files are returned as a zip archive. Every request is
// recorded in the job history database regardless of outcome.
package api

// Package converter implements the format conversion units and the
// branch logic shared between them.
//
// A unit declares the formats it can read and write as a
// capability.Set, probes the host runtime once to discover which of
// those are actually usable, and then executes conversion batches. Each
// requested (input, output) format pair is classified into exactly one
// of three branches: decode (native input, foreign output), encode
// (foreign input, native output) or passthrough (both native; bytes are
// copied untouched and only the name changes). A pair matching none of
// the three fails with a classification error.
//
// One input file may fan out to several output files (multi-page HEIC,
// animated GIF). Output naming is deterministic: a single result keeps
// the input's base name with the new extension, multiple results are
// numbered base_001.ext, base_002.ext, ... in source order.
//
// The Registry pairs incoming requests with the first ready unit whose
// capability set covers them.
package converter

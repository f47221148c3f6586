package tle

import _ "embed"

// Fallback is the bundled element-set text used when neither the network
// source nor the disk cache can provide a catalog. One of its seven records
// is malformed and is skipped on ingest.
//
//go:embed fallback.tle
var Fallback []byte

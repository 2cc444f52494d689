// Package store persists fitted explainers (explain.State) and named matrix
// bundles such as model parameters.
//
// Every saved item is a bundle: a YAML metadata record plus one binary blob
// per matrix. A blob is
//
//	"CPXM" | version u32 | rows u32 | cols u32 | rows·cols float64 | crc64 u64
//
// little-endian, the checksum (CRC-64/ECMA) covering everything before it.
//
// Backends:
//
//	FileStore    one directory per bundle: metadata.yaml + <matrix>.bin
//	SQLiteStore  two tables (bundles, blobs) in a single database file
//	Cached       LRU front over any Store
//
// Explainers are addressed by Key, rendered as "<kind>_cv<cv>_n<keep>"
// (the representer, which has no sparsity target, omits "_n<keep>").
package store

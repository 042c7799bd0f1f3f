// Package hash provides the CRC32-Castagnoli checksums used by table files
// and S3 uploads.
//
//	sum := hash.CRC32C(data)
//
//	h := hash.NewCRC32C()
//	h.Write(header)
//	h.Write(body)
//	sum := h.Sum32()
//
// The standard library uses SSE4.2 or the ARM CRC extension when available.
package hash

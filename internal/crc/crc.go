// Package crc computes the CRC-32 checksums stored in ZIP headers.
//
// ZIP uses the reflected IEEE 802.3 polynomial (0xEDB88320) with the
// accumulator starting at zero, which is what hash/crc32 implements with its
// precomputed IEEE table.
package crc

import "hash/crc32"

var table = crc32.IEEETable

// Checksum returns the CRC-32 of p.
func Checksum(p []byte) uint32 {
	return crc32.Update(0, table, p)
}

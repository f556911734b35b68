// Package resp implements the Redis serialization protocol (RESP) used on
// the Cachelet wire.
//
// The codec is split in two phases so that a connection can buffer partial
// input without allocating: Check walks the grammar over a byte slice and
// reports whether one complete frame is present, and Parse materializes the
// frame Check validated. Both consume exactly one frame's worth of bytes,
// which is what makes pipelined input work: the caller advances its buffer
// by the reported length and keeps the rest.
package resp

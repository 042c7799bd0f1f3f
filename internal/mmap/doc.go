// Package mmap provides read-only memory-mapped file access.
//
// Local table files are mapped instead of read so that opening a table and
// scanning one column touches only the pages that column lives on.
//
//	m, err := mmap.Open("split=train/objects.ptb")
//	if err != nil { ... }
//	defer m.Close()
//	data := m.Bytes()
//
// Unix platforms use mmap(2) and madvise(2); Windows uses
// CreateFileMapping/MapViewOfFile and ignores access hints.
//
// Bytes must not be used after Close returns.
package mmap

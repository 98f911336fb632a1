// Package logio provides durable log I/O for long-running measurement
// processes.
//
// FileWritable is a sink that writes plain files or pipes its output through
// an external compressor (xz) feeding a durable-write helper (dd). It opens
// lazily, serializes writers with a single mutex and rotates atomically: the
// live file is closed, renamed into an "archive" directory next to it with a
// timestamped name, and reopened empty, all while holding the write lock.
//
// DataSource is the read side. It yields lines from a plain file, a
// compressed file (through the external decompressor, or in-process for
// .zst, .gz and .lz4 archives) or standard input, without the caller caring
// which.
//
// MemoryWritable is an in-memory sink for staging output in tests and
// in-process pipelines.
package logio

package logio

import "sync/atomic"

// Statistics holds operational counters for a FileWritable.
type Statistics struct {
	Writes       atomic.Int64 // Successful Write calls
	BytesWritten atomic.Int64 // Bytes accepted by the open handle
	Opens        atomic.Int64 // Handles opened (lazy, explicit and after rotation)
	Rotations    atomic.Int64 // Completed renames into the archive directory
	Errors       atomic.Int64 // Failed opens, writes, closes and rotations
}

// StatsSnapshot is a point-in-time copy of Statistics.
type StatsSnapshot struct {
	Writes       int64
	BytesWritten int64
	Opens        int64
	Rotations    int64
	Errors       int64
}

func (s *Statistics) snapshot() StatsSnapshot {
	return StatsSnapshot{
		Writes:       s.Writes.Load(),
		BytesWritten: s.BytesWritten.Load(),
		Opens:        s.Opens.Load(),
		Rotations:    s.Rotations.Load(),
		Errors:       s.Errors.Load(),
	}
}

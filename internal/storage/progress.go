package storage

import (
	"io"
	"time"

	"golang.org/x/time/rate"
)

// progressInterval bounds how often progress callbacks fire. Every read
// updates the byte counters, but callbacks are throttled through a token
// bucket so callers are not invoked per chunk.
const progressInterval = 200 * time.Millisecond

// progressReader wraps an upload body and reports throttled progress.
// The final 100% snapshot is emitted by the caller after the backend confirms
// the write, not by the reader, so completion is never reported for a partial
// object.
type progressReader struct {
	r           io.Reader
	total       int64
	transferred int64
	start       time.Time
	limiter     *rate.Limiter
	onProgress  ProgressFunc
}

func newProgressReader(r io.Reader, total int64, fn ProgressFunc) *progressReader {
	return &progressReader{
		r:          r,
		total:      total,
		start:      time.Now(),
		limiter:    rate.NewLimiter(rate.Every(progressInterval), 1),
		onProgress: fn,
	}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.transferred += int64(n)
		if p.onProgress != nil && p.limiter.Allow() {
			p.onProgress(p.snapshot())
		}
	}
	return n, err
}

// snapshot derives percentage and an elapsed-based ETA from the byte counters.
func (p *progressReader) snapshot() Progress {
	s := Progress{
		BytesTransferred: p.transferred,
		TotalBytes:       p.total,
	}
	if p.total > 0 {
		s.Percentage = float64(p.transferred) / float64(p.total) * 100
	}
	if elapsed := time.Since(p.start); p.transferred > 0 && elapsed > 0 && p.total > p.transferred {
		bytesPerSec := float64(p.transferred) / elapsed.Seconds()
		s.ETASeconds = int64(float64(p.total-p.transferred)/bytesPerSec + 0.5)
	}
	return s
}

// completed is the terminal snapshot emitted once the backend has confirmed
// the full write.
func (p *progressReader) completed() Progress {
	return Progress{
		BytesTransferred: p.total,
		TotalBytes:       p.total,
		Percentage:       100,
	}
}

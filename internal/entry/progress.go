package entry

import (
	"context"
	"io"
)

// ProgressFunc receives completion percentages in [0,100]. It is called
// synchronously on the goroutine doing the I/O.
type ProgressFunc func(percent int)

// Tracker turns byte counts into monotonic percentages for a ProgressFunc.
// With an unknown total (negative) only the final 100 is reported.
type Tracker struct {
	fn    ProgressFunc
	total int64
	done  int64
	last  int
}

// NewTracker creates a tracker for an operation of total bytes.
func NewTracker(fn ProgressFunc, total int64) *Tracker {
	return &Tracker{fn: fn, total: total, last: -1}
}

// Add records n more bytes.
func (t *Tracker) Add(n int64) {
	if t == nil || t.fn == nil {
		return
	}
	t.done += n
	if t.total <= 0 {
		return
	}
	pct := int(t.done * 100 / t.total)
	if pct > 99 {
		// 100 is reserved for Finish
		pct = 99
	}
	t.report(pct)
}

// Finish reports 100.
func (t *Tracker) Finish() {
	if t == nil || t.fn == nil {
		return
	}
	t.report(100)
}

func (t *Tracker) report(pct int) {
	if pct <= t.last {
		return
	}
	t.last = pct
	t.fn(pct)
}

// progressReader counts bytes into a Tracker and stops on context cancellation.
type progressReader struct {
	ctx     context.Context
	r       io.Reader
	tracker *Tracker
}

// NewProgressReader wraps r so every Read advances tracker and checks ctx.
func NewProgressReader(ctx context.Context, r io.Reader, tracker *Tracker) io.Reader {
	return &progressReader{ctx: ctx, r: r, tracker: tracker}
}

func (p *progressReader) Read(b []byte) (int, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := p.r.Read(b)
	p.tracker.Add(int64(n))
	return n, err
}

// progressWriter is the write-side counterpart of progressReader.
type progressWriter struct {
	ctx     context.Context
	w       io.Writer
	tracker *Tracker
}

// NewProgressWriter wraps w so every Write advances tracker and checks ctx.
func NewProgressWriter(ctx context.Context, w io.Writer, tracker *Tracker) io.Writer {
	return &progressWriter{ctx: ctx, w: w, tracker: tracker}
}

func (p *progressWriter) Write(b []byte) (int, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := p.w.Write(b)
	p.tracker.Add(int64(n))
	return n, err
}

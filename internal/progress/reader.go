package progress

import (
	"errors"
	"io"
)

// Reader wraps an io.Reader and reports how many bytes went through it. OnProgress is
// called every time at least Interval bytes were read since the previous report, and
// once more when the underlying reader returns io.EOF.
type Reader struct {
	Reader     io.Reader
	Total      int64
	Interval   int64
	OnProgress func(read, total int64)

	read        int64
	sinceLast   int64
	reportedEOF bool
}

func NewReader(r io.Reader, total, interval int64, cb func(read, total int64)) *Reader {
	return &Reader{
		Reader:     r,
		Total:      total,
		Interval:   interval,
		OnProgress: cb,
	}
}

// BytesRead returns the cumulative number of bytes read so far.
func (pr *Reader) BytesRead() int64 {
	return pr.read
}

func (pr *Reader) Read(p []byte) (int, error) {
	n, err := pr.Reader.Read(p)
	if n > 0 {
		pr.read += int64(n)
		pr.sinceLast += int64(n)

		if pr.Interval > 0 && pr.sinceLast >= pr.Interval {
			pr.report()
		}
	}

	if errors.Is(err, io.EOF) && !pr.reportedEOF {
		pr.reportedEOF = true
		pr.report()
	}

	return n, err
}

func (pr *Reader) report() {
	pr.sinceLast = 0

	if pr.OnProgress != nil {
		pr.OnProgress(pr.read, pr.Total)
	}
}

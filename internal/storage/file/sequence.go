package file

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/pizza-shop/internal/domain/order"
)

// sequenceFile holds the last allocated order number inside the orders
// directory.
const sequenceFile = "sequence"

var _ order.Sequence = (*Sequence)(nil)

// Sequence allocates order numbers backed by a counter file. Each allocation
// is committed to disk before the number is returned, so a restart never
// reissues a number — even when the order's own document failed to write.
type Sequence struct {
	mu   sync.Mutex
	path string
	last int64
}

// NewSequence opens the counter file in dir, creating it on first
// allocation. floor raises the starting point, e.g. to the highest number
// found in existing order files from before the counter existed.
func NewSequence(dir string, floor int64) (*Sequence, error) {
	path := filepath.Join(dir, sequenceFile)
	last := floor

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, errors.Wrapf(err, "read counter %s", path)
	default:
		n, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parse counter %s", path)
		}
		if n > last {
			last = n
		}
	}

	return &Sequence{path: path, last: last}, nil
}

// Next commits the next number to the counter file and returns it. A failed
// write does not advance the counter, so the number stays available for the
// next attempt.
func (s *Sequence) Next(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.last + 1
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.FormatInt(n, 10)), 0o644); err != nil {
		return 0, errors.Wrap(err, "write counter")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return 0, errors.Wrap(err, "commit counter")
	}
	s.last = n
	return n, nil
}

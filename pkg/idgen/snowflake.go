package idgen

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	nodeBits     = 10
	sequenceBits = 12

	maxNodeID   = (1 << nodeBits) - 1
	maxSequence = (1 << sequenceBits) - 1
)

// SnowflakeCounter is a Counter for deployments that cannot share a Redis
// counter. Each value packs 41 bits of milliseconds since epoch, a 10 bit node
// ID and a 12 bit sequence, so values from distinct nodes never collide and
// values from one node strictly increase.
type SnowflakeCounter struct {
	mu       sync.Mutex
	epoch    int64 // ms
	nodeID   uint64
	lastTs   int64
	sequence uint64
	now      func() time.Time
}

// NewSnowflakeCounter returns a counter for nodeID (0..1023). A zero epochMs
// selects 2020-01-01T00:00:00Z.
func NewSnowflakeCounter(nodeID uint64, epochMs int64) (*SnowflakeCounter, error) {
	if nodeID > maxNodeID {
		return nil, errors.New("idgen: nodeID out of range")
	}
	if epochMs == 0 {
		epochMs = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	}
	return &SnowflakeCounter{
		epoch:  epochMs,
		nodeID: nodeID,
		lastTs: -1,
		now:    time.Now,
	}, nil
}

// NextValue returns the next timestamp/node/sequence ID, waiting for the next
// millisecond once the sequence is exhausted.
func (s *SnowflakeCounter) NextValue(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UnixMilli() - s.epoch
	if ts < 0 {
		return 0, errors.New("idgen: current time is before epoch")
	}
	// The clock stepped backwards; keep issuing from the last timestamp.
	if ts < s.lastTs {
		ts = s.lastTs
	}

	if ts == s.lastTs {
		s.sequence = (s.sequence + 1) & maxSequence
		if s.sequence == 0 {
			// sequence exhausted for this millisecond
			for ts <= s.lastTs {
				if err := ctx.Err(); err != nil {
					return 0, err
				}
				time.Sleep(time.Millisecond)
				ts = s.now().UnixMilli() - s.epoch
			}
		}
	} else {
		s.sequence = 0
	}
	s.lastTs = ts

	return uint64(ts)<<(nodeBits+sequenceBits) | s.nodeID<<sequenceBits | s.sequence, nil
}

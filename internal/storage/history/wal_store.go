// Package history persists the total portfolio value over time, one series per fiat currency.
package history

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/gowal"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/vadiminshakov/balancecheck/internal/domain"
)

const (
	defaultHistoryDir   = "./wal/history"
	historySegmentLimit = 1000
	historyMaxSegments  = 100
	historyKeyPrefix    = "balance_"
)

type record struct {
	Unix  int64  `msgpack:"ts"`
	Total string `msgpack:"total"`
}

// WALStore keeps every written point in a WAL. Reads fold the log so a later
// write for the same timestamp replaces the earlier one.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore opens (or creates) the history WAL under dir.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultHistoryDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "history_",
		SegmentThreshold: historySegmentLimit,
		MaxSegments:      historyMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init balance history WAL")
	}

	return &WALStore{wal: wal}, nil
}

func key(fiat string) string {
	return historyKeyPrefix + strings.ToUpper(fiat)
}

// Set records total at ts for fiat, keeping points of other timestamps.
func (s *WALStore) Set(fiat string, ts time.Time, total decimal.Decimal) error {
	if s == nil || s.wal == nil {
		return errors.New("balance history store is not initialized")
	}
	if fiat == "" {
		return errors.New("fiat is required")
	}

	point := domain.NewBalancePoint(ts, total)
	payload, err := msgpack.Marshal(record{Unix: point.Timestamp.Unix(), Total: point.Total.String()})
	if err != nil {
		return errors.Wrap(err, "marshal balance point")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key(fiat), payload)
}

// Get returns the series of fiat ordered by timestamp ascending.
func (s *WALStore) Get(fiat string) ([]domain.BalancePoint, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("balance history store is not initialized")
	}
	want := key(fiat)

	s.mu.RLock()
	defer s.mu.RUnlock()

	byTS := make(map[int64]decimal.Decimal)
	current := s.wal.CurrentIndex()
	for idx := uint64(1); idx <= current; idx++ {
		k, payload, err := s.wal.Get(idx)
		if err != nil || k != want {
			continue
		}
		var r record
		if err := msgpack.Unmarshal(payload, &r); err != nil {
			return nil, errors.Wrapf(err, "decode balance point %d", idx)
		}
		total, err := decimal.NewFromString(r.Total)
		if err != nil {
			return nil, errors.Wrapf(err, "parse balance point %d", idx)
		}
		byTS[r.Unix] = total
	}

	points := make([]domain.BalancePoint, 0, len(byTS))
	for ts, total := range byTS {
		points = append(points, domain.NewBalancePoint(time.Unix(ts, 0), total))
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})

	return points, nil
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("balance history store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}

package observability

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/valyala/bytebufferpool"
)

const (
	betterStackQueueSize  = 1024
	betterStackBatchSize  = 50
	betterStackFlushEvery = time.Second
)

func normalizeBetterStackEndpoint(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return value
	}
	return "https://" + value
}

// betterStackWriteSyncer queues encoded entries and posts them in JSON array
// batches. Writes never block the caller; a full queue drops entries.
type betterStackWriteSyncer struct {
	endpoint string
	token    string
	client   *http.Client

	mu        sync.RWMutex
	closed    bool
	queue     chan []byte
	closeOnce sync.Once
	done      chan struct{}
	dropped   atomic.Uint64
}

func newBetterStackWriteSyncer(endpoint, token string, timeout time.Duration) *betterStackWriteSyncer {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	s := &betterStackWriteSyncer{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: timeout},
		queue:    make(chan []byte, betterStackQueueSize),
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *betterStackWriteSyncer) Write(p []byte) (int, error) {
	payload := bytes.TrimSpace(p)
	if len(payload) == 0 {
		return len(p), nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return len(p), nil
	}

	// zap reuses its buffer once Write returns.
	copied := append([]byte(nil), payload...)
	select {
	case s.queue <- copied:
	default:
		if dropped := s.dropped.Add(1); dropped == 1 || dropped%100 == 0 {
			fmt.Fprintf(os.Stderr, "betterstack queue full; dropped logs=%d\n", dropped)
		}
	}
	return len(p), nil
}

func (s *betterStackWriteSyncer) Sync() error {
	return nil
}

func (s *betterStackWriteSyncer) run() {
	defer close(s.done)

	ticker := time.NewTicker(betterStackFlushEvery)
	defer ticker.Stop()

	batch := make([][]byte, 0, betterStackBatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		s.send(batch)
		batch = batch[:0]
	}

	for {
		select {
		case entry, ok := <-s.queue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, entry)
			if len(batch) >= betterStackBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (s *betterStackWriteSyncer) send(batch [][]byte) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_ = buf.WriteByte('[')
	for i, entry := range batch {
		if i > 0 {
			_ = buf.WriteByte(',')
		}
		_, _ = buf.Write(entry)
	}
	_ = buf.WriteByte(']')

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, s.endpoint, bytes.NewReader(buf.B))
	if err != nil {
		fmt.Fprintf(os.Stderr, "betterstack create request failed: %v\n", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "betterstack send logs failed: %v\n", err)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		fmt.Fprintf(os.Stderr, "betterstack send logs got status=%d entries=%d\n", resp.StatusCode, len(batch))
	}
}

// Close stops accepting entries and waits for the queue to drain.
func (s *betterStackWriteSyncer) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.queue)
		s.mu.Unlock()
	})

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

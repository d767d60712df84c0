// Package collector accumulates PCM audio into WSPR-cycle-aligned
// windows and hands each completed window to the core decoder. It is
// the boundary collaborator spec.md's Non-goals describe as external
// to the codec: "the UTC-aligned slot scheduler... only its interface
// specified."
package collector

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/cwsl/wsprgo/wspr"
)

// windowBytes is the number of PCM bytes in one 114 s WSPR window at
// the core's fixed 12 kHz sample rate; cycleGapBytes is the rest of the
// 2-minute WSPR cycle, skipped between windows.
const (
	sampleRateHz  = 12000
	windowSeconds = 114
	cycleSeconds  = 120
	windowBytes   = windowSeconds * sampleRateHz * 2 // 16-bit mono PCM
	cycleGapBytes = (cycleSeconds - windowSeconds) * sampleRateHz * 2
)

// Result pairs a window's decodes with the candidate count C5's search
// surfaced before C6-C8 narrowed them down, so a caller can tell a
// quiet window (few candidates) from a noisy one that still yielded no
// decodes (many candidates, none survived).
type Result struct {
	WindowStart time.Time
	Decodes     []wspr.DecodeResult
	Candidates  int
}

// Collector reads PCM from a Source, aligns it to even-UTC-minute WSPR
// cycle boundaries the way kiwi_wspr's WSPRCoordinator.waitForWSPRCycle
// does, and calls wspr.Decode once per completed window.
type Collector struct {
	source io.Reader
	table  wspr.HashTable
	sink   func(Result)

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New creates a Collector reading raw 12 kHz mono 16-bit PCM from
// source. sink is invoked once per completed window with that
// window's decodes (possibly empty). table accumulates hash-table
// entries across windows so a Type 2/3 decode in a later window can
// resolve a callsign first seen in an earlier one.
func New(source io.Reader, table wspr.HashTable, sink func(Result)) *Collector {
	if table == nil {
		table = wspr.NewMemHashTable()
	}
	return &Collector{
		source: source,
		table:  table,
		sink:   sink,
		stopCh: make(chan struct{}),
	}
}

// Start waits for the next even-UTC-minute WSPR cycle boundary, then
// runs the read/decode loop until the context is cancelled or the
// source is exhausted.
func (c *Collector) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("collector: already running")
	}
	c.running = true
	c.mu.Unlock()

	c.waitForWSPRCycle(ctx)

	c.wg.Add(1)
	go c.loop(ctx)
	return nil
}

// Stop signals the read/decode loop to exit and waits for it.
func (c *Collector) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.mu.Unlock()

	close(c.stopCh)
	c.wg.Wait()
}

// waitForWSPRCycle blocks until the next even UTC minute, mirroring
// kiwi_wspr/wspr_coordinator.go's waitForWSPRCycle.
func (c *Collector) waitForWSPRCycle(ctx context.Context) {
	now := time.Now().UTC()
	minute := now.Minute()
	second := now.Second()

	nextEven := minute
	if minute%2 == 1 {
		nextEven = minute + 1
	} else if second > 0 {
		nextEven = minute + 2
	}

	wait := time.Duration(nextEven-minute)*time.Minute - time.Duration(second)*time.Second
	if wait <= 0 {
		return
	}

	log.Printf("collector: waiting %s for next WSPR cycle", wait)
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	case <-c.stopCh:
	}
}

func (c *Collector) loop(ctx context.Context) {
	defer c.wg.Done()

	buf := make([]byte, windowBytes)
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		default:
		}

		windowStart := time.Now().UTC()
		if err := c.fillWindow(buf); err != nil {
			if err != io.EOF {
				log.Printf("collector: read error: %v", err)
			}
			return
		}

		decodes, candidates, err := wspr.Decode(buf, c.table)
		if err != nil {
			log.Printf("collector: decode error: %v", err)
		} else if c.sink != nil {
			c.sink(Result{WindowStart: windowStart, Decodes: decodes, Candidates: candidates})
		}

		// Skip the rest of the 2-minute cycle so the next window also
		// starts on an even UTC minute.
		if _, err := io.CopyN(io.Discard, c.source, cycleGapBytes); err != nil {
			if err != io.EOF {
				log.Printf("collector: read error: %v", err)
			}
			return
		}
	}
}

// fillWindow reads exactly len(buf) bytes from the source, blocking
// until the window is full or the source ends.
func (c *Collector) fillWindow(buf []byte) error {
	_, err := io.ReadFull(c.source, buf)
	return err
}

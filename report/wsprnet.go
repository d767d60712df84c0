// Package report publishes decoded WSPR spots to external sinks:
// wsprnet.org's HTTP spot API and an MQTT broker. The WSPRNet sink
// queues spots and retries failed posts from its own workers; the MQTT
// sink publishes each spot asynchronously and returns an error, without
// queueing the spot, when the broker is not connected. Neither blocks
// the collector on delivery.
package report

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cwsl/wsprgo/wspr"
)

// WSPRNet settings, mirroring decoder_wsprnet.go's server/queue/worker
// tuning.
const (
	wsprNetHostname   = "wsprnet.org"
	wsprNetMaxQueue   = 500
	wsprNetMaxRetries = 3
	wsprNetWorkers    = 2
)

var wsprNetRetryDelays = []time.Duration{5 * time.Second, 15 * time.Second, 60 * time.Second}

// Spot is a single decode queued for external reporting, carrying the
// receiver-side context wsprnet.org's post API requires in addition to
// the decode itself.
type Spot struct {
	ID               string
	ReceiverCallsign string
	ReceiverLocator  string
	DialFreqHz       float64
	Band             string
	Time             time.Time
	Decode           wspr.DecodeResult
}

type queuedSpot struct {
	Spot
	retryCount    int
	nextRetryTime time.Time
}

// WSPRNetReporter submits spots to wsprnet.org's post endpoint from a
// small worker pool, retrying transient failures a bounded number of
// times before dropping a spot. Grounded on decoder_wsprnet.go's
// WSPRNet type.
type WSPRNetReporter struct {
	client *http.Client

	mu         sync.Mutex
	queue      []queuedSpot
	retryQueue []queuedSpot

	submitted uint64
	sent      uint64
	failed    uint64
	dropped   uint64

	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewWSPRNetReporter constructs a reporter with a pooled HTTP client.
func NewWSPRNetReporter() *WSPRNetReporter {
	return &WSPRNetReporter{
		client: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		stopCh: make(chan struct{}),
	}
}

// Start spawns the worker pool.
func (r *WSPRNetReporter) Start() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	for i := 0; i < wsprNetWorkers; i++ {
		r.wg.Add(1)
		go r.workerThread(i)
	}
}

// Stop drains the worker pool and logs final counters.
func (r *WSPRNetReporter) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	close(r.stopCh)
	r.wg.Wait()
	log.Printf("wsprnet: stopped, submitted=%d sent=%d failed=%d dropped=%d",
		r.submitted, r.sent, r.failed, r.dropped)
}

// Submit enqueues a spot for reporting. Spots with no resolved
// callsign are not submitted: wsprnet.org's API has no notion of an
// unresolved hash placeholder.
func (r *WSPRNetReporter) Submit(s Spot) error {
	if s.Decode.Callsign == "" || strings.HasPrefix(s.Decode.Callsign, "<") {
		return nil
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.queue)+len(r.retryQueue) >= wsprNetMaxQueue {
		r.dropped++
		return fmt.Errorf("wsprnet: queue full, dropping spot %s", s.ID)
	}
	r.queue = append(r.queue, queuedSpot{Spot: s})
	r.submitted++
	return nil
}

func (r *WSPRNetReporter) workerThread(id int) {
	defer r.wg.Done()
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.processOne()
		}
	}
}

func (r *WSPRNetReporter) processOne() {
	qs, ok := r.dequeue()
	if !ok {
		return
	}

	if err := r.sendReport(qs.Spot); err != nil {
		r.failed++
		qs.retryCount++
		if qs.retryCount > wsprNetMaxRetries {
			r.mu.Lock()
			r.dropped++
			r.mu.Unlock()
			log.Printf("wsprnet: dropping spot %s after %d attempts: %v", qs.ID, qs.retryCount, err)
			return
		}
		delay := wsprNetRetryDelays[len(wsprNetRetryDelays)-1]
		if qs.retryCount-1 < len(wsprNetRetryDelays) {
			delay = wsprNetRetryDelays[qs.retryCount-1]
		}
		qs.nextRetryTime = time.Now().Add(delay)

		r.mu.Lock()
		r.retryQueue = append(r.retryQueue, qs)
		r.mu.Unlock()
		return
	}

	r.mu.Lock()
	r.sent++
	r.mu.Unlock()
}

func (r *WSPRNetReporter) dequeue() (queuedSpot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.queue) > 0 {
		qs := r.queue[0]
		r.queue = r.queue[1:]
		return qs, true
	}

	now := time.Now()
	for i, qs := range r.retryQueue {
		if now.After(qs.nextRetryTime) || now.Equal(qs.nextRetryTime) {
			r.retryQueue = append(r.retryQueue[:i], r.retryQueue[i+1:]...)
			return qs, true
		}
	}
	return queuedSpot{}, false
}

func (r *WSPRNetReporter) sendReport(s Spot) error {
	data := buildPostData(s)
	resp, err := r.client.PostForm(fmt.Sprintf("https://%s/post", wsprNetHostname), data)
	if err != nil {
		return fmt.Errorf("wsprnet post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wsprnet post: status %d", resp.StatusCode)
	}
	return nil
}

// buildPostData assembles wsprnet.org's post form fields, matching
// decoder_wsprnet.go's buildPostData field names and formats.
func buildPostData(s Spot) url.Values {
	d := s.Decode
	t := s.Time.UTC()

	v := url.Values{}
	v.Set("rcall", s.ReceiverCallsign)
	v.Set("rgrid", s.ReceiverLocator)
	v.Set("rqrg", strconv.FormatFloat(s.DialFreqHz/1e6, 'f', 6, 64))
	v.Set("date", t.Format("060102"))
	v.Set("time", t.Format("1504"))
	v.Set("sig", strconv.FormatFloat(d.SNRdB, 'f', 0, 64))
	v.Set("dt", strconv.FormatFloat(d.TimeOffsetSec, 'f', 1, 64))
	v.Set("drift", strconv.FormatFloat(d.DriftHzPerSec, 'f', 0, 64))
	v.Set("tcall", d.Callsign)
	v.Set("tgrid", d.Grid)
	v.Set("tqrg", strconv.FormatFloat((s.DialFreqHz+d.FreqOffsetHz)/1e6, 'f', 6, 64))
	v.Set("dbm", strconv.Itoa(d.PowerDBm))
	v.Set("version", "wsprgo")
	v.Set("mode", "2")
	return v
}

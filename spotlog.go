package wsprgo

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/cwsl/wsprgo/wspr"
)

// SpotLogger writes decoded spots to zstd-compressed, per-day CSV
// files organized by band, and periodically removes files older than
// maxAgeDays. Grounded on decoder_spots_log.go's SpotsLogger, trimmed
// to the core logging/rotation shape: the historical query and
// analytics aggregation surface that file also carries belongs to a
// web API, not this codec module.
type SpotLogger struct {
	dataDir      string
	maxAgeDays   int
	locatorsOnly bool

	mu      sync.Mutex
	files   map[string]*os.File
	zstdW   map[string]*zstd.Encoder
	writers map[string]*csv.Writer

	enabled   bool
	stopClean chan struct{}
}

// NewSpotLogger creates a logger rooted at dataDir. If enabled is
// false, LogSpot is a no-op and no files or goroutines are created.
func NewSpotLogger(dataDir string, enabled bool, locatorsOnly bool, maxAgeDays int) (*SpotLogger, error) {
	if !enabled {
		return &SpotLogger{enabled: false}, nil
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("spotlog: creating data dir: %w", err)
	}
	if maxAgeDays == 0 {
		maxAgeDays = 90
	}

	sl := &SpotLogger{
		dataDir:      dataDir,
		maxAgeDays:   maxAgeDays,
		locatorsOnly: locatorsOnly,
		enabled:      true,
		files:        make(map[string]*os.File),
		zstdW:        make(map[string]*zstd.Encoder),
		writers:      make(map[string]*csv.Writer),
		stopClean:    make(chan struct{}),
	}

	if maxAgeDays > 0 {
		go sl.cleanupLoop()
	}

	return sl, nil
}

// LogSpot appends one decode to the band's CSV file for the day of
// ts, creating the file (and its zstd stream) on first use.
func (sl *SpotLogger) LogSpot(ts time.Time, band string, d wspr.DecodeResult) error {
	if !sl.enabled {
		return nil
	}
	if sl.locatorsOnly && d.Grid == "" {
		return nil
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()

	writer, err := sl.getOrCreateWriter(ts, band)
	if err != nil {
		return err
	}

	record := []string{
		ts.UTC().Format(time.RFC3339),
		d.Callsign,
		d.Grid,
		fmt.Sprintf("%d", int(d.SNRdB)),
		fmt.Sprintf("%.1f", d.FreqOffsetHz),
		fmt.Sprintf("%.1f", d.DriftHzPerSec),
		fmt.Sprintf("%d", d.PowerDBm),
		fmt.Sprintf("%d", int(d.MessageType)),
	}

	if err := writer.Write(record); err != nil {
		return fmt.Errorf("spotlog: write record: %w", err)
	}
	writer.Flush()
	return writer.Error()
}

// getOrCreateWriter returns the csv.Writer for band/date, creating the
// file and its header the same way getOrCreateWriter does: directory
// structure dataDir/WSPR/YYYY/MM/DD/band.csv.zst.
func (sl *SpotLogger) getOrCreateWriter(ts time.Time, band string) (*csv.Writer, error) {
	t := ts.UTC()
	dateStr := t.Format("2006-01-02")
	key := fmt.Sprintf("%s/%s", dateStr, band)

	if w, ok := sl.writers[key]; ok {
		return w, nil
	}

	dirPath := filepath.Join(sl.dataDir, "WSPR",
		fmt.Sprintf("%04d", t.Year()),
		fmt.Sprintf("%02d", t.Month()),
		fmt.Sprintf("%02d", t.Day()))
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return nil, fmt.Errorf("spotlog: creating %s: %w", dirPath, err)
	}

	filename := filepath.Join(dirPath, band+".csv.zst")
	file, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	stat, _ := file.Stat()
	needsHeader := stat.Size() == 0

	zw, err := zstd.NewWriter(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("spotlog: zstd writer: %w", err)
	}
	writer := csv.NewWriter(zw)

	sl.files[key] = file
	sl.zstdW[key] = zw
	sl.writers[key] = writer

	if needsHeader {
		header := []string{"timestamp", "callsign", "grid", "snr_db", "freq_offset_hz", "drift_hz_per_sec", "power_dbm", "message_type"}
		if err := writer.Write(header); err != nil {
			return nil, fmt.Errorf("spotlog: writing header: %w", err)
		}
		writer.Flush()
	}

	return writer, nil
}

// Close flushes and closes all open files and stops the cleanup loop.
func (sl *SpotLogger) Close() error {
	if !sl.enabled {
		return nil
	}
	close(sl.stopClean)

	sl.mu.Lock()
	defer sl.mu.Unlock()

	for key, zw := range sl.zstdW {
		if err := zw.Close(); err != nil {
			log.Printf("spotlog: closing zstd stream %s: %v", key, err)
		}
	}
	for key, f := range sl.files {
		if err := f.Close(); err != nil {
			log.Printf("spotlog: closing file %s: %v", key, err)
		}
	}
	sl.files = make(map[string]*os.File)
	sl.zstdW = make(map[string]*zstd.Encoder)
	sl.writers = make(map[string]*csv.Writer)
	return nil
}

func (sl *SpotLogger) cleanupLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	if err := sl.cleanupOldFiles(); err != nil {
		log.Printf("spotlog: initial cleanup: %v", err)
	}
	for {
		select {
		case <-ticker.C:
			if err := sl.cleanupOldFiles(); err != nil {
				log.Printf("spotlog: cleanup: %v", err)
			}
		case <-sl.stopClean:
			return
		}
	}
}

// cleanupOldFiles removes day directories under dataDir/WSPR older
// than maxAgeDays, then prunes any month/year directory left empty.
func (sl *SpotLogger) cleanupOldFiles() error {
	if sl.maxAgeDays <= 0 {
		return nil
	}

	modePath := filepath.Join(sl.dataDir, "WSPR")
	if _, err := os.Stat(modePath); os.IsNotExist(err) {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -sl.maxAgeDays)

	yearDirs, err := os.ReadDir(modePath)
	if err != nil {
		return fmt.Errorf("spotlog: reading %s: %w", modePath, err)
	}

	removed := 0
	for _, yearDir := range yearDirs {
		if !yearDir.IsDir() {
			continue
		}
		yearPath := filepath.Join(modePath, yearDir.Name())
		monthDirs, err := os.ReadDir(yearPath)
		if err != nil {
			continue
		}

		for _, monthDir := range monthDirs {
			if !monthDir.IsDir() {
				continue
			}
			monthPath := filepath.Join(yearPath, monthDir.Name())
			dayDirs, err := os.ReadDir(monthPath)
			if err != nil {
				continue
			}

			for _, dayDir := range dayDirs {
				if !dayDir.IsDir() {
					continue
				}
				dateStr := fmt.Sprintf("%s-%s-%s", yearDir.Name(), monthDir.Name(), dayDir.Name())
				dirDate, err := time.Parse("2006-01-02", dateStr)
				if err != nil {
					continue
				}
				if dirDate.Before(cutoff) {
					dayPath := filepath.Join(monthPath, dayDir.Name())
					if err := os.RemoveAll(dayPath); err != nil {
						log.Printf("spotlog: removing %s: %v", dayPath, err)
						continue
					}
					removed++
				}
			}

			if empty, _ := isDirEmpty(monthPath); empty {
				os.Remove(monthPath)
			}
		}
		if empty, _ := isDirEmpty(yearPath); empty {
			os.Remove(yearPath)
		}
	}

	if removed > 0 {
		log.Printf("spotlog: cleanup removed %d old day directories", removed)
	}
	return nil
}

func isDirEmpty(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}

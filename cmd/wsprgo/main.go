// Command wsprgo is the wsprgo CLI: one-shot encode/decode of raw PCM
// files, or a long-running collect mode that wires the collector,
// spot logger and reporters together per a YAML config. Grounded on
// kiwi_wspr/main.go's pflag-based dispatch between a standalone mode
// and a config-file-driven service mode.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	wsprgo "github.com/cwsl/wsprgo"
	"github.com/cwsl/wsprgo/collector"
	"github.com/cwsl/wsprgo/report"
	"github.com/cwsl/wsprgo/wspr"
)

const version = "v0.1.0"

func main() {
	var (
		mode       = pflag.StringP("mode", "m", "", "Operation: encode, decode, or collect")
		callsign   = pflag.String("callsign", "", "Callsign to encode (encode mode)")
		grid       = pflag.String("grid", "", "Maidenhead grid to encode (encode mode)")
		power      = pflag.Int("power", 37, "Power in dBm to encode (encode mode)")
		offsetHz   = pflag.Int("offset", 1500, "Audio offset in Hz (encode mode)")
		lsb        = pflag.Bool("lsb", false, "Modulate for LSB reception (encode mode)")
		inFile     = pflag.String("in", "", "Input PCM file (decode mode)")
		outFile    = pflag.String("out", "", "Output PCM file (encode mode); stdout if empty")
		configFile = pflag.String("config", "config.yaml", "Configuration file (collect mode)")
		showVer    = pflag.BoolP("version", "v", false, "Print version and exit")
	)

	pflag.Parse()

	if *showVer {
		fmt.Printf("wsprgo %s\n", version)
		os.Exit(0)
	}

	var err error
	switch *mode {
	case "encode":
		err = runEncode(*callsign, *grid, *power, *offsetHz, *lsb, *outFile)
	case "decode":
		err = runDecode(*inFile)
	case "collect":
		err = runCollect(*configFile)
	default:
		fmt.Fprintln(os.Stderr, "wsprgo: -mode must be one of encode, decode, collect")
		pflag.Usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("wsprgo: %v", err)
	}
}

func runEncode(callsign, grid string, power, offsetHz int, lsb bool, outFile string) error {
	msg := wspr.Message{Callsign: callsign, Grid: grid, PowerDBm: power}
	pcm, err := wspr.Encode(msg, offsetHz, lsb)
	if err != nil {
		return fmt.Errorf("encoding: %w", err)
	}

	out := os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outFile, err)
		}
		defer f.Close()
		out = f
	}
	if _, err := out.Write(pcm); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func runDecode(inFile string) error {
	if inFile == "" {
		return fmt.Errorf("-in is required in decode mode")
	}
	pcm, err := os.ReadFile(inFile)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inFile, err)
	}

	table := wspr.NewMemHashTable()
	results, _, err := wspr.Decode(pcm, table)
	if err != nil {
		return fmt.Errorf("decoding: %w", err)
	}

	for _, r := range results {
		fmt.Printf("%6.1f dB  %+7.1f Hz  %-10s %-6s %3d dBm\n",
			r.SNRdB, r.FreqOffsetHz, r.Callsign, r.Grid, r.PowerDBm)
	}
	return nil
}

func runCollect(configFile string) error {
	cfg, err := wsprgo.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if !cfg.Enabled {
		log.Println("wsprgo: decoder disabled in config, nothing to do")
		return nil
	}

	metrics := wsprgo.NewMetrics()
	stopMetrics := make(chan struct{})
	if cfg.Metrics.Enabled {
		go func() {
			if err := wsprgo.ListenAndServe(cfg.Metrics.Listen, metrics); err != nil {
				log.Printf("wsprgo: metrics server: %v", err)
			}
		}()
		go metrics.StartSampler(30*time.Second, stopMetrics)
	}

	spotLog, err := wsprgo.NewSpotLogger(cfg.SpotsLog.DataDir, cfg.SpotsLog.Enabled, cfg.SpotsLog.LocatorsOnly, cfg.SpotsLog.MaxAgeDays)
	if err != nil {
		return fmt.Errorf("spot logger: %w", err)
	}
	defer spotLog.Close()

	var wsprNet *report.WSPRNetReporter
	if cfg.WSPRNet.Enabled {
		wsprNet = report.NewWSPRNetReporter()
		wsprNet.Start()
		defer wsprNet.Stop()
	}

	var mqttPub *report.MQTTPublisher
	if cfg.MQTT.Enabled {
		mqttPub, err = report.NewMQTTPublisher(report.MQTTOptions{
			Broker:      cfg.MQTT.Broker,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			QoS:         cfg.MQTT.QoS,
			Retain:      cfg.MQTT.Retain,
			TLS: report.MQTTTLS{
				Enabled:    cfg.MQTT.TLS.Enabled,
				CACert:     cfg.MQTT.TLS.CACert,
				ClientCert: cfg.MQTT.TLS.ClientCert,
				ClientKey:  cfg.MQTT.TLS.ClientKey,
			},
		})
		if err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
		defer mqttPub.Disconnect()
	}

	bands := cfg.EnabledBands()
	if len(bands) == 0 {
		return fmt.Errorf("no enabled bands configured")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	table := wspr.NewMemHashTable()
	collectors := make([]*collector.Collector, 0, len(bands))
	for _, band := range bands {
		band := band
		devicePath := os.Getenv("WSPRGO_PCM_" + band.Name)
		if devicePath == "" {
			log.Printf("wsprgo: no PCM source configured for band %s (set WSPRGO_PCM_%s), skipping", band.Name, band.Name)
			continue
		}
		source, err := os.Open(devicePath)
		if err != nil {
			log.Printf("wsprgo: opening PCM source for %s: %v", band.Name, err)
			continue
		}

		c := collector.New(source, table, func(res collector.Result) {
			handleResult(cfg, band, res, metrics, spotLog, wsprNet, mqttPub)
		})
		if err := c.Start(ctx); err != nil {
			log.Printf("wsprgo: starting collector for %s: %v", band.Name, err)
			continue
		}
		collectors = append(collectors, c)
		log.Printf("wsprgo: collecting on %s (%d Hz)", band.Name, band.Frequency)
	}
	if len(collectors) == 0 {
		return fmt.Errorf("no collectors started")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("wsprgo: received signal %v, shutting down", sig)

	close(stopMetrics)
	for _, c := range collectors {
		c.Stop()
	}
	return nil
}

func handleResult(cfg *wsprgo.Config, band wsprgo.BandConfig, res collector.Result, metrics *wsprgo.Metrics, spotLog *wsprgo.SpotLogger, wsprNet *report.WSPRNetReporter, mqttPub *report.MQTTPublisher) {
	metrics.RecordWindow(band.Name, res.Candidates, len(res.Decodes), time.Since(res.WindowStart))

	for _, d := range res.Decodes {
		if err := spotLog.LogSpot(res.WindowStart, band.Name, d); err != nil {
			log.Printf("wsprgo: spot log: %v", err)
		}

		if wsprNet != nil {
			spot := report.Spot{
				ReceiverCallsign: cfg.WSPRNetCallsign(),
				ReceiverLocator:  cfg.ReceiverLocator,
				DialFreqHz:       float64(band.Frequency),
				Band:             band.Name,
				Time:             res.WindowStart,
				Decode:           d,
			}
			if err := wsprNet.Submit(spot); err != nil {
				log.Printf("wsprgo: wsprnet submit: %v", err)
				metrics.RecordReportFailure("wsprnet")
			}
		}

		if mqttPub != nil {
			spot := report.Spot{
				ID:               strconv.FormatInt(res.WindowStart.Unix(), 10) + "-" + d.Callsign,
				ReceiverCallsign: cfg.ReceiverCallsign,
				ReceiverLocator:  cfg.ReceiverLocator,
				Band:             band.Name,
				Time:             res.WindowStart,
				Decode:           d,
			}
			if err := mqttPub.PublishSpot(context.Background(), band.Name, spot); err != nil {
				log.Printf("wsprgo: mqtt publish: %v", err)
				metrics.RecordReportFailure("mqtt")
			}
		}
	}
}

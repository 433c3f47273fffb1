// Command shinelink-scan batch-processes a directory of .cu8 captures,
// printing one summary line per burst and writing each CRC-validated
// payload to its own .pkt file alongside the source capture.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/FauxFaux/shinelink/batch"
	"github.com/FauxFaux/shinelink/frame"
	"github.com/FauxFaux/shinelink/squelch"
)

var config Config

type Config struct {
	dir         string
	logFilename string
	sampleRate  uint
	deviation   uint

	Decimation int
	Shift      float64

	LogFile *os.File
}

func (c *Config) Parse() (err error) {
	flag.StringVar(&c.logFilename, "logfile", "/dev/stdout", "log statement dump file")
	flag.UintVar(&c.sampleRate, "samplerate", 2_880_000, "raw IQ capture sample rate, Hz")
	flag.UintVar(&c.deviation, "deviation", 60_000, "FM deviation, Hz")
	flag.IntVar(&c.Decimation, "decimation", 16, "demodulated samples averaged per observation")
	flag.Float64Var(&c.Shift, "shift", 476_000, "frequency shift applied before demodulation, Hz")
	flag.Parse()

	if flag.NArg() != 1 {
		return fmt.Errorf("usage: shinelink-scan [flags] <capture_dir>")
	}
	c.dir = flag.Arg(0)

	if c.logFilename == "/dev/stdout" {
		c.LogFile = os.Stdout
	} else {
		c.LogFile, err = os.Create(c.logFilename)
		if err != nil {
			return err
		}
	}
	log.SetOutput(c.LogFile)
	log.SetFlags(log.Lshortfile)

	return nil
}

func main() {
	if err := config.Parse(); err != nil {
		log.Fatal(err)
	}

	cfg, err := squelch.NewConfig(config.Decimation, uint32(config.sampleRate), uint32(config.deviation), config.Shift)
	if err != nil {
		log.Fatal(err)
	}

	edgeLength := float32(config.sampleRate) / float32(config.Decimation) / (1_000_000 / 100)

	results, err := batch.ProcessDir(context.Background(), config.dir, cfg, edgeLength)
	if err != nil {
		log.Fatal(err)
	}

	for _, r := range results {
		for n, burst := range r.Bursts {
			fmt.Printf("%-40s %6d %6d %s\n", r.File, n, len(burst.Samples), classify(r.MatchesCRC, r.Plausible))
		}

		for _, body := range r.MatchesCRC {
			f, ok := frame.Parse(body)
			if !ok {
				continue
			}
			pktPath := filepath.Join(config.dir, fmt.Sprintf("%s.%04x.pkt", r.File, f.Request))
			if err := os.WriteFile(pktPath, f.Payload, 0o644); err != nil {
				log.Printf("%s: writing payload: %v", r.File, err)
			}
		}
	}
}

// classify summarises a single file's decode outcome the way the original
// tooling distinguished a clean single-frame capture ("perfect") from one
// with competing candidates ("ambiguous") or nothing recognisable.
func classify(matchesCRC, plausible [][]byte) string {
	perfect := 0
	for _, body := range matchesCRC {
		if _, ok := frame.Parse(body); ok {
			perfect++
		}
	}
	switch {
	case perfect == 1:
		return "perfect"
	case perfect > 1:
		return "ambiguous"
	case len(plausible) > 0:
		return "plausible"
	default:
		return "none"
	}
}

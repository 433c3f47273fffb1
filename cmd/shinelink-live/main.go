// Command shinelink-live connects to a running rtl_tcp instance and feeds
// its raw sample stream through the same squelch/decode pipeline the
// file-based commands use, printing frames as they're recognised.
//
// It exists to demonstrate that sample ingestion is swappable: nothing in
// squelch or decode cares whether its iq.Source is backed by a file or a
// live radio.
package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"

	"github.com/bemasher/rtltcp"

	"github.com/FauxFaux/shinelink/decode"
	"github.com/FauxFaux/shinelink/iq"
	"github.com/FauxFaux/shinelink/squelch"
)

var config Config

type Config struct {
	serverAddr  string
	logFilename string
	sampleRate  uint
	deviation   uint
	centerFreq  uint

	Decimation int
	Shift      float64

	ServerAddr *net.TCPAddr
	LogFile    *os.File
}

func (c *Config) Parse() (err error) {
	flag.StringVar(&c.serverAddr, "server", "127.0.0.1:1234", "address or hostname of rtl_tcp instance")
	flag.StringVar(&c.logFilename, "logfile", "/dev/stdout", "log statement dump file")
	flag.UintVar(&c.sampleRate, "samplerate", 2_880_000, "raw IQ sample rate to request from rtl_tcp, Hz")
	flag.UintVar(&c.deviation, "deviation", 60_000, "FM deviation, Hz")
	flag.UintVar(&c.centerFreq, "centerfreq", 433_920_000, "centre frequency to tune rtl_tcp to")
	flag.IntVar(&c.Decimation, "decimation", 16, "demodulated samples averaged per observation")
	flag.Float64Var(&c.Shift, "shift", 476_000, "frequency shift applied before demodulation, Hz")
	flag.Parse()

	c.ServerAddr, err = net.ResolveTCPAddr("tcp", c.serverAddr)
	if err != nil {
		return err
	}

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

	var sdr rtltcp.SDR
	if err := sdr.Connect(config.ServerAddr); err != nil {
		log.Fatal(err)
	}
	defer sdr.Close()

	log.Println("GainCount:", sdr.Info.GainCount)

	sdr.SetSampleRate(uint32(config.sampleRate))
	sdr.SetCenterFreq(uint32(config.centerFreq))
	sdr.SetOffsetTuning(true)
	sdr.SetGainMode(true)

	// The rtl_tcp wire format is the same interleaved unsigned 8-bit I/Q
	// pairs as a .cu8 capture file, so it feeds directly into iq.Source.
	// squelch.Squelch processes one finite capture at a time, so a live
	// feed is chopped into fixed-size windows and run through the
	// pipeline window by window rather than trying to squelch an
	// unbounded stream.
	const windowSeconds = 2
	windowSamples := int(config.sampleRate) * windowSeconds

	raw := iq.NewCU8Source(&sdr)
	window := 0
	for {
		src := &limitedSource{Source: raw, remaining: windowSamples}
		bursts, err := squelch.Squelch(src, cfg)
		if err != nil {
			log.Fatal(err)
		}

		for n, burst := range bursts {
			matchesCRC, plausible := decode.Decode(burst.Samples, edgeLength)
			for _, cand := range matchesCRC {
				fmt.Printf("window %d burst %d: match: %q\n", window, n, cand)
			}
			if len(matchesCRC) == 0 {
				for _, cand := range plausible {
					fmt.Printf("window %d burst %d: plausible: %q\n", window, n, cand)
				}
			}
		}
		window++
	}
}

// limitedSource wraps an iq.Source and reports a clean end of stream after
// a fixed number of samples, turning an unbounded live feed into the
// finite captures squelch.Squelch expects.
type limitedSource struct {
	iq.Source
	remaining int
}

func (l *limitedSource) Next() (complex64, bool, error) {
	if l.remaining <= 0 {
		return 0, false, nil
	}
	l.remaining--
	return l.Source.Next()
}

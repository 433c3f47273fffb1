// Command shinelink-decode runs the full recovery pipeline over a single
// .cu8 capture and prints whatever candidate frame bodies it finds.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/FauxFaux/shinelink/decode"
	"github.com/FauxFaux/shinelink/iq"
	"github.com/FauxFaux/shinelink/squelch"
)

var config Config

type Config struct {
	file        string
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
		return fmt.Errorf("usage: shinelink-decode [flags] <file.cu8>")
	}
	c.file = flag.Arg(0)

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

func (c *Config) SampleRate() uint32 { return uint32(c.sampleRate) }
func (c *Config) Deviation() uint32  { return uint32(c.deviation) }

func main() {
	if err := config.Parse(); err != nil {
		log.Fatal(err)
	}

	f, err := os.Open(config.file)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	cfg, err := squelch.NewConfig(config.Decimation, config.SampleRate(), config.Deviation(), config.Shift)
	if err != nil {
		log.Fatal(err)
	}

	bursts, err := squelch.Squelch(iq.NewCU8Source(f), cfg)
	if err != nil {
		log.Fatal(err)
	}

	// 100us transitions, scaled to the decimated observation rate.
	edgeLength := float32(config.SampleRate()) / float32(config.Decimation) / (1_000_000 / 100)

	any := false
	for _, burst := range bursts {
		matchesCRC, plausible := decode.Decode(burst.Samples, edgeLength)
		if len(matchesCRC) > 0 {
			any = true
			for _, cand := range matchesCRC {
				fmt.Printf("match: %q // %s\n", cand, hex.EncodeToString(cand))
			}
			continue
		}
		for _, cand := range plausible {
			fmt.Printf("no match: %q // %s\n", cand, hex.EncodeToString(cand))
		}
	}

	if !any {
		log.Printf("no CRC-validated frame found in %d burst(s)", len(bursts))
	}
}

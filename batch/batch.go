// Package batch runs the full capture-to-frame-candidate pipeline over
// every capture in a directory, concurrently.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/FauxFaux/shinelink/decode"
	"github.com/FauxFaux/shinelink/iq"
	"github.com/FauxFaux/shinelink/squelch"
)

// Result is one capture file's worth of squelched bursts and decode
// output. A file with no bursts (pure noise, or below the squelch
// threshold throughout) still appears with an empty Bursts slice.
type Result struct {
	File       string
	Bursts     []squelch.Burst
	MatchesCRC [][]byte
	Plausible  [][]byte
}

// ProcessDir walks dir for *.cu8 captures and runs ShiftDemodDecimate,
// Squelch and Decode on each, one file per worker, bounded by
// runtime.GOMAXPROCS(0). Workers share no mutable state; a worker's I/O
// error cancels the remaining work via ctx and is returned to the caller.
// Workers finish in arbitrary order; the returned slice is sorted by file
// name.
func ProcessDir(ctx context.Context, dir string, cfg squelch.Config, edgeLength float32) ([]Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".cu8") {
			continue
		}
		files = append(files, e.Name())
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.GOMAXPROCS(0))

	var mu sync.Mutex
	results := make([]Result, 0, len(files))

	for _, name := range files {
		name := name
		group.Go(func() error {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			default:
			}

			r, err := processFile(filepath.Join(dir, name), cfg, edgeLength)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			r.File = name

			mu.Lock()
			results = append(results, r)
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].File < results[j].File })
	return results, nil
}

func processFile(path string, cfg squelch.Config, edgeLength float32) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	src := iq.NewCU8Source(f)
	bursts, err := squelch.Squelch(src, cfg)
	if err != nil {
		return Result{}, err
	}

	var matchesCRC, plausible [][]byte
	for _, burst := range bursts {
		// A burst either holds one clean frame or nothing, so the lazy
		// sweep can stop as soon as it finds a recognised-length match
		// instead of enumerating the whole clock/offset space.
		crc, plaus := decode.DecodeFast(burst.Samples, edgeLength, true)
		matchesCRC = append(matchesCRC, crc...)
		plausible = append(plausible, plaus...)
	}

	return Result{Bursts: bursts, MatchesCRC: matchesCRC, Plausible: plausible}, nil
}

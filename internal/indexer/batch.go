// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package indexer

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/blinklabs-io/powcore/internal/logging"
	"github.com/blinklabs-io/powcore/pow"
	"golang.org/x/sync/errgroup"
)

// ImportStats summarizes a header import
type ImportStats struct {
	Accepted   int
	Duplicates int
}

// CheckBatch runs the proof checks that do not depend on chain state for a
// batch of headers in parallel
func (i *Indexer) CheckBatch(ctx context.Context, headers []*pow.BlockHeader) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(i.workers)
	for idx, header := range headers {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			if err := i.checkProof(header, header.Hash()); err != nil {
				return fmt.Errorf("batch header %d: %w", idx, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// ImportHeaders reads hex encoded headers, one per line, and connects them in
// order. Blank lines and lines starting with '#' are skipped. Headers that are
// already stored are counted and skipped.
func (i *Indexer) ImportHeaders(ctx context.Context, r io.Reader) (ImportStats, error) {
	logger := logging.GetLogger()
	var stats ImportStats
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 2*pow.MaxHeaderSize+2)
	batch := make([]*pow.BlockHeader, 0, i.batchSize)
	lineNum := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := i.CheckBatch(ctx, batch); err != nil {
			return err
		}
		for _, header := range batch {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := i.acceptHeader(header, true)
			if err != nil {
				if errors.Is(err, ErrDuplicateHeader) {
					stats.Duplicates++
					continue
				}
				return err
			}
			stats.Accepted++
		}
		logger.Debugf("imported batch of %d headers, %d accepted so far", len(batch), stats.Accepted)
		batch = batch[:0]
		return nil
	}
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		data, err := hex.DecodeString(line)
		if err != nil {
			return stats, fmt.Errorf("line %d: %w", lineNum, err)
		}
		header, err := pow.NewBlockHeaderFromBytes(data)
		if err != nil {
			return stats, fmt.Errorf("line %d: %w", lineNum, err)
		}
		batch = append(batch, header)
		if len(batch) >= i.batchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("read headers: %w", err)
	}
	if err := flush(); err != nil {
		return stats, err
	}
	return stats, nil
}

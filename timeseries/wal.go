// Copyright 2026 The Pulsewatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package timeseries

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pulsewatch/pulsewatch/pulseerr"
)

// walRecord is one write appended to the log: a series id plus the
// point written against it.
type walRecord struct {
	SeriesID string
	Point    Point
}

// walWriter appends records to a single append-only log file so an
// unflushed memtable can be replayed after a crash. It buffers writes
// through a bufio.Writer and only calls File.Sync when the engine is
// configured for sync_writes; otherwise durability is "as good as the
// OS page cache" between periodic flushes, matching the original's
// sync_writes toggle.
type walWriter struct {
	mu   sync.Mutex
	file *os.File
	w    *bufio.Writer
	sync bool
}

func newWALWriter(dir string, sync bool, bufferBytes int) (*walWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, pulseerr.Wrap(pulseerr.StorageWriteFailed, "timeseries.newWALWriter", err)
	}
	path := filepath.Join(dir, "wal.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, pulseerr.Wrap(pulseerr.StorageWriteFailed, "timeseries.newWALWriter", err)
	}
	if bufferBytes <= 0 {
		bufferBytes = 1 << 16
	}
	return &walWriter{file: f, w: bufio.NewWriterSize(f, bufferBytes), sync: sync}, nil
}

// Append writes one record. Its on-disk shape is a length-prefixed
// frame so replayWAL can stop cleanly at a partial trailing write left
// by a crash mid-append.
func (w *walWriter) Append(rec walRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	payload, _, _, _, _, _ := encodeSeries(map[string][]Point{rec.SeriesID: {rec.Point}})
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.w.Write(lenBuf[:]); err != nil {
		return pulseerr.Wrap(pulseerr.StorageWriteFailed, "timeseries.walWriter.Append", err)
	}
	if _, err := w.w.Write(payload); err != nil {
		return pulseerr.Wrap(pulseerr.StorageWriteFailed, "timeseries.walWriter.Append", err)
	}
	if err := w.w.Flush(); err != nil {
		return pulseerr.Wrap(pulseerr.StorageWriteFailed, "timeseries.walWriter.Append", err)
	}
	if w.sync {
		if err := w.file.Sync(); err != nil {
			return pulseerr.Wrap(pulseerr.StorageWriteFailed, "timeseries.walWriter.Append", err)
		}
	}
	return nil
}

// Truncate discards the log, called once its contents have been
// durably flushed into an SSTable and are no longer needed for replay.
func (w *walWriter) Truncate() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.file.Truncate(0); err != nil {
		return pulseerr.Wrap(pulseerr.StorageWriteFailed, "timeseries.walWriter.Truncate", err)
	}
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return pulseerr.Wrap(pulseerr.StorageWriteFailed, "timeseries.walWriter.Truncate", err)
	}
	return nil
}

func (w *walWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.w.Flush(); err != nil {
		return pulseerr.Wrap(pulseerr.StorageWriteFailed, "timeseries.walWriter.Close", err)
	}
	return w.file.Close()
}

// replayWAL reads every record back out of dir's log file, in append
// order, stopping silently at the first truncated trailing frame
// (the signature of a crash mid-write).
func replayWAL(dir string) ([]walRecord, error) {
	path := filepath.Join(dir, "wal.log")
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, pulseerr.Wrap(pulseerr.StorageReadFailed, "timeseries.replayWAL", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var records []walRecord
	for {
		var lenBuf [4]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			break
		}
		n := binary.BigEndian.Uint32(lenBuf[:])
		payload := make([]byte, n)
		if _, err := io.ReadFull(r, payload); err != nil {
			break
		}
		decoded, err := decodeSeries(payload)
		if err != nil {
			break
		}
		for seriesID, points := range decoded {
			for _, p := range points {
				records = append(records, walRecord{SeriesID: seriesID, Point: p})
			}
		}
	}
	return records, nil
}

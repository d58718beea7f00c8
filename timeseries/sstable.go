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
	"math"
	"os"
	"sort"
	"time"

	"github.com/pulsewatch/pulsewatch/pulseerr"
)

// SSTable describes one immutable, sorted, compressed file flushed
// from a memtable. Its fields are metadata only; reading the points
// back out always goes through readSSTableFile.
type SSTable struct {
	FilePath       string
	Level          int
	MinKey         string
	MaxKey         string
	MinTimestamp   int64
	MaxTimestamp   int64
	FileSizeBytes  int64
	NumEntries     int
	CreatedAt      time.Time
}

// writeSSTableFile encodes the memtable's series into a single
// compressed block and writes it to path:
//
//	[4 bytes magic]["PWTS"]
//	[1 byte codec id]
//	[4 bytes uncompressed payload length]
//	[compressed payload]
//
// The payload itself is a simple length-prefixed record stream:
// series id, point count, then each point's timestamp/value/tag map.
// It is not meant to be a general-purpose format — only this package
// ever reads it back.
func writeSSTableFile(path string, series map[string][]Point, codec Codec, level int, now time.Time) (*SSTable, error) {
	payload, minKey, maxKey, minTS, maxTS, numEntries := encodeSeries(series)

	compressed, err := codec.Compress(payload)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, pulseerr.Wrap(pulseerr.StorageWriteFailed, "timeseries.writeSSTableFile", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.WriteString("PWTS"); err != nil {
		return nil, pulseerr.Wrap(pulseerr.StorageWriteFailed, "timeseries.writeSSTableFile", err)
	}
	if err := w.WriteByte(codecID(codec)); err != nil {
		return nil, pulseerr.Wrap(pulseerr.StorageWriteFailed, "timeseries.writeSSTableFile", err)
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return nil, pulseerr.Wrap(pulseerr.StorageWriteFailed, "timeseries.writeSSTableFile", err)
	}
	if _, err := w.Write(compressed); err != nil {
		return nil, pulseerr.Wrap(pulseerr.StorageWriteFailed, "timeseries.writeSSTableFile", err)
	}
	if err := w.Flush(); err != nil {
		return nil, pulseerr.Wrap(pulseerr.StorageWriteFailed, "timeseries.writeSSTableFile", err)
	}

	info, err := f.Stat()
	if err != nil {
		return nil, pulseerr.Wrap(pulseerr.StorageWriteFailed, "timeseries.writeSSTableFile", err)
	}

	return &SSTable{
		FilePath:      path,
		Level:         level,
		MinKey:        minKey,
		MaxKey:        maxKey,
		MinTimestamp:  minTS,
		MaxTimestamp:  maxTS,
		FileSizeBytes: info.Size(),
		NumEntries:    numEntries,
		CreatedAt:     now,
	}, nil
}

// readSSTableFile decodes every series back out of an SSTable file.
func readSSTableFile(sst *SSTable) (map[string][]Point, error) {
	f, err := os.Open(sst.FilePath)
	if err != nil {
		return nil, pulseerr.Wrap(pulseerr.StorageReadFailed, "timeseries.readSSTableFile", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, pulseerr.Wrap(pulseerr.StorageReadFailed, "timeseries.readSSTableFile", err)
	}
	if string(magic) != "PWTS" {
		return nil, pulseerr.New(pulseerr.ParseError, "timeseries.readSSTableFile", "bad sstable magic")
	}
	codecIDByte, err := r.ReadByte()
	if err != nil {
		return nil, pulseerr.Wrap(pulseerr.StorageReadFailed, "timeseries.readSSTableFile", err)
	}
	codec, err := codecForID(codecIDByte)
	if err != nil {
		return nil, err
	}
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, pulseerr.Wrap(pulseerr.StorageReadFailed, "timeseries.readSSTableFile", err)
	}
	uncompressedLen := binary.BigEndian.Uint32(lenBuf[:])

	compressed, err := io.ReadAll(r)
	if err != nil {
		return nil, pulseerr.Wrap(pulseerr.StorageReadFailed, "timeseries.readSSTableFile", err)
	}
	payload, err := codec.Decompress(compressed)
	if err != nil {
		return nil, err
	}
	if uint32(len(payload)) != uncompressedLen {
		return nil, pulseerr.New(pulseerr.ParseError, "timeseries.readSSTableFile", "sstable payload length mismatch")
	}

	return decodeSeries(payload)
}

func encodeSeries(series map[string][]Point) (payload []byte, minKey, maxKey string, minTS, maxTS int64, numEntries int) {
	ids := make([]string, 0, len(series))
	for id := range series {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var buf []byte
	putUint32 := func(v uint32) {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], v)
		buf = append(buf, b[:]...)
	}
	putInt64 := func(v int64) {
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(v))
		buf = append(buf, b[:]...)
	}
	putFloat64 := func(v float64) {
		putInt64(int64(math.Float64bits(v)))
	}
	putString := func(s string) {
		putUint32(uint32(len(s)))
		buf = append(buf, s...)
	}

	minTS, maxTS = int64(1)<<62, -(int64(1) << 62)

	putUint32(uint32(len(ids)))
	for _, id := range ids {
		if minKey == "" || id < minKey {
			minKey = id
		}
		if id > maxKey {
			maxKey = id
		}
		points := series[id]
		putString(id)
		putUint32(uint32(len(points)))
		for _, p := range points {
			putInt64(p.TimestampMicros)
			putFloat64(p.Value)
			if p.TimestampMicros < minTS {
				minTS = p.TimestampMicros
			}
			if p.TimestampMicros > maxTS {
				maxTS = p.TimestampMicros
			}
			putUint32(uint32(len(p.Tags)))
			for k, v := range p.Tags {
				putString(k)
				putString(v)
			}
		}
		numEntries += len(points)
	}
	return buf, minKey, maxKey, minTS, maxTS, numEntries
}

func decodeSeries(payload []byte) (map[string][]Point, error) {
	r := &byteCursor{data: payload}
	numSeries, err := r.uint32()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]Point, numSeries)
	for i := uint32(0); i < numSeries; i++ {
		id, err := r.string()
		if err != nil {
			return nil, err
		}
		numPoints, err := r.uint32()
		if err != nil {
			return nil, err
		}
		points := make([]Point, 0, numPoints)
		for j := uint32(0); j < numPoints; j++ {
			ts, err := r.int64()
			if err != nil {
				return nil, err
			}
			val, err := r.float64()
			if err != nil {
				return nil, err
			}
			numTags, err := r.uint32()
			if err != nil {
				return nil, err
			}
			var tags map[string]string
			if numTags > 0 {
				tags = make(map[string]string, numTags)
				for k := uint32(0); k < numTags; k++ {
					key, err := r.string()
					if err != nil {
						return nil, err
					}
					val, err := r.string()
					if err != nil {
						return nil, err
					}
					tags[key] = val
				}
			}
			points = append(points, Point{TimestampMicros: ts, Value: val, Tags: tags})
		}
		out[id] = points
	}
	return out, nil
}

// byteCursor reads the fixed-width encoding encodeSeries produces.
type byteCursor struct {
	data []byte
	pos  int
}

func (c *byteCursor) uint32() (uint32, error) {
	if c.pos+4 > len(c.data) {
		return 0, pulseerr.New(pulseerr.ParseError, "timeseries.byteCursor.uint32", "truncated sstable payload")
	}
	v := binary.BigEndian.Uint32(c.data[c.pos : c.pos+4])
	c.pos += 4
	return v, nil
}

func (c *byteCursor) int64() (int64, error) {
	if c.pos+8 > len(c.data) {
		return 0, pulseerr.New(pulseerr.ParseError, "timeseries.byteCursor.int64", "truncated sstable payload")
	}
	v := int64(binary.BigEndian.Uint64(c.data[c.pos : c.pos+8]))
	c.pos += 8
	return v, nil
}

func (c *byteCursor) float64() (float64, error) {
	bits, err := c.int64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(bits)), nil
}

func (c *byteCursor) string() (string, error) {
	n, err := c.uint32()
	if err != nil {
		return "", err
	}
	if c.pos+int(n) > len(c.data) {
		return "", pulseerr.New(pulseerr.ParseError, "timeseries.byteCursor.string", "truncated sstable payload")
	}
	s := string(c.data[c.pos : c.pos+int(n)])
	c.pos += int(n)
	return s, nil
}

func codecID(c Codec) byte {
	switch c.Name() {
	case "lz4":
		return 1
	case "gzip":
		return 2
	default:
		return 0
	}
}

func codecForID(id byte) (Codec, error) {
	switch id {
	case 0:
		return noneCodec{}, nil
	case 1:
		return lz4Codec{}, nil
	case 2:
		return gzipCodec{}, nil
	default:
		return nil, pulseerr.Newf(pulseerr.ParseError, "timeseries.codecForID", "unknown codec id %d", id)
	}
}

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
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/tidwall/buntdb"

	"github.com/pulsewatch/pulsewatch/pulseerr"
)

// manifest durably records which SSTable files exist at which level,
// so a restart can rebuild levels_ without rescanning the data
// directory. It is backed by an embedded buntdb database rather than
// a hand-rolled append log, since buntdb already gives atomic,
// crash-safe key/value persistence with a synchronous-commit option.
type manifest struct {
	mu sync.Mutex
	db *buntdb.DB
}

const manifestFile = "MANIFEST"

func openManifest(dataDir string) (*manifest, error) {
	path := filepath.Join(dataDir, manifestFile)
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, pulseerr.Wrap(pulseerr.StorageWriteFailed, "timeseries.openManifest", err)
	}
	return &manifest{db: db}, nil
}

func (m *manifest) Close() error {
	return m.db.Close()
}

// Record persists one SSTable's metadata, keyed by its file path.
func (m *manifest) Record(sst *SSTable) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	encoded, err := json.Marshal(sst)
	if err != nil {
		return pulseerr.Wrap(pulseerr.StorageWriteFailed, "timeseries.manifest.Record", err)
	}
	err = m.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(manifestKey(sst.FilePath), string(encoded), nil)
		return err
	})
	if err != nil {
		return pulseerr.Wrap(pulseerr.StorageWriteFailed, "timeseries.manifest.Record", err)
	}
	return nil
}

// Remove deletes a file's metadata entry, called once a compaction has
// superseded it.
func (m *manifest) Remove(filePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(manifestKey(filePath))
		if err == buntdb.ErrNotFound {
			return nil
		}
		return err
	})
	if err != nil {
		return pulseerr.Wrap(pulseerr.StorageWriteFailed, "timeseries.manifest.Remove", err)
	}
	return nil
}

// LoadLevels rebuilds the level slices from whatever is currently
// recorded, sorted by level then by min timestamp.
func (m *manifest) LoadLevels() ([][]SSTable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var entries []SSTable
	err := m.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend("", func(key, value string) bool {
			var sst SSTable
			if err := json.Unmarshal([]byte(value), &sst); err != nil {
				return true
			}
			entries = append(entries, sst)
			return true
		})
	})
	if err != nil {
		return nil, pulseerr.Wrap(pulseerr.StorageReadFailed, "timeseries.manifest.LoadLevels", err)
	}

	maxLevel := 0
	for _, e := range entries {
		if e.Level > maxLevel {
			maxLevel = e.Level
		}
	}
	levels := make([][]SSTable, maxLevel+1)
	for _, e := range entries {
		levels[e.Level] = append(levels[e.Level], e)
	}
	for _, lvl := range levels {
		sort.Slice(lvl, func(i, j int) bool { return lvl[i].MinTimestamp < lvl[j].MinTimestamp })
	}
	return levels, nil
}

func manifestKey(filePath string) string {
	return fmt.Sprintf("sstable:%s", filePath)
}

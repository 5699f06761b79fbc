// Package watchlist persists the user's tracked tickers as a JSON array in a
// single file. One store instance owns the file; every caller goes through it
// rather than re-reading the raw persisted state.
package watchlist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"creditflow/internal/model"
	"creditflow/logger"
)

// Store is a mutex-guarded, file-backed ticker set that preserves insertion
// order. Writes go to a temp file in the same directory and are renamed into
// place so a crash never leaves a half-written list.
type Store struct {
	mu      sync.Mutex
	path    string
	tickers []string
	log     *logger.Log
}

// Open loads the watchlist from path, creating an empty store when the file
// does not exist yet. A corrupt file is an error; it is not silently
// truncated.
func Open(path string) (*Store, error) {
	s := &Store{path: path, log: logger.GetLogger()}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read watchlist %s: %w", path, err)
	}

	var tickers []string
	if err := json.Unmarshal(data, &tickers); err != nil {
		return nil, fmt.Errorf("parse watchlist %s: %w", path, err)
	}
	s.tickers = dedupe(tickers)
	return s, nil
}

// persist writes the current list under the held mutex.
func (s *Store) persist() error {
	data, err := json.Marshal(s.tickers)
	if err != nil {
		return fmt.Errorf("encode watchlist: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create watchlist dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".watchlist-*")
	if err != nil {
		return fmt.Errorf("create temp watchlist: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp watchlist: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp watchlist: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace watchlist: %w", err)
	}
	return nil
}

func (s *Store) indexOf(ticker string) int {
	for i, t := range s.tickers {
		if t == ticker {
			return i
		}
	}
	return -1
}

// Add inserts a ticker at the end of the list if absent.
func (s *Store) Add(ticker string) error {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return fmt.Errorf("empty ticker")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(ticker) >= 0 {
		return nil
	}
	s.tickers = append(s.tickers, ticker)
	return s.persist()
}

// Remove deletes a ticker; removing an absent ticker is a no-op.
func (s *Store) Remove(ticker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(strings.TrimSpace(ticker))
	if i < 0 {
		return nil
	}
	s.tickers = append(s.tickers[:i], s.tickers[i+1:]...)
	return s.persist()
}

// Toggle flips a ticker's membership and reports whether the ticker is in the
// list after the call.
func (s *Store) Toggle(ticker string) (bool, error) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return false, fmt.Errorf("empty ticker")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(ticker); i >= 0 {
		s.tickers = append(s.tickers[:i], s.tickers[i+1:]...)
		return false, s.persist()
	}
	s.tickers = append(s.tickers, ticker)
	return true, s.persist()
}

func (s *Store) Contains(ticker string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(strings.TrimSpace(ticker)) >= 0
}

// List returns a copy of the tickers in insertion order.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.tickers))
	copy(out, s.tickers)
	return out
}

// Import merges line-delimited ticker text into the list: entries are
// trimmed, a leading "ticker" header line is skipped, blanks are dropped and
// the result is the union with existing entries in first-seen order. It
// returns the number of tickers actually added.
func (s *Store) Import(text string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	first := true
	for _, line := range strings.Split(text, "\n") {
		t := strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if t == "" {
			continue
		}
		if first {
			first = false
			if strings.EqualFold(t, "ticker") {
				continue
			}
		}
		if s.indexOf(t) >= 0 {
			continue
		}
		s.tickers = append(s.tickers, t)
		added++
	}
	if added == 0 {
		return 0, nil
	}
	s.log.WithComponent("watchlist").WithFields(logger.Fields{
		"added": added,
		"total": len(s.tickers),
	}).Info("imported tickers")
	return added, s.persist()
}

// ExportCSV renders the list as a one-column CSV with a "ticker" header.
func (s *Store) ExportCSV() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	b.WriteString("ticker\n")
	for _, t := range s.tickers {
		b.WriteString(t)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// ResolvedEntry joins one watchlist ticker against the asset master. A ticker
// absent from the master stays listed with Resolved false.
type ResolvedEntry struct {
	Ticker   string      `json:"ticker"`
	Resolved bool        `json:"resolved"`
	Asset    model.Asset `json:"asset,omitempty"`
}

// Resolve joins the list against a snapshot's asset master.
func (s *Store) Resolve(snap *model.Snapshot) []ResolvedEntry {
	tickers := s.List()
	out := make([]ResolvedEntry, len(tickers))
	for i, t := range tickers {
		out[i] = ResolvedEntry{Ticker: t}
		if snap == nil {
			continue
		}
		if a, ok := snap.AssetByTicker(t); ok {
			out[i].Resolved = true
			out[i].Asset = a
		}
	}
	return out
}

func dedupe(tickers []string) []string {
	seen := make(map[string]struct{}, len(tickers))
	out := tickers[:0]
	for _, t := range tickers {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

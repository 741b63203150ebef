package profile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/beevik/etree"
	"github.com/dshills/inputmap/internal/action"
	"github.com/dshills/inputmap/internal/logging"
	"github.com/dshills/inputmap/internal/upgrade"
)

// FileExt is the extension of profile documents.
const FileExt = ".xml"

// Loaded is the outcome of Store.Load.
type Loaded struct {
	Profile *Profile

	// Upgrades lists the checkpoints applied. Empty when the file was
	// already current.
	Upgrades []upgrade.Result

	// Report is what validation healed.
	Report Report
}

// Store reads and writes profile documents. Reading upgrades older
// documents and validates the result.
type Store struct {
	upgrader *upgrade.Upgrader
	logger   *logging.Logger

	// Backup keeps the pre-upgrade file as <path>.bak on the first save
	// after an upgrading load.
	Backup bool

	mu       sync.Mutex
	upgraded map[string]bool
}

// NewStore creates a store. A nil upgrader rejects documents older than
// the current schema.
func NewStore(u *upgrade.Upgrader, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Store{
		upgrader: u,
		logger:   logger.WithComponent("profile"),
		upgraded: make(map[string]bool),
	}
}

// Load reads, upgrades and validates a profile document.
func (s *Store) Load(path string) (*Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	loaded, err := s.Decode(data)
	if err != nil {
		var de *DocumentError
		if errors.As(err, &de) {
			de.Path = path
		}
		return nil, err
	}
	if len(loaded.Upgrades) > 0 {
		s.mu.Lock()
		s.upgraded[filepath.Clean(path)] = true
		s.mu.Unlock()
	}
	s.logger.WithField("path", path).Info("loaded profile %q: %d action lists", loaded.Profile.Name, loaded.Report.NumberedLists)
	return loaded, nil
}

// Decode parses, upgrades and validates a profile document.
func (s *Store) Decode(data []byte) (*Loaded, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, &DocumentError{Element: "/", Err: err}
	}

	var loaded Loaded
	needs, err := upgrade.NeedsUpgrade(doc)
	if err != nil {
		return nil, &DocumentError{Element: "/", Err: err}
	}
	if needs {
		if s.upgrader == nil {
			v, _ := upgrade.DocumentVersion(doc)
			return nil, &DocumentError{Element: "/profile", Err: fmt.Errorf("schema version %q is not current", v)}
		}
		if doc, loaded.Upgrades, err = s.upgrader.Upgrade(doc); err != nil {
			return nil, err
		}
	}

	p, err := FromDocument(doc)
	if err != nil {
		return nil, err
	}
	p.EachActionList(func(l *action.ActionList) {
		if err := l.Event.Overflow(); err != nil {
			s.logger.Warn("action list %s: %v", l.State, err)
		}
	})

	loaded.Profile = p
	loaded.Report = p.Validate()
	if loaded.Report.Changed() {
		s.logger.Warn("healed dangling references: %s", loaded.Report)
	}
	return &loaded, nil
}

// Encode serializes a profile document.
func (s *Store) Encode(p *Profile) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := p.ToDocument().WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encoding profile: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes a profile atomically using a temporary file and rename.
func (s *Store) Save(path string, p *Profile) error {
	data, err := s.Encode(p)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating profile directory: %w", err)
	}

	clean := filepath.Clean(path)
	s.mu.Lock()
	backup := s.Backup && s.upgraded[clean]
	delete(s.upgraded, clean)
	s.mu.Unlock()
	if backup {
		if err := copyFile(path, path+".bak"); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("backing up profile: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing profile: %w", err)
	}
	s.logger.WithField("path", path).Debug("saved profile %q", p.Name)
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

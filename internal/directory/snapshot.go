package directory

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-authgate/dirgate/internal/models"

	"gopkg.in/yaml.v3"
)

// Snapshot formats, chosen by file extension.
const (
	FormatXML  = "xml"
	FormatYAML = "yaml"
)

var (
	ErrUnknownSnapshotFormat = errors.New("unknown snapshot format")
	ErrInvalidSnapshot       = errors.New("invalid snapshot")
)

// Snapshot is the complete persisted state of a local directory. Users keep
// insertion order. Groups lists explicitly created groups; groups referenced
// only by users are not repeated here.
type Snapshot struct {
	XMLName xml.Name       `xml:"directory" yaml:"-"`
	Users   []SnapshotUser `xml:"users>user" yaml:"users"`
	Groups  []string       `xml:"groups>group" yaml:"groups,omitempty"`
}

// SnapshotUser is one user entry. A missing enabled element means enabled.
type SnapshotUser struct {
	Username    string   `xml:"username,attr" yaml:"username"`
	Password    string   `xml:"password,omitempty" yaml:"password,omitempty"`
	Enabled     *bool    `xml:"enabled,omitempty" yaml:"enabled,omitempty"`
	DisplayName string   `xml:"displayName,omitempty" yaml:"display_name,omitempty"`
	Email       string   `xml:"email,omitempty" yaml:"email,omitempty"`
	Groups      []string `xml:"groups>group,omitempty" yaml:"groups,omitempty"`
}

// NewSnapshotUser converts a user record into its persisted form.
func NewSnapshotUser(u *models.User) SnapshotUser {
	enabled := u.Enabled
	return SnapshotUser{
		Username:    u.Username,
		Password:    u.Password,
		Enabled:     &enabled,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Groups:      slices.Clone(u.Groups),
	}
}

// User returns the entry as a user record.
func (s *SnapshotUser) User() *models.User {
	return &models.User{
		Username:    s.Username,
		Password:    s.Password,
		Enabled:     s.enabled(),
		DisplayName: s.DisplayName,
		Email:       s.Email,
		Groups:      models.NormalizeGroups(s.Groups),
	}
}

func (s *SnapshotUser) enabled() bool {
	return s.Enabled == nil || *s.Enabled
}

func (s *SnapshotUser) clone() SnapshotUser {
	c := *s
	if s.Enabled != nil {
		v := *s.Enabled
		c.Enabled = &v
	}
	c.Groups = slices.Clone(s.Groups)
	return c
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		Users:  make([]SnapshotUser, len(s.Users)),
		Groups: slices.Clone(s.Groups),
	}
	for i := range s.Users {
		c.Users[i] = s.Users[i].clone()
	}
	return c
}

// Equal compares the logical content: user order and fields, each user's
// membership, and the set of explicit groups. Encoding details are ignored.
func (s *Snapshot) Equal(o *Snapshot) bool {
	if s == nil || o == nil {
		return s == o
	}
	if len(s.Users) != len(o.Users) {
		return false
	}
	for i := range s.Users {
		a, b := s.Users[i].User(), o.Users[i].User()
		if a.Username != b.Username ||
			a.Password != b.Password ||
			a.Enabled != b.Enabled ||
			a.DisplayName != b.DisplayName ||
			a.Email != b.Email ||
			!slices.Equal(a.Groups, b.Groups) {
			return false
		}
	}
	ga, gb := models.NormalizeGroups(s.Groups), models.NormalizeGroups(o.Groups)
	slices.Sort(ga)
	slices.Sort(gb)
	return slices.Equal(ga, gb)
}

// Validate rejects empty or duplicate usernames.
func (s *Snapshot) Validate() error {
	seen := make(map[string]struct{}, len(s.Users))
	for i, u := range s.Users {
		if strings.TrimSpace(u.Username) == "" {
			return fmt.Errorf("%w: user #%d has no username", ErrInvalidSnapshot, i+1)
		}
		if _, dup := seen[u.Username]; dup {
			return fmt.Errorf("%w: duplicate username %q", ErrInvalidSnapshot, u.Username)
		}
		seen[u.Username] = struct{}{}
	}
	return nil
}

// normalize trims and dedupes every stored group name in place so that
// lookups and listings agree on one spelling.
func (s *Snapshot) normalize() {
	if s.Groups != nil {
		s.Groups = models.NormalizeGroups(s.Groups)
	}
	for i := range s.Users {
		if s.Users[i].Groups != nil {
			s.Users[i].Groups = models.NormalizeGroups(s.Users[i].Groups)
		}
	}
}

// SnapshotStore persists whole snapshots.
type SnapshotStore interface {
	// Load returns the stored snapshot, or an empty one when nothing is stored yet.
	Load() (*Snapshot, error)
	// Save replaces the stored snapshot. A failed Save leaves the previous one intact.
	Save(s *Snapshot) error
}

// FileSnapshotStore keeps the snapshot in a single XML or YAML file.
type FileSnapshotStore struct {
	path   string
	format string
}

// NewFileSnapshotStore picks the encoding from the extension of path.
func NewFileSnapshotStore(path string) (*FileSnapshotStore, error) {
	format, err := formatFor(path)
	if err != nil {
		return nil, err
	}
	return &FileSnapshotStore{path: path, format: format}, nil
}

func formatFor(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return FormatXML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q (use .xml, .yaml or .yml)", ErrUnknownSnapshotFormat, path)
	}
}

// Path returns the snapshot file location.
func (f *FileSnapshotStore) Path() string {
	return f.path
}

// Load reads and decodes the file. A missing or empty file is an empty directory.
func (f *FileSnapshotStore) Load() (*Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return &Snapshot{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return &Snapshot{}, nil
	}

	s, err := DecodeSnapshot(f.format, data)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Save writes the snapshot atomically: temp file in the same directory,
// fsync, rename over the target.
func (f *FileSnapshotStore) Save(s *Snapshot) error {
	data, err := EncodeSnapshot(f.format, s)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// EncodeSnapshot serializes s in the given format.
func EncodeSnapshot(format string, s *Snapshot) ([]byte, error) {
	switch format {
	case FormatXML:
		out, err := xml.MarshalIndent(s, "", "  ")
		if err != nil {
			return nil, err
		}
		return append([]byte(xml.Header), append(out, '\n')...), nil
	case FormatYAML:
		return yaml.Marshal(s)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSnapshotFormat, format)
	}
}

// DecodeSnapshot parses data in the given format.
func DecodeSnapshot(format string, data []byte) (*Snapshot, error) {
	var s Snapshot
	var err error
	switch format {
	case FormatXML:
		err = xml.Unmarshal(data, &s)
	case FormatYAML:
		err = yaml.Unmarshal(data, &s)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSnapshotFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return &s, nil
}

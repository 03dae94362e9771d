package tables

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const SchemaVersion = 1

var ErrNotFound = errors.New("table not found")

// Registry is the on-disk list of lookup tables created or used by the CLI.
type Registry struct {
	SchemaVersion int     `json:"schema_version"`
	Tables        []Table `json:"tables"`
}

type Table struct {
	Name    string `json:"name"`
	Cluster string `json:"cluster,omitempty"`
	RPCURL  string `json:"rpc_url,omitempty"`

	Address   string `json:"address"`
	Authority string `json:"authority,omitempty"`
}

func Load(path string) (Registry, error) {
	var out Registry
	path = strings.TrimSpace(path)
	if path == "" {
		return Registry{}, errors.New("path required")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Registry{}, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return Registry{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}

// LoadOrEmpty is Load, except a missing file yields an empty registry.
func LoadOrEmpty(path string) (Registry, error) {
	r, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Registry{SchemaVersion: SchemaVersion}, nil
	}
	return r, err
}

func (r Registry) FindByName(name string) (Table, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Table{}, errors.New("name required")
	}
	for _, t := range r.Tables {
		if t.Name == name {
			return t, nil
		}
	}
	return Table{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Upsert replaces the entry with t's name, or appends t.
func (r *Registry) Upsert(t Table) error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return errors.New("name required")
	}
	if strings.TrimSpace(t.Address) == "" {
		return errors.New("address required")
	}
	for i := range r.Tables {
		if r.Tables[i].Name == t.Name {
			r.Tables[i] = t
			return nil
		}
	}
	r.Tables = append(r.Tables, t)
	return nil
}

// Save writes the registry atomically (temp file + rename).
func (r Registry) Save(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path required")
	}
	if r.SchemaVersion == 0 {
		r.SchemaVersion = SchemaVersion
	}
	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	raw = append(raw, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tables-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

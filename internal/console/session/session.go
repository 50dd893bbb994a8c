// Package session keeps the console's credential and current address.
package session

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	EnvStatePath = "LIBCONSOLE_STATE"
	EnvServer    = "LIBCONSOLE_SERVER"
)

// Store はトークンの保存先
type Store interface {
	Get() (string, bool)
	Set(token string) error
	Clear() error
}

// State は state.yaml の中身
type State struct {
	Server  string `yaml:"server,omitempty"`
	Token   string `yaml:"token,omitempty"`
	Address string `yaml:"address,omitempty"`
}

func DefaultPath() (string, error) {
	if p := os.Getenv(EnvStatePath); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve home directory")
	}
	return filepath.Join(home, ".libconsole", "state.yaml"), nil
}

// File は再起動しても残るスコープ
type File struct {
	mu    sync.Mutex
	path  string
	state State
}

// ファイルが無ければ空の状態から始める
func OpenFile(path string) (*File, error) {
	f := &File{path: path}
	buf, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if err := yaml.Unmarshal(buf, &f.state); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return f, nil
}

func (f *File) Get() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Token, f.state.Token != ""
}

func (f *File) Set(token string) error {
	return f.update(func(s *State) { s.Token = token })
}

func (f *File) Clear() error {
	return f.update(func(s *State) { s.Token = "" })
}

func (f *File) Address() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Address
}

func (f *File) SetAddress(addr string) error {
	return f.update(func(s *State) { s.Address = addr })
}

func (f *File) Server() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Server
}

func (f *File) SetServer(server string) error {
	return f.update(func(s *State) { s.Server = server })
}

func (f *File) update(fn func(s *State)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := f.state
	fn(&next)
	if err := write(f.path, next); err != nil {
		return err
	}
	f.state = next
	return nil
}

// 一時ファイルに書いてから rename する
func write(path string, s State) error {
	buf, err := yaml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encode state")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrap(err, "create state directory")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o600); err != nil {
		return errors.Wrap(err, "write state")
	}
	return errors.Wrap(os.Rename(tmp, path), "replace state")
}

// Memory はプロセス終了で消えるスコープ
type Memory struct {
	mu    sync.Mutex
	token string
}

func (m *Memory) Get() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.token != ""
}

func (m *Memory) Set(token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear() error { return m.Set("") }

// Scoped: 読むときは persistent 優先で最初の非空、書くときは persistent、消すときは両方
type Scoped struct {
	persistent Store
	ephemeral  Store
}

func NewScoped(persistent, ephemeral Store) *Scoped {
	return &Scoped{persistent: persistent, ephemeral: ephemeral}
}

func (s *Scoped) Get() (string, bool) {
	for _, st := range []Store{s.persistent, s.ephemeral} {
		if tok, ok := st.Get(); ok {
			return tok, true
		}
	}
	return "", false
}

func (s *Scoped) Set(token string) error { return s.persistent.Set(token) }

func (s *Scoped) Clear() error {
	err := s.persistent.Clear()
	if e := s.ephemeral.Clear(); err == nil {
		err = e
	}
	return err
}

// Package files exposes each user's file folder by stable numeric id.
package files

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"

	"sundsvall.se/integration-eneo/internal/store"
)

var (
	ErrNotFound = errors.New("file not found")
	ErrNotAFile = errors.New("not a file")
)

type NodeType string

const (
	TypeFile   NodeType = "file"
	TypeFolder NodeType = "dir"
)

type Node struct {
	ID   int64
	Path string // relative to the user folder, always starting with "/"
	Type NodeType
	Size int64
}

// Index persists the id <-> path mapping.
type Index interface {
	EnsureFileEntry(ctx context.Context, uid, path string) (int64, error)
	GetFileEntry(ctx context.Context, uid string, fileID int64) (*store.FileEntry, error)
	ListFileEntries(ctx context.Context, uid string) ([]store.FileEntry, error)
	DeleteFileEntry(ctx context.Context, uid string, fileID int64) error
}

// Storage lays users out as /<uid>/files/... on the underlying filesystem.
type Storage struct {
	fs    afero.Fs
	index Index
}

func NewStorage(fsys afero.Fs, index Index) *Storage {
	return &Storage{fs: fsys, index: index}
}

// NewOSStorage roots the storage at a directory on disk.
func NewOSStorage(dataDir string, index Index) *Storage {
	return NewStorage(afero.NewBasePathFs(afero.NewOsFs(), dataDir), index)
}

// UserFolder is the user's files as a filesystem of its own.
func (s *Storage) UserFolder(uid string) (afero.Fs, error) {
	if uid == "" || strings.ContainsAny(uid, `/\`) || uid == "." || uid == ".." {
		return nil, fmt.Errorf("invalid user id %q", uid)
	}
	root := path.Join("/", uid, "files")
	if err := s.fs.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("creating user folder: %w", err)
	}
	return afero.NewBasePathFs(s.fs, root), nil
}

// GetByID resolves a file id inside the user's folder. Ids whose path has
// vanished are dropped from the index and reported as not found.
func (s *Storage) GetByID(ctx context.Context, uid string, fileID int64) (*Node, error) {
	entry, err := s.index.GetFileEntry(ctx, uid, fileID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrNotFound
	}

	folder, err := s.UserFolder(uid)
	if err != nil {
		return nil, err
	}
	info, err := folder.Stat(entry.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
			if delErr := s.index.DeleteFileEntry(ctx, uid, fileID); delErr != nil {
				return nil, delErr
			}
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("stat %s: %w", entry.Path, err)
	}

	node := &Node{ID: entry.ID, Path: "/" + strings.TrimPrefix(entry.Path, "/"), Type: TypeFile, Size: info.Size()}
	if info.IsDir() {
		node.Type = TypeFolder
		node.Size = 0
	}
	return node, nil
}

// ReadContent returns the content of a regular file.
func (s *Storage) ReadContent(uid string, node *Node) (string, error) {
	if node.Type != TypeFile {
		return "", ErrNotAFile
	}
	folder, err := s.UserFolder(uid)
	if err != nil {
		return "", err
	}
	data, err := afero.ReadFile(folder, node.Path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", node.Path, err)
	}
	return string(data), nil
}

// Scan assigns ids to every file and folder under the user's folder and
// returns how many entries it saw.
func (s *Storage) Scan(ctx context.Context, uid string) (int, error) {
	folder, err := s.UserFolder(uid)
	if err != nil {
		return 0, err
	}

	count := 0
	err = afero.Walk(folder, "/", func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(path.Clean("/"+p), "/")
		if rel == "" {
			return nil
		}
		if _, err := s.index.EnsureFileEntry(ctx, uid, rel); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("scanning files of %s: %w", uid, err)
	}
	return count, nil
}

// List returns every indexed node of the user, skipping stale entries.
func (s *Storage) List(ctx context.Context, uid string) ([]Node, error) {
	entries, err := s.index.ListFileEntries(ctx, uid)
	if err != nil {
		return nil, err
	}
	nodes := make([]Node, 0, len(entries))
	for _, e := range entries {
		n, err := s.GetByID(ctx, uid, e.ID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, *n)
	}
	return nodes, nil
}

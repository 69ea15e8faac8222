// Package storage holds the document content and snapshot backends that live outside the ledger database.
// storage 包提供账本数据库之外的文档内容与快照存储后端。
package storage

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/turtacn/dataguard/internal/domain/anomaly"
	"github.com/turtacn/dataguard/internal/domain/models"
	"github.com/turtacn/dataguard/pkg/errors"
)

const (
	documentsDir = "documents"
	blobsDir     = "blobs"
	modelFile    = "model/snapshot.json"
)

// FileStore keeps current document content, content-addressed version snapshots and the
// model snapshot on a filesystem. Production passes afero.NewOsFs, tests afero.NewMemMapFs.
//
// Layout under root:
//
//	documents/<escaped document id>
//	blobs/<digest[:2]>/<digest>
//	model/snapshot.json
//
// Documents under documents/ may be edited by anyone with filesystem access; that is
// exactly what the integrity scan is meant to notice.
type FileStore struct {
	fs   afero.Fs
	root string
}

// NewFileStore creates the directory layout under root.
func NewFileStore(fs afero.Fs, root string) (*FileStore, error) {
	for _, dir := range []string{documentsDir, blobsDir, filepath.Dir(modelFile)} {
		if err := fs.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, errors.Storage("create storage directory", err)
		}
	}
	return &FileStore{fs: fs, root: root}, nil
}

// DocumentPath returns where the current content of documentID lives.
func (s *FileStore) DocumentPath(documentID string) string {
	return filepath.Join(s.root, documentsDir, fileName(documentID))
}

// fileName escapes name into a single path element. A leading dot is escaped too, so
// "." and ".." name ordinary files instead of a directory.
func fileName(name string) string {
	escaped := url.PathEscape(name)
	if strings.HasPrefix(escaped, ".") {
		escaped = "%2E" + escaped[1:]
	}
	return escaped
}

func (s *FileStore) blobPath(key string) string {
	shard := key
	if len(shard) > 2 {
		shard = shard[:2]
	}
	return filepath.Join(s.root, blobsDir, fileName(shard), fileName(key))
}

// Read returns a NotFound error when the document file is absent.
func (s *FileStore) Read(ctx context.Context, documentID string) ([]byte, error) {
	if err := models.ValidateDocumentID(documentID); err != nil {
		return nil, err
	}
	return s.readFile(s.DocumentPath(documentID), "content", documentID)
}

func (s *FileStore) Write(ctx context.Context, documentID string, content []byte) error {
	if err := models.ValidateDocumentID(documentID); err != nil {
		return err
	}
	return s.writeFile(s.DocumentPath(documentID), content)
}

// Put is idempotent: a blob with the same key already holds the same bytes.
func (s *FileStore) Put(ctx context.Context, key string, content []byte) error {
	path := s.blobPath(key)
	if ok, err := afero.Exists(s.fs, path); err == nil && ok {
		return nil
	}
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Storage("create blob shard", err)
	}
	return s.writeFile(path, content)
}

func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.readFile(s.blobPath(key), "blob", key)
}

func (s *FileStore) LoadSnapshot(ctx context.Context) (*anomaly.Snapshot, error) {
	data, err := s.readFile(filepath.Join(s.root, modelFile), "model snapshot", "latest")
	if err != nil {
		return nil, err
	}
	return anomaly.UnmarshalSnapshot(data)
}

func (s *FileStore) SaveSnapshot(ctx context.Context, snapshot *anomaly.Snapshot) error {
	data, err := snapshot.Marshal()
	if err != nil {
		return err
	}
	return s.writeFile(filepath.Join(s.root, modelFile), data)
}

func (s *FileStore) readFile(path, kind, id string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, path)
	if os.IsNotExist(err) {
		return nil, errors.NotFound(kind, id)
	}
	if err != nil {
		return nil, errors.Storage("read "+kind, err)
	}
	return data, nil
}

// writeFile writes to a temporary sibling and renames it, so readers never see a partial file.
func (s *FileStore) writeFile(path string, content []byte) error {
	tmp := path + ".tmp-" + uuid.NewString()
	if err := afero.WriteFile(s.fs, tmp, content, 0o644); err != nil {
		return errors.Storage("write file", err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return errors.Storage("rename file", err)
	}
	return nil
}

//Personal.AI order the ending

// Copyright 2025 Arcade Team
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

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/wire"

	"github.com/sistemakontrol/kontrol/pkg/log"
)

var ProviderSet = wire.NewSet(ProvideStorage)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageS3    = "s3"
	StorageOSS   = "oss"
	StorageGCS   = "gcs"
	StorageCOS   = "cos"
)

// ErrObjectNotFound is returned by Get when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// StorageProvider stores attachment blobs by key.
type StorageProvider interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Get streams the object. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete is idempotent: a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

type Conf struct {
	Provider  string
	LocalDir  string
	AccessKey string
	SecretKey string
	Endpoint  string
	Bucket    string
	Region    string
	UseTLS    bool
	BasePath  string
}

func ProvideStorage(cfg Conf) (StorageProvider, error) {
	sp, err := NewStorage(&cfg)
	if err != nil {
		return nil, err
	}
	log.Infow("attachment storage ready", "provider", cfg.Provider, "bucket", cfg.Bucket)
	return sp, nil
}

// NewStorage creates the configured provider. Local is the default.
func NewStorage(s *Conf) (StorageProvider, error) {
	switch s.Provider {
	case StorageLocal, "":
		return newLocal(s)
	case StorageMinio:
		return newMinio(s)
	case StorageS3:
		return newS3(s)
	case StorageOSS:
		return newOSS(s)
	case StorageGCS:
		return newGCS(s)
	case StorageCOS:
		return newCOS(s)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", s.Provider)
	}
}

// getFullPath joins BasePath and key with forward slashes.
func getFullPath(basePath, key string) string {
	basePath = strings.Trim(basePath, "/")
	key = strings.TrimPrefix(key, "/")
	if basePath == "" {
		return key
	}
	return path.Join(basePath, key)
}

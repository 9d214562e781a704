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
	"io"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

type OSSStorage struct {
	Client *oss.Client
	Bucket *oss.Bucket
	s      *Conf
}

func newOSS(s *Conf) (*OSSStorage, error) {
	client, err := oss.New(s.Endpoint, s.AccessKey, s.SecretKey)
	if err != nil {
		return nil, err
	}
	bucket, err := client.Bucket(s.Bucket)
	if err != nil {
		return nil, err
	}
	return &OSSStorage{Client: client, Bucket: bucket, s: s}, nil
}

func (o *OSSStorage) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string) error {
	return o.Bucket.PutObject(getFullPath(o.s.BasePath, key), r, oss.ContentType(contentType), oss.WithContext(ctx))
}

func (o *OSSStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	body, err := o.Bucket.GetObject(getFullPath(o.s.BasePath, key), oss.WithContext(ctx))
	if err != nil {
		var se oss.ServiceError
		if errors.As(err, &se) && se.Code == "NoSuchKey" {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	return body, nil
}

func (o *OSSStorage) Delete(ctx context.Context, key string) error {
	return o.Bucket.DeleteObject(getFullPath(o.s.BasePath, key), oss.WithContext(ctx))
}

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
	"io"
	"net/http"
	"net/url"

	"github.com/tencentyun/cos-go-sdk-v5"
)

type COSStorage struct {
	Client *cos.Client
	s      *Conf
}

// newCOS builds the bucket URL from Endpoint's host, as COS addresses
// buckets by subdomain.
func newCOS(s *Conf) (*COSStorage, error) {
	u, err := url.Parse(s.Endpoint)
	if err != nil {
		return nil, err
	}
	if s.Bucket != "" && u.Host != "" {
		scheme := "https"
		if !s.UseTLS {
			scheme = "http"
		}
		u = &url.URL{Scheme: scheme, Host: s.Bucket + "." + u.Host}
	}
	client := cos.NewClient(&cos.BaseURL{BucketURL: u}, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  s.AccessKey,
			SecretKey: s.SecretKey,
		},
	})
	return &COSStorage{Client: client, s: s}, nil
}

func (c *COSStorage) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string) error {
	_, err := c.Client.Object.Put(ctx, getFullPath(c.s.BasePath, key), r, &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{ContentType: contentType},
	})
	return err
}

func (c *COSStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := c.Client.Object.Get(ctx, getFullPath(c.s.BasePath, key), nil)
	if err != nil {
		if cos.IsNotFoundError(err) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	return resp.Body, nil
}

func (c *COSStorage) Delete(ctx context.Context, key string) error {
	_, err := c.Client.Object.Delete(ctx, getFullPath(c.s.BasePath, key))
	return err
}

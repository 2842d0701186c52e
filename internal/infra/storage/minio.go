package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Mirror copies rendered artifacts into object storage. The local disk
// stays the source of truth; the mirror is best effort and a mirror
// failure never fails a completion.
type Mirror struct {
	client     *minio.Client
	bucketName string
	region     string
}

// NewMirror buat koneksi MinIO, bikin bucket kalau belum ada
func NewMirror(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Mirror, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &Mirror{client: cli, bucketName: bucket, region: region}, nil
}

// Put uploads artifact bytes under the same relative key the local store
// used, so both layouts stay navigable side by side.
func (m *Mirror) Put(ctx context.Context, key string, data []byte) (string, error) {
	_, err := m.client.PutObject(ctx, m.bucketName, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		return "", err
	}
	url := fmt.Sprintf("http://%s/%s/%s", m.client.EndpointURL().Host, m.bucketName, key)
	return url, nil
}

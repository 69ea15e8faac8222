package storage

import (
	"bytes"
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/turtacn/dataguard/internal/config"
	"github.com/turtacn/dataguard/internal/domain/anomaly"
	"github.com/turtacn/dataguard/pkg/errors"
	"github.com/turtacn/dataguard/pkg/logger"
)

const (
	blobPrefix        = "blobs/"
	snapshotObjectKey = "model/snapshot.json"
)

// MinioStore keeps version snapshots and the trained model in an S3 compatible bucket.
// MinioStore 将版本快照和训练好的模型保存在 S3 兼容的对象存储桶中。
type MinioStore struct {
	client *minio.Client
	bucket string
	logger logger.Logger
}

// NewMinioStore connects to the endpoint and makes sure the bucket exists.
func NewMinioStore(ctx context.Context, cfg *config.MinioConfig, log logger.Logger) (*MinioStore, error) {
	if cfg == nil || cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.InvalidArgument("minio endpoint and bucket are required")
	}
	log = log.WithComponent("MinioStore")

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Storage("create minio client", err)
	}

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errors.Storage("check bucket", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, errors.Storage("create bucket", err)
		}
		log.Info(ctx, "Created bucket", logger.String("bucket", cfg.Bucket))
	}
	return &MinioStore{client: cli, bucket: cfg.Bucket, logger: log}, nil
}

func (s *MinioStore) Put(ctx context.Context, key string, content []byte) error {
	return s.putObject(ctx, blobPrefix+key, content, "application/octet-stream")
}

func (s *MinioStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.getObject(ctx, blobPrefix+key, "blob", key)
}

func (s *MinioStore) LoadSnapshot(ctx context.Context) (*anomaly.Snapshot, error) {
	data, err := s.getObject(ctx, snapshotObjectKey, "model snapshot", "latest")
	if err != nil {
		return nil, err
	}
	return anomaly.UnmarshalSnapshot(data)
}

func (s *MinioStore) SaveSnapshot(ctx context.Context, snapshot *anomaly.Snapshot) error {
	data, err := snapshot.Marshal()
	if err != nil {
		return err
	}
	return s.putObject(ctx, snapshotObjectKey, data, "application/json")
}

func (s *MinioStore) putObject(ctx context.Context, key string, content []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return errors.Storage("put object", err)
	}
	return nil
}

func (s *MinioStore) getObject(ctx context.Context, key, kind, id string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.translate(err, kind, id)
	}
	defer obj.Close()

	// GetObject is lazy; a missing key only surfaces on the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.translate(err, kind, id)
	}
	return data, nil
}

func (s *MinioStore) translate(err error, kind, id string) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return errors.NotFound(kind, id)
	}
	return errors.Storage("get "+kind, err)
}

//Personal.AI order the ending

package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aihub/chatdoc-go/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ArchiveStore 上传原件归档存储（可选）
// 归档失败不应影响入库流程，调用方按尽力而为处理
type ArchiveStore struct {
	client *minio.Client
	bucket string
}

// InitMinIO 初始化MinIO客户端并确保bucket存在
func InitMinIO(cfg *config.ArchiveConfig) (*ArchiveStore, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil, fmt.Errorf("archive storage not configured")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &ArchiveStore{client: client, bucket: cfg.Bucket}, nil
}

// Put 归档一份上传原件，对象名为"{doc_id}/{filename}"
func (s *ArchiveStore) Put(ctx context.Context, docID, filename string, data []byte) error {
	objectName := fmt.Sprintf("%s/%s", docID, filename)
	_, err := s.client.PutObject(ctx, s.bucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return fmt.Errorf("failed to archive document: %w", err)
	}
	return nil
}

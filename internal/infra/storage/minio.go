package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	domain "github.com/bryanwahyu/shelfsnap/internal/domain/scans"
)

// MinioStore keeps videos as <scan_id>/scan.mp4 objects and stages them on
// local disk for extraction. Frames stay local.
type MinioStore struct {
	frameWorkspace
	client     *minio.Client
	bucketName string
	region     string
}

// NewMinio buat koneksi MinIO
func NewMinio(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool, tmpDir string) (*MinioStore, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}

	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", tmpDir, err)
	}

	return &MinioStore{
		frameWorkspace: frameWorkspace{tmpDir: tmpDir},
		client:         cli,
		bucketName:     bucket,
		region:         region,
	}, nil
}

func objectKey(id domain.ScanID) string {
	return string(id) + "/" + videoFileName
}

// SaveVideo spools r to tmp first so the object is put with a known size;
// minio-go buffers a whole part in memory for size -1 uploads.
func (s *MinioStore) SaveVideo(ctx context.Context, id domain.ScanID, r io.Reader) (int64, error) {
	spool, err := os.CreateTemp(s.tmpDir, string(id)+".upload.*.part")
	if err != nil {
		return 0, fmt.Errorf("create upload spool: %w", err)
	}
	defer os.Remove(spool.Name())

	if _, err := io.Copy(spool, r); err != nil {
		spool.Close()
		return 0, fmt.Errorf("spool video: %w", err)
	}
	if err := spool.Close(); err != nil {
		return 0, fmt.Errorf("close upload spool: %w", err)
	}

	info, err := s.client.FPutObject(ctx, s.bucketName, objectKey(id), spool.Name(), minio.PutObjectOptions{
		ContentType: "video/mp4",
	})
	if err != nil {
		return 0, fmt.Errorf("upload video: %w", err)
	}
	return info.Size, nil
}

// VideoPath downloads the object to tmp/<scan_id>.mp4. Scan ids cannot contain
// dots, so the staged file never collides with a frames directory.
func (s *MinioStore) VideoPath(ctx context.Context, id domain.ScanID) (string, error) {
	dest := filepath.Join(s.tmpDir, string(id)+".mp4")
	err := s.client.FGetObject(ctx, s.bucketName, objectKey(id), dest, minio.GetObjectOptions{})
	if err != nil {
		if isMissingObject(err) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("download video: %w", err)
	}
	return dest, nil
}

// isMissingObject reports whether err means the video object is absent.
// A missing bucket is a deployment problem, not a missing scan.
func isMissingObject(err error) bool {
	var resp minio.ErrorResponse
	return errors.As(err, &resp) && resp.Code == minio.NoSuchKey
}

func (s *MinioStore) Check(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %s missing", s.bucketName)
	}
	return nil
}

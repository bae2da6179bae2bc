package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/h2non/filetype"
	gonanoid "github.com/matoous/go-nanoid/v2"
	config "github.com/postpilothq/postpilot/configs"
	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/platforms"
	"github.com/postpilothq/postpilot/internal/repository"
)

type MediaService interface {
	Resolve(ctx context.Context, asset *models.MediaAsset) (*platforms.Media, error)
	Upload(ctx context.Context, userID int64, fh *multipart.FileHeader) (*models.MediaAsset, error)
}

type mediaService struct {
	cfg config.Config
	ma  repository.MediaAssetRepository

	clientMu sync.Mutex
	client   *s3.Client
}

func NewMediaService(cfg config.Config, ma repository.MediaAssetRepository) MediaService {
	return &mediaService{cfg: cfg, ma: ma}
}

func (s *mediaService) s3Client() (*s3.Client, error) {
	s.clientMu.Lock()
	defer s.clientMu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	if s.cfg.R2.AccountID == "" {
		return nil, errors.New("object storage is not configured")
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(s.cfg.R2.AccessKey, s.cfg.R2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	s.client = s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", s.cfg.R2.AccountID))
	})
	return s.client, nil
}

// Resolve turns a media asset into something an adapter can publish: a URL
// the provider can fetch and a local path for multipart uploads. The
// direct-serving base URL is preferred; a presigned object-storage link is
// the authenticated fallback.
func (s *mediaService) Resolve(ctx context.Context, asset *models.MediaAsset) (*platforms.Media, error) {
	if strings.Contains(asset.FilePath, "..") {
		return nil, fmt.Errorf("invalid media path %q", asset.FilePath)
	}
	localPath := filepath.Join(s.cfg.MediaDir, filepath.FromSlash(asset.FilePath))

	media := &platforms.Media{
		Type:     asset.Type,
		MimeType: asset.MimeType,
	}

	if s.cfg.MediaBaseURL != "" {
		if _, err := os.Stat(localPath); err != nil {
			return nil, fmt.Errorf("media file not found: %s", asset.FilePath)
		}
		media.URL = strings.TrimSuffix(s.cfg.MediaBaseURL, "/") + "/" + asset.FilePath
		media.LocalPath = localPath
		return media, nil
	}

	if asset.StorageKey != "" {
		url, err := s.presign(ctx, asset.StorageKey)
		if err == nil {
			media.URL = url
			media.LocalPath, err = s.ensureLocal(ctx, localPath, url)
			if err != nil {
				return nil, err
			}
			return media, nil
		}
		slog.Info(err.Error())
	}

	return nil, errors.New("could not resolve media URL")
}

func (s *mediaService) presign(ctx context.Context, key string) (string, error) {
	client, err := s.s3Client()
	if err != nil {
		return "", err
	}

	presigner := s3.NewPresignClient(client)
	req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.R2.BucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	return req.URL, nil
}

// ensureLocal downloads the object next to where the direct-served file
// would live, so multipart adapters can stream it from disk.
func (s *mediaService) ensureLocal(ctx context.Context, localPath, url string) (string, error) {
	if _, err := os.Stat(localPath); err == nil {
		return localPath, nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error downloading media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected response status: %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(localPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", fmt.Errorf("error saving media to disk: %w", err)
	}
	return localPath, nil
}

func (s *mediaService) Upload(ctx context.Context, userID int64, fh *multipart.FileHeader) (*models.MediaAsset, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return nil, errors.New("could not detect file type")
	}

	mediaType := models.MediaTypeImage
	switch {
	case kind.MIME.Value == "image/gif":
		mediaType = models.MediaTypeGif
	case strings.HasPrefix(kind.MIME.Value, "video/"):
		mediaType = models.MediaTypeVideo
	case strings.HasPrefix(kind.MIME.Value, "image/"):
	default:
		return nil, fmt.Errorf("unsupported file type %s", kind.MIME.Value)
	}

	asset := &models.MediaAsset{
		UserID:   userID,
		FileName: fh.Filename,
		Type:     mediaType,
		MimeType: kind.MIME.Value,
		FileSize: int64(len(data)),
	}

	if mediaType != models.MediaTypeVideo {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			asset.Width = cfg.Width
			asset.Height = cfg.Height
		}
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	asset.FilePath = id + "." + kind.Extension
	asset.StorageKey = "media/" + asset.FilePath

	localPath := filepath.Join(s.cfg.MediaDir, asset.FilePath)
	if err := os.MkdirAll(s.cfg.MediaDir, 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(localPath, data, 0o644); err != nil {
		return nil, err
	}

	if client, clientErr := s.s3Client(); clientErr == nil {
		_, err = client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.cfg.R2.BucketName),
			Key:         aws.String(asset.StorageKey),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(asset.MimeType),
		})
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
	}

	assetID, err := s.ma.Create(ctx, nil, asset)
	if err != nil {
		return nil, err
	}
	asset.ID = assetID

	return asset, nil
}

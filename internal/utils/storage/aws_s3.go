package storage

import (
	"Smart-Picking/internal/utils"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/gofiber/fiber/v2/log"
)

type (
	AwsS3 interface {
		ObjectStore
		GetPublicLinkKey(objectKey string) string
		GetObjectKeyFromLink(link string) string
	}

	awsS3 struct {
		client *s3.Client
		bucket string
		region string
	}
)

func NewAwsS3() AwsS3 {
	region := utils.GetConfig("AWS_S3_REGION")
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			utils.GetConfig("AWS_ACCESS_KEY"),
			utils.GetConfig("AWS_SECRET_KEY"),
			"",
		)),
	)
	if err != nil {
		log.Fatalf("error loading aws config: %v", err)
	}

	return &awsS3{
		client: s3.NewFromConfig(cfg),
		bucket: utils.GetConfig("AWS_S3_BUCKET"),
		region: region,
	}
}

// putMarker writes the zero byte folder marker. With ifAbsent the put is conditional on
// the key not existing, which S3 evaluates atomically.
func (a *awsS3) putMarker(ctx context.Context, key string, ifAbsent bool) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(nil),
		ContentType: aws.String("application/x-directory"),
	}
	if ifAbsent {
		input.IfNoneMatch = aws.String("*")
	}
	_, err := a.client.PutObject(ctx, input)
	return err
}

func isAlreadyExists(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return true
	}
	return false
}

func (a *awsS3) EnsureFolder(ctx context.Context, name string, parent Folder) (Folder, error) {
	if !validName(name) {
		return Folder{}, ErrInvalidName
	}
	folder := childFolder(parent, name, time.Now())
	if err := a.putMarker(ctx, folder.ID, true); err != nil && !isAlreadyExists(err) {
		return Folder{}, fmt.Errorf("ensure folder %s: %w", folder.Path(), err)
	}
	return folder, nil
}

func (a *awsS3) CreateFolder(ctx context.Context, name string, parent Folder) (Folder, error) {
	if !validName(name) {
		return Folder{}, ErrInvalidName
	}
	folder := childFolder(parent, name, time.Now())
	if err := a.putMarker(ctx, folder.ID, true); err != nil {
		if isAlreadyExists(err) {
			return Folder{}, ErrFolderExists
		}
		return Folder{}, fmt.Errorf("create folder %s: %w", folder.Path(), err)
	}
	return folder, nil
}

func (a *awsS3) ListFolders(ctx context.Context, parent Folder, prefix string) ([]Folder, error) {
	paginator := s3.NewListObjectsV2Paginator(a.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(parent.ID + prefix),
	})

	var folders []Folder
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list folders under %s: %w", parent.Path(), err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			rest := strings.TrimPrefix(key, parent.ID)
			// only direct children markers: "<name>/"
			if !strings.HasSuffix(rest, "/") || strings.Count(rest, "/") != 1 {
				continue
			}
			folders = append(folders, Folder{
				ID:        key,
				Name:      strings.TrimSuffix(rest, "/"),
				CreatedAt: aws.ToTime(obj.LastModified),
			})
		}
	}

	sort.SliceStable(folders, func(i, j int) bool {
		return folders[i].CreatedAt.After(folders[j].CreatedAt)
	})
	return folders, nil
}

func (a *awsS3) UploadAsset(ctx context.Context, data []byte, filename string, folder Folder) (string, error) {
	if !validName(filename) {
		return "", ErrInvalidName
	}
	contentType, ok := DetectContentType(data, AllowImage...)
	if !ok {
		return "", ErrFileNotAllowed
	}

	objectKey := folder.ID + filename
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", objectKey, err)
	}
	return a.GetPublicLinkKey(objectKey), nil
}

func (a *awsS3) GetPublicLinkKey(objectKey string) string {
	escaped := (&url.URL{Path: objectKey}).EscapedPath()
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", a.bucket, a.region, escaped)
}

func (a *awsS3) GetObjectKeyFromLink(link string) string {
	base := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", a.bucket, a.region)
	if !strings.HasPrefix(link, base) {
		return ""
	}
	key, err := url.PathUnescape(strings.TrimPrefix(link, base))
	if err != nil {
		return ""
	}
	return key
}

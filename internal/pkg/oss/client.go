package oss

import (
	"bytes"
	"fmt"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"github.com/qs3c/datawarfare_server/config"
)

const markdownContentType = "text/markdown; charset=utf-8"

type Client struct {
	bucket     *oss.Bucket
	bucketName string
	endpoint   string
	cdnDomain  string
	now        func() time.Time
}

func NewClient(cfg *config.OSSConfig) (*Client, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create OSS client: %w", err)
	}

	bucket, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}

	return &Client{
		bucket:     bucket,
		bucketName: cfg.BucketName,
		endpoint:   client.Config.Endpoint,
		cdnDomain:  cfg.CDNDomain,
		now:        time.Now,
	}, nil
}

// ReportKey 报告在存储桶中的对象路径
func ReportKey(analysisID string, at time.Time) string {
	return fmt.Sprintf("reports/%s/%d.md", analysisID, at.Unix())
}

// UploadReport 上传格式化后的 markdown 报告
func (c *Client) UploadReport(analysisID, markdown string) (string, error) {
	objectKey := ReportKey(analysisID, c.now())

	err := c.bucket.PutObject(objectKey, bytes.NewReader([]byte(markdown)),
		oss.ContentType(markdownContentType),
		oss.ContentDisposition(fmt.Sprintf("inline; filename=%q", analysisID+".md")))
	if err != nil {
		return "", fmt.Errorf("failed to upload report: %w", err)
	}

	return objectURL(c.cdnDomain, c.bucketName, c.endpoint, objectKey), nil
}

func objectURL(cdnDomain, bucketName, endpoint, objectKey string) string {
	if cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", cdnDomain, objectKey)
	}
	return fmt.Sprintf("https://%s.%s/%s", bucketName, endpoint, objectKey)
}

// Package storage 提供了与对象存储服务（如 MinIO）交互的功能。
package storage

import (
	"context"
	"fmt"
	"time"

	"uvlhub/internal/config"
	"uvlhub/pkg/log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioClient 是一个全局的 MinIO 客户端实例。
var MinioClient *minio.Client

// InitMinIO 初始化 MinIO 客户端并确保指定的存储桶存在。
func InitMinIO(cfg config.MinIOConfig) {
	var err error

	// 1. 初始化 MinIO 客户端
	MinioClient, err = minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		log.Fatal("初始化 MinIO 客户端失败", err)
	}
	log.Info("MinIO 客户端初始化成功")

	// 2. 检查存储桶是否存在，如果不存在则创建
	ctx := context.Background()
	exists, err := MinioClient.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		log.Fatal("检查 MinIO 存储桶失败", err)
	}
	if !exists {
		log.Infof("存储桶 '%s' 不存在，正在创建...", cfg.BucketName)
		if err = MinioClient.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			log.Fatal("创建 MinIO 存储桶失败", err)
		}
		log.Infof("存储桶 '%s' 创建成功", cfg.BucketName)
	}
}

// ObjectName 返回数据集文件在存储桶中的对象名，与本地 uploads 目录结构一致。
func ObjectName(userID, datasetID uint, fileName string) string {
	return fmt.Sprintf("user_%d/dataset_%d/%s", userID, datasetID, fileName)
}

// Mirror 把永久目录中的文件镜像到 MinIO，实现 service.FileMirror。
type Mirror struct {
	Bucket string
	Expiry time.Duration
}

// Put 上传本地文件。
func (m Mirror) Put(ctx context.Context, objectName, localPath string) error {
	_, err := MinioClient.FPutObject(ctx, m.Bucket, objectName, localPath, minio.PutObjectOptions{
		ContentType: "text/plain",
	})
	if err != nil {
		return fmt.Errorf("上传对象 %s 失败: %w", objectName, err)
	}
	return nil
}

// PresignedURL 生成对象的临时下载地址。
func (m Mirror) PresignedURL(ctx context.Context, objectName string) (string, error) {
	presignedURL, err := MinioClient.PresignedGetObject(ctx, m.Bucket, objectName, m.Expiry, nil)
	if err != nil {
		log.Errorf("生成预签名 URL 失败: %v", err)
		return "", err
	}
	return presignedURL.String(), nil
}

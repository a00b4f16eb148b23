package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymguard/uiharness/internal/config"
)

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		file   string
		want   string
	}{
		{"prefix and relative path", "screenshots", "screenshots/TestLogin-20250101-101010123.png", "screenshots/TestLogin-20250101-101010123.png"},
		{"trims slashes", "/ci/run-1/", "a.png", "ci/run-1/a.png"},
		{"no prefix", "", "/tmp/out/a.png", "a.png"},
		{"windows separators", "shots", `screenshots\a.png`, "shots/a.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ObjectKey(tt.prefix, tt.file))
		})
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", ContentType("a/b.PNG"))
	assert.Equal(t, "image/jpeg", ContentType("a.jpg"))
	assert.Equal(t, "application/octet-stream", ContentType("a.bin"))
}

func TestFromS3Config(t *testing.T) {
	cfg := FromS3Config(config.S3Config{
		Endpoint:        "minio:9000",
		AccessKeyID:     "ak",
		SecretAccessKey: "sk",
		Bucket:          "shots",
		Prefix:          "ci",
		UseSSL:          true,
	})

	assert.Equal(t, MinIOConfig{
		Endpoint:        "minio:9000",
		AccessKeyID:     "ak",
		SecretAccessKey: "sk",
		UseSSL:          true,
		BucketName:      "shots",
		Prefix:          "ci",
	}, cfg)
}

func TestNewMinIOClient(t *testing.T) {
	client, err := NewMinIOClient(MinIOConfig{
		Endpoint:        "localhost:9000",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
		BucketName:      "ui-screenshots",
		Prefix:          "screenshots",
	})
	require.NoError(t, err)
	assert.Equal(t, "ui-screenshots", client.bucketName)
	assert.Equal(t, "screenshots", client.prefix)
}

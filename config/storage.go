package config

import (
	"fmt"
	"strings"
)

// AssetBackend selects where driver images are stored.
type AssetBackend string

const (
	AssetBackendGCS    AssetBackend = "gcs"
	AssetBackendMinIO  AssetBackend = "minio"
	AssetBackendMemory AssetBackend = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for AssetBackend.
func (b *AssetBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "gcs", "minio", "memory":
		*b = AssetBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid AssetBackend: %q (valid options: gcs, minio, memory)", v)
	}
}

// MinIOConfig reaches an S3-compatible endpoint.
type MinIOConfig struct {
	Endpoint  string `env:"ENDPOINT"   envDefault:"localhost:9000"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	UseSSL    bool   `env:"USE_SSL"    envDefault:"false"`
}

// StorageConfig configures the asset store.
type StorageConfig struct {
	Backend AssetBackend `env:"ASSET_BACKEND" envDefault:"memory"`
	Bucket  string       `env:"ASSET_BUCKET"  envDefault:"nomo-driver-assets"`
	// PublicBaseURL prefixes object paths in returned URLs; empty uses the backend's default.
	PublicBaseURL string      `env:"ASSET_PUBLIC_BASE_URL"`
	MinIO         MinIOConfig `envPrefix:"MINIO_"`
}

// Sanitize trims the URL prefix so object paths join cleanly.
func (s *StorageConfig) Sanitize() {
	s.PublicBaseURL = strings.TrimSuffix(strings.TrimSpace(s.PublicBaseURL), "/")
	s.Bucket = strings.TrimSpace(s.Bucket)
}

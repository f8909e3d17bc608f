package util

const DateFormat = "2006-01-02"

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// gin.Context 键
const (
	RequestIDKey  = "request_id"
	ClaimsKey     = "user"
	RequestHeader = "X-Request-ID"
)

// 文件上传相关常量
const (
	MimeImage     = "image/"
	MaxAvatarSize = 5 << 20
)

var AllowedImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

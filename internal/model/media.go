package model

const (
	MaxAvatarSizeBytes = 5 * 1024 * 1024
	MaxMediaSizeBytes  = 10 * 1024 * 1024
	AvatarWidth        = 200
	AvatarHeight       = 200
	AvatarFolder       = "avatars"
	PostMediaFolder    = "posts"
	StoryMediaFolder   = "stories"
	AvatarExt          = ".jpg"
	AvatarCacheControl = "public, max-age=31536000"
	PresignTTLSeconds  = 900
)

// Supported image content types
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
	ContentTypeWebP = "image/webp"
)

var imageExtensions = map[string]string{
	ContentTypeJPEG: ".jpg",
	ContentTypePNG:  ".png",
	ContentTypeGIF:  ".gif",
	ContentTypeWebP: ".webp",
}

// Error codes for HTTP responses
const (
	CodeFileTooLarge     = "FILE_TOO_LARGE"
	CodeInvalidImageType = "INVALID_IMAGE_TYPE"
)

var (
	ErrFileTooLarge      = newError(ErrValidation, "file too large")
	ErrInvalidImageType  = newError(ErrValidation, "invalid image type")
	ErrInvalidMediaScope = newError(ErrValidation, "scope must be post or story")
	ErrMediaDisabled     = newError(ErrNotFound, "media storage is not configured")
)

// UploadResult is the location of an uploaded object.
type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// PresignRequest asks for a presigned PUT URL. The client uploads the
// bytes directly and then references PublicURL as a post or story image.
type PresignRequest struct {
	Scope       string `json:"scope"`
	ContentType string `json:"content_type"`
	FileSize    int64  `json:"file_size"`
}

type PresignResponse struct {
	UploadURL  string `json:"upload_url"`
	PublicURL  string `json:"public_url"`
	Key        string `json:"key"`
	ExpiresInS int    `json:"expires_in"`
}

// IsAllowedImageType reports if the provided content type is supported
func IsAllowedImageType(contentType string) bool {
	_, ok := imageExtensions[contentType]
	return ok
}

// ImageExtension returns the file extension for a supported content type.
func ImageExtension(contentType string) string {
	return imageExtensions[contentType]
}

// MediaFolder maps a presign scope to its bucket folder.
func MediaFolder(scope string) (string, bool) {
	switch scope {
	case "post", "":
		return PostMediaFolder, true
	case "story":
		return StoryMediaFolder, true
	}
	return "", false
}

package mimetypes

import (
	"mime"

	"github.com/samber/lo"
)

type MIME string

const (
	Unknown   MIME = "unknown"
	TextPlain MIME = "text/plain"

	ApplicationPDF MIME = "application/pdf"
	ApplicationZip MIME = "application/zip"

	ImagePNG  MIME = "image/png"
	ImageJPEG MIME = "image/jpeg"
	ImageGIF  MIME = "image/gif"
	ImageWebP MIME = "image/webp"

	AudioMPEG MIME = "audio/mpeg"
	AudioWAV  MIME = "audio/wav"
	AudioOGG  MIME = "audio/ogg"

	VideoMP4  MIME = "video/mp4"
	VideoWebM MIME = "video/webm"
)

// Attachable lists the media types a chat attachment may carry.
var Attachable = []MIME{
	ImageJPEG, ImagePNG, ImageGIF, ImageWebP,
	ApplicationPDF, TextPlain,
	AudioMPEG, AudioWAV, AudioOGG,
	VideoMP4, VideoWebM,
	ApplicationZip,
}

// Extensions accepted on upload, lower-cased with the leading dot.
var Extensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".webp",
	".pdf", ".txt",
	".mp3", ".wav", ".ogg",
	".mp4", ".webm",
	".zip",
}

// Parse strips parameters such as charset from a detected media type.
func Parse(detected string) MIME {
	mt, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return Unknown
	}
	return MIME(mt)
}

func IsAttachable(detected string) bool {
	return lo.Contains(Attachable, Parse(detected))
}

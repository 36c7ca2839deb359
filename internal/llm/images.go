package llm

import (
	"encoding/base64"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

type encodedImage struct {
	MIMEType string
	Data     string // base64
}

func (e encodedImage) dataURL() string {
	return "data:" + e.MIMEType + ";base64," + e.Data
}

// imageMIMEType returns the declared type, or a sniffed one when nothing
// specific was declared.
func imageMIMEType(img Image) string {
	declared := strings.ToLower(strings.TrimSpace(img.MIMEType))
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	detected := mimetype.Detect(img.Data).String()
	if i := strings.IndexByte(detected, ';'); i >= 0 {
		detected = detected[:i]
	}
	return detected
}

// encodeImages base64-encodes images in order. Images that are empty or not
// images are logged and left out; the rest still go out.
func encodeImages(images []Image, logger *zap.Logger) []encodedImage {
	out := make([]encodedImage, 0, len(images))
	for i, img := range images {
		if len(img.Data) == 0 {
			logger.Warn("skipping image without data",
				zap.Int("image_index", i),
				zap.String("name", img.Name),
			)
			continue
		}
		mt := imageMIMEType(img)
		if !strings.HasPrefix(mt, "image/") {
			logger.Warn("skipping non-image attachment",
				zap.Int("image_index", i),
				zap.String("name", img.Name),
				zap.String("mime_type", mt),
			)
			continue
		}
		out = append(out, encodedImage{
			MIMEType: mt,
			Data:     base64.StdEncoding.EncodeToString(img.Data),
		})
	}
	return out
}

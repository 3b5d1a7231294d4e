package scanning

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	_ "image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/gen2brain/heic"
)

// prepareUpload normalizes a file before submission. The scanner API
// only accepts JPEG and PNG, so HEIC/HEIF (the iPhone default) and any
// other decodable format are re-encoded as PNG and the filename gets a
// matching extension. JPEG and PNG uploads pass through untouched.
func prepareUpload(data []byte, filename, contentType string) ([]byte, string, string, error) {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))

	if (mimeType == "image/jpeg" || mimeType == "image/png") && !isHEICFormat(data) {
		return data, filename, mimeType, nil
	}

	pngData, err := toPNG(data, mimeType)
	if err != nil {
		return nil, "", "", err
	}
	return pngData, pngFilename(filename), "image/png", nil
}

// toPNG decodes HEIC/HEIF or any registered image format and
// re-encodes the pixels as PNG
func toPNG(data []byte, mimeType string) ([]byte, error) {
	var img image.Image
	var err error

	if isHEICFormat(data) || isHEICMimeType(mimeType) {
		img, err = heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC image: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding image: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// pngFilename swaps the extension for .png
func pngFilename(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + ".png"
}

// isHEICFormat checks for the ftyp box brands HEIC containers start with
func isHEICFormat(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if string(data[4:8]) != "ftyp" {
		return false
	}
	brand := string(data[8:12])
	return brand == "heic" || brand == "heix" || brand == "heif" || brand == "mif1" || brand == "msf1"
}

// isHEICMimeType reports whether the declared media type is HEIC/HEIF
func isHEICMimeType(mimeType string) bool {
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

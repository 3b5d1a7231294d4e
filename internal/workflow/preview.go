package workflow

import (
	"encoding/base64"
	"fmt"
)

// EncodePreview turns an uploaded file into a self-contained data URI
// so the results page can re-display the image without the original
// file. Encoding happens once per submission; whether the encoded
// value fits the session store is the caller's problem.
func EncodePreview(data []byte, contentType string) string {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
}

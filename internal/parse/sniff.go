package parse

import (
	"code.sajari.com/docconv/v2"
	"github.com/gabriel-vasile/mimetype"

	"github.com/hyperifyio/goextract/internal/mediatype"
)

// Sniff detects the content type of data from its leading bytes. When the
// bytes are inconclusive (octet-stream, a bare zip container, plain text)
// and a file name is known, the name's extension decides instead.
//
// The result may carry a charset parameter for text types.
func Sniff(data []byte, name string) string {
	detected := mimetype.Detect(data).String()
	switch mediatype.Base(detected) {
	case mediatype.OctetStream, "application/zip", mediatype.Text:
		if name != "" {
			if byExt := docconv.MimeTypeByExtension(name); byExt != "" && byExt != mediatype.OctetStream {
				return byExt
			}
		}
	}
	return detected
}

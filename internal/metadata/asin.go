// file: internal/metadata/asin.go
// version: 1.0.0
// guid: 8e9f0a1b-2c3d-4e5f-6a7b-8c9d0e1f2a3b

package metadata

import (
	"os"
	"strings"

	"github.com/dhowden/tag"
)

// asinTagKeys are the raw atom keys an ASIN may already live under in a
// previously tagged file, checked in priority order.
var asinTagKeys = []string{
	"----:com.apple.iTunes:ASIN",
	"----:com.apple.iTunes:AUDIBLE_ASIN",
	"asin",
	"CDEK",
}

// ExtractASIN reads the existing container tags of an audio file and returns
// the embedded ASIN, if any. Used by the auto-tagging path to skip the search
// step entirely. Returns "" when the file carries no usable ASIN; read
// failures are treated the same way, never as a hard error.
func ExtractASIN(filePath string) string {
	f, err := os.Open(filePath)
	if err != nil {
		return ""
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return ""
	}

	raw := m.Raw()
	for _, key := range asinTagKeys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		asin := rawTagString(v)
		// ASINs are 10 characters; anything shorter is tag debris.
		if len(asin) >= 10 {
			return asin
		}
	}
	return ""
}

func rawTagString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case []byte:
		return strings.TrimSpace(string(val))
	default:
		return ""
	}
}

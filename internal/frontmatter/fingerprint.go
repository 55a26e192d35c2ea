package frontmatter

import (
	"strings"

	"github.com/inful/mdfp"
)

// Fingerprint returns the mdfp content fingerprint of a document made of fields
// and body. An existing fingerprint field is ignored so the value is stable.
func Fingerprint(fields map[string]any, body []byte) (string, error) {
	hashed := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == mdfp.FingerprintField {
			continue
		}
		hashed[k] = v
	}

	fm := ""
	if len(hashed) > 0 {
		serialized, err := SerializeYAML(hashed, Style{Newline: "\n"})
		if err != nil {
			return "", err
		}
		fm = strings.TrimSuffix(string(serialized), "\n")
	}
	return mdfp.CalculateFingerprintFromParts(fm, string(body)), nil
}

// FingerprintFile fingerprints a complete file. Files whose front matter
// cannot be parsed are hashed as plain bodies.
func FingerprintFile(content []byte) (string, error) {
	doc, err := Parse(content)
	if err != nil {
		return Fingerprint(nil, content)
	}
	return Fingerprint(doc.Fields, doc.Body)
}

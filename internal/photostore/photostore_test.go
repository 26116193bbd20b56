package photostore

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var keyPattern = regexp.MustCompile(`^\d+-[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}(\.[a-z0-9]+)?$`)

func TestNewKeyFormat(t *testing.T) {
	tests := []struct {
		filename  string
		mediaType string
		wantExt   string
	}{
		{"drill.JPG", "image/jpeg", ".jpg"},
		{"saw.png", "", ".png"},
		{"noext", "image/png", ".png"},
		{"", "image/gif", ".gif"},
		{"", "", ""},
		{"../../evil.webp", "image/webp", ".webp"},
		{"weird.p$g", "image/jpeg", ".jpg"},
		{"photo.jpeg", "image/jpeg", ".jpeg"},
		{"photo.jpeg", "image/png", ".png"},
		{"x.html", "image/png", ".png"},
		{"scan.txt", "image/png", ".png"},
		{"scan.txt", "", ""},
		{"x.PNG", "image/png; charset=binary", ".png"},
	}
	for _, tt := range tests {
		t.Run(tt.filename+"|"+tt.mediaType, func(t *testing.T) {
			key := NewKey(tt.filename, tt.mediaType)
			assert.Regexp(t, keyPattern, key)
			assert.NoError(t, ValidateKey(key))
			if tt.wantExt == "" {
				assert.NotContains(t, key[len(key)-5:], ".")
			} else {
				assert.True(t, strings.HasSuffix(key, tt.wantExt), key)
			}
		})
	}
}

func TestNewKeyUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		k := NewKey("a.jpg", "image/jpeg")
		assert.False(t, seen[k], "duplicate key %s", k)
		seen[k] = true
	}
}

func TestValidateKey(t *testing.T) {
	for _, bad := range []string{"", ".", "..", "../x.jpg", "a/b.jpg", `a\b.jpg`, "a\x00.jpg"} {
		assert.Error(t, ValidateKey(bad), "key %q", bad)
	}
	assert.NoError(t, ValidateKey("123-abc.jpg"))
}

func TestMediaTypeForKey(t *testing.T) {
	assert.Equal(t, "image/jpeg", MediaTypeForKey("1-x.jpg"))
	assert.Equal(t, "image/jpeg", MediaTypeForKey("1-x.JPEG"))
	assert.Equal(t, "image/png", MediaTypeForKey("1-x.png"))
	assert.Equal(t, "image/webp", MediaTypeForKey("1-x.webp"))
	assert.Equal(t, "application/octet-stream", MediaTypeForKey("1-x"))
}

func TestExtForMediaType(t *testing.T) {
	assert.Equal(t, ".jpg", ExtForMediaType("image/jpeg"))
	assert.Equal(t, ".png", ExtForMediaType("image/png; charset=binary"))
	assert.Equal(t, "", ExtForMediaType(""))
	assert.Equal(t, "", ExtForMediaType("not a media type;;"))
}

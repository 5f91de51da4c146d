package services

import (
	"encoding/base64"
	"testing"

	"github.com/localnerve/myway-api/internal/types"
)

var jpegHeader = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 0x4a, 0x46, 0x49, 0x46, 0x00, 0x01}

func TestDecodePhoto(t *testing.T) {
	raw := base64.StdEncoding.EncodeToString(jpegHeader)

	cases := []struct {
		name  string
		input types.PhotoInput
		mime  string
	}{
		{"data uri", types.PhotoInput{Image: "data:image/webp;base64," + raw}, "image/webp"},
		{"explicit mime wins", types.PhotoInput{Image: "data:image/webp;base64," + raw, MimeType: "image/gif"}, "image/gif"},
		{"sniffed", types.PhotoInput{Image: raw}, "image/jpeg"},
		{"unpadded", types.PhotoInput{Image: base64.RawStdEncoding.EncodeToString(jpegHeader)}, "image/jpeg"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			photo, err := decodePhoto(c.input)
			if err != nil {
				t.Fatalf("decodePhoto failed: %v", err)
			}
			if photo.mimeType != c.mime {
				t.Errorf("Expected %s, got %s", c.mime, photo.mimeType)
			}
			if len(photo.data) != len(jpegHeader) {
				t.Errorf("Expected %d bytes, got %d", len(jpegHeader), len(photo.data))
			}
		})
	}

	for _, bad := range []string{"data:image/png;base64", "%%%", "data:image/png;base64,"} {
		if _, err := decodePhoto(types.PhotoInput{Image: bad}); err == nil {
			t.Errorf("Expected %q to be rejected", bad)
		}
	}
}

func TestDecodePhotosSkipsReferences(t *testing.T) {
	raw := base64.StdEncoding.EncodeToString(jpegHeader)
	photos, err := decodePhotos([]types.PhotoInput{
		{Reference: "/api/photos/1"},
		{PhotoURL: "https://example.com/a.jpg"},
		{},
		{Image: raw},
	})
	if err != nil {
		t.Fatalf("decodePhotos failed: %v", err)
	}
	if len(photos) != 1 {
		t.Errorf("Expected only the inline photo, got %d", len(photos))
	}
}

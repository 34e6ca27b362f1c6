package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageStem(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "DJI_0001.JPG", "DJI_0001"},
		{"nested", "rcif/v1/structure1/hdimages/DJI_0001.jpg", "DJI_0001"},
		{"no extension", "DJI_0001", "DJI_0001"},
		{"double extension keeps first", "DJI_0001.tar.gz", "DJI_0001.tar"},
		{"windows separators", "C:\\images\\DJI_0002.png", "DJI_0002"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ImageStem(tt.in))
		})
	}
}

func TestNormalizedImageName(t *testing.T) {
	assert.Equal(t, "DJI_0001.jpg", NormalizedImageName("DJI_0001.JPG"))
	assert.Equal(t, "DJI_0001.jpg", NormalizedImageName("DJI_0001.tif"))
}

func TestCeilDiv(t *testing.T) {
	assert.Equal(t, 1, CeilDiv(1, 248))
	assert.Equal(t, 1, CeilDiv(248, 248))
	assert.Equal(t, 2, CeilDiv(249, 248))
	assert.Equal(t, 0, CeilDiv(0, 248))
}

func TestKeyValToMap(t *testing.T) {
	m := KeyValToMap("a", 1, "b", "x", 3, "ignored", "dangling")
	assert.Equal(t, map[string]interface{}{"a": 1, "b": "x"}, m)
}

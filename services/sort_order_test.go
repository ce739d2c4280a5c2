package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortRank(t *testing.T) {
	tests := []struct {
		filename string
		want     int
	}{
		{"7.png", 7},
		{"007.jpg", 7},
		{"12-crest.png", 12},
		{"3_mascot.webp", 3},
		{"45 campus.jpeg", 45},
		{"crest.png", 999},
		{"1234-x.png", 999},
		{"12crest.png", 999},
		{"1234.png", 1234},
		{"99999999999999999999.png", math.MaxInt},
		{"", 999},
		{"noext", 999},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, SortRank(tt.filename))
		})
	}
}

func TestIsImageKey(t *testing.T) {
	for _, name := range []string{"a.png", "U/b.JPG", "c.jpeg", "d.webp", "e.GIF"} {
		assert.True(t, IsImageKey(name), name)
	}
	for _, name := range []string{"readme.txt", "U/", "archive.png.zip", "png"} {
		assert.False(t, IsImageKey(name), name)
	}
}

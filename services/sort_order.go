package services

import (
	"errors"
	"math"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/YHTerrance/UniFrames/model"
)

var leadingRankPattern = regexp.MustCompile(`^(\d{1,3})[-_ ]`)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
}

// SortRank derives the display rank of a frame from its filename.
//
//	"7.png"        -> 7
//	"12-crest.png" -> 12
//	"crest.png"    -> 999
func SortRank(filename string) int {
	stem := filename
	if i := strings.LastIndex(filename, "."); i >= 0 {
		stem = filename[:i]
	}

	if stem != "" && isDigits(stem) {
		n, err := strconv.Atoi(stem)
		if err == nil {
			return n
		}
		if errors.Is(err, strconv.ErrRange) {
			return math.MaxInt
		}
	}

	if m := leadingRankPattern.FindStringSubmatch(filename); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}

	return model.UnrankedSortOrder
}

// IsImageKey reports whether the key or filename has a frame image extension
func IsImageKey(name string) bool {
	return imageExtensions[strings.ToLower(path.Ext(name))]
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

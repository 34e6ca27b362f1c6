package utils

import (
	"path"
	"strings"
)

// KeyValToMap Converts key-value pairs to map.
func KeyValToMap(kvPairs ...interface{}) map[string]interface{} {
	kvMap := make(map[string]interface{})
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, keyOk := kvPairs[i].(string)
		value := kvPairs[i+1]
		if keyOk {
			kvMap[key] = value
		}
	}
	return kvMap
}

// StringInSlice checks if a string is present in a slice of strings.
// Returns true if the string is found, otherwise false.
func StringInSlice(str string, list []string) bool {
	for _, v := range list {
		if v == str {
			return true
		}
	}
	return false
}

// CeilDiv returns the ceiling of a/b for positive b.
func CeilDiv(a, b int) int {
	return (a + b - 1) / b
}

// ImageStem returns the file name of an image without directories and extension,
// "a/b/DJI_0001.JPG" -> "DJI_0001". Images are matched across stores by stem.
func ImageStem(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

// NormalizedImageName returns the canonical stored name of an image, the stem with a lowercase jpg extension.
func NormalizedImageName(name string) string {
	return ImageStem(name) + ".jpg"
}

package app

import (
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"facade-bot/internal/domain/entity"
)

func coloredFilename(name string) string {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		stem = "image"
	}
	return stem + "_colored.png"
}

// filenameFromURL извлекает имя файла из colored_image_url
func filenameFromURL(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		raw = u.Path
	}
	name := path.Base(raw)
	if name == "." || name == "/" {
		return ""
	}
	return name
}

func detectContentType(data []byte) string {
	return http.DetectContentType(data)
}

func sortedIDs(colors map[int64]entity.Color) []int64 {
	ids := make([]int64, 0, len(colors))
	for id := range colors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

package relay

import (
	"strings"

	"flickrscrapr/pkg/models"
)

// Collector paths
const (
	SaveMetadataPath = "/save_metadata"
	SaveDownloadPath = "/save_download"
)

var paths = map[models.MessageType]string{
	models.MessageSaveMetadata: SaveMetadataPath,
	models.MessageSaveDownload: SaveDownloadPath,
}

// PathFor returns the collector path for a message type
func PathFor(t models.MessageType) (string, bool) {
	p, ok := paths[t]
	return p, ok
}

// BuildURL joins the collector endpoint and a path
func BuildURL(endpoint, path string) string {
	return strings.TrimRight(endpoint, "/") + path
}

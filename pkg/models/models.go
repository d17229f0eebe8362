package models

// MessageType tags a scrape result so the relay knows where to forward it
type MessageType string

const (
	MessageSaveMetadata MessageType = "save-metadata"
	MessageSaveDownload MessageType = "save-download"
)

// MetadataRecord is scraped from a photo page
type MetadataRecord struct {
	AttributionName string `json:"attribution_name"`
	AttributionURL  string `json:"attribution_url"`
	LicenseURL      string `json:"license_url"`
	LicenseText     string `json:"license_text"`
	PageURL         string `json:"page_url"`
	DownloadPageURL string `json:"download_page_url"`
}

// DownloadRecord is scraped from a photo's download page
type DownloadRecord struct {
	MetadataURL     string `json:"metadata_url"`
	DownloadPageURL string `json:"download_page_url"`
	DownloadURL     string `json:"download_url"`
}

// Message carries exactly one record from the extractor to the relay.
// Data holds a MetadataRecord or a DownloadRecord matching Type.
type Message struct {
	Type MessageType `json:"type"`
	Data interface{} `json:"data"`
}

func NewMetadataMessage(rec MetadataRecord) Message {
	return Message{Type: MessageSaveMetadata, Data: rec}
}

func NewDownloadMessage(rec DownloadRecord) Message {
	return Message{Type: MessageSaveDownload, Data: rec}
}

package extractor

import (
	"net/url"
	"strings"

	"flickrscrapr/pkg/config"
	"flickrscrapr/pkg/models"
	"flickrscrapr/pkg/page"
)

// Mode is the kind of page being scraped
type Mode string

const (
	ModeMetadata Mode = "metadata"
	ModeDownload Mode = "download"
)

// DOM contract of the photo and download pages
const (
	DownloadLinkXPath  = "//a[contains(.,'Download the')]"
	PhotoBacklinkXPath = "//h1/a[contains(.,'Photo')]"

	OwnerSelector        = "a.owner-name"
	LicenseSelector      = "a.photo-license-url"
	LicenseTextSelector  = "a.photo-license-url span"
	PageURLSelector      = "meta[property~='og:url'][content]"
	DownloadPageSelector = "div.download a"
)

// Extractor turns one rendered page into at most one message
type Extractor struct {
	origin     string
	pagePrefix string
}

// New creates an Extractor for the configured site
func New(site config.SiteConfig) *Extractor {
	return &Extractor{
		origin:     strings.TrimRight(site.Origin, "/"),
		pagePrefix: site.PhotoPagePrefix(),
	}
}

// Default creates an Extractor for the default site
func Default() *Extractor {
	return New(config.DefaultConfig().Site)
}

// IsTarget reports whether url is a photo page on the site
func (e *Extractor) IsTarget(url string) bool {
	return strings.HasPrefix(url, e.pagePrefix)
}

// DetectMode picks download mode when the page offers a "Download the" link
func (e *Extractor) DetectMode(p page.PageSource) Mode {
	if _, ok := p.Evaluate(DownloadLinkXPath); ok {
		return ModeDownload
	}
	return ModeMetadata
}

// Run scrapes p once. It returns exactly one message, or an error and no
// message.
func (e *Extractor) Run(p page.PageSource) (models.Message, error) {
	if !e.IsTarget(p.URL()) {
		return models.Message{}, ErrNotTargetPage
	}

	switch e.DetectMode(p) {
	case ModeDownload:
		rec, err := e.ExtractDownload(p)
		if err != nil {
			return models.Message{}, err
		}
		return models.NewDownloadMessage(rec), nil
	default:
		rec, err := e.ExtractMetadata(p)
		if err != nil {
			return models.Message{}, err
		}
		return models.NewMetadataMessage(rec), nil
	}
}

// ExtractMetadata reads attribution and license details from a photo page.
// Pages without a download link yield ErrNoDownloadLink.
func (e *Extractor) ExtractMetadata(p page.PageSource) (models.MetadataRecord, error) {
	var rec models.MetadataRecord
	q := query{mode: ModeMetadata, page: p}

	owner, err := q.css("attribution", OwnerSelector)
	if err != nil {
		return rec, err
	}
	ownerHref, err := q.attr(owner, "attribution_url", OwnerSelector, "href")
	if err != nil {
		return rec, err
	}

	license, err := q.css("license", LicenseSelector)
	if err != nil {
		return rec, err
	}
	licenseHref, err := q.attr(license, "license_url", LicenseSelector, "href")
	if err != nil {
		return rec, err
	}

	licenseText, err := q.css("license_text", LicenseTextSelector)
	if err != nil {
		return rec, err
	}

	meta, err := q.css("page_url", PageURLSelector)
	if err != nil {
		return rec, err
	}
	pageURL, err := q.attr(meta, "page_url", PageURLSelector, "content")
	if err != nil {
		return rec, err
	}

	download, ok := p.Query(DownloadPageSelector)
	if !ok {
		return rec, ErrNoDownloadLink
	}
	downloadHref, err := q.attr(download, "download_page_url", DownloadPageSelector, "href")
	if err != nil {
		return rec, err
	}

	rec = models.MetadataRecord{
		AttributionName: strings.TrimSpace(owner.Text()),
		AttributionURL:  e.absolute(ownerHref),
		LicenseURL:      e.absolute(licenseHref),
		LicenseText:     strings.TrimSpace(licenseText.Text()),
		PageURL:         pageURL,
		DownloadPageURL: e.absolute(downloadHref),
	}
	return rec, nil
}

// ExtractDownload reads the direct file link and the photo backlink from a
// download page
func (e *Extractor) ExtractDownload(p page.PageSource) (models.DownloadRecord, error) {
	var rec models.DownloadRecord
	q := query{mode: ModeDownload, page: p}

	link, err := q.xpath("download_url", DownloadLinkXPath)
	if err != nil {
		return rec, err
	}
	downloadURL, err := q.attr(link, "download_url", DownloadLinkXPath, "href")
	if err != nil {
		return rec, err
	}

	backlink, err := q.xpath("metadata_url", PhotoBacklinkXPath)
	if err != nil {
		return rec, err
	}
	backHref, err := q.attr(backlink, "metadata_url", PhotoBacklinkXPath, "href")
	if err != nil {
		return rec, err
	}

	rec = models.DownloadRecord{
		MetadataURL:     e.absolute(backHref),
		DownloadPageURL: p.URL(),
		DownloadURL:     downloadURL,
	}
	return rec, nil
}

// absolute prefixes site-relative hrefs with the origin
func (e *Extractor) absolute(href string) string {
	if u, err := url.Parse(href); err == nil && u.IsAbs() {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return e.origin + href
}

// query wraps lookups so a miss becomes an ExtractionError
type query struct {
	mode Mode
	page page.PageSource
}

func (q query) css(field, selector string) (page.Element, error) {
	el, ok := q.page.Query(selector)
	if !ok {
		return nil, &ExtractionError{Mode: q.mode, Field: field, Selector: selector, Err: ErrMissingElement}
	}
	return el, nil
}

func (q query) xpath(field, expr string) (page.Element, error) {
	el, ok := q.page.Evaluate(expr)
	if !ok {
		return nil, &ExtractionError{Mode: q.mode, Field: field, Selector: expr, Err: ErrMissingElement}
	}
	return el, nil
}

func (q query) attr(el page.Element, field, selector, name string) (string, error) {
	v, ok := el.Attr(name)
	if !ok {
		return "", &ExtractionError{Mode: q.mode, Field: field, Selector: selector + " @" + name, Err: ErrMissingAttribute}
	}
	return v, nil
}

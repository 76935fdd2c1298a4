package ingestion

import (
	"net/url"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

// Extra metadata keys stamped on every ingested document.
const (
	MetaSource     = "source"
	MetaSourceType = "source_type"
	MetaSourceHost = "source_host"
	MetaChunkIndex = "chunk_index"
	MetaChunkCount = "chunk_count"
)

// Source kinds recorded under [MetaSourceType].
const (
	SourceFile = "file"
	SourceURL  = "url"
)

// SourceInfo is the best-effort description of where a document came from.
type SourceInfo struct {
	// Kind is SourceFile or SourceURL.
	Kind string
	// Location is the absolute file path or the URL as given.
	Location string
	// Host is the URL host, lowercased. Empty for files.
	Host string
	// Filename is the name the document is stored under.
	Filename string
}

// IsURL reports whether raw is an http or https URL.
func IsURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// DescribeURL derives a SourceInfo from a URL. The filename is the last path
// segment, or the host followed by ".html" when the path is empty.
func DescribeURL(raw string) SourceInfo {
	info := SourceInfo{Kind: SourceURL, Location: raw}

	u, err := url.Parse(raw)
	if err != nil {
		info.Filename = raw
		return info
	}
	info.Host = strings.ToLower(u.Hostname())

	base := path.Base(strings.TrimSuffix(u.Path, "/"))
	switch base {
	case "", ".", "/":
		info.Filename = info.Host + ".html"
	default:
		info.Filename = base
	}
	return info
}

// DescribeFile derives a SourceInfo from a local path.
func DescribeFile(p string) SourceInfo {
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = p
	}
	return SourceInfo{Kind: SourceFile, Location: abs, Filename: filepath.Base(p)}
}

// Metadata renders info as extra document metadata. Chunk keys are only
// present when the document was split.
func (info SourceInfo) Metadata(chunk, chunks int) map[string]string {
	m := map[string]string{
		MetaSource:     info.Location,
		MetaSourceType: info.Kind,
	}
	if info.Host != "" {
		m[MetaSourceHost] = info.Host
	}
	if chunks > 1 {
		m[MetaChunkIndex] = strconv.Itoa(chunk)
		m[MetaChunkCount] = strconv.Itoa(chunks)
	}
	return m
}

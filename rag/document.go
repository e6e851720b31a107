package rag

import "maps"

// MetadataSource names the metadata key holding the origin of a document.
const MetadataSource = "source"

// Document is a piece of text with metadata.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// Source returns the source metadata, or "" when unknown.
func (d Document) Source() string {
	return d.Metadata[MetadataSource]
}

func cloneMetadata(m map[string]string) map[string]string {
	out := make(map[string]string, len(m)+2)
	maps.Copy(out, m)
	return out
}

package driven

import (
	"net/url"

	"github.com/custodia-labs/sercha-adaptor/internal/core/domain"
)

// DocIDEncoder turns a DocID into the URL the appliance will crawl.
type DocIDEncoder interface {
	EncodeDocID(id domain.DocID) *url.URL
}

// DocIDDecoder recovers the DocID from a crawled URL.
type DocIDDecoder interface {
	DecodeDocID(u *url.URL) (domain.DocID, error)
}

// DocIDCodec encodes and decodes DocIDs.
// DecodeDocID(EncodeDocID(id)) always returns id.
type DocIDCodec interface {
	DocIDEncoder
	DocIDDecoder
}

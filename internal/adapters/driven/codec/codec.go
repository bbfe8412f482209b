// Package codec reversibly embeds DocIDs in document URLs.
//
// Path segments consisting only of dots would be collapsed by URL
// normalisation, so every such segment is lengthened by two dots on the
// way out and shortened by two on the way back. Segments that already have
// three or more dots therefore stay unambiguous.
package codec

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-adaptor/internal/core/domain"
	"github.com/custodia-labs/sercha-adaptor/internal/core/ports/driven"
)

// Ensure Codec implements the interface.
var _ driven.DocIDCodec = (*Codec)(nil)

// dotPadding is added to every all-dot segment.
const dotPadding = ".."

// Codec converts between DocIDs and URLs under a base URL.
type Codec struct {
	base *url.URL
}

// New creates a codec rooted at base. A trailing slash is added to the
// base path when missing.
func New(base *url.URL) *Codec {
	b := *base
	if !strings.HasSuffix(b.Path, "/") {
		b.Path += "/"
	}
	b.RawPath = ""
	b.RawQuery = ""
	b.Fragment = ""
	return &Codec{base: &b}
}

// NewFromConfig builds the base URL from the server settings.
func NewFromConfig(cfg domain.FeedConfig) *Codec {
	path := cfg.DocIDPath
	if path == "" {
		path = domain.DefaultFeedConfig().DocIDPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	host := cfg.ServerHostname
	if cfg.ServerPort > 0 {
		host = net.JoinHostPort(host, strconv.Itoa(cfg.ServerPort))
	}
	return New(&url.URL{Scheme: "http", Host: host, Path: path})
}

// Base returns a copy of the base URL.
func (c *Codec) Base() *url.URL {
	b := *c.base
	return &b
}

// EncodeDocID implements driven.DocIDEncoder.
func (c *Codec) EncodeDocID(id domain.DocID) *url.URL {
	segments := strings.Split(id.UniqueID(), "/")
	for i, seg := range segments {
		if isAllDots(seg, 1) {
			segments[i] = seg + dotPadding
		}
	}

	u := *c.base
	// RawPath stays empty so that String escapes the path itself.
	u.Path = c.base.Path + strings.Join(segments, "/")
	u.RawPath = ""
	return &u
}

// DecodeDocID implements driven.DocIDDecoder.
func (c *Codec) DecodeDocID(u *url.URL) (domain.DocID, error) {
	if u == nil {
		return domain.DocID{}, fmt.Errorf("%w: nil URL", domain.ErrInvalidInput)
	}
	rest, ok := strings.CutPrefix(u.Path, c.base.Path)
	if !ok {
		return domain.DocID{}, fmt.Errorf("%w: %q is not under %q", domain.ErrInvalidInput, u.Path, c.base.Path)
	}

	segments := strings.Split(rest, "/")
	for i, seg := range segments {
		if isAllDots(seg, len(dotPadding)+1) {
			segments[i] = seg[:len(seg)-len(dotPadding)]
		}
	}
	return domain.NewDocID(strings.Join(segments, "/")), nil
}

// Encode is EncodeDocID for callers holding a raw identifier.
func (c *Codec) Encode(uniqueID string) string {
	return c.EncodeDocID(domain.NewDocID(uniqueID)).String()
}

// Decode parses rawURL and decodes it.
func (c *Codec) Decode(rawURL string) (domain.DocID, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return domain.DocID{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	return c.DecodeDocID(u)
}

func isAllDots(seg string, minLen int) bool {
	if len(seg) < minLen {
		return false
	}
	for i := 0; i < len(seg); i++ {
		if seg[i] != '.' {
			return false
		}
	}
	return true
}

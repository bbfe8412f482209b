// Package feed renders batches as the search appliance's feed XML.
//
// Output is built directly rather than through encoding/xml marshalling so
// that attribute order, line breaks and self-closing tags are byte-exact.
package feed

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-adaptor/internal/core/domain"
	"github.com/custodia-labs/sercha-adaptor/internal/core/ports/driven"
)

// Ensure Maker implements the interface.
var _ driven.FeedMaker = (*Maker)(nil)

// DefaultComment is written at the top of every feed.
const DefaultComment = "GSA EasyConnector"

// LastModifiedLayout is the RFC 822 style layout used for last-modified.
const LastModifiedLayout = "Mon, 02 Jan 2006 15:04:05 -0700"

const (
	xmlDecl      = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>` + "\n"
	feedDoctype  = `<!DOCTYPE gsafeed PUBLIC "-//Google//DTD GSA Feeds//EN" "">` + "\n"
	groupDoctype = `<!DOCTYPE xmlgroups PUBLIC "-//Google//DTD GSA Feeds//EN" "">` + "\n"

	// recordMimetype is required by the appliance but ignored.
	recordMimetype = "text/plain"
)

// Maker builds metadata-and-url and group definition feeds.
type Maker struct {
	encoder driven.DocIDEncoder
	comment string
}

// Option configures a Maker.
type Option func(*Maker)

// WithComment replaces DefaultComment.
func WithComment(comment string) Option {
	return func(m *Maker) {
		m.comment = comment
	}
}

// NewMaker creates a Maker that encodes DocIDs with encoder.
func NewMaker(encoder driven.DocIDEncoder, opts ...Option) *Maker {
	m := &Maker{encoder: encoder, comment: DefaultComment}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// FormatLastModified renders t in GMT using LastModifiedLayout.
func FormatLastModified(t time.Time) string {
	return t.UTC().Format(LastModifiedLayout)
}

// MakeMetadataAndURLXML implements driven.FeedMaker.
func (m *Maker) MakeMetadataAndURLXML(datasource string, items []domain.Item) (string, error) {
	if !domain.ValidDatasource(datasource) {
		return "", fmt.Errorf("%w: illegal datasource %q", domain.ErrInvalidInput, datasource)
	}

	w := &writer{}
	w.raw(xmlDecl)
	w.raw(feedDoctype)
	w.line("<gsafeed>")
	w.comment(m.comment)
	w.line("<header>")
	w.textElement("datasource", datasource)
	w.textElement("feedtype", string(domain.FeedTypeMetadataAndURL))
	w.line("</header>")

	if len(items) == 0 {
		w.line("<group/>")
	} else {
		w.line("<group>")
		for _, item := range items {
			if err := m.writeItem(w, item); err != nil {
				return "", err
			}
		}
		w.line("</group>")
	}

	w.line("</gsafeed>")
	return w.String(), nil
}

func (m *Maker) writeItem(w *writer, item domain.Item) error {
	switch it := item.(type) {
	case domain.Record:
		m.writeRecord(w, it)
	case *domain.Record:
		m.writeRecord(w, *it)
	case domain.AclItem:
		m.writeAclItem(w, it)
	case *domain.AclItem:
		m.writeAclItem(w, *it)
	default:
		return fmt.Errorf("%w: unsupported item %T", domain.ErrInvalidInput, item)
	}
	return nil
}

func (m *Maker) writeRecord(w *writer, r domain.Record) {
	action := "add"
	if r.Delete {
		action = "delete"
	}

	attrs := []attr{
		{"action", action},
		{"crawl-immediately", strconv.FormatBool(r.CrawlImmediately)},
		{"crawl-once", strconv.FormatBool(r.CrawlOnce)},
	}
	if r.ResultLink != "" {
		attrs = append(attrs, attr{"displayurl", r.ResultLink})
	}
	if !r.LastModified.IsZero() {
		attrs = append(attrs, attr{"last-modified", FormatLastModified(r.LastModified)})
	}
	attrs = append(attrs,
		attr{"lock", strconv.FormatBool(r.Lock)},
		attr{"mimetype", recordMimetype},
		attr{"url", m.encoder.EncodeDocID(r.DocID()).String()},
	)

	entries := r.Metadata.Entries()
	if len(entries) == 0 {
		w.emptyElement("record", attrs)
		return
	}

	w.openElement("record", attrs)
	w.line("<metadata>")
	for _, e := range entries {
		w.emptyElement("meta", []attr{{"content", e.Value}, {"name", e.Name}})
	}
	w.line("</metadata>")
	w.line("</record>")
}

func (m *Maker) writeAclItem(w *writer, item domain.AclItem) {
	w.openElement("record", []attr{
		{"action", "add"},
		{"crawl-immediately", "false"},
		{"crawl-once", "false"},
		{"lock", "false"},
		{"mimetype", recordMimetype},
		{"url", m.encoder.EncodeDocID(item.DocID()).String()},
	})
	m.writeAcl(w, item.Acl)
	w.line("</record>")
}

func (m *Maker) writeAcl(w *writer, acl domain.Acl) {
	var attrs []attr
	if from, ok := acl.InheritFrom(); ok {
		attrs = append(attrs,
			attr{"inherit-from", m.encoder.EncodeDocID(from).String()},
			attr{"inheritance-type", string(acl.InheritanceType())},
		)
	}

	entries := acl.Entries()
	if len(entries) == 0 {
		w.emptyElement("acl", attrs)
		return
	}

	caseType := "everything-case-sensitive"
	if !acl.CaseSensitive() {
		caseType = "everything-case-insensitive"
	}

	w.openElement("acl", attrs)
	for _, e := range entries {
		w.element("principal", []attr{
			{"access", string(e.Access)},
			{"case-sensitivity-type", caseType},
			{"namespace", e.Principal.Namespace},
			{"scope", string(e.Principal.Scope)},
		}, e.Principal.Name)
	}
	w.line("</acl>")
}

// MakeGroupDefinitionsXML implements driven.FeedMaker.
// Members are written in the order given.
func (m *Maker) MakeGroupDefinitionsXML(entries []domain.GroupEntry, caseSensitiveMembers bool) (string, error) {
	memberCase := "EVERYTHING_CASE_SENSITIVE"
	if !caseSensitiveMembers {
		memberCase = "EVERYTHING_CASE_INSENSITIVE"
	}

	w := &writer{}
	w.raw(xmlDecl)
	w.raw(groupDoctype)
	w.line("<xmlgroups>")
	w.comment(m.comment)

	for _, entry := range entries {
		if !entry.Group.IsGroup() {
			return "", fmt.Errorf("%w: %s is not a group", domain.ErrInvalidInput, entry.Group)
		}
		w.line("<membership>")
		w.element("principal", groupPrincipalAttrs(entry.Group, "EVERYTHING_CASE_SENSITIVE"), entry.Group.Name)
		if len(entry.Members) == 0 {
			w.line("<members/>")
		} else {
			w.line("<members>")
			for _, member := range entry.Members {
				w.element("principal", groupPrincipalAttrs(member, memberCase), member.Name)
			}
			w.line("</members>")
		}
		w.line("</membership>")
	}

	w.line("</xmlgroups>")
	return w.String(), nil
}

func groupPrincipalAttrs(p domain.Principal, caseType string) []attr {
	return []attr{
		{"case-sensitivity-type", caseType},
		{"namespace", p.Namespace},
		{"scope", strings.ToUpper(string(p.Scope))},
	}
}

// attr is one attribute. Callers list attributes in alphabetical order.
type attr struct {
	name  string
	value string
}

// writer accumulates a document one line at a time.
type writer struct {
	strings.Builder
}

func (w *writer) raw(s string) {
	w.WriteString(s)
}

func (w *writer) line(s string) {
	w.WriteString(s)
	w.WriteByte('\n')
}

// comment writes text as an XML comment. A comment may not contain "--"
// or end in "-".
func (w *writer) comment(text string) {
	for strings.Contains(text, "--") {
		text = strings.ReplaceAll(text, "--", "- -")
	}
	if strings.HasSuffix(text, "-") {
		text += " "
	}
	w.line("<!--" + text + "-->")
}

func (w *writer) escape(s string) {
	// EscapeText only fails when the underlying writer does.
	_ = xml.EscapeText(w, []byte(s))
}

func (w *writer) start(name string, attrs []attr) {
	w.WriteByte('<')
	w.WriteString(name)
	for _, a := range attrs {
		w.WriteByte(' ')
		w.WriteString(a.name)
		w.WriteString(`="`)
		w.escape(a.value)
		w.WriteByte('"')
	}
}

func (w *writer) openElement(name string, attrs []attr) {
	w.start(name, attrs)
	w.line(">")
}

func (w *writer) emptyElement(name string, attrs []attr) {
	w.start(name, attrs)
	w.line("/>")
}

func (w *writer) element(name string, attrs []attr, text string) {
	w.start(name, attrs)
	w.WriteByte('>')
	w.escape(text)
	w.line("</" + name + ">")
}

func (w *writer) textElement(name, text string) {
	w.element(name, nil, text)
}

package domain

import (
	"slices"
	"sort"
	"time"
)

// Item is anything the feed engine can batch into a metadata-and-url feed.
type Item interface {
	DocID() DocID
}

// Metadata is a multimap of name/value pairs attached to a record.
type Metadata map[string][]string

// MetadataEntry is a single name/value pair.
type MetadataEntry struct {
	Name  string
	Value string
}

// Add appends value under name.
func (m Metadata) Add(name, value string) {
	m[name] = append(m[name], value)
}

// Entries returns every pair sorted by name, then value.
func (m Metadata) Entries() []MetadataEntry {
	var entries []MetadataEntry
	for name, values := range m {
		for _, v := range values {
			entries = append(entries, MetadataEntry{Name: name, Value: v})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Value < entries[j].Value
	})
	return entries
}

// Record describes a document the appliance should add or delete.
type Record struct {
	id DocID

	// ResultLink is shown to searchers instead of the encoded URL.
	// Empty means unset.
	ResultLink string

	// LastModified is when the document last changed.
	// The zero time means unset.
	LastModified time.Time

	// Metadata is sent along with the record when non-empty.
	Metadata Metadata

	// Delete asks the appliance to remove the document.
	Delete bool

	// Lock keeps the document in the index when license limits are reached.
	Lock bool

	// CrawlImmediately raises the document's crawl priority.
	CrawlImmediately bool

	// CrawlOnce asks the appliance not to recrawl the document.
	CrawlOnce bool
}

// NewRecord creates an "add" record with no optional fields set.
func NewRecord(id DocID) Record {
	return Record{id: id}
}

// NewRecords creates an "add" record per identifier.
func NewRecords(ids []DocID) []Record {
	records := make([]Record, len(ids))
	for i, id := range ids {
		records[i] = NewRecord(id)
	}
	return records
}

// DocID implements Item.
func (r Record) DocID() DocID {
	return r.id
}

// Equal reports whether two records carry the same content.
func (r Record) Equal(other Record) bool {
	if r.id != other.id || r.ResultLink != other.ResultLink || !r.LastModified.Equal(other.LastModified) {
		return false
	}
	if r.Delete != other.Delete || r.Lock != other.Lock ||
		r.CrawlImmediately != other.CrawlImmediately || r.CrawlOnce != other.CrawlOnce {
		return false
	}
	return slices.Equal(r.Metadata.Entries(), other.Metadata.Entries())
}

// AclItem is a named resource: a DocID paired with the ACL protecting it.
type AclItem struct {
	id  DocID
	Acl Acl
}

// NewAclItem pairs id with acl.
func NewAclItem(id DocID, acl Acl) AclItem {
	return AclItem{id: id, Acl: acl}
}

// DocID implements Item.
func (a AclItem) DocID() DocID {
	return a.id
}

// String implements fmt.Stringer.
func (a AclItem) String() string {
	inherit := "null"
	if from, ok := a.Acl.InheritFrom(); ok {
		inherit = from.String()
	}
	return "AclItem(" + a.id.String() + "," + inherit + "," + a.Acl.String() + ")"
}

// GroupEntry is one group definition and its ordered members.
type GroupEntry struct {
	Group   Principal
	Members []Principal
}

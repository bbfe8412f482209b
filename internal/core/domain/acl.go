package domain

import (
	"fmt"
	"slices"
	"strings"
)

// InheritanceType controls how an ACL combines with the ACL it inherits from.
type InheritanceType string

const (
	// InheritChildOverrides lets the child's decision win when they disagree.
	InheritChildOverrides InheritanceType = "child-overrides"

	// InheritParentOverrides lets the parent's decision win when they disagree.
	InheritParentOverrides InheritanceType = "parent-overrides"

	// InheritAndBothPermit requires both parent and child to permit.
	InheritAndBothPermit InheritanceType = "and-both-permit"

	// InheritLeafNode marks an ACL that nothing inherits from.
	InheritLeafNode InheritanceType = "leaf-node"
)

// Access is the decision an ACL entry grants.
type Access string

const (
	// AccessPermit grants access.
	AccessPermit Access = "permit"

	// AccessDeny refuses access.
	AccessDeny Access = "deny"
)

// AclEntry is one principal together with its decision.
type AclEntry struct {
	Principal Principal
	Access    Access
}

// Acl is an immutable access-control list.
// The zero value is not meaningful; use EmptyAcl or an AclBuilder.
type Acl struct {
	permits         []Principal
	denies          []Principal
	caseSensitive   bool
	inheritFrom     *DocID
	inheritanceType InheritanceType
}

// EmptyAcl carries no restriction at all.
var EmptyAcl = Acl{caseSensitive: true, inheritanceType: InheritLeafNode}

// Permits returns the permitted principals in sorted order.
func (a Acl) Permits() []Principal {
	return slices.Clone(a.permits)
}

// Denies returns the denied principals in sorted order.
func (a Acl) Denies() []Principal {
	return slices.Clone(a.denies)
}

// CaseSensitive reports whether principal names are compared case-sensitively.
func (a Acl) CaseSensitive() bool {
	return a.caseSensitive
}

// InheritFrom returns the document this ACL inherits from, if any.
func (a Acl) InheritFrom() (DocID, bool) {
	if a.inheritFrom == nil {
		return DocID{}, false
	}
	return *a.inheritFrom, true
}

// InheritanceType returns how this ACL combines with inherited ACLs.
func (a Acl) InheritanceType() InheritanceType {
	return a.inheritanceType
}

// IsEmpty reports whether the ACL has no principals and inherits nothing.
func (a Acl) IsEmpty() bool {
	return len(a.permits) == 0 && len(a.denies) == 0 && a.inheritFrom == nil
}

// Entries returns every principal with its decision in emission order:
// permits before denies, each group ordered by ComparePrincipals.
func (a Acl) Entries() []AclEntry {
	entries := make([]AclEntry, 0, len(a.permits)+len(a.denies))
	for _, p := range a.permits {
		entries = append(entries, AclEntry{Principal: p, Access: AccessPermit})
	}
	for _, p := range a.denies {
		entries = append(entries, AclEntry{Principal: p, Access: AccessDeny})
	}
	return entries
}

// Equal reports whether two ACLs carry the same content.
func (a Acl) Equal(other Acl) bool {
	if a.caseSensitive != other.caseSensitive || a.inheritanceType != other.inheritanceType {
		return false
	}
	if (a.inheritFrom == nil) != (other.inheritFrom == nil) {
		return false
	}
	if a.inheritFrom != nil && *a.inheritFrom != *other.inheritFrom {
		return false
	}
	return slices.Equal(a.permits, other.permits) && slices.Equal(a.denies, other.denies)
}

// String implements fmt.Stringer.
func (a Acl) String() string {
	inherit := "null"
	if a.inheritFrom != nil {
		inherit = a.inheritFrom.String()
	}
	return fmt.Sprintf("Acl(caseSensitive=%t, inheritFrom=%s, inheritType=%s, permits=%s, denies=%s)",
		a.caseSensitive, inherit, a.inheritanceType, joinPrincipals(a.permits), joinPrincipals(a.denies))
}

func joinPrincipals(ps []Principal) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// AclBuilder assembles an Acl. Duplicate principals are collapsed.
type AclBuilder struct {
	acl Acl
}

// NewAclBuilder starts from an ACL with no restriction.
func NewAclBuilder() *AclBuilder {
	return &AclBuilder{acl: EmptyAcl}
}

// Permit adds permitted principals.
func (b *AclBuilder) Permit(principals ...Principal) *AclBuilder {
	b.acl.permits = append(b.acl.permits, principals...)
	return b
}

// Deny adds denied principals.
func (b *AclBuilder) Deny(principals ...Principal) *AclBuilder {
	b.acl.denies = append(b.acl.denies, principals...)
	return b
}

// CaseInsensitive marks principal names as case-insensitive.
func (b *AclBuilder) CaseInsensitive() *AclBuilder {
	b.acl.caseSensitive = false
	return b
}

// InheritFrom makes the ACL inherit from another document's ACL.
func (b *AclBuilder) InheritFrom(id DocID, inheritance InheritanceType) *AclBuilder {
	b.acl.inheritFrom = &id
	b.acl.inheritanceType = inheritance
	return b
}

// Build returns the finished ACL.
func (b *AclBuilder) Build() Acl {
	acl := b.acl
	acl.permits = sortedUnique(acl.permits)
	acl.denies = sortedUnique(acl.denies)
	if acl.inheritFrom != nil {
		id := *acl.inheritFrom
		acl.inheritFrom = &id
	}
	return acl
}

func sortedUnique(ps []Principal) []Principal {
	if len(ps) == 0 {
		return nil
	}
	out := slices.Clone(ps)
	slices.SortFunc(out, ComparePrincipals)
	return slices.Compact(out)
}

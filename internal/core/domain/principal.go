package domain

import "strings"

// DefaultNamespace is the namespace principals belong to unless told otherwise.
const DefaultNamespace = "Default"

// PrincipalScope distinguishes users from groups.
type PrincipalScope string

const (
	// ScopeUser identifies an individual user.
	ScopeUser PrincipalScope = "user"

	// ScopeGroup identifies a group of users and/or nested groups.
	ScopeGroup PrincipalScope = "group"
)

// Principal is a user or group within a namespace.
// Principals are comparable and may be used as map keys.
type Principal struct {
	// Name is the user or group name.
	Name string

	// Namespace scopes the name, so equal names in different
	// namespaces are different principals.
	Namespace string

	// Scope is ScopeUser or ScopeGroup.
	Scope PrincipalScope
}

// NewUserPrincipal creates a user principal in the default namespace.
func NewUserPrincipal(name string) Principal {
	return NewUserPrincipalInNamespace(name, DefaultNamespace)
}

// NewUserPrincipalInNamespace creates a user principal in namespace.
func NewUserPrincipalInNamespace(name, namespace string) Principal {
	return Principal{Name: name, Namespace: namespace, Scope: ScopeUser}
}

// NewGroupPrincipal creates a group principal in the default namespace.
func NewGroupPrincipal(name string) Principal {
	return NewGroupPrincipalInNamespace(name, DefaultNamespace)
}

// NewGroupPrincipalInNamespace creates a group principal in namespace.
func NewGroupPrincipalInNamespace(name, namespace string) Principal {
	return Principal{Name: name, Namespace: namespace, Scope: ScopeGroup}
}

// IsGroup reports whether the principal is a group.
func (p Principal) IsGroup() bool {
	return p.Scope == ScopeGroup
}

// String implements fmt.Stringer.
func (p Principal) String() string {
	if p.IsGroup() {
		return "Group(" + p.Name + "," + p.Namespace + ")"
	}
	return "User(" + p.Name + "," + p.Namespace + ")"
}

// ComparePrincipals orders users before groups, then by namespace, then
// by name. All comparisons are byte-wise.
func ComparePrincipals(a, b Principal) int {
	if a.Scope != b.Scope {
		if a.Scope == ScopeUser {
			return -1
		}
		return 1
	}
	if c := strings.Compare(a.Namespace, b.Namespace); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}

package access

import (
	"strings"
)

// Role is the base part of an access string, before any " - " qualifier.
type Role string

const (
	RoleAdmin             Role = "Admin"
	RoleEmployee          Role = "Employee"
	RoleHOManager         Role = "HO Manager"
	RoleProductAdmin      Role = "Product Admin"
	RoleProductManager    Role = "Product Manager"
	RoleMarketingAdmin    Role = "Marketing Admin"
	RoleMarketingIncharge Role = "Marketing Incharge"
	RoleHRAdmin           Role = "HR Admin"
	RoleSiteIncharge      Role = "Site Incharge"
	RoleZoneManager       Role = "Zone Manager"
	RoleRevoked           Role = "Revoked"
	RoleUnknown           Role = ""
)

// Roles lists every base role in the order the create-employee form offers them.
var Roles = []Role{
	RoleAdmin,
	RoleEmployee,
	RoleHOManager,
	RoleProductAdmin,
	RoleProductManager,
	RoleMarketingAdmin,
	RoleMarketingIncharge,
	RoleHRAdmin,
	RoleSiteIncharge,
	RoleZoneManager,
	RoleRevoked,
}

var Zones = []string{"Central", "East", "North", "South", "West", "International"}

const qualifierSep = " - "

// Access is a parsed access string such as "Zone Manager - East" or "Product Admin - p1,p2".
type Access struct {
	Raw      string   `json:"raw"`
	Role     Role     `json:"role"`
	Zone     string   `json:"zone,omitempty"`
	Products []string `json:"products,omitempty"`
}

func Parse(raw string) Access {
	a := Access{Raw: raw}
	base, qualifier, hasQualifier := strings.Cut(raw, qualifierSep)
	base = strings.TrimSpace(base)

	a.Role = roleFromBase(base)
	if !hasQualifier {
		return a
	}

	qualifier = strings.TrimSpace(qualifier)
	switch a.Role {
	case RoleZoneManager:
		a.Zone = qualifier
	case RoleProductAdmin, RoleProductManager:
		for _, p := range strings.Split(qualifier, ",") {
			if p = strings.TrimSpace(p); p != "" {
				a.Products = append(a.Products, p)
			}
		}
	}
	return a
}

func roleFromBase(base string) Role {
	for _, r := range Roles {
		if string(r) == base {
			return r
		}
	}
	return RoleUnknown
}

// Compose builds the stored access string. Product roles carry their product list,
// zone managers their zone; every other role ignores the qualifiers.
func Compose(role Role, zone string, products []string) string {
	switch role {
	case RoleProductAdmin, RoleProductManager:
		if len(products) == 0 {
			return string(role)
		}
		return string(role) + qualifierSep + strings.Join(products, ",")
	case RoleZoneManager:
		if zone == "" {
			return string(role)
		}
		return string(role) + qualifierSep + zone
	default:
		return string(role)
	}
}

// Allow reports whether a session with the given access string may open a route that
// requires any of the given tokens. Matching is by substring, so "Admin" also admits
// "HR Admin", "Product Admin" and "Marketing Admin". An empty requirement admits any session.
func Allow(hasSession bool, userAccess string, required ...string) bool {
	if !hasSession {
		return false
	}
	if len(required) == 0 {
		return true
	}
	for _, token := range required {
		if strings.Contains(userAccess, token) {
			return true
		}
	}
	return false
}

// MatchesAny is Allow for a known session.
func MatchesAny(userAccess string, required ...string) bool {
	return Allow(true, userAccess, required...)
}

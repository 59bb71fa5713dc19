package access

type Capability string

const (
	CapViewDirectory   Capability = "view_directory"
	CapManageEmployees Capability = "manage_employees"
	CapExportDirectory Capability = "export_directory"
	CapViewAudit       Capability = "view_audit"
	CapEditOwnProfile  Capability = "edit_own_profile"
	CapUseTools        Capability = "use_tools"
)

var selfService = []Capability{CapEditOwnProfile, CapUseTools}

var directory = []Capability{CapViewDirectory, CapManageEmployees, CapExportDirectory, CapViewAudit}

var roleCapabilities = map[Role][]Capability{
	RoleAdmin:             append(append([]Capability{}, selfService...), directory...),
	RoleHRAdmin:           append(append([]Capability{}, selfService...), directory...),
	RoleProductAdmin:      append(append([]Capability{}, selfService...), directory...),
	RoleMarketingAdmin:    append(append([]Capability{}, selfService...), directory...),
	RoleMarketingIncharge: append(append([]Capability{}, selfService...), directory...),
	RoleEmployee:          selfService,
	RoleHOManager:         selfService,
	RoleProductManager:    selfService,
	RoleSiteIncharge:      selfService,
	RoleZoneManager:       selfService,
	RoleRevoked:           nil,
}

func (r Role) Can(c Capability) bool {
	for _, have := range roleCapabilities[r] {
		if have == c {
			return true
		}
	}
	return false
}

func (r Role) Capabilities() []Capability {
	return append([]Capability(nil), roleCapabilities[r]...)
}

func (a Access) Can(c Capability) bool {
	return a.Role.Can(c)
}

// DirectoryTokens is the requirement guarding the employee directory.
var DirectoryTokens = []string{"Admin", "Marketing"}

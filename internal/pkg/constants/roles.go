package constants

const (
	Donor   = "donor"
	Charity = "charity"
	Vendor  = "vendor"
	Admin   = "admin"
)

// ValidRoles is the set of allowed values for users.role.
var ValidRoles = []string{Donor, Charity, Vendor, Admin}

// SelfServiceRoles may be chosen at registration; admins are provisioned out of band.
var SelfServiceRoles = []string{Donor, Charity, Vendor}

// IsValidRole returns true if role is one of the allowed values.
func IsValidRole(role string) bool {
	return contains(ValidRoles, role)
}

func IsSelfServiceRole(role string) bool {
	return contains(SelfServiceRoles, role)
}

func contains(list []string, v string) bool {
	for _, r := range list {
		if r == v {
			return true
		}
	}
	return false
}

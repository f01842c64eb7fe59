package constants

const (
	Superadmin = "superadmin"
	Admin      = "admin"
)

// ValidRoles is the set of allowed admin roles.
var ValidRoles = []string{Admin, Superadmin}

// IsValidRole returns true if role is one of the allowed values.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Ledger and directory limits.
const (
	DirectoryDefaultLimit    = 50
	DirectoryMaxLimit        = 100
	DirectoryIncludeAllLimit = 500
	TransactionsLimit        = 100
)

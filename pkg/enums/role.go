package enums

import "fmt"

// VendorRole identifies the kind of seller a vendor group belongs to.
type VendorRole string

const (
	VendorRoleChef      VendorRole = "chef"
	VendorRolePharmacy  VendorRole = "pharmacy"
	VendorRoleVendor    VendorRole = "vendor"
	VendorRoleTopVendor VendorRole = "topvendor"
)

var validVendorRoles = []VendorRole{
	VendorRoleChef,
	VendorRolePharmacy,
	VendorRoleVendor,
	VendorRoleTopVendor,
}

// String implements fmt.Stringer.
func (r VendorRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known VendorRole.
func (r VendorRole) IsValid() bool {
	for _, candidate := range validVendorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseVendorRole converts raw input into a VendorRole.
func ParseVendorRole(value string) (VendorRole, error) {
	for _, candidate := range validVendorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vendor role %q", value)
}

// WalletRole identifies the owner kind of a wallet. It covers every vendor
// role plus the synthetic platform wallet and the delivery rider wallet.
type WalletRole string

const (
	WalletRoleChef      WalletRole = "chef"
	WalletRolePharmacy  WalletRole = "pharmacy"
	WalletRoleVendor    WalletRole = "vendor"
	WalletRoleTopVendor WalletRole = "topvendor"
	WalletRoleRider     WalletRole = "rider"
	WalletRolePlatform  WalletRole = "platform"
)

var validWalletRoles = []WalletRole{
	WalletRoleChef,
	WalletRolePharmacy,
	WalletRoleVendor,
	WalletRoleTopVendor,
	WalletRoleRider,
	WalletRolePlatform,
}

// String implements fmt.Stringer.
func (r WalletRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known WalletRole.
func (r WalletRole) IsValid() bool {
	for _, candidate := range validWalletRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseWalletRole converts raw input into a WalletRole.
func ParseWalletRole(value string) (WalletRole, error) {
	for _, candidate := range validWalletRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet role %q", value)
}

// WalletRole returns the wallet role a vendor role's earnings accrue to.
func (r VendorRole) WalletRole() WalletRole {
	return WalletRole(r)
}

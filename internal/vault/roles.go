package vault

import (
	sdkerrors "cosmossdk.io/errors"
)

// Role is a capability bitmask. Every management operation names the role it
// requires and validates the explicit caller against the role table; there
// is no ambient identity.
type Role uint32

const (
	// RoleStrategyManager may register and revoke strategies and set their
	// max debt.
	RoleStrategyManager Role = 1 << iota
	// RoleDebtManager may rebalance debt between idle and strategies.
	RoleDebtManager
	// RoleReporter may process strategy reports.
	RoleReporter
	// RoleQueueManager may replace the default withdrawal queue.
	RoleQueueManager
	// RoleLimitManager may set the deposit limit, minimum idle and the
	// profit unlock horizon.
	RoleLimitManager
	// RoleAccountantManager may swap the accountant and fee config.
	RoleAccountantManager
	// RoleEmergencyManager may shut the vault down.
	RoleEmergencyManager
	// RoleDebtPurchaser may buy strategy debt at face value.
	RoleDebtPurchaser
)

// AllRoles grants every capability.
const AllRoles = RoleStrategyManager | RoleDebtManager | RoleReporter |
	RoleQueueManager | RoleLimitManager | RoleAccountantManager |
	RoleEmergencyManager | RoleDebtPurchaser

// SetRole replaces a principal's capability set. Only the role manager named
// at construction may change roles.
func (v *Vault) SetRole(caller, principal string, roles Role) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if caller != v.roleManager {
		return sdkerrors.Wrapf(ErrNotAuthorized, "%s is not the role manager", caller)
	}
	if principal == "" {
		return ErrEmptyAddress
	}
	if roles == 0 {
		delete(v.roles, principal)
	} else {
		v.roles[principal] = roles
	}
	v.log.Info().Str("principal", principal).Uint32("roles", uint32(roles)).Msg("Role assignment updated")
	return nil
}

// Roles returns the capability set currently held by a principal.
func (v *Vault) Roles(principal string) Role {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.roles[principal]
}

func (v *Vault) requireRole(caller string, role Role) error {
	if caller == "" {
		return ErrEmptyAddress
	}
	if v.roles[caller]&role == 0 {
		return sdkerrors.Wrapf(ErrNotAuthorized, "caller %s lacks role %#x", caller, uint32(role))
	}
	return nil
}

package basic

import (
	"rpc-auth-go/internal/auth"
)

// Rule names, as reported by method introspection.
const (
	RuleLoginRequired       = "basic.login_required"
	RuleSuperuserRequired   = "basic.superuser_required"
	RulePermissionRequired  = "basic.permission_required"
	RulePermissionsRequired = "basic.permissions_required"
	RuleGroupRequired       = "basic.group_required"
	RuleAnyGroupRequired    = "basic.any_group_required"
)

// LoginRequired allows any authenticated user.
func (res *Resolver) LoginRequired() auth.Rule {
	return auth.Requires(RuleLoginRequired, res, auth.Bool(auth.UserIsLogged))
}

// SuperuserRequired allows superusers only.
func (res *Resolver) SuperuserRequired() auth.Rule {
	return auth.Requires(RuleSuperuserRequired, res, auth.Bool(auth.UserIsSuperuser))
}

// PermissionsRequired allows users holding perms. A single permission is
// checked with UserHasPerm, several with UserHasAllPerms.
func (res *Resolver) PermissionsRequired(perms ...string) auth.Rule {
	perms = append([]string(nil), perms...)
	if len(perms) == 1 {
		perm := perms[0]
		return auth.Requires(RulePermissionRequired, res, func(u auth.User) (bool, error) {
			return auth.UserHasPerm(u, perm), nil
		}, perm)
	}
	return auth.Requires(RulePermissionsRequired, res, func(u auth.User) (bool, error) {
		return auth.UserHasAllPerms(u, perms), nil
	}, perms...)
}

// GroupMemberRequired allows members of groups. A single group is checked
// with UserInGroup, several with UserInAnyGroup.
func (res *Resolver) GroupMemberRequired(groups ...auth.GroupRef) auth.Rule {
	groups = append([]auth.GroupRef(nil), groups...)
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.String())
	}
	if len(groups) == 1 {
		ref := groups[0]
		return auth.Requires(RuleGroupRequired, res, func(u auth.User) (bool, error) {
			return auth.UserInGroup(u, ref)
		}, names...)
	}
	return auth.Requires(RuleAnyGroupRequired, res, func(u auth.User) (bool, error) {
		return auth.UserInAnyGroup(u, groups)
	}, names...)
}

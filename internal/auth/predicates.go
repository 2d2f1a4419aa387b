package auth

// Superusers pass every permission and group predicate.

func UserIsLogged(u User) bool {
	return u != nil && !u.IsAnonymous()
}

func UserIsSuperuser(u User) bool {
	return u != nil && u.IsSuperuser()
}

func UserHasPerm(u User, perm string) bool {
	if u == nil {
		return false
	}
	return UserIsSuperuser(u) || u.HasPerm(perm)
}

// UserHasAllPerms returns true if the user holds every given permission.
func UserHasAllPerms(u User, perms []string) bool {
	if u == nil {
		return false
	}
	return UserIsSuperuser(u) || u.HasPerms(perms)
}

func UserHasAnyPerm(u User, perms []string) bool {
	if UserIsSuperuser(u) {
		return true
	}
	for _, p := range perms {
		if UserHasPerm(u, p) {
			return true
		}
	}
	return false
}

// UserInGroup returns true if the user belongs to the given group.
// An invalid ref fails with ErrGroupType, superuser or not.
func UserInGroup(u User, ref GroupRef) (bool, error) {
	if err := ref.validate(); err != nil {
		return false, err
	}
	if u == nil {
		return false, nil
	}
	if UserIsSuperuser(u) {
		return true, nil
	}
	return u.InGroup(ref)
}

// UserInAnyGroup returns true if the user is in at least one of the groups.
func UserInAnyGroup(u User, refs []GroupRef) (bool, error) {
	if UserIsSuperuser(u) {
		return true, nil
	}
	for _, ref := range refs {
		ok, err := UserInGroup(u, ref)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// UserInAllGroups returns true if the user is in every given group.
func UserInAllGroups(u User, refs []GroupRef) (bool, error) {
	if UserIsSuperuser(u) {
		return true, nil
	}
	for _, ref := range refs {
		ok, err := UserInGroup(u, ref)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

package registry

import (
	"fmt"

	"rpc-auth-go/internal/auth"
	"rpc-auth-go/internal/auth/basic"
	"rpc-auth-go/internal/config"
)

// RulesFor builds the rules declared by b, in a fixed order: login,
// superuser, permissions, groups.
func RulesFor(b config.MethodBinding, res *basic.Resolver) (auth.Rules, error) {
	var rules []auth.Rule
	if b.LoginRequired {
		rules = append(rules, res.LoginRequired())
	}
	if b.Superuser {
		rules = append(rules, res.SuperuserRequired())
	}
	if len(b.Permissions) > 0 {
		rules = append(rules, res.PermissionsRequired(b.Permissions...))
	}
	if b.Groups != nil {
		refs, err := auth.ParseGroupRefs(b.Groups)
		if err != nil {
			return auth.Rules{}, err
		}
		if len(refs) > 0 {
			rules = append(rules, res.GroupMemberRequired(refs...))
		}
	}
	return auth.NewRules(rules...), nil
}

// Bind registers every method of bindings with the rules it declares.
func (reg *Registry) Bind(bindings []config.MethodBinding, res *basic.Resolver) error {
	for i, b := range bindings {
		rules, err := RulesFor(b, res)
		if err != nil {
			return fmt.Errorf("methods[%d] %s: %w", i, b.Name, err)
		}
		err = reg.Register(Method{
			Name:      b.Name,
			Help:      b.Help,
			Signature: b.Signature,
			Rules:     rules,
		})
		if err != nil {
			return fmt.Errorf("methods[%d]: %w", i, err)
		}
	}
	return nil
}

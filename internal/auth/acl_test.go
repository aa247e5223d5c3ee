package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRuleKinds(t *testing.T) {
	cases := []struct {
		token string
		kind  RuleKind
		value string
	}{
		{"+get", RuleAllowCommand, "get"},
		{"+@read", RuleAllowCategory, "read"},
		{"-shutdown", RuleDenyCommand, "shutdown"},
		{"~news:*", RuleKeyPattern, "news:*"},
		{">abc123", RulePasswordHash, "abc123"},
	}
	for _, c := range cases {
		r, ok := ParseRule(c.token)
		require.True(t, ok, c.token)
		require.Equal(t, c.kind, r.Kind)
		require.Equal(t, c.value, r.Value)
	}
}

func TestParseRuleRejectsUnknownPrefix(t *testing.T) {
	_, ok := ParseRule("?nope")
	require.False(t, ok)
}

func TestACLAllowByCategory(t *testing.T) {
	acl := NewACL(ParseRules("+@read ~news:*"))
	require.True(t, acl.CanRunCommand("get"))
	require.False(t, acl.CanRunCommand("set"))
}

func TestACLDenyOverridesAllowCategory(t *testing.T) {
	acl := NewACL(ParseRules("+@read -get"))
	require.False(t, acl.CanRunCommand("get"))
	require.True(t, acl.CanRunCommand("hget"))
}

func TestACLKeyPatternRestriction(t *testing.T) {
	acl := NewACL(ParseRules("+@read ~news:*"))
	require.True(t, acl.CanAccessKey("news:sports"))
	require.False(t, acl.CanAccessKey("billing:invoice"))
}

func TestACLNoKeyPatternsMeansUnrestricted(t *testing.T) {
	acl := NewACL(ParseRules("+@read"))
	require.True(t, acl.CanAccessKey("anything"))
}

func TestACLDefaultDenyWithNoAllowRules(t *testing.T) {
	acl := NewACL(ParseRules("-get"))
	require.False(t, acl.CanRunCommand("set"))
}

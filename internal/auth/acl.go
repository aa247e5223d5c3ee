package auth

import (
	"strings"

	"github.com/emberkv/emberkv/internal/pubsub"
)

// RuleKind distinguishes the five ACL rule forms named in spec.md
// §4.11: +command, +@category, -command, ~key-glob, >password-hash.
type RuleKind int

const (
	RuleAllowCommand RuleKind = iota
	RuleAllowCategory
	RuleDenyCommand
	RuleKeyPattern
	RulePasswordHash
)

// Rule is one parsed ACL grammar token.
type Rule struct {
	Kind  RuleKind
	Value string // command/category name, key glob, or password hash
}

// categories maps a category name to the lowercase command names it
// covers, per SPEC_FULL.md's "category membership tables for common
// commands".
var categories = map[string][]string{
	"string":    {"get", "set", "append", "strlen", "getset", "incr", "decr", "incrby", "decrby"},
	"list":      {"lpush", "rpush", "lpop", "rpop", "llen", "lrange"},
	"hash":      {"hset", "hget", "hdel", "hgetall", "hincrby"},
	"set":       {"sadd", "srem", "smembers", "sismember"},
	"sortedset": {"zadd", "zrem", "zscore", "zrange", "zcard"},
	"bitmap":    {"setbit", "getbit", "bitcount"},
	"geo":       {"geoadd", "geopos", "geodist", "georadius"},
	"stream":    {"xadd", "xrange", "xlen", "xtrim"},
	"pubsub":    {"subscribe", "unsubscribe", "psubscribe", "publish"},
	"admin":     {"config", "shutdown", "cluster", "acl", "auth"},
	"read":      {"get", "hget", "hgetall", "lrange", "smembers", "zrange", "zscore", "geopos", "geodist", "xrange", "xlen"},
	"write": {
		"set", "append", "incr", "decr", "incrby", "decrby", "lpush", "rpush", "lpop", "rpop",
		"hset", "hdel", "hincrby", "sadd", "srem", "zadd", "zrem", "setbit", "geoadd", "xadd", "xtrim",
	},
}

// ParseRule parses one ACL grammar token.
func ParseRule(token string) (Rule, bool) {
	if token == "" {
		return Rule{}, false
	}
	switch token[0] {
	case '+':
		rest := token[1:]
		if strings.HasPrefix(rest, "@") {
			return Rule{Kind: RuleAllowCategory, Value: strings.ToLower(rest[1:])}, true
		}
		return Rule{Kind: RuleAllowCommand, Value: strings.ToLower(rest)}, true
	case '-':
		return Rule{Kind: RuleDenyCommand, Value: strings.ToLower(token[1:])}, true
	case '~':
		return Rule{Kind: RuleKeyPattern, Value: token[1:]}, true
	case '>':
		return Rule{Kind: RulePasswordHash, Value: token[1:]}, true
	default:
		return Rule{}, false
	}
}

// ParseRules parses a whitespace-separated list of ACL grammar
// tokens, skipping (rather than erroring on) any that don't parse —
// matching a permissive ACL string split on load.
func ParseRules(spec string) []Rule {
	var rules []Rule
	for _, tok := range strings.Fields(spec) {
		if r, ok := ParseRule(tok); ok {
			rules = append(rules, r)
		}
	}
	return rules
}

// ACL evaluates a set of parsed rules against a requested command and
// key, applying deny-overrides-allow and a default-deny posture when
// no command or category rule grants access.
type ACL struct {
	rules []Rule
}

// NewACL builds an ACL from already-parsed rules.
func NewACL(rules []Rule) *ACL { return &ACL{rules: rules} }

// CanRunCommand reports whether cmd (lowercase) is permitted. Deny
// rules always win over allow rules, regardless of rule order.
func (a *ACL) CanRunCommand(cmd string) bool {
	cmd = strings.ToLower(cmd)
	allowed := false
	for _, r := range a.rules {
		switch r.Kind {
		case RuleAllowCommand:
			if r.Value == cmd {
				allowed = true
			}
		case RuleAllowCategory:
			if commandInCategory(cmd, r.Value) {
				allowed = true
			}
		case RuleDenyCommand:
			if r.Value == cmd {
				return false
			}
		}
	}
	return allowed
}

// CanAccessKey reports whether key matches at least one ~glob rule.
// An ACL with no key-pattern rules at all is treated as unrestricted
// (matches every key), matching Redis's "no ~ rules means all keys".
func (a *ACL) CanAccessKey(key string) bool {
	hasPatterns := false
	for _, r := range a.rules {
		if r.Kind != RuleKeyPattern {
			continue
		}
		hasPatterns = true
		if pubsub.MatchGlob(r.Value, key) {
			return true
		}
	}
	return !hasPatterns
}

func commandInCategory(cmd, category string) bool {
	for _, c := range categories[category] {
		if c == cmd {
			return true
		}
	}
	return false
}

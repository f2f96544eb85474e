package asm

import (
	"fmt"
	"strings"
)

// Macro is a textual substitution rule.
type Macro struct {
	Name  string
	Value string
}

func (m Macro) String() string {
	return fmt.Sprintf("%s -> %s", m.Name, m.Value)
}

// MacroPolicy decides which definition of a name is applied when the name is
// defined more than once.
type MacroPolicy int

const (
	FirstDefinitionWins MacroPolicy = iota
	LastDefinitionWins
)

func (p MacroPolicy) String() string {
	switch p {
	case FirstDefinitionWins:
		return "first"
	case LastDefinitionWins:
		return "last"
	}
	return fmt.Sprintf("MacroPolicy(%d)", int(p))
}

// ParseMacroPolicy maps "first" and "last" to their policies.
func ParseMacroPolicy(s string) (MacroPolicy, error) {
	switch strings.ToLower(s) {
	case "first":
		return FirstDefinitionWins, nil
	case "last":
		return LastDefinitionWins, nil
	}
	return 0, fmt.Errorf("unknown macro policy %q", s)
}

// MacroTable is an append-only, ordered list of rules. Every definition is
// kept, duplicates included; the policy only selects which one expands.
type MacroTable struct {
	rules  []Macro
	policy MacroPolicy
}

func NewMacroTable(policy MacroPolicy) *MacroTable {
	return &MacroTable{policy: policy}
}

// Define appends a rule.
func (m *MacroTable) Define(name, value string) {
	m.rules = append(m.rules, Macro{Name: name, Value: value})
}

func (m *MacroTable) Len() int { return len(m.rules) }

// All returns a copy of every rule in definition order.
func (m *MacroTable) All() []Macro {
	return append([]Macro(nil), m.rules...)
}

// Expand applies the table to line once.
func (m *MacroTable) Expand(line string) string {
	return expand(m.rules, m.policy, line)
}

// Snapshot returns an immutable view of the first n rules. Since the table
// only grows, a snapshot taken after line k is exactly the state line k+1 sees.
func (m *MacroTable) Snapshot(n int) MacroSnapshot {
	if n > len(m.rules) {
		n = len(m.rules)
	}
	return MacroSnapshot{rules: m.rules[:n:n], policy: m.policy}
}

// truncate drops rules past n. Only used to roll back an aborted pass.
func (m *MacroTable) truncate(n int) {
	if n < len(m.rules) {
		m.rules = m.rules[:n]
	}
}

// MacroSnapshot is a read-only prefix of a MacroTable, safe for concurrent use.
type MacroSnapshot struct {
	rules  []Macro
	policy MacroPolicy
}

func (s MacroSnapshot) Len() int { return len(s.rules) }

func (s MacroSnapshot) Expand(line string) string {
	return expand(s.rules, s.policy, line)
}

// expand replaces every occurrence of each effective rule's name in table
// order. Each name is applied once, at the position of its winning
// definition; later rules see the output of earlier ones.
func expand(rules []Macro, policy MacroPolicy, line string) string {
	if len(rules) == 0 {
		return line
	}

	var last map[string]int
	if policy == LastDefinitionWins {
		last = make(map[string]int, len(rules))
		for i, r := range rules {
			last[r.Name] = i
		}
	}
	applied := make(map[string]bool, len(rules))

	for i, r := range rules {
		if r.Name == "" {
			continue
		}
		switch policy {
		case LastDefinitionWins:
			if last[r.Name] != i {
				continue
			}
		default:
			if applied[r.Name] {
				continue
			}
			applied[r.Name] = true
		}
		line = strings.ReplaceAll(line, r.Name, r.Value)
	}
	return line
}

package command

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cory-johannsen/verbmud/internal/game/world"
)

// Verb is a command handler. Implementations are stateless and shared by all sessions.
type Verb interface {
	// Name is the canonical lowercase command word.
	Name() string
	Kind() Kind
	// Validate checks the phrase's shape, returning a *BadArgumentsError on mismatch.
	Validate(p *Phrase) error
	// Execute runs the verb against world state on behalf of actor.
	Execute(ctx context.Context, w world.Store, actor world.Actor, p *Phrase) (*Response, error)
}

// Command is a registered verb with its aliases and help metadata.
type Command struct {
	Verb    Verb
	Aliases []string
	// Help is the short help text displayed to players.
	Help string
	// Category groups the command (movement, world, combat, emote).
	Category string
}

// Name returns the verb's canonical name.
func (c *Command) Name() string { return c.Verb.Name() }

// Registry maps command names and aliases to Commands.
type Registry struct {
	commands map[string]*Command // canonical name → command
	aliases  map[string]string   // alias → canonical name
}

// NewRegistry creates a Registry populated with the given commands.
//
// Precondition: No two commands may share a canonical name or alias.
// Postcondition: Returns a Registry or an error on name/alias collisions.
func NewRegistry(cmds []Command) (*Registry, error) {
	r := &Registry{
		commands: make(map[string]*Command, len(cmds)),
		aliases:  make(map[string]string),
	}

	for i := range cmds {
		cmd := &cmds[i]
		if cmd.Verb == nil {
			return nil, fmt.Errorf("command %d has no verb", i)
		}
		name := cmd.Name()
		if name == "" || name != strings.ToLower(name) {
			return nil, fmt.Errorf("command name %q must be non-empty and lowercase", name)
		}
		if _, exists := r.commands[name]; exists {
			return nil, fmt.Errorf("duplicate command name: %q", name)
		}
		if _, exists := r.aliases[name]; exists {
			return nil, fmt.Errorf("command name %q conflicts with an existing alias", name)
		}
		r.commands[name] = cmd

		for _, alias := range cmd.Aliases {
			if _, exists := r.commands[alias]; exists {
				return nil, fmt.Errorf("alias %q conflicts with command name %q", alias, alias)
			}
			if existing, exists := r.aliases[alias]; exists {
				return nil, fmt.Errorf("duplicate alias %q: used by %q and %q", alias, existing, name)
			}
			r.aliases[alias] = name
		}
	}

	return r, nil
}

// DefaultRegistry creates a Registry with all built-in commands.
//
// Postcondition: Returns a Registry with all built-in commands registered.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(BuiltinCommands())
	if err != nil {
		panic(fmt.Sprintf("building default registry: %v", err))
	}
	return r
}

// Resolve looks up a command by name or alias, case-insensitively.
//
// Postcondition: Returns (command, true) if found, or (nil, false).
func (r *Registry) Resolve(input string) (*Command, bool) {
	input = strings.ToLower(input)
	if cmd, ok := r.commands[input]; ok {
		return cmd, true
	}
	if canonical, ok := r.aliases[input]; ok {
		return r.commands[canonical], true
	}
	return nil, false
}

// Commands returns all registered commands sorted by name.
func (r *Registry) Commands() []*Command {
	result := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		result = append(result, cmd)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}

// Words returns every name and alias that resolves to a command.
func (r *Registry) Words() []string {
	words := make([]string, 0, len(r.commands)+len(r.aliases))
	for name := range r.commands {
		words = append(words, name)
	}
	for alias := range r.aliases {
		words = append(words, alias)
	}
	sort.Strings(words)
	return words
}

// CommandsByCategory returns commands grouped by category.
func (r *Registry) CommandsByCategory() map[string][]*Command {
	categories := make(map[string][]*Command)
	for _, cmd := range r.Commands() {
		categories[cmd.Category] = append(categories[cmd.Category], cmd)
	}
	return categories
}

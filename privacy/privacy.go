// Package privacy provides write policies evaluated before a persister
// issues any statement, and the types and helpers for writing their rules.
package privacy

import (
	"context"
	"errors"
	"fmt"

	"github.com/syssam/persist"
	"github.com/syssam/persist/schema"
)

// Policy decision sentinel errors.
//
// Rules return them to steer the evaluation. Use errors.Is to check for
// them:
//
//	if errors.Is(err, privacy.Deny) { ... }
var (
	// Allow may be returned by rules to indicate that the policy
	// evaluation should terminate with an allow decision.
	Allow = errors.New("persist/privacy: allow rule")

	// Deny may be returned by rules to indicate that the policy
	// evaluation should terminate with a deny decision.
	Deny = errors.New("persist/privacy: deny rule")

	// Skip may be returned by rules to indicate that the policy
	// evaluation should continue to the next rule.
	Skip = errors.New("persist/privacy: skip rule")
)

// Allowf returns a formatted wrapped Allow decision.
func Allowf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Allow)...)
}

// Denyf returns a formatted wrapped Deny decision.
func Denyf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Deny)...)
}

// Skipf returns a formatted wrapped Skip decision.
func Skipf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Skip)...)
}

// Mutation describes a write about to run.
type Mutation struct {
	Op    persist.Op
	Model *schema.Model
	Table string
	// Object is the inserted or deleted object, or the updated state of
	// an updated one.
	Object any
	// Original is the stored state of an updated object. It is nil for
	// inserts and deletes.
	Original any
}

// NewMutation returns the mutation of obj of model m in table.
func NewMutation(op persist.Op, m *schema.Model, table string, original, obj any) *Mutation {
	return &Mutation{Op: op, Model: m, Table: table, Object: obj, Original: original}
}

// Field returns the value of the named property of the mutated object.
// It reports false when the model has no such property or the value is
// nil.
func (m *Mutation) Field(name string) (any, bool) {
	return m.field(m.Object, name)
}

// OriginalField is like Field for the stored state of an updated object.
func (m *Mutation) OriginalField(name string) (any, bool) {
	return m.field(m.Original, name)
}

func (m *Mutation) field(obj any, name string) (any, bool) {
	if schema.IsNil(obj) || m.Model == nil || m.Model.Property(name) == nil {
		return nil, false
	}
	v := m.Model.Get(obj, name)
	return v, !schema.IsNil(v)
}

type (
	// MutationRule defines the interface deciding whether a mutation is
	// allowed.
	MutationRule interface {
		EvalMutation(context.Context, *Mutation) error
	}

	// MutationPolicy combines multiple mutation rules into a single policy.
	MutationPolicy []MutationRule
)

// MutationRuleFunc type is an adapter which allows the use of
// ordinary functions as mutation rules.
type MutationRuleFunc func(context.Context, *Mutation) error

// EvalMutation returns f(ctx, m).
func (f MutationRuleFunc) EvalMutation(ctx context.Context, m *Mutation) error {
	return f(ctx, m)
}

// EvalMutation evaluates the rules in order. A decision attached to ctx
// wins over the rules. The first rule that neither skips nor returns nil
// decides; an Allow decision yields nil. When every rule skips the
// mutation is allowed.
func (policy MutationPolicy) EvalMutation(ctx context.Context, m *Mutation) error {
	if decision, ok := DecisionFromContext(ctx); ok {
		return decision
	}
	for _, rule := range policy {
		switch decision := rule.EvalMutation(ctx, m); {
		case decision == nil || errors.Is(decision, Skip):
		case errors.Is(decision, Allow):
			return nil
		default:
			return decision
		}
	}
	return nil
}

// Eval runs rule on m and reduces the result to nil or a deny error.
func Eval(ctx context.Context, rule MutationRule, m *Mutation) error {
	switch decision := rule.EvalMutation(ctx, m); {
	case decision == nil || errors.Is(decision, Skip) || errors.Is(decision, Allow):
		return nil
	default:
		return decision
	}
}

// OnMutationOperation evaluates the given rule only on a given mutation
// operation.
func OnMutationOperation(rule MutationRule, op persist.Op) MutationRule {
	return MutationRuleFunc(func(ctx context.Context, m *Mutation) error {
		if m.Op.Is(op) {
			return rule.EvalMutation(ctx, m)
		}
		return Skip
	})
}

// OnModel evaluates the given rule only on mutations of the named models.
func OnModel(rule MutationRule, models ...string) MutationRule {
	return MutationRuleFunc(func(ctx context.Context, m *Mutation) error {
		for _, name := range models {
			if m.Model != nil && m.Model.Name == name {
				return rule.EvalMutation(ctx, m)
			}
		}
		return Skip
	})
}

// DenyMutationOperationRule returns a rule denying specified mutation
// operation.
func DenyMutationOperationRule(op persist.Op) MutationRule {
	rule := MutationRuleFunc(func(_ context.Context, m *Mutation) error {
		return Denyf("persist/privacy: operation %s is not allowed", m.Op)
	})
	return OnMutationOperation(rule, op)
}

// AllowMutationOperationRule returns a rule allowing specified mutation
// operation.
func AllowMutationOperationRule(op persist.Op) MutationRule {
	rule := MutationRuleFunc(func(context.Context, *Mutation) error {
		return Allow
	})
	return OnMutationOperation(rule, op)
}

// AlwaysAllowRule returns a rule that always returns an Allow decision.
func AlwaysAllowRule() MutationRule {
	return fixedDecision{Allow}
}

// AlwaysDenyRule returns a rule that always returns a Deny decision.
func AlwaysDenyRule() MutationRule {
	return fixedDecision{Deny}
}

// ContextMutationRule creates a mutation rule from a context evaluation
// function. Returning nil is equivalent to returning Skip.
func ContextMutationRule(eval func(context.Context) error) MutationRule {
	return MutationRuleFunc(func(ctx context.Context, _ *Mutation) error {
		return eval(ctx)
	})
}

type decisionCtxKey struct{}

// DecisionContext creates a new context from the given parent context with
// a policy decision attach to it.
func DecisionContext(parent context.Context, decision error) context.Context {
	if decision == nil || errors.Is(decision, Skip) {
		return parent
	}
	return context.WithValue(parent, decisionCtxKey{}, decision)
}

// DecisionFromContext retrieves the policy decision from the context.
func DecisionFromContext(ctx context.Context) (error, bool) {
	decision, ok := ctx.Value(decisionCtxKey{}).(error)
	if ok && errors.Is(decision, Allow) {
		decision = nil
	}
	return decision, ok
}

type fixedDecision struct {
	decision error
}

func (f fixedDecision) EvalMutation(context.Context, *Mutation) error {
	return f.decision
}

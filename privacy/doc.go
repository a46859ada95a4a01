// Package privacy provides write policies for persisters.
//
// A policy is a list of rules evaluated before a top-level insert, update
// or delete issues any statement. Each rule returns a decision:
//
//   - Allow grants the write and stops evaluation
//   - Deny rejects the write and stops evaluation
//   - Skip defers to the next rule
//
// A policy whose rules all skip allows the write. Rules usually read the
// viewer attached to the context:
//
//	policy := privacy.MutationPolicy{
//	    privacy.DenyIfNoViewer(),
//	    privacy.HasRole("admin"),
//	    privacy.TenantRule("tenant_id"),
//	    privacy.AlwaysDenyRule(),
//	}
//	p := sqlgraph.New(sqlgraph.WithPolicy(policy))
//
//	ctx = privacy.WithViewer(ctx, &privacy.SimpleViewer{UserID: "u1", TenantID: "t1"})
//	_, err := p.Insert(ctx, tx, dialect.Postgres, "account", account, obj)
//	if errors.Is(err, privacy.Deny) {
//	    // Nothing was written.
//	}
//
// A decision attached with DecisionContext bypasses the rules, e.g. for
// system jobs:
//
//	ctx = privacy.DecisionContext(ctx, privacy.Allow)
package privacy

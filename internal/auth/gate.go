package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/senma231/checkprice-sub001/internal/orgtree"
	"github.com/senma231/checkprice-sub001/internal/permission"
)

// decisions counts gate results by state.
var decisions = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Namespace: "checkprice",
		Name:      "authz_decisions_total",
		Help:      "Number of authorization gate decisions, differentiated by result.",
	},
	[]string{"result"},
)

// PrincipalResolver recomputes a principal from the current role assignments.
// It returns ErrUserNotFound or ErrUserAccountDisabled for accounts that can no
// longer act.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, userID uint64) (*Principal, error)
}

// OrganizationSource supplies the flat organization list for scope checks.
type OrganizationSource interface {
	OrganizationRecords(ctx context.Context) ([]orgtree.Record, error)
}

// State is the state of one gate decision.
type State int

const (
	// StatePending is the state before a check completed.
	StatePending State = iota
	// StateAllowed lets the request proceed.
	StateAllowed
	// StateUnauthenticated denies a request without a usable principal.
	StateUnauthenticated
	// StateForbidden denies a request whose principal lacks permissions.
	StateForbidden
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateAllowed:
		return "allowed"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateForbidden:
		return "forbidden"
	default:
		return "pending"
	}
}

// Requirement is the metadata a protected operation declares. AnyOf passes
// when one code is held, AllOf when every code is held. ScopeOrgID, when set,
// must lie in the principal's organization subtree.
type Requirement struct {
	AnyOf      []permission.Code
	AllOf      []permission.Code
	ScopeOrgID *uint
}

// Codes returns every code named by r.
func (r Requirement) Codes() []permission.Code {
	out := make([]permission.Code, 0, len(r.AnyOf)+len(r.AllOf))
	out = append(out, r.AnyOf...)

	return append(out, r.AllOf...)
}

// Decision is the terminal result of a gate check. Principal is the freshly
// resolved principal when the check got that far.
type Decision struct {
	State     State
	Principal *Principal
}

// Allowed reports whether the request may proceed.
func (d Decision) Allowed() bool {
	return d.State == StateAllowed
}

// Err maps a denial to ErrUnauthenticated or ErrForbidden, nil when allowed.
func (d Decision) Err() error {
	switch d.State {
	case StateAllowed:
		return nil
	case StateUnauthenticated:
		return ErrUnauthenticated
	default:
		return ErrForbidden
	}
}

// Gate is the choke point in front of every protected operation. A check never
// writes; a denied request reaches no data operation.
type Gate struct {
	evaluator *Evaluator
	resolver  PrincipalResolver
	orgs      OrganizationSource
}

// NewGate returns a gate deciding with e over principals from r and the
// organization list from o.
func NewGate(e *Evaluator, r PrincipalResolver, o OrganizationSource) *Gate {
	return &Gate{evaluator: e, resolver: r, orgs: o}
}

// Evaluator returns the evaluator of the gate.
func (g *Gate) Evaluator() *Evaluator {
	return g.evaluator
}

// Validate checks that every code named by reqs is registered.
func (g *Gate) Validate(reqs ...Requirement) error {
	var codes []permission.Code
	for _, r := range reqs {
		codes = append(codes, r.Codes()...)
	}

	return g.evaluator.Registry().Validate(codes...)
}

// Check decides req for the principal carried by the session. The session
// principal only identifies the user; permissions are resolved again. Errors
// are returned for persistence failures only, never for a denial.
func (g *Gate) Check(ctx context.Context, session *Principal, req Requirement) (Decision, error) {
	if session == nil || session.UserID == 0 {
		return g.decide(Decision{State: StateUnauthenticated}, req, "no session principal"), nil
	}

	p, err := g.resolver.ResolvePrincipal(ctx, session.UserID)

	switch {
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrUserAccountDisabled):
		return g.decide(Decision{State: StateUnauthenticated}, req, err.Error()), nil
	case err != nil:
		return Decision{State: StatePending}, fmt.Errorf("resolve principal %d: %w", session.UserID, err)
	}

	d := Decision{State: StateForbidden, Principal: p}

	if len(req.AnyOf) > 0 && !g.evaluator.HasAnyPermission(p, req.AnyOf...) {
		return g.decide(d, req, "none of the required permissions"), nil
	}

	if !g.evaluator.HasAllPermissions(p, req.AllOf...) {
		return g.decide(d, req, "missing a required permission"), nil
	}

	if req.ScopeOrgID != nil && !g.evaluator.HasGlobalScope(p) {
		forest, errForest := g.Forest(ctx)
		if errForest != nil {
			return Decision{State: StatePending}, errForest
		}

		if !g.evaluator.CanAccessOrganizationScope(p, *req.ScopeOrgID, forest) {
			return g.decide(d, req, "organization out of scope"), nil
		}
	}

	d.State = StateAllowed

	return g.decide(d, req, ""), nil
}

// Forest builds a hierarchy snapshot from the organization source.
func (g *Gate) Forest(ctx context.Context) (*orgtree.Forest, error) {
	records, err := g.orgs.OrganizationRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load organizations: %w", err)
	}

	return orgtree.Build(records), nil
}

func (g *Gate) decide(d Decision, req Requirement, reason string) Decision {
	decisions.WithLabelValues(d.State.String()).Inc()

	if d.State == StateAllowed {
		return d
	}

	ev := log.Info().Str("decision", d.State.String()).Str("reason", reason)

	if d.Principal != nil {
		ev = ev.Uint64("user_id", d.Principal.UserID)
	}

	if codes := req.Codes(); len(codes) > 0 {
		raw := make([]string, 0, len(codes))
		for _, c := range codes {
			raw = append(raw, string(c))
		}

		ev = ev.Strs("required", raw)
	}

	if req.ScopeOrgID != nil {
		ev = ev.Uint("scope_org_id", *req.ScopeOrgID)
	}

	ev.Msg("authorization denied")

	return d
}

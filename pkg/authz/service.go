// Package authz is the deny-first ACL evaluator and the entry mutation API.
//
// A Service answers "may user U do P on resource R" by resolving U into
// principals (the user and its current groups), collecting the entries on R
// and the inheritable grants on R's parent, and applying
//
//	effective = OR(grants) &^ OR(denies)
//	allowed   = effective & required == required
//
// The Service holds no mutable state and is safe for concurrent use.
package authz

import (
	"context"
	"fmt"
	"time"

	"github.com/juju/clock"

	"github.com/kanbu/kanbu-acl/internal/logger"
	"github.com/kanbu/kanbu-acl/internal/telemetry"
	"github.com/kanbu/kanbu-acl/pkg/acl"
)

// EntryStore persists ACL entries.
type EntryStore interface {
	UpsertEntry(ctx context.Context, entry acl.Entry) (uint, error)
	DeleteEntries(ctx context.Context, resource acl.ResourceRef, principal acl.PrincipalRef) (int64, error)
	FindEntries(ctx context.Context, resource acl.ResourceRef, principals []acl.PrincipalRef, inheritableGrantsOnly bool) ([]acl.Entry, error)
	ListEntries(ctx context.Context, resource acl.ResourceRef) ([]acl.Entry, error)
}

// Store is everything the Service reads and writes, as implemented by
// store.GORMStore.
type Store interface {
	EntryStore
	MembershipLister
	ProjectLookup
}

// Mutation operation names used in metrics and logs.
const (
	OpGrant  = "grant"
	OpDeny   = "deny"
	OpRevoke = "revoke"
)

var mutationSpans = map[string]string{
	OpGrant:  telemetry.SpanGrant,
	OpDeny:   telemetry.SpanDeny,
	OpRevoke: telemetry.SpanRevoke,
}

// Service evaluates and mutates ACL entries.
type Service struct {
	entries    EntryStore
	principals PrincipalResolver
	hierarchy  HierarchyResolver
	metrics    *Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records evaluations and mutations on m.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService wires a Service from its collaborators.
func NewService(entries EntryStore, principals PrincipalResolver, hierarchy HierarchyResolver, opts ...Option) *Service {
	s := &Service{
		entries:    entries,
		principals: principals,
		hierarchy:  hierarchy,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromStore wires a Service whose resolvers read from st. Membership
// expiry is judged against clk (nil means the wall clock).
func NewFromStore(st Store, clk clock.Clock, opts ...Option) *Service {
	return NewService(st, NewMembershipResolver(st, clk), NewProjectHierarchy(st), opts...)
}

// ============================================
// MUTATIONS
// ============================================

// Grant gives principal the permissions on resource, replacing any previous
// grant for the pair. inherit controls whether the grant also applies to the
// resource's children. Returns the entry ID.
func (s *Service) Grant(ctx context.Context, resource acl.ResourceRef, principal acl.PrincipalRef, permissions acl.Permission, inherit bool) (uint, error) {
	return s.upsert(ctx, OpGrant, acl.Entry{
		Resource:          resource,
		Principal:         principal,
		Permissions:       permissions,
		InheritToChildren: inherit,
	})
}

// Deny blocks the permissions for principal on resource, replacing any
// previous deny for the pair. Denies apply to resource only.
func (s *Service) Deny(ctx context.Context, resource acl.ResourceRef, principal acl.PrincipalRef, permissions acl.Permission) (uint, error) {
	return s.upsert(ctx, OpDeny, acl.Entry{
		Resource:    resource,
		Principal:   principal,
		Permissions: permissions,
		IsDeny:      true,
	})
}

func (s *Service) upsert(ctx context.Context, op string, entry acl.Entry) (uint, error) {
	if err := s.validateMutation(entry.Resource, entry.Principal); err != nil {
		return 0, err
	}
	if err := acl.Validate(entry.Permissions); err != nil {
		s.metrics.ObserveValidationError()
		return 0, err
	}

	ctx, span := telemetry.StartMutationSpan(ctx, mutationSpans[op], op, entry.Resource, entry.Principal,
		telemetry.Permissions(entry.Permissions))
	defer span.End()

	id, err := s.entries.UpsertEntry(ctx, entry)
	if err != nil {
		s.storeFailure(ctx, op, err)
		return 0, fmt.Errorf("%s %s on %s: %w", op, entry.Principal, entry.Resource, err)
	}

	s.metrics.ObserveMutation(op)
	logger.InfoCtx(ctx, "acl entry saved",
		logger.KeyOperation, op,
		logger.Resource(entry.Resource),
		logger.Principal(entry.Principal),
		logger.Permissions(logger.KeyPermissions, entry.Permissions),
		logger.KeyDeny, entry.IsDeny,
		logger.KeyInherit, entry.InheritToChildren && !entry.IsDeny,
		logger.KeyEntryID, id,
	)
	return id, nil
}

// Revoke removes both the grant and the deny of principal on resource.
// Revoking a pair with no entries is not an error.
func (s *Service) Revoke(ctx context.Context, resource acl.ResourceRef, principal acl.PrincipalRef) error {
	_, err := s.revoke(ctx, resource, principal)
	return err
}

// RevokeStrict is Revoke for callers that expect a prior entry; it returns
// acl.ErrEntryNotFound when there was nothing to remove.
func (s *Service) RevokeStrict(ctx context.Context, resource acl.ResourceRef, principal acl.PrincipalRef) error {
	n, err := s.revoke(ctx, resource, principal)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s on %s", acl.ErrEntryNotFound, principal, resource)
	}
	return nil
}

func (s *Service) revoke(ctx context.Context, resource acl.ResourceRef, principal acl.PrincipalRef) (int64, error) {
	if err := s.validateMutation(resource, principal); err != nil {
		return 0, err
	}

	ctx, span := telemetry.StartMutationSpan(ctx, mutationSpans[OpRevoke], OpRevoke, resource, principal)
	defer span.End()

	n, err := s.entries.DeleteEntries(ctx, resource, principal)
	if err != nil {
		s.storeFailure(ctx, OpRevoke, err)
		return 0, fmt.Errorf("revoke %s on %s: %w", principal, resource, err)
	}

	s.metrics.ObserveMutation(OpRevoke)
	logger.InfoCtx(ctx, "acl entries revoked",
		logger.Resource(resource),
		logger.Principal(principal),
		logger.KeyEntries, n,
	)
	return n, nil
}

func (s *Service) validateMutation(resource acl.ResourceRef, principal acl.PrincipalRef) error {
	if err := acl.ValidateResource(resource); err != nil {
		s.metrics.ObserveValidationError()
		return err
	}
	if err := acl.ValidatePrincipal(principal); err != nil {
		s.metrics.ObserveValidationError()
		return err
	}
	return nil
}

// ============================================
// EVALUATION
// ============================================

// HasPermission reports whether userID holds every bit of required on the
// resource. Unknown users and resources simply have no entries and yield
// false; only invalid input and store failures return an error.
func (s *Service) HasPermission(ctx context.Context, userID int64, resourceType acl.ResourceType, resourceID int64, required acl.Permission) (bool, error) {
	_, allowed, err := s.Evaluate(ctx, userID, acl.ResourceRef{Type: resourceType, ID: resourceID}, required)
	return allowed, err
}

// Evaluate is HasPermission for callers that also report the effective
// mask: it returns the Explanation behind the outcome from the same read.
func (s *Service) Evaluate(ctx context.Context, userID int64, resource acl.ResourceRef, required acl.Permission) (*Explanation, bool, error) {
	if !resource.Type.Valid() {
		s.metrics.ObserveValidationError()
		return nil, false, fmt.Errorf("%w: %q", acl.ErrInvalidResourceType, resource.Type)
	}
	if err := acl.Validate(required); err != nil {
		s.metrics.ObserveValidationError()
		return nil, false, err
	}

	start := time.Now()
	ctx, span := telemetry.StartEvaluationSpan(ctx, telemetry.SpanEvaluate, userID, resource,
		telemetry.Required(required))
	defer span.End()

	ex, err := s.collect(ctx, userID, resource)
	if err != nil {
		return nil, false, err
	}

	allowed := ex.Decision.Permits(required)
	s.metrics.ObserveEvaluation(time.Since(start), allowed)
	telemetry.SetAttributes(ctx, telemetry.Effective(ex.Decision.Effective()), telemetry.Allowed(allowed))
	logger.DebugCtx(ctx, "permission evaluated",
		logger.KeyUserID, userID,
		logger.Resource(resource),
		logger.Permissions(logger.KeyRequired, required),
		logger.Permissions(logger.KeyEffective, ex.Decision.Effective()),
		logger.KeyAllowed, allowed,
	)
	return ex, allowed, nil
}

// EffectivePermissions returns the bits userID holds on resource after
// denies are applied.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64, resource acl.ResourceRef) (acl.Permission, error) {
	ex, err := s.Explain(ctx, userID, resource)
	if err != nil {
		return 0, err
	}
	return ex.Decision.Effective(), nil
}

// Explanation lists the inputs and outcome of an evaluation.
type Explanation struct {
	UserID     int64              `json:"user_id"`
	Resource   acl.ResourceRef    `json:"resource"`
	Principals []acl.PrincipalRef `json:"principals"`
	Parent     *acl.ResourceRef   `json:"parent,omitempty"`
	Direct     []acl.Entry        `json:"direct"`
	Inherited  []acl.Entry        `json:"inherited"`
	Decision   Decision           `json:"decision"`
}

// Explain returns the principals and entries that decide userID's access to
// resource, together with the resulting Decision.
func (s *Service) Explain(ctx context.Context, userID int64, resource acl.ResourceRef) (*Explanation, error) {
	if !resource.Type.Valid() {
		s.metrics.ObserveValidationError()
		return nil, fmt.Errorf("%w: %q", acl.ErrInvalidResourceType, resource.Type)
	}

	ctx, span := telemetry.StartEvaluationSpan(ctx, telemetry.SpanEffective, userID, resource)
	defer span.End()

	ex, err := s.collect(ctx, userID, resource)
	if err != nil {
		return nil, err
	}
	telemetry.SetAttributes(ctx, telemetry.Effective(ex.Decision.Effective()))
	return ex, nil
}

// collect performs the read sequence shared by every evaluation: principals,
// direct entries, parent, inheritable parent grants.
func (s *Service) collect(ctx context.Context, userID int64, resource acl.ResourceRef) (*Explanation, error) {
	principals, err := s.principals.Principals(ctx, userID)
	if err != nil {
		s.storeFailure(ctx, "resolve_principals", err)
		return nil, err
	}

	ex := &Explanation{
		UserID:     userID,
		Resource:   resource,
		Principals: principals,
	}

	ex.Direct, err = s.entries.FindEntries(ctx, resource, principals, false)
	if err != nil {
		s.storeFailure(ctx, "find_entries", err)
		return nil, err
	}

	parent, ok, err := s.hierarchy.Parent(ctx, resource)
	if err != nil {
		s.storeFailure(ctx, "resolve_parent", err)
		return nil, err
	}
	if ok {
		ex.Parent = &parent
		ex.Inherited, err = s.entries.FindEntries(ctx, parent, principals, true)
		if err != nil {
			s.storeFailure(ctx, "find_inherited_entries", err)
			return nil, err
		}
	}

	ex.Decision = Aggregate(ex.Direct, ex.Inherited)
	telemetry.SetAttributes(ctx, telemetry.Inputs(len(principals), len(ex.Direct)+len(ex.Inherited))...)
	return ex, nil
}

// ListEntries returns every entry on resource.
func (s *Service) ListEntries(ctx context.Context, resource acl.ResourceRef) ([]acl.Entry, error) {
	if err := acl.ValidateResource(resource); err != nil {
		s.metrics.ObserveValidationError()
		return nil, err
	}
	entries, err := s.entries.ListEntries(ctx, resource)
	if err != nil {
		s.storeFailure(ctx, "list_entries", err)
		return nil, fmt.Errorf("list entries on %s: %w", resource, err)
	}
	return entries, nil
}

func (s *Service) storeFailure(ctx context.Context, op string, err error) {
	s.metrics.ObserveStoreError()
	telemetry.RecordError(ctx, err)
	logger.ErrorCtx(ctx, "acl store call failed", logger.KeyOperation, op, logger.Err(err))
}

package rbac

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultLookupTimeout bounds a single custom-role store query.
const DefaultLookupTimeout = 2 * time.Second

// CustomRoleStore is the persisted table of administrator-defined roles.
// The resolver only ever reads from it.
type CustomRoleStore interface {
	// ActiveRoleExists reports whether a role row with this key exists and
	// is active.
	ActiveRoleExists(ctx context.Context, roleKey string) (bool, error)

	// PermissionGranted reports whether a permission row for role+permission
	// exists with is_granted set.
	PermissionGranted(ctx context.Context, roleKey, permissionKey string) (bool, error)
}

// Lookup is the outcome of a resolver query. Err is set when the store could
// not answer (I/O error, timeout); callers must treat that as a denial.
type Lookup struct {
	Found bool
	Err   error
}

// Granted is true only for a successful lookup that found a row.
func (l Lookup) Granted() bool { return l.Err == nil && l.Found }

// Resolver answers custom-role questions against a CustomRoleStore.
type Resolver struct {
	store   CustomRoleStore
	timeout time.Duration
	logger  *slog.Logger
	observe func(kind, result string)
	group   singleflight.Group
}

// Lookup results reported to an observer.
const (
	LookupFound    = "found"
	LookupNotFound = "not_found"
	LookupError    = "error"
)

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLookupTimeout overrides DefaultLookupTimeout.
func WithLookupTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the logger used for lookup failures.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithObserver registers fn to be called once per lookup with the query
// kind ("role" or "permission") and one of the Lookup* results.
func WithObserver(fn func(kind, result string)) ResolverOption {
	return func(r *Resolver) { r.observe = fn }
}

// NewResolver returns a Resolver over store. A nil store is allowed and
// resolves nothing.
func NewResolver(store CustomRoleStore, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:   store,
		timeout: DefaultLookupTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RoleExists reports whether roleKey is an active custom role.
func (r *Resolver) RoleExists(ctx context.Context, roleKey string) Lookup {
	if r == nil || r.store == nil || roleKey == "" {
		return Lookup{}
	}
	attrs := []any{"role", roleKey}
	return r.do(ctx, "role", "role\x00"+roleKey, attrs, func(ctx context.Context) (bool, error) {
		return r.store.ActiveRoleExists(ctx, roleKey)
	})
}

// HasPermission reports whether the store grants permissionKey to roleKey.
func (r *Resolver) HasPermission(ctx context.Context, roleKey, permissionKey string) Lookup {
	if r == nil || r.store == nil || roleKey == "" || permissionKey == "" {
		return Lookup{}
	}
	attrs := []any{"role", roleKey, "permission", permissionKey}
	return r.do(ctx, "permission", "perm\x00"+roleKey+"\x00"+permissionKey, attrs, func(ctx context.Context) (bool, error) {
		return r.store.PermissionGranted(ctx, roleKey, permissionKey)
	})
}

// do runs fn once per key for all concurrent callers. The shared query gets
// its own deadline so one caller going away does not fail the others.
func (r *Resolver) do(
	ctx context.Context,
	kind, key string,
	attrs []any,
	fn func(context.Context) (bool, error),
) Lookup {
	ch := r.group.DoChan(key, func() (any, error) {
		qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return fn(qctx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			r.logger.WarnContext(ctx, "custom role lookup failed",
				append(attrs, "err", res.Err)...)
			r.report(kind, LookupError)
			return Lookup{Err: res.Err}
		}
		found, _ := res.Val.(bool)
		if found {
			r.report(kind, LookupFound)
		} else {
			r.report(kind, LookupNotFound)
		}
		return Lookup{Found: found}
	case <-ctx.Done():
		r.logger.WarnContext(ctx, "custom role lookup abandoned",
			append(attrs, "err", ctx.Err())...)
		r.report(kind, LookupError)
		return Lookup{Err: ctx.Err()}
	}
}

func (r *Resolver) report(kind, result string) {
	if r.observe != nil {
		r.observe(kind, result)
	}
}

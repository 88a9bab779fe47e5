package client

import "context"

// resolverAPI is the backend surface the resolver needs.
type resolverAPI interface {
	GetPartnerInfo(ctx context.Context) (*PartnerInfo, error)
	CreatePartnershipByCode(ctx context.Context, partnerCode string) error
}

// Resolver answers "am I connected, and to whom" and submits partner codes.
// It holds no state of its own; every answer comes from the backend.
type Resolver struct {
	api resolverAPI
}

// NewResolver creates a resolver backed by api.
func NewResolver(api resolverAPI) *Resolver {
	return &Resolver{api: api}
}

// Resolve asks the backend for the current partnership. Idempotent read.
func (r *Resolver) Resolve(ctx context.Context) (*PartnerInfo, error) {
	return r.api.GetPartnerInfo(ctx)
}

// Connect submits a partner code. Success is not assumed: the backend
// validates the code belongs to a different, unpartnered user.
func (r *Resolver) Connect(ctx context.Context, partnerCode string) error {
	return r.api.CreatePartnershipByCode(ctx, partnerCode)
}

// ConnectAndResolve submits a partner code and re-resolves for authoritative
// partner data.
func (r *Resolver) ConnectAndResolve(ctx context.Context, partnerCode string) (*PartnerInfo, error) {
	if err := r.api.CreatePartnershipByCode(ctx, partnerCode); err != nil {
		return nil, err
	}
	return r.api.GetPartnerInfo(ctx)
}

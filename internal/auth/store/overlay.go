package store

import "context"

// WithRefreshTokens returns a Store that serves users from base but routes
// every refresh token call to rt. Refresh token writes then happen outside
// base's transactions, which is fine: each RefreshTokens call is atomic on
// its own.
func WithRefreshTokens(base Store, rt RefreshTokens) Store {
	return &overlay{Store: base, rt: rt}
}

type overlay struct {
	Store
	rt RefreshTokens
}

func (o *overlay) RefreshTokens() RefreshTokens { return o.rt }

func (o *overlay) Tx(ctx context.Context) (Tx, error) {
	tx, err := o.Store.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &overlayTx{baseTx: tx, rt: o.rt}, nil
}

func (o *overlay) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	return o.Store.WithTx(ctx, func(tx Tx) error {
		return fn(&overlayTx{baseTx: tx, rt: o.rt})
	})
}

// baseTx lets overlayTx embed a Tx without a field named Tx shadowing the
// promoted Tx method.
type baseTx = Tx

type overlayTx struct {
	baseTx
	rt RefreshTokens
}

var _ Tx = (*overlayTx)(nil)

func (t *overlayTx) RefreshTokens() RefreshTokens { return t.rt }

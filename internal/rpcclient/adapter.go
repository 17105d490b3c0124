package rpcclient

import (
	"context"

	"github.com/tari-project/tari-sub013/internal/broadcast"
	"github.com/tari-project/tari-sub013/pkg/tx"
)

// BroadcastClientAdapter narrows a Client down to the two calls
// broadcast.Protocol drives (spec.md §4.4), translating this package's
// richer Location/RejectionReason enums onto the broadcast package's own
// copies. The two packages intentionally define separate types rather than
// one depending on the other's wire surface: BroadcastProtocol's contract
// is the state machine in spec.md §4.4, not the full BaseNodeWalletRpc
// interface in §6.
type BroadcastClientAdapter struct {
	Client Client
}

func (a BroadcastClientAdapter) SubmitTransaction(ctx context.Context, t *tx.Transaction) (broadcast.SubmissionResponse, error) {
	resp, err := a.Client.SubmitTransaction(ctx, t)
	if err != nil {
		return broadcast.SubmissionResponse{}, err
	}
	return broadcast.SubmissionResponse{
		Accepted:        resp.Accepted,
		RejectionReason: broadcast.RejectionReason(resp.RejectionReason),
		IsSynced:        resp.IsSynced,
	}, nil
}

func (a BroadcastClientAdapter) TransactionQuery(ctx context.Context, sig tx.Signature) (broadcast.QueryResponse, error) {
	resp, err := a.Client.TransactionQuery(ctx, sig)
	if err != nil {
		return broadcast.QueryResponse{}, err
	}
	return broadcast.QueryResponse{
		Location:      broadcast.Location(resp.Location),
		Confirmations: resp.Confirmations,
		IsSynced:      resp.IsSynced,
		BlockHash:     resp.BlockHash,
	}, nil
}

// StaticClientProvider adapts a single, fixed Client into a
// broadcast.ClientProvider for deployments without base-node failover.
type StaticClientProvider struct {
	Client Client
}

func (p StaticClientProvider) Client(context.Context) (broadcast.Client, error) {
	return BroadcastClientAdapter{Client: p.Client}, nil
}

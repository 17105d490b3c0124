package rpcclient

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tari-project/tari-sub013/pkg/tx"
)

const serviceName = "/tari.rpc.BaseNodeWallet/"

// GRPCClient is the gRPC-backed BaseNodeWalletRpc implementation,
// grounded on the teacher's rpcclient.Client (connection handle plus a
// set of blocking call wrappers around futures).
type GRPCClient struct {
	conn *grpc.ClientConn
}

// Dial connects to a remote full-node's gRPC endpoint. Options follow the
// teacher's own netadapter dial conventions (insecure by default; callers
// needing transport security pass grpc.WithTransportCredentials via opts).
func Dial(ctx context.Context, target string, opts ...grpc.DialOption) (*GRPCClient, error) {
	conn, err := grpc.DialContext(ctx, target, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "rpcclient: dialing base node")
	}
	return &GRPCClient{conn: conn}, nil
}

// Close tears down the underlying connection.
func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) invoke(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ClientTimeout)
		defer cancel()
	}
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, serviceName+method, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// SubmitTransaction sends a transaction over RPC (spec.md §6).
func (c *GRPCClient) SubmitTransaction(ctx context.Context, t *tx.Transaction) (TxSubmissionResponse, error) {
	req, err := submitTransactionRequest(t)
	if err != nil {
		return TxSubmissionResponse{}, err
	}
	resp, err := c.invoke(ctx, "SubmitTransaction", req)
	if err != nil {
		return TxSubmissionResponse{}, err
	}
	return decodeTxSubmissionResponse(resp), nil
}

// TransactionQuery looks up a transaction by its first kernel's excess
// signature.
func (c *GRPCClient) TransactionQuery(ctx context.Context, sig tx.Signature) (TxQueryResponse, error) {
	req, err := transactionQueryRequest(sig)
	if err != nil {
		return TxQueryResponse{}, err
	}
	resp, err := c.invoke(ctx, "TransactionQuery", req)
	if err != nil {
		return TxQueryResponse{}, err
	}
	return decodeTxQueryResponse(resp)
}

// TransactionBatchQuery looks up several transactions in a single round
// trip.
func (c *GRPCClient) TransactionBatchQuery(ctx context.Context, sigs []tx.Signature) ([]TxQueryBatchResponse, error) {
	encoded := make([]interface{}, len(sigs))
	for i, sig := range sigs {
		encoded[i] = encodeSignature(sig)
	}
	req, err := structpb.NewStruct(map[string]interface{}{"excessSigs": encoded})
	if err != nil {
		return nil, err
	}
	resp, err := c.invoke(ctx, "TransactionBatchQuery", req)
	if err != nil {
		return nil, err
	}

	entries := resp.Fields["responses"].GetListValue().GetValues()
	out := make([]TxQueryBatchResponse, 0, len(entries))
	for _, entry := range entries {
		entryStruct := entry.GetStructValue()
		sig, err := decodeSignature(structString(entryStruct, "excessSig"))
		if err != nil {
			return nil, err
		}
		queryResp, err := decodeTxQueryResponse(entryStruct)
		if err != nil {
			return nil, err
		}
		out = append(out, TxQueryBatchResponse{Signature: sig, Response: queryResp})
	}
	return out, nil
}

// FetchMatchingUTXOs resolves a set of output hashes to their
// transaction outputs.
func (c *GRPCClient) FetchMatchingUTXOs(ctx context.Context, hashes []tx.Hash) ([]tx.TransactionOutput, error) {
	encoded := make([]interface{}, len(hashes))
	for i, h := range hashes {
		encoded[i] = encodeHash(h)
	}
	req, err := structpb.NewStruct(map[string]interface{}{"outputHashes": encoded})
	if err != nil {
		return nil, err
	}
	resp, err := c.invoke(ctx, "FetchMatchingUTXOs", req)
	if err != nil {
		return nil, err
	}

	entries := resp.Fields["outputs"].GetListValue().GetValues()
	out := make([]tx.TransactionOutput, 0, len(entries))
	for _, entry := range entries {
		entryStruct := entry.GetStructValue()
		hash, err := decodeHash(structString(entryStruct, "hash"))
		if err != nil {
			return nil, err
		}
		out = append(out, tx.TransactionOutput{Hash: hash})
	}
	return out, nil
}

// GetHeightAtTime resolves the chain height active at the given Unix
// timestamp.
func (c *GRPCClient) GetHeightAtTime(ctx context.Context, unixSeconds int64) (uint64, error) {
	req, err := structpb.NewStruct(map[string]interface{}{"unixSeconds": encodeUint64(uint64(unixSeconds))})
	if err != nil {
		return 0, err
	}
	resp, err := c.invoke(ctx, "GetHeightAtTime", req)
	if err != nil {
		return 0, err
	}
	return decodeUint64(structString(resp, "height"))
}

// SyncUTXOsByBlock streams UTXO updates for every block between startHash
// and endHash. The returned error channel receives at most one error and
// is closed alongside the update channel once the stream ends.
func (c *GRPCClient) SyncUTXOsByBlock(ctx context.Context, startHash, endHash tx.Hash) (<-chan SyncUpdate, <-chan error) {
	updates := make(chan SyncUpdate)
	errs := make(chan error, 1)

	go func() {
		defer close(updates)
		defer close(errs)

		req, err := structpb.NewStruct(map[string]interface{}{
			"startHash": encodeHash(startHash),
			"endHash":   encodeHash(endHash),
		})
		if err != nil {
			errs <- err
			return
		}

		stream, err := c.conn.NewStream(ctx, &grpc.StreamDesc{ServerStreams: true}, serviceName+"SyncUTXOsByBlock")
		if err != nil {
			errs <- err
			return
		}
		if err := stream.SendMsg(req); err != nil {
			errs <- err
			return
		}
		if err := stream.CloseSend(); err != nil {
			errs <- err
			return
		}

		for {
			item := new(structpb.Struct)
			if err := stream.RecvMsg(item); err != nil {
				if err != io.EOF {
					errs <- err
				}
				return
			}

			height, err := decodeUint64(structString(item, "height"))
			if err != nil {
				errs <- err
				return
			}
			headerHash, err := decodeHash(structString(item, "headerHash"))
			if err != nil {
				errs <- err
				return
			}
			outputEntries := item.Fields["outputs"].GetListValue().GetValues()
			outputs := make([]tx.TransactionOutput, 0, len(outputEntries))
			for _, entry := range outputEntries {
				hash, err := decodeHash(structString(entry.GetStructValue(), "hash"))
				if err != nil {
					errs <- err
					return
				}
				outputs = append(outputs, tx.TransactionOutput{Hash: hash})
			}

			select {
			case updates <- SyncUpdate{Height: height, HeaderHash: headerHash, Outputs: outputs}:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
	}()

	return updates, errs
}

// GetTipInfo returns the remote full-node's current tip metadata.
func (c *GRPCClient) GetTipInfo(ctx context.Context) (TipInfo, error) {
	resp, err := c.invoke(ctx, "GetTipInfo", &structpb.Struct{})
	if err != nil {
		return TipInfo{}, err
	}
	height, err := decodeUint64(structString(resp, "bestBlockHeight"))
	if err != nil {
		return TipInfo{}, err
	}
	return TipInfo{
		BestBlockHeight:     height,
		InitialSyncAchieved: structBool(resp, "initialSyncAchieved"),
	}, nil
}

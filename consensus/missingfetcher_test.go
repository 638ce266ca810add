package consensus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blockberries/freezeguard/types"
)

func TestSweepFetchesOnlyMissingVotedBlocks(t *testing.T) {
	chain := &fakeChain{frozenEdge: 10}
	votes := newFakeVoteRegistry()
	votes.RegisterVote(hashFrom(200), types.BlockVote{Height: 11, Hash: hashFrom(1)})
	votes.RegisterVote(hashFrom(201), types.BlockVote{Height: 5, Hash: hashFrom(2)}) // at/below frozen edge

	held := candidateBlock(t, 11, 1, 0)
	var requested []types.MissingBlockRequest
	mesh := &fakeMesh{fetchFn: func(ctx context.Context, req types.MissingBlockRequest) (types.MissingBlockResponse, error) {
		requested = append(requested, req)
		return types.MissingBlockResponse{}, nil
	}}
	m := testManager(chain, &fakeBalances{}, votes, mesh, fakeNodes{size: 10}, &fakeClock{}, nil)

	// height 11 hash 1 is already held, so it should not be fetched; only
	// a second voted hash not held should be.
	m.mu.Lock()
	m.register(held.Height, held.Hash, held)
	m.mu.Unlock()
	votes.RegisterVote(hashFrom(202), types.BlockVote{Height: 11, Hash: hashFrom(3)})

	require.NoError(t, m.Sweep(context.Background()))
	require.Len(t, requested, 1)
	require.Equal(t, uint64(11), requested[0].Height)
	require.Equal(t, hashFrom(3), requested[0].Hash)
}

func TestFetchAdmitsMatchingResponse(t *testing.T) {
	chain := &fakeChain{frozenEdge: 10, openEdge: 20}
	votes := newFakeVoteRegistry()
	want := candidateBlock(t, 11, 5, 0)
	want.BalanceListHash = hashFrom(1)

	mesh := &fakeMesh{fetchFn: func(ctx context.Context, req types.MissingBlockRequest) (types.MissingBlockResponse, error) {
		return types.MissingBlockResponse{Block: want}, nil
	}}
	m := testManager(chain, &fakeBalances{hash: hashFrom(1)}, votes, mesh, fakeNodes{size: 10}, &fakeClock{}, nil)

	m.Fetch(context.Background(), 11, want.Hash)
	require.NotNil(t, m.Get(11, want.Hash))
}

func TestFetchDropsMismatchedResponse(t *testing.T) {
	chain := &fakeChain{frozenEdge: 10, openEdge: 20}
	votes := newFakeVoteRegistry()
	wrong := candidateBlock(t, 11, 9, 0)

	mesh := &fakeMesh{fetchFn: func(ctx context.Context, req types.MissingBlockRequest) (types.MissingBlockResponse, error) {
		return types.MissingBlockResponse{Block: wrong}, nil
	}}
	m := testManager(chain, &fakeBalances{}, votes, mesh, fakeNodes{size: 10}, &fakeClock{}, nil)

	m.Fetch(context.Background(), 11, hashFrom(5))
	require.Nil(t, m.Get(11, wrong.Hash))
	require.Nil(t, m.Get(11, hashFrom(5)))
}

func TestFetchDropsOnError(t *testing.T) {
	chain := &fakeChain{frozenEdge: 10, openEdge: 20}
	mesh := &fakeMesh{fetchFn: func(ctx context.Context, req types.MissingBlockRequest) (types.MissingBlockResponse, error) {
		return types.MissingBlockResponse{}, errors.New("peer unreachable")
	}}
	m := testManager(chain, &fakeBalances{}, newFakeVoteRegistry(), mesh, fakeNodes{size: 10}, &fakeClock{}, nil)

	require.NotPanics(t, func() { m.Fetch(context.Background(), 11, hashFrom(5)) })
	require.Nil(t, m.Get(11, hashFrom(5)))
}

func TestFetchDedupesInFlightRequests(t *testing.T) {
	chain := &fakeChain{frozenEdge: 10, openEdge: 20}
	calls := 0
	mesh := &fakeMesh{fetchFn: func(ctx context.Context, req types.MissingBlockRequest) (types.MissingBlockResponse, error) {
		calls++
		return types.MissingBlockResponse{}, nil
	}}
	m := testManager(chain, &fakeBalances{}, newFakeVoteRegistry(), mesh, fakeNodes{size: 10}, &fakeClock{}, nil)

	m.Fetch(context.Background(), 11, hashFrom(5))
	m.Fetch(context.Background(), 11, hashFrom(5))
	require.Equal(t, 1, calls, "a second fetch for the same key within the dedupe window is skipped")
}

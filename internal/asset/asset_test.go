package asset

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/assetized/asset-registry/internal/platform/tests"

	"github.com/pkg/errors"
)

var test *tests.Test

// TestMain is the entry point for testing.
func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	test = &tests.Test{}
	ctx := context.Background()
	if err := test.Setup(ctx); err != nil {
		return 1
	}
	defer test.Close(ctx)

	return m.Run()
}

func TestAssets(t *testing.T) {
	defer tests.Recover(t)

	t.Run("create", createAsset)
	t.Run("createDuplicate", createDuplicate)
	t.Run("approve", approveSpender)
	t.Run("revoke", revokeSpender)
}

func createAsset(t *testing.T) {
	ctx := test.Context(context.Background(), "create")

	nu := NewAsset{
		ID:       "create-1",
		Owner:    "alice.example",
		Metadata: "first asset",
	}

	a, err := Create(ctx, test.DB, test.Registry, &nu, time.Now())
	if err != nil {
		t.Fatalf("\t%s\tFailed to create asset : %v", tests.Failed, err)
	}

	if a.Owner != nu.Owner {
		t.Fatalf("\t%s\tWrong owner : got %s, want %s", tests.Failed, a.Owner, nu.Owner)
	}
	if len(a.Approvals) != 0 {
		t.Fatalf("\t%s\tNew asset should have no approvals : %d", tests.Failed, len(a.Approvals))
	}

	fetched, err := Retrieve(ctx, test.DB, test.Registry, nu.ID)
	if err != nil {
		t.Fatalf("\t%s\tFailed to retrieve created asset : %v", tests.Failed, err)
	}
	if fetched.Owner != nu.Owner || fetched.Metadata != nu.Metadata {
		t.Fatalf("\t%s\tRetrieved asset does not match created", tests.Failed)
	}

	t.Logf("\t%s\tAsset created and retrieved", tests.Success)
}

func createDuplicate(t *testing.T) {
	ctx := test.Context(context.Background(), "create-duplicate")

	nu := NewAsset{ID: "dup-1", Owner: "alice.example"}

	if _, err := Create(ctx, test.DB, test.Registry, &nu, time.Now()); err != nil {
		t.Fatalf("\t%s\tFailed to create asset : %v", tests.Failed, err)
	}

	nu.Owner = "mallory.example"
	if _, err := Create(ctx, test.DB, test.Registry, &nu, time.Now()); errors.Cause(err) != ErrExists {
		t.Fatalf("\t%s\tDuplicate mint should fail with ErrExists : %v", tests.Failed, err)
	}

	a, err := Retrieve(ctx, test.DB, test.Registry, nu.ID)
	if err != nil {
		t.Fatalf("\t%s\tFailed to retrieve asset : %v", tests.Failed, err)
	}
	if a.Owner != "alice.example" {
		t.Fatalf("\t%s\tDuplicate mint changed owner : %s", tests.Failed, a.Owner)
	}

	t.Logf("\t%s\tDuplicate mint rejected", tests.Success)
}

func approveSpender(t *testing.T) {
	ctx := test.Context(context.Background(), "approve")

	nu := NewAsset{ID: "approve-1", Owner: "alice.example"}
	if _, err := Create(ctx, test.DB, test.Registry, &nu, time.Now()); err != nil {
		t.Fatalf("\t%s\tFailed to create asset : %v", tests.Failed, err)
	}

	// Ids issue from zero and increment per asset.
	first, err := Approve(ctx, test.DB, test.Registry, nu.ID, "market.example", time.Now())
	if err != nil {
		t.Fatalf("\t%s\tFailed to approve : %v", tests.Failed, err)
	}
	if first != 0 {
		t.Fatalf("\t%s\tFirst approval id should be 0 : %d", tests.Failed, first)
	}

	second, err := Approve(ctx, test.DB, test.Registry, nu.ID, "broker.example", time.Now())
	if err != nil {
		t.Fatalf("\t%s\tFailed to approve second spender : %v", tests.Failed, err)
	}
	if second != 1 {
		t.Fatalf("\t%s\tSecond approval id should be 1 : %d", tests.Failed, second)
	}

	// Re-approving replaces the active approval with a fresh id.
	replacement, err := Approve(ctx, test.DB, test.Registry, nu.ID, "market.example", time.Now())
	if err != nil {
		t.Fatalf("\t%s\tFailed to re-approve : %v", tests.Failed, err)
	}
	if replacement != 2 {
		t.Fatalf("\t%s\tReplacement approval id should be 2 : %d", tests.Failed, replacement)
	}

	a, err := Retrieve(ctx, test.DB, test.Registry, nu.ID)
	if err != nil {
		t.Fatalf("\t%s\tFailed to retrieve asset : %v", tests.Failed, err)
	}
	if len(a.Approvals) != 2 {
		t.Fatalf("\t%s\tExpected 2 active approvals : %d", tests.Failed, len(a.Approvals))
	}
	if a.Approvals["market.example"] != 2 {
		t.Fatalf("\t%s\tOld approval id should be replaced : %d", tests.Failed,
			a.Approvals["market.example"])
	}

	t.Logf("\t%s\tApprovals issued monotonically", tests.Success)
}

func revokeSpender(t *testing.T) {
	ctx := test.Context(context.Background(), "revoke")

	nu := NewAsset{ID: "revoke-1", Owner: "alice.example"}
	if _, err := Create(ctx, test.DB, test.Registry, &nu, time.Now()); err != nil {
		t.Fatalf("\t%s\tFailed to create asset : %v", tests.Failed, err)
	}

	if _, err := Approve(ctx, test.DB, test.Registry, nu.ID, "market.example", time.Now()); err != nil {
		t.Fatalf("\t%s\tFailed to approve : %v", tests.Failed, err)
	}

	if err := Revoke(ctx, test.DB, test.Registry, nu.ID, "market.example", time.Now()); err != nil {
		t.Fatalf("\t%s\tFailed to revoke : %v", tests.Failed, err)
	}

	a, err := Retrieve(ctx, test.DB, test.Registry, nu.ID)
	if err != nil {
		t.Fatalf("\t%s\tFailed to retrieve asset : %v", tests.Failed, err)
	}
	if len(a.Approvals) != 0 {
		t.Fatalf("\t%s\tApproval should be removed : %d", tests.Failed, len(a.Approvals))
	}

	if err := Revoke(ctx, test.DB, test.Registry, nu.ID, "market.example", time.Now()); errors.Cause(err) != ErrUnauthorized {
		t.Fatalf("\t%s\tRevoking absent approval should be unauthorized : %v", tests.Failed, err)
	}

	t.Logf("\t%s\tApproval revoked", tests.Success)
}

package settlement

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/assetized/asset-registry/internal/asset"
	"github.com/assetized/asset-registry/internal/deposit"
	"github.com/assetized/asset-registry/internal/payment"
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

type recordingPublisher struct {
	exchanges []string
	bodies    []payment.Instruction
}

func (p *recordingPublisher) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	instr, ok := body.(payment.Instruction)
	if !ok {
		return errors.New("unexpected body type")
	}
	p.exchanges = append(p.exchanges, exchange)
	p.bodies = append(p.bodies, instr)
	return nil
}

func (p *recordingPublisher) Close() {}

const testReserve = 100

func newService(pub payment.Publisher) *Service {
	return &Service{
		DB:        test.DB,
		Registry:  test.Registry,
		Locks:     test.Locks,
		Forwarder: payment.NewForwarder(pub, testReserve),
	}
}

// mockAsset writes an asset record with a fixed approval set, bypassing the
// approve flow so tests control the exact ids.
func mockAsset(ctx context.Context, t *testing.T, id, owner string, approvals map[string]uint64) {
	t.Helper()

	now := time.Now()
	next := uint64(0)
	for _, v := range approvals {
		if v >= next {
			next = v + 1
		}
	}

	a := asset.Asset{
		ID:             id,
		Owner:          owner,
		Approvals:      approvals,
		NextApprovalID: next,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := asset.Save(ctx, test.DB, test.Registry, &a); err != nil {
		t.Fatalf("\t%s\tFailed to mock asset : %v", tests.Failed, err)
	}
}

func TestSettlement(t *testing.T) {
	defer tests.Recover(t)

	t.Run("settleSale", settleSale)
	t.Run("reclaimOnSettle", reclaimOnSettle)
	t.Run("wrongToken", wrongToken)
	t.Run("unknownAsset", unknownAsset)
	t.Run("malformedMessage", malformedMessage)
	t.Run("budgetExhausted", budgetExhausted)
	t.Run("failureLeavesRetry", failureLeavesRetry)
}

func settleSale(t *testing.T) {
	ctx := test.Context(context.Background(), "settle-sale")

	mockAsset(ctx, t, "A-1", "seller.example", map[string]uint64{
		"market.example": 7,
		"broker.example": 3,
	})

	pub := &recordingPublisher{}
	svc := newService(pub)

	accepted, err := svc.Settle(ctx, &Notification{
		Sender:          "market.example",
		PaymentContract: "pay.example",
		Amount:          500,
		Budget:          350,
		Msg:             `{"authorization_token":7,"asset":"A-1","recipient":"buyer.example"}`,
	})
	if err != nil {
		t.Fatalf("\t%s\tSettle failed : %v", tests.Failed, err)
	}

	// The full received amount is always claimed on success.
	if accepted != 500 {
		t.Fatalf("\t%s\tShould accept full amount : %d", tests.Failed, accepted)
	}

	a, err := asset.Retrieve(ctx, test.DB, test.Registry, "A-1")
	if err != nil {
		t.Fatalf("\t%s\tFailed to retrieve asset : %v", tests.Failed, err)
	}
	if a.Owner != "buyer.example" {
		t.Fatalf("\t%s\tOwnership not swapped : %s", tests.Failed, a.Owner)
	}
	if len(a.Approvals) != 0 {
		t.Fatalf("\t%s\tApprovals not cleared : %v", tests.Failed, a.Approvals)
	}

	// One forward of the full amount to the previous owner.
	if len(pub.bodies) != 1 {
		t.Fatalf("\t%s\tExpected 1 forward : %d", tests.Failed, len(pub.bodies))
	}
	instr := pub.bodies[0]
	if pub.exchanges[0] != "pay.example" {
		t.Fatalf("\t%s\tForward addressed to wrong contract : %s", tests.Failed, pub.exchanges[0])
	}
	if instr.Recipient != "seller.example" {
		t.Fatalf("\t%s\tForward addressed to wrong recipient : %s", tests.Failed, instr.Recipient)
	}
	if instr.Amount != 500 {
		t.Fatalf("\t%s\tForward amount should be 500 : %d", tests.Failed, instr.Amount)
	}
	if instr.Budget != 350-testReserve {
		t.Fatalf("\t%s\tForward budget should have the reserve held back : %d", tests.Failed, instr.Budget)
	}

	t.Logf("\t%s\tSale settled and payment forwarded", tests.Success)
}

func reclaimOnSettle(t *testing.T) {
	ctx := test.Context(context.Background(), "reclaim-on-settle")
	now := time.Now()

	mockAsset(ctx, t, "A-2", "seller.example", map[string]uint64{
		"market.example": 1,
		"broker.example": 2,
	})

	for _, d := range []deposit.Deposit{
		{Asset: "A-2", Spender: "market.example", Payer: "market.example", Amount: 40, CreatedAt: now},
		{Asset: "A-2", Spender: "broker.example", Payer: "broker.example", Amount: 60, CreatedAt: now},
	} {
		dep := d
		if err := deposit.Escrow(ctx, test.DB, test.Registry, &dep); err != nil {
			t.Fatalf("\t%s\tFailed to escrow deposit : %v", tests.Failed, err)
		}
	}

	svc := newService(&recordingPublisher{})

	if _, err := svc.Settle(ctx, &Notification{
		Sender:          "market.example",
		PaymentContract: "pay.example",
		Amount:          1000,
		Budget:          500,
		Msg:             `{"authorization_token":1,"asset":"A-2","recipient":"buyer.example"}`,
	}); err != nil {
		t.Fatalf("\t%s\tSettle failed : %v", tests.Failed, err)
	}

	// Both invalidated approvals get their deposits back, the invoking
	// spender's included.
	for payer, want := range map[string]uint64{
		"market.example": 40,
		"broker.example": 60,
	} {
		r, err := deposit.FetchRefund(ctx, test.DB, test.Registry, payer)
		if err != nil {
			t.Fatalf("\t%s\tFailed to fetch refund : %v", tests.Failed, err)
		}
		if r.Amount != want {
			t.Fatalf("\t%s\tRefund for %s should be %d : %d", tests.Failed, payer, want, r.Amount)
		}
	}

	t.Logf("\t%s\tInvalidated deposits reclaimed", tests.Success)
}

func wrongToken(t *testing.T) {
	ctx := test.Context(context.Background(), "wrong-token")

	mockAsset(ctx, t, "A-3", "seller.example", map[string]uint64{
		"market.example": 7,
	})

	pub := &recordingPublisher{}
	svc := newService(pub)

	_, err := svc.Settle(ctx, &Notification{
		Sender:          "market.example",
		PaymentContract: "pay.example",
		Amount:          500,
		Budget:          350,
		Msg:             `{"authorization_token":8,"asset":"A-3","recipient":"buyer.example"}`,
	})
	if errors.Cause(err) != asset.ErrUnauthorized {
		t.Fatalf("\t%s\tStale token should be unauthorized : %v", tests.Failed, err)
	}

	assertUnchanged(ctx, t, "A-3", "seller.example", 1)
	if len(pub.bodies) != 0 {
		t.Fatalf("\t%s\tRejected settlement must not forward", tests.Failed)
	}

	t.Logf("\t%s\tStale token rejected without mutation", tests.Success)
}

func unknownAsset(t *testing.T) {
	ctx := test.Context(context.Background(), "unknown-asset")

	pub := &recordingPublisher{}
	svc := newService(pub)

	_, err := svc.Settle(ctx, &Notification{
		Sender:          "market.example",
		PaymentContract: "pay.example",
		Amount:          500,
		Budget:          350,
		Msg:             `{"authorization_token":7,"asset":"no-such-asset","recipient":"buyer.example"}`,
	})
	if errors.Cause(err) != asset.ErrNotFound {
		t.Fatalf("\t%s\tUnknown asset should be not found : %v", tests.Failed, err)
	}
	if len(pub.bodies) != 0 {
		t.Fatalf("\t%s\tRejected settlement must not forward", tests.Failed)
	}

	t.Logf("\t%s\tUnknown asset rejected", tests.Success)
}

func malformedMessage(t *testing.T) {
	ctx := test.Context(context.Background(), "malformed")

	mockAsset(ctx, t, "A-4", "seller.example", map[string]uint64{
		"market.example": 7,
	})

	pub := &recordingPublisher{}
	svc := newService(pub)

	for _, msg := range []string{
		``,
		`not json`,
		`{"authorization_token":7,"asset":"A-4"}`,
		`{"authorization_token":7,"asset":"A-4","recipient":"b","extra":true}`,
	} {
		_, err := svc.Settle(ctx, &Notification{
			Sender:          "market.example",
			PaymentContract: "pay.example",
			Amount:          500,
			Budget:          350,
			Msg:             msg,
		})
		if errors.Cause(err) != ErrMalformedRequest {
			t.Fatalf("\t%s\tMessage %q should be malformed : %v", tests.Failed, msg, err)
		}
	}

	assertUnchanged(ctx, t, "A-4", "seller.example", 1)
	if len(pub.bodies) != 0 {
		t.Fatalf("\t%s\tRejected settlement must not forward", tests.Failed)
	}

	t.Logf("\t%s\tMalformed messages rejected without mutation", tests.Success)
}

func budgetExhausted(t *testing.T) {
	ctx := test.Context(context.Background(), "budget-exhausted")

	mockAsset(ctx, t, "A-5", "seller.example", map[string]uint64{
		"market.example": 7,
	})

	pub := &recordingPublisher{}
	svc := newService(pub)

	// The token is valid, so the transfer engine accepts the call, but the
	// budget cannot cover the forward reserve. Nothing may persist.
	_, err := svc.Settle(ctx, &Notification{
		Sender:          "market.example",
		PaymentContract: "pay.example",
		Amount:          500,
		Budget:          testReserve - 1,
		Msg:             `{"authorization_token":7,"asset":"A-5","recipient":"buyer.example"}`,
	})
	if errors.Cause(err) != payment.ErrResourceExhausted {
		t.Fatalf("\t%s\tLow budget should exhaust resources : %v", tests.Failed, err)
	}

	assertUnchanged(ctx, t, "A-5", "seller.example", 1)
	if len(pub.bodies) != 0 {
		t.Fatalf("\t%s\tExhausted settlement must not forward", tests.Failed)
	}

	t.Logf("\t%s\tBudget shortfall left no mutation", tests.Success)
}

func failureLeavesRetry(t *testing.T) {
	ctx := test.Context(context.Background(), "failure-retry")

	mockAsset(ctx, t, "A-6", "seller.example", map[string]uint64{
		"market.example": 7,
	})

	pub := &recordingPublisher{}
	svc := newService(pub)

	note := Notification{
		Sender:          "market.example",
		PaymentContract: "pay.example",
		Amount:          500,
		Budget:          testReserve - 1,
		Msg:             `{"authorization_token":7,"asset":"A-6","recipient":"buyer.example"}`,
	}

	// A failed call leaves the approval intact, so an identical retry with a
	// sufficient budget succeeds.
	if _, err := svc.Settle(ctx, &note); errors.Cause(err) != payment.ErrResourceExhausted {
		t.Fatalf("\t%s\tLow budget should exhaust resources : %v", tests.Failed, err)
	}

	note.Budget = testReserve + 50
	if _, err := svc.Settle(ctx, &note); err != nil {
		t.Fatalf("\t%s\tRetry should succeed : %v", tests.Failed, err)
	}

	a, err := asset.Retrieve(ctx, test.DB, test.Registry, "A-6")
	if err != nil {
		t.Fatalf("\t%s\tFailed to retrieve asset : %v", tests.Failed, err)
	}
	if a.Owner != "buyer.example" {
		t.Fatalf("\t%s\tRetry did not transfer ownership : %s", tests.Failed, a.Owner)
	}

	t.Logf("\t%s\tFailed settlement retried cleanly", tests.Success)
}

func assertUnchanged(ctx context.Context, t *testing.T, assetID, owner string, approvals int) {
	t.Helper()

	a, err := asset.Retrieve(ctx, test.DB, test.Registry, assetID)
	if err != nil {
		t.Fatalf("\t%s\tFailed to retrieve asset : %v", tests.Failed, err)
	}
	if a.Owner != owner {
		t.Fatalf("\t%s\tOwner changed : %s", tests.Failed, a.Owner)
	}
	if len(a.Approvals) != approvals {
		t.Fatalf("\t%s\tApprovals changed : %v", tests.Failed, a.Approvals)
	}
}

package services_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/b2bconnect/commerce-backend/services/commerce-service/models"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/repository"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/services"
	apperrors "github.com/b2bconnect/commerce-backend/services/common/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errBoom = errors.New("boom")

func assertPaired(t *testing.T, f *fixture, res *models.CommitResult) (*models.Sale, *models.Purchase) {
	t.Helper()
	require.NotNil(t, res.PurchaseID)

	sale, err := f.store.Sales().FindByID(f.ctx, res.SaleID)
	require.NoError(t, err)
	purchase, err := f.store.Purchases().FindByID(f.ctx, *res.PurchaseID)
	require.NoError(t, err)

	assert.Equal(t, models.BuyerTypeBusiness, sale.BuyerType)
	assert.Equal(t, sale.Seller, purchase.Seller)
	assert.Equal(t, sale.Buyer, purchase.Buyer)
	assert.Equal(t, sale.TotalAmount, purchase.TotalAmount)
	assert.Equal(t, sale.Products, purchase.Products)
	assert.Equal(t, sale.Status, purchase.Status)
	assert.Equal(t, sale.PaymentMethod, purchase.PaymentMethod)
	return sale, purchase
}

func TestCheckout_CartBecomesSaleAndPurchase(t *testing.T) {
	f := newFixture(t)
	a := f.business("Acme Wholesale")
	b := f.business("Bolt Traders")
	p := f.product(a.ID, "Cement 50kg", 10, ptr(100), nil)

	cart := f.addToCart(t, b.ID, p.ID, 3, nil)
	assert.Equal(t, 300.0, cart.TotalAmount)
	assert.Equal(t, 100.0, cart.Items[0].Price)

	res, err := f.engine.Checkout(f.ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 300.0, res.Total)

	sale, purchase := assertPaired(t, f, res)
	assert.Equal(t, a.ID, sale.Seller)
	assert.Equal(t, b.ID, sale.Buyer)
	assert.Equal(t, models.StatusPaid, sale.Status)
	assert.Equal(t, models.TransactionOnline, sale.TransactionType)
	assert.Equal(t, models.PaymentUPI, sale.PaymentMethod)

	counts := f.store.Counts()
	assert.Equal(t, 0, counts[repository.CartsCollection])
	assert.Equal(t, 1, counts[repository.SalesCollection])
	assert.Equal(t, 1, counts[repository.PurchasesCollection])
	assert.Empty(t, f.store.AllPrices(), "checkout never writes the price ledger")
	assert.Equal(t, 7, f.qty(t, p.ID))

	seller, _ := f.store.Businesses().FindByID(f.ctx, a.ID)
	buyer, _ := f.store.Businesses().FindByID(f.ctx, b.ID)
	assert.Contains(t, seller.Sales, sale.ID)
	assert.Contains(t, buyer.Purchases, purchase.ID)

	assert.Equal(t, recordedTxn{services.FlowCheckout, services.OutcomeCommitted}, f.recorder.last())
	assert.Equal(t, []string{models.EventCheckedOut}, f.events.names())
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture(t)
	b := f.business("Bolt Traders")

	_, err := f.engine.Checkout(f.ctx, b.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryValidation))
	assert.Equal(t, 0, f.store.Aborts(), "precondition failures never open a transaction")
}

func TestCheckout_InsufficientStockLeavesCart(t *testing.T) {
	f := newFixture(t)
	a := f.business("Acme Wholesale")
	b := f.business("Bolt Traders")
	p := f.product(a.ID, "Cement 50kg", 2, ptr(100), nil)
	f.addToCart(t, b.ID, p.ID, 3, nil)

	_, err := f.engine.Checkout(f.ctx, b.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryInsufficientStock))

	assert.Equal(t, 2, f.qty(t, p.ID))
	assert.Equal(t, 1, f.store.Counts()[repository.CartsCollection])
	assert.Equal(t, recordedTxn{services.FlowCheckout, services.OutcomeFailed}, f.recorder.last())
}

func TestCheckout_FailureAtEveryStepRollsBack(t *testing.T) {
	ops := []string{
		repository.OpInventoryDecrement,
		repository.OpSaleInsert,
		repository.OpPurchaseInsert,
		repository.OpBusinessAppendSale,
		repository.OpBusinessAppendPurchase,
		repository.OpCartDelete,
	}
	for _, op := range ops {
		t.Run(op, func(t *testing.T) {
			f := newFixture(t)
			a := f.business("Acme Wholesale")
			b := f.business("Bolt Traders")
			p := f.product(a.ID, "Cement 50kg", 10, ptr(100), nil)
			f.addToCart(t, b.ID, p.ID, 3, nil)
			before := f.store.Counts()

			f.store.FailOn(op, errBoom)
			_, err := f.engine.Checkout(f.ctx, b.ID)
			require.Error(t, err)
			assert.True(t, apperrors.IsCategory(err, apperrors.CategoryTransaction))

			assert.Equal(t, before, f.store.Counts())
			assert.Equal(t, 10, f.qty(t, p.ID))
			seller, _ := f.store.Businesses().FindByID(f.ctx, a.ID)
			assert.Empty(t, seller.Sales)
			assert.Empty(t, f.events.names())

			f.store.ResetFailures()
			_, err = f.engine.Checkout(f.ctx, b.ID)
			assert.NoError(t, err, "the cart survives for a retry")
		})
	}
}

func TestCheckout_ConcurrentAttemptsCommitOnce(t *testing.T) {
	f := newFixture(t)
	a := f.business("Acme Wholesale")
	b := f.business("Bolt Traders")
	p := f.product(a.ID, "Cement 50kg", 10, ptr(100), nil)
	f.addToCart(t, b.ID, p.ID, 2, nil)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.engine.Checkout(f.ctx, b.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperrors.IsCategory(err, apperrors.CategoryConflict) || apperrors.IsCategory(err, apperrors.CategoryValidation), err.Error())
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, f.store.Counts()[repository.SalesCollection])
	assert.Equal(t, 8, f.qty(t, p.ID))
}

func TestCommitDraft_NegotiatedOrder(t *testing.T) {
	f := newFixture(t)
	a := f.business("Acme Wholesale")
	b := f.business("Bolt Traders")
	p := f.product(a.ID, "Cement 50kg", 10, ptr(100), nil)

	order, note := f.draft(t, b.ID, p.ID, 2, 100)
	assert.Equal(t, models.NotificationOrderReceived, note.Type)
	assert.Equal(t, a.ID, note.Recipient)
	assert.Equal(t, b.ID, note.Initiator)
	assert.Equal(t, models.RefOrder, note.Order.RefType)

	view, err := f.drafts.Update(f.ctx, a.ID, order.ID, []models.LineItemRequest{line(p.ID, 5, 100)})
	require.NoError(t, err)
	assert.Equal(t, 500.0, view.TotalAmount)

	res, err := f.engine.CommitDraft(f.ctx, a.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 500.0, res.Total)
	sale, purchase := assertPaired(t, f, res)
	assert.Equal(t, a.ID, sale.Seller)
	assert.Equal(t, b.ID, sale.Buyer)

	_, err = f.store.Orders().FindByID(f.ctx, order.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	flipped, err := f.store.Notifications().FindByID(f.ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationOrderConfirmed, flipped.Type)
	assert.Equal(t, a.ID, flipped.Initiator)
	assert.Equal(t, b.ID, flipped.Recipient)
	assert.Equal(t, &models.OrderRef{RefType: models.RefPurchase, ID: purchase.ID}, flipped.Order)
	assert.False(t, flipped.IsRead)

	shadow, err := f.store.Customers().FindByName(f.ctx, a.ID, "Bolt Traders")
	require.NoError(t, err)
	prices := f.store.AllPrices()
	require.Len(t, prices, 1)
	assert.Equal(t, a.ID, prices[0].Business)
	assert.Equal(t, shadow.ID, prices[0].Customer)
	assert.Equal(t, p.ID, prices[0].Product)
	assert.Equal(t, 100.0, prices[0].Price)
	assert.Equal(t, kolkataDate, prices[0].EffectiveDate)

	seller, _ := f.store.Businesses().FindByID(f.ctx, a.ID)
	assert.Contains(t, seller.Customers, shadow.ID)
	assert.Equal(t, 5, f.qty(t, p.ID))
	assert.Equal(t, []string{models.EventDrafted, models.EventConfirmed}, f.events.names())
}

func TestCommitDraft_OnlySellerMayCommit(t *testing.T) {
	f := newFixture(t)
	a := f.business("Acme Wholesale")
	b := f.business("Bolt Traders")
	stranger := f.business("Cobalt Stores")
	p := f.product(a.ID, "Cement 50kg", 10, ptr(100), nil)
	order, _ := f.draft(t, b.ID, p.ID, 2, 100)

	_, err := f.engine.CommitDraft(f.ctx, b.ID, order.ID)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryForbidden))

	_, err = f.engine.CommitDraft(f.ctx, stranger.ID, order.ID)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryNotFound))
}

func TestCommitDraft_SecondCommitFails(t *testing.T) {
	f := newFixture(t)
	a := f.business("Acme Wholesale")
	b := f.business("Bolt Traders")
	p := f.product(a.ID, "Cement 50kg", 10, ptr(100), nil)
	order, _ := f.draft(t, b.ID, p.ID, 2, 100)

	_, err := f.engine.CommitDraft(f.ctx, a.ID, order.ID)
	require.NoError(t, err)

	_, err = f.engine.CommitDraft(f.ctx, a.ID, order.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryNotFound))
	assert.Equal(t, 1, f.store.Counts()[repository.SalesCollection])
}

func TestCommitDraft_ConcurrentCommitsSucceedOnce(t *testing.T) {
	f := newFixture(t)
	a := f.business("Acme Wholesale")
	b := f.business("Bolt Traders")
	p := f.product(a.ID, "Cement 50kg", 10, ptr(100), nil)
	order, _ := f.draft(t, b.ID, p.ID, 2, 100)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.engine.CommitDraft(f.ctx, a.ID, order.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperrors.IsCategory(err, apperrors.CategoryConflict) || apperrors.IsCategory(err, apperrors.CategoryNotFound), err.Error())
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, f.store.Counts()[repository.SalesCollection])
	assert.Equal(t, 1, f.store.Counts()[repository.PurchasesCollection])
}

func TestCommitDraft_FailureAtEveryStepRollsBack(t *testing.T) {
	ops := []string{
		repository.OpInventoryDecrement,
		repository.OpSaleInsert,
		repository.OpPurchaseInsert,
		repository.OpBusinessAppendSale,
		repository.OpBusinessAppendPurchase,
		repository.OpOrderDelete,
		repository.OpCustomerFindOrCreate,
		repository.OpBusinessAppendCustomer,
		repository.OpPriceUpsert,
		repository.OpNotificationReplace,
		repository.OpNotificationRetarget,
	}
	for _, op := range ops {
		t.Run(op, func(t *testing.T) {
			f := newFixture(t)
			a := f.business("Acme Wholesale")
			b := f.business("Bolt Traders")
			p := f.product(a.ID, "Cement 50kg", 10, ptr(100), nil)
			order, note := f.draft(t, b.ID, p.ID, 2, 100)
			before := f.store.Counts()

			f.store.FailOn(op, errBoom)
			_, err := f.engine.CommitDraft(f.ctx, a.ID, order.ID)
			require.Error(t, err)
			assert.True(t, apperrors.IsCategory(err, apperrors.CategoryTransaction))

			assert.Equal(t, before, f.store.Counts())
			assert.Empty(t, f.store.AllPrices())
			assert.Equal(t, 10, f.qty(t, p.ID))

			kept, err := f.store.Orders().FindByID(f.ctx, order.ID)
			require.NoError(t, err)
			assert.Equal(t, order.Products, kept.Products)

			n, err := f.store.Notifications().FindByID(f.ctx, note.ID)
			require.NoError(t, err)
			assert.Equal(t, models.NotificationOrderReceived, n.Type)
			assert.Equal(t, models.RefOrder, n.Order.RefType)
		})
	}
}

func TestCommitDraft_WithoutNotificationCreatesOne(t *testing.T) {
	f := newFixture(t)
	a := f.business("Acme Wholesale")
	b := f.business("Bolt Traders")
	p := f.product(a.ID, "Cement 50kg", 10, ptr(100), nil)

	order := &models.Order{Business: a.ID, Customer: b.ID, Products: []models.LineItem{{Product: p.ID, Quantity: 1, Price: 90}}, TotalAmount: 90}
	require.NoError(t, f.store.Orders().Insert(f.ctx, order))

	res, err := f.engine.CommitDraft(f.ctx, a.ID, order.ID)
	require.NoError(t, err)

	notes, err := f.store.Notifications().List(f.ctx, repository.NotificationQuery{Recipient: &b.ID})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationOrderConfirmed, notes[0].Type)
	assert.Equal(t, *res.PurchaseID, notes[0].Order.ID)
}

func TestReject_DeletesDraftAndFlipsNotification(t *testing.T) {
	f := newFixture(t)
	a := f.business("Acme Wholesale")
	b := f.business("Bolt Traders")
	p := f.product(a.ID, "Cement 50kg", 10, ptr(100), nil)
	order, note := f.draft(t, b.ID, p.ID, 2, 100)

	rejected, err := f.engine.Reject(f.ctx, a.ID, note.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationOrderRejected, rejected.Type)
	assert.Equal(t, a.ID, rejected.Initiator)
	assert.Equal(t, b.ID, rejected.Recipient)
	assert.Nil(t, rejected.Order)
	assert.False(t, rejected.IsRead)

	_, err = f.store.Orders().FindByID(f.ctx, order.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, recordedTxn{services.FlowReject, services.OutcomeRejected}, f.recorder.last())

	_, err = f.engine.Reject(f.ctx, b.ID, note.ID)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryConflict))
}

func TestCommitDraft_FlipsOriginatingNotificationAfterFollowUps(t *testing.T) {
	f := newFixture(t)
	a := f.business("Acme Wholesale")
	b := f.business("Bolt Traders")
	p := f.product(a.ID, "Cement 50kg", 10, ptr(100), nil)
	order, received := f.draft(t, b.ID, p.ID, 2, 100)

	update, err := f.notes.Create(f.ctx, a.ID, models.CreateNotificationRequest{
		Recipient: b.ID.Hex(),
		OrderID:   order.ID.Hex(),
		Type:      models.NotificationOrderUpdate,
	})
	require.NoError(t, err)

	res, err := f.engine.CommitDraft(f.ctx, a.ID, order.ID)
	require.NoError(t, err)

	confirmed, err := f.store.Notifications().FindByID(f.ctx, received.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationOrderConfirmed, confirmed.Type)
	assert.Equal(t, a.ID, confirmed.Initiator)
	assert.Equal(t, b.ID, confirmed.Recipient)
	assert.Equal(t, &models.OrderRef{RefType: models.RefPurchase, ID: *res.PurchaseID}, confirmed.Order)

	followUp, err := f.store.Notifications().FindByID(f.ctx, update.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationOrderUpdate, followUp.Type)
	assert.Equal(t, &models.OrderRef{RefType: models.RefPurchase, ID: *res.PurchaseID}, followUp.Order)

	_, err = f.store.Notifications().FindByOrderRef(f.ctx, order.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestReject_ClearsEveryNotificationForDraft(t *testing.T) {
	f := newFixture(t)
	a := f.business("Acme Wholesale")
	b := f.business("Bolt Traders")
	p := f.product(a.ID, "Cement 50kg", 10, ptr(100), nil)
	order, received := f.draft(t, b.ID, p.ID, 2, 100)

	update, err := f.notes.Create(f.ctx, a.ID, models.CreateNotificationRequest{
		Recipient: b.ID.Hex(),
		OrderID:   order.ID.Hex(),
		Type:      models.NotificationOrderUpdate,
	})
	require.NoError(t, err)

	rejected, err := f.engine.Reject(f.ctx, a.ID, received.ID)
	require.NoError(t, err)
	assert.Nil(t, rejected.Order)

	followUp, err := f.store.Notifications().FindByID(f.ctx, update.ID)
	require.NoError(t, err)
	assert.Nil(t, followUp.Order)

	_, err = f.store.Notifications().FindByOrderRef(f.ctx, order.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestReject_Atomic(t *testing.T) {
	for _, op := range []string{repository.OpOrderDelete, repository.OpNotificationReplace, repository.OpNotificationRetarget} {
		t.Run(op, func(t *testing.T) {
			f := newFixture(t)
			a := f.business("Acme Wholesale")
			b := f.business("Bolt Traders")
			p := f.product(a.ID, "Cement 50kg", 10, ptr(100), nil)
			order, note := f.draft(t, b.ID, p.ID, 2, 100)

			f.store.FailOn(op, errBoom)
			_, err := f.engine.Reject(f.ctx, a.ID, note.ID)
			require.Error(t, err)

			_, err = f.store.Orders().FindByID(f.ctx, order.ID)
			assert.NoError(t, err)
			n, _ := f.store.Notifications().FindByID(f.ctx, note.ID)
			assert.Equal(t, models.NotificationOrderReceived, n.Type)
			assert.NotNil(t, n.Order)
		})
	}
}

func TestReject_StrangerCannotSeeNotification(t *testing.T) {
	f := newFixture(t)
	a := f.business("Acme Wholesale")
	b := f.business("Bolt Traders")
	c := f.business("Cobalt Stores")
	p := f.product(a.ID, "Cement 50kg", 10, ptr(100), nil)
	_, note := f.draft(t, b.ID, p.ID, 2, 100)

	_, err := f.engine.Reject(f.ctx, c.ID, note.ID)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryNotFound))
}

func TestCreateOrder_BusinessBuyer(t *testing.T) {
	f := newFixture(t)
	a := f.business("Acme Wholesale")
	b := f.business("Bolt Traders")
	p := f.product(a.ID, "Cement 50kg", 10, ptr(100), nil)

	res, err := f.engine.CreateOrder(f.ctx, a.ID, models.CreateOrderRequest{
		CustomerID:      b.ID.Hex(),
		Products:        []models.LineItemRequest{line(p.ID, 4, 95)},
		TransactionType: models.TransactionOffline,
		Status:          models.StatusUnpaid,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BuyerTypeBusiness, res.BuyerType)
	sale, _ := assertPaired(t, f, res)
	assert.Equal(t, 380.0, sale.TotalAmount)
	assert.Equal(t, models.StatusUnpaid, sale.Status)

	shadow, err := f.store.Customers().FindByName(f.ctx, a.ID, "Bolt Traders")
	require.NoError(t, err)
	price, source, ok, err := f.resolver.ResolvePrice(f.ctx, a.ID, b.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 95.0, price)
	assert.Equal(t, models.PriceSourcePersonalized, source)

	prices := f.store.AllPrices()
	require.Len(t, prices, 1)
	assert.Equal(t, shadow.ID, prices[0].Customer)
}

func TestCreateOrder_WalkInCustomer(t *testing.T) {
	f := newFixture(t)
	a := f.business("Acme Wholesale")
	p := f.product(a.ID, "Cement 50kg", 10, ptr(100), nil)
	walkIn := f.store.PutCustomer(models.Customer{Business: a.ID, Name: "Ravi Kumar"})

	res, err := f.engine.CreateOrder(f.ctx, a.ID, models.CreateOrderRequest{
		CustomerID:      walkIn.ID.Hex(),
		Products:        []models.LineItemRequest{line(p.ID, 2, 110)},
		TransactionType: models.TransactionOffline,
		Status:          models.StatusPaid,
		PaymentMethod:   models.PaymentCash,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BuyerTypeCustomer, res.BuyerType)
	assert.Nil(t, res.PurchaseID)
	assert.Equal(t, 0, f.store.Counts()[repository.PurchasesCollection])

	prices := f.store.AllPrices()
	require.Len(t, prices, 1)
	assert.Equal(t, walkIn.ID, prices[0].Customer)
	assert.Equal(t, 110.0, prices[0].Price)

	sales, err := f.engine.ListSales(f.ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	require.NotNil(t, sales[0].BuyerDetails)
	assert.Equal(t, models.BuyerTypeCustomer, sales[0].BuyerDetails.Type)
	assert.Equal(t, "Ravi Kumar", sales[0].BuyerDetails.Customer.Name)
}

func TestCreateOrder_Validation(t *testing.T) {
	f := newFixture(t)
	a := f.business("Acme Wholesale")
	other := f.business("Other Seller")
	b := f.business("Bolt Traders")
	p := f.product(a.ID, "Cement 50kg", 10, ptr(100), nil)
	foreign := f.product(other.ID, "Steel rod", 10, ptr(50), nil)
	otherCustomer := f.store.PutCustomer(models.Customer{Business: other.ID, Name: "Someone"})

	base := func() models.CreateOrderRequest {
		return models.CreateOrderRequest{
			CustomerID:      b.ID.Hex(),
			Products:        []models.LineItemRequest{line(p.ID, 1, 100)},
			TransactionType: models.TransactionOnline,
			Status:          models.StatusPaid,
			PaymentMethod:   models.PaymentUPI,
		}
	}

	cases := []struct {
		name     string
		mutate   func(r *models.CreateOrderRequest)
		category string
	}{
		{"bad transaction type", func(r *models.CreateOrderRequest) { r.TransactionType = "Barter" }, apperrors.CategoryValidation},
		{"bad status", func(r *models.CreateOrderRequest) { r.Status = "Pending" }, apperrors.CategoryValidation},
		{"paid without method", func(r *models.CreateOrderRequest) { r.PaymentMethod = "" }, apperrors.CategoryValidation},
		{"unknown method", func(r *models.CreateOrderRequest) { r.PaymentMethod = "Cheque" }, apperrors.CategoryValidation},
		{"malformed customer", func(r *models.CreateOrderRequest) { r.CustomerID = "nope" }, apperrors.CategoryValidation},
		{"self", func(r *models.CreateOrderRequest) { r.CustomerID = a.ID.Hex() }, apperrors.CategoryValidation},
		{"zero quantity", func(r *models.CreateOrderRequest) { r.Products[0].Quantity = 0 }, apperrors.CategoryValidation},
		{"negative price", func(r *models.CreateOrderRequest) { r.Products[0].Price = -1 }, apperrors.CategoryValidation},
		{"no lines", func(r *models.CreateOrderRequest) { r.Products = nil }, apperrors.CategoryValidation},
		{"foreign product", func(r *models.CreateOrderRequest) { r.Products[0] = line(foreign.ID, 1, 50) }, apperrors.CategoryValidation},
		{"unknown product", func(r *models.CreateOrderRequest) { r.Products[0] = line(primitive.NewObjectID(), 1, 50) }, apperrors.CategoryNotFound},
		{"someone else's customer", func(r *models.CreateOrderRequest) { r.CustomerID = otherCustomer.ID.Hex() }, apperrors.CategoryNotFound},
		{"unknown customer", func(r *models.CreateOrderRequest) { r.CustomerID = primitive.NewObjectID().Hex() }, apperrors.CategoryNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := base()
			tc.mutate(&req)
			_, err := f.engine.CreateOrder(f.ctx, a.ID, req)
			require.Error(t, err)
			assert.True(t, apperrors.IsCategory(err, tc.category), err.Error())
		})
	}
	assert.Equal(t, 0, f.store.Counts()[repository.SalesCollection])
	assert.Equal(t, 0, f.store.Aborts())
}

func TestLedgerReads(t *testing.T) {
	f := newFixture(t)
	a := f.business("Acme Wholesale")
	b := f.business("Bolt Traders")
	c := f.business("Cobalt Stores")
	p := f.product(a.ID, "Cement 50kg", 10, ptr(100), nil)
	f.addToCart(t, b.ID, p.ID, 1, nil)
	res, err := f.engine.Checkout(f.ctx, b.ID)
	require.NoError(t, err)

	sales, err := f.engine.ListSales(f.ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "Bolt Traders", sales[0].BuyerDetails.Business.BusinessName)
	assert.Equal(t, "Acme Wholesale", sales[0].SellerDetail.BusinessName)

	purchases, err := f.engine.ListPurchases(f.ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	assert.Equal(t, "Acme Wholesale", purchases[0].SellerDetails.BusinessName)

	entry, err := f.engine.GetLedgerEntry(f.ctx, b.ID, res.SaleID)
	require.NoError(t, err)
	assert.Equal(t, services.EntrySale, entry.Kind)

	entry, err = f.engine.GetLedgerEntry(f.ctx, b.ID, *res.PurchaseID)
	require.NoError(t, err)
	assert.Equal(t, services.EntryPurchase, entry.Kind)

	_, err = f.engine.GetLedgerEntry(f.ctx, c.ID, res.SaleID)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryNotFound))
	_, err = f.engine.GetLedgerEntry(f.ctx, a.ID, primitive.NewObjectID())
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryNotFound))
}

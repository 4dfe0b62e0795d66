package services_test

import (
	"testing"

	"github.com/b2bconnect/commerce-backend/services/commerce-service/models"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/repository"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/services"
	apperrors "github.com/b2bconnect/commerce-backend/services/common/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDraftService_CreateFromCart(t *testing.T) {
	f := newFixture(t)
	a := f.business("Acme Wholesale")
	b := f.business("Bolt Traders")
	p := f.product(a.ID, "Cement 50kg", 10, ptr(100), nil)

	order, note := f.draft(t, b.ID, p.ID, 3, 95)
	assert.Equal(t, a.ID, order.Business)
	assert.Equal(t, b.ID, order.Customer)
	assert.Equal(t, 285.0, order.TotalAmount)
	assert.Equal(t, order.ID, note.Order.ID)
	assert.False(t, note.IsRead)

	counts := f.store.Counts()
	assert.Equal(t, 0, counts[repository.CartsCollection])
	assert.Equal(t, 1, counts[repository.OrdersCollection])
	assert.Equal(t, 0, counts[repository.SalesCollection])
	assert.Equal(t, 10, f.qty(t, p.ID), "drafting never touches stock")
	assert.Equal(t, recordedTxn{services.FlowDraft, services.OutcomeCommitted}, f.recorder.last())
}

func TestDraftService_CreateFromEmptyCart(t *testing.T) {
	f := newFixture(t)
	b := f.business("Bolt Traders")

	_, err := f.drafts.CreateFromCart(f.ctx, b.ID)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryValidation))
	assert.Equal(t, 0, f.store.Counts()[repository.OrdersCollection])
}

func TestDraftService_CreateFromCartIsAtomic(t *testing.T) {
	for _, op := range []string{repository.OpOrderInsert, repository.OpNotificationInsert, repository.OpCartDelete} {
		t.Run(op, func(t *testing.T) {
			f := newFixture(t)
			a := f.business("Acme Wholesale")
			b := f.business("Bolt Traders")
			p := f.product(a.ID, "Cement 50kg", 10, ptr(100), nil)
			f.addToCart(t, b.ID, p.ID, 1, nil)
			before := f.store.Counts()

			f.store.FailOn(op, errBoom)
			_, err := f.drafts.CreateFromCart(f.ctx, b.ID)
			require.Error(t, err)
			assert.True(t, apperrors.IsCategory(err, apperrors.CategoryTransaction))
			assert.Equal(t, before, f.store.Counts())
			assert.Empty(t, f.events.names())
		})
	}
}

func TestDraftService_GetIsLimitedToParties(t *testing.T) {
	f := newFixture(t)
	a := f.business("Acme Wholesale")
	b := f.business("Bolt Traders")
	c := f.business("Cobalt Stores")
	p := f.product(a.ID, "Cement 50kg", 10, ptr(100), nil)
	order, _ := f.draft(t, b.ID, p.ID, 2, 100)

	for _, caller := range []primitive.ObjectID{a.ID, b.ID} {
		view, err := f.drafts.Get(f.ctx, caller, order.ID)
		require.NoError(t, err)
		assert.Equal(t, "Acme Wholesale", view.Business.BusinessName)
		assert.Equal(t, "Bolt Traders", view.Customer.BusinessName)
		require.Len(t, view.Products, 1)
		assert.Equal(t, "Cement 50kg", view.Products[0].Product.Name)
		assert.Equal(t, 200.0, view.Products[0].Subtotal)
	}

	_, err := f.drafts.Get(f.ctx, c.ID, order.ID)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryNotFound))
	_, err = f.drafts.Get(f.ctx, a.ID, primitive.NewObjectID())
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryNotFound))
}

func TestDraftService_UpdateRecordsPricesWhenShadowExists(t *testing.T) {
	f := newFixture(t)
	a := f.business("Acme Wholesale")
	b := f.business("Bolt Traders")
	p := f.product(a.ID, "Cement 50kg", 10, ptr(100), nil)
	q := f.product(a.ID, "Sand", 10, ptr(40), nil)
	shadow := f.store.PutCustomer(customerNamed(a.ID, "Bolt Traders"))
	order, _ := f.draft(t, b.ID, p.ID, 2, 100)

	view, err := f.drafts.Update(f.ctx, a.ID, order.ID, []models.LineItemRequest{line(p.ID, 2, 92), line(q.ID, 4, 35)})
	require.NoError(t, err)
	assert.Equal(t, 324.0, view.TotalAmount)
	assert.Len(t, view.Products, 2)

	rows := f.store.AllPrices()
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, shadow.ID, row.Customer)
		assert.Equal(t, kolkataDate, row.EffectiveDate)
	}

	price, source, _, err := f.resolver.ResolvePrice(f.ctx, a.ID, b.ID, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 35.0, price)
	assert.Equal(t, models.PriceSourcePersonalized, source)
}

func TestDraftService_UpdateWithoutShadowSkipsLedger(t *testing.T) {
	f := newFixture(t)
	a := f.business("Acme Wholesale")
	b := f.business("Bolt Traders")
	p := f.product(a.ID, "Cement 50kg", 10, ptr(100), nil)
	order, _ := f.draft(t, b.ID, p.ID, 2, 100)

	_, err := f.drafts.Update(f.ctx, b.ID, order.ID, []models.LineItemRequest{line(p.ID, 1, 100)})
	require.NoError(t, err)
	assert.Empty(t, f.store.AllPrices())

	stored, err := f.store.Orders().FindByID(f.ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Products[0].Quantity)
	assert.Equal(t, 100.0, stored.TotalAmount)
}

func TestDraftService_UpdateRejections(t *testing.T) {
	f := newFixture(t)
	a := f.business("Acme Wholesale")
	b := f.business("Bolt Traders")
	c := f.business("Cobalt Stores")
	p := f.product(a.ID, "Cement 50kg", 10, ptr(100), nil)
	foreign := f.product(c.ID, "Tiles", 10, ptr(20), nil)
	order, _ := f.draft(t, b.ID, p.ID, 2, 100)

	_, err := f.drafts.Update(f.ctx, c.ID, order.ID, []models.LineItemRequest{line(p.ID, 1, 1)})
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryNotFound))

	_, err = f.drafts.Update(f.ctx, a.ID, order.ID, []models.LineItemRequest{line(foreign.ID, 1, 1)})
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryValidation))

	_, err = f.drafts.Update(f.ctx, a.ID, order.ID, []models.LineItemRequest{line(p.ID, 1, 1), line(p.ID, 2, 1)})
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryValidation))

	_, err = f.drafts.Update(f.ctx, a.ID, order.ID, nil)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryValidation))

	f.store.FailOn(repository.OpOrderUpdate, errBoom)
	_, err = f.drafts.Update(f.ctx, a.ID, order.ID, []models.LineItemRequest{line(p.ID, 9, 1)})
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryTransaction))
	assert.Equal(t, recordedTxn{services.FlowDraftUpdate, services.OutcomeFailed}, f.recorder.last())

	stored, err := f.store.Orders().FindByID(f.ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Products[0].Quantity)
}

func TestDraftService_UpdateRollsBackWhenLedgerFails(t *testing.T) {
	f := newFixture(t)
	a := f.business("Acme Wholesale")
	b := f.business("Bolt Traders")
	p := f.product(a.ID, "Cement 50kg", 10, ptr(100), nil)
	f.store.PutCustomer(customerNamed(a.ID, "Bolt Traders"))
	order, _ := f.draft(t, b.ID, p.ID, 2, 100)

	f.store.FailOn(repository.OpPriceUpsert, errBoom)
	_, err := f.drafts.Update(f.ctx, a.ID, order.ID, []models.LineItemRequest{line(p.ID, 7, 70)})
	require.Error(t, err)

	stored, err := f.store.Orders().FindByID(f.ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 200.0, stored.TotalAmount)
	assert.Empty(t, f.store.AllPrices())
}

package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/b2bconnect/commerce-backend/services/commerce-service/models"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMemoryStore_TransactionRollsBackEveryWrite(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seller := store.PutBusiness(models.Business{BusinessName: "Acme"})
	item := store.PutInventory(models.Inventory{Business: seller.ID, Name: "Cement", Qty: 5})

	err := store.WithTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, store.Inventory().Decrement(ctx, seller.ID, item.ID, 3))
		require.NoError(t, store.Sales().Insert(ctx, &models.Sale{Seller: seller.ID}))
		require.NoError(t, store.Businesses().AppendSale(ctx, seller.ID, primitive.NewObjectID()))
		return errors.New("abort")
	})
	require.Error(t, err)

	got, err := store.Inventory().FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Qty)
	assert.Equal(t, 0, store.Counts()[repository.SalesCollection])
	b, _ := store.Businesses().FindByID(ctx, seller.ID)
	assert.Empty(t, b.Sales)
	assert.Equal(t, 1, store.Aborts())
}

func TestMemoryStore_NestedTransactionJoinsOuter(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()

	err := store.WithTransaction(ctx, func(ctx context.Context) error {
		inner := store.WithTransaction(ctx, func(ctx context.Context) error {
			return store.Orders().Insert(ctx, &models.Order{})
		})
		require.NoError(t, inner)
		return errors.New("outer fails")
	})
	require.Error(t, err)
	assert.Equal(t, 0, store.Counts()[repository.OrdersCollection])
}

func TestMemoryStore_DecrementGuards(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seller := primitive.NewObjectID()
	item := store.PutInventory(models.Inventory{Business: seller, Name: "Cement", Qty: 2})

	assert.ErrorIs(t, store.Inventory().Decrement(ctx, seller, item.ID, 3), repository.ErrInsufficientStock)
	assert.ErrorIs(t, store.Inventory().Decrement(ctx, primitive.NewObjectID(), item.ID, 1), repository.ErrNotFound)
	assert.ErrorIs(t, store.Inventory().Decrement(ctx, seller, primitive.NewObjectID(), 1), repository.ErrNotFound)
	require.NoError(t, store.Inventory().Decrement(ctx, seller, item.ID, 2))

	got, _ := store.Inventory().FindByID(ctx, item.ID)
	assert.Zero(t, got.Qty)
}

func TestMemoryStore_ConditionalDeletes(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	buyer := primitive.NewObjectID()

	require.NoError(t, store.Carts().Save(ctx, &models.Cart{Buyer: buyer}))
	require.NoError(t, store.Carts().DeleteByBuyer(ctx, buyer))
	assert.ErrorIs(t, store.Carts().DeleteByBuyer(ctx, buyer), repository.ErrNothingDeleted)

	order := &models.Order{}
	require.NoError(t, store.Orders().Insert(ctx, order))
	require.NoError(t, store.Orders().Delete(ctx, order.ID))
	assert.ErrorIs(t, store.Orders().Delete(ctx, order.ID), repository.ErrNothingDeleted)
}

func TestMemoryStore_CustomersFindOrCreate(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	business := primitive.NewObjectID()

	first, created, err := store.Customers().FindOrCreate(ctx, business, "Bolt Traders")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := store.Customers().FindOrCreate(ctx, business, "Bolt Traders")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	err = store.Customers().Insert(ctx, &models.Customer{Business: business, Name: "Bolt Traders"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	other, created, err := store.Customers().FindOrCreate(ctx, primitive.NewObjectID(), "Bolt Traders")
	require.NoError(t, err)
	assert.True(t, created, "names are unique per business only")
	assert.NotEqual(t, first.ID, other.ID)
}

func TestMemoryStore_PriceUpsertKeepsOneRowPerKey(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	b, c, p := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	require.NoError(t, store.Prices().Upsert(ctx, []models.PersonalizedPrice{{Business: b, Customer: c, Product: p, Price: 10, EffectiveDate: "20260101"}}))
	first, err := store.Prices().Find(ctx, b, c, p)
	require.NoError(t, err)

	require.NoError(t, store.Prices().Upsert(ctx, []models.PersonalizedPrice{{Business: b, Customer: c, Product: p, Price: 12, EffectiveDate: "20260102"}}))
	second, err := store.Prices().Find(ctx, b, c, p)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 12.0, second.Price)
	assert.Equal(t, "20260102", second.EffectiveDate)
	assert.Len(t, store.AllPrices(), 1)

	rows, err := store.Prices().FindForProducts(ctx, b, c, []primitive.ObjectID{p, primitive.NewObjectID()})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestMemoryStore_NotificationQueries(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	orderID := primitive.NewObjectID()

	received := &models.Notification{Initiator: b, Recipient: a, Type: models.NotificationOrderReceived, Order: &models.OrderRef{RefType: models.RefOrder, ID: orderID}}
	require.NoError(t, store.Notifications().Insert(ctx, received))
	require.NoError(t, store.Notifications().Insert(ctx, &models.Notification{Initiator: a, Recipient: b, Type: models.NotificationOrderRejected}))

	list, err := store.Notifications().List(ctx, repository.NotificationQuery{Recipient: &a, Type: models.NotificationOrderReceived})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, received.ID, list[0].ID)

	found, err := store.Notifications().FindByOrderRef(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, received.ID, found.ID)

	count, err := store.Notifications().CountUnread(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = store.Notifications().MarkRead(ctx, received.ID, b)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = store.Notifications().MarkRead(ctx, received.ID, a)
	require.NoError(t, err)

	unread, err := store.Notifications().List(ctx, repository.NotificationQuery{Recipient: &a, UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, unread)

	byOrder, err := store.Notifications().ListByOrder(ctx, orderID, primitive.NewObjectID())
	require.NoError(t, err)
	assert.Empty(t, byOrder)
}

func TestMemoryStore_OriginatingNotificationAndRetarget(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	orderID := primitive.NewObjectID()
	draftRef := &models.OrderRef{RefType: models.RefOrder, ID: orderID}

	received := &models.Notification{Initiator: b, Recipient: a, Type: models.NotificationOrderReceived, Order: draftRef}
	require.NoError(t, store.Notifications().Insert(ctx, received))
	update := &models.Notification{Initiator: a, Recipient: b, Type: models.NotificationOrderUpdate, Order: draftRef}
	require.NoError(t, store.Notifications().Insert(ctx, update))

	found, err := store.Notifications().FindByOrderRef(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, received.ID, found.ID)

	purchase := &models.OrderRef{RefType: models.RefPurchase, ID: primitive.NewObjectID()}
	modified, err := store.Notifications().RetargetOrderRef(ctx, orderID, purchase)
	require.NoError(t, err)
	assert.Equal(t, int64(2), modified)

	got, err := store.Notifications().FindByID(ctx, update.ID)
	require.NoError(t, err)
	assert.Equal(t, purchase, got.Order)

	_, err = store.Notifications().FindByOrderRef(ctx, orderID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	modified, err = store.Notifications().RetargetOrderRef(ctx, orderID, nil)
	require.NoError(t, err)
	assert.Zero(t, modified)
}

func TestMemoryStore_FailOn(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	boom := errors.New("boom")

	store.FailOn(repository.OpSaleInsert, boom)
	assert.ErrorIs(t, store.Sales().Insert(ctx, &models.Sale{}), boom)

	store.ResetFailures()
	assert.NoError(t, store.Sales().Insert(ctx, &models.Sale{}))
}

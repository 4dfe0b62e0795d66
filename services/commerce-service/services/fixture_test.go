package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/b2bconnect/commerce-backend/services/commerce-service/models"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/repository"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/services"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 20:30 UTC on the 5th is already the 6th in Kolkata
var fixedNow = time.Date(2026, time.March, 5, 20, 30, 0, 0, time.UTC)

const kolkataDate = "20260306"

type recordedTxn struct{ flow, outcome string }

type recordingRecorder struct {
	mu   sync.Mutex
	txns []recordedTxn
}

func (r *recordingRecorder) ObserveTransaction(flow, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txns = append(r.txns, recordedTxn{flow, outcome})
}

func (r *recordingRecorder) last() recordedTxn {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.txns) == 0 {
		return recordedTxn{}
	}
	return r.txns[len(r.txns)-1]
}

type capturePublisher struct {
	mu     sync.Mutex
	events []models.OrderEvent
}

func (p *capturePublisher) Publish(_ context.Context, e models.OrderEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *capturePublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Event)
	}
	return out
}

type fixture struct {
	ctx      context.Context
	store    *repository.MemoryStore
	resolver *services.Resolver
	ledger   *services.PriceLedger
	engine   *services.Engine
	drafts   *services.DraftService
	carts    *services.CartService
	notes    *services.NotificationService
	recorder *recordingRecorder
	events   *capturePublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	store := repository.NewMemoryStore()
	clock := func() time.Time { return fixedNow }
	rec := &recordingRecorder{}
	pub := &capturePublisher{}

	resolver := services.NewResolver(store)
	ledger := services.NewPriceLedger(store.Prices(), clock, loc)
	return &fixture{
		ctx:      context.Background(),
		store:    store,
		resolver: resolver,
		ledger:   ledger,
		engine: services.NewEngine(store, ledger,
			services.WithRecorder(rec),
			services.WithEvents(pub),
			services.WithClock(clock),
		),
		drafts: services.NewDraftService(store, ledger, resolver,
			services.WithDraftRecorder(rec),
			services.WithDraftEvents(pub),
		),
		carts:    services.NewCartService(store, resolver),
		notes:    services.NewNotificationService(store),
		recorder: rec,
		events:   pub,
	}
}

func ptr(v float64) *float64 { return &v }

func (f *fixture) business(name string) models.Business {
	return f.store.PutBusiness(models.Business{BusinessName: name, Contact: "+91" + primitive.NewObjectID().Hex()[:10]})
}

func (f *fixture) product(seller primitive.ObjectID, name string, qty int, genPrice, price *float64) models.Inventory {
	return f.store.PutInventory(models.Inventory{
		Business: seller,
		Name:     name,
		Qty:      qty,
		GenPrice: genPrice,
		Price:    price,
	})
}

func (f *fixture) addToCart(t *testing.T, buyer, product primitive.ObjectID, qty int, price *float64) *models.CartView {
	t.Helper()
	cart, err := f.carts.AddItem(f.ctx, buyer, services.AddItemInput{ProductID: product, Quantity: qty, Price: price})
	require.NoError(t, err)
	return cart
}

// draft puts one line in buyer's cart and turns it into a draft
func (f *fixture) draft(t *testing.T, buyer, product primitive.ObjectID, qty int, price float64) (*models.Order, *models.Notification) {
	t.Helper()
	f.addToCart(t, buyer, product, qty, ptr(price))
	order, err := f.drafts.CreateFromCart(f.ctx, buyer)
	require.NoError(t, err)

	note, err := f.store.Notifications().FindByOrderRef(f.ctx, order.ID)
	require.NoError(t, err)
	return order, note
}

func (f *fixture) qty(t *testing.T, product primitive.ObjectID) int {
	t.Helper()
	it, err := f.store.Inventory().FindByID(f.ctx, product)
	require.NoError(t, err)
	return it.Qty
}

func line(product primitive.ObjectID, qty int, price float64) models.LineItemRequest {
	return models.LineItemRequest{Product: product.Hex(), Quantity: qty, Price: price}
}

func customerNamed(business primitive.ObjectID, name string) models.Customer {
	return models.Customer{Business: business, Name: name}
}

func items(product primitive.ObjectID, qty int, price float64) []models.LineItem {
	return []models.LineItem{{Product: product, Quantity: qty, Price: price}}
}

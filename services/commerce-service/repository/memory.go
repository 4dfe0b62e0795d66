package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/b2bconnect/commerce-backend/services/commerce-service/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Operation names accepted by MemoryStore.FailOn
const (
	OpBusinessAppendSale     = "businesses.append_sale"
	OpBusinessAppendPurchase = "businesses.append_purchase"
	OpBusinessAppendCustomer = "businesses.append_customer"
	OpInventoryDecrement     = "inventory.decrement"
	OpCustomerInsert         = "customers.insert"
	OpCustomerFindOrCreate   = "customers.find_or_create"
	OpCartSave               = "carts.save"
	OpCartDelete             = "carts.delete"
	OpOrderInsert            = "orders.insert"
	OpOrderUpdate            = "orders.update"
	OpOrderDelete            = "orders.delete"
	OpSaleInsert             = "sales.insert"
	OpPurchaseInsert         = "purchases.insert"
	OpNotificationInsert     = "notifications.insert"
	OpNotificationReplace    = "notifications.replace"
	OpNotificationRetarget   = "notifications.retarget"
	OpPriceUpsert            = "prices.upsert"
)

type priceKey struct {
	business, customer, product primitive.ObjectID
}

type memData struct {
	businesses    map[primitive.ObjectID]models.Business
	inventory     map[primitive.ObjectID]models.Inventory
	customers     map[primitive.ObjectID]models.Customer
	carts         map[primitive.ObjectID]models.Cart // keyed by buyer
	orders        map[primitive.ObjectID]models.Order
	sales         map[primitive.ObjectID]models.Sale
	purchases     map[primitive.ObjectID]models.Purchase
	notifications map[primitive.ObjectID]models.Notification
	prices        map[priceKey]models.PersonalizedPrice
	invoices      map[primitive.ObjectID]models.Invoice
}

func newMemData() memData {
	return memData{
		businesses:    map[primitive.ObjectID]models.Business{},
		inventory:     map[primitive.ObjectID]models.Inventory{},
		customers:     map[primitive.ObjectID]models.Customer{},
		carts:         map[primitive.ObjectID]models.Cart{},
		orders:        map[primitive.ObjectID]models.Order{},
		sales:         map[primitive.ObjectID]models.Sale{},
		purchases:     map[primitive.ObjectID]models.Purchase{},
		notifications: map[primitive.ObjectID]models.Notification{},
		prices:        map[priceKey]models.PersonalizedPrice{},
		invoices:      map[primitive.ObjectID]models.Invoice{},
	}
}

func (d memData) clone() memData {
	c := newMemData()
	for k, v := range d.businesses {
		v.Customers = cloneIDs(v.Customers)
		v.Sales = cloneIDs(v.Sales)
		v.Purchases = cloneIDs(v.Purchases)
		c.businesses[k] = v
	}
	for k, v := range d.inventory {
		c.inventory[k] = v
	}
	for k, v := range d.customers {
		c.customers[k] = v
	}
	for k, v := range d.carts {
		c.carts[k] = cloneCart(v)
	}
	for k, v := range d.orders {
		v.Products = models.CloneItems(v.Products)
		c.orders[k] = v
	}
	for k, v := range d.sales {
		v.Products = models.CloneItems(v.Products)
		c.sales[k] = v
	}
	for k, v := range d.purchases {
		v.Products = models.CloneItems(v.Products)
		c.purchases[k] = v
	}
	for k, v := range d.notifications {
		c.notifications[k] = cloneNotification(v)
	}
	for k, v := range d.prices {
		c.prices[k] = v
	}
	for k, v := range d.invoices {
		c.invoices[k] = v
	}
	return c
}

func cloneIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	if ids == nil {
		return nil
	}
	out := make([]primitive.ObjectID, len(ids))
	copy(out, ids)
	return out
}

func cloneCart(c models.Cart) models.Cart {
	c.Items = models.CloneItems(c.Items)
	if c.Seller != nil {
		s := *c.Seller
		c.Seller = &s
	}
	return c
}

func cloneNotification(n models.Notification) models.Notification {
	if n.Order != nil {
		ref := *n.Order
		n.Order = &ref
	}
	return n
}

type memTxKey struct{}

// MemoryStore is an in-process Store. Transactions are serialized and roll
// back by restoring a snapshot, which lets tests observe atomicity.
type MemoryStore struct {
	txMu sync.Mutex
	mu   sync.Mutex
	data memData

	failures map[string]error
	aborts   int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: newMemData(), failures: map[string]error{}}
}

// FailOn makes every later call of op return err until ResetFailures is called
func (s *MemoryStore) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// ResetFailures clears every injected failure
func (s *MemoryStore) ResetFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[string]error{}
}

// Aborts returns how many transactions were rolled back
func (s *MemoryStore) Aborts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aborts
}

func (s *MemoryStore) failure(op string) error {
	return s.failures[op]
}

func (s *MemoryStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.aborts++
		s.mu.Unlock()
		return err
	}
	return nil
}

// Seeding helpers

func (s *MemoryStore) PutBusiness(b models.Business) models.Business {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	s.data.businesses[b.ID] = b
	return b
}

func (s *MemoryStore) PutInventory(i models.Inventory) models.Inventory {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp(&i.ID, &i.CreatedAt, &i.UpdatedAt)
	s.data.inventory[i.ID] = i
	return i
}

func (s *MemoryStore) PutCustomer(c models.Customer) models.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	s.data.customers[c.ID] = c
	return c
}

func (s *MemoryStore) PutInvoice(inv models.Invoice) models.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv.ID.IsZero() {
		inv.ID = primitive.NewObjectID()
	}
	s.data.invoices[inv.ID] = inv
	return inv
}

// Counts returns the number of documents per collection
func (s *MemoryStore) Counts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]int{
		BusinessesCollection:         len(s.data.businesses),
		InventoriesCollection:        len(s.data.inventory),
		CustomersCollection:          len(s.data.customers),
		CartsCollection:              len(s.data.carts),
		OrdersCollection:             len(s.data.orders),
		SalesCollection:              len(s.data.sales),
		PurchasesCollection:          len(s.data.purchases),
		NotificationsCollection:      len(s.data.notifications),
		PersonalizedPricesCollection: len(s.data.prices),
		InvoicesCollection:           len(s.data.invoices),
	}
}

// AllPrices returns every ledger row
func (s *MemoryStore) AllPrices() []models.PersonalizedPrice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.PersonalizedPrice, 0, len(s.data.prices))
	for _, p := range s.data.prices {
		out = append(out, p)
	}
	return out
}

func (s *MemoryStore) Businesses() BusinessRepo { return memBusinesses{s} }
func (s *MemoryStore) Inventory() InventoryRepo { return memInventory{s} }
func (s *MemoryStore) Customers() CustomerRepo { return memCustomers{s} }
func (s *MemoryStore) Carts() CartRepo { return memCarts{s} }
func (s *MemoryStore) Orders() OrderRepo { return memOrders{s} }
func (s *MemoryStore) Sales() SaleRepo { return memSales{s} }
func (s *MemoryStore) Purchases() PurchaseRepo { return memPurchases{s} }
func (s *MemoryStore) Notifications() NotificationRepo { return memNotifications{s} }
func (s *MemoryStore) Prices() PriceRepo { return memPrices{s} }
func (s *MemoryStore) Invoices() InvoiceRepo { return memInvoices{s} }

// --- businesses ---

type memBusinesses struct{ s *MemoryStore }

func (r memBusinesses) FindByID(_ context.Context, id primitive.ObjectID) (*models.Business, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.data.businesses[id]
	if !ok {
		return nil, ErrNotFound
	}
	b.Customers, b.Sales, b.Purchases = cloneIDs(b.Customers), cloneIDs(b.Sales), cloneIDs(b.Purchases)
	return &b, nil
}

func (r memBusinesses) FindSummaries(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.BusinessSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[primitive.ObjectID]models.BusinessSummary, len(ids))
	for _, id := range ids {
		if b, ok := r.s.data.businesses[id]; ok {
			out[id] = b.Summary()
		}
	}
	return out, nil
}

func (r memBusinesses) AppendSale(_ context.Context, sellerID, saleID primitive.ObjectID) error {
	return r.push(OpBusinessAppendSale, sellerID, func(b *models.Business) { b.Sales = addToSet(b.Sales, saleID) })
}

func (r memBusinesses) AppendPurchase(_ context.Context, buyerID, purchaseID primitive.ObjectID) error {
	return r.push(OpBusinessAppendPurchase, buyerID, func(b *models.Business) { b.Purchases = addToSet(b.Purchases, purchaseID) })
}

func (r memBusinesses) AppendCustomer(_ context.Context, businessID, customerID primitive.ObjectID) error {
	return r.push(OpBusinessAppendCustomer, businessID, func(b *models.Business) { b.Customers = addToSet(b.Customers, customerID) })
}

func (r memBusinesses) SetRefreshToken(_ context.Context, id primitive.ObjectID, token string) error {
	return r.push("", id, func(b *models.Business) { b.RefreshToken = token })
}

func (r memBusinesses) push(op string, id primitive.ObjectID, apply func(*models.Business)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(op); err != nil {
		return err
	}
	b, ok := r.s.data.businesses[id]
	if !ok {
		return ErrNotFound
	}
	apply(&b)
	b.UpdatedAt = time.Now().UTC()
	r.s.data.businesses[id] = b
	return nil
}

func addToSet(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// --- inventory ---

type memInventory struct{ s *MemoryStore }

func (r memInventory) FindByID(_ context.Context, id primitive.ObjectID) (*models.Inventory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.data.inventory[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &it, nil
}

func (r memInventory) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Inventory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[primitive.ObjectID]models.Inventory, len(ids))
	for _, id := range ids {
		if it, ok := r.s.data.inventory[id]; ok {
			out[id] = it
		}
	}
	return out, nil
}

func (r memInventory) ListByBusiness(_ context.Context, businessID primitive.ObjectID) ([]models.Inventory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Inventory
	for _, it := range r.s.data.inventory {
		if it.Business == businessID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memInventory) Decrement(_ context.Context, sellerID, productID primitive.ObjectID, n int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpInventoryDecrement); err != nil {
		return err
	}
	it, ok := r.s.data.inventory[productID]
	if !ok || it.Business != sellerID {
		return ErrNotFound
	}
	if it.Qty < n {
		return ErrInsufficientStock
	}
	it.Qty -= n
	it.UpdatedAt = time.Now().UTC()
	r.s.data.inventory[productID] = it
	return nil
}

// --- customers ---

type memCustomers struct{ s *MemoryStore }

func (r memCustomers) FindByID(_ context.Context, id primitive.ObjectID) (*models.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.data.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (r memCustomers) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[primitive.ObjectID]models.Customer, len(ids))
	for _, id := range ids {
		if c, ok := r.s.data.customers[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func (r memCustomers) FindByName(_ context.Context, businessID primitive.ObjectID, name string) (*models.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.findCustomerLocked(businessID, name); ok {
		return &c, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) findCustomerLocked(businessID primitive.ObjectID, name string) (models.Customer, bool) {
	for _, c := range s.data.customers {
		if c.Business == businessID && c.Name == name {
			return c, true
		}
	}
	return models.Customer{}, false
}

func (r memCustomers) Insert(_ context.Context, c *models.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpCustomerInsert); err != nil {
		return err
	}
	if _, exists := r.s.findCustomerLocked(c.Business, c.Name); exists {
		return ErrDuplicate
	}
	now := time.Now().UTC()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.CreatedAt, c.UpdatedAt = now, now
	r.s.data.customers[c.ID] = *c
	return nil
}

func (r memCustomers) FindOrCreate(_ context.Context, businessID primitive.ObjectID, name string) (*models.Customer, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpCustomerFindOrCreate); err != nil {
		return nil, false, err
	}
	if c, ok := r.s.findCustomerLocked(businessID, name); ok {
		return &c, false, nil
	}
	now := time.Now().UTC()
	c := models.Customer{ID: primitive.NewObjectID(), Business: businessID, Name: name, CreatedAt: now, UpdatedAt: now}
	r.s.data.customers[c.ID] = c
	return &c, true, nil
}

// --- carts ---

type memCarts struct{ s *MemoryStore }

func (r memCarts) FindByBuyer(_ context.Context, buyerID primitive.ObjectID) (*models.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.data.carts[buyerID]
	if !ok {
		return nil, ErrNotFound
	}
	c = cloneCart(c)
	return &c, nil
}

func (r memCarts) Save(_ context.Context, cart *models.Cart) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpCartSave); err != nil {
		return err
	}
	now := time.Now().UTC()
	if cart.ID.IsZero() {
		cart.ID = primitive.NewObjectID()
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now
	if cart.Items == nil {
		cart.Items = []models.LineItem{}
	}
	r.s.data.carts[cart.Buyer] = cloneCart(*cart)
	return nil
}

func (r memCarts) DeleteByBuyer(_ context.Context, buyerID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpCartDelete); err != nil {
		return err
	}
	if _, ok := r.s.data.carts[buyerID]; !ok {
		return ErrNothingDeleted
	}
	delete(r.s.data.carts, buyerID)
	return nil
}

// --- orders ---

type memOrders struct{ s *MemoryStore }

func (r memOrders) Insert(_ context.Context, o *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpOrderInsert); err != nil {
		return err
	}
	stamp(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	stored := *o
	stored.Products = models.CloneItems(o.Products)
	r.s.data.orders[o.ID] = stored
	return nil
}

func (r memOrders) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.data.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.Products = models.CloneItems(o.Products)
	return &o, nil
}

func (r memOrders) UpdateItems(_ context.Context, id primitive.ObjectID, items []models.LineItem, total float64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpOrderUpdate); err != nil {
		return err
	}
	o, ok := r.s.data.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Products = models.CloneItems(items)
	o.TotalAmount = total
	o.UpdatedAt = time.Now().UTC()
	r.s.data.orders[id] = o
	return nil
}

func (r memOrders) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpOrderDelete); err != nil {
		return err
	}
	if _, ok := r.s.data.orders[id]; !ok {
		return ErrNothingDeleted
	}
	delete(r.s.data.orders, id)
	return nil
}

// --- sales / purchases ---

type memSales struct{ s *MemoryStore }

func (r memSales) Insert(_ context.Context, sale *models.Sale) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpSaleInsert); err != nil {
		return err
	}
	stamp(&sale.ID, &sale.CreatedAt, &sale.UpdatedAt)
	stored := *sale
	stored.Products = models.CloneItems(sale.Products)
	r.s.data.sales[sale.ID] = stored
	return nil
}

func (r memSales) FindByID(_ context.Context, id primitive.ObjectID) (*models.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sale, ok := r.s.data.sales[id]
	if !ok {
		return nil, ErrNotFound
	}
	sale.Products = models.CloneItems(sale.Products)
	return &sale, nil
}

func (r memSales) ListBySeller(_ context.Context, sellerID primitive.ObjectID) ([]models.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Sale{}
	for _, sale := range r.s.data.sales {
		if sale.Seller == sellerID {
			sale.Products = models.CloneItems(sale.Products)
			out = append(out, sale)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newer(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID) })
	return out, nil
}

type memPurchases struct{ s *MemoryStore }

func (r memPurchases) Insert(_ context.Context, p *models.Purchase) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpPurchaseInsert); err != nil {
		return err
	}
	stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	stored := *p
	stored.Products = models.CloneItems(p.Products)
	r.s.data.purchases[p.ID] = stored
	return nil
}

func (r memPurchases) FindByID(_ context.Context, id primitive.ObjectID) (*models.Purchase, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.data.purchases[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.Products = models.CloneItems(p.Products)
	return &p, nil
}

func (r memPurchases) ListByBuyer(_ context.Context, buyerID primitive.ObjectID) ([]models.Purchase, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Purchase{}
	for _, p := range r.s.data.purchases {
		if p.Buyer == buyerID {
			p.Products = models.CloneItems(p.Products)
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newer(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID) })
	return out, nil
}

// newer orders by creation time, falling back to the id for equal stamps
func newer(at time.Time, id primitive.ObjectID, bt time.Time, bid primitive.ObjectID) bool {
	if !at.Equal(bt) {
		return at.After(bt)
	}
	return id.Hex() > bid.Hex()
}

// --- notifications ---

type memNotifications struct{ s *MemoryStore }

func (r memNotifications) Insert(_ context.Context, n *models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpNotificationInsert); err != nil {
		return err
	}
	stamp(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	r.s.data.notifications[n.ID] = cloneNotification(*n)
	return nil
}

func (r memNotifications) FindByID(_ context.Context, id primitive.ObjectID) (*models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.data.notifications[id]
	if !ok {
		return nil, ErrNotFound
	}
	n = cloneNotification(n)
	return &n, nil
}

func (r memNotifications) FindByOrderRef(_ context.Context, orderID primitive.ObjectID) (*models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	matches := r.filterLocked(func(n models.Notification) bool {
		return refersToDraft(n, orderID)
	})
	if len(matches) == 0 {
		return nil, ErrNotFound
	}
	// filterLocked sorts newest first
	return &matches[len(matches)-1], nil
}

func (r memNotifications) RetargetOrderRef(_ context.Context, orderID primitive.ObjectID, ref *models.OrderRef) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpNotificationRetarget); err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	var modified int64
	for id, n := range r.s.data.notifications {
		if !refersToDraft(n, orderID) {
			continue
		}
		n.Order = nil
		if ref != nil {
			target := *ref
			n.Order = &target
		}
		n.UpdatedAt = now
		r.s.data.notifications[id] = n
		modified++
	}
	return modified, nil
}

func refersToDraft(n models.Notification, orderID primitive.ObjectID) bool {
	return n.Order != nil && n.Order.RefType == models.RefOrder && n.Order.ID == orderID
}

func (r memNotifications) Replace(_ context.Context, n *models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpNotificationReplace); err != nil {
		return err
	}
	if _, ok := r.s.data.notifications[n.ID]; !ok {
		return ErrNotFound
	}
	n.UpdatedAt = time.Now().UTC()
	r.s.data.notifications[n.ID] = cloneNotification(*n)
	return nil
}

func (r memNotifications) List(_ context.Context, q NotificationQuery) ([]models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.filterLocked(func(n models.Notification) bool {
		if q.Recipient != nil && n.Recipient != *q.Recipient {
			return false
		}
		if q.Initiator != nil && n.Initiator != *q.Initiator {
			return false
		}
		if q.RefType != "" && (n.Order == nil || n.Order.RefType != q.RefType) {
			return false
		}
		if q.Type != "" && n.Type != q.Type {
			return false
		}
		if q.UnreadOnly && n.IsRead {
			return false
		}
		return true
	}), nil
}

func (r memNotifications) ListByOrder(_ context.Context, orderID, participant primitive.ObjectID) ([]models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.filterLocked(func(n models.Notification) bool {
		return n.Order != nil && n.Order.ID == orderID && n.IsParticipant(participant)
	}), nil
}

func (r memNotifications) filterLocked(keep func(models.Notification) bool) []models.Notification {
	out := []models.Notification{}
	for _, n := range r.s.data.notifications {
		if keep(n) {
			out = append(out, cloneNotification(n))
		}
	}
	sort.Slice(out, func(i, j int) bool { return newer(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID) })
	return out
}

func (r memNotifications) MarkRead(_ context.Context, id, recipient primitive.ObjectID) (*models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.data.notifications[id]
	if !ok || n.Recipient != recipient {
		return nil, ErrNotFound
	}
	n.IsRead = true
	n.UpdatedAt = time.Now().UTC()
	r.s.data.notifications[id] = n
	out := cloneNotification(n)
	return &out, nil
}

func (r memNotifications) CountUnread(_ context.Context, recipient primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	for _, n := range r.s.data.notifications {
		if n.Recipient == recipient && !n.IsRead {
			count++
		}
	}
	return count, nil
}

// --- personalized prices ---

type memPrices struct{ s *MemoryStore }

func (r memPrices) Upsert(_ context.Context, entries []models.PersonalizedPrice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpPriceUpsert); err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, e := range entries {
		key := priceKey{e.Business, e.Customer, e.Product}
		row, ok := r.s.data.prices[key]
		if !ok {
			row = models.PersonalizedPrice{
				ID:        primitive.NewObjectID(),
				Business:  e.Business,
				Customer:  e.Customer,
				Product:   e.Product,
				CreatedAt: now,
			}
		}
		row.Price = e.Price
		row.EffectiveDate = e.EffectiveDate
		row.UpdatedAt = now
		r.s.data.prices[key] = row
	}
	return nil
}

func (r memPrices) Find(_ context.Context, businessID, customerID, productID primitive.ObjectID) (*models.PersonalizedPrice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.data.prices[priceKey{businessID, customerID, productID}]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r memPrices) FindForProducts(_ context.Context, businessID, customerID primitive.ObjectID, productIDs []primitive.ObjectID) ([]models.PersonalizedPrice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.PersonalizedPrice
	for _, pid := range productIDs {
		if p, ok := r.s.data.prices[priceKey{businessID, customerID, pid}]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// --- invoices ---

type memInvoices struct{ s *MemoryStore }

func (r memInvoices) FindByOrderID(_ context.Context, orderID primitive.ObjectID) (*models.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	hex := orderID.Hex()
	for _, inv := range r.s.data.invoices {
		if inv.SaleOrderID == hex || inv.PurchaseOrderID == hex {
			return &inv, nil
		}
	}
	return nil, ErrNotFound
}

package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/rl1809/order-fulfillment/internal/core/domain"
	"github.com/rl1809/order-fulfillment/internal/port"
)

var errInjected = errors.New("injected failure")

type fakeState struct {
	inventory map[int64]domain.Inventory
	orders    []domain.Order
	auditLogs []domain.AuditLog
	nextID    map[string]int64
}

func (s fakeState) clone() fakeState {
	c := fakeState{
		inventory: make(map[int64]domain.Inventory, len(s.inventory)),
		orders:    make([]domain.Order, len(s.orders)),
		auditLogs: make([]domain.AuditLog, len(s.auditLogs)),
		nextID:    make(map[string]int64, len(s.nextID)),
	}
	for k, v := range s.inventory {
		c.inventory[k] = v
	}
	copy(c.orders, s.orders)
	copy(c.auditLogs, s.auditLogs)
	for k, v := range s.nextID {
		c.nextID[k] = v
	}
	return c
}

// fakeStore is an in-memory database. An open transaction holds txMu, so
// transactions are serialized the way row locks serialize them on one
// product.
type fakeStore struct {
	txMu  sync.Mutex
	state fakeState

	countMu   sync.Mutex
	begins    int
	commits   int
	rollbacks int
	closes    int
	failOn    map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		state: fakeState{
			inventory: make(map[int64]domain.Inventory),
			nextID:    make(map[string]int64),
		},
		failOn: make(map[string]error),
	}
}

func (f *fakeStore) factory() port.UnitOfWorkFactory {
	return func() port.UnitOfWork { return &fakeUnitOfWork{store: f} }
}

func (f *fakeStore) seed(inv domain.Inventory) {
	f.state.inventory[inv.ProductID] = inv
	if inv.ProductID >= f.state.nextID["inventory"] {
		f.state.nextID["inventory"] = inv.ProductID
	}
}

func (f *fakeStore) fail(op string, err error) {
	f.countMu.Lock()
	defer f.countMu.Unlock()
	f.failOn[op] = err
}

func (f *fakeStore) injected(op string) error {
	f.countMu.Lock()
	defer f.countMu.Unlock()
	return f.failOn[op]
}

func (f *fakeStore) count(field *int) {
	f.countMu.Lock()
	defer f.countMu.Unlock()
	*field++
}

func (f *fakeStore) counters() (begins, commits, rollbacks, closes int) {
	f.countMu.Lock()
	defer f.countMu.Unlock()
	return f.begins, f.commits, f.rollbacks, f.closes
}

func (f *fakeStore) stock(productID int64) int {
	f.txMu.Lock()
	defer f.txMu.Unlock()
	return f.state.inventory[productID].Stock
}

func (f *fakeStore) orderCount() int {
	f.txMu.Lock()
	defer f.txMu.Unlock()
	return len(f.state.orders)
}

func (f *fakeStore) auditActions() []string {
	f.txMu.Lock()
	defer f.txMu.Unlock()
	actions := make([]string, len(f.state.auditLogs))
	for i, l := range f.state.auditLogs {
		actions[i] = l.Action
	}
	return actions
}

type fakeUnitOfWork struct {
	store    *fakeStore
	snapshot fakeState
	inTx     bool
	closed   bool
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error {
	if u.closed {
		return domain.NewInvalidState("unit of work is closed")
	}
	if u.inTx {
		return domain.NewInvalidState("transaction is already started")
	}
	if err := u.store.injected("begin"); err != nil {
		return domain.Unexpected("begin transaction", err)
	}
	u.store.txMu.Lock()
	u.snapshot = u.store.state.clone()
	u.inTx = true
	u.store.count(&u.store.begins)
	return nil
}

func (u *fakeUnitOfWork) Commit() error {
	if !u.inTx {
		return domain.NewInvalidState("transaction is not started")
	}
	if err := u.store.injected("commit"); err != nil {
		u.restore()
		return domain.Unexpected("commit transaction", err)
	}
	u.inTx = false
	u.store.txMu.Unlock()
	u.store.count(&u.store.commits)
	return nil
}

func (u *fakeUnitOfWork) Rollback() error {
	if !u.inTx {
		return domain.NewInvalidState("transaction is not started")
	}
	u.restore()
	u.store.count(&u.store.rollbacks)
	return nil
}

func (u *fakeUnitOfWork) restore() {
	u.store.state = u.snapshot
	u.inTx = false
	u.store.txMu.Unlock()
}

func (u *fakeUnitOfWork) Close() error {
	if u.closed {
		return nil
	}
	u.closed = true
	if u.inTx {
		u.restore()
		u.store.count(&u.store.rollbacks)
	}
	u.store.count(&u.store.closes)
	return nil
}

func (u *fakeUnitOfWork) Inventory() port.InventoryRepository { return fakeInventoryRepo{u} }
func (u *fakeUnitOfWork) Orders() port.OrderRepository        { return fakeOrderRepo{u} }
func (u *fakeUnitOfWork) AuditLogs() port.AuditLogRepository  { return fakeAuditLogRepo{u} }

// do runs fn against the store state, taking the store lock when no
// transaction already holds it.
func (u *fakeUnitOfWork) do(op string, fn func(st *fakeState) error) error {
	if err := u.store.injected(op); err != nil {
		return domain.Unexpected(op, err)
	}
	if !u.inTx {
		u.store.txMu.Lock()
		defer u.store.txMu.Unlock()
	}
	return fn(&u.store.state)
}

type fakeInventoryRepo struct{ u *fakeUnitOfWork }

func (r fakeInventoryRepo) GetByProductID(_ context.Context, productID int64) (*domain.Inventory, error) {
	var out *domain.Inventory
	err := r.u.do("inventory.GetByProductID", func(st *fakeState) error {
		if inv, ok := st.inventory[productID]; ok {
			out = &inv
		}
		return nil
	})
	return out, err
}

func (r fakeInventoryRepo) GetAll(context.Context) ([]domain.Inventory, error) {
	var out []domain.Inventory
	err := r.u.do("inventory.GetAll", func(st *fakeState) error {
		for _, inv := range st.inventory {
			out = append(out, inv)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
		return nil
	})
	return out, err
}

func (r fakeInventoryRepo) Create(_ context.Context, inv domain.Inventory) (int64, error) {
	err := r.u.do("inventory.Create", func(st *fakeState) error {
		st.nextID["inventory"]++
		inv.ProductID = st.nextID["inventory"]
		st.inventory[inv.ProductID] = inv
		return nil
	})
	return inv.ProductID, err
}

func (r fakeInventoryRepo) Update(_ context.Context, inv domain.Inventory) error {
	return r.u.do("inventory.Update", func(st *fakeState) error {
		if _, ok := st.inventory[inv.ProductID]; ok {
			st.inventory[inv.ProductID] = inv
		}
		return nil
	})
}

func (r fakeInventoryRepo) UpdateStock(_ context.Context, productID int64, newStock int) error {
	return r.u.do("inventory.UpdateStock", func(st *fakeState) error {
		if inv, ok := st.inventory[productID]; ok {
			inv.Stock = newStock
			st.inventory[productID] = inv
		}
		return nil
	})
}

func (r fakeInventoryRepo) Delete(_ context.Context, productID int64) error {
	return r.u.do("inventory.Delete", func(st *fakeState) error {
		delete(st.inventory, productID)
		return nil
	})
}

type fakeOrderRepo struct{ u *fakeUnitOfWork }

func (r fakeOrderRepo) Create(_ context.Context, order *domain.Order) (int64, error) {
	if err := order.Validate(); err != nil {
		return 0, err
	}
	err := r.u.do("orders.Create", func(st *fakeState) error {
		st.nextID["orders"]++
		order.AssignID(st.nextID["orders"])
		stored := *order
		stored.Details = append([]domain.OrderDetail(nil), order.Details...)
		st.orders = append(st.orders, stored)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return order.ID, nil
}

func (r fakeOrderRepo) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	var out *domain.Order
	err := r.u.do("orders.GetByID", func(st *fakeState) error {
		for _, o := range st.orders {
			if o.ID == id {
				o := o
				out = &o
			}
		}
		return nil
	})
	return out, err
}

func (r fakeOrderRepo) GetAll(context.Context) ([]domain.Order, error) {
	var out []domain.Order
	err := r.u.do("orders.GetAll", func(st *fakeState) error {
		for i := len(st.orders) - 1; i >= 0; i-- {
			out = append(out, st.orders[i])
		}
		return nil
	})
	return out, err
}

type fakeAuditLogRepo struct{ u *fakeUnitOfWork }

func (r fakeAuditLogRepo) Create(_ context.Context, entry domain.AuditLog) error {
	return r.u.do("auditLogs.Create", func(st *fakeState) error {
		st.nextID["auditLogs"]++
		entry.ID = st.nextID["auditLogs"]
		st.auditLogs = append(st.auditLogs, entry)
		return nil
	})
}

func (r fakeAuditLogRepo) GetAll(_ context.Context, limit int) ([]domain.AuditLog, error) {
	var out []domain.AuditLog
	err := r.u.do("auditLogs.GetAll", func(st *fakeState) error {
		for i := len(st.auditLogs) - 1; i >= 0 && len(out) < limit; i-- {
			out = append(out, st.auditLogs[i])
		}
		return nil
	})
	return out, err
}

// fakeCache versions entries the way the Redis adapter does. beforeLoad and
// beforeSet run once, outside the lock, so tests can park a reader between
// its version read, its database read and its fill.
type fakeCache struct {
	mu          sync.Mutex
	entries     map[int64]domain.Inventory
	versions    map[int64]int64
	invalidated []int64
	gets        int
	err         error
	beforeLoad  func()
	beforeSet   func()
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		entries:  make(map[int64]domain.Inventory),
		versions: make(map[int64]int64),
	}
}

func (c *fakeCache) takeHook(hook *func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn := *hook
	*hook = nil
	return fn
}

func (c *fakeCache) getCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gets
}

func (c *fakeCache) cached(productID int64) (domain.Inventory, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	inv, ok := c.entries[productID]
	return inv, ok
}

func (c *fakeCache) GetInventory(_ context.Context, productID int64) (*domain.Inventory, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.err != nil {
		return nil, false, c.err
	}
	inv, ok := c.entries[productID]
	if !ok {
		return nil, false, nil
	}
	return &inv, true, nil
}

func (c *fakeCache) InventoryVersion(_ context.Context, productID int64) (int64, error) {
	if hook := c.takeHook(&c.beforeLoad); hook != nil {
		hook()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	return c.versions[productID], nil
}

func (c *fakeCache) SetInventory(_ context.Context, inv domain.Inventory, version int64) error {
	if hook := c.takeHook(&c.beforeSet); hook != nil {
		hook()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	if c.versions[inv.ProductID] != version {
		return nil
	}
	c.entries[inv.ProductID] = inv
	return nil
}

func (c *fakeCache) InvalidateInventory(_ context.Context, productIDs ...int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, productIDs...)
	if c.err != nil {
		return c.err
	}
	for _, id := range productIDs {
		c.versions[id]++
		delete(c.entries, id)
	}
	return nil
}

type fakeIdempotency struct {
	mu       sync.Mutex
	keys     map[string]bool
	released []string
}

func newFakeIdempotency() *fakeIdempotency {
	return &fakeIdempotency{keys: make(map[string]bool)}
}

func (f *fakeIdempotency) SetIdempotency(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeIdempotency) ReleaseIdempotency(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.keys, key)
	f.released = append(f.released, key)
	return nil
}

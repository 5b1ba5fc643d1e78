// Package memory implementa los repositorios sobre mapas en memoria. Se usa en desarrollo local
// (DB_DRIVER=memory) y en los tests de la capa de aplicación. Todas las lecturas devuelven copias.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/Presupuestos-api/internal/domain"
	"github.com/jhoicas/Presupuestos-api/internal/domain/entity"
	"github.com/jhoicas/Presupuestos-api/internal/domain/repository"
)

type record[T any] struct {
	seq int64
	v   T
}

// Store estado compartido por los repositorios en memoria.
type Store struct {
	txMu sync.Mutex   // serializa transacciones
	mu   sync.RWMutex // protege los mapas

	seq      int64
	orders   map[string]record[entity.CampaignOrder]
	lines    map[string]record[entity.ExpenseLine]
	vouchers map[string]record[entity.Comprobante]
	users    map[string]record[entity.User]
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		orders:   make(map[string]record[entity.CampaignOrder]),
		lines:    make(map[string]record[entity.ExpenseLine]),
		vouchers: make(map[string]record[entity.Comprobante]),
		users:    make(map[string]record[entity.User]),
	}
}

func (s *Store) next() int64 {
	s.seq++
	return s.seq
}

type snapshot struct {
	seq      int64
	orders   map[string]record[entity.CampaignOrder]
	lines    map[string]record[entity.ExpenseLine]
	vouchers map[string]record[entity.Comprobante]
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := snapshot{
		seq:      s.seq,
		orders:   make(map[string]record[entity.CampaignOrder], len(s.orders)),
		lines:    make(map[string]record[entity.ExpenseLine], len(s.lines)),
		vouchers: make(map[string]record[entity.Comprobante], len(s.vouchers)),
	}
	for k, r := range s.orders {
		snap.orders[k] = record[entity.CampaignOrder]{seq: r.seq, v: r.v.Clone()}
	}
	for k, r := range s.lines {
		snap.lines[k] = r
	}
	for k, r := range s.vouchers {
		snap.vouchers[k] = record[entity.Comprobante]{seq: r.seq, v: r.v.Clone()}
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = snap.seq
	s.orders = snap.orders
	s.lines = snap.lines
	s.vouchers = snap.vouchers
}

// TxRunner ejecuta fn de forma serializada; si fn falla, restaura el estado previo.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner sobre el store.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run implementa ports.TxRunner.
func (r *TxRunner) Run(ctx context.Context, fn func(
	orderRepo repository.OrderRepository,
	expenseRepo repository.ExpenseLineRepository,
	voucherRepo repository.VoucherRepository,
) error) error {
	r.store.txMu.Lock()
	defer r.store.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	snap := r.store.snapshot()
	if err := fn(NewOrderRepository(r.store), NewExpenseLineRepository(r.store), NewVoucherRepository(r.store)); err != nil {
		r.store.restore(snap)
		return err
	}
	return nil
}

func sorted[T any](m map[string]record[T], keep func(T) bool) []T {
	recs := make([]record[T], 0, len(m))
	for _, r := range m {
		if keep(r.v) {
			recs = append(recs, r)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })
	out := make([]T, len(recs))
	for i, r := range recs {
		out[i] = r.v
	}
	return out
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// ── Órdenes ─────────────────────────────────────────────────────────────────

// OrderRepository implementa repository.OrderRepository.
type OrderRepository struct {
	s *Store
}

// NewOrderRepository construye el repositorio.
func NewOrderRepository(s *Store) *OrderRepository {
	return &OrderRepository{s: s}
}

func (r *OrderRepository) Create(ctx context.Context, order *entity.CampaignOrder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orders[order.ID]; ok {
		return domain.ErrDuplicate
	}
	if r.numberTaken(order.ID, order.Number) {
		return domain.ErrDuplicate
	}
	r.s.orders[order.ID] = record[entity.CampaignOrder]{seq: r.s.next(), v: order.Clone()}
	return nil
}

func (r *OrderRepository) Update(ctx context.Context, order *entity.CampaignOrder, expectedVersion int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.orders[order.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if rec.v.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	if r.numberTaken(order.ID, order.Number) {
		return domain.ErrDuplicate
	}
	order.Version = expectedVersion + 1
	rec.v = order.Clone()
	r.s.orders[order.ID] = rec
	return nil
}

// numberTaken replica la unicidad de campaign_orders.number. Requiere s.mu tomado.
func (r *OrderRepository) numberTaken(id, number string) bool {
	for otherID, rec := range r.s.orders {
		if otherID != id && rec.v.Number == number {
			return true
		}
	}
	return false
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id, status string, expectedVersion int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	if rec.v.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	rec.v.Status = status
	rec.v.Version++
	r.s.orders[id] = rec
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*entity.CampaignOrder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.orders[id]
	if !ok {
		return nil, nil
	}
	o := rec.v.Clone()
	return &o, nil
}

// GetForUpdate equivale a GetByID: el runner ya serializa las transacciones.
func (r *OrderRepository) GetForUpdate(ctx context.Context, id string) (*entity.CampaignOrder, error) {
	return r.GetByID(ctx, id)
}

func (r *OrderRepository) List(ctx context.Context, f repository.OrderFilter) ([]entity.CampaignOrder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	items := sorted(r.s.orders, func(o entity.CampaignOrder) bool {
		return (f.Status == "" || o.Status == f.Status) && (f.Client == "" || o.Client == f.Client)
	})
	items = page(items, f.Limit, f.Offset)
	for i := range items {
		items[i] = items[i].Clone()
	}
	return items, nil
}

// ── Líneas de gasto ─────────────────────────────────────────────────────────

// ExpenseLineRepository implementa repository.ExpenseLineRepository.
type ExpenseLineRepository struct {
	s *Store
}

// NewExpenseLineRepository construye el repositorio.
func NewExpenseLineRepository(s *Store) *ExpenseLineRepository {
	return &ExpenseLineRepository{s: s}
}

func (r *ExpenseLineRepository) Create(ctx context.Context, line *entity.ExpenseLine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.lines[line.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.lines[line.ID] = record[entity.ExpenseLine]{seq: r.s.next(), v: *line}
	return nil
}

func (r *ExpenseLineRepository) Update(ctx context.Context, line *entity.ExpenseLine, expectedVersion int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.lines[line.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if rec.v.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	line.Version = expectedVersion + 1
	rec.v = *line
	r.s.lines[line.ID] = rec
	return nil
}

func (r *ExpenseLineRepository) Delete(ctx context.Context, id string, expectedVersion int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.lines[id]
	if !ok {
		return domain.ErrNotFound
	}
	if rec.v.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	delete(r.s.lines, id)
	return nil
}

func (r *ExpenseLineRepository) GetByID(ctx context.Context, id string) (*entity.ExpenseLine, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.lines[id]
	if !ok {
		return nil, nil
	}
	l := rec.v
	return &l, nil
}

func (r *ExpenseLineRepository) List(ctx context.Context, f repository.ExpenseFilter) ([]entity.ExpenseLine, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return sorted(r.s.lines, func(l entity.ExpenseLine) bool {
		return (f.Area == "" || l.Area == f.Area) &&
			(f.OrderID == "" || l.OrderID == f.OrderID) &&
			(f.ProgramID == "" || l.ProgramID == f.ProgramID) &&
			(f.Status == "" || l.Status == f.Status)
	}), nil
}

// ── Comprobantes ────────────────────────────────────────────────────────────

// VoucherRepository implementa repository.VoucherRepository.
type VoucherRepository struct {
	s *Store
}

// NewVoucherRepository construye el repositorio.
func NewVoucherRepository(s *Store) *VoucherRepository {
	return &VoucherRepository{s: s}
}

func (r *VoucherRepository) Create(ctx context.Context, v *entity.Comprobante) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.vouchers[v.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.vouchers[v.ID] = record[entity.Comprobante]{seq: r.s.next(), v: v.Clone()}
	return nil
}

func (r *VoucherRepository) Update(ctx context.Context, v *entity.Comprobante, expectedVersion int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.vouchers[v.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if rec.v.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	v.Version = expectedVersion + 1
	rec.v = v.Clone()
	r.s.vouchers[v.ID] = rec
	return nil
}

func (r *VoucherRepository) GetByID(ctx context.Context, id string) (*entity.Comprobante, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.vouchers[id]
	if !ok {
		return nil, nil
	}
	v := rec.v.Clone()
	return &v, nil
}

func (r *VoucherRepository) List(ctx context.Context, f repository.VoucherFilter) ([]entity.Comprobante, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	items := sorted(r.s.vouchers, func(v entity.Comprobante) bool {
		return (f.ApprovalState == "" || v.ApprovalState == f.ApprovalState) &&
			(f.OriginArea == "" || v.OriginArea == f.OriginArea) &&
			(f.MovementType == "" || v.MovementType == f.MovementType) &&
			(f.OriginOrderID == "" || v.OriginOrderID == f.OriginOrderID)
	})
	items = page(items, f.Limit, f.Offset)
	for i := range items {
		items[i] = items[i].Clone()
	}
	return items, nil
}

// ── Usuarios ────────────────────────────────────────────────────────────────

// UserRepository implementa repository.UserRepository.
type UserRepository struct {
	s *Store
}

// NewUserRepository construye el repositorio.
func NewUserRepository(s *Store) *UserRepository {
	return &UserRepository{s: s}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rec := range r.s.users {
		if rec.v.Email == u.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	r.s.users[u.ID] = record[entity.User]{seq: r.s.next(), v: *u}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	u := rec.v
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, rec := range r.s.users {
		if rec.v.Email == email {
			u := rec.v
			return &u, nil
		}
	}
	return nil, nil
}

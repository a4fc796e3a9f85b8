package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// Memory is an in-process Store with optimistic concurrency. Every document
// carries a version; a transaction records the version of each path it reads
// and commit fails with ErrTransactionConflict if any of them moved.
type Memory struct {
	mu      sync.Mutex
	docs    map[string]document
	version uint64

	// beforeCommit, when set, runs after validation and before any write is
	// applied. A non-nil error aborts the commit.
	beforeCommit func() error
}

type document struct {
	version uint64
	value   any
}

type memberDoc struct {
	Member  Member
	Profile MemberProfile
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{docs: make(map[string]document)}
}

// SetBeforeCommit installs a hook used to simulate commit failures.
func (m *Memory) SetBeforeCommit(fn func() error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.beforeCommit = fn
}

func memberPath(gymID, userID string) string {
	return "gyms/" + gymID + "/members/" + userID
}

func planPath(gymID, userID, planID string) string {
	return memberPath(gymID, userID) + "/plans/" + planID
}

func paymentPath(gymID, userID, planID, paymentID string) string {
	return planPath(gymID, userID, planID) + "/payments/" + paymentID
}

func (m *Memory) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memoryTx{
		store:  m,
		reads:  make(map[string]uint64),
		writes: make(map[string]*pendingWrite),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return m.commit(tx)
}

func (m *Memory) commit(tx *memoryTx) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for path, seen := range tx.reads {
		if m.docs[path].version != seen {
			return fmt.Errorf("%w: %s changed", ErrTransactionConflict, path)
		}
	}

	if m.beforeCommit != nil {
		if err := m.beforeCommit(); err != nil {
			return err
		}
	}

	for _, path := range tx.order {
		w := tx.writes[path]
		if w.delete {
			delete(m.docs, path)
			continue
		}
		m.version++
		m.docs[path] = document{version: m.version, value: w.value}
	}
	return nil
}

func (m *Memory) read(path string) (document, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[path]
	return doc, ok
}

func (m *Memory) GetPlan(_ context.Context, gymID, userID, planID string) (*Plan, error) {
	doc, ok := m.read(planPath(gymID, userID, planID))
	if !ok {
		return nil, ErrDocumentNotFoundOrMissingFields
	}
	p := doc.value.(Plan)
	return &p, nil
}

func (m *Memory) ListPlans(_ context.Context, gymID, userID string) ([]Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := memberPath(gymID, userID) + "/plans/"
	plans := []Plan{}
	for path, doc := range m.docs {
		if p, ok := doc.value.(Plan); ok && strings.HasPrefix(path, prefix) {
			plans = append(plans, p)
		}
	}
	sort.Slice(plans, func(i, j int) bool {
		return plans[i].PurchasedAt.After(plans[j].PurchasedAt)
	})
	return plans, nil
}

func (m *Memory) ListPayments(_ context.Context, gymID, userID, planID string) ([]Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := planPath(gymID, userID, planID) + "/payments/"
	payments := []Payment{}
	for path, doc := range m.docs {
		if p, ok := doc.value.(Payment); ok && strings.HasPrefix(path, prefix) {
			payments = append(payments, p)
		}
	}
	sort.Slice(payments, func(i, j int) bool {
		if payments[i].Date.Equal(payments[j].Date) {
			return payments[i].PaymentID < payments[j].PaymentID
		}
		return payments[i].Date.Before(payments[j].Date)
	})
	return payments, nil
}

type pendingWrite struct {
	value  any
	delete bool
}

type memoryTx struct {
	store  *Memory
	reads  map[string]uint64
	writes map[string]*pendingWrite
	order  []string
}

// get returns the transaction's view of path: its own pending write if any,
// otherwise the committed document, whose version joins the read set.
func (tx *memoryTx) get(path string) (any, bool) {
	if w, ok := tx.writes[path]; ok {
		if w.delete {
			return nil, false
		}
		return w.value, true
	}

	doc, ok := tx.store.read(path)
	if _, seen := tx.reads[path]; !seen {
		tx.reads[path] = doc.version
	}
	if !ok {
		return nil, false
	}
	return doc.value, true
}

func (tx *memoryTx) put(path string, value any) {
	if _, ok := tx.writes[path]; !ok {
		tx.order = append(tx.order, path)
	}
	tx.writes[path] = &pendingWrite{value: value}
}

func (tx *memoryTx) remove(path string) {
	if _, ok := tx.writes[path]; !ok {
		tx.order = append(tx.order, path)
	}
	tx.writes[path] = &pendingWrite{delete: true}
}

func (tx *memoryTx) GetMember(_ context.Context, gymID, userID string) (*Member, error) {
	v, ok := tx.get(memberPath(gymID, userID))
	if !ok {
		return nil, ErrDocumentNotFoundOrMissingFields
	}
	doc := v.(memberDoc)
	return &doc.Member, nil
}

func (tx *memoryTx) GetPlan(_ context.Context, gymID, userID, planID string) (*Plan, error) {
	v, ok := tx.get(planPath(gymID, userID, planID))
	if !ok {
		return nil, ErrDocumentNotFoundOrMissingFields
	}
	p := v.(Plan)
	return &p, nil
}

func (tx *memoryTx) GetPayment(_ context.Context, gymID, userID, planID, paymentID string) (*Payment, error) {
	v, ok := tx.get(paymentPath(gymID, userID, planID, paymentID))
	if !ok {
		return nil, ErrDocumentNotFoundOrMissingFields
	}
	p := v.(Payment)
	return &p, nil
}

func (tx *memoryTx) InsertMember(_ context.Context, m Member, profile MemberProfile) error {
	path := memberPath(m.GymID, m.UserID)
	if _, exists := tx.get(path); exists {
		return fmt.Errorf("%w: member %s already exists", ErrInvalidInput, m.UserID)
	}
	tx.put(path, memberDoc{Member: m, Profile: profile})
	return nil
}

func (tx *memoryTx) InsertPlan(_ context.Context, p Plan) error {
	if _, ok := tx.get(memberPath(p.GymID, p.UserID)); !ok {
		return ErrDocumentNotFoundOrMissingFields
	}
	path := planPath(p.GymID, p.UserID, p.PlanID)
	if _, exists := tx.get(path); exists {
		return fmt.Errorf("%w: plan %s already exists", ErrInvalidInput, p.PlanID)
	}
	tx.put(path, p)
	return nil
}

func (tx *memoryTx) InsertPayment(_ context.Context, p Payment) error {
	if _, ok := tx.get(planPath(p.GymID, p.UserID, p.PlanID)); !ok {
		return ErrDocumentNotFoundOrMissingFields
	}
	path := paymentPath(p.GymID, p.UserID, p.PlanID, p.PaymentID)
	if _, exists := tx.get(path); exists {
		return fmt.Errorf("%w: payment %s already exists", ErrInvalidInput, p.PaymentID)
	}
	tx.put(path, p)
	return nil
}

func (tx *memoryTx) UpdateMemberTotals(_ context.Context, gymID, userID string, totalPaid, totalDue decimal.Decimal) error {
	path := memberPath(gymID, userID)
	v, ok := tx.get(path)
	if !ok {
		return ErrDocumentNotFoundOrMissingFields
	}
	doc := v.(memberDoc)
	doc.Member.TotalPaid = validDecimal(totalPaid)
	doc.Member.TotalDue = validDecimal(totalDue)
	tx.put(path, doc)
	return nil
}

func (tx *memoryTx) UpdatePlanBalance(_ context.Context, gymID, userID, planID string, paid, due decimal.Decimal) error {
	path := planPath(gymID, userID, planID)
	v, ok := tx.get(path)
	if !ok {
		return ErrDocumentNotFoundOrMissingFields
	}
	p := v.(Plan)
	p.Paid = validDecimal(paid)
	p.Due = validDecimal(due)
	tx.put(path, p)
	return nil
}

func (tx *memoryTx) DeletePayment(_ context.Context, gymID, userID, planID, paymentID string) error {
	path := paymentPath(gymID, userID, planID, paymentID)
	if _, ok := tx.get(path); !ok {
		return ErrDocumentNotFoundOrMissingFields
	}
	tx.remove(path)
	return nil
}

// put stores raw documents, bypassing the ledger engine. Tests use it to
// seed corrupt or partially initialised records.
func (m *Memory) put(path string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.version++
	m.docs[path] = document{version: m.version, value: value}
}

package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xiebiao/ticketflow/internal/domain/coupon"
	"github.com/xiebiao/ticketflow/internal/domain/event"
	"github.com/xiebiao/ticketflow/internal/domain/payment"
	"github.com/xiebiao/ticketflow/internal/domain/point"
	"github.com/xiebiao/ticketflow/internal/domain/stock"
	"github.com/xiebiao/ticketflow/internal/domain/ticket"
	"github.com/xiebiao/ticketflow/internal/domain/user"
)

// world 内存世界:所有仓储共享的状态,事务用快照/恢复模拟回滚
type world struct {
	mu          sync.Mutex
	users       map[uint]*user.User
	events      map[uint]*event.Event
	stocks      map[uint]*stock.TicketStock // key: eventID
	userCoupons map[uint]*coupon.UserCoupon // key: userCouponID
	points      map[uint]*point.Point       // key: userID
	histories   []*point.History
	payments    map[uint]*payment.Payment
	tickets     map[uint]*ticket.Ticket // key: paymentID

	nextPaymentID uint
	nextTicketID  uint
	nextHistoryID uint
}

func newWorld() *world {
	return &world{
		users:       make(map[uint]*user.User),
		events:      make(map[uint]*event.Event),
		stocks:      make(map[uint]*stock.TicketStock),
		userCoupons: make(map[uint]*coupon.UserCoupon),
		points:      make(map[uint]*point.Point),
		payments:    make(map[uint]*payment.Payment),
		tickets:     make(map[uint]*ticket.Ticket),
	}
}

// snapshot 深拷贝全部可变状态
func (w *world) snapshot() *world {
	snap := newWorld()
	for k, v := range w.users {
		u := *v
		snap.users[k] = &u
	}
	for k, v := range w.events {
		e := *v
		snap.events[k] = &e
	}
	for k, v := range w.stocks {
		s := *v
		snap.stocks[k] = &s
	}
	for k, v := range w.userCoupons {
		uc := *v
		if v.Coupon != nil {
			c := *v.Coupon
			uc.Coupon = &c
		}
		snap.userCoupons[k] = &uc
	}
	for k, v := range w.points {
		p := *v
		snap.points[k] = &p
	}
	for _, v := range w.histories {
		h := *v
		snap.histories = append(snap.histories, &h)
	}
	for k, v := range w.payments {
		p := *v
		if v.UserCouponID != nil {
			id := *v.UserCouponID
			p.UserCouponID = &id
		}
		snap.payments[k] = &p
	}
	for k, v := range w.tickets {
		t := *v
		snap.tickets[k] = &t
	}
	snap.nextPaymentID = w.nextPaymentID
	snap.nextTicketID = w.nextTicketID
	snap.nextHistoryID = w.nextHistoryID
	return snap
}

func (w *world) restore(snap *world) {
	w.users = snap.users
	w.events = snap.events
	w.stocks = snap.stocks
	w.userCoupons = snap.userCoupons
	w.points = snap.points
	w.histories = snap.histories
	w.payments = snap.payments
	w.tickets = snap.tickets
	w.nextPaymentID = snap.nextPaymentID
	w.nextTicketID = snap.nextTicketID
	w.nextHistoryID = snap.nextHistoryID
}

// fakeTxManager 快照/恢复模拟事务回滚
type fakeTxManager struct {
	w *world
}

func (m *fakeTxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	snap := m.w.snapshot()
	if err := fn(ctx); err != nil {
		m.w.restore(snap)
		return err
	}
	return nil
}

// ---------- 仓储fake ----------

type fakeUserRepo struct{ w *world }

func (r *fakeUserRepo) FindByID(_ context.Context, id uint) (*user.User, error) {
	u, ok := r.w.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

type fakeEventRepo struct{ w *world }

func (r *fakeEventRepo) FindByID(_ context.Context, id uint) (*event.Event, error) {
	e, ok := r.w.events[id]
	if !ok {
		return nil, event.ErrEventNotFound
	}
	return e, nil
}

type fakeStockRepo struct{ w *world }

func (r *fakeStockRepo) FindByEventID(_ context.Context, eventID uint) (*stock.TicketStock, error) {
	s, ok := r.w.stocks[eventID]
	if !ok {
		return nil, stock.ErrStockNotFound
	}
	return s, nil
}

func (r *fakeStockRepo) UpdateRemaining(_ context.Context, eventID uint, delta int) error {
	s, ok := r.w.stocks[eventID]
	if !ok {
		return stock.ErrStockNotFound
	}
	if s.Remaining+delta < 0 {
		return stock.ErrOutOfStock
	}
	s.Remaining += delta
	return nil
}

type fakeCouponRepo struct{ w *world }

func (r *fakeCouponRepo) FindUserCoupon(_ context.Context, couponID, userID uint) (*coupon.UserCoupon, error) {
	for _, uc := range r.w.userCoupons {
		if uc.CouponID == couponID && uc.UserID == userID {
			return uc, nil
		}
	}
	return nil, coupon.ErrCouponInvalid
}

func (r *fakeCouponRepo) MarkUsed(_ context.Context, userCouponID uint) error {
	uc, ok := r.w.userCoupons[userCouponID]
	if !ok {
		return coupon.ErrCouponInvalid
	}
	if uc.IsUsed {
		return coupon.ErrCouponAlreadyUsed
	}
	uc.IsUsed = true
	return nil
}

type fakePointRepo struct{ w *world }

func (r *fakePointRepo) FindByUserID(_ context.Context, userID uint) (*point.Point, error) {
	p, ok := r.w.points[userID]
	if !ok {
		return nil, point.ErrPointNotFound
	}
	return p, nil
}

func (r *fakePointRepo) UpdateAmount(_ context.Context, userID uint, delta int64) error {
	p, ok := r.w.points[userID]
	if !ok {
		return point.ErrPointNotFound
	}
	if p.Amount+delta < 0 {
		return point.ErrInsufficientPoints
	}
	p.Amount += delta
	return nil
}

type fakeHistoryRepo struct{ w *world }

func (r *fakeHistoryRepo) Append(_ context.Context, h *point.History) error {
	r.w.nextHistoryID++
	h.ID = r.w.nextHistoryID
	r.w.histories = append(r.w.histories, h)
	return nil
}

func (r *fakeHistoryRepo) ListByPaymentID(_ context.Context, paymentID uint) ([]*point.History, error) {
	var result []*point.History
	for _, h := range r.w.histories {
		if h.PaymentID == paymentID {
			result = append(result, h)
		}
	}
	return result, nil
}

type fakePaymentRepo struct{ w *world }

func (r *fakePaymentRepo) Create(_ context.Context, p *payment.Payment) error {
	r.w.nextPaymentID++
	p.ID = r.w.nextPaymentID
	cp := *p
	r.w.payments[p.ID] = &cp
	return nil
}

func (r *fakePaymentRepo) FindByID(_ context.Context, id uint) (*payment.Payment, error) {
	p, ok := r.w.payments[id]
	if !ok {
		return nil, payment.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepo) FindByTID(_ context.Context, tid string) (*payment.Payment, error) {
	for _, p := range r.w.payments {
		if p.TID == tid && tid != "" {
			cp := *p
			return &cp, nil
		}
	}
	return nil, payment.ErrPaymentNotFound
}

func (r *fakePaymentRepo) Update(_ context.Context, p *payment.Payment) error {
	if _, ok := r.w.payments[p.ID]; !ok {
		return payment.ErrPaymentNotFound
	}
	cp := *p
	r.w.payments[p.ID] = &cp
	return nil
}

func (r *fakePaymentRepo) ListByStatus(_ context.Context, status payment.Status, limit int) ([]*payment.Payment, error) {
	var result []*payment.Payment
	for _, p := range r.w.payments {
		if p.Status == status && len(result) < limit {
			cp := *p
			result = append(result, &cp)
		}
	}
	return result, nil
}

type fakeTicketRepo struct{ w *world }

func (r *fakeTicketRepo) Create(_ context.Context, t *ticket.Ticket) error {
	if _, ok := r.w.tickets[t.PaymentID]; ok {
		return fmt.Errorf("重复出票: payment_id=%d", t.PaymentID)
	}
	r.w.nextTicketID++
	t.ID = r.w.nextTicketID
	cp := *t
	r.w.tickets[t.PaymentID] = &cp
	return nil
}

func (r *fakeTicketRepo) FindByPaymentID(_ context.Context, paymentID uint) (*ticket.Ticket, error) {
	t, ok := r.w.tickets[paymentID]
	if !ok {
		return nil, fmt.Errorf("票不存在: payment_id=%d", paymentID)
	}
	return t, nil
}

// ---------- 网关fake ----------

type fakeGateway struct {
	readyErr   error
	approveErr error
	cancelErr  error

	readyCalls   int
	approveCalls int
	cancelCalls  int

	nextTID int
}

func (g *fakeGateway) Ready(_ context.Context, _ payment.ReadyOrder) (*payment.ReadyResult, error) {
	g.readyCalls++
	if g.readyErr != nil {
		return nil, g.readyErr
	}
	g.nextTID++
	return &payment.ReadyResult{
		TID:         fmt.Sprintf("T%06d", g.nextTID),
		RedirectURL: "https://pay.example.com/redirect",
	}, nil
}

func (g *fakeGateway) Approve(_ context.Context, tid, _ string) (*payment.ApprovalReceipt, error) {
	g.approveCalls++
	if g.approveErr != nil {
		return nil, g.approveErr
	}
	return &payment.ApprovalReceipt{TID: tid, ApprovedAt: time.Now().Format(time.RFC3339)}, nil
}

func (g *fakeGateway) Cancel(_ context.Context, tid string, amount, taxFree int64) (*payment.CancellationReceipt, error) {
	g.cancelCalls++
	if g.cancelErr != nil {
		return nil, g.cancelErr
	}
	return &payment.CancellationReceipt{TID: tid, CanceledAmount: amount, CanceledTaxFree: taxFree}, nil
}

// ---------- 回调守卫fake ----------

type fakeGuard struct {
	held map[string]bool
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{held: make(map[string]bool)}
}

func (g *fakeGuard) Acquire(_ context.Context, op, tid string) error {
	key := op + ":" + tid
	if g.held[key] {
		return payment.ErrDuplicateCallback
	}
	g.held[key] = true
	return nil
}

func (g *fakeGuard) Release(_ context.Context, op, tid string) error {
	delete(g.held, op+":"+tid)
	return nil
}

// ---------- 事件发布fake ----------

type fakePublisher struct {
	published []string // routing keys
}

func (p *fakePublisher) Publish(routingKey string, _ interface{}) error {
	p.published = append(p.published, routingKey)
	return nil
}

// ---------- 测试环境 ----------

type testEnv struct {
	w         *world
	gateway   *fakeGateway
	guard     *fakeGuard
	publisher *fakePublisher

	ready     *ReadyPaymentUseCase
	approve   *ApprovePaymentUseCase
	cancel    *CancelPaymentUseCase
	fail      *FailPaymentUseCase
	reconcile *ReconcilePaymentUseCase
}

func newTestEnv() *testEnv {
	w := newWorld()
	gw := &fakeGateway{}
	guard := newFakeGuard()
	pub := &fakePublisher{}
	tx := &fakeTxManager{w: w}

	userRepo := &fakeUserRepo{w: w}
	eventRepo := &fakeEventRepo{w: w}
	stockRepo := &fakeStockRepo{w: w}
	couponRepo := &fakeCouponRepo{w: w}
	pointRepo := &fakePointRepo{w: w}
	historyRepo := &fakeHistoryRepo{w: w}
	paymentRepo := &fakePaymentRepo{w: w}
	ticketRepo := &fakeTicketRepo{w: w}

	stockMgr := stock.NewManager(stockRepo)
	ledger := point.NewLedger(pointRepo, historyRepo)
	discounts := payment.NewDiscountCalculator(couponRepo, pointRepo)
	ticketSvc := ticket.NewService(ticketRepo)

	return &testEnv{
		w:         w,
		gateway:   gw,
		guard:     guard,
		publisher: pub,
		ready: NewReadyPaymentUseCase(
			userRepo, eventRepo, paymentRepo, couponRepo,
			stockMgr, ledger, discounts, gw, tx, pub),
		approve: NewApprovePaymentUseCase(
			paymentRepo, ticketSvc, gw, guard, tx, pub),
		cancel: NewCancelPaymentUseCase(
			paymentRepo, eventRepo, stockMgr, ledger, gw, guard, tx, pub),
		fail: NewFailPaymentUseCase(
			paymentRepo, guard, tx, pub),
		reconcile: NewReconcilePaymentUseCase(
			paymentRepo, stockMgr, ledger, historyRepo),
	}
}

// seedBasics 铺设一个用户、一个报名期内的活动和库存
func (e *testEnv) seedBasics(price int64, remaining int) {
	now := time.Now()
	e.w.users[1] = &user.User{ID: 1, Email: "buyer@example.com", Nickname: "买家"}
	e.w.events[100] = &event.Event{
		ID:                  100,
		Title:               "周末音乐节",
		Price:               price,
		RecruitmentStartAt:  now.Add(-time.Hour),
		RecruitmentFinishAt: now.Add(time.Hour),
	}
	e.w.stocks[100] = &stock.TicketStock{ID: 1, EventID: 100, Remaining: remaining, Total: remaining}
}

// seedPoints 给用户铺设积分余额
func (e *testEnv) seedPoints(userID uint, amount int64) {
	e.w.points[userID] = &point.Point{ID: userID, UserID: userID, Amount: amount}
}

// seedCoupon 给用户发一张券,返回模板ID
func (e *testEnv) seedCoupon(userCouponID, couponID, userID uint, discount int64, used bool, expired bool) uint {
	expiredAt := time.Now().Add(24 * time.Hour)
	if expired {
		expiredAt = time.Now().Add(-time.Hour)
	}
	e.w.userCoupons[userCouponID] = &coupon.UserCoupon{
		ID:       userCouponID,
		UserID:   userID,
		CouponID: couponID,
		IsUsed:   used,
		Coupon: &coupon.Coupon{
			ID:             couponID,
			Code:           fmt.Sprintf("CP%04d", couponID),
			DiscountAmount: discount,
			ExpiredAt:      expiredAt,
		},
	}
	return couponID
}

func ptrUint(v uint) *uint    { return &v }
func ptrInt64(v int64) *int64 { return &v }

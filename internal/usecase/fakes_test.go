package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dataweston/Dinewith/internal/data/entity"
	"github.com/dataweston/Dinewith/internal/data/repository"
	"github.com/dataweston/Dinewith/internal/payment"
	"github.com/dataweston/Dinewith/pkg/notify"
	"github.com/dataweston/Dinewith/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// store is an in-memory stand-in for the Postgres schema.
type store struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*entity.User
	sessions map[uuid.UUID]*entity.Session
	profiles map[uuid.UUID]*entity.HostProfile
	listings map[uuid.UUID]*entity.Listing
	slots    map[uuid.UUID]*entity.Availability
	bookings map[uuid.UUID]*entity.Booking
	fees     map[uuid.UUID]*entity.FeeTransaction
	attempts map[string]*entity.PaymentAttempt
	payouts  map[uuid.UUID]*entity.Payout
	reviews  map[uuid.UUID]*entity.Review
}

func newStore() *store {
	return &store{
		users:    map[uuid.UUID]*entity.User{},
		sessions: map[uuid.UUID]*entity.Session{},
		profiles: map[uuid.UUID]*entity.HostProfile{},
		listings: map[uuid.UUID]*entity.Listing{},
		slots:    map[uuid.UUID]*entity.Availability{},
		bookings: map[uuid.UUID]*entity.Booking{},
		fees:     map[uuid.UUID]*entity.FeeTransaction{},
		attempts: map[string]*entity.PaymentAttempt{},
		payouts:  map[uuid.UUID]*entity.Payout{},
		reviews:  map[uuid.UUID]*entity.Review{},
	}
}

// fakeTx runs fn directly. commitErr simulates a failed commit after fn ran.
type fakeTx struct {
	commitErr error
}

func (t *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	return t.commitErr
}

func newTestRepo(st *store, tx *fakeTx) *repository.Repository {
	return &repository.Repository{
		Tx:             tx,
		User:           fakeUsers{st},
		Session:        fakeSessions{st},
		HostProfile:    fakeProfiles{st},
		Listing:        fakeListings{st},
		Availability:   fakeSlots{st},
		Booking:        fakeBookings{st},
		FeeTransaction: fakeFees{st},
		PaymentAttempt: fakeAttempts{st},
		Payout:         fakePayouts{st},
		Review:         fakeReviews{st},
	}
}

// ==================== USERS & SESSIONS ====================

type fakeUsers struct{ *store }

func (f fakeUsers) Create(_ context.Context, user *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f fakeUsers) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f fakeUsers) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f fakeUsers) UpdateRole(_ context.Context, id uuid.UUID, role entity.UserRole) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return errors.New("user not found")
	}
	u.Role = role
	return nil
}

type fakeSessions struct{ *store }

func (f fakeSessions) Create(_ context.Context, session *entity.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *session
	f.sessions[session.Token] = &cp
	return nil
}

func (f fakeSessions) FindValidSession(_ context.Context, token uuid.UUID) (*entity.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[token]
	if !ok || s.RevokedAt != nil || s.ExpiresAt.Before(time.Now()) {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f fakeSessions) Revoke(_ context.Context, token uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[token]; ok {
		now := time.Now()
		s.RevokedAt = &now
	}
	return nil
}

func (f fakeSessions) RevokeAllUserSessions(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, s := range f.sessions {
		if s.UserID == userID {
			s.RevokedAt = &now
		}
	}
	return nil
}

func (f fakeSessions) CleanExpiredSessions(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for token, s := range f.sessions {
		if s.ExpiresAt.Before(time.Now()) {
			delete(f.sessions, token)
			n++
		}
	}
	return n, nil
}

// ==================== HOSTS & LISTINGS ====================

type fakeProfiles struct{ *store }

func (f fakeProfiles) Create(_ context.Context, profile *entity.HostProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *profile
	f.profiles[profile.ID] = &cp
	return nil
}

func (f fakeProfiles) FindByID(_ context.Context, id uuid.UUID) (*entity.HostProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.profiles[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f fakeProfiles) FindByUserID(_ context.Context, userID uuid.UUID) (*entity.HostProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f fakeProfiles) FindByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*entity.HostProfile, error) {
	return f.FindByUserID(ctx, userID)
}

type fakeListings struct{ *store }

func (f fakeListings) withHost(l *entity.Listing) *entity.ListingWithHost {
	lw := &entity.ListingWithHost{Listing: *l}
	if p, ok := f.profiles[l.HostProfileID]; ok {
		lw.HostUserID = p.UserID
		lw.HostDisplayName = p.DisplayName
		lw.HostAvatarURL = p.AvatarURL
	}
	return lw
}

func (f fakeListings) Create(_ context.Context, listing *entity.Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *listing
	f.listings[listing.ID] = &cp
	return nil
}

func (f fakeListings) Update(_ context.Context, listing *entity.Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.listings[listing.ID]; !ok {
		return errors.New("listing not found")
	}
	cp := *listing
	f.listings[listing.ID] = &cp
	return nil
}

func (f fakeListings) FindByID(_ context.Context, id uuid.UUID) (*entity.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.listings[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, nil
}

func (f fakeListings) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	return f.FindByID(ctx, id)
}

func (f fakeListings) FindByIDWithHost(_ context.Context, id uuid.UUID) (*entity.ListingWithHost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.listings[id]; ok {
		return f.withHost(l), nil
	}
	return nil, nil
}

func (f fakeListings) FindBySlugWithHost(_ context.Context, slug string) (*entity.ListingWithHost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.listings {
		if l.Slug == slug {
			return f.withHost(l), nil
		}
	}
	return nil, nil
}

func (f fakeListings) FindByHostProfileID(_ context.Context, hostProfileID uuid.UUID) ([]*entity.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Listing
	for _, l := range f.listings {
		if l.HostProfileID == hostProfileID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f fakeListings) FindByStatus(_ context.Context, status entity.ListingStatus, limit, offset int) ([]*entity.ListingWithHost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.ListingWithHost
	for _, l := range f.listings {
		if l.Status == status {
			out = append(out, f.withHost(l))
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f fakeListings) CountByStatus(_ context.Context, status entity.ListingStatus) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, l := range f.listings {
		if l.Status == status {
			n++
		}
	}
	return n, nil
}

func (f fakeListings) TransitionStatus(_ context.Context, id uuid.UUID, from []entity.ListingStatus, next entity.ListingStatus, update repository.ListingStatusUpdate) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[id]
	if !ok {
		return false, nil
	}
	for _, st := range from {
		if l.Status == st {
			l.Status = next
			l.RejectionReason = update.RejectionReason
			if l.PublishedAt == nil {
				l.PublishedAt = update.PublishedAt
			}
			return true, nil
		}
	}
	return false, nil
}

func (f fakeListings) IncrementViewCount(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.listings[id]; ok {
		l.ViewCount++
	}
	return nil
}

func (f fakeListings) IncrementBookingCount(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.listings[id]; ok {
		l.BookingCount++
	}
	return nil
}

type fakeSlots struct{ *store }

func (f fakeSlots) Create(_ context.Context, slot *entity.Availability) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *slot
	f.slots[slot.ID] = &cp
	return nil
}

func (f fakeSlots) FindByID(_ context.Context, id uuid.UUID) (*entity.Availability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.slots[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (f fakeSlots) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.slots[id]
	if !ok || s.IsBooked {
		return errors.New("slot not deleted")
	}
	delete(f.slots, id)
	return nil
}

func (f fakeSlots) HasOverlap(_ context.Context, listingID uuid.UUID, window entity.Window) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.slots {
		if s.ListingID == listingID && window.Overlaps(s.Window()) {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeSlots) FindAvailable(_ context.Context, listingID uuid.UUID, after time.Time) ([]*entity.Availability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Availability
	for _, s := range f.slots {
		if s.ListingID == listingID && !s.IsBooked && s.StartTime.After(after) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	if len(out) > repository.MaxAvailableSlots {
		out = out[:repository.MaxAvailableSlots]
	}
	return out, nil
}

func (f fakeSlots) FindByListingID(_ context.Context, listingID uuid.UUID) ([]*entity.Availability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Availability
	for _, s := range f.slots {
		if s.ListingID == listingID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (f fakeSlots) MarkBookedInWindow(_ context.Context, listingID uuid.UUID, window entity.Window) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, s := range f.slots {
		if s.ListingID == listingID && window.Overlaps(s.Window()) {
			s.IsBooked = true
			n++
		}
	}
	return n, nil
}

func (f fakeSlots) ReleaseInWindow(_ context.Context, listingID uuid.UUID, window entity.Window, exceptBookingID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, s := range f.slots {
		if s.ListingID != listingID || !s.IsBooked || !window.Overlaps(s.Window()) {
			continue
		}
		if f.slotHeldLocked(s, exceptBookingID) {
			continue
		}
		s.IsBooked = false
		n++
	}
	return n, nil
}

// slotHeldLocked reports whether a slot-holding booking other than except
// overlaps the slot. Callers hold f.mu.
func (f fakeSlots) slotHeldLocked(slot *entity.Availability, except uuid.UUID) bool {
	for _, b := range f.bookings {
		if b.ID == except || b.ListingID != slot.ListingID || !b.Window().Overlaps(slot.Window()) {
			continue
		}
		for _, held := range entity.SlotHoldingStatuses {
			if b.Status == held {
				return true
			}
		}
	}
	return false
}

// ==================== BOOKINGS & PAYMENTS ====================

type fakeBookings struct{ *store }

func (f fakeBookings) withListing(b *entity.Booking) *entity.BookingWithListing {
	bw := &entity.BookingWithListing{Booking: *b}
	if l, ok := f.listings[b.ListingID]; ok {
		bw.ListingTitle = l.Title
		bw.ListingSlug = l.Slug
		bw.HostProfileID = l.HostProfileID
	}
	return bw
}

func (f fakeBookings) Create(_ context.Context, booking *entity.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *booking
	f.bookings[booking.ID] = &cp
	return nil
}

func (f fakeBookings) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.bookings[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, nil
}

func (f fakeBookings) FindByIDWithListing(_ context.Context, id uuid.UUID) (*entity.BookingWithListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.bookings[id]; ok {
		return f.withListing(b), nil
	}
	return nil, nil
}

func (f fakeBookings) FindByGuestID(_ context.Context, guestID uuid.UUID, limit, offset int) ([]*entity.BookingWithListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.BookingWithListing
	for _, b := range f.bookings {
		if b.GuestID == guestID {
			out = append(out, f.withListing(b))
		}
	}
	return page(out, limit, offset), nil
}

func (f fakeBookings) CountByGuestID(_ context.Context, guestID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, b := range f.bookings {
		if b.GuestID == guestID {
			n++
		}
	}
	return n, nil
}

func (f fakeBookings) FindByHostProfileID(_ context.Context, hostProfileID uuid.UUID, limit, offset int) ([]*entity.BookingWithListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.BookingWithListing
	for _, b := range f.bookings {
		if bw := f.withListing(b); bw.HostProfileID == hostProfileID {
			out = append(out, bw)
		}
	}
	return page(out, limit, offset), nil
}

func (f fakeBookings) CountByHostProfileID(_ context.Context, hostProfileID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, b := range f.bookings {
		if f.withListing(b).HostProfileID == hostProfileID {
			n++
		}
	}
	return n, nil
}

func (f fakeBookings) HasConflict(_ context.Context, listingID uuid.UUID, window entity.Window) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.ListingID != listingID || !isLive(b.Status) {
			continue
		}
		if window.Overlaps(b.Window()) {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeBookings) TransitionStatus(_ context.Context, id uuid.UUID, from []entity.BookingStatus, next entity.BookingStatus, update entity.BookingUpdate) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return false, nil
	}
	for _, st := range from {
		if b.Status != st {
			continue
		}
		b.Status = next
		if update.PaymentIntentID != nil {
			b.PaymentIntentID = update.PaymentIntentID
		}
		if update.CancelReason != nil {
			b.CancelReason = update.CancelReason
		}
		if update.AuthorizedAt != nil {
			b.AuthorizedAt = update.AuthorizedAt
		}
		if update.CapturedAt != nil {
			b.CapturedAt = update.CapturedAt
		}
		return true, nil
	}
	return false, nil
}

func (f fakeBookings) SumCapturedHostAmount(_ context.Context, hostProfileID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total int64
	for _, b := range f.bookings {
		if f.withListing(b).HostProfileID == hostProfileID && b.Status == entity.BookingStatusCompleted && b.CapturedAt != nil {
			total += b.HostAmount
		}
	}
	return total, nil
}

func (f fakeBookings) FindRecentCompleted(_ context.Context, hostProfileID uuid.UUID, limit int) ([]*entity.BookingWithListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.BookingWithListing
	for _, b := range f.bookings {
		bw := f.withListing(b)
		if bw.HostProfileID == hostProfileID && b.Status == entity.BookingStatusCompleted && b.CapturedAt != nil {
			out = append(out, bw)
		}
	}
	return page(out, limit, 0), nil
}

func isLive(status entity.BookingStatus) bool {
	for _, st := range entity.LiveBookingStatuses {
		if st == status {
			return true
		}
	}
	return false
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

type fakeFees struct{ *store }

func (f fakeFees) Create(_ context.Context, fee *entity.FeeTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.fees[fee.BookingID]; ok {
		return repository.ErrConflict
	}
	cp := *fee
	f.fees[fee.BookingID] = &cp
	return nil
}

func (f fakeFees) FindByBookingID(_ context.Context, bookingID uuid.UUID) (*entity.FeeTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fee, ok := f.fees[bookingID]; ok {
		cp := *fee
		return &cp, nil
	}
	return nil, nil
}

func (f fakeFees) MarkProcessed(_ context.Context, bookingID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	fee, ok := f.fees[bookingID]
	if !ok || fee.Processed {
		return errors.New("fee transaction not processable")
	}
	now := time.Now()
	fee.Processed = true
	fee.ProcessedAt = &now
	return nil
}

type fakeAttempts struct{ *store }

func (f fakeAttempts) Create(_ context.Context, attempt *entity.PaymentAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.attempts[attempt.IdempotencyKey]; ok {
		return repository.ErrConflict
	}
	cp := *attempt
	f.attempts[attempt.IdempotencyKey] = &cp
	return nil
}

func (f fakeAttempts) FindByIdempotencyKey(_ context.Context, key string) (*entity.PaymentAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.attempts[key]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (f fakeAttempts) MarkSucceeded(_ context.Context, key, processor, transactionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[key]
	if !ok {
		return errors.New("attempt not found")
	}
	a.Status = entity.PaymentAttemptSucceeded
	a.Processor = &processor
	a.TransactionID = &transactionID
	return nil
}

func (f fakeAttempts) MarkFailed(_ context.Context, key string, processor *string, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[key]
	if !ok {
		return errors.New("attempt not found")
	}
	a.Status = entity.PaymentAttemptFailed
	a.Processor = processor
	a.ErrorMessage = &message
	return nil
}

func (f fakeAttempts) Reopen(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[key]
	if !ok || a.Status != entity.PaymentAttemptFailed {
		return false, nil
	}
	a.Status = entity.PaymentAttemptPending
	return true, nil
}

// ==================== PAYOUTS & REVIEWS ====================

type fakePayouts struct{ *store }

func (f fakePayouts) Create(_ context.Context, payout *entity.Payout) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *payout
	f.payouts[payout.ID] = &cp
	return nil
}

func (f fakePayouts) FindByID(_ context.Context, id uuid.UUID) (*entity.Payout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.payouts[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f fakePayouts) FindByHostProfileID(_ context.Context, hostProfileID uuid.UUID, limit int) ([]*entity.Payout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Payout
	for _, p := range f.payouts {
		if p.HostProfileID == hostProfileID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return page(out, limit, 0), nil
}

func (f fakePayouts) FindAll(_ context.Context, status *entity.PayoutStatus, limit, offset int) ([]*entity.Payout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Payout
	for _, p := range f.payouts {
		if status == nil || p.Status == *status {
			cp := *p
			out = append(out, &cp)
		}
	}
	return page(out, limit, offset), nil
}

func (f fakePayouts) CountAll(_ context.Context, status *entity.PayoutStatus) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, p := range f.payouts {
		if status == nil || p.Status == *status {
			n++
		}
	}
	return n, nil
}

func (f fakePayouts) Totals(_ context.Context, hostProfileID uuid.UUID) (entity.PayoutTotals, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var totals entity.PayoutTotals
	for _, p := range f.payouts {
		if p.HostProfileID != hostProfileID {
			continue
		}
		switch p.Status {
		case entity.PayoutStatusCompleted:
			totals.Completed += p.Amount
		case entity.PayoutStatusPending, entity.PayoutStatusProcessing:
			totals.Pending += p.Amount
		}
	}
	return totals, nil
}

func (f fakePayouts) TransitionStatus(_ context.Context, id uuid.UUID, from []entity.PayoutStatus, next entity.PayoutStatus, update repository.PayoutStatusUpdate) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payouts[id]
	if !ok {
		return false, nil
	}
	for _, st := range from {
		if p.Status != st {
			continue
		}
		p.Status = next
		if update.TransferID != nil {
			p.TransferID = update.TransferID
		}
		if update.FailureReason != nil {
			p.FailureReason = update.FailureReason
		}
		if update.ProcessedAt != nil && p.ProcessedAt == nil {
			p.ProcessedAt = update.ProcessedAt
		}
		if update.CompletedAt != nil {
			p.CompletedAt = update.CompletedAt
		}
		return true, nil
	}
	return false, nil
}

type fakeReviews struct{ *store }

func (f fakeReviews) Create(_ context.Context, review *entity.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reviews[review.BookingID]; ok {
		return repository.ErrConflict
	}
	cp := *review
	f.reviews[review.BookingID] = &cp
	return nil
}

func (f fakeReviews) FindByBookingID(_ context.Context, bookingID uuid.UUID) (*entity.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.reviews[bookingID]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (f fakeReviews) find(match func(r *entity.Review) bool, limit int) []*entity.ReviewWithReviewer {
	var out []*entity.ReviewWithReviewer
	for _, r := range f.reviews {
		if !r.IsPublished || !match(r) {
			continue
		}
		rw := &entity.ReviewWithReviewer{Review: *r}
		if u, ok := f.users[r.ReviewerID]; ok {
			rw.ReviewerName = u.Username
		}
		if l, ok := f.listings[r.ListingID]; ok {
			rw.ListingTitle = l.Title
		}
		out = append(out, rw)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, 0)
}

func (f fakeReviews) stats(match func(r *entity.Review) bool) entity.RatingStats {
	var sum, n int64
	for _, r := range f.reviews {
		if r.IsPublished && match(r) {
			sum += int64(r.Rating)
			n++
		}
	}
	if n == 0 {
		return entity.RatingStats{}
	}
	return entity.RatingStats{AverageRating: float64(sum) / float64(n), ReviewCount: n}
}

func (f fakeReviews) FindByListingID(_ context.Context, listingID uuid.UUID, limit int) ([]*entity.ReviewWithReviewer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.find(func(r *entity.Review) bool { return r.ListingID == listingID }, limit), nil
}

func (f fakeReviews) FindByHostProfileID(_ context.Context, hostProfileID uuid.UUID, limit int) ([]*entity.ReviewWithReviewer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.find(func(r *entity.Review) bool { return r.HostProfileID == hostProfileID }, limit), nil
}

func (f fakeReviews) GetListingStats(_ context.Context, listingID uuid.UUID) (entity.RatingStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats(func(r *entity.Review) bool { return r.ListingID == listingID }), nil
}

func (f fakeReviews) GetHostStats(_ context.Context, hostProfileID uuid.UUID) (entity.RatingStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats(func(r *entity.Review) bool { return r.HostProfileID == hostProfileID }), nil
}

// ==================== GATEWAY ====================

type fakeGateway struct {
	mu           sync.Mutex
	authorizeErr error
	captureErr   error
	processor    string
	authorized   []payment.AuthorizeRequest
	captured     []string
	voided       []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{processor: payment.ProcessorSquare}
}

func (g *fakeGateway) Authorize(_ context.Context, req payment.AuthorizeRequest, preferred string) (*payment.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.authorized = append(g.authorized, req)
	if g.authorizeErr != nil {
		return nil, g.authorizeErr
	}
	processor := g.processor
	if preferred != "" {
		processor = preferred
	}
	return &payment.Result{
		Processor:     processor,
		TransactionID: "txn-" + req.IdempotencyKey,
		Status:        "AUTHORIZED",
	}, nil
}

func (g *fakeGateway) Capture(_ context.Context, processor, transactionID string) (*payment.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.captureErr != nil {
		return nil, g.captureErr
	}
	for _, done := range g.captured {
		if done == processor+":"+transactionID {
			return nil, fmt.Errorf("%w: %s", payment.ErrAlreadyCaptured, transactionID)
		}
	}
	g.captured = append(g.captured, processor+":"+transactionID)
	return &payment.Result{Processor: processor, TransactionID: transactionID, Status: "CAPTURED"}, nil
}

func (g *fakeGateway) Void(_ context.Context, processor, transactionID string) (*payment.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.voided = append(g.voided, processor+":"+transactionID)
	return &payment.Result{Processor: processor, TransactionID: transactionID, Status: "VOIDED"}, nil
}

// ==================== FIXTURES ====================

// fixture wires every service over one store with a guest, a host and an
// ACTIVE listing priced at $50 per guest for up to 4 guests.
type fixture struct {
	st      *store
	tx      *fakeTx
	repo    *repository.Repository
	gateway *fakeGateway
	config  *utils.Config
	svc     *Service

	guest   utils.Actor
	host    utils.Actor
	admin   utils.Actor
	profile *entity.HostProfile
	listing *entity.Listing
}

func newFixture() *fixture {
	st := newStore()
	tx := &fakeTx{}
	repo := newTestRepo(st, tx)
	gateway := newFakeGateway()
	log := zap.NewNop()

	config := &utils.Config{
		Session: utils.SessionConfig{ExpiryHours: 24},
		Payment: utils.PaymentConfig{Currency: "USD"},
	}

	f := &fixture{
		st:      st,
		tx:      tx,
		repo:    repo,
		gateway: gateway,
		config:  config,
		svc:     NewService(repo, gateway, notify.NewLogNotifier(log), nil, config, log),
	}

	f.guest = f.addUser("guest", entity.RoleGuest)
	f.host = f.addUser("host", entity.RoleHost)
	f.admin = f.addUser("admin", entity.RoleAdmin)

	now := time.Now()
	f.profile = &entity.HostProfile{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		UserID:       f.host.ID,
		DisplayName:  "Chef Ana",
		IsActive:     true,
	}
	st.profiles[f.profile.ID] = f.profile

	f.listing = &entity.Listing{
		BaseNoDelete:  entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		HostProfileID: f.profile.ID,
		Title:         "Sunday Supper",
		Slug:          "sunday-supper-abc123",
		Type:          entity.ListingTypeDinner,
		PriceAmount:   5000,
		PriceCurrency: "USD",
		MaxGuests:     4,
		Status:        entity.ListingStatusActive,
	}
	st.listings[f.listing.ID] = f.listing
	return f
}

func (f *fixture) addUser(name string, role entity.UserRole) utils.Actor {
	now := time.Now()
	u := &entity.User{
		Base:     entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Username: name,
		Email:    name + "@example.com",
		Role:     role,
		IsActive: true,
	}
	f.st.users[u.ID] = u
	return utils.Actor{ID: u.ID, Role: string(role)}
}

// addBooking inserts a booking directly in the given status.
func (f *fixture) addBooking(status entity.BookingStatus, start time.Time, guests int) *entity.Booking {
	pricing := entity.CalculatePricing(f.listing.PriceAmount, guests)
	now := time.Now()
	b := &entity.Booking{
		BaseNoDelete:   entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		ListingID:      f.listing.ID,
		GuestID:        f.guest.ID,
		ScheduledStart: start,
		ScheduledEnd:   start.Add(2 * time.Hour),
		GuestCount:     guests,
		TotalAmount:    pricing.TotalAmount,
		PlatformFee:    pricing.PlatformFee,
		HostAmount:     pricing.HostAmount,
		Currency:       "USD",
		Status:         status,
	}
	f.st.mu.Lock()
	f.st.bookings[b.ID] = b
	f.st.mu.Unlock()
	return b
}

// addAuthorized inserts an AUTHORIZED booking with its fee ledger row.
func (f *fixture) addAuthorized(start time.Time, guests int, processor string) (*entity.Booking, *entity.FeeTransaction) {
	b := f.addBooking(entity.BookingStatusAuthorized, start, guests)
	txID := "txn-" + b.ID.String()
	authorizedAt := time.Now()
	f.st.mu.Lock()
	b.PaymentIntentID = &txID
	b.AuthorizedAt = &authorizedAt
	f.st.mu.Unlock()

	fee := &entity.FeeTransaction{
		BaseSimple:    entity.BaseSimple{ID: uuid.New(), CreatedAt: authorizedAt},
		BookingID:     b.ID,
		Processor:     processor,
		TransactionID: txID,
		Amount:        b.TotalAmount,
		PlatformFee:   b.PlatformFee,
		HostPayout:    b.HostAmount,
	}
	f.st.mu.Lock()
	f.st.fees[b.ID] = fee
	f.st.mu.Unlock()
	return b, fee
}

func (f *fixture) storedListing() *entity.Listing {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	cp := *f.st.listings[f.listing.ID]
	return &cp
}

func (f *fixture) booking(id uuid.UUID) *entity.Booking {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	cp := *f.st.bookings[id]
	return &cp
}

// withListingCache rebuilds the services over an in-memory listing cache.
func (f *fixture) withListingCache() *fakeListingCache {
	c := &fakeListingCache{entries: make(map[string]entity.ListingWithHost)}
	log := zap.NewNop()
	f.svc = NewService(f.repo, f.gateway, notify.NewLogNotifier(log), c, f.config, log)
	return c
}

type fakeListingCache struct {
	mu      sync.Mutex
	entries map[string]entity.ListingWithHost
}

func (c *fakeListingCache) GetByID(_ context.Context, id uuid.UUID) (*entity.ListingWithHost, error) {
	return c.get("id:" + id.String()), nil
}

func (c *fakeListingCache) GetBySlug(_ context.Context, slug string) (*entity.ListingWithHost, error) {
	return c.get("slug:" + slug), nil
}

func (c *fakeListingCache) get(key string) *entity.ListingWithHost {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.entries[key]
	if !ok {
		return nil
	}
	return &l
}

func (c *fakeListingCache) Set(_ context.Context, listing *entity.ListingWithHost) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries["id:"+listing.ID.String()] = *listing
	c.entries["slug:"+listing.Slug] = *listing
	return nil
}

func (c *fakeListingCache) Invalidate(_ context.Context, listing *entity.Listing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, "id:"+listing.ID.String())
	delete(c.entries, "slug:"+listing.Slug)
	return nil
}

// evening returns 18:00 UTC on a fixed future day plus offset hours.
func evening(offsetHours int) time.Time {
	base := time.Now().UTC().AddDate(0, 0, 7).Truncate(24 * time.Hour)
	return base.Add(time.Duration(18+offsetHours) * time.Hour)
}

package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dataweston/Dinewith/internal/data/entity"
	"github.com/dataweston/Dinewith/internal/dto/request"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateHostProfile_PromotesGuest(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	cook := f.addUser("cook", entity.RoleGuest)

	resp, err := f.svc.Listing.GetOrCreateHostProfile(ctx, cook, &request.HostProfileRequest{DisplayName: "Home Cook"})
	require.NoError(t, err)
	assert.Equal(t, "Home Cook", resp.DisplayName)
	assert.Equal(t, cook.ID.String(), resp.UserID)

	user, _ := f.repo.User.FindByID(ctx, cook.ID)
	assert.Equal(t, entity.RoleHost, user.Role)

	again, err := f.svc.Listing.GetOrCreateHostProfile(ctx, cook, &request.HostProfileRequest{DisplayName: "Other Name"})
	require.NoError(t, err)
	assert.Equal(t, resp.ID, again.ID)
	assert.Equal(t, "Home Cook", again.DisplayName)
}

func TestGetOrCreateHostProfile_KeepsModeratorRole(t *testing.T) {
	f := newFixture()
	mod := f.addUser("mod", entity.RoleModerator)

	_, err := f.svc.Listing.GetOrCreateHostProfile(context.Background(), mod, &request.HostProfileRequest{DisplayName: "Mod Kitchen"})
	require.NoError(t, err)

	user, _ := f.repo.User.FindByID(context.Background(), mod.ID)
	assert.Equal(t, entity.RoleModerator, user.Role)
}

func TestCreateListing(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.Listing.CreateListing(context.Background(), f.host, &request.CreateListingRequest{
		Title:       "Tamales Night",
		Type:        string(entity.ListingTypeDinner),
		PriceAmount: 4500,
		MaxGuests:   6,
	})
	require.NoError(t, err)

	assert.Equal(t, entity.ListingStatusDraft, resp.Status)
	assert.Equal(t, "USD", resp.PriceCurrency)
	assert.True(t, strings.HasPrefix(resp.Slug, "tamales-night-"), resp.Slug)
	assert.Equal(t, f.profile.ID.String(), resp.Host.ProfileID)

	_, err = f.svc.Listing.CreateListing(context.Background(), f.guest, &request.CreateListingRequest{
		Title:     "No Profile",
		Type:      string(entity.ListingTypeDinner),
		MaxGuests: 2,
	})
	assert.True(t, errors.Is(err, ErrHostNotFound))
}

func TestUpdateListing_TitleRegeneratesSlug(t *testing.T) {
	f := newFixture()
	title := "Monday Supper"

	resp, err := f.svc.Listing.UpdateListing(context.Background(), f.host, f.listing.ID.String(), &request.UpdateListingRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, resp.Title)
	assert.True(t, strings.HasPrefix(resp.Slug, "monday-supper-"), resp.Slug)
	assert.Equal(t, resp.Slug, f.storedListing().Slug)
}

func TestUpdateListing_OnlyOwner(t *testing.T) {
	f := newFixture()
	other := f.addUser("other-host", entity.RoleHost)
	_, err := f.svc.Listing.GetOrCreateHostProfile(context.Background(), other, &request.HostProfileRequest{DisplayName: "Rival"})
	require.NoError(t, err)

	price := int64(1)
	_, err = f.svc.Listing.UpdateListing(context.Background(), other, f.listing.ID.String(), &request.UpdateListingRequest{PriceAmount: &price})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrForbidden))
	assert.Equal(t, int64(5000), f.storedListing().PriceAmount)
}

func TestListingModerationFlow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	mod := f.addUser("mod", entity.RoleModerator)

	created, err := f.svc.Listing.CreateListing(ctx, f.host, &request.CreateListingRequest{
		Title:       "Pasta Class",
		Type:        string(entity.ListingTypeCookingClass),
		PriceAmount: 3000,
		MaxGuests:   8,
	})
	require.NoError(t, err)

	// draft listings cannot be approved
	_, err = f.svc.Listing.ApproveListing(ctx, mod, created.ID)
	assert.True(t, errors.Is(err, ErrInvalidState))

	submitted, err := f.svc.Listing.SubmitListing(ctx, f.host, created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ListingStatusSubmitted, submitted.Status)

	queue, err := f.svc.Listing.GetListingsForModeration(ctx, mod, &request.ListingStatusFilter{
		PaginatedRequest: request.PaginatedRequest{Page: 1, PerPage: 20},
	})
	require.NoError(t, err)
	require.Len(t, queue.Data, 1)
	assert.Equal(t, created.ID, queue.Data[0].ID)

	_, err = f.svc.Listing.ApproveListing(ctx, f.host, created.ID)
	assert.True(t, errors.Is(err, ErrForbidden))

	rejected, err := f.svc.Listing.RejectListing(ctx, mod, created.ID, &request.RejectListingRequest{Reason: "needs photos"})
	require.NoError(t, err)
	assert.Equal(t, entity.ListingStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "needs photos", *rejected.RejectionReason)

	_, err = f.svc.Listing.SubmitListing(ctx, f.host, created.ID)
	require.NoError(t, err)

	approved, err := f.svc.Listing.ApproveListing(ctx, f.admin, created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ListingStatusActive, approved.Status)
	assert.NotNil(t, approved.PublishedAt)
	assert.Nil(t, approved.RejectionReason)

	paused, err := f.svc.Listing.PauseListing(ctx, f.host, created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ListingStatusPaused, paused.Status)

	resumed, err := f.svc.Listing.ResumeListing(ctx, f.host, created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ListingStatusActive, resumed.Status)
}

func TestGetListingBySlug_CountsViews(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		resp, err := f.svc.Listing.GetListingBySlug(ctx, f.listing.Slug)
		require.NoError(t, err)
		assert.Equal(t, "Chef Ana", resp.Host.DisplayName)
	}
	assert.Equal(t, int64(3), f.storedListing().ViewCount)

	_, err := f.svc.Listing.GetListingBySlug(ctx, "no-such-dinner")
	assert.True(t, errors.Is(err, ErrListingNotFound))
}

func TestGetListing(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.Listing.GetListing(context.Background(), f.listing.ID.String())
	require.NoError(t, err)
	assert.Equal(t, f.listing.Title, resp.Title)
	assert.Equal(t, int64(0), f.storedListing().ViewCount)

	_, err = f.svc.Listing.GetListing(context.Background(), "not-a-uuid")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestCreateSlot_Overlap(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.listing.ID.String()

	_, err := f.svc.Listing.CreateSlot(ctx, f.host, id, &request.CreateSlotRequest{StartTime: evening(0), EndTime: evening(2)})
	require.NoError(t, err)

	_, err = f.svc.Listing.CreateSlot(ctx, f.host, id, &request.CreateSlotRequest{StartTime: evening(1), EndTime: evening(3)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSlotOverlap))

	_, err = f.svc.Listing.CreateSlot(ctx, f.host, id, &request.CreateSlotRequest{StartTime: evening(2), EndTime: evening(4)})
	require.NoError(t, err)

	_, err = f.svc.Listing.CreateSlot(ctx, f.guest, id, &request.CreateSlotRequest{StartTime: evening(24), EndTime: evening(26)})
	assert.True(t, errors.Is(err, ErrHostNotFound))

	slots, err := f.svc.Listing.ListAvailableSlots(ctx, id)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.True(t, slots[0].StartTime.Before(slots[1].StartTime))
}

func TestDeleteSlot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.listing.ID.String()

	free, err := f.svc.Listing.CreateSlot(ctx, f.host, id, &request.CreateSlotRequest{StartTime: evening(0), EndTime: evening(2)})
	require.NoError(t, err)
	booked, err := f.svc.Listing.CreateSlot(ctx, f.host, id, &request.CreateSlotRequest{StartTime: evening(24), EndTime: evening(26)})
	require.NoError(t, err)
	f.st.slots[uuid.MustParse(booked.ID)].IsBooked = true

	err = f.svc.Listing.DeleteSlot(ctx, f.host, booked.ID)
	assert.True(t, errors.Is(err, ErrInvalidState))

	err = f.svc.Listing.DeleteSlot(ctx, f.guest, free.ID)
	assert.Error(t, err)

	require.NoError(t, f.svc.Listing.DeleteSlot(ctx, f.host, free.ID))
	err = f.svc.Listing.DeleteSlot(ctx, f.host, free.ID)
	assert.True(t, errors.Is(err, ErrSlotNotFound))

	slots, err := f.svc.Listing.GetListingSlots(ctx, f.host, id)
	require.NoError(t, err)
	assert.Len(t, slots, 1)
}

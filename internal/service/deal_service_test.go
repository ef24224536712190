package service

import (
	"context"
	"testing"
	"time"

	"backend/internal/model"
	"backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newDealServiceForTest() (DealService, *fakeDealRepo, *fakeRegionRepo, *fakePointsRepo, *fakeAuditRepo) {
	dealRepo := newFakeDealRepo()
	regionRepo := newFakeRegionRepo()
	pointsRepo := newFakePointsRepo()
	auditRepo := newFakeAuditRepo()
	svc := NewDealService(dealRepo, newFakeUserRepo(), regionRepo, pointsRepo, auditRepo, fakeTxManager{}, websocket.NewHub())
	return svc, dealRepo, regionRepo, pointsRepo, auditRepo
}

func defaultPointsConfig() *model.PointsConfig {
	return &model.PointsConfig{
		ID:                    uuid.New(),
		NewCustomerGoalRate:   decimal.NewFromInt(1000),
		RenewalGoalRate:       decimal.NewFromInt(2000),
		NewCustomerPointsRate: decimal.NewFromInt(10),
		RenewalPointsRate:     decimal.NewFromInt(20),
	}
}

func pendingDeal(userID uuid.UUID, region string, value int64, dealType string) model.Deal {
	return model.Deal{
		UserID:       userID,
		Region:       region,
		CustomerName: "Acme Corp",
		DealValue:    decimal.NewFromInt(value),
		DealType:     dealType,
		Status:       model.DealStatusPending,
		GoalsEarned:  decimal.Zero,
		PointsEarned: decimal.Zero,
	}
}

func TestSubmitDealRejectsNonPositiveValue(t *testing.T) {
	svc, dealRepo, _, _, _ := newDealServiceForTest()
	actor := AuthContext{UserID: uuid.New(), Role: model.RoleUser, Region: model.RegionNOLA}

	for _, value := range []int64{0, -250} {
		_, err := svc.SubmitDeal(context.Background(), actor, SubmitDealRequest{
			CustomerName: "Acme Corp",
			DealValue:    decimal.NewFromInt(value),
			DealType:     model.DealTypeNewCustomer,
		})
		if err == nil || err.Error() != "deal_value must be greater than zero" {
			t.Fatalf("value %d: expected value validation error, got %v", value, err)
		}
	}
	if len(dealRepo.deals) != 0 {
		t.Fatalf("expected no deals persisted, got %d", len(dealRepo.deals))
	}
}

func TestSubmitDealCreatesPendingDealInOwnRegion(t *testing.T) {
	svc, dealRepo, _, _, _ := newDealServiceForTest()
	actor := AuthContext{UserID: uuid.New(), Role: model.RoleUser, Region: model.RegionBrazil}

	res, err := svc.SubmitDeal(context.Background(), actor, SubmitDealRequest{
		CustomerName: "Acme Corp",
		DealValue:    decimal.NewFromInt(1200),
		DealType:     model.DealTypeRenewal,
	})
	if err != nil {
		t.Fatalf("SubmitDeal failed: %v", err)
	}
	if res.Status != model.DealStatusPending {
		t.Errorf("expected status pending, got %s", res.Status)
	}
	if res.Region != model.RegionBrazil {
		t.Errorf("expected region %s, got %s", model.RegionBrazil, res.Region)
	}
	if res.UserID != actor.UserID {
		t.Errorf("deal not attributed to submitter")
	}
	if !res.GoalsEarned.IsZero() || !res.PointsEarned.IsZero() {
		t.Errorf("pending deal must not carry earned goals or points")
	}

	stored, err := dealRepo.FindByID(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("deal not persisted: %v", err)
	}
	if !stored.DealValue.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("expected stored value 1200, got %s", stored.DealValue)
	}
}

func TestSubmitDealRejectsUnknownRegionConfig(t *testing.T) {
	svc, _, _, _, _ := newDealServiceForTest()
	actor := AuthContext{UserID: uuid.New(), Role: model.RoleUser, Region: model.RegionNOLA}

	missing := uuid.NewString()
	_, err := svc.SubmitDeal(context.Background(), actor, SubmitDealRequest{
		CustomerName:   "Acme Corp",
		DealValue:      decimal.NewFromInt(100),
		DealType:       model.DealTypeNewCustomer,
		RegionConfigID: &missing,
	})
	if err == nil || err.Error() != "region_config_id does not reference an existing region configuration" {
		t.Fatalf("expected region config reference error, got %v", err)
	}
}

func TestApproveDealConvertsWithGlobalRates(t *testing.T) {
	svc, dealRepo, _, pointsRepo, auditRepo := newDealServiceForTest()
	pointsRepo.config = defaultPointsConfig()

	userID := uuid.New()
	deal := dealRepo.add(pendingDeal(userID, model.RegionNOLA, 2500, model.DealTypeNewCustomer))
	admin := AuthContext{UserID: uuid.New(), Role: model.RoleAdmin}

	res, err := svc.ApproveDeal(context.Background(), admin, deal.ID.String())
	if err != nil {
		t.Fatalf("ApproveDeal failed: %v", err)
	}

	if res.Status != model.DealStatusApproved {
		t.Errorf("expected status approved, got %s", res.Status)
	}
	if want := decimal.RequireFromString("2.5"); !res.GoalsEarned.Equal(want) {
		t.Errorf("expected goals 2.5, got %s", res.GoalsEarned)
	}
	if want := decimal.NewFromInt(250); !res.PointsEarned.Equal(want) {
		t.Errorf("expected points 250, got %s", res.PointsEarned)
	}
	if res.ApprovedBy == nil || *res.ApprovedBy != admin.UserID {
		t.Errorf("approver not recorded")
	}
	if res.ApprovedAt == nil {
		t.Errorf("approval time not recorded")
	}

	entries := pointsRepo.entriesFor(userID, model.PointsEntryDealApproval)
	if len(entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(entries))
	}
	if !entries[0].Points.Equal(decimal.NewFromInt(250)) {
		t.Errorf("expected credited points 250, got %s", entries[0].Points)
	}
	if entries[0].ReferenceID == nil || *entries[0].ReferenceID != deal.ID {
		t.Errorf("ledger entry does not reference the deal")
	}

	if len(auditRepo.logs) != 1 || auditRepo.logs[0].Action != model.ActionApproveDeal {
		t.Errorf("expected one %s audit entry, got %v", model.ActionApproveDeal, auditRepo.actions())
	}
}

func TestApproveDealUsesRenewalRates(t *testing.T) {
	svc, dealRepo, _, pointsRepo, _ := newDealServiceForTest()
	pointsRepo.config = defaultPointsConfig()

	deal := dealRepo.add(pendingDeal(uuid.New(), model.RegionSOLA, 4000, model.DealTypeRenewal))
	admin := AuthContext{UserID: uuid.New(), Role: model.RoleAdmin}

	res, err := svc.ApproveDeal(context.Background(), admin, deal.ID.String())
	if err != nil {
		t.Fatalf("ApproveDeal failed: %v", err)
	}
	if want := decimal.NewFromInt(2); !res.GoalsEarned.Equal(want) {
		t.Errorf("expected goals 2, got %s", res.GoalsEarned)
	}
	if want := decimal.NewFromInt(200); !res.PointsEarned.Equal(want) {
		t.Errorf("expected points 200, got %s", res.PointsEarned)
	}
}

func TestApproveDealRegionConfigOverridesGoalRate(t *testing.T) {
	svc, dealRepo, regionRepo, pointsRepo, _ := newDealServiceForTest()
	pointsRepo.config = defaultPointsConfig()

	cfg := regionRepo.add(model.RegionConfig{
		Region:              model.RegionNOLA,
		Category:            "ENTERPRISE",
		NewCustomerGoalRate: decimal.NewFromInt(500),
		RenewalGoalRate:     decimal.NewFromInt(1000),
	})

	d := pendingDeal(uuid.New(), model.RegionNOLA, 2500, model.DealTypeNewCustomer)
	d.RegionConfigID = &cfg.ID
	deal := dealRepo.add(d)
	admin := AuthContext{UserID: uuid.New(), Role: model.RoleAdmin}

	res, err := svc.ApproveDeal(context.Background(), admin, deal.ID.String())
	if err != nil {
		t.Fatalf("ApproveDeal failed: %v", err)
	}
	if want := decimal.NewFromInt(5); !res.GoalsEarned.Equal(want) {
		t.Errorf("expected goals 5 from region rate, got %s", res.GoalsEarned)
	}
	// Points conversion is always global
	if want := decimal.NewFromInt(250); !res.PointsEarned.Equal(want) {
		t.Errorf("expected points 250, got %s", res.PointsEarned)
	}
}

func TestApproveDealExpiredRegionConfigFallsBackToGlobal(t *testing.T) {
	svc, dealRepo, regionRepo, pointsRepo, _ := newDealServiceForTest()
	pointsRepo.config = defaultPointsConfig()

	expired := time.Now().Add(-24 * time.Hour)
	cfg := regionRepo.add(model.RegionConfig{
		Region:              model.RegionNOLA,
		Category:            "ENTERPRISE",
		NewCustomerGoalRate: decimal.NewFromInt(500),
		RenewalGoalRate:     decimal.NewFromInt(1000),
		ExpiresAt:           &expired,
	})

	d := pendingDeal(uuid.New(), model.RegionNOLA, 2500, model.DealTypeNewCustomer)
	d.RegionConfigID = &cfg.ID
	deal := dealRepo.add(d)
	admin := AuthContext{UserID: uuid.New(), Role: model.RoleAdmin}

	res, err := svc.ApproveDeal(context.Background(), admin, deal.ID.String())
	if err != nil {
		t.Fatalf("ApproveDeal failed: %v", err)
	}
	if want := decimal.RequireFromString("2.5"); !res.GoalsEarned.Equal(want) {
		t.Errorf("expected goals 2.5 from global rate, got %s", res.GoalsEarned)
	}
}

func TestApproveDealDeletedRegionConfigFallsBackToGlobal(t *testing.T) {
	svc, dealRepo, _, pointsRepo, _ := newDealServiceForTest()
	pointsRepo.config = defaultPointsConfig()

	// The referenced config no longer exists; conversion still succeeds
	goneID := uuid.New()
	d := pendingDeal(uuid.New(), model.RegionMexico, 2500, model.DealTypeNewCustomer)
	d.RegionConfigID = &goneID
	deal := dealRepo.add(d)
	admin := AuthContext{UserID: uuid.New(), Role: model.RoleAdmin}

	res, err := svc.ApproveDeal(context.Background(), admin, deal.ID.String())
	if err != nil {
		t.Fatalf("ApproveDeal failed: %v", err)
	}
	if want := decimal.RequireFromString("2.5"); !res.GoalsEarned.Equal(want) {
		t.Errorf("expected goals 2.5 from global rate, got %s", res.GoalsEarned)
	}
}

func TestApproveDealRejectsNonPending(t *testing.T) {
	svc, dealRepo, _, pointsRepo, _ := newDealServiceForTest()
	pointsRepo.config = defaultPointsConfig()

	d := pendingDeal(uuid.New(), model.RegionNOLA, 100, model.DealTypeNewCustomer)
	d.Status = model.DealStatusApproved
	deal := dealRepo.add(d)
	admin := AuthContext{UserID: uuid.New(), Role: model.RoleAdmin}

	_, err := svc.ApproveDeal(context.Background(), admin, deal.ID.String())
	if err == nil || err.Error() != "deal is already approved" {
		t.Fatalf("expected conflict on approved deal, got %v", err)
	}
	if len(pointsRepo.entries) != 0 {
		t.Errorf("no points may be credited on a failed approval")
	}
}

func TestApproveDealRegionalAdminCannotCrossRegions(t *testing.T) {
	svc, dealRepo, _, pointsRepo, _ := newDealServiceForTest()
	pointsRepo.config = defaultPointsConfig()

	deal := dealRepo.add(pendingDeal(uuid.New(), model.RegionNOLA, 100, model.DealTypeNewCustomer))
	regional := AuthContext{UserID: uuid.New(), Role: model.RoleRegionalAdmin, Region: model.RegionSOLA}

	_, err := svc.ApproveDeal(context.Background(), regional, deal.ID.String())
	if err == nil || err.Error() != "access denied: deal belongs to another region" {
		t.Fatalf("expected region scope rejection, got %v", err)
	}

	stored, _ := dealRepo.FindByID(context.Background(), deal.ID)
	if stored.Status != model.DealStatusPending {
		t.Errorf("deal status must stay pending, got %s", stored.Status)
	}
}

func TestApproveDealFailsWithoutPointsConfig(t *testing.T) {
	svc, dealRepo, _, _, _ := newDealServiceForTest()

	deal := dealRepo.add(pendingDeal(uuid.New(), model.RegionNOLA, 100, model.DealTypeNewCustomer))
	admin := AuthContext{UserID: uuid.New(), Role: model.RoleAdmin}

	_, err := svc.ApproveDeal(context.Background(), admin, deal.ID.String())
	if err == nil || err.Error() != "points configuration is not set up" {
		t.Fatalf("expected missing configuration error, got %v", err)
	}
}

func TestRejectDealRecordsReasonWithoutPoints(t *testing.T) {
	svc, dealRepo, _, pointsRepo, auditRepo := newDealServiceForTest()
	pointsRepo.config = defaultPointsConfig()

	deal := dealRepo.add(pendingDeal(uuid.New(), model.RegionNOLA, 100, model.DealTypeNewCustomer))
	admin := AuthContext{UserID: uuid.New(), Role: model.RoleAdmin}

	res, err := svc.RejectDeal(context.Background(), admin, deal.ID.String(), "duplicate submission")
	if err != nil {
		t.Fatalf("RejectDeal failed: %v", err)
	}
	if res.Status != model.DealStatusRejected {
		t.Errorf("expected status rejected, got %s", res.Status)
	}
	if res.RejectionReason != "duplicate submission" {
		t.Errorf("expected rejection reason recorded, got %q", res.RejectionReason)
	}
	if len(pointsRepo.entries) != 0 {
		t.Errorf("rejection must not touch the points ledger")
	}
	if len(auditRepo.logs) != 1 || auditRepo.logs[0].Action != model.ActionRejectDeal {
		t.Errorf("expected one %s audit entry, got %v", model.ActionRejectDeal, auditRepo.actions())
	}

	// A decided deal cannot be decided again
	_, err = svc.RejectDeal(context.Background(), admin, deal.ID.String(), "again")
	if err == nil || err.Error() != "deal is already rejected" {
		t.Fatalf("expected conflict on rejected deal, got %v", err)
	}
}

func TestUpdateDealKeepsEarnedConversions(t *testing.T) {
	svc, dealRepo, _, pointsRepo, _ := newDealServiceForTest()
	pointsRepo.config = defaultPointsConfig()

	d := pendingDeal(uuid.New(), model.RegionNOLA, 2500, model.DealTypeNewCustomer)
	d.Status = model.DealStatusApproved
	d.GoalsEarned = decimal.RequireFromString("2.5")
	d.PointsEarned = decimal.NewFromInt(250)
	deal := dealRepo.add(d)
	admin := AuthContext{UserID: uuid.New(), Role: model.RoleAdmin}

	newValue := decimal.NewFromInt(9000)
	res, err := svc.UpdateDeal(context.Background(), admin, deal.ID.String(), UpdateDealRequest{DealValue: &newValue})
	if err != nil {
		t.Fatalf("UpdateDeal failed: %v", err)
	}
	if !res.DealValue.Equal(newValue) {
		t.Errorf("expected updated value 9000, got %s", res.DealValue)
	}
	if !res.GoalsEarned.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("goals must not be recomputed on edit, got %s", res.GoalsEarned)
	}
	if !res.PointsEarned.Equal(decimal.NewFromInt(250)) {
		t.Errorf("points must not be recomputed on edit, got %s", res.PointsEarned)
	}
}

func TestListDealsPinsRegionalAdminToOwnRegion(t *testing.T) {
	svc, dealRepo, _, _, _ := newDealServiceForTest()
	regional := AuthContext{UserID: uuid.New(), Role: model.RoleRegionalAdmin, Region: model.RegionSOLA}

	_, _, err := svc.ListDeals(context.Background(), regional, DealListFilter{Region: model.RegionNOLA, Page: 1, Limit: 20})
	if err != nil {
		t.Fatalf("ListDeals failed: %v", err)
	}
	if dealRepo.lastFilter.Region != model.RegionSOLA {
		t.Errorf("expected filter pinned to %s, got %q", model.RegionSOLA, dealRepo.lastFilter.Region)
	}
}

func TestListDealsSuperAdminMayNarrowToAnyRegion(t *testing.T) {
	svc, dealRepo, _, _, _ := newDealServiceForTest()
	super := AuthContext{UserID: uuid.New(), Role: model.RoleSuperAdmin}

	_, _, err := svc.ListDeals(context.Background(), super, DealListFilter{Region: model.RegionMexico, Page: 1, Limit: 20})
	if err != nil {
		t.Fatalf("ListDeals failed: %v", err)
	}
	if dealRepo.lastFilter.Region != model.RegionMexico {
		t.Errorf("expected requested region %s, got %q", model.RegionMexico, dealRepo.lastFilter.Region)
	}
}

func TestListMyDealsFiltersByOwner(t *testing.T) {
	svc, dealRepo, _, _, _ := newDealServiceForTest()
	actor := AuthContext{UserID: uuid.New(), Role: model.RoleUser, Region: model.RegionNOLA}

	_, _, err := svc.ListMyDeals(context.Background(), actor, "", 1, 20)
	if err != nil {
		t.Fatalf("ListMyDeals failed: %v", err)
	}
	if dealRepo.lastFilter.UserID == nil || *dealRepo.lastFilter.UserID != actor.UserID {
		t.Errorf("expected list scoped to the caller")
	}
}

func TestGetDealHidesForeignDealsFromUsers(t *testing.T) {
	svc, dealRepo, _, _, _ := newDealServiceForTest()

	deal := dealRepo.add(pendingDeal(uuid.New(), model.RegionNOLA, 100, model.DealTypeNewCustomer))
	other := AuthContext{UserID: uuid.New(), Role: model.RoleUser, Region: model.RegionNOLA}

	_, err := svc.GetDeal(context.Background(), other, deal.ID.String())
	if err == nil || err.Error() != "access denied" {
		t.Fatalf("expected access denied for foreign deal, got %v", err)
	}
}

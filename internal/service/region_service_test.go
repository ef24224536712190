package service

import (
	"context"
	"strings"
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newRegionServiceForTest() (RegionService, *fakeRegionRepo, *fakePointsRepo) {
	regionRepo := newFakeRegionRepo()
	pointsRepo := newFakePointsRepo()
	svc := NewRegionService(regionRepo, newFakeRewardRepo(), pointsRepo)
	return svc, regionRepo, pointsRepo
}

func validConfigRequest(region, category, subcategory string) CreateRegionConfigRequest {
	return CreateRegionConfigRequest{
		Region:              region,
		Category:            category,
		Subcategory:         subcategory,
		NewCustomerGoalRate: decimal.NewFromInt(1000),
		RenewalGoalRate:     decimal.NewFromInt(2000),
		MonthlyGoalTarget:   decimal.NewFromInt(10),
	}
}

func TestCreateRegionConfigRejectsDuplicateTriple(t *testing.T) {
	svc, _, _ := newRegionServiceForTest()
	ctx := context.Background()

	if _, err := svc.CreateRegionConfig(ctx, validConfigRequest(model.RegionNOLA, "ENTERPRISE", "")); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	_, err := svc.CreateRegionConfig(ctx, validConfigRequest(model.RegionNOLA, "ENTERPRISE", ""))
	if err == nil || err.Error() != "region configuration already exists for this region, category and subcategory" {
		t.Fatalf("expected duplicate triple conflict, got %v", err)
	}

	// A distinct subcategory makes a distinct triple
	if _, err := svc.CreateRegionConfig(ctx, validConfigRequest(model.RegionNOLA, "ENTERPRISE", "Canada")); err != nil {
		t.Fatalf("distinct subcategory must be allowed: %v", err)
	}
	// Same pair in another region is also fine
	if _, err := svc.CreateRegionConfig(ctx, validConfigRequest(model.RegionSOLA, "ENTERPRISE", "")); err != nil {
		t.Fatalf("same category in another region must be allowed: %v", err)
	}
}

func TestValidateSubcategory(t *testing.T) {
	cases := []struct {
		region      string
		subcategory string
		wantErr     string
	}{
		{model.RegionNOLA, "", ""},
		{model.RegionNOLA, "Canada", ""},
		{model.RegionNOLA, "Canada - East", ""},
		{model.RegionNOLA, "A - B - C", "subcategory may contain at most one"},
		{model.RegionSOLA, " - East", "subcategory parts cannot be empty"},
		{model.RegionMexico, "PLATINUM", ""},
		{model.RegionMexico, "GOLD - CDMX", ""},
		{model.RegionMexico, "COLOMBIA", "unknown MEXICO partner level"},
		{model.RegionBrazil, "COLOMBIA", ""},
	}

	for _, tc := range cases {
		err := validateSubcategory(tc.region, tc.subcategory)
		if tc.wantErr == "" {
			if err != nil {
				t.Errorf("%s %q: unexpected error %v", tc.region, tc.subcategory, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
			t.Errorf("%s %q: expected error containing %q, got %v", tc.region, tc.subcategory, tc.wantErr, err)
		}
	}
}

func TestCreateRegionConfigRejectsNonPositiveRates(t *testing.T) {
	svc, _, _ := newRegionServiceForTest()

	req := validConfigRequest(model.RegionNOLA, "ENTERPRISE", "")
	req.NewCustomerGoalRate = decimal.Zero
	_, err := svc.CreateRegionConfig(context.Background(), req)
	if err == nil || err.Error() != "conversion rates must be greater than zero" {
		t.Fatalf("expected rate validation error, got %v", err)
	}
}

func TestCreateRegionConfigRejectsUnknownReward(t *testing.T) {
	svc, _, _ := newRegionServiceForTest()

	missing := uuid.NewString()
	req := validConfigRequest(model.RegionNOLA, "ENTERPRISE", "")
	req.RewardID = &missing
	_, err := svc.CreateRegionConfig(context.Background(), req)
	if err == nil || err.Error() != "reward_id does not reference an existing reward" {
		t.Fatalf("expected reward reference error, got %v", err)
	}
}

func TestUpdateRegionConfigRenameCannotCollide(t *testing.T) {
	svc, regionRepo, _ := newRegionServiceForTest()
	ctx := context.Background()

	regionRepo.add(model.RegionConfig{
		Region:              model.RegionNOLA,
		Category:            "ENTERPRISE",
		NewCustomerGoalRate: decimal.NewFromInt(1000),
		RenewalGoalRate:     decimal.NewFromInt(2000),
	})
	other := regionRepo.add(model.RegionConfig{
		Region:              model.RegionNOLA,
		Category:            "DISTRIBUTION",
		NewCustomerGoalRate: decimal.NewFromInt(1000),
		RenewalGoalRate:     decimal.NewFromInt(2000),
	})

	newCategory := "ENTERPRISE"
	_, err := svc.UpdateRegionConfig(ctx, other.ID.String(), UpdateRegionConfigRequest{Category: &newCategory})
	if err == nil || err.Error() != "region configuration already exists for this region, category and subcategory" {
		t.Fatalf("expected rename collision conflict, got %v", err)
	}
}

func TestSeedRegionConfigsSkipsExistingTriples(t *testing.T) {
	svc, regionRepo, pointsRepo := newRegionServiceForTest()
	pointsRepo.config = defaultPointsConfig()
	ctx := context.Background()

	regionRepo.add(model.RegionConfig{
		Region:              model.RegionNOLA,
		Category:            "ENTERPRISE",
		NewCustomerGoalRate: decimal.NewFromInt(750),
		RenewalGoalRate:     decimal.NewFromInt(1500),
	})

	result, err := svc.SeedRegionConfigs(ctx)
	if err != nil {
		t.Fatalf("SeedRegionConfigs failed: %v", err)
	}
	if result.Created != 7 || result.Skipped != 1 {
		t.Fatalf("expected 7 created / 1 skipped, got %d / %d", result.Created, result.Skipped)
	}

	// Pre-existing row keeps its hand-tuned rates
	kept, err := regionRepo.FindByTriple(ctx, model.RegionNOLA, "ENTERPRISE", "")
	if err != nil {
		t.Fatalf("seeded grid lost the existing row: %v", err)
	}
	if !kept.NewCustomerGoalRate.Equal(decimal.NewFromInt(750)) {
		t.Errorf("existing config rate must not be overwritten, got %s", kept.NewCustomerGoalRate)
	}

	// Seeding is idempotent
	again, err := svc.SeedRegionConfigs(ctx)
	if err != nil {
		t.Fatalf("second seed failed: %v", err)
	}
	if again.Created != 0 || again.Skipped != 8 {
		t.Fatalf("expected 0 created / 8 skipped on rerun, got %d / %d", again.Created, again.Skipped)
	}
}

func TestSeedRegionConfigsCopiesGlobalRates(t *testing.T) {
	svc, regionRepo, pointsRepo := newRegionServiceForTest()
	pointsRepo.config = defaultPointsConfig()
	ctx := context.Background()

	if _, err := svc.SeedRegionConfigs(ctx); err != nil {
		t.Fatalf("SeedRegionConfigs failed: %v", err)
	}

	cfg, err := regionRepo.FindByTriple(ctx, model.RegionMexico, "DISTRIBUTION", "")
	if err != nil {
		t.Fatalf("expected MEXICO/DISTRIBUTION seeded: %v", err)
	}
	if !cfg.NewCustomerGoalRate.Equal(decimal.NewFromInt(1000)) || !cfg.RenewalGoalRate.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("seeded rates must come from the global sheet, got %s / %s", cfg.NewCustomerGoalRate, cfg.RenewalGoalRate)
	}
}

func TestEnsurePointsConfigInstallsDefaultsOnce(t *testing.T) {
	svc, _, pointsRepo := newRegionServiceForTest()
	ctx := context.Background()

	if err := svc.EnsurePointsConfig(ctx); err != nil {
		t.Fatalf("EnsurePointsConfig failed: %v", err)
	}
	if pointsRepo.config == nil {
		t.Fatal("expected a points configuration to be installed")
	}
	cfg := pointsRepo.config
	if !cfg.NewCustomerGoalRate.Equal(decimal.NewFromInt(1000)) ||
		!cfg.RenewalGoalRate.Equal(decimal.NewFromInt(2000)) ||
		!cfg.NewCustomerPointsRate.Equal(decimal.NewFromInt(10)) ||
		!cfg.RenewalPointsRate.Equal(decimal.NewFromInt(20)) {
		t.Errorf("unexpected default rates: %+v", cfg)
	}

	installed := cfg.ID
	if err := svc.EnsurePointsConfig(ctx); err != nil {
		t.Fatalf("second EnsurePointsConfig failed: %v", err)
	}
	if pointsRepo.config.ID != installed {
		t.Errorf("existing configuration must not be replaced")
	}
}

func TestUpdatePointsConfigValidatesRates(t *testing.T) {
	svc, _, pointsRepo := newRegionServiceForTest()
	pointsRepo.config = defaultPointsConfig()
	actor := AuthContext{UserID: uuid.New(), Role: model.RoleSuperAdmin}

	zero := decimal.Zero
	_, err := svc.UpdatePointsConfig(context.Background(), actor, UpdatePointsConfigRequest{NewCustomerPointsRate: &zero})
	if err == nil || err.Error() != "conversion rates must be greater than zero" {
		t.Fatalf("expected rate validation error, got %v", err)
	}

	rate := decimal.NewFromInt(5)
	updated, err := svc.UpdatePointsConfig(context.Background(), actor, UpdatePointsConfigRequest{NewCustomerPointsRate: &rate})
	if err != nil {
		t.Fatalf("UpdatePointsConfig failed: %v", err)
	}
	if !updated.NewCustomerPointsRate.Equal(rate) {
		t.Errorf("expected rate 5, got %s", updated.NewCustomerPointsRate)
	}
	// Untouched rates survive a partial update
	if !updated.RenewalPointsRate.Equal(decimal.NewFromInt(20)) {
		t.Errorf("partial update must not clobber other rates, got %s", updated.RenewalPointsRate)
	}
	if updated.UpdatedBy == nil || *updated.UpdatedBy != actor.UserID {
		t.Errorf("editor not recorded")
	}
}

func TestRegionConfigKeepsCategoryStringDetachedFromMasterData(t *testing.T) {
	svc, regionRepo, _ := newRegionServiceForTest()
	ctx := context.Background()

	// Category names are copied by value at creation time: nothing checks the
	// master catalog, so a name absent from (or later removed from) it is fine.
	created, err := svc.CreateRegionConfig(ctx, validConfigRequest(model.RegionNOLA, "RETIRED-CATEGORY", ""))
	if err != nil {
		t.Fatalf("CreateRegionConfig failed: %v", err)
	}

	stored, err := regionRepo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if stored.Category != "RETIRED-CATEGORY" {
		t.Errorf("expected detached category string to survive, got %q", stored.Category)
	}
}

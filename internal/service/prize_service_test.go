package service

import (
	"context"
	"testing"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newPrizeServiceForTest() (PrizeService, *fakePrizeRepo, *fakeRegionRepo, *fakeAuditRepo) {
	prizeRepo := newFakePrizeRepo()
	regionRepo := newFakeRegionRepo()
	auditRepo := newFakeAuditRepo()
	svc := NewPrizeService(prizeRepo, regionRepo, auditRepo, fakeTxManager{})
	return svc, prizeRepo, regionRepo, auditRepo
}

func quarter() (time.Time, time.Time) {
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 3, 0)
}

func TestCreateMonthlyPrizeRejectsDuplicateRankPerPeriod(t *testing.T) {
	svc, _, regionRepo, _ := newPrizeServiceForTest()
	ctx := context.Background()

	cfg := regionRepo.add(model.RegionConfig{Region: model.RegionNOLA, Category: "ENTERPRISE"})
	req := CreateMonthlyPrizeRequest{
		RegionConfigID: cfg.ID.String(), Month: 3, Year: 2026, Rank: 1,
		PrizeName: "Weekend getaway", GoalThreshold: decimal.RequireFromString("5.5"),
	}

	prize, err := svc.CreateMonthlyPrize(ctx, req)
	if err != nil {
		t.Fatalf("CreateMonthlyPrize failed: %v", err)
	}
	if !prize.GoalThreshold.Equal(decimal.RequireFromString("5.5")) {
		t.Errorf("expected threshold 5.5, got %s", prize.GoalThreshold)
	}

	if _, err := svc.CreateMonthlyPrize(ctx, req); err == nil || err.Error() != "a prize already exists for this region, period and rank" {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}

	req.Rank = 2
	if _, err := svc.CreateMonthlyPrize(ctx, req); err != nil {
		t.Errorf("second rank for the same period must be allowed: %v", err)
	}
	req.Rank = 1
	req.Month = 4
	if _, err := svc.CreateMonthlyPrize(ctx, req); err != nil {
		t.Errorf("same rank in the next month must be allowed: %v", err)
	}
}

func TestCreateMonthlyPrizeValidatesPeriod(t *testing.T) {
	svc, _, regionRepo, _ := newPrizeServiceForTest()
	ctx := context.Background()
	cfg := regionRepo.add(model.RegionConfig{Region: model.RegionNOLA, Category: "ENTERPRISE"})

	cases := []struct {
		name string
		req  CreateMonthlyPrizeRequest
		want string
	}{
		{"malformed config id", CreateMonthlyPrizeRequest{RegionConfigID: "not-a-uuid", Month: 1, Year: 2026, Rank: 1, PrizeName: "x"}, "invalid region_config_id"},
		{"unknown config", CreateMonthlyPrizeRequest{RegionConfigID: uuid.NewString(), Month: 1, Year: 2026, Rank: 1, PrizeName: "x"}, "region_config_id does not reference an existing region configuration"},
		{"month too large", CreateMonthlyPrizeRequest{RegionConfigID: cfg.ID.String(), Month: 13, Year: 2026, Rank: 1, PrizeName: "x"}, "month must be between 1 and 12"},
		{"ancient year", CreateMonthlyPrizeRequest{RegionConfigID: cfg.ID.String(), Month: 1, Year: 1999, Rank: 1, PrizeName: "x"}, "invalid year"},
		{"zero rank", CreateMonthlyPrizeRequest{RegionConfigID: cfg.ID.String(), Month: 1, Year: 2026, Rank: 0, PrizeName: "x"}, "rank must be at least 1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateMonthlyPrize(ctx, tc.req); err == nil || err.Error() != tc.want {
				t.Fatalf("want %q, got %v", tc.want, err)
			}
		})
	}
}

func TestUpdateMonthlyPrizeEditsFields(t *testing.T) {
	svc, _, regionRepo, _ := newPrizeServiceForTest()
	ctx := context.Background()
	cfg := regionRepo.add(model.RegionConfig{Region: model.RegionNOLA, Category: "ENTERPRISE"})

	prize, err := svc.CreateMonthlyPrize(ctx, CreateMonthlyPrizeRequest{
		RegionConfigID: cfg.ID.String(), Month: 3, Year: 2026, Rank: 1, PrizeName: "Weekend getaway",
	})
	if err != nil {
		t.Fatalf("CreateMonthlyPrize failed: %v", err)
	}

	empty := ""
	if _, err := svc.UpdateMonthlyPrize(ctx, prize.ID.String(), UpdateMonthlyPrizeRequest{PrizeName: &empty}); err == nil || err.Error() != "prize_name cannot be empty" {
		t.Fatalf("expected empty name rejection, got %v", err)
	}

	name := "Spa weekend"
	threshold := decimal.NewFromInt(8)
	updated, err := svc.UpdateMonthlyPrize(ctx, prize.ID.String(), UpdateMonthlyPrizeRequest{PrizeName: &name, GoalThreshold: &threshold})
	if err != nil {
		t.Fatalf("UpdateMonthlyPrize failed: %v", err)
	}
	if updated.PrizeName != "Spa weekend" || !updated.GoalThreshold.Equal(decimal.NewFromInt(8)) {
		t.Errorf("update not applied: %s %s", updated.PrizeName, updated.GoalThreshold)
	}
}

func TestCreateCriteriaValidatesShape(t *testing.T) {
	svc, _, _, _ := newPrizeServiceForTest()
	ctx := context.Background()
	start, end := quarter()

	_, err := svc.CreateCriteria(ctx, CreateGrandPrizeCriteriaRequest{
		Name: "Q3 race", CriteriaType: model.CriteriaTypeWeighted,
		PointsWeight: 60, DealsWeight: 30, StartDate: start, EndDate: end,
	})
	if err == nil || err.Error() != "weighted criteria require points_weight and deals_weight summing to 100" {
		t.Fatalf("expected weight validation, got %v", err)
	}

	_, err = svc.CreateCriteria(ctx, CreateGrandPrizeCriteriaRequest{
		Name: "Q3 race", CriteriaType: model.CriteriaTypePoints, StartDate: end, EndDate: start,
	})
	if err == nil || err.Error() != "end_date must be after start_date" {
		t.Fatalf("expected date validation, got %v", err)
	}

	_, err = svc.CreateCriteria(ctx, CreateGrandPrizeCriteriaRequest{
		Name: "Q3 race", CriteriaType: model.CriteriaTypePoints, StartDate: start, EndDate: end, Region: "EUROPE",
	})
	if err == nil || err.Error() != "invalid region: must be NOLA, SOLA, MEXICO or BRAZIL" {
		t.Fatalf("expected region validation, got %v", err)
	}

	criteria, err := svc.CreateCriteria(ctx, CreateGrandPrizeCriteriaRequest{
		Name: "Q3 race", CriteriaType: model.CriteriaTypeWeighted,
		PointsWeight: 70, DealsWeight: 30, StartDate: start, EndDate: end,
	})
	if err != nil {
		t.Fatalf("CreateCriteria failed: %v", err)
	}
	if criteria.TopN != 3 {
		t.Errorf("expected default top_n 3, got %d", criteria.TopN)
	}
}

func TestUpdateCriteriaRevalidatesShape(t *testing.T) {
	svc, prizeRepo, _, _ := newPrizeServiceForTest()
	ctx := context.Background()
	start, end := quarter()

	criteria := prizeRepo.addCriteria(model.GrandPrizeCriteria{
		Name: "Q3 race", CriteriaType: model.CriteriaTypeWeighted,
		PointsWeight: 50, DealsWeight: 50, StartDate: start, EndDate: end, TopN: 3,
	})

	eighty := 80
	if _, err := svc.UpdateCriteria(ctx, criteria.ID.String(), UpdateGrandPrizeCriteriaRequest{PointsWeight: &eighty}); err == nil ||
		err.Error() != "weighted criteria require points_weight and deals_weight summing to 100" {
		t.Fatalf("expected weight revalidation, got %v", err)
	}

	twenty := 20
	updated, err := svc.UpdateCriteria(ctx, criteria.ID.String(), UpdateGrandPrizeCriteriaRequest{PointsWeight: &eighty, DealsWeight: &twenty})
	if err != nil {
		t.Fatalf("UpdateCriteria failed: %v", err)
	}
	if updated.PointsWeight != 80 || updated.DealsWeight != 20 {
		t.Errorf("weights not applied: %d/%d", updated.PointsWeight, updated.DealsWeight)
	}
}

func TestEvaluateGrandPrizeRanksWeightedStandings(t *testing.T) {
	svc, prizeRepo, _, auditRepo := newPrizeServiceForTest()
	ctx := context.Background()
	admin := AuthContext{UserID: uuid.New(), Role: model.RoleSuperAdmin}
	start, end := quarter()

	criteria := prizeRepo.addCriteria(model.GrandPrizeCriteria{
		Name: "Q3 race", CriteriaType: model.CriteriaTypeWeighted,
		PointsWeight: 70, DealsWeight: 30, StartDate: start, EndDate: end,
		Region: model.RegionBrazil, TopN: 3,
	})

	alice, bob, carol, dave := uuid.NewString(), uuid.NewString(), uuid.NewString(), uuid.NewString()
	prizeRepo.standings = []model.UserStanding{
		// alice tops both terms, bob rides deal count, carol rides points
		{UserID: dave, TotalPoints: 100, TotalDeals: 1},
		{UserID: alice, TotalPoints: 1000, TotalDeals: 10},
		{UserID: carol, TotalPoints: 800, TotalDeals: 2},
		{UserID: bob, TotalPoints: 500, TotalDeals: 10},
	}

	winners, err := svc.EvaluateGrandPrize(ctx, admin, criteria.ID.String())
	if err != nil {
		t.Fatalf("EvaluateGrandPrize failed: %v", err)
	}
	if len(winners) != 3 {
		t.Fatalf("expected 3 winners, got %d", len(winners))
	}
	order := []string{alice, bob, carol}
	for i, w := range winners {
		if w.UserID.String() != order[i] {
			t.Errorf("rank %d: expected %s, got %s", i+1, order[i], w.UserID)
		}
		if w.Rank != i+1 {
			t.Errorf("expected rank %d, got %d", i+1, w.Rank)
		}
	}
	if !winners[0].TotalPoints.Equal(decimal.NewFromInt(1000)) || winners[0].TotalDeals != 10 {
		t.Errorf("winner totals not snapshotted: %s points, %d deals", winners[0].TotalPoints, winners[0].TotalDeals)
	}

	if prizeRepo.lastTotalsRegion != model.RegionBrazil {
		t.Errorf("expected standings scoped to %s, got %q", model.RegionBrazil, prizeRepo.lastTotalsRegion)
	}
	if !prizeRepo.lastTotalsStart.Equal(start) || !prizeRepo.lastTotalsEnd.Equal(end) {
		t.Errorf("standings window does not match the criteria dates")
	}

	stamped, _ := prizeRepo.FindCriteriaByID(ctx, criteria.ID)
	if stamped.EvaluatedAt == nil {
		t.Errorf("expected evaluation timestamp")
	}
	if actions := auditRepo.actions(); len(actions) != 1 || actions[0] != model.ActionEvaluatePrize {
		t.Errorf("expected evaluation audit entry, got %v", actions)
	}
}

func TestEvaluateGrandPrizeScoresByCriteriaType(t *testing.T) {
	start, end := quarter()
	leaderByType := []struct {
		criteriaType string
		wantFirst    int // index into the standings below
	}{
		{model.CriteriaTypePoints, 0},
		{model.CriteriaTypeDeals, 1},
		{model.CriteriaTypeTopGoals, 2},
	}

	for _, tc := range leaderByType {
		t.Run(tc.criteriaType, func(t *testing.T) {
			svc, prizeRepo, _, _ := newPrizeServiceForTest()
			admin := AuthContext{UserID: uuid.New(), Role: model.RoleSuperAdmin}

			criteria := prizeRepo.addCriteria(model.GrandPrizeCriteria{
				Name: "Q3 race", CriteriaType: tc.criteriaType,
				StartDate: start, EndDate: end, TopN: 3,
			})
			ids := []string{uuid.NewString(), uuid.NewString(), uuid.NewString()}
			prizeRepo.standings = []model.UserStanding{
				{UserID: ids[0], TotalPoints: 900, TotalGoals: 1, TotalDeals: 2},
				{UserID: ids[1], TotalPoints: 200, TotalGoals: 2, TotalDeals: 9},
				{UserID: ids[2], TotalPoints: 300, TotalGoals: 7, TotalDeals: 3},
			}

			winners, err := svc.EvaluateGrandPrize(context.Background(), admin, criteria.ID.String())
			if err != nil {
				t.Fatalf("EvaluateGrandPrize failed: %v", err)
			}
			if len(winners) == 0 || winners[0].UserID.String() != ids[tc.wantFirst] {
				t.Fatalf("expected %s to lead under %s", ids[tc.wantFirst], tc.criteriaType)
			}
		})
	}
}

func TestEvaluateGrandPrizeBreaksTiesByUserID(t *testing.T) {
	svc, prizeRepo, _, _ := newPrizeServiceForTest()
	admin := AuthContext{UserID: uuid.New(), Role: model.RoleSuperAdmin}
	start, end := quarter()

	criteria := prizeRepo.addCriteria(model.GrandPrizeCriteria{
		Name: "Q3 race", CriteriaType: model.CriteriaTypePoints,
		StartDate: start, EndDate: end, TopN: 2,
	})
	low := "11111111-1111-1111-1111-111111111111"
	high := "22222222-2222-2222-2222-222222222222"
	prizeRepo.standings = []model.UserStanding{
		{UserID: high, TotalPoints: 500},
		{UserID: low, TotalPoints: 500},
	}

	winners, err := svc.EvaluateGrandPrize(context.Background(), admin, criteria.ID.String())
	if err != nil {
		t.Fatalf("EvaluateGrandPrize failed: %v", err)
	}
	if winners[0].UserID.String() != low || winners[1].UserID.String() != high {
		t.Errorf("tie must break by user id: got %s then %s", winners[0].UserID, winners[1].UserID)
	}
}

func TestEvaluateGrandPrizeReplacesPreviousSnapshot(t *testing.T) {
	svc, prizeRepo, _, auditRepo := newPrizeServiceForTest()
	ctx := context.Background()
	admin := AuthContext{UserID: uuid.New(), Role: model.RoleSuperAdmin}
	start, end := quarter()

	criteria := prizeRepo.addCriteria(model.GrandPrizeCriteria{
		Name: "Q3 race", CriteriaType: model.CriteriaTypePoints,
		StartDate: start, EndDate: end, TopN: 3,
	})
	first, second := uuid.NewString(), uuid.NewString()
	prizeRepo.standings = []model.UserStanding{
		{UserID: first, TotalPoints: 900},
		{UserID: second, TotalPoints: 100},
	}

	if _, err := svc.EvaluateGrandPrize(ctx, admin, criteria.ID.String()); err != nil {
		t.Fatalf("first evaluation failed: %v", err)
	}

	prizeRepo.standings = []model.UserStanding{
		{UserID: second, TotalPoints: 1200},
	}
	winners, err := svc.EvaluateGrandPrize(ctx, admin, criteria.ID.String())
	if err != nil {
		t.Fatalf("second evaluation failed: %v", err)
	}
	if len(winners) != 1 || winners[0].UserID.String() != second {
		t.Fatalf("expected snapshot replaced with the new leader, got %v", winners)
	}
	if actions := auditRepo.actions(); len(actions) != 2 {
		t.Errorf("expected one audit entry per evaluation, got %d", len(actions))
	}
}

func TestListWinnersRequiresExistingCriteria(t *testing.T) {
	svc, _, _, _ := newPrizeServiceForTest()

	if _, err := svc.ListWinners(context.Background(), uuid.NewString()); err == nil || err.Error() != "grand prize criteria not found" {
		t.Fatalf("expected missing criteria error, got %v", err)
	}
}

package service

import (
	"context"
	"strings"
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newCSVImportServiceForTest() (CSVImportService, *fakeObjectStore, *fakeDealRepo, *fakeUserRepo, *fakeAuditRepo) {
	store := newFakeObjectStore()
	dealRepo := newFakeDealRepo()
	userRepo := newFakeUserRepo()
	auditRepo := newFakeAuditRepo()
	svc := NewCSVImportService(store, dealRepo, userRepo, auditRepo)
	return svc, store, dealRepo, userRepo, auditRepo
}

func TestUploadURLBuildsNamespacedKey(t *testing.T) {
	svc, _, _, _, _ := newCSVImportServiceForTest()
	ctx := context.Background()

	if _, err := svc.UploadURL(ctx, ""); err == nil || err.Error() != "filename is required" {
		t.Fatalf("expected filename requirement, got %v", err)
	}

	res, err := svc.UploadURL(ctx, "nested/dir/deals.csv")
	if err != nil {
		t.Fatalf("UploadURL failed: %v", err)
	}
	if !strings.HasPrefix(res.ObjectKey, "imports/") {
		t.Errorf("expected imports/ namespace, got %q", res.ObjectKey)
	}
	if !strings.HasSuffix(res.ObjectKey, "-deals.csv") || strings.Contains(res.ObjectKey, "nested") {
		t.Errorf("expected directory components stripped, got %q", res.ObjectKey)
	}
	if res.UploadURL != "https://uploads.example.com/"+res.ObjectKey {
		t.Errorf("unexpected upload URL %q", res.UploadURL)
	}
}

func TestImportDealsValidatesHeader(t *testing.T) {
	svc, store, _, _, _ := newCSVImportServiceForTest()
	ctx := context.Background()
	actor := AuthContext{UserID: uuid.New(), Role: model.RoleSuperAdmin}

	store.objects["imports/empty.csv"] = []byte("")
	if _, err := svc.ImportDeals(ctx, actor, "imports/empty.csv"); err == nil || err.Error() != "import file is empty or not valid CSV" {
		t.Fatalf("expected empty file rejection, got %v", err)
	}

	store.objects["imports/wrong.csv"] = []byte("name,email,region,category,subcategory\n")
	_, err := svc.ImportDeals(ctx, actor, "imports/wrong.csv")
	if err == nil || err.Error() != "unexpected CSV header: want customer_name,deal_value,deal_type,user_email,region,description" {
		t.Fatalf("expected header rejection, got %v", err)
	}

	if _, err := svc.ImportDeals(ctx, actor, "imports/missing.csv"); err == nil || !strings.Contains(err.Error(), "failed to download import file") {
		t.Fatalf("expected download failure, got %v", err)
	}
}

func TestImportDealsKeepsGoodRowsAndSkipsBadOnes(t *testing.T) {
	svc, store, dealRepo, userRepo, auditRepo := newCSVImportServiceForTest()
	ctx := context.Background()
	actor := AuthContext{UserID: uuid.New(), Role: model.RoleSuperAdmin}

	dana := userRepo.add(model.User{
		Name: "Dana", Email: "dana@example.com", Region: model.RegionNOLA, Role: model.RoleUser,
		Active: true, Approved: true,
	})

	store.objects["imports/deals.csv"] = []byte(
		"customer_name,deal_value,deal_type,user_email,region,description\n" +
			"Acme Corp,2500,new_customer,dana@example.com,NOLA,Initial rollout\n" +
			"Globex,abc,renewal,dana@example.com,NOLA,\n" +
			"Initech,1000,new_customer,ghost@example.com,NOLA,\n" +
			"Umbrella,1000,upsell,dana@example.com,NOLA,\n")

	result, err := svc.ImportDeals(ctx, actor, "imports/deals.csv")
	if err != nil {
		t.Fatalf("ImportDeals failed: %v", err)
	}
	if result.Imported != 1 || result.Failed != 3 {
		t.Fatalf("expected 1 imported / 3 failed, got %d / %d", result.Imported, result.Failed)
	}
	wantErrors := []string{
		`row 3: invalid deal_value "abc"`,
		`row 4: no user "ghost@example.com" registered in NOLA`,
		`row 5: invalid deal_type "upsell"`,
	}
	if len(result.Errors) != len(wantErrors) {
		t.Fatalf("expected %d row errors, got %v", len(wantErrors), result.Errors)
	}
	for i, want := range wantErrors {
		if result.Errors[i] != want {
			t.Errorf("error %d: want %q, got %q", i, want, result.Errors[i])
		}
	}

	if len(dealRepo.deals) != 1 {
		t.Fatalf("expected exactly one deal created, got %d", len(dealRepo.deals))
	}
	for _, deal := range dealRepo.deals {
		if deal.UserID != dana.ID || deal.Region != model.RegionNOLA {
			t.Errorf("deal not attributed to the registered user")
		}
		if deal.Status != model.DealStatusPending {
			t.Errorf("imported deals must start pending, got %s", deal.Status)
		}
		if !deal.DealValue.Equal(decimal.NewFromInt(2500)) {
			t.Errorf("expected value 2500, got %s", deal.DealValue)
		}
		if !deal.GoalsEarned.IsZero() || !deal.PointsEarned.IsZero() {
			t.Errorf("imported deals must not carry conversions yet")
		}
	}

	if actions := auditRepo.actions(); len(actions) != 1 || actions[0] != model.ActionImportDeals {
		t.Errorf("expected import audit entry, got %v", actions)
	}
}

func TestImportDealsAcceptsCaseInsensitiveHeader(t *testing.T) {
	svc, store, _, userRepo, _ := newCSVImportServiceForTest()
	ctx := context.Background()
	actor := AuthContext{UserID: uuid.New(), Role: model.RoleSuperAdmin}

	userRepo.add(model.User{
		Name: "Dana", Email: "dana@example.com", Region: model.RegionNOLA, Role: model.RoleUser,
		Active: true, Approved: true,
	})

	store.objects["imports/deals.csv"] = []byte(
		"Customer_Name, DEAL_VALUE ,Deal_Type,User_Email,REGION,Description\n" +
			"Acme Corp,2500,new_customer,dana@example.com,NOLA,\n")

	result, err := svc.ImportDeals(ctx, actor, "imports/deals.csv")
	if err != nil {
		t.Fatalf("ImportDeals failed: %v", err)
	}
	if result.Imported != 1 || result.Failed != 0 {
		t.Errorf("expected header matched case-insensitively, got %+v", result)
	}
}

func TestImportUsersCreatesApprovedAccounts(t *testing.T) {
	svc, store, _, userRepo, auditRepo := newCSVImportServiceForTest()
	ctx := context.Background()
	actor := AuthContext{UserID: uuid.New(), Role: model.RoleSuperAdmin}

	userRepo.add(model.User{
		Name: "Dana", Email: "dana@example.com", Region: model.RegionNOLA, Role: model.RoleUser,
		Active: true, Approved: true,
	})

	store.objects["imports/users.csv"] = []byte(
		"name,email,region,category,subcategory\n" +
			"Dana Two,DANA2@EXAMPLE.COM,NOLA,Canada,Canada - East\n" +
			"Dana,dana@example.com,NOLA,,\n" +
			"Ghost,,NOLA,,\n")

	result, err := svc.ImportUsers(ctx, actor, "imports/users.csv")
	if err != nil {
		t.Fatalf("ImportUsers failed: %v", err)
	}
	if result.Imported != 1 || result.Failed != 2 {
		t.Fatalf("expected 1 imported / 2 failed, got %d / %d", result.Imported, result.Failed)
	}
	wantErrors := []string{
		`row 3: "dana@example.com" is already registered in NOLA`,
		"row 4: email is required",
	}
	for i, want := range wantErrors {
		if result.Errors[i] != want {
			t.Errorf("error %d: want %q, got %q", i, want, result.Errors[i])
		}
	}

	created, err := userRepo.GetByEmailAndRegion(ctx, "dana2@example.com", model.RegionNOLA)
	if err != nil {
		t.Fatalf("imported account not stored under lowercased email: %v", err)
	}
	if !created.Approved || !created.Active || created.Role != model.RoleUser {
		t.Errorf("bulk-imported accounts must be approved active participants")
	}
	if created.Category != "Canada" || created.Subcategory != "Canada - East" {
		t.Errorf("master data not carried over: %q / %q", created.Category, created.Subcategory)
	}

	if actions := auditRepo.actions(); len(actions) != 1 || actions[0] != model.ActionImportUsers {
		t.Errorf("expected import audit entry, got %v", actions)
	}
}

func TestImportUsersValidatesHeader(t *testing.T) {
	svc, store, _, _, _ := newCSVImportServiceForTest()
	actor := AuthContext{UserID: uuid.New(), Role: model.RoleSuperAdmin}

	store.objects["imports/wrong.csv"] = []byte("customer_name,deal_value,deal_type,user_email,region,description\n")
	_, err := svc.ImportUsers(context.Background(), actor, "imports/wrong.csv")
	if err == nil || err.Error() != "unexpected CSV header: want name,email,region,category,subcategory" {
		t.Fatalf("expected header rejection, got %v", err)
	}
}

package service

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const exportSheet = "Sheet1"

type ReportService interface {
	Summary(ctx context.Context, actor AuthContext, startDate, endDate *time.Time) (model.ProgramSummary, error)
	ExportDeals(ctx context.Context, actor AuthContext, region, status string) (*excelize.File, string, error)
	ExportUsers(ctx context.Context, actor AuthContext, region string) (*excelize.File, string, error)
	ExportRedemptions(ctx context.Context, actor AuthContext, region, status string) (*excelize.File, string, error)
}

type reportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) ReportService {
	return &reportService{db: db}
}

// Summary builds the admin dashboard: per-region deal/points activity plus
// program-wide totals. A regional-admin only receives their own region's row.
func (s *reportService) Summary(ctx context.Context, actor AuthContext, startDate, endDate *time.Time) (model.ProgramSummary, error) {
	var response model.ProgramSummary
	response.GeneratedAt = time.Now()
	response.TimeRangeStartDate = startDate
	response.TimeRangeEndDate = endDate

	regions := []string{model.RegionNOLA, model.RegionSOLA, model.RegionMexico, model.RegionBrazil}
	if actor.Role == model.RoleRegionalAdmin {
		regions = []string{actor.Region}
	}

	summaries := make(map[string]*model.RegionSummary, len(regions))
	for _, region := range regions {
		summaries[region] = &model.RegionSummary{Region: region}
	}

	window := func(q *gorm.DB, column string) *gorm.DB {
		if startDate != nil {
			q = q.Where(column+" >= ?", *startDate)
		}
		if endDate != nil {
			q = q.Where(column+" <= ?", *endDate)
		}
		return q
	}

	// Deal counts and value per region and status
	var dealRows []struct {
		Region string
		Status string
		Cnt    int
		Value  float64
		Goals  float64
	}
	window(s.db.WithContext(ctx).Table("deals"), "deals.created_at").
		Select("region, status, COUNT(*) as cnt, COALESCE(SUM(deal_value), 0) as value, COALESCE(SUM(goals_earned), 0) as goals").
		Group("region, status").
		Scan(&dealRows)
	for _, row := range dealRows {
		summary, ok := summaries[row.Region]
		if !ok {
			continue
		}
		summary.TotalDeals += row.Cnt
		summary.TotalDealValue += row.Value
		switch row.Status {
		case model.DealStatusPending:
			summary.PendingDeals = row.Cnt
		case model.DealStatusApproved:
			summary.ApprovedDeals = row.Cnt
			summary.TotalGoals = row.Goals
		case model.DealStatusRejected:
			summary.RejectedDeals = row.Cnt
		}
	}

	// Points issued vs redeemed per region, via the redeemer's user row
	var pointsRows []struct {
		Region   string
		Issued   float64
		Redeemed float64
	}
	window(s.db.WithContext(ctx).Table("points_history"), "points_history.created_at").
		Select(`users.region as region,
			COALESCE(SUM(CASE WHEN points_history.points > 0 THEN points_history.points ELSE 0 END), 0) as issued,
			COALESCE(SUM(CASE WHEN points_history.points < 0 THEN -points_history.points ELSE 0 END), 0) as redeemed`).
		Joins("JOIN users ON users.id = points_history.user_id").
		Group("users.region").
		Scan(&pointsRows)
	for _, row := range pointsRows {
		if summary, ok := summaries[row.Region]; ok {
			summary.PointsIssued = row.Issued
			summary.PointsRedeemed = row.Redeemed
		}
		response.TotalPointsIssued += row.Issued
		response.TotalPointsSpent += row.Redeemed
	}

	// Open workload per region
	var redemptionRows []struct {
		Region string
		Cnt    int
	}
	s.db.WithContext(ctx).Table("user_rewards").
		Select("region, COUNT(*) as cnt").
		Where("status = ?", model.RedemptionPending).
		Group("region").
		Scan(&redemptionRows)
	for _, row := range redemptionRows {
		if summary, ok := summaries[row.Region]; ok {
			summary.PendingRedemptions = row.Cnt
		}
	}

	var ticketRows []struct {
		Region string
		Cnt    int
	}
	s.db.WithContext(ctx).Table("support_tickets").
		Select("region, COUNT(*) as cnt").
		Where("status IN ?", []string{model.TicketOpen, model.TicketInProgress}).
		Group("region").
		Scan(&ticketRows)
	for _, row := range ticketRows {
		if summary, ok := summaries[row.Region]; ok {
			summary.OpenTickets = row.Cnt
		}
	}

	var targetRows []struct {
		Region string
		Target float64
	}
	s.db.WithContext(ctx).Table("region_configs").
		Select("region, COALESCE(SUM(monthly_goal_target), 0) as target").
		Where("expires_at IS NULL OR expires_at > ?", time.Now()).
		Group("region").
		Scan(&targetRows)
	for _, row := range targetRows {
		if summary, ok := summaries[row.Region]; ok {
			summary.MonthlyGoalTarget = row.Target
		}
	}

	// Program-wide totals
	var totalUsers, pendingUsers int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Count(&totalUsers).Error; err != nil {
		return response, fmt.Errorf("failed to count users: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("approved = ? AND role = ?", false, model.RoleUser).
		Count(&pendingUsers).Error; err != nil {
		return response, fmt.Errorf("failed to count pending users: %w", err)
	}
	response.TotalUsers = int(totalUsers)
	response.PendingUsers = int(pendingUsers)

	for _, region := range regions {
		summary := summaries[region]
		response.Regions = append(response.Regions, *summary)
		response.TotalDeals += summary.TotalDeals
		response.PendingDeals += summary.PendingDeals
	}

	return response, nil
}

// exportFilename follows the download naming convention <report-name>-<date>.xlsx.
func exportFilename(name string) string {
	return fmt.Sprintf("%s-%s.xlsx", name, time.Now().Format("2006-01-02"))
}

func (s *reportService) ExportDeals(ctx context.Context, actor AuthContext, region, status string) (*excelize.File, string, error) {
	var deals []model.Deal
	query := s.db.WithContext(ctx).Preload("User").Order("created_at DESC")
	if scoped := actor.ScopedRegion(region); scoped != "" {
		query = query.Where("region = ?", scoped)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&deals).Error; err != nil {
		return nil, "", fmt.Errorf("failed to fetch deals for export: %w", err)
	}

	f := excelize.NewFile()
	headers := []interface{}{"Customer", "Salesperson", "Region", "Type", "Value", "Status", "Goals Earned", "Points Earned", "Submitted", "Reviewed"}
	if err := f.SetSheetRow(exportSheet, "A1", &headers); err != nil {
		return nil, "", fmt.Errorf("failed to write export header: %w", err)
	}

	for i, deal := range deals {
		userName := ""
		if deal.User != nil {
			userName = deal.User.Name
		}
		reviewedAt := ""
		if deal.ApprovedAt != nil {
			reviewedAt = deal.ApprovedAt.Format(time.RFC3339)
		}
		row := []interface{}{
			deal.CustomerName,
			userName,
			deal.Region,
			deal.DealType,
			deal.DealValue.InexactFloat64(),
			deal.Status,
			deal.GoalsEarned.InexactFloat64(),
			deal.PointsEarned.InexactFloat64(),
			deal.CreatedAt.Format(time.RFC3339),
			reviewedAt,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, "", err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, "", fmt.Errorf("failed to write export row: %w", err)
		}
	}

	return f, exportFilename("deals-report"), nil
}

func (s *reportService) ExportUsers(ctx context.Context, actor AuthContext, region string) (*excelize.File, string, error) {
	var users []model.User
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if scoped := actor.ScopedRegion(region); scoped != "" {
		query = query.Where("region = ?", scoped)
	}
	if err := query.Find(&users).Error; err != nil {
		return nil, "", fmt.Errorf("failed to fetch users for export: %w", err)
	}

	f := excelize.NewFile()
	headers := []interface{}{"Name", "Email", "Role", "Region", "Category", "Subcategory", "Approved", "Active", "Registered"}
	if err := f.SetSheetRow(exportSheet, "A1", &headers); err != nil {
		return nil, "", fmt.Errorf("failed to write export header: %w", err)
	}

	for i, user := range users {
		row := []interface{}{
			user.Name,
			user.Email,
			user.Role,
			user.Region,
			user.Category,
			user.Subcategory,
			user.Approved,
			user.Active,
			user.CreatedAt.Format(time.RFC3339),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, "", err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, "", fmt.Errorf("failed to write export row: %w", err)
		}
	}

	return f, exportFilename("users-report"), nil
}

func (s *reportService) ExportRedemptions(ctx context.Context, actor AuthContext, region, status string) (*excelize.File, string, error) {
	var redemptions []model.UserReward
	query := s.db.WithContext(ctx).Preload("User").Preload("Reward").Order("created_at DESC")
	if scoped := actor.ScopedRegion(region); scoped != "" {
		query = query.Where("region = ?", scoped)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&redemptions).Error; err != nil {
		return nil, "", fmt.Errorf("failed to fetch redemptions for export: %w", err)
	}

	f := excelize.NewFile()
	headers := []interface{}{"User", "Reward", "Region", "Points Spent", "Status", "Shipment", "Requested", "Reviewed"}
	if err := f.SetSheetRow(exportSheet, "A1", &headers); err != nil {
		return nil, "", fmt.Errorf("failed to write export header: %w", err)
	}

	for i, redemption := range redemptions {
		userName := ""
		if redemption.User != nil {
			userName = redemption.User.Name
		}
		rewardName := ""
		if redemption.Reward != nil {
			rewardName = redemption.Reward.Name
		}
		reviewedAt := ""
		if redemption.ApprovedAt != nil {
			reviewedAt = redemption.ApprovedAt.Format(time.RFC3339)
		}
		row := []interface{}{
			userName,
			rewardName,
			redemption.Region,
			redemption.PointsSpent.InexactFloat64(),
			redemption.Status,
			redemption.ShipmentStatus,
			redemption.CreatedAt.Format(time.RFC3339),
			reviewedAt,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, "", err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, "", fmt.Errorf("failed to write export row: %w", err)
		}
	}

	return f, exportFilename("redemptions-report"), nil
}

package model

import (
	"time"
)

// RegionSummary aggregates deal and points activity for one region.
type RegionSummary struct {
	Region             string  `json:"region"`
	TotalDeals         int     `json:"total_deals"`
	PendingDeals       int     `json:"pending_deals"`
	ApprovedDeals      int     `json:"approved_deals"`
	RejectedDeals      int     `json:"rejected_deals"`
	TotalDealValue     float64 `json:"total_deal_value"`
	TotalGoals         float64 `json:"total_goals"`
	MonthlyGoalTarget  float64 `json:"monthly_goal_target"`
	PointsIssued       float64 `json:"points_issued"`
	PointsRedeemed     float64 `json:"points_redeemed"`
	PendingRedemptions int     `json:"pending_redemptions"`
	OpenTickets        int     `json:"open_tickets"`
}

// ProgramSummary is the admin dashboard payload.
type ProgramSummary struct {
	Regions            []RegionSummary `json:"regions"`
	TotalUsers         int             `json:"total_users"`
	PendingUsers       int             `json:"pending_users"`
	TotalDeals         int             `json:"total_deals"`
	PendingDeals       int             `json:"pending_deals"`
	TotalPointsIssued  float64         `json:"total_points_issued"`
	TotalPointsSpent   float64         `json:"total_points_spent"`
	GeneratedAt        time.Time       `json:"generated_at"`
	TimeRangeStartDate *time.Time      `json:"time_range_start_date,omitempty"`
	TimeRangeEndDate   *time.Time      `json:"time_range_end_date,omitempty"`
}

// UserStanding is one row of a points/goals leaderboard query.
type UserStanding struct {
	UserID      string  `json:"user_id"`
	UserName    string  `json:"user_name"`
	Email       string  `json:"email"`
	Region      string  `json:"region"`
	TotalPoints float64 `json:"total_points"`
	TotalGoals  float64 `json:"total_goals"`
	TotalDeals  int     `json:"total_deals"`
}

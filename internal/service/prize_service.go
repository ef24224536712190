package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const defaultTopN = 3

// --- DTOs ---

type CreateMonthlyPrizeRequest struct {
	RegionConfigID   string          `json:"region_config_id" binding:"required"`
	Month            int             `json:"month" binding:"required,min=1,max=12"`
	Year             int             `json:"year" binding:"required"`
	Rank             int             `json:"rank" binding:"required,min=1"`
	PrizeName        string          `json:"prize_name" binding:"required"`
	PrizeDescription string          `json:"prize_description"`
	GoalThreshold    decimal.Decimal `json:"goal_threshold"`
}

type UpdateMonthlyPrizeRequest struct {
	PrizeName        *string          `json:"prize_name"`
	PrizeDescription *string          `json:"prize_description"`
	GoalThreshold    *decimal.Decimal `json:"goal_threshold"`
}

type CreateGrandPrizeCriteriaRequest struct {
	Name             string    `json:"name" binding:"required"`
	CriteriaType     string    `json:"criteria_type" binding:"required,oneof=weighted points deals top_goals"`
	PointsWeight     int       `json:"points_weight"`
	DealsWeight      int       `json:"deals_weight"`
	StartDate        time.Time `json:"start_date" binding:"required"`
	EndDate          time.Time `json:"end_date" binding:"required"`
	Region           string    `json:"region"` // empty = all regions
	TopN             int       `json:"top_n"`
	PrizeDescription string    `json:"prize_description"`
}

type UpdateGrandPrizeCriteriaRequest struct {
	Name             *string    `json:"name"`
	CriteriaType     *string    `json:"criteria_type"`
	PointsWeight     *int       `json:"points_weight"`
	DealsWeight      *int       `json:"deals_weight"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	Region           *string    `json:"region"`
	TopN             *int       `json:"top_n"`
	PrizeDescription *string    `json:"prize_description"`
}

// --- Interface ---

type PrizeService interface {
	CreateMonthlyPrize(ctx context.Context, req CreateMonthlyPrizeRequest) (*model.MonthlyRegionPrize, error)
	UpdateMonthlyPrize(ctx context.Context, id string, req UpdateMonthlyPrizeRequest) (*model.MonthlyRegionPrize, error)
	DeleteMonthlyPrize(ctx context.Context, id string) error
	ListMonthlyPrizes(ctx context.Context, actor AuthContext, month, year int, region string, page, limit int) ([]model.MonthlyRegionPrize, int64, error)

	CreateCriteria(ctx context.Context, req CreateGrandPrizeCriteriaRequest) (*model.GrandPrizeCriteria, error)
	UpdateCriteria(ctx context.Context, id string, req UpdateGrandPrizeCriteriaRequest) (*model.GrandPrizeCriteria, error)
	DeleteCriteria(ctx context.Context, id string) error
	ListCriteria(ctx context.Context, page, limit int) ([]model.GrandPrizeCriteria, int64, error)

	EvaluateGrandPrize(ctx context.Context, actor AuthContext, id string) ([]model.GrandPrizeWinner, error)
	ListWinners(ctx context.Context, id string) ([]model.GrandPrizeWinner, error)
}

type prizeService struct {
	prizeRepo  repository.PrizeRepository
	regionRepo repository.RegionConfigRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
}

func NewPrizeService(
	prizeRepo repository.PrizeRepository,
	regionRepo repository.RegionConfigRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) PrizeService {
	return &prizeService{
		prizeRepo:  prizeRepo,
		regionRepo: regionRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
	}
}

// --- Monthly prizes ---

func (s *prizeService) CreateMonthlyPrize(ctx context.Context, req CreateMonthlyPrizeRequest) (*model.MonthlyRegionPrize, error) {
	configID, err := uuid.Parse(req.RegionConfigID)
	if err != nil {
		return nil, errors.New("invalid region_config_id")
	}
	if _, err := s.regionRepo.FindByID(ctx, configID); err != nil {
		return nil, errors.New("region_config_id does not reference an existing region configuration")
	}
	if req.Month < 1 || req.Month > 12 {
		return nil, errors.New("month must be between 1 and 12")
	}
	if req.Year < 2000 {
		return nil, errors.New("invalid year")
	}
	if req.Rank < 1 {
		return nil, errors.New("rank must be at least 1")
	}

	if _, err := s.prizeRepo.FindMonthlyPrizeByPeriod(ctx, configID, req.Month, req.Year, req.Rank); err == nil {
		return nil, errors.New("a prize already exists for this region, period and rank")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check for existing prize: %w", err)
	}

	prize := &model.MonthlyRegionPrize{
		RegionConfigID:   configID,
		Month:            req.Month,
		Year:             req.Year,
		Rank:             req.Rank,
		PrizeName:        req.PrizeName,
		PrizeDescription: req.PrizeDescription,
		GoalThreshold:    req.GoalThreshold,
	}
	if err := s.prizeRepo.CreateMonthlyPrize(ctx, prize); err != nil {
		return nil, fmt.Errorf("failed to create monthly prize: %w", err)
	}
	return prize, nil
}

func (s *prizeService) UpdateMonthlyPrize(ctx context.Context, id string, req UpdateMonthlyPrizeRequest) (*model.MonthlyRegionPrize, error) {
	prizeID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid prize ID")
	}
	prize, err := s.prizeRepo.FindMonthlyPrizeByID(ctx, prizeID)
	if err != nil {
		return nil, errors.New("monthly prize not found")
	}

	if req.PrizeName != nil {
		if *req.PrizeName == "" {
			return nil, errors.New("prize_name cannot be empty")
		}
		prize.PrizeName = *req.PrizeName
	}
	if req.PrizeDescription != nil {
		prize.PrizeDescription = *req.PrizeDescription
	}
	if req.GoalThreshold != nil {
		prize.GoalThreshold = *req.GoalThreshold
	}

	if err := s.prizeRepo.UpdateMonthlyPrize(ctx, prize); err != nil {
		return nil, fmt.Errorf("failed to update monthly prize: %w", err)
	}
	return prize, nil
}

func (s *prizeService) DeleteMonthlyPrize(ctx context.Context, id string) error {
	prizeID, err := uuid.Parse(id)
	if err != nil {
		return errors.New("invalid prize ID")
	}
	if _, err := s.prizeRepo.FindMonthlyPrizeByID(ctx, prizeID); err != nil {
		return errors.New("monthly prize not found")
	}
	return s.prizeRepo.DeleteMonthlyPrize(ctx, prizeID)
}

func (s *prizeService) ListMonthlyPrizes(ctx context.Context, actor AuthContext, month, year int, region string, page, limit int) ([]model.MonthlyRegionPrize, int64, error) {
	prizes, total, err := s.prizeRepo.ListMonthlyPrizes(ctx, month, year, actor.ScopedRegion(region), page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch monthly prizes: %w", err)
	}
	return prizes, total, nil
}

// --- Grand prize criteria ---

func validateCriteriaShape(criteriaType string, pointsWeight, dealsWeight int, start, end time.Time, region string) error {
	if criteriaType == model.CriteriaTypeWeighted {
		if pointsWeight < 0 || dealsWeight < 0 || pointsWeight+dealsWeight != 100 {
			return errors.New("weighted criteria require points_weight and deals_weight summing to 100")
		}
	}
	if !end.After(start) {
		return errors.New("end_date must be after start_date")
	}
	if region != "" && !validRegions[region] {
		return errors.New("invalid region: must be NOLA, SOLA, MEXICO or BRAZIL")
	}
	return nil
}

func (s *prizeService) CreateCriteria(ctx context.Context, req CreateGrandPrizeCriteriaRequest) (*model.GrandPrizeCriteria, error) {
	if err := validateCriteriaShape(req.CriteriaType, req.PointsWeight, req.DealsWeight, req.StartDate, req.EndDate, req.Region); err != nil {
		return nil, err
	}
	topN := req.TopN
	if topN <= 0 {
		topN = defaultTopN
	}

	criteria := &model.GrandPrizeCriteria{
		Name:             req.Name,
		CriteriaType:     req.CriteriaType,
		PointsWeight:     req.PointsWeight,
		DealsWeight:      req.DealsWeight,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		Region:           req.Region,
		TopN:             topN,
		PrizeDescription: req.PrizeDescription,
	}
	if err := s.prizeRepo.CreateCriteria(ctx, criteria); err != nil {
		return nil, fmt.Errorf("failed to create grand prize criteria: %w", err)
	}
	return criteria, nil
}

func (s *prizeService) UpdateCriteria(ctx context.Context, id string, req UpdateGrandPrizeCriteriaRequest) (*model.GrandPrizeCriteria, error) {
	criteriaID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid criteria ID")
	}
	criteria, err := s.prizeRepo.FindCriteriaByID(ctx, criteriaID)
	if err != nil {
		return nil, errors.New("grand prize criteria not found")
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, errors.New("name cannot be empty")
		}
		criteria.Name = *req.Name
	}
	if req.CriteriaType != nil {
		switch *req.CriteriaType {
		case model.CriteriaTypeWeighted, model.CriteriaTypePoints, model.CriteriaTypeDeals, model.CriteriaTypeTopGoals:
			criteria.CriteriaType = *req.CriteriaType
		default:
			return nil, errors.New("criteria_type must be weighted, points, deals or top_goals")
		}
	}
	if req.PointsWeight != nil {
		criteria.PointsWeight = *req.PointsWeight
	}
	if req.DealsWeight != nil {
		criteria.DealsWeight = *req.DealsWeight
	}
	if req.StartDate != nil {
		criteria.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		criteria.EndDate = *req.EndDate
	}
	if req.Region != nil {
		criteria.Region = *req.Region
	}
	if req.TopN != nil {
		if *req.TopN < 1 {
			return nil, errors.New("top_n must be at least 1")
		}
		criteria.TopN = *req.TopN
	}
	if req.PrizeDescription != nil {
		criteria.PrizeDescription = *req.PrizeDescription
	}

	if err := validateCriteriaShape(criteria.CriteriaType, criteria.PointsWeight, criteria.DealsWeight, criteria.StartDate, criteria.EndDate, criteria.Region); err != nil {
		return nil, err
	}

	if err := s.prizeRepo.UpdateCriteria(ctx, criteria); err != nil {
		return nil, fmt.Errorf("failed to update grand prize criteria: %w", err)
	}
	return criteria, nil
}

func (s *prizeService) DeleteCriteria(ctx context.Context, id string) error {
	criteriaID, err := uuid.Parse(id)
	if err != nil {
		return errors.New("invalid criteria ID")
	}
	if _, err := s.prizeRepo.FindCriteriaByID(ctx, criteriaID); err != nil {
		return errors.New("grand prize criteria not found")
	}
	return s.prizeRepo.DeleteCriteria(ctx, criteriaID)
}

func (s *prizeService) ListCriteria(ctx context.Context, page, limit int) ([]model.GrandPrizeCriteria, int64, error) {
	criteria, total, err := s.prizeRepo.ListCriteria(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch grand prize criteria: %w", err)
	}
	return criteria, total, nil
}

// --- Evaluation ---

type scoredStanding struct {
	model.UserStanding
	Score float64
}

// scoreStandings applies the criteria's scoring formula and ranks descending.
// Weighted scores normalize each term against the candidate-set maximum; a zero
// maximum contributes nothing. Ties break by user id for a deterministic order.
func scoreStandings(criteria *model.GrandPrizeCriteria, standings []model.UserStanding) []scoredStanding {
	scored := make([]scoredStanding, 0, len(standings))

	switch criteria.CriteriaType {
	case model.CriteriaTypeWeighted:
		var maxPoints, maxDeals float64
		for _, st := range standings {
			if st.TotalPoints > maxPoints {
				maxPoints = st.TotalPoints
			}
			if float64(st.TotalDeals) > maxDeals {
				maxDeals = float64(st.TotalDeals)
			}
		}
		for _, st := range standings {
			var score float64
			if maxPoints > 0 {
				score += float64(criteria.PointsWeight) / 100 * (st.TotalPoints / maxPoints)
			}
			if maxDeals > 0 {
				score += float64(criteria.DealsWeight) / 100 * (float64(st.TotalDeals) / maxDeals)
			}
			scored = append(scored, scoredStanding{UserStanding: st, Score: score})
		}
	case model.CriteriaTypeDeals:
		for _, st := range standings {
			scored = append(scored, scoredStanding{UserStanding: st, Score: float64(st.TotalDeals)})
		}
	case model.CriteriaTypeTopGoals:
		for _, st := range standings {
			scored = append(scored, scoredStanding{UserStanding: st, Score: st.TotalGoals})
		}
	default: // points
		for _, st := range standings {
			scored = append(scored, scoredStanding{UserStanding: st, Score: st.TotalPoints})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].UserID < scored[j].UserID
	})
	return scored
}

// EvaluateGrandPrize runs the criteria on demand and snapshots the top-N as
// winner rows. Re-running replaces the previous snapshot set.
func (s *prizeService) EvaluateGrandPrize(ctx context.Context, actor AuthContext, id string) ([]model.GrandPrizeWinner, error) {
	criteriaID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid criteria ID")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		criteria, err := s.prizeRepo.FindCriteriaByID(txCtx, criteriaID)
		if err != nil {
			return errors.New("grand prize criteria not found")
		}

		standings, err := s.prizeRepo.UserTotals(txCtx, criteria.StartDate, criteria.EndDate, criteria.Region)
		if err != nil {
			return err
		}

		scored := scoreStandings(criteria, standings)
		topN := criteria.TopN
		if topN <= 0 {
			topN = defaultTopN
		}
		if len(scored) > topN {
			scored = scored[:topN]
		}

		winners := make([]model.GrandPrizeWinner, 0, len(scored))
		for i, sc := range scored {
			userID, err := uuid.Parse(sc.UserID)
			if err != nil {
				return fmt.Errorf("malformed user id in standings: %w", err)
			}
			winners = append(winners, model.GrandPrizeWinner{
				CriteriaID:  criteria.ID,
				UserID:      userID,
				Rank:        i + 1,
				Score:       decimal.NewFromFloat(sc.Score),
				TotalPoints: decimal.NewFromFloat(sc.TotalPoints),
				TotalDeals:  sc.TotalDeals,
			})
		}

		if err := s.prizeRepo.ReplaceWinners(txCtx, criteria.ID, winners); err != nil {
			return fmt.Errorf("failed to store winners: %w", err)
		}

		now := time.Now()
		criteria.EvaluatedAt = &now
		if err := s.prizeRepo.UpdateCriteria(txCtx, criteria); err != nil {
			return fmt.Errorf("failed to stamp evaluation: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"criteria_name": criteria.Name,
			"candidates":    len(standings),
			"winners":       len(winners),
		})
		audit := &model.AuditLog{
			UserID:     &actor.UserID,
			Action:     model.ActionEvaluatePrize,
			EntityID:   criteria.ID.String(),
			EntityName: criteria.Name,
			Details:    string(details),
		}
		return s.auditRepo.Log(txCtx, audit)
	})
	if err != nil {
		return nil, err
	}

	return s.prizeRepo.ListWinners(ctx, criteriaID)
}

func (s *prizeService) ListWinners(ctx context.Context, id string) ([]model.GrandPrizeWinner, error) {
	criteriaID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid criteria ID")
	}
	if _, err := s.prizeRepo.FindCriteriaByID(ctx, criteriaID); err != nil {
		return nil, errors.New("grand prize criteria not found")
	}
	return s.prizeRepo.ListWinners(ctx, criteriaID)
}

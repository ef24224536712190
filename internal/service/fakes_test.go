package service

import (
	"context"
	"errors"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory repository fakes backing the service tests. Lookups that miss
// return gorm.ErrRecordNotFound, matching what the gorm-backed repositories
// produce, and reads hand out copies so state only changes through Update.

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// --- users ---

type userListArgs struct {
	Region   string
	Role     string
	Search   string
	Approved *bool
}

type fakeUserRepo struct {
	users    map[uuid.UUID]*model.User
	lastList userListArgs
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (f *fakeUserRepo) add(u model.User) *model.User {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.users[u.ID] = &u
	return &u
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmailAndRegion(_ context.Context, email, region string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email && u.Region == region {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetAllByEmail(_ context.Context, email string) ([]model.User, error) {
	var out []model.User
	for _, u := range f.users {
		if u.Email == email {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) GetByLoginToken(_ context.Context, token string) (*model.User, error) {
	for _, u := range f.users {
		if u.LoginToken != nil && *u.LoginToken == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) LockByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeUserRepo) List(_ context.Context, region, role, search string, approved *bool, page, limit int) ([]model.User, int64, error) {
	f.lastList = userListArgs{Region: region, Role: role, Search: search, Approved: approved}
	var out []model.User
	for _, u := range f.users {
		if region != "" && u.Region != region {
			continue
		}
		if role != "" && u.Role != role {
			continue
		}
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.users, id)
	return nil
}

// --- deals ---

type fakeDealRepo struct {
	deals      map[uuid.UUID]*model.Deal
	lastFilter repository.DealFilter
}

func newFakeDealRepo() *fakeDealRepo {
	return &fakeDealRepo{deals: make(map[uuid.UUID]*model.Deal)}
}

func (f *fakeDealRepo) add(d model.Deal) *model.Deal {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	f.deals[d.ID] = &d
	return &d
}

func (f *fakeDealRepo) Create(_ context.Context, deal *model.Deal) error {
	if deal.ID == uuid.Nil {
		deal.ID = uuid.New()
	}
	cp := *deal
	f.deals[deal.ID] = &cp
	return nil
}

func (f *fakeDealRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Deal, error) {
	d, ok := f.deals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDealRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Deal, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeDealRepo) Update(_ context.Context, deal *model.Deal) error {
	if _, ok := f.deals[deal.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *deal
	f.deals[deal.ID] = &cp
	return nil
}

func (f *fakeDealRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.deals, id)
	return nil
}

func (f *fakeDealRepo) List(_ context.Context, filter repository.DealFilter) ([]model.Deal, int64, error) {
	f.lastFilter = filter
	var out []model.Deal
	for _, d := range f.deals {
		if filter.Region != "" && d.Region != filter.Region {
			continue
		}
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		if filter.UserID != nil && d.UserID != *filter.UserID {
			continue
		}
		out = append(out, *d)
	}
	return out, int64(len(out)), nil
}

// --- region configs ---

type fakeRegionRepo struct {
	configs map[uuid.UUID]*model.RegionConfig
}

func newFakeRegionRepo() *fakeRegionRepo {
	return &fakeRegionRepo{configs: make(map[uuid.UUID]*model.RegionConfig)}
}

func (f *fakeRegionRepo) add(c model.RegionConfig) *model.RegionConfig {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.configs[c.ID] = &c
	return &c
}

func (f *fakeRegionRepo) Create(_ context.Context, config *model.RegionConfig) error {
	if config.ID == uuid.Nil {
		config.ID = uuid.New()
	}
	cp := *config
	f.configs[config.ID] = &cp
	return nil
}

func (f *fakeRegionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.RegionConfig, error) {
	c, ok := f.configs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeRegionRepo) FindByTriple(_ context.Context, region, category, subcategory string) (*model.RegionConfig, error) {
	for _, c := range f.configs {
		if c.Region == region && c.Category == category && c.Subcategory == subcategory {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRegionRepo) Update(_ context.Context, config *model.RegionConfig) error {
	if _, ok := f.configs[config.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *config
	f.configs[config.ID] = &cp
	return nil
}

func (f *fakeRegionRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.configs, id)
	return nil
}

func (f *fakeRegionRepo) List(_ context.Context, region, category string, activeOnly bool, page, limit int) ([]model.RegionConfig, int64, error) {
	var out []model.RegionConfig
	for _, c := range f.configs {
		if region != "" && c.Region != region {
			continue
		}
		if category != "" && c.Category != category {
			continue
		}
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

// --- points ---

type fakePointsRepo struct {
	config  *model.PointsConfig
	entries []model.PointsHistory
}

func newFakePointsRepo() *fakePointsRepo {
	return &fakePointsRepo{}
}

func (f *fakePointsRepo) GetConfig(_ context.Context) (*model.PointsConfig, error) {
	if f.config == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *f.config
	return &cp, nil
}

func (f *fakePointsRepo) SaveConfig(_ context.Context, config *model.PointsConfig) error {
	if config.ID == uuid.Nil {
		config.ID = uuid.New()
	}
	cp := *config
	f.config = &cp
	return nil
}

func (f *fakePointsRepo) CreateEntry(_ context.Context, entry *model.PointsHistory) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakePointsRepo) SumByUser(_ context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range f.entries {
		if e.UserID == userID {
			sum = sum.Add(e.Points)
		}
	}
	return sum, nil
}

func (f *fakePointsRepo) ListByUser(_ context.Context, userID uuid.UUID, page, limit int) ([]model.PointsHistory, int64, error) {
	var out []model.PointsHistory
	for _, e := range f.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

// entriesFor filters the ledger by entry type for assertions.
func (f *fakePointsRepo) entriesFor(userID uuid.UUID, entryType string) []model.PointsHistory {
	var out []model.PointsHistory
	for _, e := range f.entries {
		if e.UserID == userID && e.EntryType == entryType {
			out = append(out, e)
		}
	}
	return out
}

// --- rewards and redemptions ---

type fakeRewardRepo struct {
	rewards     map[uuid.UUID]*model.Reward
	redemptions map[uuid.UUID]*model.UserReward
}

func newFakeRewardRepo() *fakeRewardRepo {
	return &fakeRewardRepo{
		rewards:     make(map[uuid.UUID]*model.Reward),
		redemptions: make(map[uuid.UUID]*model.UserReward),
	}
}

func (f *fakeRewardRepo) addReward(r model.Reward) *model.Reward {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	f.rewards[r.ID] = &r
	return &r
}

func (f *fakeRewardRepo) addRedemption(r model.UserReward) *model.UserReward {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	f.redemptions[r.ID] = &r
	return &r
}

func (f *fakeRewardRepo) Create(_ context.Context, reward *model.Reward) error {
	if reward.ID == uuid.Nil {
		reward.ID = uuid.New()
	}
	cp := *reward
	f.rewards[reward.ID] = &cp
	return nil
}

func (f *fakeRewardRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Reward, error) {
	r, ok := f.rewards[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRewardRepo) Update(_ context.Context, reward *model.Reward) error {
	if _, ok := f.rewards[reward.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *reward
	f.rewards[reward.ID] = &cp
	return nil
}

func (f *fakeRewardRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.rewards, id)
	return nil
}

func (f *fakeRewardRepo) List(_ context.Context, region string, activeOnly bool, page, limit int) ([]model.Reward, int64, error) {
	var out []model.Reward
	for _, r := range f.rewards {
		if region != "" && r.Region != "" && r.Region != region {
			continue
		}
		if activeOnly && !r.Active {
			continue
		}
		out = append(out, *r)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRewardRepo) DecrementStock(_ context.Context, id uuid.UUID) error {
	r, ok := f.rewards[id]
	if !ok || r.Stock <= 0 {
		return gorm.ErrRecordNotFound
	}
	r.Stock--
	return nil
}

func (f *fakeRewardRepo) IncrementStock(_ context.Context, id uuid.UUID) error {
	r, ok := f.rewards[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	r.Stock++
	return nil
}

func (f *fakeRewardRepo) CreateRedemption(_ context.Context, redemption *model.UserReward) error {
	if redemption.ID == uuid.Nil {
		redemption.ID = uuid.New()
	}
	cp := *redemption
	f.redemptions[redemption.ID] = &cp
	return nil
}

func (f *fakeRewardRepo) FindRedemptionByID(_ context.Context, id uuid.UUID) (*model.UserReward, error) {
	r, ok := f.redemptions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRewardRepo) FindRedemptionByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.UserReward, error) {
	return f.FindRedemptionByID(ctx, id)
}

func (f *fakeRewardRepo) UpdateRedemption(_ context.Context, redemption *model.UserReward) error {
	if _, ok := f.redemptions[redemption.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *redemption
	f.redemptions[redemption.ID] = &cp
	return nil
}

func (f *fakeRewardRepo) ListRedemptions(_ context.Context, filter repository.RedemptionFilter) ([]model.UserReward, int64, error) {
	var out []model.UserReward
	for _, r := range f.redemptions {
		if filter.Region != "" && r.Region != filter.Region {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.UserID != nil && r.UserID != *filter.UserID {
			continue
		}
		out = append(out, *r)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRewardRepo) HasOpenRedemption(_ context.Context, userID, rewardID uuid.UUID) (bool, error) {
	for _, r := range f.redemptions {
		if r.UserID == userID && r.RewardID == rewardID &&
			(r.Status == model.RedemptionPending || r.Status == model.RedemptionApproved) {
			return true, nil
		}
	}
	return false, nil
}

// --- audit ---

type fakeAuditRepo struct {
	logs []model.AuditLog
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{}
}

func (f *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	f.logs = append(f.logs, *entry)
	return nil
}

func (f *fakeAuditRepo) List(_ context.Context, action string, userID *uuid.UUID, page, limit int) ([]model.AuditLog, int64, error) {
	var out []model.AuditLog
	for _, l := range f.logs {
		if action != "" && l.Action != action {
			continue
		}
		out = append(out, l)
	}
	return out, int64(len(out)), nil
}

func (f *fakeAuditRepo) actions() []string {
	out := make([]string, 0, len(f.logs))
	for _, l := range f.logs {
		out = append(out, l.Action)
	}
	return out
}

// --- prizes ---

type fakePrizeRepo struct {
	monthly   map[uuid.UUID]*model.MonthlyRegionPrize
	criteria  map[uuid.UUID]*model.GrandPrizeCriteria
	winners   map[uuid.UUID][]model.GrandPrizeWinner
	standings []model.UserStanding

	lastTotalsStart  time.Time
	lastTotalsEnd    time.Time
	lastTotalsRegion string
}

func newFakePrizeRepo() *fakePrizeRepo {
	return &fakePrizeRepo{
		monthly:  make(map[uuid.UUID]*model.MonthlyRegionPrize),
		criteria: make(map[uuid.UUID]*model.GrandPrizeCriteria),
		winners:  make(map[uuid.UUID][]model.GrandPrizeWinner),
	}
}

func (f *fakePrizeRepo) addCriteria(c model.GrandPrizeCriteria) *model.GrandPrizeCriteria {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.criteria[c.ID] = &c
	return &c
}

func (f *fakePrizeRepo) CreateMonthlyPrize(_ context.Context, prize *model.MonthlyRegionPrize) error {
	if prize.ID == uuid.Nil {
		prize.ID = uuid.New()
	}
	cp := *prize
	f.monthly[prize.ID] = &cp
	return nil
}

func (f *fakePrizeRepo) FindMonthlyPrizeByID(_ context.Context, id uuid.UUID) (*model.MonthlyRegionPrize, error) {
	p, ok := f.monthly[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePrizeRepo) FindMonthlyPrizeByPeriod(_ context.Context, regionConfigID uuid.UUID, month, year, rank int) (*model.MonthlyRegionPrize, error) {
	for _, p := range f.monthly {
		if p.RegionConfigID == regionConfigID && p.Month == month && p.Year == year && p.Rank == rank {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePrizeRepo) UpdateMonthlyPrize(_ context.Context, prize *model.MonthlyRegionPrize) error {
	if _, ok := f.monthly[prize.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *prize
	f.monthly[prize.ID] = &cp
	return nil
}

func (f *fakePrizeRepo) DeleteMonthlyPrize(_ context.Context, id uuid.UUID) error {
	delete(f.monthly, id)
	return nil
}

func (f *fakePrizeRepo) ListMonthlyPrizes(_ context.Context, month, year int, region string, page, limit int) ([]model.MonthlyRegionPrize, int64, error) {
	var out []model.MonthlyRegionPrize
	for _, p := range f.monthly {
		if month != 0 && p.Month != month {
			continue
		}
		if year != 0 && p.Year != year {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (f *fakePrizeRepo) CreateCriteria(_ context.Context, criteria *model.GrandPrizeCriteria) error {
	if criteria.ID == uuid.Nil {
		criteria.ID = uuid.New()
	}
	cp := *criteria
	f.criteria[criteria.ID] = &cp
	return nil
}

func (f *fakePrizeRepo) FindCriteriaByID(_ context.Context, id uuid.UUID) (*model.GrandPrizeCriteria, error) {
	c, ok := f.criteria[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakePrizeRepo) UpdateCriteria(_ context.Context, criteria *model.GrandPrizeCriteria) error {
	if _, ok := f.criteria[criteria.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *criteria
	f.criteria[criteria.ID] = &cp
	return nil
}

func (f *fakePrizeRepo) DeleteCriteria(_ context.Context, id uuid.UUID) error {
	delete(f.criteria, id)
	return nil
}

func (f *fakePrizeRepo) ListCriteria(_ context.Context, page, limit int) ([]model.GrandPrizeCriteria, int64, error) {
	var out []model.GrandPrizeCriteria
	for _, c := range f.criteria {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (f *fakePrizeRepo) ReplaceWinners(_ context.Context, criteriaID uuid.UUID, winners []model.GrandPrizeWinner) error {
	stored := make([]model.GrandPrizeWinner, len(winners))
	copy(stored, winners)
	for i := range stored {
		if stored[i].ID == uuid.Nil {
			stored[i].ID = uuid.New()
		}
	}
	f.winners[criteriaID] = stored
	return nil
}

func (f *fakePrizeRepo) ListWinners(_ context.Context, criteriaID uuid.UUID) ([]model.GrandPrizeWinner, error) {
	return f.winners[criteriaID], nil
}

func (f *fakePrizeRepo) UserTotals(_ context.Context, start, end time.Time, region string) ([]model.UserStanding, error) {
	f.lastTotalsStart = start
	f.lastTotalsEnd = end
	f.lastTotalsRegion = region
	return f.standings, nil
}

// --- tickets ---

type ticketListArgs struct {
	Region string
	Status string
	UserID *uuid.UUID
}

type fakeTicketRepo struct {
	tickets  map[uuid.UUID]*model.SupportTicket
	lastList ticketListArgs
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[uuid.UUID]*model.SupportTicket)}
}

func (f *fakeTicketRepo) add(t model.SupportTicket) *model.SupportTicket {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	f.tickets[t.ID] = &t
	return &t
}

func (f *fakeTicketRepo) Create(_ context.Context, ticket *model.SupportTicket) error {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	cp := *ticket
	f.tickets[ticket.ID] = &cp
	return nil
}

func (f *fakeTicketRepo) FindByID(_ context.Context, id uuid.UUID) (*model.SupportTicket, error) {
	t, ok := f.tickets[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTicketRepo) Update(_ context.Context, ticket *model.SupportTicket) error {
	if _, ok := f.tickets[ticket.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *ticket
	f.tickets[ticket.ID] = &cp
	return nil
}

func (f *fakeTicketRepo) List(_ context.Context, region, status string, userID *uuid.UUID, page, limit int) ([]model.SupportTicket, int64, error) {
	f.lastList = ticketListArgs{Region: region, Status: status, UserID: userID}
	var out []model.SupportTicket
	for _, t := range f.tickets {
		if region != "" && t.Region != region {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		if userID != nil && t.UserID != *userID {
			continue
		}
		out = append(out, *t)
	}
	return out, int64(len(out)), nil
}

// --- mail ---

type fakeMailer struct {
	magicLinks   int
	welcomes     int
	lastTo       string
	lastLink     string
	magicLinkErr error
}

func (f *fakeMailer) SendMagicLink(_ context.Context, to, name, region, link string) error {
	if f.magicLinkErr != nil {
		return f.magicLinkErr
	}
	f.magicLinks++
	f.lastTo = to
	f.lastLink = link
	return nil
}

func (f *fakeMailer) SendWelcome(_ context.Context, to, name, region string) error {
	f.welcomes++
	f.lastTo = to
	return nil
}

// --- object storage ---

type fakeObjectStore struct {
	objects map[string][]byte
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) PresignUpload(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://uploads.example.com/" + key, nil
}

func (f *fakeObjectStore) PresignDownload(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://downloads.example.com/" + key, nil
}

func (f *fakeObjectStore) Download(_ context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found: " + key)
	}
	return data, nil
}

func (f *fakeObjectStore) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

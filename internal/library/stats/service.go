package stats

import (
	"context"
	"sort"
	"strconv"
	"time"

	"library-backend/internal/platform/apperr"
)

const dayLayout = "2006-01-02"

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// 月の範囲 [start, end)（UTC）
func monthRange(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func (s *Service) Overview(ctx context.Context) (Overview, error) {
	now := s.now().UTC()
	start, end := monthRange(now.Year(), now.Month())
	return s.store.Overview(ctx, now, start, end)
}

// Monthly returns per-day checkout and return counts, oldest day first.
// Days with no activity are omitted.
func (s *Service) Monthly(ctx context.Context, year, month int) (MonthlyResponse, error) {
	if year < 1000 || year > 9999 {
		return MonthlyResponse{}, apperr.Invalid("year must be between 1000 and 9999")
	}
	if month < 1 || month > 12 {
		return MonthlyResponse{}, apperr.Invalid("month must be between 1 and 12")
	}
	from, to := monthRange(year, time.Month(month))

	outs, err := s.store.DailyCheckouts(ctx, from, to)
	if err != nil {
		return MonthlyResponse{}, err
	}
	rets, err := s.store.DailyReturns(ctx, from, to)
	if err != nil {
		return MonthlyResponse{}, err
	}
	return MonthlyResponse{Year: year, Month: month, Stats: mergeDaily(outs, rets)}, nil
}

func mergeDaily(outs, rets []DayCount) []DailyStats {
	byDay := map[string]*DailyStats{}
	get := func(d time.Time) *DailyStats {
		k := d.Format(dayLayout)
		if v, ok := byDay[k]; ok {
			return v
		}
		v := &DailyStats{Date: k}
		byDay[k] = v
		return v
	}
	for _, c := range outs {
		get(c.Day).Checkouts += c.Count
	}
	for _, c := range rets {
		get(c.Day).Returns += c.Count
	}

	res := make([]DailyStats, 0, len(byDay))
	for _, v := range byDay {
		res = append(res, *v)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Date < res[j].Date })
	return res
}

func (s *Service) Popular(ctx context.Context, limit int) ([]PopularBook, error) {
	if limit < 1 || limit > MaxPopularLimit {
		return nil, apperr.Invalid("limit must be between 1 and 50")
	}
	return s.store.Popular(ctx, limit)
}

func (s *Service) User(ctx context.Context, userID int64) (UserStats, error) {
	if userID <= 0 {
		return UserStats{}, apperr.Invalid("user id must be positive")
	}
	st, err := s.store.UserStats(ctx, userID, s.now().UTC())
	if err != nil {
		return UserStats{}, err
	}
	if st == nil {
		return UserStats{}, apperr.NotFound("user not found")
	}
	return *st, nil
}

// 空文字は既定値、数値でなければ INVALID_ARGUMENT
func intParam(v string, def int, name string) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperr.Invalid(name + " must be an integer")
	}
	return n, nil
}

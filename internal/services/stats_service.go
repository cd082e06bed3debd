package services

import (
	"time"

	"mesero/internal/repos"
)

type StatsService struct {
	Sales *repos.SalesRepo
}

func NewStatsService(sales *repos.SalesRepo) *StatsService {
	return &StatsService{Sales: sales}
}

type DailyReport struct {
	Day     string
	Stats   repos.DayStats
	Methods []repos.MethodSplit
	Top     []repos.TopProduct
}

// Daily aggregates the closing records for one day; an empty or malformed
// day falls back to today.
func (s *StatsService) Daily(day string) (DailyReport, error) {
	if _, err := time.Parse("2006-01-02", day); err != nil {
		day = time.Now().Format("2006-01-02")
	}
	stats, err := s.Sales.StatsForDay(day)
	if err != nil {
		return DailyReport{}, err
	}
	methods, err := s.Sales.MethodSplitForDay(day)
	if err != nil {
		return DailyReport{}, err
	}
	top, err := s.Sales.TopProductsForDay(day, 5)
	if err != nil {
		return DailyReport{}, err
	}
	return DailyReport{Day: day, Stats: stats, Methods: methods, Top: top}, nil
}

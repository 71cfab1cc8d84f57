package services

import (
	"context"
	"math"

	"gorm.io/gorm"

	"github.com/donorlink/donorlink/internal/models"
)

// StatsService runs the read-only dashboard aggregates. All queries are
// plain counts/sums/averages against the store; an optional category scopes
// the donation-derived figures.
type StatsService struct{ DB *gorm.DB }

func NewStatsService(db *gorm.DB) *StatsService { return &StatsService{DB: db} }

type GroupCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

type DashboardStats struct {
	DonorCount          int64        `json:"donor_count"`
	RecipientCount      int64        `json:"recipient_count"`
	DonationCount       int64        `json:"donation_count"`
	TotalItemsDonated   int64        `json:"total_items_donated"`
	DeliveredCount      int64        `json:"delivered_count"`
	AvgRating           float64      `json:"avg_rating"`
	DonationsByCategory []GroupCount `json:"donations_by_category"`
	DonationsByStatus   []GroupCount `json:"donations_by_status"`
	TopCities           []GroupCount `json:"top_cities"`
}

func (s *StatsService) Dashboard(ctx context.Context, category string) (DashboardStats, error) {
	db := s.DB.WithContext(ctx)
	out := DashboardStats{}

	if err := db.Model(&models.Donor{}).Count(&out.DonorCount).Error; err != nil {
		return out, err
	}
	if err := db.Model(&models.Recipient{}).Count(&out.RecipientCount).Error; err != nil {
		return out, err
	}

	donations := db.Model(&models.Donation{})
	if category != "" {
		donations = donations.Where("category = ?", category)
	}
	if err := donations.Count(&out.DonationCount).Error; err != nil {
		return out, err
	}

	sumQ := db.Model(&models.Donation{})
	if category != "" {
		sumQ = sumQ.Where("category = ?", category)
	}
	if err := sumQ.Select("COALESCE(SUM(quantity), 0)").Scan(&out.TotalItemsDonated).Error; err != nil {
		return out, err
	}

	delivQ := db.Model(&models.Donation{}).Where("status = ?", models.DonationDelivered)
	if category != "" {
		delivQ = delivQ.Where("category = ?", category)
	}
	if err := delivQ.Count(&out.DeliveredCount).Error; err != nil {
		return out, err
	}

	// Feedback is not category-scoped.
	var avg *float64
	if err := db.Model(&models.Feedback{}).Select("AVG(rating)").Scan(&avg).Error; err != nil {
		return out, err
	}
	if avg != nil {
		out.AvgRating = math.Round(*avg*10) / 10
	}

	// Categories always show the full breakdown; status respects the filter.
	if err := db.Model(&models.Donation{}).
		Select("category AS key, COUNT(*) AS count").
		Group("category").
		Scan(&out.DonationsByCategory).Error; err != nil {
		return out, err
	}

	statusQ := db.Model(&models.Donation{})
	if category != "" {
		statusQ = statusQ.Where("category = ?", category)
	}
	if err := statusQ.
		Select("status AS key, COUNT(*) AS count").
		Group("status").
		Scan(&out.DonationsByStatus).Error; err != nil {
		return out, err
	}

	if err := db.Model(&models.Donor{}).
		Select("city AS key, COUNT(*) AS count").
		Group("city").
		Order("count DESC").
		Limit(5).
		Scan(&out.TopCities).Error; err != nil {
		return out, err
	}

	return out, nil
}

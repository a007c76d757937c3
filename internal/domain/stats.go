package domain

// UserStats holds derived per-user figures shown on profiles.
type UserStats struct {
	AverageRating       float64 // Rounded to one decimal, 0 when unrated
	TotalRatings        int
	TotalRidesCreated   int
	TotalRidesCompleted int
}

// DashboardTotals holds platform-wide counts for the admin dashboard.
type DashboardTotals struct {
	TotalUsers    int
	TotalAdmins   int
	TotalRides    int
	OpenRides     int
	TotalRatings  int
	TotalMessages int
}

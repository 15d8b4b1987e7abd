package models

type DashboardSummary struct {
	Memberships       map[string]int64 `json:"memberships"`
	Events            map[string]int64 `json:"events"`
	TotalRSVPs        int64            `json:"totalRsvps"`
	Announcements     int64            `json:"announcements"`
	ActiveSponsors    int64            `json:"activeSponsors"`
	NotificationsSent int64            `json:"notificationsSent"`
}

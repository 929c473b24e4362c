package endpoint

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/serenityspa/serenity-api/config"
	"github.com/serenityspa/serenity-api/dashboard"
	"github.com/serenityspa/serenity-api/middleware"
	"github.com/serenityspa/serenity-api/model"
	"github.com/serenityspa/serenity-api/util"
)

// DashboardResponse is the full therapist portal payload: profile, schedule
// views, review summary and the earnings for the requested window.
type DashboardResponse struct {
	Therapist     model.Therapist `json:"therapist"`
	TodaySchedule []model.Booking `json:"today_schedule"`
	Upcoming      []model.Booking `json:"upcoming"`
	Completed     int             `json:"completed_count"`
	AverageRating float64         `json:"average_rating"`
	ReviewCount   int             `json:"review_count"`
	Reviews       []model.Review  `json:"reviews"`
	EarningsRange string          `json:"earnings_range"`
	Earnings      EarningsSummary `json:"earnings"`
	BlockoutDates []string        `json:"blockout_dates"`
}

// EarningsSummary holds the aggregate money figures for one filter window.
type EarningsSummary struct {
	BookingCount    int     `json:"booking_count"`
	TotalCommission float64 `json:"total_commission"`
	TotalTips       float64 `json:"total_tips"`
}

// parseEarningsFilter reads the earnings window from query parameters.
// Defaults to the all-time window.
func parseEarningsFilter(c *gin.Context) dashboard.EarningsFilter {
	f := dashboard.EarningsFilter{Mode: dashboard.RangeMode(c.DefaultQuery("range", string(dashboard.RangeAll)))}
	if f.Mode == dashboard.RangeDate {
		f.Date = c.Query("date")
	}
	if f.Mode == dashboard.RangeMonth {
		if m, err := strconv.Atoi(c.Query("month")); err == nil && m >= 1 && m <= 12 {
			f.Month = time.Month(m)
		}
		if y, err := strconv.Atoi(c.Query("year")); err == nil {
			f.Year = y
		}
	}
	return f
}

// buildDashboardResponse assembles the portal snapshot from loaded data.
func buildDashboardResponse(data *dashboard.Data, filter dashboard.EarningsFilter, now time.Time) DashboardResponse {
	earned := dashboard.FilterEarnings(data.Bookings, filter, now)
	return DashboardResponse{
		Therapist:     data.Therapist,
		TodaySchedule: dashboard.TodaySchedule(data.Bookings, now),
		Upcoming:      dashboard.Upcoming(data.Bookings, now),
		Completed:     len(dashboard.Completed(data.Bookings)),
		AverageRating: dashboard.AverageRating(data.Reviews),
		ReviewCount:   len(data.Reviews),
		Reviews:       data.Reviews,
		EarningsRange: string(filter.Mode),
		Earnings: EarningsSummary{
			BookingCount:    len(earned),
			TotalCommission: dashboard.TotalCommission(earned),
			TotalTips:       dashboard.TotalTips(earned),
		},
		BlockoutDates: data.Blockouts,
	}
}

// resolveOwnTherapist maps the authenticated user to their therapist profile,
// answering 404 with onboarding guidance when no profile is linked.
func resolveOwnTherapist(c *gin.Context) (*dashboard.Fetcher, *dashboard.Data, bool) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return nil, nil, false
	}

	userID, authed := middleware.GetUserID(c)
	if !authed {
		util.CallUserNotAuthorized(c, util.APIErrorParams{
			Msg: "User not authenticated",
			Err: fmt.Errorf("user id not found in context"),
		})
		return nil, nil, false
	}

	fetcher := dashboard.NewFetcher(db)
	data, err := fetcher.Load(userID)
	if errors.Is(err, dashboard.ErrNotLinked) {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "No therapist profile is linked to this account. Ask an administrator to link one.",
			Err: err,
		})
		return nil, nil, false
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to load dashboard", Err: err})
		return nil, nil, false
	}
	return fetcher, data, true
}

// GetTherapistDashboard renders the therapist portal snapshot. The earnings
// window is selected with ?range= plus its auxiliary parameters.
func GetTherapistDashboard(c *gin.Context) {
	_, data, ok := resolveOwnTherapist(c)
	if !ok {
		return
	}

	resp := buildDashboardResponse(data, parseEarningsFilter(c), time.Now())
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Dashboard retrieved", Data: resp})
}

// StreamTherapistDashboard pushes dashboard snapshots over server-sent
// events. The first event is the current snapshot; a fresh one follows every
// booking status change broadcast for this therapist. The Redis subscription
// is released when the client disconnects.
func StreamTherapistDashboard(c *gin.Context) {
	fetcher, data, ok := resolveOwnTherapist(c)
	if !ok {
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	// Coalesce bursts: a pending refetch already covers any event dropped here.
	events := make(chan dashboard.StatusEvent, 1)
	watcher := dashboard.NewWatcher(config.GetRedisClient(), data.Therapist.ID, func(ev dashboard.StatusEvent) {
		select {
		case events <- ev:
		default:
		}
	})

	ctx := c.Request.Context()
	go func() {
		if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("dashboard stream for therapist %d: %v", data.Therapist.ID, err)
		}
	}()

	filter := parseEarningsFilter(c)
	send := func() {
		c.SSEvent("dashboard", buildDashboardResponse(data, filter, time.Now()))
		c.Writer.Flush()
	}
	send()

	for {
		select {
		case <-ctx.Done():
			return
		case <-events:
			if err := fetcher.Reload(data); err != nil {
				log.Printf("dashboard refetch for therapist %d: %v", data.Therapist.ID, err)
				continue
			}
			send()
		}
	}
}

// GetMyBlockouts returns the therapist's own blockout dates.
func GetMyBlockouts(c *gin.Context) {
	_, data, ok := resolveOwnTherapist(c)
	if !ok {
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Blockout dates retrieved",
		Data: map[string]interface{}{"dates": data.Blockouts},
	})
}

type saveBlockoutsRequest struct {
	Dates []string `json:"dates"`
}

// SaveMyBlockouts replaces the therapist's blockout list wholesale. The edit
// session is replayed through the availability editor, which owns the toggle
// rules: dates must be valid, a past date may stay blocked or be removed but
// cannot be newly added.
func SaveMyBlockouts(c *gin.Context) {
	var req saveBlockoutsRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	_, data, ok := resolveOwnTherapist(c)
	if !ok {
		return
	}

	editor := dashboard.NewEditor(data.Therapist.ID, data.Blockouts)

	requested := make(map[string]struct{}, len(req.Dates))
	for _, d := range req.Dates {
		if _, err := time.Parse(dashboard.DateLayout, d); err != nil {
			util.CallUserError(c, util.APIErrorParams{
				Msg: fmt.Sprintf("Invalid date %q", d),
				Err: err,
			})
			return
		}
		requested[d] = struct{}{}
	}

	for _, d := range data.Blockouts {
		if _, keep := requested[d]; !keep {
			editor.Toggle(d)
		}
	}
	for _, d := range req.Dates {
		if editor.Blocked(d) {
			continue
		}
		if !editor.Toggle(d) {
			util.CallUserError(c, util.APIErrorParams{
				Msg: fmt.Sprintf("Cannot block a past date %q", d),
				Err: fmt.Errorf("date in the past"),
			})
			return
		}
	}

	store := dashboard.NewGormStore(middleware.GetDB(c))
	if err := editor.Save(store); err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to save blockout dates", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Blockout dates saved",
		Data: map[string]interface{}{"dates": editor.Dates()},
	})
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// User Activity Metrics
	NewUsersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_new_users_total",
		Help: "Total number of new accounts.",
	}, []string{"source"}) // source: "signup" or "otp"
	TotalUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "app_total_users",
		Help: "Total number of registered users in the application.",
	})
	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_login_attempts_total",
		Help: "Total number of login attempts (successful and failed).",
	}, []string{"method", "status"})

	// OTP Metrics
	OTPIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_otp_issued_total",
		Help: "Total number of one-time passcodes issued.",
	})
	OTPVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_otp_verifications_total",
		Help: "Total number of OTP verification outcomes.",
	}, []string{"result"}) // result: "success", "mismatch", "exhausted", "expired", "not_found"
	OTPThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_otp_throttled_total",
		Help: "Total number of OTP requests rejected by the per-mobile throttle.",
	})
	OTPSweptTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_otp_swept_total",
		Help: "Total number of expired OTP records removed by the sweep.",
	})
	MessagesSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_messages_sent_total",
		Help: "Total number of outbound SMS and email deliveries.",
	}, []string{"channel", "status"})

	// Social Feature Usage Metrics
	PostCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_post_created_total",
		Help: "Total number of posts created.",
	})
	CommentCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_comment_created_total",
		Help: "Total number of comments created.",
	})
	EngagementChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_engagement_changes_total",
		Help: "Total number of like/save state changes.",
	}, []string{"kind", "action"}) // kind: "like" or "save"; action: "added" or "removed"
	FollowChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_follow_changes_total",
		Help: "Total number of follow state changes.",
	}, []string{"action"}) // action: "added" or "removed"
	MediaUploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_media_uploads_total",
		Help: "Total number of media uploads.",
	}, []string{"status"})
)

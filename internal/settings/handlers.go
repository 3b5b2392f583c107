// Package settings exposes per-user preferences and Web Push subscription
// management.
package settings

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/punchclock/punchclock/internal/auth"
	"github.com/punchclock/punchclock/internal/models"
	"github.com/punchclock/punchclock/internal/push"
	"github.com/punchclock/punchclock/internal/store"
	"github.com/punchclock/punchclock/internal/timeclock"
)

type settingsResponse struct {
	ReminderTime     string `json:"reminder_time"`
	RemindersEnabled bool   `json:"reminders_enabled"`
}

// HandleGet returns the user's settings with defaults applied.
func HandleGet(settings store.SettingsStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		values, err := settings.Settings(c.Request.Context(), auth.CurrentUserID(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
			return
		}
		c.JSON(http.StatusOK, settingsResponse{
			ReminderTime:     store.ReminderTime(values),
			RemindersEnabled: store.RemindersEnabled(values),
		})
	}
}

type updateSettingsRequest struct {
	ReminderTime     *string `json:"reminder_time"`
	RemindersEnabled *bool   `json:"reminders_enabled"`
}

// HandleUpdate stores the recognized settings keys. Omitted fields keep their
// current value.
func HandleUpdate(settings store.SettingsStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateSettingsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
			return
		}
		if req.ReminderTime != nil && !timeclock.ValidTime(*req.ReminderTime) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reminder_time must be HH:MM"})
			return
		}

		ctx := c.Request.Context()
		userID := auth.CurrentUserID(c)
		if req.ReminderTime != nil {
			if err := settings.SetSetting(ctx, userID, models.SettingReminderTime, *req.ReminderTime); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save settings"})
				return
			}
		}
		if req.RemindersEnabled != nil {
			value := "false"
			if *req.RemindersEnabled {
				value = "true"
			}
			if err := settings.SetSetting(ctx, userID, models.SettingRemindersEnabled, value); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save settings"})
				return
			}
		}

		HandleGet(settings)(c)
	}
}

// HandlePushKey returns the VAPID public key browsers need to subscribe, or
// 503 when push is not configured.
func HandlePushKey(sender *push.Sender) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !sender.Enabled() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "push notifications are not configured"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"key": sender.PublicKey()})
	}
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	P256dh   string `json:"p256dh" binding:"required"`
	Auth     string `json:"auth" binding:"required"`
}

// HandleSubscribe registers (or refreshes) a push subscription for the user.
func HandleSubscribe(subs store.SubscriptionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req subscribeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint, p256dh and auth are required"})
			return
		}

		sub := &models.Subscription{
			UserID:   auth.CurrentUserID(c),
			Endpoint: req.Endpoint,
			P256dh:   req.P256dh,
			Auth:     req.Auth,
		}
		if err := subs.SaveSubscription(c.Request.Context(), sub); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save subscription"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"status": "subscribed"})
	}
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// HandleUnsubscribe removes a push subscription by endpoint.
func HandleUnsubscribe(subs store.SubscriptionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req unsubscribeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint is required"})
			return
		}

		if err := subs.DeleteSubscription(c.Request.Context(), req.Endpoint); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete subscription"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

package auth

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/punchclock/punchclock/internal/models"
)

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email"`
}

// HandleRegister creates a password-credentialed user account.
func HandleRegister(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentialsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" || len(req.Password) < 8 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username must be non-empty and password at least 8 characters"})
			return
		}

		var existing models.User
		if err := db.Where("username = ?", req.Username).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
			return
		}
		hashStr := string(hash)
		user := models.User{
			Username:     req.Username,
			PasswordHash: &hashStr,
		}
		if req.Email != "" {
			user.Email = &req.Email
		}
		if err := db.Create(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
			return
		}

		startSession(c, &user)
	}
}

// HandlePasswordLogin verifies a username/password pair and opens a session.
func HandlePasswordLogin(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentialsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
			return
		}

		var user models.User
		err := db.Where("username = ?", strings.TrimSpace(req.Username)).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || err == nil && user.PasswordHash == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up user"})
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		now := time.Now()
		db.Model(&user).Update("last_login_at", now)
		startSession(c, &user)
	}
}

// HandleGoogleLogin initiates the Google OAuth flow
func HandleGoogleLogin(c *gin.Context) {
	// Gothic requires the "provider" query parameter
	q := c.Request.URL.Query()
	q.Add("provider", "google")
	c.Request.URL.RawQuery = q.Encode()

	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// HandleGoogleCallback completes the OAuth flow, upserts the user, and opens
// a session. A returning Google identity is matched by its provider user id;
// a first login creates an account named after the Google profile.
func HandleGoogleCallback(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Gothic requires the "provider" query parameter
		q := c.Request.URL.Query()
		q.Add("provider", "google")
		c.Request.URL.RawQuery = q.Encode()

		gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
		if err != nil {
			log.Printf("Auth error: %v", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
			return
		}

		user, err := upsertGoogleUser(db, gothUser)
		if err != nil {
			log.Printf("Google upsert error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
			return
		}

		startSession(c, user)
	}
}

// upsertGoogleUser matches a Google identity to a user account, creating one
// on first login. A first login whose derived username is already taken by a
// password account gets a suffix from the Google user id instead of failing
// on the unique index.
func upsertGoogleUser(db *gorm.DB, gothUser goth.User) (*models.User, error) {
	now := time.Now()
	var user models.User
	result := db.Where("google_id = ?", gothUser.UserID).First(&user)
	switch {
	case errors.Is(result.Error, gorm.ErrRecordNotFound):
		username := gothUser.Email
		if username == "" {
			username = gothUser.NickName
		}
		var clash models.User
		if err := db.Where("username = ?", username).First(&clash).Error; err == nil {
			username = fmt.Sprintf("%s-%s", username, shortID(gothUser.UserID))
		}
		user = models.User{
			Username:    username,
			GoogleID:    &gothUser.UserID,
			AvatarURL:   gothUser.AvatarURL,
			LastLoginAt: &now,
		}
		if gothUser.Email != "" {
			user.Email = &gothUser.Email
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	case result.Error == nil:
		db.Model(&user).Updates(map[string]interface{}{
			"avatar_url":    gothUser.AvatarURL,
			"last_login_at": now,
		})
	default:
		return nil, fmt.Errorf("failed to look up user: %w", result.Error)
	}
	return &user, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// HandleLogout clears the session.
func HandleLogout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()

	if err := session.Save(); err != nil {
		log.Printf("Session clear error: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

func startSession(c *gin.Context, user *models.User) {
	session := sessions.Default(c)
	session.Set(sessionUserKey, user.ID)

	if err := session.Save(); err != nil {
		log.Printf("Session save error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save session"})
		return
	}

	log.Printf("User authenticated: %s (id %d)", user.Username, user.ID)
	c.JSON(http.StatusOK, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"avatar":   user.AvatarURL,
	})
}

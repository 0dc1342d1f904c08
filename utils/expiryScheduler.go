package utils

import (
	"fmt"
	"log"
	"time"

	"certtrack/database"
	"certtrack/models"

	"github.com/jinzhu/now"
	"github.com/robfig/cron/v3"
)

// logScheduler logs scheduler events with timestamp
func logScheduler(message string) {
	log.Printf("[EXPIRY-SCHEDULER %s] %s", time.Now().Format(time.RFC3339), message)
}

// sweepExpiredCertifications flips active certifications whose expiration
// date has passed to expired. The 30-day expiring-soon view stays computed
// live per query; this sweep only maintains the lifecycle tag.
func sweepExpiredCertifications() {
	db := database.Database.Db
	today := now.BeginningOfDay().Format("2006-01-02")

	res := db.Model(&models.Certification{}).
		Where("status = ? AND expiration_date IS NOT NULL AND expiration_date < ?", models.CertActive, today).
		Update("status", models.CertExpired)
	if res.Error != nil {
		logScheduler("Error sweeping expired certifications: " + res.Error.Error())
		return
	}

	if res.RowsAffected > 0 {
		logScheduler(fmt.Sprintf("Marked %d certifications expired", res.RowsAffected))
	}
}

// StartExpiryScheduler runs the expiry sweep once at startup and then daily
// just after midnight.
func StartExpiryScheduler() {
	sweepExpiredCertifications()

	c := cron.New()
	if _, err := c.AddFunc("5 0 * * *", sweepExpiredCertifications); err != nil {
		logScheduler("Error scheduling expiry sweep: " + err.Error())
		return
	}
	c.Start()

	logScheduler("Expiry scheduler started")
}

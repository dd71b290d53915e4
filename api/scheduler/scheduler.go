package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/davangere-police/case-registry-api/databases"
	"github.com/davangere-police/case-registry-api/logging"
	"github.com/davangere-police/case-registry-api/models"
	templates "github.com/davangere-police/case-registry-api/templates/html"
)

// Scheduler handles periodic background jobs for the case registry
type Scheduler struct {
	cron *cron.Cron
	CDB  databases.CaseRecordDatabase
	UDB  databases.UserDatabase
	log  *zap.SugaredLogger
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cDB databases.CaseRecordDatabase, uDB databases.UserDatabase) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
		CDB:  cDB,
		UDB:  uDB,
		log:  logging.New(),
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Send hearing reminders daily at 2 AM UTC (7:30 AM IST)
	_, err := s.cron.AddFunc("0 2 * * *", s.sendHearingReminders)
	if err != nil {
		s.log.Errorw("failed to register hearing reminder job", "error", err)
	}

	s.cron.Start()
	s.log.Info("Hearing reminder scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("Hearing reminder scheduler stopped")
}

// sendHearingReminders finds cases whose next hearing falls within the next
// 24 hours and mails the owning station's SHO
func (s *Scheduler) sendHearingReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	now := time.Now()
	oneDayFromNow := now.Add(24 * time.Hour)

	s.log.Infow("Running hearing reminder job")

	filter := bson.M{
		"case.nextHearingDate": bson.M{
			"$gt": primitive.NewDateTimeFromTime(now),
			"$lt": primitive.NewDateTimeFromTime(oneDayFromNow),
		},
		"case.status": bson.M{"$ne": models.StatusDisposed},
	}

	cases, err := s.CDB.Find(ctx, filter)
	if err != nil {
		s.log.Errorw("failed to find cases with upcoming hearings", "error", err)
		return
	}
	if len(cases) == 0 {
		s.log.Debug("no hearings in the next 24 hours")
		return
	}

	// group by station so each SHO gets one mail
	byStation := map[string][]models.CaseRecord{}
	for _, c := range cases {
		byStation[c.Details.Station] = append(byStation[c.Details.Station], c)
	}

	for station, stationCases := range byStation {
		s.remindStation(ctx, station, stationCases)
	}
}

func (s *Scheduler) remindStation(ctx context.Context, station string, cases []models.CaseRecord) {
	shos, err := s.UDB.Find(ctx, bson.M{"user.role": models.RoleSHO, "user.station": station})
	if err != nil || len(shos) == 0 {
		s.log.Warnw("no SHO on record for station", "station", station, "error", err)
		return
	}

	body := fmt.Sprintf("The following cases at %s have hearings in the next 24 hours:\n\n", station)
	for _, c := range cases {
		body += fmt.Sprintf("Crime No. %s, next hearing %s\n",
			c.Details.CrimeNumber,
			c.Details.NextHearingDate.Time().Format("02 Jan 2006 15:04"),
		)
	}

	for _, sho := range shos {
		if err := s.sendEmail(sho.Details.Email, "Upcoming hearing reminder", body); err != nil {
			s.log.Errorw("failed to send hearing reminder", "station", station, "email", sho.Details.Email, "error", err)
			continue
		}
		s.log.Infow("hearing reminder sent", "station", station, "cases", len(cases))
	}
}

func (s *Scheduler) sendEmail(toEmail, subject, body string) error {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	if apiKey == "" {
		s.log.Warn("SENDGRID_API_KEY not set, skipping reminder email")
		return nil
	}

	from := mail.NewEmail("Case Registry", os.Getenv("REMINDER_FROM_EMAIL"))
	to := mail.NewEmail("", toEmail)
	htmlBody := templates.RenderGenericEmail(subject, body)
	message := mail.NewSingleEmail(from, subject, to, body, htmlBody)

	client := sendgrid.NewSendClient(apiKey)
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/classtrack/classtrack-api/internal/dto"
	"github.com/classtrack/classtrack-api/internal/models"
	"github.com/classtrack/classtrack-api/internal/repository"
	"github.com/classtrack/classtrack-api/pkg/mailer"
)

type reportFixture struct {
	svc        ReportService
	reports    repository.ScheduledReportRepository
	attendance repository.AttendanceRepository
	students   repository.StudentRepository
	classes    repository.ClassRepository
	mail       *captureMailer
	notifier   *recordingNotifier
	db         *gorm.DB
}

func newReportFixture(t *testing.T) reportFixture {
	t.Helper()
	db := setupTestDB(t)
	f := reportFixture{
		reports:    repository.NewScheduledReportRepository(db),
		attendance: repository.NewAttendanceRepository(db),
		students:   repository.NewStudentRepository(db),
		classes:    repository.NewClassRepository(db),
		mail:       &captureMailer{},
		notifier:   &recordingNotifier{},
		db:         db,
	}
	f.svc = NewReportService(f.reports, f.attendance, f.students, f.classes, f.mail, f.notifier, testValidator(), testLogger())
	return f
}

func TestFirstRunWeeklyLandsOnNextSundayMorning(t *testing.T) {
	// 2026-03-11 is a Wednesday; the following Sunday is 2026-03-15.
	from := time.Date(2026, 3, 11, 15, 30, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC), firstRun(models.ReportTypeWeekly, from))

	// Scheduling on a Sunday goes to the next Sunday, never today.
	sunday := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 3, 22, 9, 0, 0, 0, time.UTC), firstRun(models.ReportTypeWeekly, sunday))
}

func TestFirstRunMonthlyLandsOnFirstOfNextMonth(t *testing.T) {
	from := time.Date(2026, 3, 11, 15, 30, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC), firstRun(models.ReportTypeMonthly, from))

	// December rolls into January of the next year.
	december := time.Date(2026, 12, 20, 10, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2027, 1, 1, 9, 0, 0, 0, time.UTC), firstRun(models.ReportTypeMonthly, december))
}

func TestScheduleValidatesAndPersists(t *testing.T) {
	f := newReportFixture(t)

	created, err := f.svc.Schedule(context.Background(), dto.ScheduleReportRequest{
		Type:  models.ReportTypeWeekly,
		Email: "head@example.com",
	})
	require.NoError(t, err)
	require.True(t, created.IsActive)
	require.Equal(t, time.Sunday, created.NextRun.Weekday())

	_, err = f.svc.Schedule(context.Background(), dto.ScheduleReportRequest{Type: "hourly", Email: "head@example.com"})
	require.Error(t, err)

	_, err = f.svc.Schedule(context.Background(), dto.ScheduleReportRequest{Type: models.ReportTypeWeekly, Email: "not-an-email"})
	require.Error(t, err)
}

func TestSweepAdvancesNextRunFromPreviousValue(t *testing.T) {
	f := newReportFixture(t)

	nextRun := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	report := models.ScheduledReport{
		Type:     models.ReportTypeWeekly,
		Email:    "head@example.com",
		NextRun:  nextRun,
		IsActive: true,
	}
	require.NoError(t, f.reports.Create(context.Background(), &report))

	// The sweep fires two hours late; the schedule still advances from
	// the planned time, keeping Sunday 09:00 stable.
	now := nextRun.Add(2 * time.Hour)
	require.NoError(t, f.svc.Sweep(context.Background(), now))

	require.Len(t, f.mail.sent(), 1)
	updated, err := f.reports.FindByID(context.Background(), report.ID)
	require.NoError(t, err)
	require.True(t, updated.NextRun.Equal(nextRun.AddDate(0, 0, 7)))
}

func TestSweepMonthlyAdvancesOneCalendarMonth(t *testing.T) {
	f := newReportFixture(t)

	nextRun := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	report := models.ScheduledReport{
		Type:     models.ReportTypeMonthly,
		Email:    "head@example.com",
		NextRun:  nextRun,
		IsActive: true,
	}
	require.NoError(t, f.reports.Create(context.Background(), &report))

	require.NoError(t, f.svc.Sweep(context.Background(), nextRun))

	updated, err := f.reports.FindByID(context.Background(), report.ID)
	require.NoError(t, err)
	require.True(t, updated.NextRun.Equal(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)))
}

func TestSweepFailureLeavesNextRunForRetry(t *testing.T) {
	f := newReportFixture(t)
	f.mail.fail = errors.New("smtp down")

	nextRun := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	report := models.ScheduledReport{
		Type:     models.ReportTypeWeekly,
		Email:    "head@example.com",
		NextRun:  nextRun,
		IsActive: true,
	}
	require.NoError(t, f.reports.Create(context.Background(), &report))

	require.NoError(t, f.svc.Sweep(context.Background(), nextRun.Add(time.Hour)))

	updated, err := f.reports.FindByID(context.Background(), report.ID)
	require.NoError(t, err)
	require.True(t, updated.NextRun.Equal(nextRun))

	// The failure is surfaced as a broadcast.
	require.Len(t, f.notifier.events, 1)
	require.Equal(t, "Report Delivery Failed", f.notifier.events[0].Title)
}

// bouncingMailer rejects one address and delivers the rest.
type bouncingMailer struct {
	captureMailer
	bounce string
}

func (m *bouncingMailer) Send(ctx context.Context, msg mailer.Message) error {
	if msg.ToEmail == m.bounce {
		return errors.New("mailbox unavailable")
	}
	return m.captureMailer.Send(ctx, msg)
}

func TestSweepFailureDoesNotStopOtherSchedules(t *testing.T) {
	f := newReportFixture(t)
	mail := &bouncingMailer{bounce: "broken@example.com"}
	f.svc = NewReportService(f.reports, f.attendance, f.students, f.classes, mail, f.notifier, testValidator(), testLogger())

	nextRun := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	broken := models.ScheduledReport{Type: models.ReportTypeWeekly, Email: "broken@example.com", NextRun: nextRun, IsActive: true}
	healthy := models.ScheduledReport{Type: models.ReportTypeWeekly, Email: "ok@example.com", NextRun: nextRun, IsActive: true}
	require.NoError(t, f.reports.Create(context.Background(), &broken))
	require.NoError(t, f.reports.Create(context.Background(), &healthy))

	require.NoError(t, f.svc.Sweep(context.Background(), nextRun))

	sent := mail.sent()
	require.Len(t, sent, 1)
	require.Equal(t, "ok@example.com", sent[0].ToEmail)

	updatedBroken, err := f.reports.FindByID(context.Background(), broken.ID)
	require.NoError(t, err)
	require.True(t, updatedBroken.NextRun.Equal(nextRun))

	updatedHealthy, err := f.reports.FindByID(context.Background(), healthy.ID)
	require.NoError(t, err)
	require.True(t, updatedHealthy.NextRun.Equal(nextRun.AddDate(0, 0, 7)))
}

func TestSweepSkipsInactiveAndFutureSchedules(t *testing.T) {
	f := newReportFixture(t)

	now := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	inactive := models.ScheduledReport{Type: models.ReportTypeWeekly, Email: "a@example.com", NextRun: now.Add(-time.Hour), IsActive: false}
	future := models.ScheduledReport{Type: models.ReportTypeWeekly, Email: "b@example.com", NextRun: now.Add(time.Hour), IsActive: true}
	require.NoError(t, f.reports.Create(context.Background(), &inactive))
	require.NoError(t, f.reports.Create(context.Background(), &future))

	require.NoError(t, f.svc.Sweep(context.Background(), now))
	require.Empty(t, f.mail.sent())
}

func TestSweepReportBodyTalliesPerStudent(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	class := models.Class{Name: "Grade 5", Teacher: "Ms. Noor"}
	require.NoError(t, f.classes.Create(ctx, &class))
	student := models.Student{Name: "Ali", ClassID: class.ID}
	require.NoError(t, f.students.Create(ctx, &student))

	now := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	for day, status := range map[int]string{
		-1: models.AttendanceStatusPresent,
		-2: models.AttendanceStatusPresent,
		-3: models.AttendanceStatusLate,
	} {
		row := models.Attendance{
			StudentID:  student.ID,
			ClassID:    class.ID,
			Date:       now.AddDate(0, 0, day),
			Status:     status,
			RecordedAt: now,
		}
		require.NoError(t, f.attendance.Upsert(ctx, &row))
	}

	classID := class.ID
	report := models.ScheduledReport{
		Type:     models.ReportTypeWeekly,
		Email:    "head@example.com",
		ClassID:  &classID,
		NextRun:  now,
		IsActive: true,
	}
	require.NoError(t, f.reports.Create(ctx, &report))

	require.NoError(t, f.svc.Sweep(ctx, now))

	sent := f.mail.sent()
	require.Len(t, sent, 1)
	require.Contains(t, sent[0].Subject, "Weekly Attendance Report")
	require.Contains(t, sent[0].Subject, "Grade 5")
	require.Contains(t, sent[0].TextBody, "Ali: 2 present, 0 absent, 1 late")
	require.Contains(t, sent[0].HTMLBody, "<td>Ali</td>")
}

func TestSetActiveStopsAndResumes(t *testing.T) {
	f := newReportFixture(t)

	created, err := f.svc.Schedule(context.Background(), dto.ScheduleReportRequest{
		Type:  models.ReportTypeMonthly,
		Email: "head@example.com",
	})
	require.NoError(t, err)

	stopped, err := f.svc.SetActive(context.Background(), created.ID, false)
	require.NoError(t, err)
	require.False(t, stopped.IsActive)

	resumed, err := f.svc.SetActive(context.Background(), created.ID, true)
	require.NoError(t, err)
	require.True(t, resumed.IsActive)

	require.NoError(t, f.svc.Delete(context.Background(), created.ID))
	require.ErrorIs(t, f.svc.Delete(context.Background(), created.ID), gorm.ErrRecordNotFound)

	_, err = f.svc.SetActive(context.Background(), created.ID, true)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

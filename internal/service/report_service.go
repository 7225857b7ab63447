package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/classtrack/classtrack-api/internal/dto"
	"github.com/classtrack/classtrack-api/internal/models"
	"github.com/classtrack/classtrack-api/internal/observability"
	"github.com/classtrack/classtrack-api/internal/repository"
	"github.com/classtrack/classtrack-api/pkg/mailer"
)

const reportHour = 9

// ReportService manages recurring attendance report schedules and performs
// the periodic dispatch sweep.
type ReportService interface {
	Schedule(ctx context.Context, req dto.ScheduleReportRequest) (dto.ScheduledReportResponse, error)
	List(ctx context.Context) ([]dto.ScheduledReportResponse, error)
	// SetActive stops or resumes one schedule.
	SetActive(ctx context.Context, id uint, active bool) (dto.ScheduledReportResponse, error)
	Delete(ctx context.Context, id uint) error
	// Sweep dispatches every active schedule whose NextRun has passed. A
	// successful send advances NextRun by one period from its previous
	// value; a failed send leaves it unchanged so the next tick retries.
	Sweep(ctx context.Context, now time.Time) error
}

type reportService struct {
	reports    repository.ScheduledReportRepository
	attendance repository.AttendanceRepository
	students   repository.StudentRepository
	classes    repository.ClassRepository
	mail       mailer.Mailer
	notifier   NotificationService
	validator  *validator.Validate
	logger     zerolog.Logger
	now        func() time.Time
}

// NewReportService constructs the report service.
func NewReportService(
	reports repository.ScheduledReportRepository,
	attendance repository.AttendanceRepository,
	students repository.StudentRepository,
	classes repository.ClassRepository,
	mail mailer.Mailer,
	notifier NotificationService,
	validate *validator.Validate,
	logger zerolog.Logger,
) ReportService {
	return &reportService{
		reports:    reports,
		attendance: attendance,
		students:   students,
		classes:    classes,
		mail:       mail,
		notifier:   notifier,
		validator:  validate,
		logger:     logger.With().Str("component", "report_service").Logger(),
		now:        time.Now,
	}
}

func (s *reportService) Schedule(ctx context.Context, req dto.ScheduleReportRequest) (dto.ScheduledReportResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ScheduledReportResponse{}, err
	}

	report := models.ScheduledReport{
		Type:      req.Type,
		Email:     req.Email,
		ClassID:   req.ClassID,
		StudentID: req.StudentID,
		NextRun:   firstRun(req.Type, s.now()),
		IsActive:  true,
	}
	if err := s.reports.Create(ctx, &report); err != nil {
		return dto.ScheduledReportResponse{}, err
	}

	return dto.NewScheduledReportResponse(report), nil
}

// firstRun computes the initial dispatch time: next Sunday 09:00 for weekly
// schedules, first of next month 09:00 for monthly ones.
func firstRun(reportType string, from time.Time) time.Time {
	if reportType == models.ReportTypeMonthly {
		firstOfNext := time.Date(from.Year(), from.Month(), 1, reportHour, 0, 0, 0, from.Location()).AddDate(0, 1, 0)
		return firstOfNext
	}

	daysUntilSunday := (int(time.Sunday) - int(from.Weekday()) + 7) % 7
	if daysUntilSunday == 0 {
		daysUntilSunday = 7
	}
	next := from.AddDate(0, 0, daysUntilSunday)
	return time.Date(next.Year(), next.Month(), next.Day(), reportHour, 0, 0, 0, from.Location())
}

func (s *reportService) List(ctx context.Context) ([]dto.ScheduledReportResponse, error) {
	reports, err := s.reports.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewScheduledReportResponseSlice(reports), nil
}

func (s *reportService) SetActive(ctx context.Context, id uint, active bool) (dto.ScheduledReportResponse, error) {
	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		return dto.ScheduledReportResponse{}, err
	}

	report.IsActive = active
	if err := s.reports.Update(ctx, &report); err != nil {
		return dto.ScheduledReportResponse{}, err
	}

	return dto.NewScheduledReportResponse(report), nil
}

func (s *reportService) Delete(ctx context.Context, id uint) error {
	if _, err := s.reports.FindByID(ctx, id); err != nil {
		return err
	}
	return s.reports.Delete(ctx, id)
}

func (s *reportService) Sweep(ctx context.Context, now time.Time) error {
	due, err := s.reports.ListDue(ctx, now)
	if err != nil {
		return err
	}

	for _, report := range due {
		// Row isolation: one schedule's failure must not stop the rest.
		if err := s.dispatch(ctx, report, now); err != nil {
			observability.ReportSweepDispatches().WithLabelValues("error").Inc()
			s.logger.Error().Err(err).Uint("report_id", report.ID).Msg("report dispatch failed, will retry next sweep")
			s.notifyFailure(ctx, report, err)
			continue
		}
		observability.ReportSweepDispatches().WithLabelValues("ok").Inc()
	}

	return nil
}

func (s *reportService) dispatch(ctx context.Context, report models.ScheduledReport, now time.Time) error {
	subject, text, html, err := s.generate(ctx, report, now)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	err = s.mail.Send(ctx, mailer.Message{
		ToEmail:  report.Email,
		Subject:  subject,
		TextBody: text,
		HTMLBody: html,
	})
	if err != nil {
		return fmt.Errorf("send report email: %w", err)
	}

	// Advance from the previous NextRun, keeping the time of day stable.
	if report.Type == models.ReportTypeMonthly {
		report.NextRun = report.NextRun.AddDate(0, 1, 0)
	} else {
		report.NextRun = report.NextRun.AddDate(0, 0, 7)
	}

	return s.reports.Update(ctx, &report)
}

func (s *reportService) generate(ctx context.Context, report models.ScheduledReport, now time.Time) (subject, text, html string, err error) {
	since := now.AddDate(0, 0, -7)
	window := "Weekly"
	if report.Type == models.ReportTypeMonthly {
		since = now.AddDate(0, -1, 0)
		window = "Monthly"
	}

	rows, err := s.attendance.ListWindow(ctx, since, now, report.ClassID, report.StudentID)
	if err != nil {
		return "", "", "", err
	}

	scope := "all classes"
	if report.ClassID != nil {
		scope = fmt.Sprintf("class #%d", *report.ClassID)
		if class, classErr := s.classes.FindByID(ctx, *report.ClassID); classErr == nil {
			scope = class.Name
		}
	}
	if report.StudentID != nil {
		if student, studentErr := s.students.FindByID(ctx, *report.StudentID); studentErr == nil {
			scope += ", " + student.Name
		}
	}

	subject = fmt.Sprintf("%s Attendance Report: %s", window, scope)

	type tally struct {
		present, absent, late int
	}
	perStudent := make(map[uint]*tally)
	for _, row := range rows {
		counts, ok := perStudent[row.StudentID]
		if !ok {
			counts = &tally{}
			perStudent[row.StudentID] = counts
		}
		switch row.Status {
		case models.AttendanceStatusPresent:
			counts.present++
		case models.AttendanceStatusAbsent:
			counts.absent++
		case models.AttendanceStatusLate:
			counts.late++
		}
	}

	studentIDs := make([]uint, 0, len(perStudent))
	for id := range perStudent {
		studentIDs = append(studentIDs, id)
	}
	sort.Slice(studentIDs, func(i, j int) bool { return studentIDs[i] < studentIDs[j] })

	var textBody, htmlBody strings.Builder
	textBody.WriteString(fmt.Sprintf("%s attendance report for %s (%s to %s)\n\n",
		window, scope, since.Format(dto.DateLayout), now.Format(dto.DateLayout)))
	htmlBody.WriteString(fmt.Sprintf("<h2>%s attendance report</h2><p>%s, %s to %s</p><table><tr><th>Student</th><th>Present</th><th>Absent</th><th>Late</th></tr>",
		window, scope, since.Format(dto.DateLayout), now.Format(dto.DateLayout)))

	for _, id := range studentIDs {
		name := fmt.Sprintf("student #%d", id)
		if student, studentErr := s.students.FindByID(ctx, id); studentErr == nil {
			name = student.Name
		}
		counts := perStudent[id]
		textBody.WriteString(fmt.Sprintf("%s: %d present, %d absent, %d late\n", name, counts.present, counts.absent, counts.late))
		htmlBody.WriteString(fmt.Sprintf("<tr><td>%s</td><td>%d</td><td>%d</td><td>%d</td></tr>", name, counts.present, counts.absent, counts.late))
	}

	if len(studentIDs) == 0 {
		textBody.WriteString("No attendance recorded in this period.\n")
		htmlBody.WriteString("<tr><td colspan=\"4\">No attendance recorded in this period.</td></tr>")
	}
	htmlBody.WriteString("</table>")

	return subject, textBody.String(), htmlBody.String(), nil
}

// notifyFailure emits a broadcast so admins see the failed dispatch.
func (s *reportService) notifyFailure(ctx context.Context, report models.ScheduledReport, cause error) {
	reportID := report.ID
	event := dto.NotificationEvent{
		Title:      "Report Delivery Failed",
		Message:    fmt.Sprintf("Scheduled report to **%s** failed: %s", report.Email, cause.Error()),
		Type:       models.NotificationTypeReport,
		EntityType: "scheduled_report",
		EntityID:   &reportID,
		Action:     "failed",
	}
	if _, err := s.notifier.Create(ctx, event); err != nil {
		s.logger.Warn().Err(err).Uint("report_id", report.ID).Msg("failed to emit report failure notification")
	}
}

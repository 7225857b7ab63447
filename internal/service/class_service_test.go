package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/classtrack/classtrack-api/internal/dto"
	"github.com/classtrack/classtrack-api/internal/models"
	"github.com/classtrack/classtrack-api/internal/repository"
)

type classFixture struct {
	classes  ClassService
	students StudentService
	notifier *recordingNotifier
	activity repository.ActivityLogRepository
	db       *gorm.DB
}

func newClassFixture(t *testing.T) classFixture {
	t.Helper()
	db := setupTestDB(t)
	notifier := &recordingNotifier{}
	classRepo := repository.NewClassRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	activity := repository.NewActivityLogRepository(db)
	return classFixture{
		classes:  NewClassService(classRepo, studentRepo, activity, notifier, testValidator(), testLogger()),
		students: NewStudentService(studentRepo, classRepo, notifier, testValidator(), testLogger()),
		notifier: notifier,
		activity: activity,
		db:       db,
	}
}

func teacherActor() Actor {
	return Actor{ID: 1, Name: "Ms. Noor", Role: models.RoleTeacher}
}

func createClass(t *testing.T, f classFixture, name string) dto.ClassResponse {
	t.Helper()
	class, err := f.classes.Create(context.Background(), teacherActor(), dto.ClassCreateRequest{
		Name:      name,
		Teacher:   "Ms. Noor",
		Time:      "08:00",
		StartDate: "2026-01-05",
	})
	require.NoError(t, err)
	return class
}

func createStudent(t *testing.T, f classFixture, name string, classID uint) dto.StudentResponse {
	t.Helper()
	student, err := f.students.Create(context.Background(), teacherActor(), dto.StudentCreateRequest{
		Name:    name,
		ClassID: classID,
	})
	require.NoError(t, err)
	return student
}

func TestClassCreateAndGet(t *testing.T) {
	f := newClassFixture(t)

	created := createClass(t, f, "Grade 5")
	require.Equal(t, models.ClassStatusActive, created.Status)
	require.Equal(t, "2026-01-05", created.StartDate)

	fetched, err := f.classes.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "Grade 5", fetched.Name)

	require.Len(t, f.notifier.events, 1)
	require.Equal(t, models.NotificationTypeClass, f.notifier.events[0].Type)
}

func TestClassCreateValidatesStartDate(t *testing.T) {
	f := newClassFixture(t)

	_, err := f.classes.Create(context.Background(), teacherActor(), dto.ClassCreateRequest{
		Name:      "Grade 5",
		Teacher:   "Ms. Noor",
		StartDate: "05-01-2026",
	})
	require.Error(t, err)
}

func TestClassUpdatePartialFields(t *testing.T) {
	f := newClassFixture(t)
	created := createClass(t, f, "Grade 5")

	updated, err := f.classes.Update(context.Background(), teacherActor(), created.ID, dto.ClassUpdateRequest{
		Teacher: strPtr("Mr. Omar"),
		Status:  strPtr(models.ClassStatusCompleted),
	})
	require.NoError(t, err)
	require.Equal(t, "Mr. Omar", updated.Teacher)
	require.Equal(t, models.ClassStatusCompleted, updated.Status)
	require.Equal(t, "Grade 5", updated.Name)
}

func TestClassUpgradeMovesStudents(t *testing.T) {
	f := newClassFixture(t)
	source := createClass(t, f, "Grade 5")
	createStudent(t, f, "Ali", source.ID)
	createStudent(t, f, "Sara", source.ID)

	successor, err := f.classes.Upgrade(context.Background(), teacherActor(), source.ID, dto.ClassUpgradeRequest{
		Name:      "Grade 6",
		StartDate: "2027-01-04",
	})
	require.NoError(t, err)
	require.Equal(t, "Grade 6", successor.Name)
	require.Equal(t, 2, successor.StudentCount)
	// Teacher carries over when the request leaves it blank.
	require.Equal(t, "Ms. Noor", successor.Teacher)

	old, err := f.classes.Get(context.Background(), source.ID)
	require.NoError(t, err)
	require.Equal(t, models.ClassStatusUpgraded, old.Status)
	require.Equal(t, 0, old.StudentCount)

	moved, err := f.students.List(context.Background(), &successor.ID)
	require.NoError(t, err)
	require.Len(t, moved, 2)

	logs, err := f.activity.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	require.Equal(t, "class.upgraded", logs[0].Action)
}

func TestClassUpgradeUnknownClass(t *testing.T) {
	f := newClassFixture(t)

	_, err := f.classes.Upgrade(context.Background(), teacherActor(), 404, dto.ClassUpgradeRequest{
		Name:      "Grade 6",
		StartDate: "2027-01-04",
	})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestClassDeleteCascadesStudents(t *testing.T) {
	f := newClassFixture(t)
	class := createClass(t, f, "Grade 5")
	createStudent(t, f, "Ali", class.ID)

	require.NoError(t, f.classes.Delete(context.Background(), teacherActor(), class.ID))

	_, err := f.classes.Get(context.Background(), class.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	remaining, err := f.students.List(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, remaining)
}

func TestStudentCreateRequiresExistingClass(t *testing.T) {
	f := newClassFixture(t)

	_, err := f.students.Create(context.Background(), teacherActor(), dto.StudentCreateRequest{
		Name:    "Orphan",
		ClassID: 404,
	})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestStudentUpdateMovesBetweenClasses(t *testing.T) {
	f := newClassFixture(t)
	first := createClass(t, f, "Grade 5A")
	second := createClass(t, f, "Grade 5B")
	student := createStudent(t, f, "Ali", first.ID)

	updated, err := f.students.Update(context.Background(), teacherActor(), student.ID, dto.StudentUpdateRequest{
		ClassID: &second.ID,
	})
	require.NoError(t, err)
	require.Equal(t, second.ID, updated.ClassID)

	// Moving to a class that does not exist is rejected.
	missing := uint(404)
	_, err = f.students.Update(context.Background(), teacherActor(), student.ID, dto.StudentUpdateRequest{
		ClassID: &missing,
	})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

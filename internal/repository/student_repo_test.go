package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/classtrack/classtrack-api/internal/models"
)

func TestStudentRepositoryDeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	classes := NewClassRepository(db)
	students := NewStudentRepository(db)

	class := models.Class{Name: "Grade 5", Teacher: "Ms. Noor", StartDate: testDate(t, "2024-01-08")}
	require.NoError(t, classes.Create(context.Background(), &class))

	doomed := models.Student{Name: "Ali", ClassID: class.ID}
	sibling := models.Student{Name: "Sara", ClassID: class.ID}
	require.NoError(t, students.Create(context.Background(), &doomed))
	require.NoError(t, students.Create(context.Background(), &sibling))

	date := testDate(t, "2024-03-04")
	require.NoError(t, db.Create(&models.Attendance{StudentID: doomed.ID, ClassID: class.ID, Date: date, Status: models.AttendanceStatusPresent, RecordedAt: time.Now()}).Error)
	require.NoError(t, db.Create(&models.Attendance{StudentID: sibling.ID, ClassID: class.ID, Date: date, Status: models.AttendanceStatusAbsent, RecordedAt: time.Now()}).Error)
	require.NoError(t, db.Create(&models.Fee{StudentID: doomed.ID, ClassID: class.ID, FeeToBePaid: "100.00"}).Error)

	require.NoError(t, students.Delete(context.Background(), doomed.ID))

	var attendanceCount, feeCount int64
	require.NoError(t, db.Model(&models.Attendance{}).Where("student_id = ?", doomed.ID).Count(&attendanceCount).Error)
	require.NoError(t, db.Model(&models.Fee{}).Where("student_id = ?", doomed.ID).Count(&feeCount).Error)
	require.Zero(t, attendanceCount)
	require.Zero(t, feeCount)

	// The class and the sibling's rows stay put.
	var siblingAttendance int64
	require.NoError(t, db.Model(&models.Attendance{}).Where("student_id = ?", sibling.ID).Count(&siblingAttendance).Error)
	require.Equal(t, int64(1), siblingAttendance)
	_, err := classes.FindByID(context.Background(), class.ID)
	require.NoError(t, err)
}

func TestStudentRepositoryMoveToClass(t *testing.T) {
	db := setupTestDB(t)
	students := NewStudentRepository(db)

	require.NoError(t, students.Create(context.Background(), &models.Student{Name: "Ali", ClassID: 1}))
	require.NoError(t, students.Create(context.Background(), &models.Student{Name: "Sara", ClassID: 1}))
	require.NoError(t, students.Create(context.Background(), &models.Student{Name: "Omar", ClassID: 2}))

	moved, err := students.MoveToClass(context.Background(), 1, 3)
	require.NoError(t, err)
	require.Equal(t, int64(2), moved)

	rows, err := students.List(context.Background(), uintPtr(3))
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

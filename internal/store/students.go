package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"internmatch-engine/internal/domain"
)

// UpsertStudent writes one student's profile and ordered preferences.
// Demand counts are NOT touched here: run RecomputeDemandCounts once
// after bulk ingestion.
func UpsertStudent(ctx context.Context, db *sql.DB, st domain.Student) error {
	skills, _ := json.Marshal(st.Skills)

	prefs := make([]string, 6)
	copy(prefs, st.Prefs)

	rural := 0
	if st.Rural {
		rural = 1
	}

	_, err := db.ExecContext(ctx, `
INSERT INTO students (id, gpa, skills, reservation, rural, gender, pref_1, pref_2, pref_3, pref_4, pref_5, pref_6)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  gpa = excluded.gpa,
  skills = excluded.skills,
  reservation = excluded.reservation,
  rural = excluded.rural,
  gender = excluded.gender,
  pref_1 = excluded.pref_1,
  pref_2 = excluded.pref_2,
  pref_3 = excluded.pref_3,
  pref_4 = excluded.pref_4,
  pref_5 = excluded.pref_5,
  pref_6 = excluded.pref_6;`,
		st.ID, st.GPA, string(skills), st.Reservation, rural, st.Gender,
		prefs[0], prefs[1], prefs[2], prefs[3], prefs[4], prefs[5],
	)
	if err != nil {
		return fmt.Errorf("upsert student %s: %w", st.ID, err)
	}
	return nil
}

func CountStudents(ctx context.Context, db *sql.DB) (int64, error) {
	var n int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM students;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return n, nil
}

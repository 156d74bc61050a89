package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) PutPublished(ctx context.Context, p Published) error {
	aj, err := json.Marshal(p.Exam)
	if err != nil {
		return err
	}
	sj, err := json.Marshal(p.Student)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO exams (id,title,time_limit_sec,authoring_json,student_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, time_limit_sec=EXCLUDED.time_limit_sec,
		authoring_json=EXCLUDED.authoring_json, student_json=EXCLUDED.student_json`,
		p.Exam.ID, p.Exam.Title, p.Exam.TimeLimitSec, string(aj), string(sj), p.Exam.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert exam: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM answer_keys WHERE exam_id=$1`, p.Exam.ID); err != nil {
		return fmt.Errorf("clear keys: %w", err)
	}
	for _, k := range p.Keys {
		ansJSON, err := json.Marshal(k.Answers)
		if err != nil {
			return err
		}
		keyJSON, err := json.Marshal(k.Key)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO answer_keys (exam_id,section_id,answers_json,key_json,total_questions)
			VALUES ($1,$2,$3,$4,$5)`,
			p.Exam.ID, k.SectionID, string(ansJSON), string(keyJSON), k.TotalQuestions); err != nil {
			return fmt.Errorf("insert key %s: %w", k.SectionID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) GetExam(ctx context.Context, id string) (StudentExam, error) {
	var sj string
	err := s.db.QueryRowContext(ctx, `SELECT student_json FROM exams WHERE id=$1`, id).Scan(&sj)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return StudentExam{}, ErrNotFound
		}
		return StudentExam{}, err
	}
	var e StudentExam
	if err := json.Unmarshal([]byte(sj), &e); err != nil {
		return StudentExam{}, err
	}
	return e, nil
}

func (s *SQLStore) GetPublished(ctx context.Context, id string) (Published, error) {
	var aj, sj string
	err := s.db.QueryRowContext(ctx, `SELECT authoring_json, student_json FROM exams WHERE id=$1`, id).Scan(&aj, &sj)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Published{}, ErrNotFound
		}
		return Published{}, err
	}
	var p Published
	if err := json.Unmarshal([]byte(aj), &p.Exam); err != nil {
		return Published{}, err
	}
	if err := json.Unmarshal([]byte(sj), &p.Student); err != nil {
		return Published{}, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT section_id, answers_json, key_json, total_questions
		FROM answer_keys WHERE exam_id=$1`, id)
	if err != nil {
		return Published{}, err
	}
	defer rows.Close()
	byID := map[string]SectionKey{}
	for rows.Next() {
		var (
			k                SectionKey
			ansJSON, keyJSON string
		)
		if err := rows.Scan(&k.SectionID, &ansJSON, &keyJSON, &k.TotalQuestions); err != nil {
			return Published{}, err
		}
		if err := json.Unmarshal([]byte(ansJSON), &k.Answers); err != nil {
			return Published{}, err
		}
		if err := json.Unmarshal([]byte(keyJSON), &k.Key); err != nil {
			return Published{}, err
		}
		byID[k.SectionID] = k
	}
	if err := rows.Err(); err != nil {
		return Published{}, err
	}
	// keep section order
	for _, sec := range p.Exam.Sections {
		if k, ok := byID[sec.ID]; ok {
			p.Keys = append(p.Keys, k)
		}
	}
	return p, nil
}

func (s *SQLStore) SaveSubmission(ctx context.Context, sub Submission) error {
	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return err
	}
	recs := sub.Recordings
	if recs == nil {
		recs = []string{}
	}
	recordings, err := json.Marshal(recs)
	if err != nil {
		return err
	}
	report, err := json.Marshal(sub.Report)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO section_progress (exam_id,section_id,user_id,submission_id,completed_at)
		VALUES ($1,$2,$3,$4,$5) ON CONFLICT DO NOTHING`,
		sub.ExamID, sub.SectionID, sub.UserID, sub.ID, sub.SubmittedAt)
	if err != nil {
		return fmt.Errorf("mark section: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSectionCompleted
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO submissions
		(id,exam_id,section_id,user_id,answers_json,recordings_json,report_json,correct_count,total_questions,submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		sub.ID, sub.ExamID, sub.SectionID, sub.UserID, string(answers), string(recordings), string(report),
		sub.Report.CorrectCount, sub.Report.TotalQuestions, sub.SubmittedAt)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return tx.Commit()
}

func (s *SQLStore) GetSubmission(ctx context.Context, id string) (Submission, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,exam_id,section_id,user_id,answers_json,recordings_json,report_json,submitted_at
		FROM submissions WHERE id=$1`, id)
	var (
		sub                Submission
		aj, rj, reportJSON string
	)
	if err := row.Scan(&sub.ID, &sub.ExamID, &sub.SectionID, &sub.UserID, &aj, &rj, &reportJSON, &sub.SubmittedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Submission{}, ErrNotFound
		}
		return Submission{}, err
	}
	if err := json.Unmarshal([]byte(aj), &sub.Answers); err != nil {
		sub.Answers = map[string]string{}
	}
	if err := json.Unmarshal([]byte(rj), &sub.Recordings); err != nil {
		sub.Recordings = nil
	}
	if err := json.Unmarshal([]byte(reportJSON), &sub.Report); err != nil {
		return Submission{}, err
	}
	return sub, nil
}

func (s *SQLStore) ListProgress(ctx context.Context, examID, userID string) ([]SectionProgress, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT section_id, submission_id, completed_at FROM section_progress
		WHERE exam_id=$1 AND user_id=$2 ORDER BY section_id`, examID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []SectionProgress{}
	for rows.Next() {
		p := SectionProgress{Completed: true}
		if err := rows.Scan(&p.SectionID, &p.SubmissionID, &p.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

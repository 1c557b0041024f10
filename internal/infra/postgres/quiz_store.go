package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"classquiz-service/internal/domain"
)

// QuizStore persists quizzes, questions and results in Postgres. All
// statements are parameterized; question order is kept in a position column.
type QuizStore struct {
	pool *pgxpool.Pool
}

func NewQuizStore(pool *pgxpool.Pool) *QuizStore {
	return &QuizStore{pool: pool}
}

func (s *QuizStore) GetQuizWithQuestions(ctx context.Context, id string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, description, teacher_id, created_at FROM quizzes WHERE id=$1`, id).
		Scan(&quiz.ID, &quiz.Title, &quiz.Description, &quiz.TeacherID, &quiz.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, storeErr("load quiz", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT text, image_url, options, correct_index FROM questions WHERE quiz_id=$1 ORDER BY position`, id)
	if err != nil {
		return domain.Quiz{}, storeErr("load questions", err)
	}
	defer rows.Close()

	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.Text, &q.ImageURL, &q.Options, &q.CorrectIndex); err != nil {
			return domain.Quiz{}, storeErr("scan question", err)
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return domain.Quiz{}, storeErr("iterate questions", err)
	}
	return quiz, nil
}

func (s *QuizStore) ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT q.id, q.title, q.description, q.teacher_id, q.created_at, COUNT(qs.quiz_id)
		FROM quizzes q
		LEFT JOIN questions qs ON qs.quiz_id = q.id
		GROUP BY q.id
		ORDER BY q.created_at, q.id`)
	if err != nil {
		return nil, storeErr("list quizzes", err)
	}
	defer rows.Close()

	var summaries []domain.QuizSummary
	for rows.Next() {
		var sum domain.QuizSummary
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.Description, &sum.TeacherID, &sum.CreatedAt, &sum.QuestionCount); err != nil {
			return nil, storeErr("scan quiz summary", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate quizzes", err)
	}
	return summaries, nil
}

// CreateQuizWithQuestions writes the quiz and its questions in one
// transaction so a quiz is never visible half-authored.
func (s *QuizStore) CreateQuizWithQuestions(ctx context.Context, title, description, teacherID string, questions []domain.Question) (string, error) {
	id := uuid.NewString()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", storeErr("begin create quiz", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO quizzes (id, title, description, teacher_id, created_at) VALUES ($1, $2, $3, $4, now())`,
		id, title, description, teacherID)
	if err != nil {
		return "", storeErr("insert quiz", err)
	}
	for pos, q := range questions {
		_, err = tx.Exec(ctx,
			`INSERT INTO questions (quiz_id, position, text, image_url, options, correct_index) VALUES ($1, $2, $3, $4, $5, $6)`,
			id, pos, q.Text, q.ImageURL, q.Options, q.CorrectIndex)
		if err != nil {
			return "", storeErr(fmt.Sprintf("insert question %d", pos), err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return "", storeErr("commit create quiz", err)
	}
	return id, nil
}

// DeleteQuizCascade removes the quiz; questions go with it via the FK.
// Results reference the quiz only by id and survive.
func (s *QuizStore) DeleteQuizCascade(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quizzes WHERE id=$1`, id)
	if err != nil {
		return storeErr("delete quiz", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *QuizStore) RecordResult(ctx context.Context, quizID, studentID string, score, total int) error {
	// Snapshot the title at submission time so results survive quiz deletion.
	_, err := s.pool.Exec(ctx, `
		INSERT INTO results (id, quiz_id, quiz_title, student_id, score, total, submitted_at)
		VALUES ($1, $2, COALESCE((SELECT title FROM quizzes WHERE id=$2), ''), $3, $4, $5, now())`,
		uuid.NewString(), quizID, studentID, score, total)
	if err != nil {
		return storeErr("record result", err)
	}
	return nil
}

func (s *QuizStore) ListResultsForStudent(ctx context.Context, studentID string) ([]domain.Result, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.quiz_id, r.quiz_title, r.student_id, r.score, r.total, r.submitted_at
		FROM results r
		WHERE r.student_id=$1
		ORDER BY r.submitted_at, r.id`, studentID)
	if err != nil {
		return nil, storeErr("list results for student", err)
	}
	defer rows.Close()
	return scanResults(rows)
}

func (s *QuizStore) ListResultsForQuiz(ctx context.Context, quizID string) ([]domain.Result, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.quiz_id, r.quiz_title, r.student_id, COALESCE(st.display_name, r.student_id),
		       r.score, r.total, r.submitted_at
		FROM results r
		LEFT JOIN students st ON st.id = r.student_id
		WHERE r.quiz_id=$1
		ORDER BY r.submitted_at, r.id`, quizID)
	if err != nil {
		return nil, storeErr("list results for quiz", err)
	}
	defer rows.Close()

	var results []domain.Result
	for rows.Next() {
		var r domain.Result
		if err := rows.Scan(&r.ID, &r.QuizID, &r.QuizTitle, &r.StudentID, &r.StudentName, &r.Score, &r.Total, &r.SubmittedAt); err != nil {
			return nil, storeErr("scan result", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate results", err)
	}
	return results, nil
}

func scanResults(rows pgx.Rows) ([]domain.Result, error) {
	var results []domain.Result
	for rows.Next() {
		var r domain.Result
		if err := rows.Scan(&r.ID, &r.QuizID, &r.QuizTitle, &r.StudentID, &r.Score, &r.Total, &r.SubmittedAt); err != nil {
			return nil, storeErr("scan result", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate results", err)
	}
	return results, nil
}

// storeErr tags an infra failure so the transport layer can map it to a
// gateway error without inspecting pgx internals.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}

package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/alumnikeeper/internal/common"
	"github.com/dmitrijs2005/alumnikeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	insertQ   = `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*email,\s*roll_no,\s*password_hash,\s*profile\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*RETURNING\s+created_at,\s*updated_at\s*$`
	byEmailQ  = `(?s)^SELECT\s+id,\s*email,\s*roll_no,\s*password_hash,\s*profile,\s*created_at,\s*updated_at\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`
	byRollQ   = `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+roll_no\s*=\s*\$1$`
	lockQ     = `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+roll_no\s*=\s*\$1\s+FOR\s+UPDATE$`
	updateQ   = `(?s)^UPDATE\s+users\s+SET\s+email\s*=\s*\$2,\s*roll_no\s*=\s*\$3,\s*password_hash\s*=\s*\$4,\s*profile\s*=\s*\$5,\s*updated_at\s*=\s*\$6\s+WHERE\s+id\s*=\s*\$1\s*$`
	deleteQ   = `(?s)^DELETE\s+FROM\s+users\s+WHERE\s+roll_no\s*=\s*\$1\s+RETURNING\s+id,.*updated_at$`
	userCols  = []string{"id", "email", "roll_no", "password_hash", "profile", "created_at", "updated_at"}
	fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	repo := NewPostgresRepository(db)
	repo.now = func() time.Time { return fixedTime }
	repo.newID = func() string { return "11111111-1111-1111-1111-111111111111" }
	return repo, mock, db
}

func userRow(rollNo, email string) *sqlmock.Rows {
	return sqlmock.NewRows(userCols).
		AddRow("u-1", email, rollNo, "hash", []byte(`{"name":"Ann"}`), fixedTime, fixedTime)
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WithArgs("11111111-1111-1111-1111-111111111111", "a@x.com", "R1", "hash", []byte(`{"name":"Ann"}`)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(fixedTime, fixedTime))

	u := &models.User{Email: "a@x.com", RollNo: "R1", PasswordHash: "hash", Profile: map[string]any{"name": "Ann"}}
	got, err := repo.Create(context.Background(), u)
	require.NoError(t, err)

	assert.Equal(t, "11111111-1111-1111-1111-111111111111", got.ID)
	assert.Equal(t, fixedTime, got.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UniqueViolations(t *testing.T) {
	tests := []struct {
		constraint string
		want       error
	}{
		{emailConstraint, common.ErrEmailExists},
		{rollNoConstraint, common.ErrRollNoExists},
		{"something_else", common.ErrorAlreadyExists},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			mock.ExpectQuery(insertQ).
				WillReturnError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: tt.constraint})

			_, err := repo.Create(context.Background(), &models.User{Email: "a@x.com", RollNo: "R1"})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Email: "a@x.com", RollNo: "R1"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(byEmailQ).WithArgs("a@x.com").WillReturnRows(userRow("R1", "a@x.com"))

	got, err := repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, "R1", got.RollNo)
	assert.Equal(t, "Ann", got.Profile["name"])
}

func TestGetByRollNo_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(byRollQ).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByRollNo(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetByRollNo_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(byRollQ).WithArgs("R1").WillReturnError(errors.New("db err"))

	_, err := repo.GetByRollNo(context.Background(), "R1")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
	assert.False(t, errors.Is(err, common.ErrorNotFound))
}

func TestUpdateByRollNo_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	email := "b@x.com"
	mock.ExpectBegin()
	mock.ExpectQuery(lockQ).WithArgs("R1").WillReturnRows(userRow("R1", "a@x.com"))
	mock.ExpectExec(updateQ).
		WithArgs("u-1", "b@x.com", "R1", "hash", []byte(`{"city":"Riga","name":"Ann"}`), fixedTime).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := repo.UpdateByRollNo(context.Background(), "R1", &models.UserPatch{
		Email:   &email,
		Profile: map[string]any{"city": "Riga"},
	})
	require.NoError(t, err)

	assert.Equal(t, "b@x.com", got.Email)
	assert.Equal(t, "Riga", got.Profile["city"])
	assert.Equal(t, fixedTime, got.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateByRollNo_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(lockQ).WithArgs("ghost").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.UpdateByRollNo(context.Background(), "ghost", &models.UserPatch{})
	assert.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateByRollNo_Conflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	roll := "R2"
	mock.ExpectBegin()
	mock.ExpectQuery(lockQ).WithArgs("R1").WillReturnRows(userRow("R1", "a@x.com"))
	mock.ExpectExec(updateQ).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: rollNoConstraint})
	mock.ExpectRollback()

	_, err := repo.UpdateByRollNo(context.Background(), "R1", &models.UserPatch{RollNo: &roll})
	assert.ErrorIs(t, err, common.ErrRollNoExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByRollNo(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(deleteQ).WithArgs("R1").WillReturnRows(userRow("R1", "a@x.com"))
	mock.ExpectQuery(deleteQ).WithArgs("R1").WillReturnError(sql.ErrNoRows)

	got, err := repo.DeleteByRollNo(context.Background(), "R1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)

	_, err = repo.DeleteByRollNo(context.Background(), "R1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

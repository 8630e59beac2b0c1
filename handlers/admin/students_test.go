package admin

import (
	"net/http"
	"testing"
	"time"

	"codemaster/database/testutil"
	"codemaster/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetStudentAchievements(t *testing.T) {
	app, db := setup(t)
	mod := testutil.SeedModule(t, db, "Fundamentos", 2)
	user := testutil.SeedUser(t, db, "aluno@example.com")
	testutil.Complete(t, db, user.ID, mod.Topics[0].ID, time.Now())

	earnedAt := time.Now().UTC()
	require.NoError(t, db.Create(&models.UserAchievement{
		UserID: user.ID, AchievementID: 1, ProgressCurrent: 1, ProgressTarget: 1, EarnedAt: &earnedAt,
	}).Error)
	require.NoError(t, db.Create(&models.UserAchievement{
		UserID: user.ID, AchievementID: 2, ProgressCurrent: 1, ProgressTarget: 5,
	}).Error)

	status, body := send(t, app, http.MethodGet, "/students/"+user.ID.String()+"/achievements", "")
	require.Equal(t, http.StatusOK, status)

	detail := body["detail"].(map[string]any)
	assert.Equal(t, float64(1), detail["topics_completed"])
	assert.Equal(t, float64(2), detail["total_topics"])
	assert.Equal(t, float64(50), detail["progress_percent"])
	assert.Equal(t, float64(1), detail["earned_count"], "rows in progress are not earned")
	assert.Equal(t, float64(10), detail["total_points"])
	assert.Len(t, detail["earned"], 1)
}

func TestGetStudentAchievementsErrors(t *testing.T) {
	app, db := setup(t)
	admin := testutil.SeedUser(t, db, "admin@example.com")
	require.NoError(t, db.Model(admin).Update("role", models.RoleAdmin).Error)

	tests := []struct {
		name   string
		id     string
		status int
	}{
		{name: "malformed id", id: "42", status: http.StatusBadRequest},
		{name: "unknown user", id: uuid.NewString(), status: http.StatusNotFound},
		{name: "not a student", id: admin.ID.String(), status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := send(t, app, http.MethodGet, "/students/"+tt.id+"/achievements", "")
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestGetRanking(t *testing.T) {
	app, db := setup(t)
	mod := testutil.SeedModule(t, db, "Fundamentos", 3)
	ana := testutil.SeedUser(t, db, "ana@example.com")
	bruno := testutil.SeedUser(t, db, "bruno@example.com")
	for _, topic := range mod.Topics {
		testutil.Complete(t, db, bruno.ID, topic.ID, time.Now())
	}
	testutil.Complete(t, db, ana.ID, mod.Topics[0].ID, time.Now())

	status, body := send(t, app, http.MethodGet, "/ranking", "")
	require.Equal(t, http.StatusOK, status)

	ranking := body["ranking"].([]any)
	require.Len(t, ranking, 2)
	top := ranking[0].(map[string]any)
	assert.Equal(t, bruno.ID.String(), top["user_id"])
	assert.Equal(t, float64(3), top["topics_completed"])
	assert.Equal(t, float64(1), top["position"])
}

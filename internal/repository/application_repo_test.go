package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/applytrack/internal/domain"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) (*ApplicationRepository, *testClock) {
	t.Helper()
	clock := &testClock{now: date("2024-03-01")}
	return NewApplicationRepository(openTestDB(t)).WithClock(clock.Now), clock
}

func TestCreate_WritesCreationEvent(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, domain.ApplicationInput{
		Company:      "Acme",
		Title:        "Engineer",
		Status:       strPtr("Interview"),
		DateApplied:  timePtr(date("2024-01-01")),
		ProcessSteps: []string{"Screen", "Onsite"},
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	events, err := repo.ListHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Interview", events[0].Status)
	assert.True(t, events[0].Date.Equal(date("2024-01-01")), "event date = %v", events[0].Date)

	app, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StringArray{"Screen", "Onsite"}, app.ProcessSteps)
	assert.True(t, app.LastUpdated.Equal(date("2024-03-01")))
}

func TestCreate_Defaults(t *testing.T) {
	repo, clock := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, domain.ApplicationInput{Company: "Acme", Title: "Engineer"})
	require.NoError(t, err)

	app, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApplied, app.Status)
	assert.True(t, app.DateApplied.Equal(clock.Now()))
	assert.Empty(t, app.ProcessSteps)

	events, err := repo.ListHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.StatusApplied, events[0].Status)
	assert.True(t, events[0].Date.Equal(clock.Now()))
}

func TestCreate_RejectsBlankNaturalKey(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input domain.ApplicationInput
		field string
	}{
		{name: "empty company", input: domain.ApplicationInput{Title: "Engineer"}, field: "company"},
		{name: "blank company", input: domain.ApplicationInput{Company: "   ", Title: "Engineer"}, field: "company"},
		{name: "empty title", input: domain.ApplicationInput{Company: "Acme"}, field: "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Create(ctx, tt.input)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	apps, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestCreate_RollsBackWhenHistoryInsertFails(t *testing.T) {
	db := openTestDB(t)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	err := db.Callback().Create().Before("gorm:create").Register("test:fail_history", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == "history" {
			tx.AddError(errors.New("disk full"))
		}
	})
	require.NoError(t, err)

	_, err = repo.Create(ctx, domain.ApplicationInput{Company: "Acme", Title: "Engineer"})
	var serr *domain.StorageError
	require.ErrorAs(t, err, &serr)

	apps, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, apps, "application row must not survive a failed history insert")
}

func TestUpdate_AppendsHistoryOnlyOnStatusChange(t *testing.T) {
	repo, clock := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, domain.ApplicationInput{Company: "Acme", Title: "Engineer"})
	require.NoError(t, err)

	steps := []domain.ApplicationPatch{
		{Notes: strPtr("called recruiter")},
		{Status: strPtr("Applied")},
		{Status: strPtr("Phone Screen")},
		{Status: strPtr("Phone Screen"), Notes: strPtr("same status again")},
		{Outcome: strPtr("pending")},
		{Status: strPtr("Interview")},
		{Status: strPtr("Applied")},
	}
	previous := domain.StatusApplied
	changes := 0
	for i, patch := range steps {
		clock.Set(clock.Now().Add(time.Hour))
		require.NoError(t, repo.Update(ctx, id, patch), "update %d", i)
		if patch.Status != nil && *patch.Status != previous {
			changes++
			previous = *patch.Status
		}
	}

	events, err := repo.ListHistory(ctx, id)
	require.NoError(t, err)
	assert.Len(t, events, 1+changes)
	assert.Equal(t, "Applied", events[0].Status, "newest event first")

	app, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Applied", app.Status)
	assert.Equal(t, "called recruiter", app.Notes)
	assert.Equal(t, "pending", app.Outcome)
	assert.True(t, app.LastUpdated.Equal(clock.Now()))
}

func TestUpdate_RewritesLowestIDEventOnly(t *testing.T) {
	repo, clock := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, domain.ApplicationInput{
		Company:     "Acme",
		Title:       "Engineer",
		DateApplied: timePtr(date("2024-01-05")),
	})
	require.NoError(t, err)

	clock.Set(date("2024-01-10"))
	require.NoError(t, repo.Update(ctx, id, domain.ApplicationPatch{Status: strPtr("Interview")}))
	clock.Set(date("2024-01-20"))
	require.NoError(t, repo.Update(ctx, id, domain.ApplicationPatch{Status: strPtr("Offer")}))

	clock.Set(date("2024-01-25"))
	require.NoError(t, repo.Update(ctx, id, domain.ApplicationPatch{DateApplied: timePtr(date("2024-01-01"))}))

	events, err := repo.ListHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, events, 3)

	byStatus := map[string]time.Time{}
	for _, e := range events {
		byStatus[e.Status] = e.Date
	}
	assert.True(t, byStatus["Applied"].Equal(date("2024-01-01")), "creation event moved: %v", byStatus["Applied"])
	assert.True(t, byStatus["Interview"].Equal(date("2024-01-10")))
	assert.True(t, byStatus["Offer"].Equal(date("2024-01-20")))

	app, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, app.DateApplied.Equal(date("2024-01-01")))
}

func TestUpdate_DateAndStatusInOneCall(t *testing.T) {
	repo, clock := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, domain.ApplicationInput{
		Company:     "Acme",
		Title:       "Engineer",
		DateApplied: timePtr(date("2024-01-05")),
	})
	require.NoError(t, err)

	clock.Set(date("2024-02-01"))
	require.NoError(t, repo.Update(ctx, id, domain.ApplicationPatch{
		Status:      strPtr("Interview"),
		DateApplied: timePtr(date("2024-01-02")),
	}))

	events, err := repo.ListHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Interview", events[0].Status)
	assert.True(t, events[0].Date.Equal(date("2024-02-01")))
	assert.Equal(t, "Applied", events[1].Status)
	assert.True(t, events[1].Date.Equal(date("2024-01-02")))
}

func TestUpdate_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	err := repo.Update(context.Background(), 404, domain.ApplicationPatch{Notes: strPtr("x")})
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, int64(404), nf.ID)
}

func TestUpdate_RejectsBlankTitle(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, domain.ApplicationInput{Company: "Acme", Title: "Engineer"})
	require.NoError(t, err)

	err = repo.Update(ctx, id, domain.ApplicationPatch{Title: strPtr("")})
	assert.True(t, domain.IsValidation(err))
}

func TestUpdate_LastUpdatedNeverMovesBackwards(t *testing.T) {
	repo, clock := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, domain.ApplicationInput{Company: "Acme", Title: "Engineer"})
	require.NoError(t, err)

	clock.Set(date("2023-12-31"))
	require.NoError(t, repo.Update(ctx, id, domain.ApplicationPatch{Notes: strPtr("clock skew")}))

	app, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, app.LastUpdated.Equal(date("2024-03-01")), "last_updated = %v", app.LastUpdated)
}

func TestDelete_CascadesAndIsIdempotent(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, domain.ApplicationInput{Company: "Acme", Title: "Engineer"})
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, id, domain.ApplicationPatch{Status: strPtr("Interview")}))

	keep, err := repo.Create(ctx, domain.ApplicationInput{Company: "Globex", Title: "Analyst"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, id))
	require.NoError(t, repo.Delete(ctx, id))
	require.NoError(t, repo.Delete(ctx, 9999))

	events, err := repo.ListHistory(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, events)

	apps, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, keep, apps[0].ID)

	remaining, err := repo.ListHistory(ctx, keep)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestList_MostRecentlyTouchedFirst(t *testing.T) {
	repo, clock := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.Create(ctx, domain.ApplicationInput{Company: "A", Title: "One"})
	require.NoError(t, err)
	clock.Set(clock.Now().Add(time.Minute))
	second, err := repo.Create(ctx, domain.ApplicationInput{Company: "B", Title: "Two"})
	require.NoError(t, err)
	clock.Set(clock.Now().Add(time.Minute))
	require.NoError(t, repo.Update(ctx, first, domain.ApplicationPatch{Notes: strPtr("touched")}))

	apps, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, first, apps[0].ID)
	assert.Equal(t, second, apps[1].ID)
}

func TestListGlobalHistory(t *testing.T) {
	repo, clock := newTestRepo(t)
	ctx := context.Background()

	acme, err := repo.Create(ctx, domain.ApplicationInput{Company: "Acme", Title: "Engineer", DateApplied: timePtr(date("2024-01-01"))})
	require.NoError(t, err)
	_, err = repo.Create(ctx, domain.ApplicationInput{Company: "Globex", Title: "Analyst", DateApplied: timePtr(date("2024-01-02"))})
	require.NoError(t, err)
	clock.Set(date("2024-01-03"))
	require.NoError(t, repo.Update(ctx, acme, domain.ApplicationPatch{Status: strPtr("Interview")}))

	feed, err := repo.ListGlobalHistory(ctx, 2)
	require.NoError(t, err)
	require.Len(t, feed, 2)

	assert.Equal(t, "Acme", feed[0].Company)
	assert.Equal(t, "Engineer", feed[0].Title)
	assert.Equal(t, "Interview", feed[0].Status)
	assert.True(t, feed[0].Date.Equal(date("2024-01-03")))
	assert.Equal(t, "Globex", feed[1].Company)
	assert.Equal(t, domain.StatusApplied, feed[1].Status)
}

func TestFindByNaturalKey(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, domain.ApplicationInput{Company: "Acme", Title: "Engineer"})
	require.NoError(t, err)
	accented, err := repo.Create(ctx, domain.ApplicationInput{Company: "École\t", Title: "Designer"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		key     domain.Key
		matchID int64
	}{
		{name: "normalized folds non-ASCII case and tabs", key: domain.NaturalKey("école", " DESIGNER\n", domain.MatchNormalized), matchID: accented},
		{name: "exact keeps accents case sensitive", key: domain.NaturalKey("école", "Designer", domain.MatchExact)},
		{name: "exact hit", key: domain.NaturalKey("Acme", "Engineer", domain.MatchExact), matchID: id},
		{name: "exact is case sensitive", key: domain.NaturalKey("acme", "Engineer", domain.MatchExact)},
		{name: "exact keeps whitespace", key: domain.NaturalKey("Acme ", "Engineer", domain.MatchExact)},
		{name: "normalized folds case and trims", key: domain.NaturalKey(" ACME ", "engineer", domain.MatchNormalized), matchID: id},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, err := repo.FindByNaturalKey(ctx, tt.key)
			require.NoError(t, err)
			if tt.matchID == 0 {
				assert.Nil(t, app)
				return
			}
			require.NotNil(t, app)
			assert.Equal(t, tt.matchID, app.ID)
		})
	}
}

func TestMigrateStatus(t *testing.T) {
	repo, clock := newTestRepo(t)
	ctx := context.Background()

	var moved []int64
	for _, company := range []string{"A", "B", "C"} {
		id, err := repo.Create(ctx, domain.ApplicationInput{Company: company, Title: "Engineer", Status: strPtr("Interview")})
		require.NoError(t, err)
		moved = append(moved, id)
	}
	other, err := repo.Create(ctx, domain.ApplicationInput{Company: "D", Title: "Engineer"})
	require.NoError(t, err)

	clock.Set(date("2024-04-01"))
	n, err := repo.MigrateStatus(ctx, "Interview", "Offer")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, id := range moved {
		app, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Offer", app.Status)
		assert.True(t, app.LastUpdated.Equal(date("2024-04-01")))

		events, err := repo.ListHistory(ctx, id)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "Offer", events[0].Status)
	}

	untouched, err := repo.ListHistory(ctx, other)
	require.NoError(t, err)
	assert.Len(t, untouched, 1)

	n, err = repo.MigrateStatus(ctx, "Offer", "Offer")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCountByStatus(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	for _, status := range []string{"Applied", "Interview", "Applied"} {
		_, err := repo.Create(ctx, domain.ApplicationInput{Company: "Acme", Title: "Engineer", Status: strPtr(status)})
		require.NoError(t, err)
	}

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, []StatusCount{{Status: "Applied", Count: 2}, {Status: "Interview", Count: 1}}, counts)
}

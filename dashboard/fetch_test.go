package dashboard

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/serenityspa/serenity-api/model"
)

func setupFetchDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:dashboard_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.Therapist{}, &model.Booking{}, &model.Review{}); err != nil {
		t.Fatalf("failed to auto-migrate models: %v", err)
	}
	return db
}

func seedTherapist(t *testing.T, db *gorm.DB, userID uint, blockouts string) model.Therapist {
	t.Helper()
	therapist := model.Therapist{
		FullName: "Maya Chen",
		IsActive: true,
		UserID:   &userID,
	}
	if blockouts != "" {
		therapist.BlockoutDates = datatypes.JSON(blockouts)
	}
	if err := db.Create(&therapist).Error; err != nil {
		t.Fatalf("failed to seed therapist: %v", err)
	}
	return therapist
}

func TestResolveTherapistNotLinked(t *testing.T) {
	db := setupFetchDB(t)
	f := NewFetcher(db)

	_, err := f.ResolveTherapist(42)
	assert.ErrorIs(t, err, ErrNotLinked)
}

func TestResolveTherapistLinked(t *testing.T) {
	db := setupFetchDB(t)
	seeded := seedTherapist(t, db, 42, "")

	f := NewFetcher(db)
	got, err := f.ResolveTherapist(42)
	assert.NoError(t, err)
	assert.Equal(t, seeded.ID, got.ID)
	assert.Equal(t, "Maya Chen", got.FullName)
}

func TestLoadBookingsOrderedByDate(t *testing.T) {
	db := setupFetchDB(t)
	therapist := seedTherapist(t, db, 1, "")
	other := seedTherapist(t, db, 2, "")

	for _, d := range []string{"2025-03-20", "2025-03-10", "2025-03-15"} {
		b := model.Booking{
			ServiceID:   1,
			TherapistID: &therapist.ID,
			Status:      model.BookingConfirmed,
			BookingDate: d,
			BookingTime: "10:00",
		}
		assert.NoError(t, db.Create(&b).Error)
	}
	stray := model.Booking{ServiceID: 1, TherapistID: &other.ID, Status: model.BookingPending, BookingDate: "2025-03-01", BookingTime: "09:00"}
	assert.NoError(t, db.Create(&stray).Error)

	f := NewFetcher(db)
	bookings, err := f.LoadBookings(therapist.ID)
	assert.NoError(t, err)
	assert.Len(t, bookings, 3)
	assert.Equal(t, "2025-03-10", bookings[0].BookingDate)
	assert.Equal(t, "2025-03-20", bookings[2].BookingDate)
}

func TestLoadReviewsNewestFirst(t *testing.T) {
	db := setupFetchDB(t)
	therapist := seedTherapist(t, db, 1, "")

	old := model.Review{TherapistID: therapist.ID, Rating: 3, Comment: "fine"}
	assert.NoError(t, db.Create(&old).Error)
	assert.NoError(t, db.Model(&old).Update("created_at", time.Now().Add(-48*time.Hour)).Error)
	recent := model.Review{TherapistID: therapist.ID, Rating: 5, Comment: "great"}
	assert.NoError(t, db.Create(&recent).Error)

	f := NewFetcher(db)
	reviews, err := f.LoadReviews(therapist.ID)
	assert.NoError(t, err)
	assert.Len(t, reviews, 2)
	assert.Equal(t, 5, reviews[0].Rating)
}

func TestLoadFullSnapshot(t *testing.T) {
	db := setupFetchDB(t)
	therapist := seedTherapist(t, db, 9, `["2025-04-01","2025-04-02"]`)
	b := model.Booking{ServiceID: 1, TherapistID: &therapist.ID, Status: model.BookingPending, BookingDate: "2025-04-10", BookingTime: "11:00"}
	assert.NoError(t, db.Create(&b).Error)

	f := NewFetcher(db)
	data, err := f.Load(9)
	assert.NoError(t, err)
	assert.Equal(t, therapist.ID, data.Therapist.ID)
	assert.Len(t, data.Bookings, 1)
	assert.Equal(t, []string{"2025-04-01", "2025-04-02"}, data.Blockouts)
}

func TestLoadLegacyBlockoutEncoding(t *testing.T) {
	db := setupFetchDB(t)
	seedTherapist(t, db, 5, `"[\"2025-06-01\"]"`)

	f := NewFetcher(db)
	data, err := f.Load(5)
	assert.NoError(t, err)
	assert.Equal(t, []string{"2025-06-01"}, data.Blockouts)
}

func TestLoadMalformedBlockoutDegradesToEmpty(t *testing.T) {
	db := setupFetchDB(t)
	seedTherapist(t, db, 6, `"oops"`)

	f := NewFetcher(db)
	data, err := f.Load(6)
	assert.NoError(t, err)
	assert.Empty(t, data.Blockouts)
}

func TestReloadRefreshesSnapshot(t *testing.T) {
	db := setupFetchDB(t)
	therapist := seedTherapist(t, db, 3, "")

	f := NewFetcher(db)
	data, err := f.Load(3)
	assert.NoError(t, err)
	assert.Empty(t, data.Bookings)

	b := model.Booking{ServiceID: 1, TherapistID: &therapist.ID, Status: model.BookingConfirmed, BookingDate: "2025-05-05", BookingTime: "12:00"}
	assert.NoError(t, db.Create(&b).Error)

	assert.NoError(t, f.Reload(data))
	assert.Len(t, data.Bookings, 1)
}

func TestReloadWithoutLinkFails(t *testing.T) {
	db := setupFetchDB(t)
	f := NewFetcher(db)
	data := &Data{}
	assert.ErrorIs(t, f.Reload(data), ErrNotLinked)
}

func TestGormStoreSaveBlockoutDates(t *testing.T) {
	db := setupFetchDB(t)
	therapist := seedTherapist(t, db, 8, `["2025-01-01"]`)

	store := NewGormStore(db)
	assert.NoError(t, store.SaveBlockoutDates(therapist.ID, []string{"2025-07-02", "2025-07-01"}))

	f := NewFetcher(db)
	data, err := f.Load(8)
	assert.NoError(t, err)
	// Full replacement, not a merge.
	assert.Equal(t, []string{"2025-07-01", "2025-07-02"}, data.Blockouts)
}

func TestGormStoreUnknownTherapist(t *testing.T) {
	db := setupFetchDB(t)
	store := NewGormStore(db)
	assert.ErrorIs(t, store.SaveBlockoutDates(999, []string{"2025-07-01"}), gorm.ErrRecordNotFound)
}

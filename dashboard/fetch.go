package dashboard

import (
	"errors"
	"log"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/serenityspa/serenity-api/model"
)

// ErrNotLinked means the authenticated account has no therapist profile.
// Distinct from a query failure so the portal can show onboarding guidance
// instead of a generic error.
var ErrNotLinked = errors.New("account is not linked to a therapist profile")

// Data is one consistent snapshot of everything the therapist portal renders.
type Data struct {
	Therapist model.Therapist
	Bookings  []model.Booking
	Reviews   []model.Review
	Blockouts []string
}

// Fetcher loads portal data for a therapist account.
type Fetcher struct {
	db *gorm.DB
}

func NewFetcher(db *gorm.DB) *Fetcher {
	return &Fetcher{db: db}
}

// ResolveTherapist finds the therapist profile linked to a user account.
// A missing link returns ErrNotLinked.
func (f *Fetcher) ResolveTherapist(userID uint) (model.Therapist, error) {
	var therapist model.Therapist
	err := f.db.Where("user_id = ?", userID).First(&therapist).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Therapist{}, ErrNotLinked
	}
	if err != nil {
		return model.Therapist{}, err
	}
	return therapist, nil
}

// LoadBookings returns the therapist's bookings ordered soonest first.
func (f *Fetcher) LoadBookings(therapistID uint) ([]model.Booking, error) {
	var bookings []model.Booking
	err := f.db.Where("therapist_id = ?", therapistID).
		Order("booking_date asc, booking_time asc").
		Find(&bookings).Error
	return bookings, err
}

// LoadReviews returns the therapist's reviews, newest first.
func (f *Fetcher) LoadReviews(therapistID uint) ([]model.Review, error) {
	var reviews []model.Review
	err := f.db.Where("therapist_id = ?", therapistID).
		Order("created_at desc").
		Find(&reviews).Error
	return reviews, err
}

// Load builds a full snapshot for the given account. A blockout column that
// fails to parse degrades to an empty list with the error logged; it never
// fails the whole load.
func (f *Fetcher) Load(userID uint) (*Data, error) {
	therapist, err := f.ResolveTherapist(userID)
	if err != nil {
		return nil, err
	}

	bookings, err := f.LoadBookings(therapist.ID)
	if err != nil {
		return nil, err
	}
	reviews, err := f.LoadReviews(therapist.ID)
	if err != nil {
		return nil, err
	}

	blockouts, err := ParseBlockoutDates(therapist.BlockoutDates)
	if err != nil {
		log.Printf("therapist %d: %v", therapist.ID, err)
	}

	return &Data{
		Therapist: therapist,
		Bookings:  bookings,
		Reviews:   reviews,
		Blockouts: blockouts,
	}, nil
}

// Reload refreshes a snapshot in place. On any error the previous snapshot
// is left untouched so the portal keeps rendering the last good data.
func (f *Fetcher) Reload(d *Data) error {
	if d.Therapist.UserID == nil {
		return ErrNotLinked
	}
	fresh, err := f.Load(*d.Therapist.UserID)
	if err != nil {
		return err
	}
	*d = *fresh
	return nil
}

// GormStore persists blockout edits through the therapists table. It is the
// BlockoutStore used outside tests.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// SaveBlockoutDates replaces the therapist's stored blockout list.
func (s *GormStore) SaveBlockoutDates(therapistID uint, dates []string) error {
	raw, err := EncodeBlockoutDates(dates)
	if err != nil {
		return err
	}
	res := s.db.Model(&model.Therapist{}).
		Where("id = ?", therapistID).
		Update("blockout_dates", datatypes.JSON(raw))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

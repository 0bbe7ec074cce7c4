package services

import (
	"context"
	"errors"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"agrohire/internal/domain"
	r "agrohire/internal/redis"
	"agrohire/internal/repository"
)

var (
	ErrForbidden       = errors.New("action not permitted")
	ErrNotReviewable   = errors.New("booking not reviewable")
	ErrRateNotPositive = errors.New("rates must be positive")
)

type CreateEquipmentInput struct {
	Name             string `valid:"required,length(3|200)"`
	EquipmentTypeID  uuid.UUID
	Description      string
	ModelName        string
	YearManufactured int
	Condition        string `valid:"required,in(excellent|good|fair|poor)"`
	City             string `valid:"required"`
	Country          string
	DailyRateCents   int64
	HourlyRateCents  int64
	WeeklyRateCents  int64
	MonthlyRateCents int64
	MinBookingHours  int
	MaxBookingDays   int
}

type ReviewInput struct {
	BookingID uuid.UUID
	Rating    int
	Comment   string
}

type EquipmentService struct {
	equipmentRepo  *repository.EquipmentRepository
	bookingRepo    *repository.BookingRepository
	userRepo       *repository.UserRepository
	equipmentCache r.Cache[domain.Equipment]
}

func NewEquipmentService(
	equipmentRepo *repository.EquipmentRepository,
	bookingRepo *repository.BookingRepository,
	userRepo *repository.UserRepository,
	rdb *goredis.Client,
) *EquipmentService {
	return &EquipmentService{
		equipmentRepo:  equipmentRepo,
		bookingRepo:    bookingRepo,
		userRepo:       userRepo,
		equipmentCache: r.NewJSONCache[domain.Equipment](rdb, "equipment", 5*time.Minute),
	}
}

func (s *EquipmentService) ListTypes(ctx context.Context) ([]domain.EquipmentType, error) {
	return s.equipmentRepo.ListTypes()
}

func (s *EquipmentService) CreateType(ctx context.Context, adminID uuid.UUID, t *domain.EquipmentType) error {
	admin, err := s.userRepo.FindByID(adminID)
	if err != nil {
		return repository.ErrUserNotFound
	}
	if !admin.IsAdmin() {
		return ErrForbidden
	}
	return s.equipmentRepo.CreateType(t)
}

func (s *EquipmentService) Create(ctx context.Context, ownerID uuid.UUID, input CreateEquipmentInput) (*domain.Equipment, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if input.DailyRateCents <= 0 || input.HourlyRateCents <= 0 {
		return nil, ErrRateNotPositive
	}

	owner, err := s.userRepo.FindByID(ownerID)
	if err != nil {
		return nil, repository.ErrUserNotFound
	}
	if !owner.IsEquipmentOwner() && !owner.IsAdmin() {
		return nil, ErrForbidden
	}

	if _, err := s.equipmentRepo.FindTypeByID(input.EquipmentTypeID); err != nil {
		return nil, repository.ErrEquipmentTypeNotFound
	}

	country := input.Country
	if country == "" {
		country = "Kenya"
	}
	minHours := input.MinBookingHours
	if minHours <= 0 {
		minHours = 1
	}
	maxDays := input.MaxBookingDays
	if maxDays <= 0 {
		maxDays = 30
	}

	eq := &domain.Equipment{
		Name:             input.Name,
		EquipmentTypeID:  input.EquipmentTypeID,
		OwnerID:          ownerID,
		Description:      input.Description,
		ModelName:        input.ModelName,
		YearManufactured: input.YearManufactured,
		Condition:        domain.EquipmentCondition(input.Condition),
		Status:           domain.EquipmentAvailable,
		City:             input.City,
		Country:          country,
		DailyRateCents:   input.DailyRateCents,
		HourlyRateCents:  input.HourlyRateCents,
		WeeklyRateCents:  input.WeeklyRateCents,
		MonthlyRateCents: input.MonthlyRateCents,
		Active:           true,
		MinBookingHours:  minHours,
		MaxBookingDays:   maxDays,
	}

	if err := s.equipmentRepo.Create(eq); err != nil {
		return nil, err
	}
	return eq, nil
}

func (s *EquipmentService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Equipment, error) {
	eq, err := s.equipmentCache.Get(ctx, id.String())
	if err == nil && eq != nil {
		return eq, nil
	}

	eq, err = s.equipmentRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	_ = s.equipmentCache.Set(ctx, id.String(), eq)
	return eq, nil
}

func (s *EquipmentService) List(ctx context.Context, filter repository.EquipmentFilter) ([]domain.Equipment, error) {
	return s.equipmentRepo.List(filter)
}

func (s *EquipmentService) Update(ctx context.Context, userID uuid.UUID, eq *domain.Equipment) error {
	existing, err := s.equipmentRepo.FindByID(eq.ID)
	if err != nil {
		return err
	}
	if err := s.requireOwnerOrAdmin(userID, existing.OwnerID); err != nil {
		return err
	}

	if err := s.equipmentRepo.Update(eq); err != nil {
		return err
	}
	_ = s.equipmentCache.Delete(ctx, eq.ID.String())
	return nil
}

func (s *EquipmentService) SetStatus(ctx context.Context, userID, equipmentID uuid.UUID, status domain.EquipmentStatus) error {
	eq, err := s.equipmentRepo.FindByID(equipmentID)
	if err != nil {
		return err
	}
	if err := s.requireOwnerOrAdmin(userID, eq.OwnerID); err != nil {
		return err
	}

	if err := s.equipmentRepo.UpdateStatus(equipmentID, status); err != nil {
		return err
	}
	_ = s.equipmentCache.Delete(ctx, equipmentID.String())
	return nil
}

func (s *EquipmentService) Delete(ctx context.Context, userID, equipmentID uuid.UUID) error {
	eq, err := s.equipmentRepo.FindByID(equipmentID)
	if err != nil {
		return err
	}
	if err := s.requireOwnerOrAdmin(userID, eq.OwnerID); err != nil {
		return err
	}

	if err := s.equipmentRepo.Delete(equipmentID); err != nil {
		return err
	}
	_ = s.equipmentCache.Delete(ctx, equipmentID.String())
	return nil
}

// AddReview records a review from a renter. Only completed bookings by the
// reviewer against this equipment qualify; a qualifying booking marks the
// review verified.
func (s *EquipmentService) AddReview(ctx context.Context, userID, equipmentID uuid.UUID, input ReviewInput) (*domain.EquipmentReview, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, ErrInvalidInput
	}

	if _, err := s.equipmentRepo.FindByID(equipmentID); err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.FindByID(input.BookingID)
	if err != nil {
		return nil, ErrNotReviewable
	}
	if booking.UserID != userID || booking.EquipmentID != equipmentID || booking.Status != domain.BookingCompleted {
		return nil, ErrNotReviewable
	}

	review := &domain.EquipmentReview{
		EquipmentID: equipmentID,
		UserID:      userID,
		BookingID:   &booking.ID,
		Rating:      input.Rating,
		Comment:     input.Comment,
		Verified:    true,
	}
	if err := s.equipmentRepo.CreateReview(review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *EquipmentService) ListReviews(ctx context.Context, equipmentID uuid.UUID) ([]domain.EquipmentReview, float64, int, error) {
	reviews, err := s.equipmentRepo.ListReviews(equipmentID)
	if err != nil {
		return nil, 0, 0, err
	}
	avg, count, err := s.equipmentRepo.AverageRating(equipmentID)
	if err != nil {
		return nil, 0, 0, err
	}
	return reviews, avg, count, nil
}

func (s *EquipmentService) requireOwnerOrAdmin(userID, ownerID uuid.UUID) error {
	if userID == ownerID {
		return nil
	}
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return repository.ErrUserNotFound
	}
	if !user.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

func validateStruct(input interface{}) error {
	if _, err := govalidator.ValidateStruct(input); err != nil {
		return ErrInvalidInput
	}
	return nil
}

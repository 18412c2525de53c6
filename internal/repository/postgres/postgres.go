package postgres

import (
	"github.com/parishkit/chms-api/internal/repository"
)

type organizationRepository struct {
	BaseRepository
}

type locationRepository struct {
	BaseRepository
}

type userRepository struct {
	BaseRepository
}

type memberRepository struct {
	BaseRepository
}

type cardRepository struct {
	BaseRepository
}

type batchRepository struct {
	BaseRepository
}

type prayerRepository struct {
	BaseRepository
}

type volunteerRepository struct {
	BaseRepository
}

type auditRepository struct {
	BaseRepository
}

func NewOrganizationRepository(base BaseRepository) repository.OrganizationRepository {
	return &organizationRepository{base}
}

func NewLocationRepository(base BaseRepository) repository.LocationRepository {
	return &locationRepository{base}
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func NewMemberRepository(base BaseRepository) repository.MemberRepository {
	return &memberRepository{base}
}

func NewCardRepository(base BaseRepository) repository.CardRepository {
	return &cardRepository{base}
}

func NewBatchRepository(base BaseRepository) repository.BatchRepository {
	return &batchRepository{base}
}

func NewPrayerRepository(base BaseRepository) repository.PrayerRepository {
	return &prayerRepository{base}
}

func NewVolunteerRepository(base BaseRepository) repository.VolunteerRepository {
	return &volunteerRepository{base}
}

func NewAuditRepository(base BaseRepository) repository.AuditRepository {
	return &auditRepository{base}
}

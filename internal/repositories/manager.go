package repositories

import "konnectia/internal/dbx"

// Manager vends relational repositories bound to a DBTX, so the same code
// runs against the pool or inside a transaction.
type Manager interface {
	Users(db dbx.DBTX) UserRepository
	Profiles(db dbx.DBTX) ProfileRepository
	OTPs(db dbx.DBTX) OTPRepository
}

type postgresManager struct{}

func NewPostgresManager() Manager {
	return postgresManager{}
}

func (postgresManager) Users(db dbx.DBTX) UserRepository {
	return NewUserRepository(db)
}

func (postgresManager) Profiles(db dbx.DBTX) ProfileRepository {
	return NewProfileRepository(db)
}

func (postgresManager) OTPs(db dbx.DBTX) OTPRepository {
	return NewOTPRepository(db)
}

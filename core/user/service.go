package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/shulehub/shule/core"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		AdminExists(ctx context.Context) (bool, error)
	}

	Service interface {
		Authenticate(ctx context.Context, email, pwd string) (User, error)
		Register(ctx context.Context, ru RegisterUser) (User, error)
		Create(ctx context.Context, nu NewUser) (User, error)
		QueryAll(ctx context.Context) ([]User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		SetRole(ctx context.Context, id string, role Role) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		ResetPassword(ctx context.Context, email, pwd string) (User, error)
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		SeedAdmin(ctx context.Context, email, pwd string) (User, error)
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService) Service {
	return &service{repo: repo, mailSvc: mailSvc}
}

func (svc *service) CheckEmailUniqueness(ctx context.Context, email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclUsers...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Authenticate matches the credentials against the store. An unknown email and a
// wrong password are indistinguishable to the caller: both yield ErrNotFound.
func (svc *service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return User{}, err
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrNotFound
	}
	return svc.SetLastLogin(ctx, usr)
}

// Register creates a self-service account. New accounts always get the Student role.
func (svc *service) Register(ctx context.Context, ru RegisterUser) (User, error) {
	usr, err := svc.create(ctx, ru.Name, ru.Email, ru.Password, RoleStudent)
	if err != nil {
		return User{}, err
	}
	svc.sendWelcomeMail(usr)
	return usr, nil
}

// Create creates an account on behalf of an admin; any role may be assigned.
func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	return svc.create(ctx, nu.Name, nu.Email, nu.Password, nu.Role)
}

func (svc *service) create(ctx context.Context, name, email, pwd string, role Role) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// SetRole overwrites the user's role. Admin accounts are immutable: the call is
// a no-op returning the stored user unchanged.
func (svc *service) SetRole(ctx context.Context, id string, role Role) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if usr.IsAdmin() || usr.Role == role {
		return usr, nil
	}
	usr.Role = role
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// ResetPassword sets a new policy-checked password for the account with the given email.
func (svc *service) ResetPassword(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if err = CheckPasswordPolicy(pwd, usr); err != nil {
		return User{}, err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return User{}, err
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// SeedAdmin creates the bootstrap administrator if no admin account exists yet.
func (svc *service) SeedAdmin(ctx context.Context, email, pwd string) (User, error) {
	exists, err := svc.repo.AdminExists(ctx)
	if err != nil {
		return User{}, err
	}
	if exists {
		return User{}, nil
	}
	return svc.create(ctx, "Administrator", core.CleanString(email, true /* lower */), pwd, RoleAdmin)
}

func (svc *service) sendWelcomeMail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: "Welcome aboard!",
		Body: fmt.Sprintf(
			"Hi %s,\r\n\r\nYour student account is ready. Log in with your email to browse your courses.\r\n",
			usr.Name,
		),
	})
}

package auth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	domain "user-registration-service/internal/domain/user"
	pkgerrors "user-registration-service/pkg/errors"
	"user-registration-service/pkg/logger"
	"user-registration-service/pkg/security"
)

// UserRepository defines the user store operations registration needs.
type UserRepository interface {
	// GetByEmail returns nil, nil when no user has the exact email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create persists u and returns the stored record with generated fields set.
	// It returns domain.ErrEmailTaken when the storage layer rejects a duplicate.
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
}

// ActivityLogRepository is the append-only audit sink.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *domain.ActivityLog) error
}

// Registrar implements the registration flow: existence check, validation,
// hashing, user insert and activity log insert, in that order.
type Registrar struct {
	users    UserRepository
	activity ActivityLogRepository
	hasher   security.PasswordHasher
	rules    security.RuleSet
	log      *zap.Logger
}

// New creates a new Registrar. A nil rule set selects security.ServerRules.
func New(users UserRepository, activity ActivityLogRepository, hasher security.PasswordHasher, rules security.RuleSet, log *zap.Logger) *Registrar {
	if rules == nil {
		rules = security.ServerRules
	}
	return &Registrar{
		users:    users,
		activity: activity,
		hasher:   hasher,
		rules:    rules,
		log:      log,
	}
}

// Register creates a user account and records a REGISTER activity entry.
//
// The existence check and the insert are not atomic; a concurrent duplicate is
// caught by the unique index on users.email and reported as a duplicate too.
// If the activity insert fails the user row is kept.
func (r *Registrar) Register(ctx context.Context, in RegisterRequest) (*RegisterResponse, error) {
	log := logger.WithContext(ctx, r.log)
	log.Info("registering user", logger.Email("email", in.Email))

	existing, err := r.users.GetByEmail(ctx, in.Email)
	if err != nil {
		log.Error("failed to check existing email", logger.Email("email", in.Email), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to check existing email", err)
	}
	if existing != nil {
		log.Warn("email already exists", logger.Email("email", in.Email))
		return nil, pkgerrors.NewAlreadyExistsError("user", pkgerrors.MsgDuplicateEmail)
	}

	if err := r.validate(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, err
	}

	hashed, err := r.hasher.Hash(in.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to hash password", err)
	}

	name := domain.LocalPart(in.Email)
	if in.Name != nil {
		name = *in.Name
	}

	created, err := r.users.Create(ctx, &domain.User{
		Email:    in.Email,
		Password: hashed,
		Name:     name,
		Role:     domain.RoleUser,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			log.Warn("email taken between check and insert", logger.Email("email", in.Email))
			return nil, pkgerrors.NewAlreadyExistsError("user", pkgerrors.MsgDuplicateEmail)
		}
		log.Error("failed to create user", zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to create user", err)
	}

	source := in.Source
	if source == "" {
		source = SourceAPI
	}

	if err := r.activity.Create(ctx, &domain.ActivityLog{
		Action:  domain.ActionRegister,
		UserID:  created.ID,
		Details: "User registration via " + source,
	}); err != nil {
		log.Error("failed to write activity log", zap.String("user_id", created.ID), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to write activity log", err)
	}

	log.Info("user registered", zap.String("user_id", created.ID))

	return &RegisterResponse{User: User{
		ID:        created.ID,
		Email:     created.Email,
		Name:      created.Name,
		Role:      created.Role,
		CreatedAt: created.CreatedAt,
		UpdatedAt: created.UpdatedAt,
	}}, nil
}

// validate applies the configured rule set and reports the first violation.
// When several rules fail, all messages are kept as details.
func (r *Registrar) validate(in RegisterRequest) error {
	violations := r.rules.Evaluate(security.Credentials{
		Email:    in.Email,
		Password: in.Password,
	})
	if len(violations) == 0 {
		return nil
	}

	verr := pkgerrors.NewValidationError(violations[0].Field, violations[0].Message)
	if len(violations) > 1 {
		for _, v := range violations {
			verr.Details = append(verr.Details, v.Message)
		}
	}
	return verr
}

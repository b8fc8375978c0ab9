package application

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/dfryer1193/inkwell/blog/domain"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// AuthorInput carries the fields needed to register an author.
type AuthorInput struct {
	Username  string `json:"username" validate:"required,min=3,max=150,username"`
	Email     string `json:"email" validate:"omitempty,email,max=254"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
	Superuser bool   `json:"superuser"`
}

// AuthorService manages accounts and checks credentials.
type AuthorService struct {
	authors  domain.AuthorRepository
	validate *validator.Validate
	cost     int
	now      func() time.Time
}

func NewAuthorService(authors domain.AuthorRepository) *AuthorService {
	return &AuthorService{
		authors:  authors,
		validate: newValidator(),
		cost:     bcrypt.DefaultCost,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields under their json names so messages line up with form fields.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})

	return v
}

// CreateAuthor validates in, hashes the password and stores the account.
func (s *AuthorService) CreateAuthor(ctx context.Context, in AuthorInput) (*domain.Author, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if err := s.validateInput(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, domain.FieldError("password", "Ensure this value has at most 72 bytes.")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	author := &domain.Author{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Superuser:    in.Superuser,
		CreatedAt:    s.now(),
	}

	if err := s.authors.Create(ctx, author); err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			return nil, domain.FieldError("username", "A user with that username already exists.")
		}
		return nil, fmt.Errorf("failed to create author: %w", err)
	}

	log.Info().
		Str("username", author.Username).
		Bool("superuser", author.Superuser).
		Msg("Author created")

	return author, nil
}

func (s *AuthorService) validateInput(in AuthorInput) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to validate author: %w", err)
	}

	verr := domain.NewValidationError()
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), validationMessage(fe))
	}
	return verr.OrNil()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	default:
		return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
	}
}

// Authenticate returns the author whose credentials match, or
// domain.ErrInvalidCredentials without saying which part was wrong.
func (s *AuthorService) Authenticate(ctx context.Context, username, password string) (*domain.Author, error) {
	author, err := s.authors.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, domain.ErrAuthorNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up author: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(author.PasswordHash, []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return author, nil
}

func (s *AuthorService) GetAuthor(ctx context.Context, id int64) (*domain.Author, error) {
	return s.authors.GetByID(ctx, id)
}

func (s *AuthorService) GetAuthorByUsername(ctx context.Context, username string) (*domain.Author, error) {
	return s.authors.GetByUsername(ctx, username)
}

func (s *AuthorService) ListAuthors(ctx context.Context) ([]*domain.Author, error) {
	authors, err := s.authors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list authors: %w", err)
	}
	return authors, nil
}

// DeleteAuthor removes an account. Authors who still own posts are kept and
// domain.ErrAuthorHasPosts is returned.
func (s *AuthorService) DeleteAuthor(ctx context.Context, username string) error {
	author, err := s.authors.GetByUsername(ctx, username)
	if err != nil {
		return err
	}

	if err := s.authors.Delete(ctx, author.ID); err != nil {
		return err
	}

	log.Info().Str("username", username).Msg("Author deleted")
	return nil
}

package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"github.com/keyxmakerx/eventhub/internal/apperror"
)

// argon2id parameters tuned for a self-hosted application running on
// modest hardware (2-4 CPU cores, 2-4 GB RAM). These follow OWASP
// recommendations for argon2id: memory=64MB, iterations=3, parallelism=4.
const (
	argonTime    = 3
	argonMemory  = 64 * 1024 // 64 MB in KiB
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// Password length bounds.
const (
	minPasswordLen = 8
	maxPasswordLen = 128
)

// AuthService defines the business logic contract for authentication.
// Handlers call these methods -- they never touch the repository directly.
type AuthService interface {
	// Register creates an account and returns a token for it. A taken
	// email is a UserExists error.
	Register(ctx context.Context, input RegisterInput) (token string, claims *Claims, user *User, err error)

	// Login checks credentials and returns a fresh token. Unknown emails
	// and wrong passwords are the same InvalidCredentials error.
	Login(ctx context.Context, input LoginInput) (token string, claims *Claims, user *User, err error)

	// Verify checks a bearer token and returns its claims.
	Verify(ctx context.Context, token string) (*Claims, error)
}

// authService implements AuthService with argon2id hashing and JWT tokens.
type authService struct {
	repo   UserRepository
	tokens *TokenManager
	now    func() time.Time
}

// NewAuthService creates a new auth service with the given dependencies.
func NewAuthService(repo UserRepository, tokens *TokenManager) AuthService {
	return &authService{
		repo:   repo,
		tokens: tokens,
		now:    time.Now,
	}
}

// Register validates the input, checks uniqueness, hashes the password with
// argon2id and persists the user.
func (s *authService) Register(ctx context.Context, input RegisterInput) (string, *Claims, *User, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return "", nil, nil, err
	}
	name := strings.TrimSpace(input.Name)
	if utf8.RuneCountInString(name) > 100 {
		return "", nil, nil, apperror.NewValidation("name must be at most 100 characters")
	}
	if n := utf8.RuneCountInString(input.Password); n < minPasswordLen || n > maxPasswordLen {
		return "", nil, nil, apperror.NewValidation(fmt.Sprintf("password must be %d to %d characters", minPasswordLen, maxPasswordLen))
	}

	// Check if email is already taken before doing expensive hashing.
	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return "", nil, nil, apperror.NewInternal(fmt.Errorf("checking email: %w", err))
	}
	if exists {
		return "", nil, nil, apperror.NewUserExists()
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return "", nil, nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration for the same email.
		if exists, _ := s.repo.EmailExists(ctx, email); exists {
			return "", nil, nil, apperror.NewUserExists()
		}
		return "", nil, nil, apperror.NewInternal(fmt.Errorf("creating user: %w", err))
	}

	token, claims, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, nil, apperror.NewInternal(err)
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return token, claims, user, nil
}

// Login authenticates a user by email and password and issues a token.
func (s *authService) Login(ctx context.Context, input LoginInput) (string, *Claims, *User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		// Don't reveal whether the email exists.
		if apperror.Is(err, apperror.TypeNotFound) {
			return "", nil, nil, apperror.NewInvalidCredentials()
		}
		return "", nil, nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	if !verifyPassword(input.Password, user.PasswordHash) {
		return "", nil, nil, apperror.NewInvalidCredentials()
	}

	token, claims, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, nil, apperror.NewInternal(err)
	}

	// Non-critical bookkeeping.
	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("failed to update last login",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return token, claims, user, nil
}

// Verify checks the token. The user store is not consulted; a token stays
// valid until it expires.
func (s *authService) Verify(ctx context.Context, token string) (*Claims, error) {
	return s.tokens.Parse(token)
}

// normalizeEmail lower-cases and validates an email address.
func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" || len(email) > 255 {
		return "", apperror.NewValidation("a valid email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperror.NewValidation("a valid email is required")
	}
	return email, nil
}

// --- Password Hashing (argon2id) ---

// hashPassword creates an argon2id hash of the given password. The output
// format is: $argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>
func hashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads, b64Salt, b64Hash)

	return encoded, nil
}

// verifyPassword checks a plaintext password against an argon2id hash string.
func verifyPassword(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var memory uint32
	var iterations uint32
	var parallelism uint8
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism)
	if err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))

	// Constant-time comparison to prevent timing attacks.
	return subtle.ConstantTimeCompare(expectedHash, computedHash) == 1
}

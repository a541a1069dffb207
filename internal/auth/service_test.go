package auth

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/school-core/internal"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessSecret  = "test-access-secret-test-access-secret"
	refreshSecret = "test-refresh-secret-test-refresh-secret"
)

type mockUserRepository struct {
	usersByEmail map[string]*User
	usersByID    map[int64]*User
	err          error
}

func newMockUserRepository() *mockUserRepository {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct_password"), bcrypt.MinCost)

	repo := &mockUserRepository{
		usersByEmail: map[string]*User{},
		usersByID:    map[int64]*User{},
	}
	for _, u := range []*User{
		{ID: 1, Email: "teacher@example.com", Name: "Teacher", IsActive: true, PasswordHash: string(hash)},
		{ID: 2, Email: "admin@example.com", Name: "Admin", IsActive: true, IsPlatformAdmin: true, PasswordHash: string(hash)},
		{ID: 3, Email: "former@example.com", Name: "Former", IsActive: false, PasswordHash: string(hash)},
	} {
		repo.usersByEmail[u.Email] = u
		repo.usersByID[u.ID] = u
	}
	return repo
}

func (m *mockUserRepository) GetByEmail(_ context.Context, email string) (*User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if u, ok := m.usersByEmail[email]; ok {
		return u, nil
	}
	return nil, ErrUserNotFound
}

func (m *mockUserRepository) GetByID(_ context.Context, userID int64) (*User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if u, ok := m.usersByID[userID]; ok {
		return u, nil
	}
	return nil, ErrUserNotFound
}

func expectAuthFailed(err error, message string) {
	gomega.Expect(err).To(gomega.HaveOccurred())
	appErr, ok := internal.IsAppError(err)
	gomega.Expect(ok).To(gomega.BeTrue())
	gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeAuthFailed))
	gomega.Expect(appErr.Message).To(gomega.Equal(message))
}

var _ = ginkgo.Describe("AuthService", func() {
	var (
		service  *Service
		mockRepo *mockUserRepository
		tokenGen *JWTTokenGenerator
		ctx      context.Context
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		mockRepo = newMockUserRepository()
		tokenGen = NewJWTTokenGenerator(accessSecret, refreshSecret, 15*time.Minute, 24*time.Hour)
		service = NewService(mockRepo, tokenGen, quietLogger())
	})

	login := func(email string) AuthTokens {
		tokens, err := service.Authenticate(ctx, LoginDTO{Email: email, Password: "correct_password"})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		return tokens
	}

	ginkgo.Describe("Authenticate", func() {
		ginkgo.It("returns distinct access and refresh tokens", func() {
			tokens := login("teacher@example.com")

			gomega.Expect(tokens.AccessToken).ToNot(gomega.BeEmpty())
			gomega.Expect(tokens.RefreshToken).ToNot(gomega.BeEmpty())
			gomega.Expect(tokens.AccessToken).ToNot(gomega.Equal(tokens.RefreshToken))
			gomega.Expect(tokens.TokenType).To(gomega.Equal("Bearer"))
			gomega.Expect(tokens.ExpiresIn).To(gomega.Equal(int64(900)))
		})

		ginkgo.It("matches the email case-insensitively", func() {
			tokens, err := service.Authenticate(ctx, LoginDTO{Email: "  Teacher@Example.com ", Password: "correct_password"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			claims, err := tokenGen.ValidateAccessToken(tokens.AccessToken)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(claims.UserID).To(gomega.Equal("1"))
			gomega.Expect(claims.Email).To(gomega.Equal("teacher@example.com"))
		})

		ginkgo.It("rejects an unknown email and a wrong password the same way", func() {
			_, err := service.Authenticate(ctx, LoginDTO{Email: "nobody@example.com", Password: "correct_password"})
			expectAuthFailed(err, "Invalid email or password")

			_, err = service.Authenticate(ctx, LoginDTO{Email: "teacher@example.com", Password: "wrong_password"})
			expectAuthFailed(err, "Invalid email or password")
			gomega.Expect(errors.Is(err, ErrInvalidCredentials)).To(gomega.BeTrue())
		})

		ginkgo.It("rejects an inactive account", func() {
			_, err := service.Authenticate(ctx, LoginDTO{Email: "former@example.com", Password: "correct_password"})
			expectAuthFailed(err, "User account is inactive")
		})

		ginkgo.It("maps repository failures to INTERNAL_ERROR", func() {
			mockRepo.err = errors.New("connection reset")

			_, err := service.Authenticate(ctx, LoginDTO{Email: "teacher@example.com", Password: "correct_password"})

			appErr := internal.AsAppError(err)
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeInternal))
		})
	})

	ginkgo.Describe("RefreshTokens", func() {
		ginkgo.It("issues a new pair for a valid refresh token", func() {
			tokens := login("teacher@example.com")

			refreshed, err := service.RefreshTokens(ctx, tokens.RefreshToken)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			identity, err := service.IdentityForToken(ctx, refreshed.AccessToken)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(identity.UserID).To(gomega.Equal(int64(1)))
		})

		ginkgo.It("refuses an access token used as a refresh token", func() {
			tokens := login("teacher@example.com")

			_, err := service.RefreshTokens(ctx, tokens.AccessToken)
			expectAuthFailed(err, "Invalid token")
		})

		ginkgo.It("refuses an expired refresh token", func() {
			expired := NewJWTTokenGenerator(accessSecret, refreshSecret, time.Minute, time.Hour)
			expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
			token, err := expired.GenerateRefreshToken("1", "teacher@example.com")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.RefreshTokens(ctx, token)
			expectAuthFailed(err, "Token has expired")
		})

		ginkgo.It("refuses a user deactivated after login", func() {
			tokens := login("teacher@example.com")
			mockRepo.usersByID[1].IsActive = false

			_, err := service.RefreshTokens(ctx, tokens.RefreshToken)
			expectAuthFailed(err, "User account is inactive")
		})
	})

	ginkgo.Describe("IdentityForToken", func() {
		ginkgo.It("loads the platform admin flag from the user record", func() {
			tokens := login("admin@example.com")

			identity, err := service.IdentityForToken(ctx, tokens.AccessToken)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(identity).To(gomega.Equal(internal.Identity{
				UserID: 2, Email: "admin@example.com", Name: "Admin", IsPlatformAdmin: true,
			}))
		})

		ginkgo.It("refuses a refresh token", func() {
			tokens := login("teacher@example.com")

			_, err := service.IdentityForToken(ctx, tokens.RefreshToken)
			expectAuthFailed(err, "Invalid token")
		})

		ginkgo.It("refuses a token signed with another secret", func() {
			other := NewJWTTokenGenerator("another-access-secret-another-access", refreshSecret, time.Minute, time.Hour)
			token, err := other.GenerateAccessToken("1", "teacher@example.com")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.IdentityForToken(ctx, token)
			expectAuthFailed(err, "Invalid token")
		})

		ginkgo.It("refuses an empty or malformed token", func() {
			_, err := service.IdentityForToken(ctx, "")
			expectAuthFailed(err, "Authentication required")

			_, err = service.IdentityForToken(ctx, "invalid.token")
			expectAuthFailed(err, "Invalid token")
		})

		ginkgo.It("refuses a token for a deleted user", func() {
			token, err := tokenGen.GenerateAccessToken("99", "ghost@example.com")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.IdentityForToken(ctx, token)
			expectAuthFailed(err, "Invalid token")
		})
	})

	ginkgo.Describe("CurrentUser", func() {
		ginkgo.It("returns NOT_FOUND for an unknown user", func() {
			_, err := service.CurrentUser(ctx, internal.Identity{UserID: 42})

			gomega.Expect(internal.AsAppError(err).Code).To(gomega.Equal(internal.ErrCodeNotFound))
		})
	})
})

package auth_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/exiledproject/launcher-cms/internal/audit"
	"github.com/exiledproject/launcher-cms/internal/auth"
	"github.com/exiledproject/launcher-cms/internal/permission"
	"github.com/exiledproject/launcher-cms/internal/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestAuthService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Service Suite")
}

// MockUserRepository implements auth.UserRepository for testing
type MockUserRepository struct {
	users      map[string]*user.User
	shouldFail bool
	failError  error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*user.User)}
}

func (m *MockUserRepository) FindByLogin(_ context.Context, login string) (*user.User, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	u, ok := m.users[strings.ToLower(login)]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (m *MockUserRepository) GetByID(_ context.Context, id int64) (*user.User, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (m *MockUserRepository) AddUser(u *user.User) {
	m.users[strings.ToLower(u.Login)] = u
}

func (m *MockUserRepository) SetShouldFail(shouldFail bool, err error) {
	m.shouldFail = shouldFail
	m.failError = err
}

// MockRecorder captures audit entries
type MockRecorder struct {
	entries []audit.Entry
}

func (m *MockRecorder) Record(_ context.Context, e audit.Entry) {
	m.entries = append(m.entries, e)
}

func (m *MockRecorder) Actions() []string {
	actions := make([]string, len(m.entries))
	for i, e := range m.entries {
		actions[i] = e.Action
	}
	return actions
}

// MockResolver returns a fixed permission set
type MockResolver struct {
	set permission.CodeSet
}

func (m *MockResolver) EffectivePermissions(_ context.Context, _ int64) (permission.CodeSet, error) {
	return m.set, nil
}

func addTestUser(repo *MockUserRepository, login, password string, mutate func(*user.User)) *user.User {
	salt, err := auth.GenerateSalt()
	Expect(err).NotTo(HaveOccurred())
	u := &user.User{
		ID:           int64(len(repo.users) + 1),
		Login:        login,
		PasswordHash: auth.HashPassword(password, salt),
		PasswordSalt: salt,
		UserUUID:     "8e7f9c4a-0000-0000-0000-000000000001",
	}
	if mutate != nil {
		mutate(u)
	}
	repo.AddUser(u)
	return u
}

var _ = Describe("Auth Service", func() {
	var (
		repo     *MockUserRepository
		recorder *MockRecorder
		service  *auth.Service
		ctx      context.Context
	)

	BeforeEach(func() {
		repo = NewMockUserRepository()
		recorder = &MockRecorder{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		tokens := auth.NewJWTTokenGenerator(
			"test-access-secret-0123456789abcdef",
			"test-refresh-secret-0123456789abcdef",
			15*time.Minute,
			7*24*time.Hour,
		)
		resolver := &MockResolver{set: permission.NewCodeSet(permission.CodeAuditView)}
		service = auth.NewService(repo, tokens, resolver, recorder, logger)
		ctx = context.Background()
	})

	Describe("SignIn", func() {
		Context("when login or password is missing", func() {
			It("should return invalid input without touching the store", func() {
				result, err := service.SignIn(ctx, auth.SignInDTO{Login: "admin"}, "1.2.3.4")
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Outcome).To(Equal(auth.OutcomeInvalidInput))
				Expect(recorder.entries).To(BeEmpty())
			})
		})

		Context("when the login is unknown", func() {
			It("should return not found with the user-not-found message", func() {
				result, err := service.SignIn(ctx, auth.SignInDTO{Login: "ghost", Password: "x"}, "1.2.3.4")
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Outcome).To(Equal(auth.OutcomeNotFound))
				Expect(result.Message).To(Equal("Пользователь не найден"))
				Expect(recorder.entries).To(BeEmpty())
			})
		})

		Context("when the account is banned", func() {
			It("should include the reason in the message", func() {
				reason := "Раздача на спавне"
				addTestUser(repo, "banned", "secret", func(u *user.User) {
					u.IsBanned = true
					u.BanReason = &reason
				})

				result, err := service.SignIn(ctx, auth.SignInDTO{Login: "banned", Password: "secret"}, "1.2.3.4")
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Outcome).To(Equal(auth.OutcomeForbidden))
				Expect(result.Message).To(Equal("Пользователь заблокирован. Причина: Раздача на спавне"))
			})

			It("should use the plain message when no reason is stored", func() {
				addTestUser(repo, "banned", "secret", func(u *user.User) {
					u.IsBanned = true
				})

				result, err := service.SignIn(ctx, auth.SignInDTO{Login: "banned", Password: "secret"}, "1.2.3.4")
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Message).To(Equal("Пользователь заблокирован"))
			})

			It("should take precedence over 2FA and password checks", func() {
				addTestUser(repo, "banned", "secret", func(u *user.User) {
					u.IsBanned = true
					u.Require2FA = true
				})

				result, err := service.SignIn(ctx, auth.SignInDTO{Login: "banned", Password: "wrong"}, "1.2.3.4")
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Outcome).To(Equal(auth.OutcomeForbidden))
				Expect(recorder.entries).To(BeEmpty())
			})
		})

		Context("when 2FA setup is pending", func() {
			It("should return the setup-required outcome", func() {
				addTestUser(repo, "frozen", "secret", func(u *user.User) {
					u.MustSetup2FA = true
				})

				result, err := service.SignIn(ctx, auth.SignInDTO{Login: "frozen", Password: "secret"}, "1.2.3.4")
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Outcome).To(Equal(auth.OutcomeSetupRequired))
			})

			It("should not trigger once 2FA is enabled", func() {
				addTestUser(repo, "enrolled", "secret", func(u *user.User) {
					u.MustSetup2FA = true
					u.TwoFactorEnabled = true
					u.Require2FA = true
				})

				result, err := service.SignIn(ctx, auth.SignInDTO{Login: "enrolled", Password: "secret"}, "1.2.3.4")
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Outcome).To(Equal(auth.OutcomeUnauthorized))
				Expect(result.Message).To(Equal("Введите проверочный код 2FA"))
			})
		})

		Context("when 2FA is required", func() {
			It("should prompt for the code before checking the password", func() {
				addTestUser(repo, "tester", "secret", func(u *user.User) {
					u.Require2FA = true
				})

				result, err := service.SignIn(ctx, auth.SignInDTO{Login: "tester", Password: "definitely-wrong"}, "1.2.3.4")
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Outcome).To(Equal(auth.OutcomeUnauthorized))
				Expect(result.Message).To(Equal("Введите проверочный код 2FA"))
				// No password verification happened, so nothing is audited.
				Expect(recorder.entries).To(BeEmpty())
			})
		})

		Context("when the password is wrong", func() {
			It("should return bad credentials and audit the failure", func() {
				addTestUser(repo, "admin", "secret", nil)

				result, err := service.SignIn(ctx, auth.SignInDTO{Login: "admin", Password: "nope"}, "10.0.0.1")
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Outcome).To(Equal(auth.OutcomeUnauthorized))
				Expect(result.Message).To(Equal("Неверный логин или пароль"))
				Expect(recorder.Actions()).To(Equal([]string{"login_failed"}))
				Expect(recorder.entries[0].IP).To(Equal("10.0.0.1"))
			})
		})

		Context("when credentials are valid", func() {
			It("should succeed, echo login and uuid, and audit the success", func() {
				u := addTestUser(repo, "Admin", "secret", nil)

				result, err := service.SignIn(ctx, auth.SignInDTO{Login: "admin", Password: "secret"}, "10.0.0.1")
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Outcome).To(Equal(auth.OutcomeSuccess))
				Expect(result.Message).To(Equal("Успешная авторизация"))
				Expect(result.Login).To(Equal(u.Login))
				Expect(result.UserUUID).To(Equal(u.UserUUID))
				Expect(recorder.Actions()).To(Equal([]string{"login_success"}))
			})
		})

		Context("when the store fails", func() {
			It("should surface the error", func() {
				repo.SetShouldFail(true, errors.New("connection refused"))

				_, err := service.SignIn(ctx, auth.SignInDTO{Login: "admin", Password: "secret"}, "1.2.3.4")
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("connection refused"))
			})
		})
	})

	Describe("WebLogin", func() {
		It("should mint a token pair on success", func() {
			addTestUser(repo, "admin", "secret", nil)

			result, tokens, err := service.WebLogin(ctx, auth.SignInDTO{Login: "admin", Password: "secret"}, "1.2.3.4")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Outcome).To(Equal(auth.OutcomeSuccess))
			Expect(tokens).NotTo(BeNil())
			Expect(tokens.AccessToken).NotTo(BeEmpty())
			Expect(tokens.RefreshToken).NotTo(BeEmpty())

			claims, err := service.ValidateAccessToken(tokens.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.Login).To(Equal("admin"))
		})

		It("should not mint tokens on a failed outcome", func() {
			addTestUser(repo, "admin", "secret", nil)

			result, tokens, err := service.WebLogin(ctx, auth.SignInDTO{Login: "admin", Password: "wrong"}, "1.2.3.4")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Outcome).To(Equal(auth.OutcomeUnauthorized))
			Expect(tokens).To(BeNil())
		})
	})

	Describe("RefreshTokens", func() {
		It("should rotate a valid refresh token", func() {
			addTestUser(repo, "admin", "secret", nil)
			_, tokens, err := service.WebLogin(ctx, auth.SignInDTO{Login: "admin", Password: "secret"}, "1.2.3.4")
			Expect(err).NotTo(HaveOccurred())

			rotated, err := service.RefreshTokens(tokens.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(rotated.AccessToken).NotTo(BeEmpty())
			Expect(rotated.RefreshToken).NotTo(BeEmpty())
		})

		It("should reject garbage", func() {
			_, err := service.RefreshTokens("not-a-token")
			Expect(err).To(HaveOccurred())
		})
	})
})

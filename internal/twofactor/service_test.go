package twofactor_test

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/exiledproject/launcher-cms/internal/audit"
	"github.com/exiledproject/launcher-cms/internal/auth"
	"github.com/exiledproject/launcher-cms/internal/twofactor"
	"github.com/exiledproject/launcher-cms/internal/user"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestTwoFactorService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Two-Factor Service Suite")
}

// MockUserRepository keeps users in memory keyed by id
type MockUserRepository struct {
	users map[int64]*user.User
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[int64]*user.User)}
}

func (m *MockUserRepository) FindByLogin(_ context.Context, login string) (*user.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Login, login) {
			return u, nil
		}
	}
	return nil, nil
}

func (m *MockUserRepository) GetByID(_ context.Context, id int64) (*user.User, error) {
	return m.users[id], nil
}

func (m *MockUserRepository) Update(_ context.Context, u *user.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *MockUserRepository) AddUser(u *user.User) {
	m.users[u.ID] = u
}

type recordingSink struct {
	entries []audit.Entry
}

func (r *recordingSink) Record(_ context.Context, e audit.Entry) {
	r.entries = append(r.entries, e)
}

var _ = Describe("Two-Factor Service", func() {
	var (
		repo     *MockUserRepository
		recorder *recordingSink
		service  *twofactor.Service
		ctx      context.Context
		clock    time.Time
	)

	newUser := func(id int64, login, password string) *user.User {
		salt, err := auth.GenerateSalt()
		Expect(err).NotTo(HaveOccurred())
		u := &user.User{
			ID:           id,
			Login:        login,
			PasswordHash: auth.HashPassword(password, salt),
			PasswordSalt: salt,
		}
		repo.AddUser(u)
		return u
	}

	BeforeEach(func() {
		repo = NewMockUserRepository()
		recorder = &recordingSink{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		clock = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		service = twofactor.NewService(repo, recorder, "LauncherCMS", logger).
			WithClock(func() time.Time { return clock })
		ctx = context.Background()
	})

	Describe("BeginSetup", func() {
		It("should store a pending secret and freeze the account", func() {
			u := newUser(1, "tester", "secret")

			result, err := service.BeginSetup(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Secret).NotTo(BeEmpty())
			Expect(result.QRCodePNG).NotTo(BeEmpty())

			stored := repo.users[1]
			Expect(stored.TwoFactorSecret).NotTo(BeNil())
			Expect(*stored.TwoFactorSecret).To(Equal(result.Secret))
			Expect(stored.MustSetup2FA).To(BeTrue())
			Expect(stored.TwoFactorEnabled).To(BeFalse())
			Expect(stored.Require2FA).To(BeFalse())
		})

		It("should issue an authenticator-compatible provisioning uri", func() {
			u := newUser(1, "tester", "secret")

			result, err := service.BeginSetup(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.ProvisioningURI).To(HavePrefix("otpauth://totp/"))
			Expect(result.ProvisioningURI).To(ContainSubstring("issuer=LauncherCMS"))
			Expect(result.ProvisioningURI).To(ContainSubstring("digits=6"))
			Expect(result.ProvisioningURI).To(ContainSubstring("period=30"))
			Expect(result.ProvisioningURI).To(ContainSubstring("algorithm=SHA1"))
		})

		It("should refuse when already enabled", func() {
			u := newUser(1, "tester", "secret")
			u.TwoFactorEnabled = true

			_, err := service.BeginSetup(ctx, u.ID)
			Expect(err).To(MatchError(twofactor.ErrAlreadyEnabled))
		})

		It("should report an unknown user", func() {
			_, err := service.BeginSetup(ctx, 99)
			Expect(err).To(MatchError(twofactor.ErrUserNotFound))
		})
	})

	Describe("VerifyAndActivate", func() {
		It("should activate on a valid code and audit it", func() {
			u := newUser(1, "tester", "secret")
			result, err := service.BeginSetup(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())

			code, err := totp.GenerateCodeCustom(result.Secret, clock, totp.ValidateOpts{
				Period: 30, Digits: otp.DigitsSix, Algorithm: otp.AlgorithmSHA1,
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(service.VerifyAndActivate(ctx, u.ID, code)).To(Succeed())

			stored := repo.users[1]
			Expect(stored.TwoFactorEnabled).To(BeTrue())
			Expect(stored.Require2FA).To(BeTrue())
			Expect(stored.MustSetup2FA).To(BeFalse())

			Expect(recorder.entries).To(HaveLen(1))
			Expect(recorder.entries[0].Action).To(Equal("2fa_enabled"))
		})

		It("should accept a code from the previous time step", func() {
			u := newUser(1, "tester", "secret")
			result, err := service.BeginSetup(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())

			code, err := totp.GenerateCodeCustom(result.Secret, clock.Add(-30*time.Second), totp.ValidateOpts{
				Period: 30, Digits: otp.DigitsSix, Algorithm: otp.AlgorithmSHA1,
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(service.VerifyAndActivate(ctx, u.ID, code)).To(Succeed())
		})

		It("should reject a wrong code and leave the state untouched", func() {
			u := newUser(1, "tester", "secret")
			_, err := service.BeginSetup(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())

			err = service.VerifyAndActivate(ctx, u.ID, "000000")
			Expect(err).To(MatchError(twofactor.ErrInvalidCode))

			stored := repo.users[1]
			Expect(stored.TwoFactorEnabled).To(BeFalse())
			Expect(stored.MustSetup2FA).To(BeTrue())
			Expect(recorder.entries).To(BeEmpty())
		})

		It("should refuse verification before any setup", func() {
			u := newUser(1, "tester", "secret")

			err := service.VerifyAndActivate(ctx, u.ID, "123456")
			Expect(err).To(MatchError(twofactor.ErrNotInitialized))
		})
	})

	Describe("credential-based enrollment", func() {
		It("should enroll with a valid login and password", func() {
			newUser(1, "frozen", "secret")

			result, err := service.BeginSetupWithCredentials(ctx, "frozen", "secret")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Secret).NotTo(BeEmpty())
		})

		It("should reject a wrong password", func() {
			newUser(1, "frozen", "secret")

			_, err := service.BeginSetupWithCredentials(ctx, "frozen", "wrong")
			Expect(err).To(MatchError(twofactor.ErrBadCredentials))
		})

		It("should reject a banned account", func() {
			u := newUser(1, "frozen", "secret")
			u.IsBanned = true

			_, err := service.BeginSetupWithCredentials(ctx, "frozen", "secret")
			Expect(err).To(MatchError(twofactor.ErrUserBanned))
		})

		It("should complete verification end to end", func() {
			newUser(1, "frozen", "secret")

			result, err := service.BeginSetupWithCredentials(ctx, "frozen", "secret")
			Expect(err).NotTo(HaveOccurred())

			code, err := totp.GenerateCodeCustom(result.Secret, clock, totp.ValidateOpts{
				Period: 30, Digits: otp.DigitsSix, Algorithm: otp.AlgorithmSHA1,
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(service.VerifyWithCredentials(ctx, "frozen", "secret", code)).To(Succeed())
			Expect(repo.users[1].TwoFactorEnabled).To(BeTrue())
		})
	})
})

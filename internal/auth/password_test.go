package auth_test

import (
	"encoding/base64"

	"github.com/exiledproject/launcher-cms/internal/auth"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Password Hashing", func() {
	Describe("GenerateSalt", func() {
		It("should produce base64 of 16 random bytes", func() {
			salt, err := auth.GenerateSalt()
			Expect(err).NotTo(HaveOccurred())

			raw, err := base64.StdEncoding.DecodeString(salt)
			Expect(err).NotTo(HaveOccurred())
			Expect(raw).To(HaveLen(16))
		})

		It("should produce distinct salts", func() {
			a, err := auth.GenerateSalt()
			Expect(err).NotTo(HaveOccurred())
			b, err := auth.GenerateSalt()
			Expect(err).NotTo(HaveOccurred())
			Expect(a).NotTo(Equal(b))
		})
	})

	Describe("VerifyPassword", func() {
		It("should accept the original password", func() {
			salt, err := auth.GenerateSalt()
			Expect(err).NotTo(HaveOccurred())

			hash := auth.HashPassword("secret123", salt)
			Expect(auth.VerifyPassword("secret123", hash, salt)).To(BeTrue())
		})

		It("should reject a wrong password", func() {
			salt, err := auth.GenerateSalt()
			Expect(err).NotTo(HaveOccurred())

			hash := auth.HashPassword("secret123", salt)
			Expect(auth.VerifyPassword("secret124", hash, salt)).To(BeFalse())
		})

		It("should depend on the salt", func() {
			saltA, err := auth.GenerateSalt()
			Expect(err).NotTo(HaveOccurred())
			saltB, err := auth.GenerateSalt()
			Expect(err).NotTo(HaveOccurred())

			hash := auth.HashPassword("secret123", saltA)
			Expect(auth.VerifyPassword("secret123", hash, saltB)).To(BeFalse())
		})

		It("should fail closed on a malformed stored hash", func() {
			salt, err := auth.GenerateSalt()
			Expect(err).NotTo(HaveOccurred())
			Expect(auth.VerifyPassword("secret123", "not-base64!!!", salt)).To(BeFalse())
		})

		It("should fail closed on a malformed salt", func() {
			salt, err := auth.GenerateSalt()
			Expect(err).NotTo(HaveOccurred())
			hash := auth.HashPassword("secret123", salt)
			Expect(auth.VerifyPassword("secret123", hash, "***")).To(BeFalse())
		})
	})
})

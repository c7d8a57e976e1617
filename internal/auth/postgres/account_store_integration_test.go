// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/accountd/internal/auth"
	"github.com/holomush/accountd/internal/auth/postgres"
)

// tokenSink captures delivered tokens by username.
type tokenSink struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (s *tokenSink) PasswordResetIssued(_ context.Context, a *auth.Account, token string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens["reset:"+a.Username] = token
	return nil
}

func (s *tokenSink) VerificationIssued(_ context.Context, a *auth.Account, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens["verify:"+a.Username] = token
	return nil
}

func (s *tokenSink) get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[key]
}

var _ = Describe("AccountStore", func() {
	var (
		ctx    context.Context
		engine *auth.Engine
		sink   *tokenSink
		now    time.Time
	)

	register := func(username, email string) *auth.AuthResult {
		res, err := engine.Register(ctx, auth.RegisterInput{
			Username: username, Email: email, Password: "Abcdef1!", ConfirmPassword: "Abcdef1!",
		})
		Expect(err).NotTo(HaveOccurred())
		return res
	}

	BeforeEach(func() {
		ctx = context.Background()
		truncate()
		now = time.Now().UTC().Truncate(time.Second)

		hasher, err := auth.NewArgon2idHasherWithParams(auth.Argon2Params{
			Time: 1, Memory: 1024, Threads: 1, SaltLen: 16, KeyLen: 32,
		})
		Expect(err).NotTo(HaveOccurred())
		sessions, err := auth.NewJWTIssuer([]byte("integration-secret-0123456789abcdef"))
		Expect(err).NotTo(HaveOccurred())

		sink = &tokenSink{tokens: map[string]string{}}
		engine, err = auth.NewEngine(postgres.NewAccountStore(testPool), hasher, sessions,
			auth.WithNotifier(sink),
			auth.WithClock(func() time.Time { return now }),
		)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Register", func() {
		It("persists an account that can log in", func() {
			reg := register("alice", "a@x.com")

			login, err := engine.Login(ctx, "alice", "Abcdef1!")
			Expect(err).NotTo(HaveOccurred())
			Expect(login.Account.ID).To(Equal(reg.Account.ID))
			Expect(login.Account.CreatedAt).To(BeTemporally("~", now, time.Millisecond))
			Expect(login.Account.EmailVerified).To(BeFalse())
		})

		It("reports taken usernames and emails", func() {
			register("alice", "a@x.com")

			_, err := engine.Register(ctx, auth.RegisterInput{
				Username: "alice", Email: "b@x.com", Password: "Abcdef1!", ConfirmPassword: "Abcdef1!",
			})
			Expect(auth.KindOf(err)).To(Equal(auth.KindUsernameTaken))

			_, err = engine.Register(ctx, auth.RegisterInput{
				Username: "bob", Email: "a@x.com", Password: "Abcdef1!", ConfirmPassword: "Abcdef1!",
			})
			Expect(auth.KindOf(err)).To(Equal(auth.KindEmailTaken))
		})

		It("lets exactly one concurrent registration win", func() {
			const attempts = 6
			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				successes int
			)
			for range attempts {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					_, err := engine.Register(ctx, auth.RegisterInput{
						Username: "alice", Email: "a@x.com", Password: "Abcdef1!", ConfirmPassword: "Abcdef1!",
					})
					mu.Lock()
					defer mu.Unlock()
					if err == nil {
						successes++
						return
					}
					Expect(auth.KindOf(err)).To(BeElementOf(
						auth.KindUsernameTaken, auth.KindEmailTaken, auth.KindDuplicateKey))
				}()
			}
			wg.Wait()
			Expect(successes).To(Equal(1))
		})
	})

	Describe("Password reset", func() {
		It("consumes a token once under concurrency", func() {
			register("alice", "a@x.com")
			Expect(engine.RequestPasswordReset(ctx, "a@x.com")).To(Succeed())
			token := sink.get("reset:alice")
			Expect(token).NotTo(BeEmpty())

			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				results []error
			)
			for range 2 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					err := engine.ConfirmPasswordReset(ctx, token, "NewPass1!")
					mu.Lock()
					results = append(results, err)
					mu.Unlock()
				}()
			}
			wg.Wait()

			var ok, rejected int
			for _, err := range results {
				switch auth.KindOf(err) {
				case auth.KindUnknown:
					Expect(err).NotTo(HaveOccurred())
					ok++
				case auth.KindInvalidOrExpiredToken:
					rejected++
				}
			}
			Expect(ok).To(Equal(1))
			Expect(rejected).To(Equal(1))

			_, err := engine.Login(ctx, "alice", "NewPass1!")
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects an expired token without clearing it", func() {
			reg := register("alice", "a@x.com")
			Expect(engine.RequestPasswordReset(ctx, "a@x.com")).To(Succeed())
			token := sink.get("reset:alice")

			now = now.Add(auth.ResetTokenExpiry)
			err := engine.ConfirmPasswordReset(ctx, token, "NewPass1!")
			Expect(auth.KindOf(err)).To(Equal(auth.KindInvalidOrExpiredToken))

			var stored *string
			Expect(testPool.QueryRow(ctx,
				`SELECT reset_token_hash FROM accounts WHERE id = $1`, reg.Account.ID.String()).Scan(&stored)).To(Succeed())
			Expect(stored).NotTo(BeNil())
			Expect(*stored).To(Equal(auth.HashOpaqueToken(token)))
		})

		It("stores only the token digest", func() {
			register("alice", "a@x.com")
			Expect(engine.RequestPasswordReset(ctx, "a@x.com")).To(Succeed())
			token := sink.get("reset:alice")

			var count int
			Expect(testPool.QueryRow(ctx,
				`SELECT count(*) FROM accounts WHERE reset_token_hash = $1`, token).Scan(&count)).To(Succeed())
			Expect(count).To(BeZero())
		})
	})

	Describe("Email verification", func() {
		It("marks the account verified once", func() {
			reg := register("alice", "a@x.com")
			token := sink.get("verify:alice")

			Expect(engine.VerifyEmail(ctx, token)).To(Succeed())
			profile, err := engine.GetProfile(ctx, reg.Account.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.EmailVerified).To(BeTrue())
			Expect(profile.VerificationHash).To(BeNil())

			Expect(auth.KindOf(engine.VerifyEmail(ctx, token))).To(Equal(auth.KindInvalidVerificationToken))
		})
	})

	Describe("Profile", func() {
		It("maps a unique violation to the conflicting field", func() {
			alice := register("alice", "a@x.com")
			register("bob", "b@x.com")

			email := "b@x.com"
			_, err := engine.UpdateProfile(ctx, alice.Account.ID, auth.ProfileUpdate{Email: &email})
			Expect(auth.KindOf(err)).To(Equal(auth.KindDuplicateKey))
			field, _ := auth.DuplicateField(err)
			Expect(field).To(Equal("email"))
		})

		It("reports unknown accounts", func() {
			_, err := engine.GetProfile(ctx, ulid.Make())
			Expect(auth.KindOf(err)).To(Equal(auth.KindAccountNotFound))
		})
	})
})

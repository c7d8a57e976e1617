// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/accountd/internal/auth"
	"github.com/holomush/accountd/internal/auth/postgres"
	"github.com/holomush/accountd/internal/httpapi"
	"github.com/holomush/accountd/internal/revocation"
)

// mailbox captures delivered tokens by kind and username.
type mailbox struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (m *mailbox) PasswordResetIssued(_ context.Context, a *auth.Account, token string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens["reset:"+a.Username] = token
	return nil
}

func (m *mailbox) VerificationIssued(_ context.Context, a *auth.Account, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens["verify:"+a.Username] = token
	return nil
}

func (m *mailbox) get(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[key]
}

// apiResponse is the decoded body of an API response.
type apiResponse struct {
	Status  int
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
	Token   *struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	} `json:"token"`
	User *struct {
		ID            string `json:"id"`
		Username      string `json:"username"`
		Email         string `json:"email"`
		IsActive      bool   `json:"is_active"`
		Role          string `json:"role"`
		EmailVerified bool   `json:"email_verified"`
	} `json:"user"`
}

var _ = Describe("Account API", func() {
	var (
		app  *fiber.App
		mail *mailbox
	)

	call := func(method, path string, body any, token string) apiResponse {
		var reader io.Reader
		if body != nil {
			data, err := json.Marshal(body)
			Expect(err).NotTo(HaveOccurred())
			reader = bytes.NewReader(data)
		}
		req := httptest.NewRequest(method, httpapi.BasePath+path, reader)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = resp.Body.Close() }()

		out := apiResponse{Status: resp.StatusCode}
		Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
		return out
	}

	register := func(username, email string) string {
		res := call(http.MethodPost, "/register", map[string]string{
			"username": username, "email": email,
			"password": "Abcdef1!", "confirm_password": "Abcdef1!",
		}, "")
		Expect(res.Status).To(Equal(http.StatusCreated))
		Expect(res.Token).NotTo(BeNil())
		return res.Token.AccessToken
	}

	BeforeEach(func() {
		reset()

		hasher, err := auth.NewArgon2idHasherWithParams(auth.Argon2Params{
			Time: 1, Memory: 1024, Threads: 1, SaltLen: 16, KeyLen: 32,
		})
		Expect(err).NotTo(HaveOccurred())
		sessions, err := auth.NewJWTIssuer([]byte("integration-secret-0123456789abcdef"))
		Expect(err).NotTo(HaveOccurred())
		reserved, err := auth.NewReservedNames([]string{"admin*"})
		Expect(err).NotTo(HaveOccurred())

		mail = &mailbox{tokens: map[string]string{}}
		engine, err := auth.NewEngine(postgres.NewAccountStore(db.Pool()), hasher, sessions,
			auth.WithNotifier(mail),
			auth.WithRevoker(revocation.New(redisClient)),
			auth.WithReservedNames(reserved),
		)
		Expect(err).NotTo(HaveOccurred())
		app = httpapi.NewHandler(engine).App()
	})

	It("registers, reads the profile and logs out", func() {
		token := register("alice", "alice@example.com")

		profile := call(http.MethodGet, "/profile", nil, token)
		Expect(profile.Status).To(Equal(http.StatusOK))
		Expect(profile.User.Username).To(Equal("alice"))
		Expect(profile.User.Role).To(Equal(auth.DefaultRole))
		Expect(profile.User.EmailVerified).To(BeFalse())

		Expect(call(http.MethodPost, "/logout", nil, token).Status).To(Equal(http.StatusOK))

		revoked := call(http.MethodGet, "/profile", nil, token)
		Expect(revoked.Status).To(Equal(http.StatusUnauthorized))
		Expect(revoked.Message).To(Equal("Token has been revoked"))
	})

	It("rejects duplicate and reserved usernames", func() {
		register("alice", "alice@example.com")

		dup := call(http.MethodPost, "/register", map[string]string{
			"username": "alice", "email": "other@example.com",
			"password": "Abcdef1!", "confirm_password": "Abcdef1!",
		}, "")
		Expect(dup.Status).To(Equal(http.StatusBadRequest))
		Expect(dup.Errors).To(HaveKey("username"))

		reserved := call(http.MethodPost, "/register", map[string]string{
			"username": "administrator", "email": "root@example.com",
			"password": "Abcdef1!", "confirm_password": "Abcdef1!",
		}, "")
		Expect(reserved.Status).To(Equal(http.StatusBadRequest))
		Expect(reserved.Errors["username"]).To(ContainElement(auth.MsgUsernameReserved))
	})

	It("logs in with valid credentials only", func() {
		register("alice", "alice@example.com")

		ok := call(http.MethodPost, "/login", map[string]string{"username": "alice", "password": "Abcdef1!"}, "")
		Expect(ok.Status).To(Equal(http.StatusOK))
		Expect(ok.Token.TokenType).To(Equal(auth.SessionTokenType))

		bad := call(http.MethodPost, "/login", map[string]string{"username": "alice", "password": "Wrong1!pw"}, "")
		Expect(bad.Status).To(Equal(http.StatusUnauthorized))

		unknown := call(http.MethodPost, "/login", map[string]string{"username": "nobody", "password": "Abcdef1!"}, "")
		Expect(unknown.Status).To(Equal(http.StatusUnauthorized))
		Expect(unknown.Errors).To(Equal(bad.Errors))
	})

	It("resets a forgotten password with a single-use token", func() {
		register("alice", "alice@example.com")

		res := call(http.MethodPost, "/forgot-password", map[string]string{"email": "alice@example.com"}, "")
		Expect(res.Status).To(Equal(http.StatusOK))
		unknown := call(http.MethodPost, "/forgot-password", map[string]string{"email": "nobody@example.com"}, "")
		Expect(unknown).To(Equal(res))

		token := mail.get("reset:alice")
		Expect(token).NotTo(BeEmpty())

		body := map[string]string{"token": token, "new_password": "NewPass1!", "confirm_password": "NewPass1!"}
		Expect(call(http.MethodPost, "/reset-password", body, "").Status).To(Equal(http.StatusOK))
		Expect(call(http.MethodPost, "/reset-password", body, "").Status).To(Equal(http.StatusBadRequest))

		Expect(call(http.MethodPost, "/login", map[string]string{"username": "alice", "password": "NewPass1!"}, "").Status).
			To(Equal(http.StatusOK))
		Expect(call(http.MethodPost, "/login", map[string]string{"username": "alice", "password": "Abcdef1!"}, "").Status).
			To(Equal(http.StatusUnauthorized))
	})

	It("verifies the email address", func() {
		token := register("alice", "alice@example.com")

		verify := mail.get("verify:alice")
		Expect(verify).NotTo(BeEmpty())
		Expect(call(http.MethodPost, "/verify-email", map[string]string{"token": verify}, "").Status).
			To(Equal(http.StatusOK))

		profile := call(http.MethodGet, "/profile", nil, token)
		Expect(profile.User.EmailVerified).To(BeTrue())

		Expect(call(http.MethodPost, "/verify-email", map[string]string{"token": verify}, "").Status).
			To(Equal(http.StatusBadRequest))
	})

	It("changes the password after checking the current one", func() {
		token := register("alice", "alice@example.com")

		wrong := call(http.MethodPost, "/change-password", map[string]string{
			"current_password": "Nope1!xyz", "new_password": "NewPass1!", "confirm_password": "NewPass1!",
		}, token)
		Expect(wrong.Status).To(Equal(http.StatusBadRequest))
		Expect(wrong.Errors).To(HaveKey("current_password"))

		ok := call(http.MethodPost, "/change-password", map[string]string{
			"current_password": "Abcdef1!", "new_password": "NewPass1!", "confirm_password": "NewPass1!",
		}, token)
		Expect(ok.Status).To(Equal(http.StatusOK))

		Expect(call(http.MethodPost, "/login", map[string]string{"username": "alice", "password": "NewPass1!"}, "").Status).
			To(Equal(http.StatusOK))
	})

	It("updates the profile and reports conflicts", func() {
		token := register("alice", "alice@example.com")
		register("bob", "bob@example.com")

		updated := call(http.MethodPut, "/profile", map[string]string{"username": "alice2"}, token)
		Expect(updated.Status).To(Equal(http.StatusOK))
		Expect(updated.User.Username).To(Equal("alice2"))

		conflict := call(http.MethodPut, "/profile", map[string]string{"email": "bob@example.com"}, token)
		Expect(conflict.Status).To(Equal(http.StatusBadRequest))
		Expect(conflict.Errors).To(HaveKey("email"))
	})
})

package middleware

import (
	"net/http"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("log filtering", func() {
	It("should mask sensitive JSON fields at any depth", func() {
		out := filterSensitiveBody([]byte(`{"email":"a@b.c","password":"hunter2","nested":[{"api_key":"k"}]}`))
		Expect(out).To(MatchJSON(`{"email":"a@b.c","password":"[FILTERED]","nested":[{"api_key":"[FILTERED]"}]}`))
	})

	It("should drop non-JSON bodies that mention secrets", func() {
		Expect(filterSensitiveBody([]byte("token=abc"))).To(Equal("[FILTERED - Contains sensitive data]"))
		Expect(filterSensitiveBody([]byte("plain text"))).To(Equal("plain text"))
	})

	It("should truncate large bodies", func() {
		Expect(filterSensitiveBody([]byte(strings.Repeat("a", maxLoggedBody+1)))).To(Equal("[TRUNCATED]"))
	})

	It("should mask the authorization header", func() {
		headers := http.Header{}
		headers.Set("Authorization", "Bearer abc")
		headers.Set("Accept", "application/json")

		filtered := filterSensitiveHeaders(headers)
		Expect(filtered["Authorization"]).To(Equal("[FILTERED]"))
		Expect(filtered["Accept"]).To(Equal("application/json"))
	})
})

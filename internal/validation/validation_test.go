package validation_test

import (
	"testing"

	"github.com/frahmantamala/employee-console/internal"
	"github.com/frahmantamala/employee-console/internal/validation"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestValidation(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Validation Suite")
}

var _ = Describe("ValidationBuilder", func() {
	It("returns nil when every rule passes", func() {
		v := validation.NewValidator()
		v.Field("email", "a@b.co").Required().Email()
		Expect(v.Validate()).To(BeNil())
		Expect(v.Errors()).To(BeEmpty())
	})

	It("humanizes labels for required messages", func() {
		v := validation.NewValidator()
		v.Field("code", "").Required()
		v.Field("alternateEmail", " ").Required()
		Expect(v.Errors()).To(Equal(map[string]string{
			"code":           "Code is required",
			"alternateEmail": "Alternate Email is required",
		}))
	})

	It("reports only the first failing rule of a field", func() {
		v := validation.NewValidator()
		v.Field("email", "").Required().Email()
		Expect(v.Errors()).To(HaveKeyWithValue("email", "Email is required"))

		err := v.Validate()
		Expect(err).NotTo(BeNil())
		Expect(err.Details.(internal.ValidationErrors).Errors).To(HaveLen(1))
	})

	It("skips format checks on blank values", func() {
		v := validation.NewValidator()
		v.Field("alternateEmail", "").Email().NotEqual("", "same")
		Expect(v.Errors()).To(BeEmpty())
	})

	It("rejects emails without a dotted domain", func() {
		v := validation.NewValidator()
		v.Field("email", "jane@example").Email()
		Expect(v.Errors()).To(HaveKeyWithValue("email", "Invalid email format"))
	})

	It("short-circuits on a failed precondition", func() {
		v := validation.NewValidator()
		v.Require("passport", "need passport", false)
		v.Field("visaExpiryDate", "").Required()
		Expect(v.Errors()).To(Equal(map[string]string{"passport": "need passport"}))
	})

	DescribeTable("AllOrNone",
		func(values []string, valid bool) {
			v := validation.NewValidator()
			v.AllOrNone("passport", "incomplete", values...)
			Expect(v.Validate() == nil).To(Equal(valid))
		},
		Entry("nothing filled", []string{"", "", ""}, true),
		Entry("everything filled", []string{"P1", "2020-01-01", "2030-01-01"}, true),
		Entry("only one filled", []string{"P1", "", ""}, false),
		Entry("whitespace counts as blank", []string{" ", "", ""}, true),
	)

	DescribeTable("StrongPassword",
		func(password, message string) {
			v := validation.NewValidator()
			v.Field("newPassword", password).StrongPassword()
			if message == "" {
				Expect(v.Errors()).To(BeEmpty())
				return
			}
			Expect(v.Errors()).To(HaveKeyWithValue("newPassword", message))
		},
		Entry("missing uppercase", "abc12345", "Password must contain one uppercase letter"),
		Entry("strong enough", "Abcdef12", ""),
		Entry("everything missing", "", "Password must contain one uppercase letter, one lowercase letter, one number, minimum 8 characters"),
		Entry("too short", "Ab1", "Password must contain minimum 8 characters"),
	)

	It("counts non-blank items", func() {
		v := validation.NewValidator()
		v.Field("visaCountry", []string{"", " "}).MinItems(1, "pick one")
		Expect(v.Errors()).To(HaveKeyWithValue("visaCountry", "pick one"))
	})

	It("compares confirmation values exactly", func() {
		v := validation.NewValidator()
		v.Field("confirmPassword", "Abcdef12 ").Matches("Abcdef12", "Passwords do not match")
		Expect(v.Errors()).To(HaveKeyWithValue("confirmPassword", "Passwords do not match"))
	})
})

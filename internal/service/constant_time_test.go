package service_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/coplie/internal/service"
)

var _ = Describe("constant time comparison", func() {
	DescribeTable("compares strings",
		func(a, b string, expected bool) {
			Expect(service.ConstantTimeEqual(a, b)).To(Equal(expected))
		},
		Entry("equal", "abc123", "abc123", true),
		Entry("both empty", "", "", true),
		Entry("first byte differs", "xbc123", "abc123", false),
		Entry("last byte differs", "abc124", "abc123", false),
		Entry("shorter", "abc", "abc123", false),
		Entry("longer", "abc1234", "abc123", false),
		Entry("unequal length regardless of content", "zzzzzzzzzz", "a", false),
	)
})

package utils_test

import (
	"github.com/tyler-smith/go-bip39"

	"github.com/swaplock/htlcd/utils"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Key derivation", func() {
	newMnemonic := func() string {
		entropy, err := bip39.NewEntropy(256)
		Expect(err).To(BeNil())
		mnemonic, err := bip39.NewMnemonic(entropy)
		Expect(err).To(BeNil())
		return mnemonic
	}

	It("should derive the same key for the same mnemonic and path", func() {
		mnemonic := newMnemonic()

		first, err := utils.NewKeys(mnemonic)
		Expect(err).To(BeNil())
		second, err := utils.NewKeys(mnemonic)
		Expect(err).To(BeNil())

		a, err := first.GetKey(3, 1)
		Expect(err).To(BeNil())
		b, err := second.GetKey(3, 1)
		Expect(err).To(BeNil())

		addrA, err := a.Address()
		Expect(err).To(BeNil())
		addrB, err := b.Address()
		Expect(err).To(BeNil())
		Expect(addrA).To(Equal(addrB))
	})

	It("should derive distinct keys per account", func() {
		keys, err := utils.NewKeys(newMnemonic())
		Expect(err).To(BeNil())

		a, err := keys.GetKey(0, 0)
		Expect(err).To(BeNil())
		b, err := keys.GetKey(1, 0)
		Expect(err).To(BeNil())

		addrA, err := a.Address()
		Expect(err).To(BeNil())
		addrB, err := b.Address()
		Expect(err).To(BeNil())
		Expect(addrA).ToNot(Equal(addrB))
	})

	It("should expose account zero as the operator key", func() {
		keys, err := utils.NewKeys(newMnemonic())
		Expect(err).To(BeNil())

		operator, err := keys.OperatorKey()
		Expect(err).To(BeNil())
		direct, err := keys.GetKey(0, 0)
		Expect(err).To(BeNil())
		Expect(operator).To(BeIdenticalTo(direct))
	})
})

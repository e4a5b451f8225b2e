package htlc_test

import (
	"context"
	"fmt"
	"math/big"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/swaplock/htlcd/htlc"
	"github.com/swaplock/htlcd/store"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var (
	admin = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	alice = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000c3")
	carol = common.HexToAddress("0x00000000000000000000000000000000000000d4")
	vault = common.HexToAddress("0x00000000000000000000000000000000000000ee")
)

// mockWallet records token transfers instead of driving a contract.
type mockWallet struct {
	custodian common.Address
	fail      bool
	transfers []mockTransfer
}

type mockTransfer struct {
	token    common.Address
	from, to common.Address
	tokenID  *big.Int
	amount   *big.Int
}

func (m *mockWallet) Custodian() common.Address { return m.custodian }

func (m *mockWallet) Transfer(ctx context.Context, token common.Address, from, to common.Address, tokenID, amount *big.Int) error {
	if m.fail {
		return fmt.Errorf("token contract reverted")
	}
	m.transfers = append(m.transfers, mockTransfer{token, from, to, tokenID, amount})
	return nil
}

var _ = Describe("Escrow engine", func() {
	var (
		engine *htlc.Engine
		ledger *store.Store
		wallet *mockWallet
		now    time.Time
		ctx    context.Context

		secret     []byte
		secretHash common.Hash
	)

	deposit := func(account common.Address, amount int64) {
		Expect(engine.Deposit(admin, account, big.NewInt(amount))).To(Succeed())
	}

	createNative := func(maker common.Address, taker *common.Address, amount int64, hours uint64) (*htlc.Swap, error) {
		return engine.Create(ctx, htlc.CreateParams{
			Maker:         maker,
			Taker:         taker,
			SecretHash:    secretHash.Bytes(),
			TimelockHours: hours,
			Amount:        big.NewInt(amount),
		})
	}

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

		path := filepath.Join(GinkgoT().TempDir(), "htlc.db")
		var err error
		ledger, err = store.NewStore(sqlite.Open(path), admin, &gorm.Config{
			NowFunc: func() time.Time { return time.Now().UTC() },
		})
		Expect(err).To(BeNil())

		wallet = &mockWallet{custodian: vault}
		engine = htlc.NewEngine(ledger, vault, zap.NewNop(),
			htlc.WithTokenWallet(wallet),
			htlc.WithNowFunc(func() time.Time { return now }),
		)

		secret = []byte("an unguessable preimage")
		secretHash = htlc.HashSecret(secret)
	})

	Context("when creating swaps", func() {
		It("should allocate sequential ids starting from one", func() {
			deposit(alice, 10_000_000)

			first, err := createNative(alice, nil, 1_000_000, 24)
			Expect(err).To(BeNil())
			Expect(first.ID).To(Equal(uint64(1)))

			second, err := createNative(alice, nil, 1_000_000, 24)
			Expect(err).To(BeNil())
			Expect(second.ID).To(Equal(uint64(2)))

			next, err := engine.NextSwapID()
			Expect(err).To(BeNil())
			Expect(next).To(Equal(uint64(3)))
		})

		It("should take the fee off the escrowed principal", func() {
			deposit(alice, 1_000_000)

			swap, err := createNative(alice, &bob, 1_000_000, 24)
			Expect(err).To(BeNil())

			By("recording the net principal")
			funding, ok := swap.Funding.(htlc.NativeFunding)
			Expect(ok).To(BeTrue())
			Expect(funding.Amount.Int64()).To(Equal(int64(999_000)))

			By("moving the gross amount into the vault")
			balance, err := engine.Balance(alice)
			Expect(err).To(BeNil())
			Expect(balance.Sign()).To(Equal(0))
			balance, err = engine.Balance(vault)
			Expect(err).To(BeNil())
			Expect(balance.Int64()).To(Equal(int64(1_000_000)))

			By("booking the fee into the pool")
			fees, err := engine.CollectedFees()
			Expect(err).To(BeNil())
			Expect(fees.Int64()).To(Equal(int64(1_000)))
		})

		It("should reject a secret hash that is not 32 bytes", func() {
			deposit(alice, 1_000_000)
			_, err := engine.Create(ctx, htlc.CreateParams{
				Maker:         alice,
				SecretHash:    []byte{0x01, 0x02},
				TimelockHours: 24,
				Amount:        big.NewInt(1000),
			})
			Expect(err).To(MatchError(htlc.ErrInvalidSecretHashLength))
		})

		It("should enforce the timelock bounds", func() {
			deposit(alice, 1_000_000)

			_, err := createNative(alice, nil, 1000, 0)
			Expect(err).To(MatchError(htlc.ErrTimelockTooShort))

			_, err = createNative(alice, nil, 1000, 169)
			Expect(err).To(MatchError(htlc.ErrTimelockTooLong))

			_, err = createNative(alice, nil, 1000, 168)
			Expect(err).To(BeNil())
		})

		It("should require a positive amount", func() {
			_, err := createNative(alice, nil, 0, 24)
			Expect(err).To(MatchError(htlc.ErrAmountRequired))

			_, err = engine.Create(ctx, htlc.CreateParams{
				Maker:         alice,
				SecretHash:    secretHash.Bytes(),
				TimelockHours: 24,
			})
			Expect(err).To(MatchError(htlc.ErrAmountRequired))
		})

		It("should reject a maker who cannot cover the amount", func() {
			deposit(alice, 500)
			_, err := createNative(alice, nil, 1000, 24)
			Expect(err).To(MatchError(htlc.ErrInsufficientBalance))
		})

		It("should refuse new swaps while paused", func() {
			deposit(alice, 1_000_000)
			Expect(engine.Pause(admin)).To(Succeed())

			_, err := createNative(alice, nil, 1000, 24)
			Expect(err).To(MatchError(htlc.ErrContractPaused))

			Expect(engine.Unpause(admin)).To(Succeed())
			_, err = createNative(alice, nil, 1000, 24)
			Expect(err).To(BeNil())
		})
	})

	Context("when claiming swaps", func() {
		var swap *htlc.Swap

		BeforeEach(func() {
			deposit(alice, 1_000_000)
			var err error
			swap, err = createNative(alice, &bob, 1_000_000, 24)
			Expect(err).To(BeNil())
		})

		It("should pay the principal to the claimer", func() {
			claimed, err := engine.Claim(ctx, bob, swap.ID, secret)
			Expect(err).To(BeNil())
			Expect(claimed.Status).To(Equal(htlc.StatusClaimed))

			balance, err := engine.Balance(bob)
			Expect(err).To(BeNil())
			Expect(balance.Int64()).To(Equal(int64(999_000)))

			By("leaving only the fee in the vault")
			balance, err = engine.Balance(vault)
			Expect(err).To(BeNil())
			Expect(balance.Int64()).To(Equal(int64(1_000)))
		})

		It("should reject a wrong secret", func() {
			_, err := engine.Claim(ctx, bob, swap.ID, []byte("not the preimage"))
			Expect(err).To(MatchError(htlc.ErrInvalidSecret))
		})

		It("should reject a claimer other than the designated taker", func() {
			_, err := engine.Claim(ctx, carol, swap.ID, secret)
			Expect(err).To(MatchError(htlc.ErrUnauthorizedClaimer))
		})

		It("should let anyone with the secret claim an open swap", func() {
			deposit(alice, 1000)
			open, err := createNative(alice, nil, 1000, 24)
			Expect(err).To(BeNil())

			_, err = engine.Claim(ctx, carol, open.ID, secret)
			Expect(err).To(BeNil())
		})

		It("should close the claim window exactly at the deadline", func() {
			now = swap.Deadline
			_, err := engine.Claim(ctx, bob, swap.ID, secret)
			Expect(err).To(MatchError(htlc.ErrSwapExpired))
		})

		It("should refuse claims while paused", func() {
			Expect(engine.Pause(admin)).To(Succeed())
			_, err := engine.Claim(ctx, bob, swap.ID, secret)
			Expect(err).To(MatchError(htlc.ErrContractPaused))
		})

		It("should resolve a swap at most once", func() {
			_, err := engine.Claim(ctx, bob, swap.ID, secret)
			Expect(err).To(BeNil())

			_, err = engine.Claim(ctx, bob, swap.ID, secret)
			Expect(err).To(MatchError(htlc.ErrSwapNotActive))

			now = swap.Deadline.Add(time.Hour)
			_, err = engine.Refund(ctx, alice, swap.ID)
			Expect(err).To(MatchError(htlc.ErrSwapNotActive))
		})

		It("should reject an unknown swap id", func() {
			_, err := engine.Claim(ctx, bob, 42, secret)
			Expect(err).To(MatchError(htlc.ErrSwapNotFound))
		})
	})

	Context("when refunding swaps", func() {
		var swap *htlc.Swap

		BeforeEach(func() {
			deposit(alice, 1_000_000)
			var err error
			swap, err = createNative(alice, &bob, 1_000_000, 24)
			Expect(err).To(BeNil())
		})

		It("should refuse a refund before the deadline", func() {
			_, err := engine.Refund(ctx, alice, swap.ID)
			Expect(err).To(MatchError(htlc.ErrSwapNotExpired))
		})

		It("should open the refund window exactly at the deadline", func() {
			now = swap.Deadline
			refunded, err := engine.Refund(ctx, alice, swap.ID)
			Expect(err).To(BeNil())
			Expect(refunded.Status).To(Equal(htlc.StatusRefunded))

			By("returning the net principal, the fee stays collected")
			balance, err := engine.Balance(alice)
			Expect(err).To(BeNil())
			Expect(balance.Int64()).To(Equal(int64(999_000)))
		})

		It("should only refund to the maker", func() {
			now = swap.Deadline
			_, err := engine.Refund(ctx, bob, swap.ID)
			Expect(err).To(MatchError(htlc.ErrUnauthorizedRefunder))
		})

		It("should keep refunds available while paused", func() {
			Expect(engine.Pause(admin)).To(Succeed())
			now = swap.Deadline
			_, err := engine.Refund(ctx, alice, swap.ID)
			Expect(err).To(BeNil())
		})
	})

	Context("when escrowing tokens", func() {
		tokenContract := common.HexToAddress("0x00000000000000000000000000000000000000f5")

		createToken := func(maker common.Address) (*htlc.Swap, error) {
			return engine.Create(ctx, htlc.CreateParams{
				Maker:         maker,
				Taker:         &bob,
				SecretHash:    secretHash.Bytes(),
				TimelockHours: 24,
				TokenContract: &tokenContract,
				TokenID:       big.NewInt(7),
				TokenAmount:   big.NewInt(50),
			})
		}

		It("should pull the tokens into custody on create", func() {
			swap, err := createToken(alice)
			Expect(err).To(BeNil())

			funding, ok := swap.Funding.(htlc.TokenFunding)
			Expect(ok).To(BeTrue())
			Expect(funding.Contract).To(Equal(tokenContract))

			Expect(wallet.transfers).To(HaveLen(1))
			Expect(wallet.transfers[0].from).To(Equal(alice))
			Expect(wallet.transfers[0].to).To(Equal(vault))
			Expect(wallet.transfers[0].amount.Int64()).To(Equal(int64(50)))
		})

		It("should not charge a fee on token swaps", func() {
			_, err := createToken(alice)
			Expect(err).To(BeNil())

			fees, err := engine.CollectedFees()
			Expect(err).To(BeNil())
			Expect(fees.Sign()).To(Equal(0))
		})

		It("should release the tokens to the claimer", func() {
			swap, err := createToken(alice)
			Expect(err).To(BeNil())

			_, err = engine.Claim(ctx, bob, swap.ID, secret)
			Expect(err).To(BeNil())

			Expect(wallet.transfers).To(HaveLen(2))
			Expect(wallet.transfers[1].from).To(Equal(vault))
			Expect(wallet.transfers[1].to).To(Equal(bob))
		})

		It("should reject mixing native value with a token lock", func() {
			_, err := engine.Create(ctx, htlc.CreateParams{
				Maker:         alice,
				SecretHash:    secretHash.Bytes(),
				TimelockHours: 24,
				Amount:        big.NewInt(1000),
				TokenContract: &tokenContract,
				TokenID:       big.NewInt(7),
				TokenAmount:   big.NewInt(50),
			})
			Expect(err).To(MatchError(htlc.ErrConflictingFundingMode))
		})

		It("should require a positive token amount", func() {
			_, err := engine.Create(ctx, htlc.CreateParams{
				Maker:         alice,
				SecretHash:    secretHash.Bytes(),
				TimelockHours: 24,
				TokenContract: &tokenContract,
				TokenID:       big.NewInt(7),
			})
			Expect(err).To(MatchError(htlc.ErrTokenAmountRequired))

			_, err = engine.Create(ctx, htlc.CreateParams{
				Maker:         alice,
				SecretHash:    secretHash.Bytes(),
				TimelockHours: 24,
				TokenContract: &tokenContract,
				TokenID:       big.NewInt(7),
				TokenAmount:   big.NewInt(0),
			})
			Expect(err).To(MatchError(htlc.ErrInvalidTokenAmount))
		})

		It("should reject the zero token contract", func() {
			zero := common.Address{}
			_, err := engine.Create(ctx, htlc.CreateParams{
				Maker:         alice,
				SecretHash:    secretHash.Bytes(),
				TimelockHours: 24,
				TokenContract: &zero,
				TokenID:       big.NewInt(7),
				TokenAmount:   big.NewInt(50),
			})
			Expect(err).To(MatchError(htlc.ErrInvalidTokenContract))
		})

		It("should roll the status back when the release transfer fails", func() {
			swap, err := createToken(alice)
			Expect(err).To(BeNil())

			wallet.fail = true
			_, err = engine.Claim(ctx, bob, swap.ID, secret)
			Expect(err).ToNot(BeNil())

			By("the swap stays active and claimable")
			wallet.fail = false
			stored, err := engine.Swap(swap.ID)
			Expect(err).To(BeNil())
			Expect(stored.Status).To(Equal(htlc.StatusActive))

			_, err = engine.Claim(ctx, bob, swap.ID, secret)
			Expect(err).To(BeNil())
		})
	})

	Context("when administering the contract", func() {
		It("should gate configuration behind the admin role", func() {
			Expect(engine.Pause(alice)).To(MatchError(htlc.ErrAdminOnly))
			Expect(engine.SetFeeBps(alice, 50)).To(MatchError(htlc.ErrAdminOnly))
			Expect(engine.SetAdmin(alice, alice)).To(MatchError(htlc.ErrAdminOnly))
			Expect(engine.Deposit(alice, alice, big.NewInt(1))).To(MatchError(htlc.ErrAdminOnly))
			_, err := engine.WithdrawFees(alice, alice)
			Expect(err).To(MatchError(htlc.ErrAdminOnly))
		})

		It("should cap the fee at 500 basis points", func() {
			Expect(engine.SetFeeBps(admin, 501)).To(MatchError(htlc.ErrFeeTooHigh))
			Expect(engine.SetFeeBps(admin, 500)).To(Succeed())
		})

		It("should apply a fee change to swaps created afterwards", func() {
			deposit(alice, 2_000_000)
			Expect(engine.SetFeeBps(admin, 100)).To(Succeed())

			swap, err := createNative(alice, nil, 1_000_000, 24)
			Expect(err).To(BeNil())
			funding := swap.Funding.(htlc.NativeFunding)
			Expect(funding.Amount.Int64()).To(Equal(int64(990_000)))
		})

		It("should hand the admin role over", func() {
			Expect(engine.SetAdmin(admin, carol)).To(Succeed())
			Expect(engine.Pause(admin)).To(MatchError(htlc.ErrAdminOnly))
			Expect(engine.Pause(carol)).To(Succeed())
		})

		It("should pay out and reset the fee pool on withdrawal", func() {
			_, err := engine.WithdrawFees(admin, carol)
			Expect(err).To(MatchError(htlc.ErrNoFeesToWithdraw))

			deposit(alice, 1_000_000)
			_, err = createNative(alice, nil, 1_000_000, 24)
			Expect(err).To(BeNil())

			withdrawn, err := engine.WithdrawFees(admin, carol)
			Expect(err).To(BeNil())
			Expect(withdrawn.Int64()).To(Equal(int64(1_000)))

			balance, err := engine.Balance(carol)
			Expect(err).To(BeNil())
			Expect(balance.Int64()).To(Equal(int64(1_000)))

			_, err = engine.WithdrawFees(admin, carol)
			Expect(err).To(MatchError(htlc.ErrNoFeesToWithdraw))
		})
	})
})

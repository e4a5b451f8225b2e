package handlers_test

import (
	"encoding/hex"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/swaplock/htlcd/daemon/rpc/handlers"
	"github.com/swaplock/htlcd/daemon/types"
	"github.com/swaplock/htlcd/htlc"
	"github.com/swaplock/htlcd/store"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// memorySecrets is an in-process stand in for the redis propagation store.
type memorySecrets struct {
	secrets map[string][]byte
}

func (m *memorySecrets) PutSecret(hash, secret []byte) error {
	m.secrets[hex.EncodeToString(hash)] = secret
	return nil
}

func (m *memorySecrets) Secret(hash []byte) ([]byte, error) {
	return m.secrets[hex.EncodeToString(hash)], nil
}

var _ = Describe("RPC handlers", func() {
	var (
		cfg     types.CoreConfig
		secrets *memorySecrets
		now     time.Time

		admin = common.HexToAddress("0x00000000000000000000000000000000000000a1")
		alice = common.HexToAddress("0x00000000000000000000000000000000000000b2")
		bob   = common.HexToAddress("0x00000000000000000000000000000000000000c3")
		vault = common.HexToAddress("0x00000000000000000000000000000000000000ee")

		secret     = "736f6d652068696464656e20707265696d616765"
		secretHash string
	)

	BeforeEach(func() {
		now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

		path := filepath.Join(GinkgoT().TempDir(), "handlers.db")
		str, err := store.NewStore(sqlite.Open(path), admin, &gorm.Config{
			NowFunc: func() time.Time { return time.Now().UTC() },
		})
		Expect(err).To(BeNil())

		engine := htlc.NewEngine(str, vault, zap.NewNop(),
			htlc.WithNowFunc(func() time.Time { return now }),
		)
		secrets = &memorySecrets{secrets: map[string][]byte{}}
		cfg = types.CoreConfig{
			Engine:  engine,
			Storage: str,
			Secrets: secrets,
			Logger:  zap.NewNop(),
		}

		secretBytes, err := hex.DecodeString(secret)
		Expect(err).To(BeNil())
		secretHash = htlc.HashSecret(secretBytes).Hex()

		Expect(handlers.Deposit(&cfg, admin, types.RequestDeposit{
			Account: alice.Hex(),
			Amount:  "1000000",
		})).To(Succeed())
	})

	It("should run a swap through the wire types end to end", func() {
		By("creating")
		created, err := handlers.Create(&cfg, alice, types.RequestCreate{
			Taker:         bob.Hex(),
			SecretHash:    secretHash,
			TimelockHours: 24,
			Amount:        "1000000",
		})
		Expect(err).To(BeNil())
		Expect(created.SwapID).To(Equal(uint64(1)))

		By("reading it back")
		got, err := handlers.GetSwap(&cfg, types.RequestGetSwap{SwapID: created.SwapID})
		Expect(err).To(BeNil())
		Expect(got.Status).To(Equal("active"))
		Expect(got.Amount).To(Equal("999000"))
		Expect(got.SecretHash).To(Equal(secretHash))

		By("claiming with the preimage")
		claimed, err := handlers.Claim(&cfg, bob, types.RequestClaim{
			SwapID: created.SwapID,
			Secret: secret,
		})
		Expect(err).To(BeNil())
		Expect(claimed.Status).To(Equal("claimed"))

		By("checking the claimer's balance")
		balance, err := handlers.BalanceOf(&cfg, types.RequestBalance{Account: bob.Hex()})
		Expect(err).To(BeNil())
		Expect(balance.Balance).To(Equal("999000"))
	})

	It("should publish the revealed secret after a claim", func() {
		created, err := handlers.Create(&cfg, alice, types.RequestCreate{
			SecretHash:    secretHash,
			TimelockHours: 24,
			Amount:        "1000",
		})
		Expect(err).To(BeNil())

		_, err = handlers.Claim(&cfg, bob, types.RequestClaim{
			SwapID: created.SwapID,
			Secret: secret,
		})
		Expect(err).To(BeNil())

		hashBytes, err := hex.DecodeString(secretHash[2:])
		Expect(err).To(BeNil())
		stored, err := secrets.Secret(hashBytes)
		Expect(err).To(BeNil())
		expected, _ := hex.DecodeString(secret)
		Expect(stored).To(Equal(expected))
	})

	It("should surface stable failure codes unchanged", func() {
		_, err := handlers.Create(&cfg, alice, types.RequestCreate{
			SecretHash:    secretHash,
			TimelockHours: 200,
			Amount:        "1000",
		})
		Expect(err).To(MatchError(htlc.ErrTimelockTooLong))

		_, err = handlers.Refund(&cfg, alice, types.RequestRefund{SwapID: 99})
		Expect(err).To(MatchError(htlc.ErrSwapNotFound))
	})

	It("should reject malformed addresses and amounts before touching the engine", func() {
		_, err := handlers.Create(&cfg, alice, types.RequestCreate{
			Taker:         "not-an-address",
			SecretHash:    secretHash,
			TimelockHours: 24,
			Amount:        "1000",
		})
		Expect(err).ToNot(BeNil())

		err = handlers.Deposit(&cfg, admin, types.RequestDeposit{
			Account: alice.Hex(),
			Amount:  "12.5",
		})
		Expect(err).ToNot(BeNil())
	})

	It("should refund through the wire types", func() {
		created, err := handlers.Create(&cfg, alice, types.RequestCreate{
			SecretHash:    secretHash,
			TimelockHours: 1,
			Amount:        "1000",
		})
		Expect(err).To(BeNil())

		now = now.Add(2 * time.Hour)
		refunded, err := handlers.Refund(&cfg, alice, types.RequestRefund{SwapID: created.SwapID})
		Expect(err).To(BeNil())
		Expect(refunded.Status).To(Equal("refunded"))
	})
})
